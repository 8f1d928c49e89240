package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOccurrence(occurredAt time.Time) *models.Occurrence {
	return &models.Occurrence{
		ID:         uuid.New(),
		Type:       models.TypeFire,
		Status:     models.StatusNew,
		Priority:   models.PriorityHigh,
		OccurredAt: occurredAt,
		CreatedBy:  uuid.New(),
	}
}

func TestNext_CanonicalPath(t *testing.T) {
	s := models.StatusNew
	var path []models.Status
	for {
		next, ok := Next(s)
		if !ok {
			break
		}
		path = append(path, next)
		s = next
	}
	assert.Equal(t, models.Statuses()[1:], path)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		from    models.Status
		to      models.Status
		wantErr error
	}{
		{"new to review", models.StatusNew, models.StatusUnderReview, nil},
		{"review to progress", models.StatusUnderReview, models.StatusInProgress, nil},
		{"progress to completed", models.StatusInProgress, models.StatusCompleted, nil},
		{"skip forward", models.StatusNew, models.StatusInProgress, models.ErrInvalidTransition},
		{"backward", models.StatusInProgress, models.StatusNew, models.ErrInvalidTransition},
		{"self", models.StatusUnderReview, models.StatusUnderReview, models.ErrInvalidTransition},
		{"from terminal", models.StatusCompleted, models.StatusCompleted, models.ErrInvalidTransition},
		{"unknown target", models.StatusNew, models.Status("CLOSED"), models.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.from, tc.to)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestPlan_ResponseTimeScenario(t *testing.T) {
	occurredAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	occ := newOccurrence(occurredAt)
	actor := uuid.New()

	tr, err := Plan(occ, models.StatusUnderReview, actor, "em análise", occurredAt.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, occ.Status, "source record must not change")
	require.NotNil(t, tr.Occurrence.AssignedTo)
	assert.Equal(t, actor, *tr.Occurrence.AssignedTo)
	assert.Nil(t, tr.Occurrence.DispatchedAt)
	require.NoError(t, CheckInvariants(tr.Occurrence))

	tr, err = Plan(tr.Occurrence, models.StatusInProgress, actor, "equipe despachada", occurredAt.Add(30*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, tr.Occurrence.ResponseMinutes)
	assert.Equal(t, 30, *tr.Occurrence.ResponseMinutes)
	assert.Equal(t, occurredAt.Add(30*time.Minute), *tr.Occurrence.DispatchedAt)
	assert.Equal(t, models.StatusUnderReview, tr.Expected)
	require.NoError(t, CheckInvariants(tr.Occurrence))

	tr, err = Plan(tr.Occurrence, models.StatusCompleted, actor, "finalizada", occurredAt.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, occurredAt.Add(3*time.Hour), *tr.Occurrence.ResolvedAt)
	assert.Equal(t, 30, *tr.Occurrence.ResponseMinutes)
	assert.Equal(t, models.StatusInProgress, tr.Entry.PreviousStatus)
	assert.Equal(t, models.StatusCompleted, tr.Entry.NewStatus)
	require.NoError(t, CheckInvariants(tr.Occurrence))
}

func TestPlan_KeepsExistingAssignee(t *testing.T) {
	occ := newOccurrence(time.Now())
	assignee := uuid.New()
	occ.AssignedTo = &assignee

	tr, err := Plan(occ, models.StatusUnderReview, uuid.New(), "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, assignee, *tr.Occurrence.AssignedTo)
}

func TestPlan_RejectsSkip(t *testing.T) {
	occ := newOccurrence(time.Now())

	tr, err := Plan(occ, models.StatusInProgress, uuid.New(), "", time.Now())
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Nil(t, tr)
	assert.Nil(t, occ.DispatchedAt)
}

func TestResponseMinutes(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, ResponseMinutes(base, base.Add(59*time.Second)))
	assert.Equal(t, 90, ResponseMinutes(base, base.Add(90*time.Minute+30*time.Second)))
	assert.Equal(t, 0, ResponseMinutes(base, base.Add(-time.Hour)))
}

func TestVerifyWalk(t *testing.T) {
	base := time.Now()
	occID := uuid.New()
	entry := func(from, to models.Status, at time.Time) *models.HistoryEntry {
		return &models.HistoryEntry{OccurrenceID: occID, PreviousStatus: from, NewStatus: to, CreatedAt: at}
	}

	require.NoError(t, VerifyWalk(nil))
	require.NoError(t, VerifyWalk([]*models.HistoryEntry{
		entry(models.StatusNew, models.StatusUnderReview, base),
		entry(models.StatusUnderReview, models.StatusInProgress, base.Add(time.Minute)),
	}))

	assert.Error(t, VerifyWalk([]*models.HistoryEntry{
		entry(models.StatusUnderReview, models.StatusInProgress, base),
	}))
	assert.Error(t, VerifyWalk([]*models.HistoryEntry{
		entry(models.StatusNew, models.StatusUnderReview, base),
		entry(models.StatusUnderReview, models.StatusInProgress, base.Add(-time.Minute)),
	}))
}
