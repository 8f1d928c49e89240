package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery_NoFilters(t *testing.T) {
	query, args := buildListQuery(models.OccurrenceFilter{Page: 1, PageSize: 20})

	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "ORDER BY occurred_at DESC")
	assert.Contains(t, query, "LIMIT $1 OFFSET $2")
	assert.Equal(t, []any{20, 0}, args)
}

func TestBuildListQuery_AllFilters(t *testing.T) {
	status := models.StatusInProgress
	typ := models.TypeFire
	prio := models.PriorityHigh
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	query, args := buildListQuery(models.OccurrenceFilter{
		Status:       &status,
		Type:         &typ,
		Priority:     &prio,
		Neighborhood: "Centro",
		From:         &from,
		To:           &to,
		Page:         3,
		PageSize:     10,
	})

	for _, cond := range []string{
		"status = $1",
		"type = $2",
		"priority = $3",
		"neighborhood = $4",
		"occurred_at >= $5",
		"occurred_at <= $6",
	} {
		assert.Contains(t, query, cond)
	}
	assert.Equal(t, 5, strings.Count(query, " AND "))
	assert.Contains(t, query, "LIMIT $7 OFFSET $8")
	assert.Equal(t, []any{status, typ, prio, "Centro", from, to, 10, 20}, args)
}

func TestBuildUpdateQuery_SetsOnlyPatchedColumns(t *testing.T) {
	id := uuid.New()
	desc := "fumaça preta"
	at := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	query, args := buildUpdateQuery(id, models.OccurrenceUpdate{Description: &desc}, at)

	assert.Contains(t, query, "SET description = $1, updated_at = $2")
	assert.Contains(t, query, "WHERE id = $3")
	assert.Contains(t, query, "RETURNING")
	for _, column := range []string{"place =", "assigned_to =", "status =", "priority ="} {
		assert.NotContains(t, query, column)
	}
	assert.Equal(t, []any{desc, at, id}, args)
}

func TestBuildUpdateQuery_AllColumns(t *testing.T) {
	id := uuid.New()
	place, address, hood, desc := "Praça", "Rua A, 10", "Centro", "x"
	lat, lon := -23.5, -46.6
	prio := models.PriorityLow
	assignee := uuid.New()
	at := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	query, args := buildUpdateQuery(id, models.OccurrenceUpdate{
		Place:        &place,
		Address:      &address,
		Neighborhood: &hood,
		Latitude:     &lat,
		Longitude:    &lon,
		Description:  &desc,
		Priority:     &prio,
		AssignedTo:   &assignee,
	}, at)

	assert.Contains(t, query, "assigned_to = $8, updated_at = $9")
	assert.Contains(t, query, "WHERE id = $10")
	assert.Equal(t, []any{place, address, hood, lat, lon, desc, prio, assignee, at, id}, args)
}

func newMockRepository(t *testing.T) (*OccurrenceRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &OccurrenceRepository{db: mock}, mock
}

// plannedTransition - происшествие после перехода NEW -> UNDER_REVIEW и его запись истории
func plannedTransition() (*models.Occurrence, *models.HistoryEntry) {
	actor := uuid.New()
	now := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	o := &models.Occurrence{
		ID:         uuid.New(),
		Type:       models.TypeFire,
		Status:     models.StatusUnderReview,
		Priority:   models.PriorityHigh,
		AssignedTo: &actor,
		UpdatedAt:  now,
	}
	entry := &models.HistoryEntry{
		ID:             uuid.New(),
		OccurrenceID:   o.ID,
		PreviousStatus: models.StatusNew,
		NewStatus:      models.StatusUnderReview,
		ActedBy:        actor,
		CreatedAt:      now,
	}
	return o, entry
}

func expectConditionalUpdate(mock pgxmock.PgxPoolIface, o *models.Occurrence, rows int64) {
	mock.ExpectExec(regexp.QuoteMeta("UPDATE occurrences SET")).
		WithArgs(o.Status, o.DispatchedAt, o.ResolvedAt, o.ResponseMinutes, o.AssignedTo, o.UpdatedAt, o.ID, models.StatusNew).
		WillReturnResult(pgxmock.NewResult("UPDATE", rows))
}

func TestApplyTransition_Success(t *testing.T) {
	repo, mock := newMockRepository(t)
	o, entry := plannedTransition()
	// последняя запись истории позже текущих часов
	stored := entry.CreatedAt.Add(time.Second)
	previousAssignee := uuid.New()

	mock.ExpectBegin()
	expectConditionalUpdate(mock, o, 1)
	mock.ExpectQuery(regexp.QuoteMeta("GREATEST($7::timestamptz, COALESCE(MAX(created_at), $7::timestamptz))")).
		WithArgs(entry.ID, entry.OccurrenceID, entry.PreviousStatus, entry.NewStatus, entry.Note, entry.ActedBy, entry.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(stored))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT assigned_to FROM occurrences")).
		WithArgs(o.ID).
		WillReturnRows(pgxmock.NewRows([]string{"assigned_to"}).AddRow(&previousAssignee))
	mock.ExpectCommit()

	err := repo.ApplyTransition(context.Background(), o, models.StatusNew, entry)

	require.NoError(t, err)
	assert.Equal(t, stored, entry.CreatedAt)
	require.NotNil(t, o.AssignedTo)
	assert.Equal(t, previousAssignee, *o.AssignedTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransition_NoMatchingRow(t *testing.T) {
	testCases := []struct {
		name   string
		exists bool
		want   error
	}{
		{name: "occurrence is gone", exists: false, want: models.ErrNotFound},
		{name: "status changed concurrently", exists: true, want: models.ErrConflict},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			o, entry := plannedTransition()

			mock.ExpectBegin()
			expectConditionalUpdate(mock, o, 0)
			mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
				WithArgs(o.ID).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tc.exists))
			mock.ExpectRollback()

			err := repo.ApplyTransition(context.Background(), o, models.StatusNew, entry)

			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestApplyTransition_HistoryInsertFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)
	o, entry := plannedTransition()
	insertErr := errors.New("insert failed")

	mock.ExpectBegin()
	expectConditionalUpdate(mock, o, 1)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO occurrence_history")).
		WithArgs(entry.ID, entry.OccurrenceID, entry.PreviousStatus, entry.NewStatus, entry.Note, entry.ActedBy, entry.CreatedAt).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), o, models.StatusNew, entry)

	assert.ErrorIs(t, err, insertErr)
	// Commit не ожидался: ExpectationsWereMet упадет, если порядок нарушен
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RemovesHistoryAndRowInOneTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM occurrence_history")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM occurrences")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFoundRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM occurrence_history")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM occurrences")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), id)

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_UnknownAssigneeIsValidationError(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	assignee := uuid.New()
	at := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE occurrences SET assigned_to = $1, updated_at = $2")).
		WithArgs(assignee, at, id).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

	_, err := repo.Update(context.Background(), id, models.OccurrenceUpdate{AssignedTo: &assignee}, at)

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
