// Package lifecycle описывает машину состояний происшествия:
// NEW -> UNDER_REVIEW -> IN_PROGRESS -> COMPLETED.
// Переход возможен только на один шаг вперед; COMPLETED терминален.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
)

// Next возвращает непосредственного преемника статуса
func Next(s models.Status) (models.Status, bool) {
	switch s {
	case models.StatusNew:
		return models.StatusUnderReview, true
	case models.StatusUnderReview:
		return models.StatusInProgress, true
	case models.StatusInProgress:
		return models.StatusCompleted, true
	case models.StatusCompleted:
		return "", false
	}
	return "", false
}

// Validate проверяет, что target - непосредственный преемник current
func Validate(current, target models.Status) error {
	if !target.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, target)
	}
	next, ok := Next(current)
	if !ok {
		return fmt.Errorf("%w: %s is terminal", models.ErrInvalidTransition, current)
	}
	if next != target {
		return fmt.Errorf("%w: %s -> %s (expected %s)", models.ErrInvalidTransition, current, target, next)
	}
	return nil
}

// Transition - подготовленная пара (новое состояние, запись истории),
// которую хранилище должно зафиксировать атомарно.
type Transition struct {
	Occurrence *models.Occurrence
	// Expected - статус, который должен оставаться в строке на момент записи
	Expected models.Status
	Entry    *models.HistoryEntry
}

// Plan вычисляет результат перехода, не изменяя исходную запись
func Plan(current *models.Occurrence, target models.Status, actorID uuid.UUID, note string, now time.Time) (*Transition, error) {
	if err := Validate(current.Status, target); err != nil {
		return nil, err
	}

	next := *current
	next.Status = target
	next.UpdatedAt = now

	switch target {
	case models.StatusUnderReview:
		// Ответственный появляется, как только происшествие покидает NEW
		if next.AssignedTo == nil {
			assignee := actorID
			next.AssignedTo = &assignee
		}
	case models.StatusInProgress:
		dispatched := now
		minutes := ResponseMinutes(current.OccurredAt, dispatched)
		next.DispatchedAt = &dispatched
		next.ResponseMinutes = &minutes
	case models.StatusCompleted:
		resolved := now
		next.ResolvedAt = &resolved
	case models.StatusNew:
		return nil, fmt.Errorf("%w: cannot enter %s", models.ErrInvalidTransition, target)
	}

	return &Transition{
		Occurrence: &next,
		Expected:   current.Status,
		Entry: &models.HistoryEntry{
			ID:             uuid.New(),
			OccurrenceID:   current.ID,
			PreviousStatus: current.Status,
			NewStatus:      target,
			Note:           note,
			ActedBy:        actorID,
			CreatedAt:      now,
		},
	}, nil
}

// ResponseMinutes - целые минуты между происшествием и выездом, не меньше нуля
func ResponseMinutes(occurredAt, dispatchedAt time.Time) int {
	d := dispatchedAt.Sub(occurredAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// CheckInvariants проверяет согласованность статуса и производных полей
func CheckInvariants(o *models.Occurrence) error {
	dispatched := o.Status == models.StatusInProgress || o.Status == models.StatusCompleted
	if (o.DispatchedAt != nil) != dispatched {
		return fmt.Errorf("dispatched_at inconsistent with status %s", o.Status)
	}
	if (o.ResolvedAt != nil) != (o.Status == models.StatusCompleted) {
		return fmt.Errorf("resolved_at inconsistent with status %s", o.Status)
	}
	if (o.ResponseMinutes != nil) != (o.DispatchedAt != nil) {
		return fmt.Errorf("response_minutes inconsistent with dispatched_at")
	}
	return nil
}

// VerifyWalk проверяет, что история, упорядоченная по created_at,
// образует непрерывный путь от NEW.
func VerifyWalk(entries []*models.HistoryEntry) error {
	prev := models.StatusNew
	for i, e := range entries {
		if e.PreviousStatus != prev {
			return fmt.Errorf("entry %d: previous status %s, expected %s", i, e.PreviousStatus, prev)
		}
		if err := Validate(e.PreviousStatus, e.NewStatus); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if i > 0 && e.CreatedAt.Before(entries[i-1].CreatedAt) {
			return fmt.Errorf("entry %d: created_at goes backwards", i)
		}
		prev = e.NewStatus
	}
	return nil
}
