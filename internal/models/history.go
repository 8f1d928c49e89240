package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry - неизменяемая запись о переходе статуса
type HistoryEntry struct {
	ID             uuid.UUID `json:"id"`
	OccurrenceID   uuid.UUID `json:"occurrence_id"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	Note           string    `json:"note"`
	ActedBy        uuid.UUID `json:"acted_by"`
	CreatedAt      time.Time `json:"created_at"`
}
