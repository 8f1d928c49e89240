package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateOccurrenceRequest DTO для создания происшествия
// @Description DTO для создания происшествия
type CreateOccurrenceRequest struct {
	Type         string     `json:"type" validate:"required,oneof=FIRE FLOODING TRAFFIC STRUCTURAL_RISK FALLEN_TREE ACCIDENT RESCUE LEAK"`
	Place        string     `json:"place" validate:"required,min=2,max=255"`
	Address      string     `json:"address,omitempty" validate:"max=255"`
	Neighborhood string     `json:"neighborhood,omitempty" validate:"max=120"`
	Latitude     *float64   `json:"latitude" validate:"required,latitude"`
	Longitude    *float64   `json:"longitude" validate:"required,longitude"`
	Priority     string     `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	Description  string     `json:"description,omitempty" validate:"max=2000"`
	OccurredAt   *time.Time `json:"occurred_at,omitempty"`
}

// UpdateOccurrenceRequest DTO для частичного обновления происшествия.
// Отсутствующее поле не меняется.
// @Description DTO для обновления происшествия
type UpdateOccurrenceRequest struct {
	Place        *string    `json:"place,omitempty" validate:"omitempty,min=2,max=255"`
	Address      *string    `json:"address,omitempty" validate:"omitempty,max=255"`
	Neighborhood *string    `json:"neighborhood,omitempty" validate:"omitempty,max=120"`
	Latitude     *float64   `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64   `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Priority     *string    `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	AssignedTo   *uuid.UUID `json:"assigned_to,omitempty"`
	// Status принимается только чтобы вернуть понятную ошибку
	Status *string `json:"status,omitempty"`
}

// TransitionRequest DTO для смены статуса
// @Description DTO для смены статуса
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note,omitempty" validate:"max=1000"`
}

// OccurrenceResponse DTO для ответа с информацией о происшествии
// @Description DTO для ответа с информацией о происшествии
type OccurrenceResponse struct {
	ID              uuid.UUID  `json:"id"`
	Type            string     `json:"type"`
	Place           string     `json:"place"`
	Address         string     `json:"address,omitempty"`
	Neighborhood    string     `json:"neighborhood,omitempty"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	Description     string     `json:"description,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
	DispatchedAt    *time.Time `json:"dispatched_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResponseMinutes *int       `json:"response_minutes,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	AssignedTo      *uuid.UUID `json:"assigned_to,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// OccurrenceListResponse DTO для страницы списка
// @Description DTO для страницы списка
type OccurrenceListResponse struct {
	Items    []*OccurrenceResponse `json:"items"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// HistoryEntryResponse DTO для записи истории
// @Description DTO для записи истории
type HistoryEntryResponse struct {
	ID             uuid.UUID `json:"id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Note           string    `json:"note,omitempty"`
	ActedBy        uuid.UUID `json:"acted_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// TransitionResponse DTO для результата перехода
// @Description DTO для результата перехода
type TransitionResponse struct {
	Occurrence *OccurrenceResponse   `json:"occurrence"`
	Entry      *HistoryEntryResponse `json:"history_entry"`
}
