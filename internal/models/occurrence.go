package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Occurrence - запись об инциденте, зарегистрированном оперативным центром
type Occurrence struct {
	ID              uuid.UUID      `json:"id"`
	Type            OccurrenceType `json:"type"`
	Place           string         `json:"place"`
	Address         string         `json:"address"`
	Neighborhood    string         `json:"neighborhood"`
	Latitude        float64        `json:"latitude"`
	Longitude       float64        `json:"longitude"`
	Status          Status         `json:"status"`
	Priority        Priority       `json:"priority"`
	Description     string         `json:"description"`
	OccurredAt      time.Time      `json:"occurred_at"`
	DispatchedAt    *time.Time     `json:"dispatched_at,omitempty"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	ResponseMinutes *int           `json:"response_minutes,omitempty"`
	CreatedBy       uuid.UUID      `json:"created_by"`
	AssignedTo      *uuid.UUID     `json:"assigned_to,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Validate проверяет перечисляемые поля и координаты
func (o *Occurrence) Validate() error {
	if !o.Type.Valid() {
		return fmt.Errorf("%w: unknown occurrence type %q", ErrValidation, o.Type)
	}
	if !o.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, o.Priority)
	}
	return ValidateCoordinates(o.Latitude, o.Longitude)
}

func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90,90]", ErrValidation, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180,180]", ErrValidation, lon)
	}
	return nil
}

// OccurrenceUpdate - частичное изменение полей вне жизненного цикла.
// Nil означает "не менять".
type OccurrenceUpdate struct {
	Place        *string
	Address      *string
	Neighborhood *string
	Latitude     *float64
	Longitude    *float64
	Description  *string
	Priority     *Priority
	AssignedTo   *uuid.UUID
	// Status присутствует только для того, чтобы отклонять прямую смену статуса
	Status *Status
}

func (u OccurrenceUpdate) Empty() bool {
	return u.Place == nil && u.Address == nil && u.Neighborhood == nil &&
		u.Latitude == nil && u.Longitude == nil && u.Description == nil &&
		u.Priority == nil && u.AssignedTo == nil && u.Status == nil
}

// Apply переносит заданные поля на происшествие
func (u OccurrenceUpdate) Apply(o *Occurrence) {
	if u.Place != nil {
		o.Place = *u.Place
	}
	if u.Address != nil {
		o.Address = *u.Address
	}
	if u.Neighborhood != nil {
		o.Neighborhood = *u.Neighborhood
	}
	if u.Latitude != nil {
		o.Latitude = *u.Latitude
	}
	if u.Longitude != nil {
		o.Longitude = *u.Longitude
	}
	if u.Description != nil {
		o.Description = *u.Description
	}
	if u.Priority != nil {
		o.Priority = *u.Priority
	}
	if u.AssignedTo != nil {
		assignee := *u.AssignedTo
		o.AssignedTo = &assignee
	}
}

// OccurrenceFilter - параметры выборки списка
type OccurrenceFilter struct {
	Status       *Status
	Type         *OccurrenceType
	Priority     *Priority
	Neighborhood string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

// OccurrencePage - страница списка с фактически примененными границами
type OccurrencePage struct {
	Items    []*Occurrence
	Page     int
	PageSize int
}
