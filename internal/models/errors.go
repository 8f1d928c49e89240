package models

import "errors"

// Ошибки предметной области. Слои оборачивают их через %w,
// граница HTTP сопоставляет их с кодами ответа через errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("concurrent modification")
)
