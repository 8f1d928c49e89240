package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/occurrence_tracking_system/internal/lifecycle"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/shenikar/occurrence_tracking_system/internal/webhook"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=occurrence.go -destination=mocks/mock_occurrence.go -package=mocks

// OccurrenceRepository определяет контракт хранилища происшествий и журнала истории
type OccurrenceRepository interface {
	Create(ctx context.Context, occurrence *models.Occurrence) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Occurrence, error)
	// Update записывает только поля, заданные в patch, и возвращает строку после записи
	Update(ctx context.Context, id uuid.UUID, patch models.OccurrenceUpdate, updatedAt time.Time) (*models.Occurrence, error)
	// Delete удаляет запись вместе с историей
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.OccurrenceFilter) ([]*models.Occurrence, error)
	// ApplyTransition в одной транзакции обновляет строку при условии,
	// что ее статус все еще равен expected, и добавляет запись истории.
	ApplyTransition(ctx context.Context, occurrence *models.Occurrence, expected models.Status, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, occurrenceID uuid.UUID) ([]*models.HistoryEntry, error)
}

// PermissionChecker - внешний источник прав пользователей
type PermissionChecker interface {
	HasPermission(ctx context.Context, actorID uuid.UUID, permission models.Permission) (bool, error)
	// IsActiveUser: пользователь существует и может работать с происшествиями
	IsActiveUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Clock - единый источник времени для всех отметок
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock возвращает часы в UTC
func SystemClock() Clock { return systemClock{} }

// OccurrenceService определяет контракт бизнес-логики по происшествиям
type OccurrenceService interface {
	CreateOccurrence(ctx context.Context, occurrence *models.Occurrence, creatorID uuid.UUID) error
	GetOccurrence(ctx context.Context, id uuid.UUID) (*models.Occurrence, error)
	ListOccurrences(ctx context.Context, filter models.OccurrenceFilter) (*models.OccurrencePage, error)
	UpdateOccurrence(ctx context.Context, id uuid.UUID, update models.OccurrenceUpdate, actorID uuid.UUID) (*models.Occurrence, error)
	TransitionOccurrence(ctx context.Context, id uuid.UUID, target models.Status, actorID uuid.UUID, note string) (*models.Occurrence, *models.HistoryEntry, error)
	DeleteOccurrence(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error
	GetHistory(ctx context.Context, id uuid.UUID) ([]*models.HistoryEntry, error)
}

// Pagination - границы размера страницы
type Pagination struct {
	DefaultPageSize int
	MaxPageSize     int
}

type occurrenceService struct {
	repo        OccurrenceRepository
	permissions PermissionChecker
	publisher   webhook.Publisher
	clock       Clock
	paging      Pagination
	logger      *logrus.Logger
}

func NewOccurrenceService(
	repo OccurrenceRepository,
	permissions PermissionChecker,
	publisher webhook.Publisher,
	clock Clock,
	paging Pagination,
	logger *logrus.Logger,
) OccurrenceService {
	return &occurrenceService{
		repo:        repo,
		permissions: permissions,
		publisher:   publisher,
		clock:       clock,
		paging:      paging,
		logger:      logger,
	}
}

// authorize возвращает ErrForbidden, если у пользователя нет права
func (s *occurrenceService) authorize(ctx context.Context, actorID uuid.UUID, permission models.Permission) error {
	ok, err := s.permissions.HasPermission(ctx, actorID, permission)
	if err != nil {
		return fmt.Errorf("service: could not check permission %s: %w", permission, err)
	}
	if !ok {
		return fmt.Errorf("%w: user %s lacks %s permission", models.ErrForbidden, actorID, permission)
	}
	return nil
}

// publish отправляет уведомление; ошибки только логируются
func (s *occurrenceService) publish(ctx context.Context, log *logrus.Entry, event webhook.OccurrenceEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).Warn("Failed to publish occurrence event")
	}
}

// CreateOccurrence создает происшествие в статусе NEW
func (s *occurrenceService) CreateOccurrence(ctx context.Context, occurrence *models.Occurrence, creatorID uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "occurrence",
		"method":  "CreateOccurrence",
		"type":    occurrence.Type,
		"actor":   creatorID,
	})
	log.Info("Attempting to create a new occurrence")

	if err := s.authorize(ctx, creatorID, models.PermissionView); err != nil {
		log.WithError(err).Warn("Occurrence creation rejected")
		return err
	}
	if err := occurrence.Validate(); err != nil {
		log.WithError(err).Warn("Occurrence failed validation")
		return err
	}

	now := s.clock.Now()
	occurrence.Status = models.StatusNew
	occurrence.CreatedBy = creatorID
	occurrence.DispatchedAt = nil
	occurrence.ResolvedAt = nil
	occurrence.ResponseMinutes = nil
	occurrence.AssignedTo = nil
	if occurrence.OccurredAt.IsZero() {
		occurrence.OccurredAt = now
	}

	if err := s.repo.Create(ctx, occurrence); err != nil {
		log.WithError(err).Error("Failed to create occurrence in repository")
		return fmt.Errorf("service: could not create occurrence: %w", err)
	}

	log.WithField("occurrence_id", occurrence.ID).Info("Occurrence created successfully")
	s.publish(ctx, log, webhook.NewOccurrenceEvent(webhook.EventCreated, occurrence, creatorID, now))
	return nil
}

// GetOccurrence получает происшествие по ID
func (s *occurrenceService) GetOccurrence(ctx context.Context, id uuid.UUID) (*models.Occurrence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "occurrence",
		"method":        "GetOccurrence",
		"occurrence_id": id,
	})
	log.Debug("Fetching occurrence by ID")

	occurrence, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("Occurrence not found")
		} else {
			log.WithError(err).Error("Failed to get occurrence from repository")
		}
		return nil, fmt.Errorf("service: could not get occurrence: %w", err)
	}
	return occurrence, nil
}

// ListOccurrences возвращает страницу происшествий по фильтрам.
// Номер и размер страницы нормализуются здесь и возвращаются вместе с данными.
func (s *occurrenceService) ListOccurrences(ctx context.Context, filter models.OccurrenceFilter) (*models.OccurrencePage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > s.paging.MaxPageSize {
		filter.PageSize = s.paging.DefaultPageSize
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "occurrence",
		"method":    "ListOccurrences",
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, *filter.Status)
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown occurrence type %q", models.ErrValidation, *filter.Type)
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", models.ErrValidation, *filter.Priority)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: date range end precedes start", models.ErrValidation)
	}

	occurrences, err := s.repo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list occurrences from repository")
		return nil, fmt.Errorf("service: could not list occurrences: %w", err)
	}

	log.WithField("count", len(occurrences)).Debug("Occurrences listed successfully")
	return &models.OccurrencePage{
		Items:    occurrences,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// UpdateOccurrence обновляет поля вне жизненного цикла.
// Статус меняется только через TransitionOccurrence.
func (s *occurrenceService) UpdateOccurrence(ctx context.Context, id uuid.UUID, update models.OccurrenceUpdate, actorID uuid.UUID) (*models.Occurrence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "occurrence",
		"method":        "UpdateOccurrence",
		"occurrence_id": id,
		"actor":         actorID,
	})
	log.Info("Attempting to update occurrence")

	if update.Status != nil {
		return nil, fmt.Errorf("%w: status cannot be set directly, use the transition operation", models.ErrValidation)
	}
	if update.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}
	if err := s.authorize(ctx, actorID, models.PermissionEdit); err != nil {
		log.WithError(err).Warn("Occurrence update rejected")
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent occurrence")
		return nil, fmt.Errorf("service: occurrence %s not found for update: %w", id, err)
	}

	// Проверяем результат слияния, но в бд уходят только заданные поля
	merged := *existing
	update.Apply(&merged)
	if err := merged.Validate(); err != nil {
		log.WithError(err).Warn("Updated occurrence failed validation")
		return nil, err
	}
	if update.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *update.AssignedTo); err != nil {
			log.WithError(err).Warn("Assignee rejected")
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, id, update, s.clock.Now())
	if err != nil {
		log.WithError(err).Error("Failed to update occurrence in repository")
		return nil, fmt.Errorf("service: could not update occurrence: %w", err)
	}
	log.Info("Occurrence updated successfully")
	return updated, nil
}

// checkAssignee: назначить можно только существующего активного пользователя
func (s *occurrenceService) checkAssignee(ctx context.Context, userID uuid.UUID) error {
	active, err := s.permissions.IsActiveUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: could not check assignee %s: %w", userID, err)
	}
	if !active {
		return fmt.Errorf("%w: assignee %s is unknown or not active", models.ErrValidation, userID)
	}
	return nil
}

// TransitionOccurrence переводит происшествие в следующий статус
// и атомарно добавляет запись в историю.
func (s *occurrenceService) TransitionOccurrence(ctx context.Context, id uuid.UUID, target models.Status, actorID uuid.UUID, note string) (*models.Occurrence, *models.HistoryEntry, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "occurrence",
		"method":        "TransitionOccurrence",
		"occurrence_id": id,
		"target":        target,
		"actor":         actorID,
	})
	log.Info("Attempting status transition")

	if err := s.authorize(ctx, actorID, models.PermissionEdit); err != nil {
		log.WithError(err).Warn("Transition rejected")
		return nil, nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to transition a non-existent occurrence")
		return nil, nil, fmt.Errorf("service: occurrence %s not found for transition: %w", id, err)
	}

	transition, err := lifecycle.Plan(current, target, actorID, note, s.clock.Now())
	if err != nil {
		log.WithError(err).WithField("current", current.Status).Warn("Transition is not allowed")
		return nil, nil, err
	}

	if err := s.repo.ApplyTransition(ctx, transition.Occurrence, transition.Expected, transition.Entry); err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrNotFound) {
			log.WithError(err).Warn("Transition lost a concurrent update")
		} else {
			log.WithError(err).Error("Failed to apply transition in repository")
		}
		return nil, nil, fmt.Errorf("service: could not apply transition: %w", err)
	}

	log.WithField("previous", transition.Expected).Info("Transition applied successfully")

	event := webhook.NewOccurrenceEvent(webhook.EventTransitioned, transition.Occurrence, actorID, transition.Entry.CreatedAt)
	event.PreviousStatus = transition.Expected
	s.publish(ctx, log, event)

	return transition.Occurrence, transition.Entry, nil
}

// DeleteOccurrence безвозвратно удаляет происшествие и его историю
func (s *occurrenceService) DeleteOccurrence(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "occurrence",
		"method":        "DeleteOccurrence",
		"occurrence_id": id,
		"actor":         actorID,
	})
	log.Info("Attempting to delete occurrence")

	if err := s.authorize(ctx, actorID, models.PermissionDelete); err != nil {
		log.WithError(err).Warn("Occurrence deletion rejected")
		return err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to delete a non-existent occurrence")
		return fmt.Errorf("service: occurrence %s not found for delete: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete occurrence in repository")
		return fmt.Errorf("service: could not delete occurrence: %w", err)
	}

	log.Info("Occurrence deleted successfully")
	s.publish(ctx, log, webhook.NewOccurrenceEvent(webhook.EventDeleted, existing, actorID, s.clock.Now()))
	return nil
}

// GetHistory возвращает историю переходов в порядке created_at
func (s *occurrenceService) GetHistory(ctx context.Context, id uuid.UUID) ([]*models.HistoryEntry, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "occurrence",
		"method":        "GetHistory",
		"occurrence_id": id,
	})

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		log.WithError(err).Warn("History requested for a non-existent occurrence")
		return nil, fmt.Errorf("service: could not get occurrence history: %w", err)
	}

	entries, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to list history from repository")
		return nil, fmt.Errorf("service: could not list history: %w", err)
	}
	if err := lifecycle.VerifyWalk(entries); err != nil {
		log.WithError(err).Error("Occurrence history is not a contiguous walk")
	}
	return entries, nil
}
