package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

const (
	eventQueueKey = "occurrence_events"
)

// EventKind - тип события по происшествию
type EventKind string

const (
	EventCreated      EventKind = "occurrence.created"
	EventTransitioned EventKind = "occurrence.transitioned"
	EventDeleted      EventKind = "occurrence.deleted"
)

// OccurrenceEvent - структура для данных уведомления
type OccurrenceEvent struct {
	Kind           EventKind     `json:"kind"`
	OccurrenceID   uuid.UUID     `json:"occurrence_id"`
	Type           string        `json:"type,omitempty"`
	Priority       string        `json:"priority,omitempty"`
	Neighborhood   string        `json:"neighborhood,omitempty"`
	PreviousStatus models.Status `json:"previous_status,omitempty"`
	NewStatus      models.Status `json:"new_status,omitempty"`
	ActorID        uuid.UUID     `json:"actor_id"`
	Timestamp      time.Time     `json:"timestamp"`
}

// NewOccurrenceEvent заполняет событие данными происшествия
func NewOccurrenceEvent(kind EventKind, occ *models.Occurrence, actorID uuid.UUID, at time.Time) OccurrenceEvent {
	return OccurrenceEvent{
		Kind:         kind,
		OccurrenceID: occ.ID,
		Type:         string(occ.Type),
		Priority:     string(occ.Priority),
		Neighborhood: occ.Neighborhood,
		NewStatus:    occ.Status,
		ActorID:      actorID,
		Timestamp:    at,
	}
}

// Publisher - интерфейс для публикации событий
type Publisher interface {
	Publish(ctx context.Context, event OccurrenceEvent) error
}

// RedisPublisher - реализация Publisher, использующая очередь Redis
type RedisPublisher struct {
	redisClient *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

// Publish публикует событие в очередь Redis
func (p *RedisPublisher) Publish(ctx context.Context, event OccurrenceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal occurrence event: %w", err)
	}

	// LPUSH в левую часть списка, воркер забирает справа
	if err := p.redisClient.LPush(ctx, eventQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish occurrence event to Redis: %w", err)
	}
	return nil
}

// NopPublisher отбрасывает события, когда канал уведомлений отключен
type NopPublisher struct {
	logger *logrus.Logger
}

func NewNopPublisher(logger *logrus.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) Publish(_ context.Context, event OccurrenceEvent) error {
	p.logger.WithFields(logrus.Fields{
		"kind":          event.Kind,
		"occurrence_id": event.OccurrenceID,
	}).Debug("Notifications disabled, dropping event")
	return nil
}
