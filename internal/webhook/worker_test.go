package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/occurrence_tracking_system/internal/config"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(cfg *config.Config) *Worker {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	// redis-клиент для deliver не нужен
	return NewWorker(nil, logger, cfg)
}

func testEvent(t *testing.T) (OccurrenceEvent, string) {
	t.Helper()
	occ := &models.Occurrence{
		ID:       uuid.New(),
		Type:     models.TypeRescue,
		Priority: models.PriorityCritical,
		Status:   models.StatusInProgress,
	}
	event := NewOccurrenceEvent(EventTransitioned, occ, uuid.New(), time.Now().UTC())
	event.PreviousStatus = models.StatusUnderReview
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return event, string(payload)
}

func TestDeliver_SignsPayload(t *testing.T) {
	event, payload := testEvent(t)
	secret := "s3cr3t"

	var gotSignature, gotKind string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotKind = r.Header.Get("X-Event-Kind")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := newTestWorker(&config.Config{
		WebhookURL:        srv.URL,
		WebhookSecret:     secret,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	})

	ok := w.deliver(context.Background(), event, payload)

	require.True(t, ok)
	assert.Equal(t, string(EventTransitioned), gotKind)
	assert.Equal(t, payload, string(gotBody))
	assert.Equal(t, generateHMACSHA256(payload, secret), gotSignature)
}

func TestDeliver_RetriesUntilSuccess(t *testing.T) {
	event, payload := testEvent(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := newTestWorker(&config.Config{
		WebhookURL:        srv.URL,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	})

	ok := w.deliver(context.Background(), event, payload)

	assert.True(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliver_GivesUpAfterMaxRetries(t *testing.T) {
	event, payload := testEvent(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := newTestWorker(&config.Config{
		WebhookURL:        srv.URL,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 2,
		WebhookBaseDelay:  time.Millisecond,
	})

	ok := w.deliver(context.Background(), event, payload)

	assert.False(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDeliver_NoURLConfigured(t *testing.T) {
	event, payload := testEvent(t)
	w := newTestWorker(&config.Config{WebhookMaxRetries: 3})

	assert.False(t, w.deliver(context.Background(), event, payload))
}

func TestRun_StopsDuringRedisErrorBackoff(t *testing.T) {
	// Порт 1 закрыт, каждый BRPOP сразу завершается ошибкой
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	w := NewWorker(client, logger, &config.Config{WebhookTimeout: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.run(ctx)
		close(done)
	}()

	// даем воркеру получить ошибку и уйти в ожидание
	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
