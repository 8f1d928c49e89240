// Команда seed наполняет базу демонстрационными пользователями и происшествиями.
// Происшествия создаются через сервис и продвигаются по жизненному циклу
// обычными переходами, поэтому история у них настоящая.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shenikar/occurrence_tracking_system/internal/config"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/shenikar/occurrence_tracking_system/internal/repository"
	"github.com/shenikar/occurrence_tracking_system/internal/service"
	"github.com/shenikar/occurrence_tracking_system/internal/webhook"
	"github.com/shenikar/occurrence_tracking_system/pkg/logger"
	"github.com/shenikar/occurrence_tracking_system/pkg/postgres"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const seedOccurrences = 40

var neighborhoods = []string{"Centro", "Boa Viagem", "Casa Amarela", "Afogados", "Imbiribeira", "Várzea"}

var priorities = []models.Priority{
	models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical,
}

// manualClock - часы, которые seed переставляет между операциями
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()

	userRepo := repository.NewUserRepository(dbpool)
	users, err := seedUsers(ctx, userRepo)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	admin := users[0]

	clock := &manualClock{}
	occurrenceService := service.NewOccurrenceService(
		repository.NewOccurrenceRepository(dbpool),
		userRepo,
		webhook.NewNopPublisher(log),
		clock,
		service.Pagination{DefaultPageSize: cfg.DefaultPageSize, MaxPageSize: cfg.MaxPageSize},
		log,
	)

	if err := seedOccurrenceData(ctx, occurrenceService, clock, admin.ID); err != nil {
		log.Fatalf("Failed to seed occurrences: %v", err)
	}

	token, err := devToken(cfg.JWTSecret, admin.ID)
	if err != nil {
		log.Fatalf("Failed to sign development token: %v", err)
	}
	log.WithFields(logrus.Fields{
		"admin_email": admin.Email,
		"token":       token,
	}).Info("Seed completed")
}

func seedUsers(ctx context.Context, repo *repository.UserRepository) ([]*models.User, error) {
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "bombeiros123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	users := []*models.User{
		{
			Name:       "Administrador",
			Email:      "admin@bombeiros.local",
			Role:       "admin",
			Department: "Comando",
			Status:     models.UserActive,
			Permissions: []models.Permission{
				models.PermissionView, models.PermissionEdit, models.PermissionDelete,
				models.PermissionApprove, models.PermissionManage,
			},
		},
		{
			Name:        "Operador",
			Email:       "operador@bombeiros.local",
			Role:        "operator",
			Department:  "Central de Operações",
			Status:      models.UserActive,
			Permissions: []models.Permission{models.PermissionView, models.PermissionEdit},
		},
		{
			Name:        "Analista",
			Email:       "analista@bombeiros.local",
			Role:        "analyst",
			Department:  "Estatística",
			Status:      models.UserActive,
			Permissions: []models.Permission{models.PermissionView},
		},
		{
			Name:        "Novo Usuário",
			Email:       "pendente@bombeiros.local",
			Role:        "operator",
			Department:  "Central de Operações",
			Status:      models.UserPending,
			Permissions: []models.Permission{models.PermissionView},
		},
	}

	for _, u := range users {
		u.PasswordHash = string(hash)
		if err := repo.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", u.Email, err)
		}
	}
	return users, nil
}

// seedOccurrenceData создает происшествия за последние 60 дней и доводит
// каждое до случайного статуса через переходы
func seedOccurrenceData(ctx context.Context, svc service.OccurrenceService, clock *manualClock, actorID uuid.UUID) error {
	rng := rand.New(rand.NewPCG(42, 2024))
	types := models.OccurrenceTypes()
	now := time.Now().UTC()

	for i := 0; i < seedOccurrences; i++ {
		// не позже чем за 4 часа до запуска, чтобы переходы не ушли в будущее
		occurredAt := now.Add(-4*time.Hour - time.Duration(rng.IntN(60*24*60))*time.Minute)
		clock.Set(occurredAt)

		occ := &models.Occurrence{
			Type:         types[rng.IntN(len(types))],
			Place:        fmt.Sprintf("Ocorrência %02d", i+1),
			Address:      fmt.Sprintf("Rua %d, %d", rng.IntN(300)+1, rng.IntN(2000)+1),
			Neighborhood: neighborhoods[rng.IntN(len(neighborhoods))],
			Latitude:     -8.05 + rng.Float64()*0.1,
			Longitude:    -34.95 + rng.Float64()*0.1,
			Priority:     priorities[rng.IntN(len(priorities))],
			OccurredAt:   occurredAt,
		}
		if err := svc.CreateOccurrence(ctx, occ, actorID); err != nil {
			return err
		}

		// 0..3 шагов по жизненному циклу
		steps := rng.IntN(4)
		at := occurredAt
		for _, target := range models.Statuses()[1 : steps+1] {
			at = at.Add(time.Duration(5+rng.IntN(55)) * time.Minute)
			clock.Set(at)
			if _, _, err := svc.TransitionOccurrence(ctx, occ.ID, target, actorID, "seed"); err != nil {
				return err
			}
		}
	}
	return nil
}

func devToken(secret string, userID uuid.UUID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
