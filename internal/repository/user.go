package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
)

// UserRepository хранит операторов и их права
type UserRepository struct {
	db DB
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create добавляет пользователя, email уникален
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, department, status, permissions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			department = EXCLUDED.department,
			status = EXCLUDED.status,
			permissions = EXCLUDED.permissions
		RETURNING id, created_at;
	`
	err := r.db.QueryRow(ctx, query,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.Department,
		u.Status,
		permissionsToStrings(u.Permissions),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по UUID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, department, status, permissions, created_at
		FROM users
		WHERE id = $1;
	`
	var (
		u     models.User
		perms []string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Department,
		&u.Status,
		&perms,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	u.Permissions = stringsToPermissions(perms)
	return &u, nil
}

// HasPermission: неизвестный пользователь прав не имеет
func (r *UserRepository) HasPermission(ctx context.Context, actorID uuid.UUID, permission models.Permission) (bool, error) {
	u, err := r.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.Can(permission), nil
}

// IsActiveUser проверяет, что пользователя можно назначить ответственным
func (r *UserRepository) IsActiveUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var active bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND status = $2);`,
		userID, models.UserActive,
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("failed to check user status: %w", err)
	}
	return active, nil
}

func permissionsToStrings(perms []models.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

func stringsToPermissions(values []string) []models.Permission {
	out := make([]models.Permission, len(values))
	for i, v := range values {
		out[i] = models.Permission(v)
	}
	return out
}
