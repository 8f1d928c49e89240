package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/shenikar/occurrence_tracking_system/internal/service"
)

const occurrenceColumns = `
	id,
	type,
	place,
	address,
	neighborhood,
	latitude,
	longitude,
	status,
	priority,
	description,
	occurred_at,
	dispatched_at,
	resolved_at,
	response_minutes,
	created_by,
	assigned_to,
	created_at,
	updated_at`

type OccurrenceRepository struct {
	db DB
}

func NewOccurrenceRepository(db *pgxpool.Pool) service.OccurrenceRepository {
	return &OccurrenceRepository{
		db: db,
	}
}

func scanOccurrence(row pgx.Row) (*models.Occurrence, error) {
	o := &models.Occurrence{}
	err := row.Scan(
		&o.ID,
		&o.Type,
		&o.Place,
		&o.Address,
		&o.Neighborhood,
		&o.Latitude,
		&o.Longitude,
		&o.Status,
		&o.Priority,
		&o.Description,
		&o.OccurredAt,
		&o.DispatchedAt,
		&o.ResolvedAt,
		&o.ResponseMinutes,
		&o.CreatedBy,
		&o.AssignedTo,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func collectOccurrences(rows pgx.Rows) ([]*models.Occurrence, error) {
	defer rows.Close()
	occurrences := make([]*models.Occurrence, 0)
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occurrence row: %w", err)
		}
		occurrences = append(occurrences, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurrence iteration: %w", err)
	}
	return occurrences, nil
}

// Create создает новую запись о происшествии в бд
func (r *OccurrenceRepository) Create(ctx context.Context, o *models.Occurrence) error {
	query := `
		INSERT INTO occurrences (
			type, place, address, neighborhood, latitude, longitude,
			status, priority, description, occurred_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		o.Type,
		o.Place,
		o.Address,
		o.Neighborhood,
		o.Latitude,
		o.Longitude,
		o.Status,
		o.Priority,
		o.Description,
		o.OccurredAt,
		o.CreatedBy,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create occurrence: %w", err)
	}
	return nil
}

// GetByID возвращает происшествие по его UUID
func (r *OccurrenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Occurrence, error) {
	query := `SELECT` + occurrenceColumns + `
		FROM occurrences
		WHERE id = $1;
	`
	o, err := scanOccurrence(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("occurrence with id %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get occurrence by id: %w", err)
	}
	return o, nil
}

// Update записывает только поля, заданные в patch. Статус, отметки времени
// и незатронутые поля остаются такими, какими их оставил последний писатель.
func (r *OccurrenceRepository) Update(ctx context.Context, id uuid.UUID, patch models.OccurrenceUpdate, updatedAt time.Time) (*models.Occurrence, error) {
	query, args := buildUpdateQuery(id, patch, updatedAt)
	o, err := scanOccurrence(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("occurrence with id %s not found for update: %w", id, models.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, fmt.Errorf("%w: assignee does not exist", models.ErrValidation)
		}
		return nil, fmt.Errorf("failed to update occurrence: %w", err)
	}
	return o, nil
}

// buildUpdateQuery собирает SET из заданных полей patch
func buildUpdateQuery(id uuid.UUID, patch models.OccurrenceUpdate, updatedAt time.Time) (string, []any) {
	var (
		sets []string
		args []any
	)
	set := func(column string, arg any) {
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Place != nil {
		set("place", *patch.Place)
	}
	if patch.Address != nil {
		set("address", *patch.Address)
	}
	if patch.Neighborhood != nil {
		set("neighborhood", *patch.Neighborhood)
	}
	if patch.Latitude != nil {
		set("latitude", *patch.Latitude)
	}
	if patch.Longitude != nil {
		set("longitude", *patch.Longitude)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.AssignedTo != nil {
		set("assigned_to", *patch.AssignedTo)
	}
	set("updated_at", updatedAt)

	args = append(args, id)
	query := fmt.Sprintf("UPDATE occurrences SET %s\n\tWHERE id = $%d\n\tRETURNING%s;",
		strings.Join(sets, ", "), len(args), occurrenceColumns)
	return query, args
}

// Delete удаляет происшествие и его историю одной транзакцией
func (r *OccurrenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM occurrence_history WHERE occurrence_id = $1;`, id); err != nil {
			return fmt.Errorf("failed to delete occurrence history: %w", err)
		}
		cmdTag, err := tx.Exec(ctx, `DELETE FROM occurrences WHERE id = $1;`, id)
		if err != nil {
			return fmt.Errorf("failed to delete occurrence: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("occurrence with id %s not found for delete: %w", id, models.ErrNotFound)
		}
		return nil
	})
}

// List возвращает страницу происшествий по фильтрам
func (r *OccurrenceRepository) List(ctx context.Context, filter models.OccurrenceFilter) ([]*models.Occurrence, error) {
	query, args := buildListQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	return collectOccurrences(rows)
}

// buildListQuery собирает WHERE из заданных фильтров
func buildListQuery(filter models.OccurrenceFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Type != nil {
		add("type = $%d", *filter.Type)
	}
	if filter.Priority != nil {
		add("priority = $%d", *filter.Priority)
	}
	if filter.Neighborhood != "" {
		add("neighborhood = $%d", filter.Neighborhood)
	}
	if filter.From != nil {
		add("occurred_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("occurred_at <= $%d", *filter.To)
	}

	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(occurrenceColumns)
	b.WriteString("\n\tFROM occurrences")
	if len(conds) > 0 {
		b.WriteString("\n\tWHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	offset := (filter.Page - 1) * filter.PageSize
	args = append(args, filter.PageSize, offset)
	fmt.Fprintf(&b, "\n\tORDER BY occurred_at DESC, id\n\tLIMIT $%d OFFSET $%d;", len(args)-1, len(args))

	return b.String(), args
}

// ApplyTransition атомарно применяет переход: условное обновление строки
// (статус должен все еще быть expected) и добавление записи истории.
func (r *OccurrenceRepository) ApplyTransition(ctx context.Context, o *models.Occurrence, expected models.Status, entry *models.HistoryEntry) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, `
			UPDATE occurrences SET
				status = $1,
				dispatched_at = $2,
				resolved_at = $3,
				response_minutes = $4,
				assigned_to = COALESCE(assigned_to, $5),
				updated_at = $6
			WHERE id = $7 AND status = $8;
		`,
			o.Status,
			o.DispatchedAt,
			o.ResolvedAt,
			o.ResponseMinutes,
			o.AssignedTo,
			o.UpdatedAt,
			o.ID,
			expected,
		)
		if err != nil {
			return fmt.Errorf("failed to update occurrence status: %w", err)
		}

		if cmdTag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM occurrences WHERE id = $1);`, o.ID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check occurrence existence: %w", err)
			}
			if !exists {
				return fmt.Errorf("occurrence with id %s: %w", o.ID, models.ErrNotFound)
			}
			return fmt.Errorf("occurrence %s is no longer %s: %w", o.ID, expected, models.ErrConflict)
		}

		// created_at не может быть раньше последней записи этого происшествия
		err = tx.QueryRow(ctx, `
			INSERT INTO occurrence_history (id, occurrence_id, previous_status, new_status, note, acted_by, created_at)
			SELECT $1, $2, $3, $4, $5, $6, GREATEST($7::timestamptz, COALESCE(MAX(created_at), $7::timestamptz))
			FROM occurrence_history
			WHERE occurrence_id = $2
			RETURNING created_at;
		`,
			entry.ID,
			entry.OccurrenceID,
			entry.PreviousStatus,
			entry.NewStatus,
			entry.Note,
			entry.ActedBy,
			entry.CreatedAt,
		).Scan(&entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to append history entry: %w", err)
		}

		// Вернуть фактическое значение assigned_to после COALESCE
		if err := tx.QueryRow(ctx, `SELECT assigned_to FROM occurrences WHERE id = $1;`, o.ID).Scan(&o.AssignedTo); err != nil {
			return fmt.Errorf("failed to reload assignee: %w", err)
		}
		return nil
	})
}

// ListHistory возвращает историю переходов по возрастанию created_at
func (r *OccurrenceRepository) ListHistory(ctx context.Context, occurrenceID uuid.UUID) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, occurrence_id, previous_status, new_status, note, acted_by, created_at
		FROM occurrence_history
		WHERE occurrence_id = $1
		ORDER BY created_at ASC, id;
	`
	rows, err := r.db.Query(ctx, query, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrence history: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.HistoryEntry, 0)
	for rows.Next() {
		e := &models.HistoryEntry{}
		if err := rows.Scan(
			&e.ID,
			&e.OccurrenceID,
			&e.PreviousStatus,
			&e.NewStatus,
			&e.Note,
			&e.ActedBy,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error history iteration: %w", err)
	}
	return entries, nil
}
