package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/shenikar/occurrence_tracking_system/internal/service"
)

// ReportRepository - агрегирующие запросы только на чтение
type ReportRepository struct {
	db DB
}

func NewReportRepository(db *pgxpool.Pool) service.ReportRepository {
	return &ReportRepository{
		db: db,
	}
}

func (r *ReportRepository) Summary(ctx context.Context, todayStart time.Time) (models.SummaryCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE occurred_at >= $1),
			COUNT(*) FILTER (WHERE status IN ('NEW', 'UNDER_REVIEW')),
			COUNT(*) FILTER (WHERE status = 'COMPLETED')
		FROM occurrences;
	`
	var s models.SummaryCounts
	if err := r.db.QueryRow(ctx, query, todayStart).Scan(&s.Total, &s.Today, &s.Pending, &s.Completed); err != nil {
		return models.SummaryCounts{}, fmt.Errorf("failed to count summary: %w", err)
	}
	return s, nil
}

func (r *ReportRepository) CountByType(ctx context.Context) ([]models.GroupCount, error) {
	return r.groupCounts(ctx, `
		SELECT type, COUNT(*) AS cnt
		FROM occurrences
		GROUP BY type
		ORDER BY cnt DESC, type;
	`)
}

func (r *ReportRepository) CountByStatus(ctx context.Context) ([]models.GroupCount, error) {
	return r.groupCounts(ctx, `
		SELECT status, COUNT(*) AS cnt
		FROM occurrences
		GROUP BY status
		ORDER BY cnt DESC, status;
	`)
}

// CountByNeighborhood: from и to необязательны, границы включительно
func (r *ReportRepository) CountByNeighborhood(ctx context.Context, from, to *time.Time) ([]models.GroupCount, error) {
	var (
		conds []string
		args  []any
	)
	if from != nil {
		args = append(args, *from)
		conds = append(conds, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conds = append(conds, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	query := `
		SELECT neighborhood, COUNT(*) AS cnt
		FROM occurrences
		` + where + `
		GROUP BY neighborhood
		ORDER BY cnt DESC, neighborhood;
	`
	return r.groupCounts(ctx, query, args...)
}

func (r *ReportRepository) groupCounts(ctx context.Context, query string, args ...any) ([]models.GroupCount, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run group count: %w", err)
	}
	defer rows.Close()

	counts := make([]models.GroupCount, 0)
	for rows.Next() {
		var gc models.GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan group count: %w", err)
		}
		counts = append(counts, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error group count iteration: %w", err)
	}
	return counts, nil
}

func (r *ReportRepository) Recent(ctx context.Context, limit int) ([]*models.Occurrence, error) {
	query := `SELECT` + occurrenceColumns + `
		FROM occurrences
		ORDER BY occurred_at DESC, id
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent occurrences: %w", err)
	}
	return collectOccurrences(rows)
}

func (r *ReportRepository) OccurredSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `SELECT occurred_at FROM occurrences WHERE occurred_at >= $1;`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrence times: %w", err)
	}
	defer rows.Close()

	times := make([]time.Time, 0)
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan occurrence time: %w", err)
		}
		times = append(times, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurrence time iteration: %w", err)
	}
	return times, nil
}

// ResponseSamples возвращает только происшествия с известным временем реакции
func (r *ReportRepository) ResponseSamples(ctx context.Context) ([]models.ResponseSample, error) {
	rows, err := r.db.Query(ctx, `
		SELECT type, response_minutes
		FROM occurrences
		WHERE response_minutes IS NOT NULL;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list response samples: %w", err)
	}
	defer rows.Close()

	samples := make([]models.ResponseSample, 0)
	for rows.Next() {
		var s models.ResponseSample
		if err := rows.Scan(&s.Type, &s.ResponseMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan response sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error response sample iteration: %w", err)
	}
	return samples, nil
}
