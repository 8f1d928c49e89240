package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=report.go -destination=mocks/mock_report.go -package=mocks

const recentLimit = 10

// Периоды отчета по дням
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

var periodDays = map[string]int{
	PeriodWeek:  7,
	PeriodMonth: 30,
	PeriodYear:  365,
}

// ReportRepository - агрегирующие запросы только на чтение
type ReportRepository interface {
	Summary(ctx context.Context, todayStart time.Time) (models.SummaryCounts, error)
	CountByType(ctx context.Context) ([]models.GroupCount, error)
	CountByStatus(ctx context.Context) ([]models.GroupCount, error)
	Recent(ctx context.Context, limit int) ([]*models.Occurrence, error)
	CountByNeighborhood(ctx context.Context, from, to *time.Time) ([]models.GroupCount, error)
	OccurredSince(ctx context.Context, since time.Time) ([]time.Time, error)
	ResponseSamples(ctx context.Context) ([]models.ResponseSample, error)
}

type ReportService interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	ByNeighborhood(ctx context.Context, from, to *time.Time) ([]models.GroupCount, error)
	ByPeriod(ctx context.Context, period string) (*models.PeriodReport, error)
	Performance(ctx context.Context) (*models.PerformanceReport, error)
}

type reportService struct {
	repo   ReportRepository
	clock  Clock
	logger *logrus.Logger
}

func NewReportService(repo ReportRepository, clock Clock, logger *logrus.Logger) ReportService {
	return &reportService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// Dashboard собирает сводку, выполняя запросы параллельно
func (s *reportService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "report",
		"method":  "Dashboard",
	})

	now := s.clock.Now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	dashboard := &models.Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.repo.Summary(gctx, todayStart)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		dashboard.Summary = summary
		return nil
	})
	g.Go(func() error {
		byType, err := s.repo.CountByType(gctx)
		if err != nil {
			return fmt.Errorf("count by type: %w", err)
		}
		dashboard.ByType = byType
		return nil
	})
	g.Go(func() error {
		byStatus, err := s.repo.CountByStatus(gctx)
		if err != nil {
			return fmt.Errorf("count by status: %w", err)
		}
		dashboard.ByStatus = byStatus
		return nil
	})
	g.Go(func() error {
		recent, err := s.repo.Recent(gctx, recentLimit)
		if err != nil {
			return fmt.Errorf("recent occurrences: %w", err)
		}
		dashboard.Recent = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Failed to build dashboard")
		return nil, fmt.Errorf("service: could not build dashboard: %w", err)
	}
	return dashboard, nil
}

// ByNeighborhood - количество по районам, по убыванию
func (s *reportService) ByNeighborhood(ctx context.Context, from, to *time.Time) ([]models.GroupCount, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "report",
		"method":  "ByNeighborhood",
	})

	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("%w: endDate precedes startDate", models.ErrValidation)
	}

	counts, err := s.repo.CountByNeighborhood(ctx, from, to)
	if err != nil {
		log.WithError(err).Error("Failed to count by neighborhood")
		return nil, fmt.Errorf("service: could not build neighborhood report: %w", err)
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts, nil
}

// ByPeriod группирует происшествия окна по календарным дням UTC.
// Неизвестный период трактуется как month.
func (s *reportService) ByPeriod(ctx context.Context, period string) (*models.PeriodReport, error) {
	days, ok := periodDays[period]
	if !ok {
		period = PeriodMonth
		days = periodDays[PeriodMonth]
	}
	log := s.logger.WithFields(logrus.Fields{
		"service": "report",
		"method":  "ByPeriod",
		"period":  period,
	})

	end := s.clock.Now().UTC()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	occurredAt, err := s.repo.OccurredSince(ctx, start)
	if err != nil {
		log.WithError(err).Error("Failed to load occurrences for period")
		return nil, fmt.Errorf("service: could not build period report: %w", err)
	}

	byDay := make(map[string]int)
	for _, ts := range occurredAt {
		byDay[ts.UTC().Format(time.DateOnly)]++
	}

	return &models.PeriodReport{
		Period:    period,
		StartDate: start,
		EndDate:   end,
		ByDay:     byDay,
		Total:     len(occurredAt),
	}, nil
}

// Performance - среднее время реакции в целом и по типам.
// Происшествия без response_minutes в выборку не попадают.
func (s *reportService) Performance(ctx context.Context) (*models.PerformanceReport, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "report",
		"method":  "Performance",
	})

	samples, err := s.repo.ResponseSamples(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load response samples")
		return nil, fmt.Errorf("service: could not build performance report: %w", err)
	}

	return buildPerformance(samples), nil
}

func buildPerformance(samples []models.ResponseSample) *models.PerformanceReport {
	type acc struct {
		sum   int
		count int
	}
	perType := make(map[models.OccurrenceType]*acc)
	var overall acc
	for _, sample := range samples {
		if sample.ResponseMinutes == nil {
			continue
		}
		minutes := *sample.ResponseMinutes
		overall.sum += minutes
		overall.count++

		a, ok := perType[sample.Type]
		if !ok {
			a = &acc{}
			perType[sample.Type] = a
		}
		a.sum += minutes
		a.count++
	}

	report := &models.PerformanceReport{
		SampleCount: overall.count,
		ByType:      make([]models.TypeMean, 0, len(perType)),
	}
	if overall.count > 0 {
		report.OverallMeanMinutes = float64(overall.sum) / float64(overall.count)
	}
	for t, a := range perType {
		report.ByType = append(report.ByType, models.TypeMean{
			Type:        t,
			MeanMinutes: float64(a.sum) / float64(a.count),
			SampleCount: a.count,
		})
	}
	sort.Slice(report.ByType, func(i, j int) bool { return report.ByType[i].Type < report.ByType[j].Type })
	return report
}
