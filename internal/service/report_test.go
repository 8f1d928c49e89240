package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/shenikar/occurrence_tracking_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestReportService(t *testing.T, now time.Time) (*reportService, *mocks.MockReportRepository) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockReportRepository(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	svc := NewReportService(repoMock, fixedClock{now}, logger)
	return svc.(*reportService), repoMock
}

func intPtr(v int) *int { return &v }

func TestDashboard_TodayStartsAtMidnightUTC(t *testing.T) {
	svc, repoMock := newTestReportService(t, testNow)
	midnight := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	repoMock.EXPECT().Summary(gomock.Any(), midnight).Return(models.SummaryCounts{Total: 5, Today: 2, Pending: 3, Completed: 1}, nil)
	repoMock.EXPECT().CountByType(gomock.Any()).Return([]models.GroupCount{{Key: "FIRE", Count: 5}}, nil)
	repoMock.EXPECT().CountByStatus(gomock.Any()).Return([]models.GroupCount{{Key: "NEW", Count: 3}}, nil)
	repoMock.EXPECT().Recent(gomock.Any(), recentLimit).Return([]*models.Occurrence{}, nil)

	dashboard, err := svc.Dashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, dashboard.Summary.Total)
	assert.Equal(t, 2, dashboard.Summary.Today)
	assert.Equal(t, 3, dashboard.Summary.Pending)
	assert.Len(t, dashboard.ByType, 1)
	assert.Len(t, dashboard.ByStatus, 1)
}

func TestDashboard_QueryFailure(t *testing.T) {
	svc, repoMock := newTestReportService(t, testNow)
	dbErr := errors.New("timeout")

	repoMock.EXPECT().Summary(gomock.Any(), gomock.Any()).Return(models.SummaryCounts{}, dbErr)
	repoMock.EXPECT().CountByType(gomock.Any()).Return(nil, nil).AnyTimes()
	repoMock.EXPECT().CountByStatus(gomock.Any()).Return(nil, nil).AnyTimes()
	repoMock.EXPECT().Recent(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	_, err := svc.Dashboard(context.Background())

	assert.ErrorIs(t, err, dbErr)
}

func TestByNeighborhood_SortedByCountDesc(t *testing.T) {
	svc, repoMock := newTestReportService(t, testNow)
	ctx := context.Background()

	repoMock.EXPECT().CountByNeighborhood(ctx, nil, nil).Return([]models.GroupCount{
		{Key: "Lapa", Count: 1},
		{Key: "Centro", Count: 4},
		{Key: "Moema", Count: 2},
	}, nil)

	counts, err := svc.ByNeighborhood(ctx, nil, nil)

	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, "Centro", counts[0].Key)
	assert.Equal(t, "Moema", counts[1].Key)
	assert.Equal(t, "Lapa", counts[2].Key)
}

func TestByNeighborhood_InvertedRange(t *testing.T) {
	svc, _ := newTestReportService(t, testNow)
	from := testNow
	to := testNow.Add(-24 * time.Hour)

	_, err := svc.ByNeighborhood(context.Background(), &from, &to)

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestByPeriod_WeekBucketsByDay(t *testing.T) {
	svc, repoMock := newTestReportService(t, testNow)
	ctx := context.Background()
	weekAgo := testNow.Add(-7 * 24 * time.Hour)

	repoMock.EXPECT().OccurredSince(ctx, weekAgo).Return([]time.Time{
		time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC),
	}, nil)

	report, err := svc.ByPeriod(ctx, PeriodWeek)

	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, report.Period)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, map[string]int{
		"2024-03-04": 1,
		"2024-03-06": 1,
		"2024-03-09": 1,
	}, report.ByDay)
	assert.Equal(t, weekAgo, report.StartDate)
	assert.Equal(t, testNow, report.EndDate)
}

func TestByPeriod_UnknownFallsBackToMonth(t *testing.T) {
	svc, repoMock := newTestReportService(t, testNow)
	ctx := context.Background()

	repoMock.EXPECT().OccurredSince(ctx, testNow.Add(-30*24*time.Hour)).Return(nil, nil)

	report, err := svc.ByPeriod(ctx, "fortnight")

	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, report.Period)
	assert.Equal(t, 0, report.Total)
	assert.Empty(t, report.ByDay)
}

func TestPerformance_IgnoresMissingResponseTimes(t *testing.T) {
	svc, repoMock := newTestReportService(t, testNow)
	ctx := context.Background()

	repoMock.EXPECT().ResponseSamples(ctx).Return([]models.ResponseSample{
		{Type: models.TypeFire, ResponseMinutes: intPtr(30)},
		{Type: models.TypeFire, ResponseMinutes: nil},
		{Type: models.TypeFlooding, ResponseMinutes: intPtr(10)},
	}, nil)

	report, err := svc.Performance(ctx)

	require.NoError(t, err)
	assert.InDelta(t, 20.0, report.OverallMeanMinutes, 1e-9)
	assert.Equal(t, 2, report.SampleCount)
	require.Len(t, report.ByType, 2)
	assert.Equal(t, models.TypeFire, report.ByType[0].Type)
	assert.InDelta(t, 30.0, report.ByType[0].MeanMinutes, 1e-9)
	assert.Equal(t, 1, report.ByType[0].SampleCount)
	assert.Equal(t, models.TypeFlooding, report.ByType[1].Type)
	assert.InDelta(t, 10.0, report.ByType[1].MeanMinutes, 1e-9)
}

func TestPerformance_NoSamples(t *testing.T) {
	report := buildPerformance(nil)

	assert.Zero(t, report.OverallMeanMinutes)
	assert.Zero(t, report.SampleCount)
	assert.Empty(t, report.ByType)
}
