package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGetDashboard_Success(t *testing.T) {
	_, env := newTestHandler(t)

	env.allowView()
	env.reports.EXPECT().Dashboard(gomock.Any()).Return(&models.Dashboard{
		Summary: models.SummaryCounts{Total: 7, Today: 2, Pending: 4, Completed: 1},
		ByType:  []models.GroupCount{{Key: "FIRE", Count: 7}},
	}, nil)

	w := makeRequest(env.router, "GET", "/api/v1/reports/dashboard", nil, env.auth)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Summary.Total)
	assert.Equal(t, 4, resp.Summary.Pending)
}

func TestGetByNeighborhood_PassesRange(t *testing.T) {
	_, env := newTestHandler(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)

	env.allowView()
	env.reports.EXPECT().
		ByNeighborhood(gomock.Any(), &from, &to).
		Return([]models.GroupCount{{Key: "Centro", Count: 3}}, nil)

	w := makeRequest(env.router, "GET", "/api/v1/reports/by-neighborhood?startDate=2024-03-01&endDate=2024-03-05T18:30:00Z", nil, env.auth)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key":"Centro"`)
}

func TestGetByNeighborhood_InvertedRange(t *testing.T) {
	_, env := newTestHandler(t)

	env.allowView()
	env.reports.EXPECT().
		ByNeighborhood(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: endDate precedes startDate", models.ErrValidation))

	w := makeRequest(env.router, "GET", "/api/v1/reports/by-neighborhood?startDate=2024-03-05&endDate=2024-03-01", nil, env.auth)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetByPeriod_DefaultsToMonth(t *testing.T) {
	_, env := newTestHandler(t)

	env.allowView()
	env.reports.EXPECT().ByPeriod(gomock.Any(), "month").Return(&models.PeriodReport{Period: "month", ByDay: map[string]int{}}, nil)

	w := makeRequest(env.router, "GET", "/api/v1/reports/by-period", nil, env.auth)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"period":"month"`)
}

func TestGetPerformance_Success(t *testing.T) {
	_, env := newTestHandler(t)

	env.allowView()
	env.reports.EXPECT().Performance(gomock.Any()).Return(&models.PerformanceReport{
		OverallMeanMinutes: 20,
		SampleCount:        2,
		ByType: []models.TypeMean{
			{Type: models.TypeFire, MeanMinutes: 30, SampleCount: 1},
			{Type: models.TypeFlooding, MeanMinutes: 10, SampleCount: 1},
		},
	}, nil)

	w := makeRequest(env.router, "GET", "/api/v1/reports/performance", nil, env.auth)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.PerformanceReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 20.0, resp.OverallMeanMinutes, 1e-9)
	assert.Len(t, resp.ByType, 2)
}

func TestGetPerformance_ServiceError(t *testing.T) {
	_, env := newTestHandler(t)

	env.allowView()
	env.reports.EXPECT().Performance(gomock.Any()).Return(nil, fmt.Errorf("service: could not build performance report: timeout"))

	w := makeRequest(env.router, "GET", "/api/v1/reports/performance", nil, env.auth)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, codeInternal, decodeError(t, w).Code)
}
