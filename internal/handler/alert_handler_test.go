package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"WellnessMonitorAPI/internal/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAlertService records the pagination arguments handlers pass down.
type fakeAlertService struct {
	limit  int
	offset int
	status string
}

func (f *fakeAlertService) Acknowledge(ctx context.Context, id string) error { return nil }
func (f *fakeAlertService) Resolve(ctx context.Context, id string) error     { return nil }
func (f *fakeAlertService) GetActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	return nil, nil
}
func (f *fakeAlertService) GetAlertHistory(ctx context.Context, status string, limit, offset int) ([]models.Alert, error) {
	f.status = status
	f.limit = limit
	f.offset = offset
	return nil, nil
}
func (f *fakeAlertService) GetRuleAlerts(ctx context.Context, ruleID string, limit int) ([]models.Alert, error) {
	f.limit = limit
	return nil, nil
}
func (f *fakeAlertService) GetStatistics(ctx context.Context) (map[string]int, error) {
	return nil, nil
}
func (f *fakeAlertService) SendTestAlert(ctx context.Context) error { return nil }

func alertRouter(svc *fakeAlertService) *mux.Router {
	r := mux.NewRouter()
	NewAlertHandler(svc, testLogger()).RegisterRoutes(r)
	return r
}

func TestHistoryPaginationClamped(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 50, 0},
		{"explicit values", "?limit=25&offset=10", 25, 10},
		{"negative values clamped", "?limit=-5&offset=-20", 1, 0},
		{"zero limit clamped up", "?limit=0", 1, 0},
		{"oversized limit capped", "?limit=99999", 500, 0},
		{"garbage falls back", "?limit=abc&offset=xyz", 50, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeAlertService{}
			router := alertRouter(svc)

			req := httptest.NewRequest(http.MethodGet, "/alerts/history"+tc.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantLimit, svc.limit)
			assert.Equal(t, tc.wantOffset, svc.offset)
		})
	}
}

func TestRuleAlertsLimitClamped(t *testing.T) {
	svc := &fakeAlertService{}
	router := alertRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/alerts/rule/r-1?limit=-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.limit)
}
