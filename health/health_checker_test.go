package health

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/giygas/govdata-api/cache"
	"github.com/giygas/govdata-api/data"
	"github.com/giygas/govdata-api/logging"
)

func init() {
	logging.Discard()
}

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newChecker(state *data.RefreshState, c KeyCounter) *HealthCheckerImpl {
	h := NewHealthChecker(state, c, "06:00;18:00")
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestHealthCheckStatuses(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*data.RefreshState)
		wantStatus string
		wantCode   int
	}{
		{
			name:       "no refresh yet",
			setup:      func(*data.RefreshState) {},
			wantStatus: "unhealthy",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name: "fresh data",
			setup: func(rs *data.RefreshState) {
				rs.RecordRefresh("metastore", fixedNow.Add(-time.Hour))
				rs.RecordRefresh("orangebook", fixedNow.Add(-2*time.Hour))
			},
			wantStatus: "healthy",
			wantCode:   http.StatusOK,
		},
		{
			name: "one dataset never refreshed",
			setup: func(rs *data.RefreshState) {
				rs.RecordRefresh("metastore", fixedNow.Add(-time.Hour))
				rs.RecordFailure("mortality", errors.New("boom"))
			},
			wantStatus: "unhealthy",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name: "older than a day",
			setup: func(rs *data.RefreshState) {
				rs.RecordRefresh("metastore", fixedNow.Add(-30*time.Hour))
			},
			wantStatus: "degraded",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name: "older than two days",
			setup: func(rs *data.RefreshState) {
				rs.RecordRefresh("metastore", fixedNow.Add(-49*time.Hour))
			},
			wantStatus: "unhealthy",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name: "slow update in progress",
			setup: func(rs *data.RefreshState) {
				rs.RecordRefresh("metastore", fixedNow.Add(-7*time.Hour))
				rs.BeginUpdate()
			},
			wantStatus: "degraded",
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := data.NewRefreshState()
			tt.setup(state)

			status, _, code := newChecker(state, nil).HealthCheck(context.Background())
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if code != tt.wantCode {
				t.Errorf("http status = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	ctx := context.Background()
	state := data.NewRefreshState()
	state.RecordRefresh("orangebook", fixedNow.Add(-90*time.Minute))

	c := cache.NewMemory()
	if err := c.Set(ctx, "orangebook:patent", []string{"x"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	_, details, _ := newChecker(state, c).HealthCheck(ctx)

	if got := details["data_age_hours"]; got != 1.5 {
		t.Errorf("data_age_hours = %v, want 1.5", got)
	}
	if got := details["cache_entries"]; got != 1 {
		t.Errorf("cache_entries = %v, want 1", got)
	}
	if got := details["next_update"]; got != "2026-10-19T18:00:00Z" {
		t.Errorf("next_update = %v", got)
	}
	statuses, ok := details["datasets"].(map[string]data.DatasetStatus)
	if !ok || len(statuses) != 1 {
		t.Fatalf("datasets = %#v", details["datasets"])
	}
	if _, ok := details["last_update"]; !ok {
		t.Error("last_update missing")
	}
}

func TestNextRun(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2026, 10, 19, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		refreshAt string
		now       time.Time
		want      time.Time
	}{
		{"before first", "06:00;18:00", day(5, 0), day(6, 0)},
		{"between", "06:00;18:00", day(6, 0), day(18, 0)},
		{"after last", "06:00;18:00", day(19, 0), day(6, 0).AddDate(0, 0, 1)},
		{"unsorted with seconds", "18:00:30; 03:15", day(4, 0), time.Date(2026, 10, 19, 18, 0, 30, 0, time.UTC)},
		{"garbage ignored", "nope;12:30", day(12, 0), day(12, 30)},
		{"nothing valid", "nope", day(12, 0), time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRun(tt.refreshAt, tt.now); !got.Equal(tt.want) {
				t.Errorf("NextRun(%q, %v) = %v, want %v", tt.refreshAt, tt.now, got, tt.want)
			}
		})
	}
}
