// Package health provides health checking functionality for the govdata API.
package health

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/giygas/govdata-api/data"
	"github.com/giygas/govdata-api/interfaces"
	"github.com/giygas/govdata-api/logging"
)

// StatusStore is the refresh state the checker reports on
type StatusStore interface {
	interfaces.RefreshStore
	GetStatuses() map[string]data.DatasetStatus
}

// KeyCounter reports how many entries the cache holds
type KeyCounter interface {
	Len(ctx context.Context) (int, error)
}

// Compile-time check to ensure HealthCheckerImpl implements interfaces.HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store     StatusStore
	cache     KeyCounter
	refreshAt string
	now       func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// refreshAt uses the scheduler syntax ("06:00;18:00"); cache may be nil.
func NewHealthChecker(store StatusStore, cache KeyCounter, refreshAt string) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		store:     store,
		cache:     cache,
		refreshAt: refreshAt,
		now:       time.Now,
	}
}

// HealthCheck returns HTTP-specific health data
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int) {
	lastUpdate := h.store.GetLastUpdated()
	isUpdating := h.store.IsUpdating()
	statuses := h.store.GetStatuses()

	dataAge := h.now().Sub(lastUpdate)

	switch {
	case len(statuses) == 0 || lastUpdate.IsZero():
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	details = map[string]any{
		"datasets":    statuses,
		"is_updating": isUpdating,
		"next_update": h.CalculateNextUpdate().Format(time.RFC3339),
	}

	if !lastUpdate.IsZero() {
		details["last_update"] = lastUpdate.Format(time.RFC3339)
		details["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}

	if h.cache != nil {
		n, err := h.cache.Len(ctx)
		if err != nil {
			logging.Warn("Could not count cache entries", "error", err)
		} else {
			details["cache_entries"] = n
		}
	}

	return status, details, httpStatus
}

// CalculateNextUpdate returns the next scheduled refresh time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return NextRun(h.refreshAt, h.now())
}

// NextRun returns the first time of day in refreshAt ("HH:MM[:SS]" joined by
// ';') strictly after now, rolling over to tomorrow's earliest time.
// Unparsable entries are ignored; zero time when none is valid.
func NextRun(refreshAt string, now time.Time) time.Time {
	var offsets []time.Duration
	for _, part := range strings.Split(refreshAt, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		layout := "15:04"
		if strings.Count(part, ":") == 2 {
			layout = "15:04:05"
		}
		t, err := time.Parse(layout, part)
		if err != nil {
			continue
		}
		offsets = append(offsets, time.Duration(t.Hour())*time.Hour+
			time.Duration(t.Minute())*time.Minute+
			time.Duration(t.Second())*time.Second)
	}
	if len(offsets) == 0 {
		return time.Time{}
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, off := range offsets {
		if next := midnight.Add(off); next.After(now) {
			return next
		}
	}

	tomorrow := midnight.AddDate(0, 0, 1)
	return tomorrow.Add(offsets[0])
}
