// Package data keeps track of when each upstream dataset was last refreshed.
// Readers never block: every snapshot is swapped in atomically.
package data

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/govdata-api/interfaces"
	"github.com/giygas/govdata-api/logging"
)

// Compile-time check to ensure RefreshState implements RefreshStore
var _ interfaces.RefreshStore = (*RefreshState)(nil)

// DatasetStatus is the refresh bookkeeping of one dataset
type DatasetStatus struct {
	LastRefresh time.Time `json:"last_refresh"`
	LastError   string    `json:"last_error,omitempty"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// RefreshState holds per-dataset refresh status with atomic snapshots
type RefreshState struct {
	statuses        atomic.Value // map[string]DatasetStatus
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time

	// serialises copy-on-write updates of statuses
	mu sync.Mutex
}

// NewRefreshState creates a RefreshState with no recorded refresh
func NewRefreshState() *RefreshState {
	rs := &RefreshState{}
	rs.statuses.Store(make(map[string]DatasetStatus))
	rs.serverStartTime.Store(time.Time{})
	return rs
}

func (rs *RefreshState) snapshot() map[string]DatasetStatus {
	if v := rs.statuses.Load(); v != nil {
		if statuses, ok := v.(map[string]DatasetStatus); ok {
			return statuses
		}
	}

	logging.Warn("Refresh statuses are empty or invalid")
	return map[string]DatasetStatus{}
}

func (rs *RefreshState) update(dataset string, fn func(*DatasetStatus)) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	next := maps.Clone(rs.snapshot())
	if next == nil {
		next = make(map[string]DatasetStatus)
	}
	status := next[dataset]
	fn(&status)
	next[dataset] = status
	rs.statuses.Store(next)
}

// RecordRefresh marks dataset as refreshed at t and clears its last error
func (rs *RefreshState) RecordRefresh(dataset string, t time.Time) {
	rs.update(dataset, func(s *DatasetStatus) {
		s.LastRefresh = t
		s.LastError = ""
	})
}

// RecordFailure keeps the previous refresh time and remembers err
func (rs *RefreshState) RecordFailure(dataset string, err error) {
	rs.update(dataset, func(s *DatasetStatus) {
		s.LastError = err.Error()
		s.LastFailure = time.Now()
	})
}

// GetStatuses returns a copy of every dataset's status
func (rs *RefreshState) GetStatuses() map[string]DatasetStatus {
	return maps.Clone(rs.snapshot())
}

// GetLastRefresh returns the last successful refresh of dataset, zero if none
func (rs *RefreshState) GetLastRefresh(dataset string) time.Time {
	return rs.snapshot()[dataset].LastRefresh
}

// GetLastUpdated returns the oldest successful refresh across datasets, so
// staleness is judged on the least recent one. Zero when nothing has been
// refreshed yet.
func (rs *RefreshState) GetLastUpdated() time.Time {
	var oldest time.Time
	for _, s := range rs.snapshot() {
		if s.LastRefresh.IsZero() {
			return time.Time{}
		}
		if oldest.IsZero() || s.LastRefresh.Before(oldest) {
			oldest = s.LastRefresh
		}
	}
	return oldest
}

// IsUpdating returns true if a refresh is currently in progress
func (rs *RefreshState) IsUpdating() bool {
	return rs.updating.Load()
}

// BeginUpdate marks the start of a refresh.
// Returns true if the refresh can proceed, false if another one is in progress
func (rs *RefreshState) BeginUpdate() bool {
	return rs.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a refresh
func (rs *RefreshState) EndUpdate() {
	rs.updating.Store(false)
}

// SetServerStartTime sets the server start time
func (rs *RefreshState) SetServerStartTime(startTime time.Time) {
	rs.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (rs *RefreshState) GetServerStartTime() time.Time {
	if v := rs.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}
