package interfaces

import (
	"context"
	"errors"
	"testing"
	"time"
)

// MockRefreshStore implements RefreshStore for testing
type MockRefreshStore struct {
	refreshes map[string]time.Time
	failures  map[string]error
	updating  bool
	started   time.Time
}

func NewMockRefreshStore() *MockRefreshStore {
	return &MockRefreshStore{refreshes: map[string]time.Time{}, failures: map[string]error{}}
}

func (m *MockRefreshStore) RecordRefresh(dataset string, t time.Time) { m.refreshes[dataset] = t }
func (m *MockRefreshStore) RecordFailure(dataset string, err error)   { m.failures[dataset] = err }
func (m *MockRefreshStore) GetLastRefresh(dataset string) time.Time   { return m.refreshes[dataset] }
func (m *MockRefreshStore) IsUpdating() bool                          { return m.updating }
func (m *MockRefreshStore) GetServerStartTime() time.Time             { return m.started }
func (m *MockRefreshStore) EndUpdate()                                { m.updating = false }

func (m *MockRefreshStore) GetLastUpdated() time.Time {
	var oldest time.Time
	for _, t := range m.refreshes {
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
	}
	return oldest
}

func (m *MockRefreshStore) BeginUpdate() bool {
	if m.updating {
		return false
	}
	m.updating = true
	return true
}

// MockWarmer implements Warmer for testing
type MockWarmer struct {
	name  string
	err   error
	calls int
}

func (m *MockWarmer) Name() string { return m.name }

func (m *MockWarmer) Refresh(context.Context) error {
	m.calls++
	return m.err
}

var (
	_ RefreshStore = (*MockRefreshStore)(nil)
	_ Warmer       = (*MockWarmer)(nil)
)

func TestMockRefreshStore(t *testing.T) {
	store := NewMockRefreshStore()

	if !store.BeginUpdate() {
		t.Fatal("BeginUpdate should succeed on a fresh store")
	}
	if store.BeginUpdate() {
		t.Error("BeginUpdate should fail while updating")
	}
	store.EndUpdate()

	older := time.Now().Add(-time.Hour)
	store.RecordRefresh("metastore", time.Now())
	store.RecordRefresh("mortality", older)

	if !store.GetLastUpdated().Equal(older) {
		t.Error("GetLastUpdated should report the oldest refresh")
	}
}

func TestWarmerContract(t *testing.T) {
	warmers := []Warmer{
		&MockWarmer{name: "metastore"},
		&MockWarmer{name: "orangebook", err: errors.New("boom")},
	}

	var failed []string
	for _, w := range warmers {
		if err := w.Refresh(context.Background()); err != nil {
			failed = append(failed, w.Name())
		}
	}

	if len(failed) != 1 || failed[0] != "orangebook" {
		t.Errorf("expected only orangebook to fail, got %v", failed)
	}
}
