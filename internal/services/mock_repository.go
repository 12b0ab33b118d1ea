package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/repository"
	"sonacove/internal/types"
)

// MockRepository implements repository.Repository in memory for testing
type MockRepository struct {
	mu               sync.RWMutex
	events           map[string]types.AnalyticsEvent
	windows          map[string]types.WindowState
	enqueueCallCount int
	saveCallCount    int
	loadCallCount    int
	deleteCallCount  int
	transactionCalls int
	shouldFailSave   bool
	shouldFailLoad   bool
	shouldFailDelete bool
	shouldFailTx     bool
}

var _ repository.Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		events:  make(map[string]types.AnalyticsEvent),
		windows: make(map[string]types.WindowState),
	}
}

// SetFailureModes configures the mock to simulate failures
func (m *MockRepository) SetFailureModes(save, load, del, tx bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailSave = save
	m.shouldFailLoad = load
	m.shouldFailDelete = del
	m.shouldFailTx = tx
}

// GetCallCounts returns the number of times each method was called
func (m *MockRepository) GetCallCounts() (enqueue, save, load, del, tx int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enqueueCallCount, m.saveCallCount, m.loadCallCount, m.deleteCallCount, m.transactionCalls
}

// Events returns a copy of every queued event, oldest first
func (m *MockRepository) Events() []types.AnalyticsEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked(false)
}

func (m *MockRepository) EnqueueEvent(ctx context.Context, event types.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enqueueCallCount++

	if m.shouldFailSave {
		return errors.NewShellError("EnqueueEvent", fmt.Errorf("mock save failure"), errors.ErrCodeConnection)
	}
	if event.ID == "" || event.Event == "" {
		return errors.HandleValidationError("EnqueueEvent", "event", event.Event, "id and name required")
	}
	if _, exists := m.events[event.ID]; exists {
		return errors.NewShellError("EnqueueEvent", fmt.Errorf("duplicate id %s", event.ID), errors.ErrCodeConstraint)
	}

	props := make(map[string]any, len(event.Properties))
	for k, v := range event.Properties {
		props[k] = v
	}
	event.Properties = props
	m.events[event.ID] = event
	return nil
}

func (m *MockRepository) GetPendingEvents(ctx context.Context, limit int) ([]types.AnalyticsEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadCallCount++

	if m.shouldFailLoad {
		return nil, errors.NewShellError("GetPendingEvents", fmt.Errorf("mock load failure"), errors.ErrCodeConnection)
	}

	pending := m.sortedLocked(true)
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *MockRepository) MarkEventsSent(ctx context.Context, ids []string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFailSave {
		return errors.NewShellError("MarkEventsSent", fmt.Errorf("mock save failure"), errors.ErrCodeConnection)
	}
	for _, id := range ids {
		if ev, ok := m.events[id]; ok {
			at := sentAt
			ev.SentAt = &at
			m.events[id] = ev
		}
	}
	return nil
}

func (m *MockRepository) CountPendingEvents(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadCallCount++

	if m.shouldFailLoad {
		return 0, errors.NewShellError("CountPendingEvents", fmt.Errorf("mock load failure"), errors.ErrCodeConnection)
	}
	return int64(len(m.sortedLocked(true))), nil
}

func (m *MockRepository) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteCallCount++

	if m.shouldFailDelete {
		return 0, errors.NewShellError("DeleteEventsBefore", fmt.Errorf("mock delete failure"), errors.ErrCodeBusy)
	}

	var deleted int64
	for id, ev := range m.events {
		if ev.CapturedAt.Before(before) {
			delete(m.events, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockRepository) SaveWindowState(ctx context.Context, state types.WindowState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCallCount++

	if m.shouldFailSave {
		return errors.NewShellError("SaveWindowState", fmt.Errorf("mock save failure"), errors.ErrCodeConnection)
	}
	if state.Name == "" || !state.Usable() {
		return errors.HandleValidationError("SaveWindowState", "state", state.Name, "name and size required")
	}
	m.windows[state.Name] = state
	return nil
}

func (m *MockRepository) GetWindowState(ctx context.Context, name string) (*types.WindowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadCallCount++

	if m.shouldFailLoad {
		return nil, errors.NewShellError("GetWindowState", fmt.Errorf("mock load failure"), errors.ErrCodeConnection)
	}
	state, exists := m.windows[name]
	if !exists {
		return nil, errors.HandleNotFound("GetWindowState", "window_state", name)
	}
	return &state, nil
}

// WithTransaction runs fn against the mock itself; nothing is rolled back
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repo repository.Repository) error) error {
	m.mu.Lock()
	m.transactionCalls++
	fail := m.shouldFailTx
	m.mu.Unlock()

	if fail {
		return errors.NewShellError("WithTransaction", fmt.Errorf("mock transaction failure"), errors.ErrCodeBusy)
	}
	return fn(m)
}

func (m *MockRepository) sortedLocked(pendingOnly bool) []types.AnalyticsEvent {
	out := make([]types.AnalyticsEvent, 0, len(m.events))
	for _, ev := range m.events {
		if pendingOnly && !ev.IsPending() {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CapturedAt.Equal(out[j].CapturedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CapturedAt.Before(out[j].CapturedAt)
	})
	return out
}
