package throttle

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local fixed-window counter for single-instance runs.
type Memory struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows map[string]memoryWindow
}

type memoryWindow struct {
	start time.Time
	count int
}

// NewMemory allows limit attempts per key within each window.
func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{limit: limit, window: window, now: time.Now, windows: make(map[string]memoryWindow)}
}

// Allow counts the attempt and reports whether it is within the limit.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.window {
		w = memoryWindow{start: now}
	}
	w.count++
	m.windows[key] = w

	for k, other := range m.windows {
		if now.Sub(other.start) >= m.window {
			delete(m.windows, k)
		}
	}
	return w.count <= m.limit, nil
}
