package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local backend. Nothing survives Close.
type MemoryStore struct {
	mu      sync.Mutex
	closed  bool
	state   map[string][]byte
	samples map[string][]SampleRecord
}

var _ Backend = (*MemoryStore)(nil)

// NewMemory returns an empty in-memory backend.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		state:   make(map[string][]byte),
		samples: make(map[string][]SampleRecord),
	}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	doc, ok := m.state[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), doc...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.state[key] = append([]byte(nil), doc...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.state, key)
	return nil
}

func (m *MemoryStore) AppendSample(_ context.Context, key string, rec SampleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	m.samples[key] = append(m.samples[key], rec)
	return nil
}

func (m *MemoryStore) RecentSamples(_ context.Context, key string, limit int) ([]SampleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	all := m.samples[key]
	var out []SampleRecord
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (m *MemoryStore) CountSamples(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	return len(m.samples[key]), nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
