package transport

import (
	"context"
	"sync"
	"time"

	domain "xfrost/internal/domain"
	"xfrost/internal/xerr"
)

// Memory is an in-process, single-write domain.KvStore used by tests and
// by single-binary demos that simulate every participant locally.
type Memory struct {
	mu   sync.RWMutex
	data map[domain.ARID][]byte
}

var _ domain.KvStore = (*Memory)(nil)

// NewMemory returns an empty in-memory KvStore.
func NewMemory() *Memory {
	return &Memory{data: make(map[domain.ARID][]byte)}
}

func (m *Memory) Put(_ context.Context, arid domain.ARID, envelope []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[arid]; exists {
		return xerr.New(xerr.TransportError, "Put", "arid already written")
	}
	cp := make([]byte, len(envelope))
	copy(cp, envelope)
	m.data[arid] = cp
	return nil
}

func (m *Memory) Get(ctx context.Context, arid domain.ARID, deadline time.Time) ([]byte, error) {
	const pollInterval = 10 * time.Millisecond
	for {
		m.mu.RLock()
		b, ok := m.data[arid]
		m.mu.RUnlock()
		if ok {
			return b, nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, xerr.Wrap(xerr.Cancelled, "Get", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}
