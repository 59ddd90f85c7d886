// Package slot holds the storage backends a cart.Store persists into. Every
// backend also offers a change feed so other processes sharing the storage
// can invalidate their views.
package slot

import (
	"context"
	"sync"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

// feedBuffer is how many change notifications a slow feed reader may lag
// behind before further ones are dropped. The reconciliation poll covers
// dropped notifications.
const feedBuffer = 16

// Memory keeps blobs in a process-local map. It is the default backend for
// tests and single-process runs.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	subMu sync.Mutex
	subs  map[chan string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		blobs: make(map[string][]byte),
		subs:  make(map[chan string]struct{}),
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, cart.ErrSlotEmpty
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Put(ctx context.Context, key string, blob []byte) error {
	m.mu.Lock()
	m.blobs[key] = append([]byte(nil), blob...)
	m.mu.Unlock()

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- key:
		default:
		}
	}
	return nil
}

// Changes reports every Put until ctx is done.
func (m *Memory) Changes(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, feedBuffer)
	m.subMu.Lock()
	m.subs[ch] = struct{}{}
	m.subMu.Unlock()

	go func() {
		<-ctx.Done()
		m.subMu.Lock()
		delete(m.subs, ch)
		m.subMu.Unlock()
		close(ch)
	}()
	return ch, nil
}
