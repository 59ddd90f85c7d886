package cart

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultIdleTTL is how long a store stays open without being used before
// Evict drops it.
const DefaultIdleTTL = 30 * time.Minute

// Registry hands out one Store per slot key so that every view of the same
// cart shares the same reconciled state.
type Registry struct {
	slot    Slot
	baseKey string
	opts    []Option
	idleTTL time.Duration
	now     func() time.Time

	mu     sync.Mutex
	stores map[string]*openStore
}

type openStore struct {
	store    *Store
	lastUsed time.Time
}

func NewRegistry(slot Slot, baseKey string, opts ...Option) *Registry {
	if baseKey == "" {
		baseKey = DefaultKey
	}
	return &Registry{
		slot:    slot,
		baseKey: baseKey,
		opts:    opts,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		stores:  make(map[string]*openStore),
	}
}

// SetIdleTTL changes how long an unused store stays open. Zero or less keeps
// stores open for the life of the registry.
func (r *Registry) SetIdleTTL(d time.Duration) {
	r.mu.Lock()
	r.idleTTL = d
	r.mu.Unlock()
}

// KeyFor maps a session to its slot key. The empty session uses the base key.
func (r *Registry) KeyFor(session string) string {
	if session == "" {
		return r.baseKey
	}
	return r.baseKey + ":" + session
}

// Open returns the store for session, loading it from the slot the first
// time it is opened.
func (r *Registry) Open(ctx context.Context, session string) *Store {
	key := r.KeyFor(session)

	r.mu.Lock()
	e, ok := r.stores[key]
	if !ok {
		e = &openStore{store: NewStore(key, r.slot, r.opts...)}
		r.stores[key] = e
	}
	e.lastUsed = r.now()
	r.mu.Unlock()

	if !ok {
		e.store.Load(ctx)
	}
	return e.store
}

// Lookup returns the open store for a slot key.
func (r *Registry) Lookup(key string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.stores[key]
	if !ok {
		return nil, false
	}
	return e.store, true
}

// Keys lists the open slot keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	keys := make([]string, 0, len(r.stores))
	for k := range r.stores {
		keys = append(keys, k)
	}
	r.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Invalidate reloads the store for key if one is open. Unknown keys belong to
// sessions this process does not serve and are ignored.
func (r *Registry) Invalidate(ctx context.Context, key string) bool {
	s, ok := r.Lookup(key)
	if !ok {
		return false
	}
	s.Load(ctx)
	return true
}

// Evict drops stores nobody has opened within the idle TTL. Stores with a
// live subscriber stay. The cart itself is in the slot, so a later Open
// loads it again. It returns the number of stores dropped.
func (r *Registry) Evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)
	n := 0
	for key, e := range r.stores {
		if e.lastUsed.After(cutoff) || e.store.subscribers() > 0 {
			continue
		}
		delete(r.stores, key)
		n++
	}
	return n
}

// Reconcile drops idle stores and reloads the rest.
func (r *Registry) Reconcile(ctx context.Context) {
	r.Evict()
	for _, key := range r.Keys() {
		if ctx.Err() != nil {
			return
		}
		r.Invalidate(ctx, key)
	}
}
