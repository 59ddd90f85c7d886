package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Store owns the cart persisted under one slot key. It keeps the last
// reconciled state in memory for the views attached to it and serialises its
// own writes; across processes the last writer wins.
type Store struct {
	key      string
	slot     Slot
	notifier Notifier
	log      zerolog.Logger

	mu      sync.Mutex
	current Cart

	subMu  sync.Mutex
	subs   map[int]chan Cart
	nextID int
}

type Option func(*Store)

// WithNotifier makes the store announce every write.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger sets the store logger. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(key string, slot Slot, opts ...Option) *Store {
	s := &Store{
		key:     key,
		slot:    slot,
		log:     zerolog.Nop(),
		current: Cart{Items: []LineItem{}},
		subs:    make(map[int]chan Cart),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("cart_key", key).Logger()
	return s
}

func (s *Store) Key() string { return s.key }

// Snapshot returns the in-memory cart without touching storage.
func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Load re-reads the slot and makes it the in-memory state. It never fails:
// a missing or unparsable blob yields an empty cart. A storage error also
// returns an empty cart but keeps the in-memory state, so a later Persist
// cannot overwrite the stored cart with nothing.
func (s *Store) Load(ctx context.Context) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.read(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("cart load failed, keeping last reconciled cart")
		return Cart{Items: []LineItem{}}
	}
	if s.setCurrent(c) {
		s.publish(c)
	}
	return c.clone()
}

// AddOrMerge adds quantity units of a product. If the product is already in
// the cart only its quantity grows; the stored name and unit price are kept.
// A quantity below 1 leaves the cart untouched.
func (s *Store) AddOrMerge(ctx context.Context, item LineItem) (Cart, error) {
	return s.mutate(ctx, func(c Cart) (Cart, bool) {
		if item.Quantity < 1 {
			return c, false
		}
		return merge(c, item), true
	})
}

// SetQuantity replaces a line's quantity. Quantities below 1 and unknown
// products are ignored.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int) (Cart, error) {
	return s.mutate(ctx, func(c Cart) (Cart, bool) {
		if quantity < 1 {
			return c, false
		}
		return withQuantity(c, productID, quantity)
	})
}

// Remove drops a line. Removing an absent product is not an error.
func (s *Store) Remove(ctx context.Context, productID int64) (Cart, error) {
	return s.mutate(ctx, func(c Cart) (Cart, bool) {
		return without(c, productID)
	})
}

// Persist writes the in-memory cart to the slot verbatim, overwriting
// whatever another context may have stored since the last reconciliation.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	c := s.current.clone()
	err := s.write(ctx, c)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.announce(ctx, c)
	return nil
}

// Subscribe registers an observer that receives every reconciled cart state.
// Slow observers only see the latest state. Call cancel to unsubscribe.
func (s *Store) Subscribe() (<-chan Cart, func()) {
	ch := make(chan Cart, 1)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *Store) mutate(ctx context.Context, apply func(Cart) (Cart, bool)) (Cart, error) {
	s.mu.Lock()
	c, err := s.read(ctx)
	if err != nil {
		s.mu.Unlock()
		return Cart{}, err
	}

	next, changed := apply(c)
	if changed {
		if err := s.write(ctx, next); err != nil {
			s.mu.Unlock()
			return Cart{}, err
		}
	}
	if s.setCurrent(next) {
		s.publish(next)
	}
	s.mu.Unlock()

	if changed {
		s.announce(ctx, next)
	}
	return next.clone(), nil
}

// read loads and decodes the slot. Absent and corrupt blobs are an empty
// cart; only storage failures are returned. Callers hold s.mu.
func (s *Store) read(ctx context.Context) (Cart, error) {
	blob, err := s.slot.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			return Cart{Items: []LineItem{}}, nil
		}
		return Cart{}, fmt.Errorf("read cart %s: %w", s.key, err)
	}

	c, dropped, err := Decode(blob)
	if err != nil {
		s.log.Warn().Err(err).Msg("persisted cart is corrupt, treating as empty")
		return Cart{Items: []LineItem{}}, nil
	}
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Msg("dropped malformed cart items")
	}
	return c, nil
}

func (s *Store) write(ctx context.Context, c Cart) error {
	blob, err := Encode(c)
	if err != nil {
		return err
	}
	if err := s.slot.Put(ctx, s.key, blob); err != nil {
		return fmt.Errorf("write cart %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) setCurrent(c Cart) bool {
	if s.current.Equal(c) {
		return false
	}
	s.current = c.clone()
	return true
}

// publish hands c to every observer. Callers hold s.mu so observers see
// states in reconciliation order.
func (s *Store) publish(c Cart) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.clone()
	}
}

func (s *Store) announce(ctx context.Context, c Cart) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, s.key, c); err != nil {
		s.log.Warn().Err(err).Msg("cart change notification failed")
	}
}
