package cart

import (
	"context"
	"sync"
)

type fakeSlot struct {
	mu    sync.Mutex
	blobs map[string][]byte

	getErr error
	putErr error
	puts   int
}

func newFakeSlot() *fakeSlot {
	return &fakeSlot{blobs: make(map[string][]byte)}
}

func (f *fakeSlot) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.blobs[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), b...), nil
}

func (f *fakeSlot) Put(ctx context.Context, key string, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (f *fakeSlot) set(key, blob string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = []byte(blob)
}

func (f *fakeSlot) raw(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.blobs[key])
}

func (f *fakeSlot) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

type notification struct {
	key  string
	cart Cart
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notification
	err   error
}

func (n *fakeNotifier) Notify(ctx context.Context, key string, c Cart) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{key: key, cart: c})
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// chanFeed is a Feed backed by a channel the test writes to.
type chanFeed struct {
	keys chan string
	err  error
}

func (f *chanFeed) Changes(ctx context.Context) (<-chan string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case k := <-f.keys:
				select {
				case out <- k:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
