package cart

import (
	"context"
	"errors"
)

// ErrSlotEmpty is returned by a Slot when nothing has been stored under key.
var ErrSlotEmpty = errors.New("slot empty")

// Slot is a durable key/value cell holding one serialised cart per key.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, blob []byte) error
}

// Feed delivers the keys of slots written by another execution context. The
// channel is closed once ctx is done or the feed fails permanently.
type Feed interface {
	Changes(ctx context.Context) (<-chan string, error)
}

// Notifier is told about every successful cart write so other processes can
// invalidate their views.
type Notifier interface {
	Notify(ctx context.Context, key string, c Cart) error
}

// MergeFeeds fans several feeds into one. A nil feed list yields nil.
func MergeFeeds(feeds ...Feed) Feed {
	var live []Feed
	for _, f := range feeds {
		if f != nil {
			live = append(live, f)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return mergedFeed(live)
}

type mergedFeed []Feed

func (m mergedFeed) Changes(ctx context.Context) (<-chan string, error) {
	chans := make([]<-chan string, 0, len(m))
	for _, f := range m {
		ch, err := f.Changes(ctx)
		if err != nil {
			return nil, err
		}
		chans = append(chans, ch)
	}

	out := make(chan string)
	done := make(chan struct{}, len(chans))
	for _, ch := range chans {
		go func(ch <-chan string) {
			defer func() { done <- struct{}{} }()
			for key := range ch {
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}
	go func() {
		for range chans {
			<-done
		}
		close(out)
	}()
	return out, nil
}
