package slot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

// waitKey reads ch until key arrives or the deadline passes.
func waitKey(t *testing.T, ch <-chan string, key string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got, ok := <-ch:
			if !ok {
				t.Fatalf("feed closed before %q arrived", key)
			}
			if got == key {
				return
			}
		case <-deadline:
			t.Fatalf("no change reported for %q", key)
		}
	}
}

func drain(ch <-chan string) {
	for range ch {
	}
}

func TestMemoryGetPut(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "carrito")
	require.ErrorIs(t, err, cart.ErrSlotEmpty)

	blob := []byte(`[{"id":1}]`)
	require.NoError(t, m.Put(ctx, "carrito", blob))
	blob[0] = 'x'

	got, err := m.Get(ctx, "carrito")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got), "stored blob is a copy")
}

func TestMemoryChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.Changes(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Put(context.Background(), "carrito:s1", []byte("[]")))
	waitKey(t, ch, "carrito:s1")

	cancel()
	drain(ch)
}

func TestMemoryChangesDropsWhenReaderLags(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := m.Changes(ctx)
	require.NoError(t, err)

	for i := 0; i < feedBuffer*2; i++ {
		require.NoError(t, m.Put(ctx, "k", []byte("[]")))
	}
	assert.Len(t, ch, feedBuffer)
}

func TestMemoryBacksAStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := cart.NewStore(cart.DefaultKey, m)
	b := cart.NewStore(cart.DefaultKey, m)

	_, err := a.AddOrMerge(ctx, cart.LineItem{ProductID: 4, Name: "Balón", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Load(ctx).Count())
}
