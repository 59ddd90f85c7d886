package slot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

func TestFileGetPut(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "slots")
	f, err := NewFile(dir, zerolog.Nop())
	require.NoError(t, err)

	_, err = f.Get(ctx, "carrito:abc")
	require.ErrorIs(t, err, cart.ErrSlotEmpty)

	require.NoError(t, f.Put(ctx, "carrito:abc", []byte(`[1]`)))
	require.NoError(t, f.Put(ctx, "carrito:abc", []byte(`[2]`)))

	got, err := f.Get(ctx, "carrito:abc")
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")
	assert.Equal(t, "carrito%3Aabc.json", entries[0].Name())
}

func TestKeyOf(t *testing.T) {
	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{name: "/data/carrito.json", key: "carrito", ok: true},
		{name: "/data/carrito%3As1.json", key: "carrito:s1", ok: true},
		{name: "/data/.slot-123", ok: false},
		{name: "/data/notes.txt", ok: false},
		{name: "/data/%zz.json", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := keyOf(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestFileChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f, err := NewFile(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := f.Changes(ctx)
	require.NoError(t, err)

	// A second handle on the same directory plays the other process.
	other, err := NewFile(f.dir, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, other.Put(context.Background(), "carrito:s2", []byte("[]")))
	waitKey(t, ch, "carrito:s2")

	cancel()
	drain(ch)
}
