package slot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisGetPut(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	r := NewRedis(client, "", zerolog.Nop())

	_, err := r.Get(ctx, "carrito")
	require.ErrorIs(t, err, cart.ErrSlotEmpty)

	require.NoError(t, r.Put(ctx, "carrito", []byte(`[{"id":1}]`)))

	got, err := r.Get(ctx, "carrito")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))

	raw, err := mr.Get("storefront:slot:carrito")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, raw)
}

func TestRedisChanges(t *testing.T) {
	_, client := newTestRedis(t)
	r := NewRedis(client, "tienda", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := r.Changes(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Put(context.Background(), "tienda-cart:s9", []byte(`[]`)))
	select {
	case key := <-ch:
		assert.Equal(t, "tienda-cart:s9", key)
	case <-time.After(3 * time.Second):
		t.Fatal("no change published")
	}

	cancel()
	drain(ch)
}

func TestRedisGetError(t *testing.T) {
	mr, client := newTestRedis(t)
	r := NewRedis(client, "", zerolog.Nop())
	mr.SetError("ERR backend unavailable")

	_, err := r.Get(context.Background(), "carrito")
	require.Error(t, err)
	assert.NotErrorIs(t, err, cart.ErrSlotEmpty)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{URL: "redis://" + mr.Addr(), DialTimeout: 1})
	require.NoError(t, err)
	client.Close()

	_, err = NewRedisClient(context.Background(), RedisConfig{URL: "not a url"})
	require.Error(t, err)
}
