package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

const DefaultRedisPrefix = "storefront"

// RedisConfig holds the connection settings for the redis backend. Timeouts
// are in seconds.
type RedisConfig struct {
	URL          string
	ReadTimeout  int
	WriteTimeout int
	DialTimeout  int
}

// NewRedisClient parses the URL, applies the timeouts and pings the server.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeout) * time.Second
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Redis stores each blob under "<prefix>:slot:<key>" and publishes the key on
// "<prefix>:changed" in the same transaction.
type Redis struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

func NewRedis(client *redis.Client, prefix string, logger zerolog.Logger) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, log: logger}
}

func (r *Redis) dataKey(key string) string { return r.prefix + ":slot:" + key }

func (r *Redis) channel() string { return r.prefix + ":changed" }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.dataKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, err
	}
	return b, nil
}

func (r *Redis) Put(ctx context.Context, key string, blob []byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.dataKey(key), blob, 0)
		pipe.Publish(ctx, r.channel(), key)
		return nil
	})
	return err
}

// Changes subscribes to the change channel. The subscription is confirmed
// before Changes returns so no write after it is missed.
func (r *Redis) Changes(ctx context.Context) (<-chan string, error) {
	sub := r.client.Subscribe(ctx, r.channel())
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", r.channel(), err)
	}

	msgs := sub.Channel()
	out := make(chan string, feedBuffer)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					r.log.Warn().Str("channel", r.channel()).Msg("redis subscription closed")
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
