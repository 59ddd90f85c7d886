package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/clients"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/config"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/db"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/events"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/slot"
)

// backend is the storage slot plus whatever change feeds come with it.
type backend struct {
	slot    cart.Slot
	feeds   []cart.Feed
	closers []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

func openBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*backend, error) {
	b := &backend{}
	switch cfg.StorageBackend {
	case config.BackendMemory:
		// One process owns the map; its stores already see every write.
		b.slot = slot.NewMemory()

	case config.BackendFile:
		f, err := slot.NewFile(cfg.FileDir, logger)
		if err != nil {
			return nil, err
		}
		b.slot = f
		b.feeds = append(b.feeds, f)

	case config.BackendSQLite:
		sqlDB, err := slot.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s := slot.NewSQLite(sqlDB, slot.DefaultVersionPoll, logger)
		b.slot = s
		b.feeds = append(b.feeds, s)
		b.closers = append(b.closers, sqlDB.Close)

	case config.BackendRedis:
		client, err := slot.NewRedisClient(ctx, slot.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return nil, err
		}
		r := slot.NewRedis(client, cfg.RedisPrefix, logger)
		b.slot = r
		b.feeds = append(b.feeds, r)
		b.closers = append(b.closers, client.Close)

	case config.BackendPostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				return nil, err
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		b.slot = slot.NewPostgres(pool)
		b.feeds = append(b.feeds, slot.NewPostgresFeed(pool, logger))
		b.closers = append(b.closers, func() error { pool.Close(); return nil })

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	logger.Info().Str("backend", cfg.StorageBackend).Int("feeds", len(b.feeds)).Msg("cart storage ready")
	return b, nil
}

// cartEvents is the optional RabbitMQ side: a publisher every store notifies
// and a consumer feed for writes made by other instances.
type cartEvents struct {
	conn      *amqp.Connection
	publisher *events.Publisher
	consumer  *events.Consumer
}

func openEvents(cfg config.Config, logger zerolog.Logger) (*cartEvents, error) {
	if cfg.RabbitMQURL == "" {
		return nil, nil
	}
	conn, err := events.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	producer := instanceID(cfg)
	pub, err := events.NewPublisher(conn, events.PublisherOptions{Producer: producer})
	if err != nil {
		conn.Close()
		return nil, err
	}
	logger.Info().Str("producer", producer).Msg("cart events enabled")
	return &cartEvents{
		conn:      conn,
		publisher: pub,
		consumer:  events.NewConsumer(conn, producer, logger),
	}, nil
}

func (e *cartEvents) Close() error {
	if e == nil {
		return nil
	}
	return errors.Join(e.publisher.Close(), e.conn.Close())
}

func instanceID(cfg config.Config) string {
	if cfg.InstanceID != "" {
		return cfg.InstanceID
	}
	return events.DefaultProducer + "-" + uuid.NewString()[:8]
}

// newRegistry builds the session cart registry, wiring notifications when
// events are enabled.
func newRegistry(b *backend, ev *cartEvents, cfg config.Config, logger zerolog.Logger) *cart.Registry {
	opts := []cart.Option{cart.WithLogger(logger)}
	if ev != nil {
		opts = append(opts, cart.WithNotifier(ev.publisher))
	}
	reg := cart.NewRegistry(b.slot, cfg.CartKey, opts...)
	reg.SetIdleTTL(cfg.CartIdleTTL)
	return reg
}

type upstreams struct {
	catalog *clients.CatalogClient
	roster  *clients.RosterClient
	probes  []clients.HealthProbe
}

func newUpstreams(cfg config.Config, logger zerolog.Logger) (*upstreams, error) {
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	base, err := clients.NewClient("catalog", cfg.CatalogURL, httpClient,
		clients.WithRetries(cfg.UpstreamRetries, 0),
		clients.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &upstreams{
		catalog: clients.NewCatalogClient(base, cfg.DefaultCategory),
		roster:  clients.NewRosterClient(base),
		probes: []clients.HealthProbe{
			{
				Name:   "catalog",
				Client: base,
				Path:   "productos_categoria.php",
				Query:  url.Values{"categoria": {strconv.FormatInt(cfg.DefaultCategory, 10)}},
			},
			{Name: "roster", Client: base, Path: "jugadores.php"},
		},
	}, nil
}
