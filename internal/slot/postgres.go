package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

// ChangeChannel is the LISTEN/NOTIFY channel the cart_slots trigger
// notifies with the written slot key.
const ChangeChannel = "cart_slot_changed"

// DBPool matches the methods from *pgxpool.Pool that Postgres uses.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Postgres stores blobs in the cart_slots table created by the migrations in
// internal/db.
type Postgres struct {
	pool DBPool
}

func NewPostgres(pool DBPool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := p.pool.QueryRow(ctx, `SELECT blob FROM cart_slots WHERE slot_key=$1`, key).Scan(&blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, err
	}
	return blob, nil
}

func (p *Postgres) Put(ctx context.Context, key string, blob []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO cart_slots(slot_key, blob)
		VALUES($1, $2)
		ON CONFLICT (slot_key) DO UPDATE SET blob=EXCLUDED.blob, updated_at=now()
	`, key, blob)
	return err
}

const (
	listenRetryMin = time.Second
	listenRetryMax = 30 * time.Second
)

// PostgresFeed holds one pooled connection in LISTEN mode and reports the
// payload of every cart_slot_changed notification. A dropped connection is
// replaced with backoff until ctx is done.
type PostgresFeed struct {
	listen   func(ctx context.Context) (listener, error)
	retryMin time.Duration
	retryMax time.Duration
	log      zerolog.Logger
}

type listener interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close()
}

func NewPostgresFeed(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresFeed {
	return &PostgresFeed{
		listen:   func(ctx context.Context) (listener, error) { return listenOn(ctx, pool) },
		retryMin: listenRetryMin,
		retryMax: listenRetryMax,
		log:      logger,
	}
}

func (f *PostgresFeed) Changes(ctx context.Context) (<-chan string, error) {
	l, err := f.listen(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string, feedBuffer)
	go func() {
		defer close(out)
		for l != nil {
			f.forward(ctx, l, out)
			l.Close()
			l = f.relisten(ctx)
		}
	}()
	return out, nil
}

// forward copies notifications to out until the connection fails or ctx is
// done.
func (f *PostgresFeed) forward(ctx context.Context, l listener, out chan<- string) {
	for {
		n, err := l.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				f.log.Warn().Err(err).Msg("postgres notification wait failed")
			}
			return
		}
		select {
		case out <- n.Payload:
		case <-ctx.Done():
			return
		}
	}
}

// relisten returns a fresh listener, or nil once ctx is done.
func (f *PostgresFeed) relisten(ctx context.Context) listener {
	delay := f.retryMin
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		l, err := f.listen(ctx)
		if err == nil {
			f.log.Info().Msg("postgres notification feed reconnected")
			return l
		}
		if ctx.Err() != nil {
			return nil
		}
		f.log.Warn().Err(err).Dur("retry_in", delay).Msg("postgres listen failed")
		delay *= 2
		if delay > f.retryMax {
			delay = f.retryMax
		}
	}
}

type pooledListener struct {
	conn *pgxpool.Conn
}

func listenOn(ctx context.Context, pool *pgxpool.Pool) (listener, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", ChangeChannel, err)
	}
	return pooledListener{conn: conn}, nil
}

func (p pooledListener) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return p.conn.Conn().WaitForNotification(ctx)
}

// Close drops the connection rather than handing a LISTENing session back to
// the pool.
func (p pooledListener) Close() {
	_ = p.conn.Conn().Close(context.Background())
	p.conn.Release()
}
