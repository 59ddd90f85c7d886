package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

// DefaultVersionPoll is how often the sqlite feed checks PRAGMA data_version.
const DefaultVersionPoll = 200 * time.Millisecond

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cart_slots (
	slot_key   TEXT PRIMARY KEY,
	blob       BLOB NOT NULL,
	rev        INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// OpenSQLite opens the database file at path and makes sure the cart_slots
// table exists. Pragmas travel in the DSN so every pooled connection gets
// them, including the one the change feed holds.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	pragmas := []string{
		"journal_mode(WAL)",
		"busy_timeout(5000)",
		"synchronous(NORMAL)",
	}
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	db, err := sql.Open("sqlite", path+sep+strings.Join(params, "&"))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cart_slots: %w", err)
	}
	return db, nil
}

// SQLite stores blobs in the cart_slots table. Every write bumps a table-wide
// revision so the feed can tell which keys moved since it last looked.
type SQLite struct {
	db       *sql.DB
	interval time.Duration
	log      zerolog.Logger
}

func NewSQLite(db *sql.DB, interval time.Duration, logger zerolog.Logger) *SQLite {
	if interval <= 0 {
		interval = DefaultVersionPoll
	}
	return &SQLite{db: db, interval: interval, log: logger}
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM cart_slots WHERE slot_key = ?`, key).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, err
	}
	return blob, nil
}

func (s *SQLite) Put(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_slots (slot_key, blob, rev, updated_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(rev), 0) + 1 FROM cart_slots), ?)
		ON CONFLICT (slot_key) DO UPDATE SET blob = excluded.blob, rev = excluded.rev, updated_at = excluded.updated_at
	`, key, blob, time.Now().UnixMilli())
	return err
}

// Changes polls PRAGMA data_version on a dedicated connection. The version
// only moves when another connection commits, so a poll that sees no change
// costs no table read.
func (s *SQLite) Changes(ctx context.Context) (<-chan string, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve feed connection: %w", err)
	}

	var version, rev int64
	if err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&version); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read data_version: %w", err)
	}
	if err := conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(rev), 0) FROM cart_slots").Scan(&rev); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read revision: %w", err)
	}

	out := make(chan string, feedBuffer)
	go func() {
		defer close(out)
		defer conn.Close()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			var v int64
			if err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
				if ctx.Err() == nil {
					s.log.Warn().Err(err).Msg("data_version poll failed")
				}
				continue
			}
			if v == version {
				continue
			}
			version = v

			keys, latest, err := changedSince(ctx, conn, rev)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn().Err(err).Msg("read changed slots failed")
				}
				continue
			}
			rev = latest
			for _, key := range keys {
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func changedSince(ctx context.Context, conn *sql.Conn, rev int64) ([]string, int64, error) {
	rows, err := conn.QueryContext(ctx, `SELECT slot_key, rev FROM cart_slots WHERE rev > ? ORDER BY rev`, rev)
	if err != nil {
		return nil, rev, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key, &rev); err != nil {
			return nil, rev, err
		}
		keys = append(keys, key)
	}
	return keys, rev, rows.Err()
}
