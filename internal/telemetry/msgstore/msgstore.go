// Package msgstore persists an audit trail of inbound and outbound MCB
// messages to Postgres, substituting for the reference implementation's
// SQLite-backed message_store.
package msgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Direction distinguishes inbound (MCB -> host) from outbound audit rows.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// Store is a Postgres-backed append-only log of serial messages.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and configures its connection pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("msgstore: open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("msgstore: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one audit row. typeID identifies the wire message type;
// payload is its raw encoded body.
func (s *Store) Record(ctx context.Context, direction Direction, typeID uint8, localTimestampMicros int64, payload []byte) error {
	const query = `INSERT INTO mcb_messages (direction, type_id, local_timestamp_us, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, query, string(direction), typeID, localTimestampMicros, payload, time.Now())
	if err != nil {
		return fmt.Errorf("msgstore: recording %s message type %d: %w", direction, typeID, err)
	}
	return nil
}

// CountByType returns how many audit rows of direction/typeID have been
// recorded, for diagnostics and tests.
func (s *Store) CountByType(ctx context.Context, direction Direction, typeID uint8) (int64, error) {
	const query = `SELECT COUNT(*) FROM mcb_messages WHERE direction = $1 AND type_id = $2`
	var count int64
	if err := s.db.QueryRowContext(ctx, query, string(direction), typeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("msgstore: counting %s messages type %d: %w", direction, typeID, err)
	}
	return count, nil
}

// Health verifies the connection is alive.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
