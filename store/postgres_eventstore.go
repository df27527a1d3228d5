package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"transfer-ledger/events"
	"transfer-ledger/shared"
)

const eventsSchemaDDL = `
CREATE TABLE IF NOT EXISTS account_events (
    aggregate_id TEXT        NOT NULL,
    version      INTEGER     NOT NULL,
    event_id     UUID        NOT NULL UNIQUE,
    event_type   TEXT        NOT NULL,
    payload      JSONB       NOT NULL,
    occurred_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (aggregate_id, version)
);
`

const pgUniqueViolation = "23505"

// ConnectPostgres opens a pgx pool and checks the connection.
func ConnectPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return pool, nil
}

// PostgresEventStore keeps every account stream in one table. The
// (aggregate_id, version) key turns concurrent appends into ErrOptimisticLock.
type PostgresEventStore struct {
	pool *pgxpool.Pool
}

func NewPostgresEventStore(pool *pgxpool.Pool) *PostgresEventStore {
	return &PostgresEventStore{pool: pool}
}

func (s *PostgresEventStore) ApplySchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, eventsSchemaDDL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *PostgresEventStore) SaveEvents(ctx context.Context, aggregateID string, expectedVersion int, newEvents []events.Event) error {
	return s.SaveBatch(ctx, []StreamAppend{{AggregateID: aggregateID, ExpectedVersion: expectedVersion, Events: newEvents}})
}

func (s *PostgresEventStore) SaveBatch(ctx context.Context, batch []StreamAppend) error {
	if err := checkDistinct(batch); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range batch {
		if err := validateSequence(a); err != nil {
			return err
		}

		var currentVersion int
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(version), 0) FROM account_events WHERE aggregate_id = $1`,
			a.AggregateID).Scan(&currentVersion)
		if err != nil {
			return fmt.Errorf("failed to read version of aggregate %s: %w", a.AggregateID, err)
		}
		if currentVersion != a.ExpectedVersion {
			return fmt.Errorf("%w: expected version %d, but current version is %d for aggregate %s",
				ErrOptimisticLock, a.ExpectedVersion, currentVersion, a.AggregateID)
		}

		for _, event := range a.Events {
			name, payload, err := events.Encode(event)
			if err != nil {
				return err
			}
			base := event.GetBase()
			_, err = tx.Exec(ctx, `
				INSERT INTO account_events (aggregate_id, version, event_id, event_type, payload, occurred_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				base.AggregateID, base.Version, base.EventID.String(), string(name), payload, base.Timestamp)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: aggregate %s version %d already written", ErrOptimisticLock, base.AggregateID, base.Version)
				}
				return fmt.Errorf("failed to insert event %s: %w", base.EventID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrOptimisticLock, err)
		}
		return fmt.Errorf("failed to commit events: %w", err)
	}
	return nil
}

func (s *PostgresEventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.Event, error) {
	return s.GetEventsAfterVersion(ctx, aggregateID, 0)
}

func (s *PostgresEventStore) GetEventsAfterVersion(ctx context.Context, aggregateID string, version int) ([]events.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_type, payload FROM account_events WHERE aggregate_id = $1 AND version > $2 ORDER BY version ASC`,
		aggregateID, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for %s: %w", aggregateID, err)
	}
	defer rows.Close()

	stream := []events.Event{}
	for rows.Next() {
		var name string
		var payload []byte
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event row for %s: %w", aggregateID, err)
		}
		event, err := events.Decode(shared.MessageName(name), payload)
		if err != nil {
			return nil, err
		}
		stream = append(stream, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events for %s: %w", aggregateID, err)
	}
	return stream, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
