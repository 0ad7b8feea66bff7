package sql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/viant/roundtrip/internal/idgen"
	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/service/eventstore"
)

const (
	createRoundTrips = `CREATE TABLE IF NOT EXISTS roundtrips (
		batch_id TEXT NOT NULL,
		round_trip INTEGER NOT NULL,
		PRIMARY KEY (batch_id, round_trip)
	)`

	createEvents = `CREATE TABLE IF NOT EXISTS roundtrip_events (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		round_trip INTEGER NOT NULL,
		position INTEGER NOT NULL,
		event_id TEXT NOT NULL,
		actor TEXT NOT NULL,
		event_time TEXT NOT NULL,
		details TEXT NOT NULL,
		success BOOLEAN NOT NULL
	)`

	// Concurrent appenders computing the same position fail on this index.
	createEventPosition = `CREATE UNIQUE INDEX IF NOT EXISTS roundtrip_events_position
		ON roundtrip_events (batch_id, round_trip, position)`

	insertRoundTrip = `INSERT INTO roundtrips (batch_id, round_trip) VALUES (?, ?) ON CONFLICT DO NOTHING`

	selectPosition = `SELECT COALESCE(MAX(position), 0) FROM roundtrip_events WHERE batch_id = ? AND round_trip = ?`

	insertEvent = `INSERT INTO roundtrip_events (id, batch_id, round_trip, position, event_id, actor, event_time, details, success) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectHistory = `SELECT r.round_trip, e.event_id, e.actor, e.event_time, e.details, e.success
		FROM roundtrips r
		LEFT JOIN roundtrip_events e ON e.batch_id = r.batch_id AND e.round_trip = r.round_trip
		WHERE r.batch_id = ?
		ORDER BY r.round_trip, e.position`

	selectBatchIDs = `SELECT DISTINCT batch_id FROM roundtrips ORDER BY batch_id`
)

// Service implements eventstore.Storage on database/sql.
type Service struct {
	db      *sql.DB
	dialect Dialect
}

var _ eventstore.Storage = (*Service)(nil)

// New wraps db and creates the schema when missing.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Service, error) {
	s := &Service{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Open opens a connection for the dialect and wraps it.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Service, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s event store: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}
	ret, err := New(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return ret, nil
}

func (s *Service) migrate(ctx context.Context) error {
	for _, stmt := range []string{createRoundTrips, createEvents, createEventPosition} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate event store: %w", err)
		}
	}
	return nil
}

// AllRoundTrips returns every round trip of batchID ascending with events in append order.
func (s *Service) AllRoundTrips(ctx context.Context, batchID string) ([]*model.Batch, error) {
	if err := eventstore.ValidateRoundTrip(batchID, 0); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(selectHistory), batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query round trips of batch %s: %w", batchID, err)
	}
	defer func() { _ = rows.Close() }()

	ret := []*model.Batch{}
	var current *model.Batch
	for rows.Next() {
		var (
			roundTrip int
			eventID   sql.NullString
			actor     sql.NullString
			eventTime sql.NullString
			details   sql.NullString
			success   sql.NullBool
		)
		if err = rows.Scan(&roundTrip, &eventID, &actor, &eventTime, &details, &success); err != nil {
			return nil, fmt.Errorf("failed to scan round trip of batch %s: %w", batchID, err)
		}
		if current == nil || current.RoundTripNumber != roundTrip {
			current = model.NewBatch(batchID, roundTrip)
			ret = append(ret, current)
		}
		if !eventID.Valid {
			continue
		}
		timestamp, err := time.Parse(time.RFC3339Nano, eventTime.String)
		if err != nil {
			return nil, fmt.Errorf("invalid event time %q on %s: %w", eventTime.String, current.FullID(), err)
		}
		current.Events = append(current.Events, model.NewEvent(eventID.String, actor.String, timestamp, details.String, success.Bool))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read round trips of batch %s: %w", batchID, err)
	}
	return ret, nil
}

// AddEvent registers the round trip if needed and appends event in one transaction.
func (s *Service) AddEvent(ctx context.Context, batchID string, roundTrip int, event *model.Event) (err error) {
	if err = eventstore.ValidateAppend(batchID, roundTrip, event); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, s.dialect.Rebind(insertRoundTrip), batchID, roundTrip); err != nil {
		return fmt.Errorf("failed to register %s: %w", model.FullID(batchID, roundTrip), err)
	}
	var position int
	if err = tx.QueryRowContext(ctx, s.dialect.Rebind(selectPosition), batchID, roundTrip).Scan(&position); err != nil {
		return fmt.Errorf("failed to read event position of %s: %w", model.FullID(batchID, roundTrip), err)
	}
	timestamp := event.Timestamp.UTC().Format(time.RFC3339Nano)
	if _, err = tx.ExecContext(ctx, s.dialect.Rebind(insertEvent),
		idgen.New(), batchID, roundTrip, position+1, event.ID, event.Actor, timestamp, event.Details, event.Success); err != nil {
		return fmt.Errorf("failed to insert event %s on %s: %w", event.ID, model.FullID(batchID, roundTrip), err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event %s on %s: %w", event.ID, model.FullID(batchID, roundTrip), err)
	}
	return nil
}

// AddRoundTrip registers a round trip without events.
func (s *Service) AddRoundTrip(ctx context.Context, batchID string, roundTrip int) error {
	if err := eventstore.ValidateRoundTrip(batchID, roundTrip); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(insertRoundTrip), batchID, roundTrip); err != nil {
		return fmt.Errorf("failed to register %s: %w", model.FullID(batchID, roundTrip), err)
	}
	return nil
}

// BatchIDs lists the known batch ids ascending.
func (s *Service) BatchIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectBatchIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch ids: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var ret []string
	for rows.Next() {
		var batchID string
		if err = rows.Scan(&batchID); err != nil {
			return nil, err
		}
		ret = append(ret, batchID)
	}
	return ret, rows.Err()
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}
