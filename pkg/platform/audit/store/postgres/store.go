package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"canopy/pkg/domain"
	audit "canopy/pkg/platform/audit"
	txcontext "canopy/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to audit_outbox and relayed to Kafka by the outbox worker.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes an audit event to the outbox table. When ctx carries a
// transaction the row commits or rolls back with it.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := audit.EncodePayload(event)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO audit_outbox (id, subsystem, action, actor, record_id, project_id, detail, request_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		event.ID,
		string(event.Subsystem),
		string(event.Action),
		string(event.Actor),
		int64(event.RecordID),
		int64(event.ProjectID),
		event.Detail,
		event.RequestID,
		string(payload),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subsystem, action, actor, record_id, project_id, detail, request_id, created_at
		FROM audit_outbox
		ORDER BY seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// Relay locks up to limit unpublished rows (skipping rows held by other relays),
// hands them to fn and marks them published in the same transaction.
func (s *Store) Relay(ctx context.Context, limit int, fn func(ctx context.Context, entries []audit.OutboxEntry) error) (n int, err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin relay tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	rows, err := sqlTx.QueryContext(ctx, `
		SELECT seq, payload, id, subsystem, action, actor, record_id, project_id, detail, request_id, created_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return 0, fmt.Errorf("select outbox batch: %w", err)
	}

	var (
		seqs    []int64
		entries []audit.OutboxEntry
	)
	for rows.Next() {
		var (
			seq     int64
			payload []byte
		)
		e, scanErr := scanEvent(rows, &seq, &payload)
		if scanErr != nil {
			rows.Close()
			return 0, scanErr
		}
		seqs = append(seqs, seq)
		entries = append(entries, audit.OutboxEntry{Event: e, Payload: payload})
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate outbox batch: %w", err)
	}
	if len(entries) == 0 {
		return 0, sqlTx.Commit()
	}

	if err = fn(ctx, entries); err != nil {
		return 0, err
	}
	if _, err = sqlTx.ExecContext(ctx,
		`UPDATE audit_outbox SET published_at = $1 WHERE seq = ANY($2)`,
		time.Now(), pq.Array(seqs),
	); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}
	if err = sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit relay tx: %w", err)
	}
	return len(entries), nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEvent reads the event columns, preceded by any extra leading destinations.
func scanEvent(row scanner, leading ...any) (audit.Event, error) {
	var (
		e         audit.Event
		subsystem string
		action    string
		actor     string
		recordID  int64
		projectID int64
	)
	dest := append(leading, &e.ID, &subsystem, &action, &actor, &recordID, &projectID, &e.Detail, &e.RequestID, &e.Timestamp)
	if err := row.Scan(dest...); err != nil {
		return audit.Event{}, fmt.Errorf("scan audit event: %w", err)
	}
	e.Subsystem = audit.Subsystem(subsystem)
	e.Action = audit.Action(action)
	e.Actor = domain.Principal(actor)
	e.RecordID = uint64(recordID)
	e.ProjectID = domain.ProjectID(projectID)
	return e, nil
}
