package guard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"canopy/pkg/domain"
	"canopy/pkg/platform/sentinel"
	txcontext "canopy/pkg/platform/tx"
)

// PostgresAdminStore persists admins in ledger_admins.
type PostgresAdminStore struct {
	db *sql.DB
}

func NewPostgresAdminStore(db *sql.DB) *PostgresAdminStore {
	return &PostgresAdminStore{db: db}
}

func (s *PostgresAdminStore) Init(ctx context.Context, subsystem string, admin domain.Principal) (domain.Principal, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	if _, err := exec.ExecContext(ctx, `
		INSERT INTO ledger_admins (subsystem, admin) VALUES ($1, $2)
		ON CONFLICT (subsystem) DO NOTHING
	`, subsystem, string(admin)); err != nil {
		return "", fmt.Errorf("init admin: %w", err)
	}
	return s.Get(ctx, subsystem)
}

func (s *PostgresAdminStore) Get(ctx context.Context, subsystem string) (domain.Principal, error) {
	var admin string
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT admin FROM ledger_admins WHERE subsystem = $1`, subsystem,
	).Scan(&admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("get admin: %w", err)
	}
	return domain.Principal(admin), nil
}

func (s *PostgresAdminStore) CompareAndSet(ctx context.Context, subsystem string, expected, next domain.Principal) (bool, error) {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE ledger_admins SET admin = $3, updated_at = now()
		WHERE subsystem = $1 AND admin = $2
	`, subsystem, string(expected), string(next))
	if err != nil {
		return false, fmt.Errorf("update admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update admin: %w", err)
	}
	return n == 1, nil
}
