package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"canopy/internal/project/models"
	"canopy/pkg/domain"
	txcontext "canopy/pkg/platform/tx"
)

const counterName = "projects"

// PostgresStore persists projects in PostgreSQL. Create must run inside a
// transaction carried by ctx: the counter row lock it takes serialises id
// allocation until commit, which keeps ids dense.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Project) (domain.ProjectID, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)

	var id int64
	if err := exec.QueryRowContext(ctx,
		`UPDATE ledger_counters SET last_id = last_id + 1 WHERE store = $1 RETURNING last_id`,
		counterName,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate project id: %w", err)
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO projects (id, name, location, target_species, status, start_date, end_date, coordinator, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id,
		p.Name,
		p.Location,
		p.TargetSpecies,
		int16(p.Status),
		int64(p.StartDate),
		int64(p.EndDate),
		string(p.Coordinator),
		int64(p.RegistrationDate),
	)
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	p.ID = domain.ProjectID(id)
	return p.ID, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ProjectID) (*models.Project, error) {
	return s.find(ctx, id, "")
}

// FindByIDForUpdate locks the project row until the surrounding transaction
// ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.ProjectID) (*models.Project, error) {
	if _, ok := txcontext.From(ctx); !ok {
		return nil, errors.New("find project for update: transaction required")
	}
	return s.find(ctx, id, " FOR UPDATE")
}

func (s *PostgresStore) find(ctx context.Context, id domain.ProjectID, lock string) (*models.Project, error) {
	var p models.Project
	var rowID, startDate, endDate, regDate int64
	var status int16
	var coordinator string
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, location, target_species, status, start_date, end_date, coordinator, registration_date
		FROM projects WHERE id = $1`+lock,
		int64(id),
	).Scan(&rowID, &p.Name, &p.Location, &p.TargetSpecies, &status, &startDate, &endDate, &coordinator, &regDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	p.ID = domain.ProjectID(rowID)
	p.Status = models.Status(status)
	p.StartDate = domain.Timestamp(startDate)
	p.EndDate = domain.Timestamp(endDate)
	p.Coordinator = domain.Principal(coordinator)
	p.RegistrationDate = domain.Timestamp(regDate)
	return &p, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id domain.ProjectID, status models.Status) error {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`UPDATE projects SET status = $2 WHERE id = $1`, int64(id), int16(status))
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var n int64
	if err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return uint64(n), nil
}
