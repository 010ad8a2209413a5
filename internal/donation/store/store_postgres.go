package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"canopy/internal/donation/models"
	"canopy/internal/platform/postgres"
	"canopy/pkg/domain"
	"canopy/pkg/platform/sentinel"
	txcontext "canopy/pkg/platform/tx"
)

const counterName = "donations"

// PostgresStore persists donations and their summaries. Create must run
// inside a transaction carried by ctx so the record, the distinct-pair row
// and both summary upserts commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, d *models.Donation) (domain.DonationID, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)

	var id int64
	if err := exec.QueryRowContext(ctx,
		`UPDATE ledger_counters SET last_id = last_id + 1 WHERE store = $1 RETURNING last_id`,
		counterName,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate donation id: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO donations (id, project_id, donor, amount, donation_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		id,
		int64(d.ProjectID),
		string(d.Donor),
		d.Amount,
		int64(d.DonationDate),
		int16(d.Status),
		d.Notes,
	); err != nil {
		return 0, fmt.Errorf("insert donation: %w", err)
	}

	res, err := exec.ExecContext(ctx, `
		INSERT INTO donation_pairs (project_id, donor) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, int64(d.ProjectID), string(d.Donor))
	if err != nil {
		return 0, fmt.Errorf("record donor pair: %w", err)
	}
	firstPair, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("record donor pair: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO donation_project_summaries (project_id, total_amount, donor_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id) DO UPDATE SET
			total_amount = donation_project_summaries.total_amount + EXCLUDED.total_amount,
			donor_count  = donation_project_summaries.donor_count + EXCLUDED.donor_count
	`, int64(d.ProjectID), d.Amount, firstPair); err != nil {
		return 0, summaryError("update project summary", err)
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO donation_donor_summaries (donor, total_amount, project_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (donor) DO UPDATE SET
			total_amount  = donation_donor_summaries.total_amount + EXCLUDED.total_amount,
			project_count = donation_donor_summaries.project_count + EXCLUDED.project_count
	`, string(d.Donor), d.Amount, firstPair); err != nil {
		return 0, summaryError("update donor summary", err)
	}

	d.ID = domain.DonationID(id)
	return d.ID, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DonationID) (*models.Donation, error) {
	return s.find(ctx, id, "")
}

// FindByIDForUpdate locks the donation row until the surrounding
// transaction ends, so a concurrent status update waits and then sees the
// committed status.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.DonationID) (*models.Donation, error) {
	if _, ok := txcontext.From(ctx); !ok {
		return nil, errors.New("find donation for update: transaction required")
	}
	return s.find(ctx, id, " FOR UPDATE")
}

func (s *PostgresStore) find(ctx context.Context, id domain.DonationID, lock string) (*models.Donation, error) {
	var d models.Donation
	var rowID, projectID, donationDate int64
	var status int16
	var donor string
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, project_id, donor, amount, donation_date, status, notes
		FROM donations WHERE id = $1`+lock,
		int64(id),
	).Scan(&rowID, &projectID, &donor, &d.Amount, &donationDate, &status, &d.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find donation: %w", err)
	}
	d.ID = domain.DonationID(rowID)
	d.ProjectID = domain.ProjectID(projectID)
	d.Donor = domain.Principal(donor)
	d.DonationDate = domain.Timestamp(donationDate)
	d.Status = models.Status(status)
	return &d, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id domain.DonationID, status models.Status) error {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`UPDATE donations SET status = $2 WHERE id = $1`, int64(id), int16(status))
	if err != nil {
		return fmt.Errorf("update donation status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donation status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ProjectSummary(ctx context.Context, projectID domain.ProjectID) (models.ProjectSummary, error) {
	var summary models.ProjectSummary
	var donorCount int64
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT total_amount, donor_count FROM donation_project_summaries WHERE project_id = $1`,
		int64(projectID),
	).Scan(&summary.TotalAmount, &donorCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ProjectSummary{}, nil
		}
		return models.ProjectSummary{}, fmt.Errorf("load project summary: %w", err)
	}
	summary.DonorCount = uint64(donorCount)
	return summary, nil
}

func (s *PostgresStore) DonorSummary(ctx context.Context, donor domain.Principal) (models.DonorSummary, error) {
	var summary models.DonorSummary
	var projectCount int64
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT total_amount, project_count FROM donation_donor_summaries WHERE donor = $1`,
		string(donor),
	).Scan(&summary.TotalAmount, &projectCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DonorSummary{}, nil
		}
		return models.DonorSummary{}, fmt.Errorf("load donor summary: %w", err)
	}
	summary.ProjectCount = uint64(projectCount)
	return summary, nil
}

func summaryError(op string, err error) error {
	if postgres.IsNumericOverflow(err) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrOverflow)
	}
	return fmt.Errorf("%s: %w", op, err)
}
