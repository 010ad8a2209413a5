package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"canopy/internal/report/models"
	"canopy/pkg/domain"
	txcontext "canopy/pkg/platform/tx"
)

const counterName = "reports"

// PostgresStore persists reports. Create must run inside a transaction so the
// report and its summary row commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.Report) (domain.ReportID, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)

	var id int64
	if err := exec.QueryRowContext(ctx,
		`UPDATE ledger_counters SET last_id = last_id + 1 WHERE store = $1 RETURNING last_id`,
		counterName,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate report id: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO reports (id, project_id, title, description, milestone, status, report_date, author, media_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id,
		int64(r.ProjectID),
		r.Title,
		r.Description,
		r.Milestone,
		int16(r.Status),
		int64(r.ReportDate),
		string(r.Author),
		r.MediaHash[:],
	); err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO report_project_summaries (project_id, report_count, last_report_date)
		VALUES ($1, 1, $2)
		ON CONFLICT (project_id) DO UPDATE SET
			report_count     = report_project_summaries.report_count + 1,
			last_report_date = GREATEST(report_project_summaries.last_report_date, EXCLUDED.last_report_date)
	`, int64(r.ProjectID), int64(r.ReportDate)); err != nil {
		return 0, fmt.Errorf("update report summary: %w", err)
	}

	r.ID = domain.ReportID(id)
	return r.ID, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ReportID) (*models.Report, error) {
	return s.find(ctx, id, "")
}

// FindByIDForUpdate locks the report row until the surrounding transaction
// ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.ReportID) (*models.Report, error) {
	if _, ok := txcontext.From(ctx); !ok {
		return nil, errors.New("find report for update: transaction required")
	}
	return s.find(ctx, id, " FOR UPDATE")
}

func (s *PostgresStore) find(ctx context.Context, id domain.ReportID, lock string) (*models.Report, error) {
	var r models.Report
	var rowID, projectID, reportDate int64
	var status int16
	var author string
	var mediaHash []byte
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, project_id, title, description, milestone, status, report_date, author, media_hash
		FROM reports WHERE id = $1`+lock,
		int64(id),
	).Scan(&rowID, &projectID, &r.Title, &r.Description, &r.Milestone, &status, &reportDate, &author, &mediaHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	hash, err := domain.MediaHashFromBytes(mediaHash)
	if err != nil {
		return nil, fmt.Errorf("decode media hash of report %d: %w", rowID, err)
	}
	r.ID = domain.ReportID(rowID)
	r.ProjectID = domain.ProjectID(projectID)
	r.Status = models.Status(status)
	r.ReportDate = domain.Timestamp(reportDate)
	r.Author = domain.Principal(author)
	r.MediaHash = hash
	return &r, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id domain.ReportID, status models.Status) error {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`UPDATE reports SET status = $2 WHERE id = $1`, int64(id), int16(status))
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ProjectSummary(ctx context.Context, projectID domain.ProjectID) (models.ProjectSummary, error) {
	var count, lastDate int64
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT report_count, last_report_date FROM report_project_summaries WHERE project_id = $1`,
		int64(projectID),
	).Scan(&count, &lastDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ProjectSummary{}, nil
		}
		return models.ProjectSummary{}, fmt.Errorf("load report summary: %w", err)
	}
	return models.ProjectSummary{
		ReportCount:    uint64(count),
		LastReportDate: domain.Timestamp(lastDate),
	}, nil
}
