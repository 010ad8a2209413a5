package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"canopy/internal/impact/models"
	"canopy/internal/platform/postgres"
	"canopy/pkg/domain"
	"canopy/pkg/platform/sentinel"
	txcontext "canopy/pkg/platform/tx"
)

const counterName = "metrics"

// PostgresStore persists impact metrics. Create must run inside a transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, m *models.Metric) (domain.MetricID, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)

	var id int64
	if err := exec.QueryRowContext(ctx,
		`UPDATE ledger_counters SET last_id = last_id + 1 WHERE store = $1 RETURNING last_id`,
		counterName,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate metric id: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO impact_metrics (id, project_id, metric_type, value, measurement_date, verifier, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		id,
		int64(m.ProjectID),
		int16(m.MetricType),
		m.Value,
		int64(m.MeasurementDate),
		string(m.Verifier),
		m.Notes,
	); err != nil {
		return 0, fmt.Errorf("insert metric: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO impact_metric_summaries (project_id, metric_type, count, total_value)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (project_id, metric_type) DO UPDATE SET
			count       = impact_metric_summaries.count + 1,
			total_value = impact_metric_summaries.total_value + EXCLUDED.total_value
	`, int64(m.ProjectID), int16(m.MetricType), m.Value); err != nil {
		if postgres.IsNumericOverflow(err) {
			return 0, fmt.Errorf("update metric summary: %w", sentinel.ErrOverflow)
		}
		return 0, fmt.Errorf("update metric summary: %w", err)
	}

	m.ID = domain.MetricID(id)
	return m.ID, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.MetricID) (*models.Metric, error) {
	var m models.Metric
	var rowID, projectID, measured int64
	var metricType int16
	var verifier string
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, project_id, metric_type, value, measurement_date, verifier, notes
		FROM impact_metrics WHERE id = $1
	`, int64(id)).Scan(&rowID, &projectID, &metricType, &m.Value, &measured, &verifier, &m.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find metric: %w", err)
	}
	m.ID = domain.MetricID(rowID)
	m.ProjectID = domain.ProjectID(projectID)
	m.MetricType = models.MetricType(metricType)
	m.MeasurementDate = domain.Timestamp(measured)
	m.Verifier = domain.Principal(verifier)
	return &m, nil
}

func (s *PostgresStore) Summary(ctx context.Context, projectID domain.ProjectID, metricType models.MetricType) (models.Summary, error) {
	var count, total int64
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT count, total_value FROM impact_metric_summaries
		WHERE project_id = $1 AND metric_type = $2
	`, int64(projectID), int16(metricType)).Scan(&count, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Summary{}, nil
		}
		return models.Summary{}, fmt.Errorf("load metric summary: %w", err)
	}
	return models.Summary{Count: uint64(count), TotalValue: total}, nil
}
