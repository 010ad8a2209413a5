package models

import (
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
)

// Metric is one verified measurement. Metrics of the same type accumulate as
// a time series; none is ever replaced.
type Metric struct {
	ID              domain.MetricID  `json:"id"`
	ProjectID       domain.ProjectID `json:"project_id"`
	MetricType      MetricType       `json:"metric_type"`
	Value           int64            `json:"value"`
	MeasurementDate domain.Timestamp `json:"measurement_date"`
	Verifier        domain.Principal `json:"verifier"`
	Notes           string           `json:"notes"`
}

func NewMetric(verifier domain.Principal, projectID domain.ProjectID, metricType MetricType, value int64, notes string, now domain.Timestamp) (*Metric, error) {
	if err := metricType.Validate(); err != nil {
		return nil, err
	}
	if value < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidValue, "metric value cannot be negative")
	}
	return &Metric{
		ProjectID:       projectID,
		MetricType:      metricType,
		Value:           value,
		MeasurementDate: now,
		Verifier:        verifier,
		Notes:           notes,
	}, nil
}

// Summary aggregates every metric of one type recorded for one project.
type Summary struct {
	Count      uint64 `json:"count"`
	TotalValue int64  `json:"total_value"`
}

// Average is TotalValue / Count rounded toward zero. It fails with NoData
// when nothing has been recorded.
func (s Summary) Average() (int64, error) {
	if s.Count == 0 {
		return 0, dErrors.New(dErrors.CodeNoData, "no metrics recorded")
	}
	return s.TotalValue / int64(s.Count), nil
}
