package models

import (
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
)

// Report is a progress report filed against a project milestone. The media
// itself lives outside the ledger; only its hash is kept.
type Report struct {
	ID          domain.ReportID  `json:"id"`
	ProjectID   domain.ProjectID `json:"project_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Milestone   string           `json:"milestone"`
	Status      Status           `json:"status"`
	ReportDate  domain.Timestamp `json:"report_date"`
	Author      domain.Principal `json:"author"`
	MediaHash   domain.MediaHash `json:"media_hash"`
}

// Submission carries the caller-supplied fields of a new report.
type Submission struct {
	ProjectID   domain.ProjectID
	Title       string
	Description string
	Milestone   string
	Status      Status
	MediaHash   domain.MediaHash
}

// NewReport validates sub and stamps it with author and now.
func NewReport(author domain.Principal, sub Submission, now domain.Timestamp) (*Report, error) {
	if !sub.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidEnum, "invalid report status")
	}
	return &Report{
		ProjectID:   sub.ProjectID,
		Title:       sub.Title,
		Description: sub.Description,
		Milestone:   sub.Milestone,
		Status:      sub.Status,
		ReportDate:  now,
		Author:      author,
		MediaHash:   sub.MediaHash,
	}, nil
}

func (r *Report) CanSetStatus(next Status) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeInvalidEnum, "invalid report status")
	}
	return nil
}

func (r *Report) ApplyStatus(next Status) {
	r.Status = next
}

// ProjectSummary counts a project's reports and tracks the latest report date.
type ProjectSummary struct {
	ReportCount    uint64           `json:"report_count"`
	LastReportDate domain.Timestamp `json:"last_report_date"`
}

// Add folds a newly stored report into the summary. LastReportDate never
// moves backwards.
func (s ProjectSummary) Add(r *Report) ProjectSummary {
	s.ReportCount++
	if r.ReportDate > s.LastReportDate {
		s.LastReportDate = r.ReportDate
	}
	return s
}
