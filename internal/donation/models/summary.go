package models

// ProjectSummary aggregates every donation made to one project.
type ProjectSummary struct {
	TotalAmount int64  `json:"total_amount"`
	DonorCount  uint64 `json:"donor_count"`
}

// DonorSummary aggregates every donation made by one donor.
type DonorSummary struct {
	TotalAmount  int64  `json:"total_amount"`
	ProjectCount uint64 `json:"project_count"`
}
