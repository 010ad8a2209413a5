package models

import (
	"strings"
	"unicode/utf8"

	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
)

const MaxNameLength = 128 // characters, not bytes

// Project is the canonical record of a registered conservation project.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Coordinator is the registering caller and never changes
//   - RegistrationDate is immutable after construction
//   - Status may move between any two valid values
//
// EndDate >= StartDate is not enforced here; callers validate dates.
type Project struct {
	ID               domain.ProjectID `json:"id"`
	Name             string           `json:"name"`
	Location         string           `json:"location"`
	TargetSpecies    string           `json:"target_species"`
	Status           Status           `json:"status"`
	StartDate        domain.Timestamp `json:"start_date"`
	EndDate          domain.Timestamp `json:"end_date"`
	Coordinator      domain.Principal `json:"coordinator"`
	RegistrationDate domain.Timestamp `json:"registration_date"`
}

// Registration carries the caller-supplied fields of a new project.
type Registration struct {
	Name          string
	Location      string
	TargetSpecies string
	StartDate     domain.Timestamp
	EndDate       domain.Timestamp
}

// NewProject builds a Proposed project coordinated by caller. The id is
// assigned by the store.
func NewProject(coordinator domain.Principal, reg Registration, now domain.Timestamp) (*Project, error) {
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidValue, "project name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, dErrors.New(dErrors.CodeInvalidValue, "project name must be 128 characters or less")
	}
	return &Project{
		Name:             name,
		Location:         reg.Location,
		TargetSpecies:    reg.TargetSpecies,
		Status:           StatusProposed,
		StartDate:        reg.StartDate,
		EndDate:          reg.EndDate,
		Coordinator:      coordinator,
		RegistrationDate: now,
	}, nil
}

// CanSetStatus checks that next is a known status.
func (p *Project) CanSetStatus(next Status) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeInvalidEnum, "invalid project status")
	}
	return nil
}

// ApplyStatus sets the status. Call CanSetStatus first.
func (p *Project) ApplyStatus(next Status) {
	p.Status = next
}

func (p *Project) IsCoordinator(caller domain.Principal) bool {
	return !caller.IsZero() && p.Coordinator == caller
}
