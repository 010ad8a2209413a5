package models

import (
	"canopy/pkg/domain"
	dErrors "canopy/pkg/domain-errors"
)

// Donation is a single contribution to a project.
//
// Invariants:
//   - Amount is strictly positive
//   - Donor and ProjectID never change after creation
//   - Status moves forward along Pending, Confirmed, Allocated; Refunded is
//     reachable from either non-terminal status; terminal statuses never change
type Donation struct {
	ID           domain.DonationID `json:"id"`
	ProjectID    domain.ProjectID  `json:"project_id"`
	Donor        domain.Principal  `json:"donor"`
	Amount       int64             `json:"amount"`
	DonationDate domain.Timestamp  `json:"donation_date"`
	Status       Status            `json:"status"`
	Notes        string            `json:"notes"`
}

// NewDonation builds a Pending donation. The id is assigned by the store.
func NewDonation(donor domain.Principal, projectID domain.ProjectID, amount int64, notes string, now domain.Timestamp) (*Donation, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidValue, "donation amount must be positive")
	}
	return &Donation{
		ProjectID:    projectID,
		Donor:        donor,
		Amount:       amount,
		DonationDate: now,
		Status:       StatusPending,
		Notes:        notes,
	}, nil
}

// CheckUpdatable rejects any status change on a processed donation and any
// unknown target status. Authorization sits between this and CanTransitionTo.
func (d *Donation) CheckUpdatable(next Status) error {
	if d.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeAlreadyProcessed, "donation already processed")
	}
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeInvalidEnum, "invalid donation status")
	}
	return nil
}

// CanTransitionTo checks the transition graph. Forward moves may skip a step;
// a move back towards Pending is rejected.
func (d *Donation) CanTransitionTo(next Status) error {
	if err := d.CheckUpdatable(next); err != nil {
		return err
	}
	if next == StatusRefunded || next >= d.Status {
		return nil
	}
	return dErrors.New(dErrors.CodeInvalidEnum, "donation status cannot move from "+d.Status.String()+" to "+next.String())
}

// ApplyStatus sets the status. Call CanTransitionTo first.
func (d *Donation) ApplyStatus(next Status) {
	d.Status = next
}
