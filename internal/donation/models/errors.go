package models

import dErrors "canopy/pkg/domain-errors"

// Numeric error codes of the donation ledger.
const (
	ErrCodeNotAuthorized     uint32 = 100
	ErrCodeDonationNotFound  uint32 = 101
	ErrCodeInsufficientFunds uint32 = 102
	ErrCodeAlreadyProcessed  uint32 = 103
	ErrCodeInvalidStatus     uint32 = 104
	ErrCodeNotProjectOwner   uint32 = 105 // reserved, authorization failures use 100
)

// ErrorCode maps a domain error to the ledger's numeric code, or 0.
//
// InvalidValue covers both non-positive amounts and aggregate overflow;
// both mean the donation cannot be accepted as funded.
func ErrorCode(err error) uint32 {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotAuthorized:
		return ErrCodeNotAuthorized
	case dErrors.CodeNotFound:
		return ErrCodeDonationNotFound
	case dErrors.CodeInvalidValue:
		return ErrCodeInsufficientFunds
	case dErrors.CodeAlreadyProcessed:
		return ErrCodeAlreadyProcessed
	case dErrors.CodeInvalidEnum:
		return ErrCodeInvalidStatus
	default:
		return 0
	}
}
