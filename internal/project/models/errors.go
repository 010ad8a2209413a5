package models

import dErrors "canopy/pkg/domain-errors"

// Numeric error codes of the project registry.
const (
	ErrCodeNotAuthorized   uint32 = 100
	ErrCodeProjectExists   uint32 = 101 // reserved, no operation produces it
	ErrCodeProjectNotFound uint32 = 102
	ErrCodeInvalidStatus   uint32 = 103
	ErrCodeInvalidValue    uint32 = 104
)

// ErrorCode maps a domain error to the registry's numeric code, or 0.
func ErrorCode(err error) uint32 {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotAuthorized:
		return ErrCodeNotAuthorized
	case dErrors.CodeAlreadyExists:
		return ErrCodeProjectExists
	case dErrors.CodeNotFound:
		return ErrCodeProjectNotFound
	case dErrors.CodeInvalidEnum:
		return ErrCodeInvalidStatus
	case dErrors.CodeInvalidValue:
		return ErrCodeInvalidValue
	default:
		return 0
	}
}
