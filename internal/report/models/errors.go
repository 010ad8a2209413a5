package models

import dErrors "canopy/pkg/domain-errors"

// Numeric error codes of the progress report store.
const (
	ErrCodeNotAuthorized  uint32 = 100
	ErrCodeReportExists   uint32 = 101 // reserved, no operation produces it
	ErrCodeReportNotFound uint32 = 102
	ErrCodeInvalidStatus  uint32 = 103
	ErrCodeInvalidValue   uint32 = 104
)

func ErrorCode(err error) uint32 {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotAuthorized:
		return ErrCodeNotAuthorized
	case dErrors.CodeAlreadyExists:
		return ErrCodeReportExists
	case dErrors.CodeNotFound:
		return ErrCodeReportNotFound
	case dErrors.CodeInvalidEnum:
		return ErrCodeInvalidStatus
	case dErrors.CodeInvalidValue:
		return ErrCodeInvalidValue
	default:
		return 0
	}
}
