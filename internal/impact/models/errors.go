package models

import dErrors "canopy/pkg/domain-errors"

// Numeric error codes of the impact metric store.
const (
	ErrCodeNotAuthorized     uint32 = 100
	ErrCodeMetricExists      uint32 = 101 // reserved, no operation produces it
	ErrCodeMetricNotFound    uint32 = 102
	ErrCodeInvalidMetricType uint32 = 103
	ErrCodeInvalidValue      uint32 = 104
	ErrCodeNoData            uint32 = 105
)

func ErrorCode(err error) uint32 {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotAuthorized:
		return ErrCodeNotAuthorized
	case dErrors.CodeAlreadyExists:
		return ErrCodeMetricExists
	case dErrors.CodeNotFound:
		return ErrCodeMetricNotFound
	case dErrors.CodeInvalidEnum:
		return ErrCodeInvalidMetricType
	case dErrors.CodeInvalidValue:
		return ErrCodeInvalidValue
	case dErrors.CodeNoData:
		return ErrCodeNoData
	default:
		return 0
	}
}
