// Package domain holds the primitive types shared by every ledger store:
// record identifiers, caller identity, logical timestamps and media hashes.
//
// Parse functions are the trust boundary for values arriving from transport;
// they return dErrors with CodeBadRequest or CodeInvalidValue.
package domain

import (
	"encoding/hex"
	"strconv"
	"strings"

	dErrors "canopy/pkg/domain-errors"
)

// Record identifiers are dense, 1-based and local to the store that issued them.
type (
	ProjectID  uint64
	DonationID uint64
	ReportID   uint64
	MetricID   uint64
)

// Principal is an authenticated caller identity. It is opaque: compare by value only.
type Principal string

func (p Principal) IsZero() bool { return p == "" }

func (p Principal) String() string { return string(p) }

// Timestamp is a logical clock value supplied by the execution environment.
// It is monotonically non-decreasing but is not wall-clock time.
type Timestamp uint64

// MediaHashSize is the fixed length of a report media reference.
const MediaHashSize = 32

// MediaHash is an opaque reference to externally stored media.
type MediaHash [MediaHashSize]byte

func (h MediaHash) String() string { return hex.EncodeToString(h[:]) }

func (h MediaHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *MediaHash) UnmarshalText(text []byte) error {
	parsed, err := ParseMediaHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseMediaHash decodes a hex string of exactly MediaHashSize bytes.
func ParseMediaHash(s string) (MediaHash, error) {
	var h MediaHash
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return h, dErrors.New(dErrors.CodeInvalidValue, "media hash must be hex encoded")
	}
	if len(raw) != MediaHashSize {
		return h, dErrors.New(dErrors.CodeInvalidValue, "media hash must be exactly 32 bytes")
	}
	copy(h[:], raw)
	return h, nil
}

// MediaHashFromBytes copies raw into a MediaHash, rejecting any other length.
func MediaHashFromBytes(raw []byte) (MediaHash, error) {
	var h MediaHash
	if len(raw) != MediaHashSize {
		return h, dErrors.New(dErrors.CodeInvalidValue, "media hash must be exactly 32 bytes")
	}
	copy(h[:], raw)
	return h, nil
}

func ParseProjectID(s string) (ProjectID, error) {
	v, err := parseRecordID(s, "project")
	return ProjectID(v), err
}

func ParseDonationID(s string) (DonationID, error) {
	v, err := parseRecordID(s, "donation")
	return DonationID(v), err
}

func ParseReportID(s string) (ReportID, error) {
	v, err := parseRecordID(s, "report")
	return ReportID(v), err
}

func ParseMetricID(s string) (MetricID, error) {
	v, err := parseRecordID(s, "metric")
	return MetricID(v), err
}

// ParsePrincipal rejects the empty identity and otherwise keeps s byte for
// byte; surrounding whitespace is part of the identity.
func ParsePrincipal(s string) (Principal, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "caller identity is required")
	}
	return Principal(s), nil
}

func parseRecordID(s, kind string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+kind+" id")
	}
	if v == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, kind+" id must be positive")
	}
	return v, nil
}
