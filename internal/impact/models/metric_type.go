package models

import (
	"strconv"

	dErrors "canopy/pkg/domain-errors"
)

// MetricType is the kind of outcome a metric measures.
type MetricType uint32

const (
	MetricSpeciesCount        MetricType = 1
	MetricHabitatArea         MetricType = 2
	MetricThreatReduction     MetricType = 3
	MetricCommunityEngagement MetricType = 4
	MetricBiodiversityIndex   MetricType = 5
)

func (t MetricType) IsValid() bool {
	return t >= MetricSpeciesCount && t <= MetricBiodiversityIndex
}

func (t MetricType) String() string {
	switch t {
	case MetricSpeciesCount:
		return "species_count"
	case MetricHabitatArea:
		return "habitat_area"
	case MetricThreatReduction:
		return "threat_reduction"
	case MetricCommunityEngagement:
		return "community_engagement"
	case MetricBiodiversityIndex:
		return "biodiversity_index"
	default:
		return "unknown"
	}
}

// ParseMetricType accepts the numeric value used on the wire.
func ParseMetricType(s string) (MetricType, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid metric type")
	}
	t := MetricType(v)
	if err := t.Validate(); err != nil {
		return 0, err
	}
	return t, nil
}

func (t MetricType) Validate() error {
	if !t.IsValid() {
		return dErrors.New(dErrors.CodeInvalidEnum, "invalid metric type")
	}
	return nil
}
