package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"geocam/internal/models"
)

// RangePolicy decides what ParseTarget does with out-of-range degrees.
type RangePolicy int

const (
	// RangeAccept returns numeric values unchanged, even when nonsensical.
	RangeAccept RangePolicy = iota
	// RangeReject treats |lat| > 90 or |lon| > 180 as an invalid target.
	RangeReject
)

func (p RangePolicy) String() string {
	if p == RangeReject {
		return "reject"
	}
	return "accept"
}

func ParseRangePolicy(s string) (RangePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "accept":
		return RangeAccept, nil
	case "reject":
		return RangeReject, nil
	default:
		return RangeAccept, fmt.Errorf("unknown range policy %q", s)
	}
}

// ParseTarget parses "<lat>,<lon>".
func ParseTarget(text string, policy RangePolicy) (models.Coordinate, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return models.Coordinate{}, fmt.Errorf("%w: expected 2 fields, got %d", models.ErrInvalidTargetFormat, len(parts))
	}

	lat, err := parseDegrees(parts[0])
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: latitude %v", models.ErrInvalidTargetFormat, err)
	}

	lon, err := parseDegrees(parts[1])
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: longitude %v", models.ErrInvalidTargetFormat, err)
	}

	c := models.Coordinate{Lat: lat, Lon: lon}

	if policy == RangeReject && !c.InRange() {
		return models.Coordinate{}, fmt.Errorf("%w: %s out of range", models.ErrInvalidTargetFormat, c)
	}

	return c, nil
}

func parseDegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("is empty")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}

	return v, nil
}
