package utils

import (
	"fmt"
	"strconv"
)

// ParseCoordinate parses a latitude or longitude value from a query string.
// Empty input is rejected so a missing viewport bound never silently reads
// as the equator or prime meridian.
func ParseCoordinate(raw string, min, max float64) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("missing coordinate")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", raw)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("coordinate %v outside [%v, %v]", v, min, max)
	}
	return v, nil
}
