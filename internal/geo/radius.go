package geo

import "geocam/internal/models"

// RadiusKm is the fixed radius around the target.
const RadiusKm = 3.0

// Evaluate compares current against target. The boundary is inclusive.
func Evaluate(current, target models.Coordinate) (models.Verdict, float64) {
	d := DistanceKm(current, target)
	if d <= RadiusKm {
		return models.VerdictWithin, d
	}
	return models.VerdictOutside, d
}
