package geo

import (
	"math"
	"testing"

	"geocam/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sanFrancisco = models.Coordinate{Lat: 37.7749, Lon: -122.4194}
	newYork      = models.Coordinate{Lat: 40.7128, Lon: -74.0060}
)

func TestDistanceKm_Symmetric(t *testing.T) {
	points := []models.Coordinate{
		sanFrancisco,
		newYork,
		{Lat: 0, Lon: 0},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 89.9, Lon: 179.9},
		{Lat: -89.9, Lon: -179.9},
	}

	for _, a := range points {
		for _, b := range points {
			assert.Equal(t, DistanceKm(a, b), DistanceKm(b, a), "%s <-> %s", a, b)
		}
	}
}

func TestDistanceKm_SelfIsZero(t *testing.T) {
	for _, a := range []models.Coordinate{sanFrancisco, newYork, {}, {Lat: 90, Lon: 180}} {
		assert.Zero(t, DistanceKm(a, a))
	}
}

func TestDistanceKm_KnownValues(t *testing.T) {
	assert.InDelta(t, 4129, DistanceKm(sanFrancisco, newYork), 2)

	near := models.Coordinate{Lat: 37.7750, Lon: -122.4195}
	assert.Less(t, DistanceKm(sanFrancisco, near), 0.1)

	// One degree of latitude on the sphere.
	oneDeg := DistanceKm(models.Coordinate{}, models.Coordinate{Lat: 1})
	assert.InDelta(t, EarthRadiusKm*math.Pi/180, oneDeg, 1e-9)
}

func TestEvaluate(t *testing.T) {
	v, d := Evaluate(sanFrancisco, models.Coordinate{Lat: 37.7750, Lon: -122.4195})
	assert.Equal(t, models.VerdictWithin, v)
	assert.Less(t, d, 0.1)

	v, d = Evaluate(sanFrancisco, newYork)
	assert.Equal(t, models.VerdictOutside, v)
	assert.Greater(t, d, RadiusKm)
}

func TestEvaluate_BoundaryInclusive(t *testing.T) {
	origin := models.Coordinate{}
	kmPerDeg := EarthRadiusKm * math.Pi / 180

	for km := 2.99; km <= 3.01; km += 0.0005 {
		target := models.Coordinate{Lat: km / kmPerDeg}
		v, d := Evaluate(origin, target)

		if d <= RadiusKm {
			assert.Equal(t, models.VerdictWithin, v, "distance %v", d)
		} else {
			assert.Equal(t, models.VerdictOutside, v, "distance %v", d)
		}
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		policy   RangePolicy
		expected models.Coordinate
		wantErr  bool
	}{
		{name: "valid", input: "37.7749,-122.4194", expected: sanFrancisco},
		{name: "spaces around fields", input: " 40.7128 , -74.0060 ", expected: newYork},
		{name: "integers", input: "10,20", expected: models.Coordinate{Lat: 10, Lon: 20}},
		{name: "non numeric latitude", input: "abc,123", wantErr: true},
		{name: "non numeric longitude", input: "12,abc", wantErr: true},
		{name: "single field", input: "37.7749", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "empty second field", input: "37.7749,", wantErr: true},
		{name: "extra field", input: "1,2,3", wantErr: true},
		{name: "nan", input: "NaN,1", wantErr: true},
		{name: "infinity", input: "1,Inf", wantErr: true},
		{name: "out of range accepted", input: "120,500", policy: RangeAccept, expected: models.Coordinate{Lat: 120, Lon: 500}},
		{name: "out of range rejected", input: "120,500", policy: RangeReject, wantErr: true},
		{name: "edge of range kept", input: "-90,180", policy: RangeReject, expected: models.Coordinate{Lat: -90, Lon: 180}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.input, tt.policy)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrInvalidTargetFormat)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseRangePolicy(t *testing.T) {
	p, err := ParseRangePolicy("")
	require.NoError(t, err)
	assert.Equal(t, RangeAccept, p)

	p, err = ParseRangePolicy("Reject")
	require.NoError(t, err)
	assert.Equal(t, RangeReject, p)

	_, err = ParseRangePolicy("clamp")
	assert.Error(t, err)
}
