package models

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinate_String(t *testing.T) {
	c := Coordinate{Lat: 37.7749, Lon: -122.4194}
	assert.Equal(t, "37.774900, -122.419400", c.String())
}

func TestCoordinate_InRange(t *testing.T) {
	assert.True(t, Coordinate{Lat: 90, Lon: -180}.InRange())
	assert.False(t, Coordinate{Lat: 90.0001, Lon: 0}.InRange())
	assert.False(t, Coordinate{Lat: 0, Lon: 181}.InRange())
}

func TestVerdict(t *testing.T) {
	var v Verdict
	assert.False(t, v.Known())
	assert.Equal(t, "unknown", v.String())

	assert.True(t, VerdictWithin.Known())
	assert.True(t, VerdictWithin.Within())
	assert.False(t, VerdictOutside.Within())
	assert.Equal(t, "outside", VerdictOutside.String())
}

func TestEncodePNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(1, 1, color.RGBA{R: 200, A: 255})

	now := time.Now()
	ci, err := EncodePNG(src, now)
	require.NoError(t, err)

	assert.Equal(t, 4, ci.Width)
	assert.Equal(t, 3, ci.Height)
	assert.Equal(t, MIMEPNG, ci.MIME)
	assert.Equal(t, now, ci.TakenAt)
	assert.True(t, strings.HasPrefix(ci.DataURL(), "data:image/png;base64,"))

	decoded, err := ci.Decode()
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), decoded.Bounds())

	r, _, _, _ := decoded.At(1, 1).RGBA()
	assert.Equal(t, uint32(200)<<8|200, r)
}
