package models

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"time"

	"github.com/google/uuid"
)

const MIMEPNG = "image/png"

// CapturedImage is one still frame, PNG encoded at the stream's native size.
type CapturedImage struct {
	ID      uuid.UUID
	Width   int
	Height  int
	MIME    string
	Data    []byte
	TakenAt time.Time
}

// EncodePNG builds a CapturedImage from a frame.
func EncodePNG(img image.Image, takenAt time.Time) (*CapturedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	b := img.Bounds()

	return &CapturedImage{
		ID:      uuid.New(),
		Width:   b.Dx(),
		Height:  b.Dy(),
		MIME:    MIMEPNG,
		Data:    buf.Bytes(),
		TakenAt: takenAt,
	}, nil
}

func (ci *CapturedImage) DataURL() string {
	return "data:" + ci.MIME + ";base64," + base64.StdEncoding.EncodeToString(ci.Data)
}

func (ci *CapturedImage) Decode() (image.Image, error) {
	return png.Decode(bytes.NewReader(ci.Data))
}
