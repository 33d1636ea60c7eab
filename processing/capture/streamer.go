package capture

import (
	"image"
)

// VideoStreamer delivers raw RGBA frames from one video source.
type VideoStreamer interface {
	Start() error
	Stop()
	FrameChan() <-chan image.Image
	ErrorChan() <-chan error
	Size() image.Point
}
