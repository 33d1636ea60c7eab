package capture

import (
	"fmt"

	"geocam/internal/config"
)

func NewStreamer(c config.CameraConfig) (VideoStreamer, error) {
	switch c.Source {
	case config.CameraWebcam:
		s, err := NewFFmpegWebcam(c.Device, c.FPS, c.Width, c.Height)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.CameraFile:
		s, err := NewLocalStreamer(c.FilePath, c.FPS, c.Width, c.Height)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown camera source: %s", c.Source)
	}
}
