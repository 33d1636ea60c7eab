package location

import (
	"context"
	"fmt"

	"geocam/internal/config"
	"geocam/internal/models"
)

// Locator produces a one-shot position fix from some host capability.
type Locator interface {
	Name() string
	Locate(ctx context.Context) (models.Coordinate, error)
}

func NewLocator(c config.LocationConfig) (Locator, error) {
	switch c.Source {
	case config.LocationStatic:
		return NewStatic(models.Coordinate{Lat: c.StaticLat, Lon: c.StaticLon}), nil
	case config.LocationGPSD:
		return NewGPSD(c.GPSDAddr), nil
	case config.LocationNMEA:
		return NewNMEA(c.SerialPort, c.BaudRate), nil
	default:
		return nil, fmt.Errorf("unknown location source: %s", c.Source)
	}
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrLocationUnavailable, fmt.Sprintf(format, args...))
}
