package location

import (
	"context"

	"geocam/internal/models"
)

// Static reports a fixed position, for hosts without a receiver.
type Static struct {
	pos models.Coordinate
}

func NewStatic(pos models.Coordinate) *Static {
	return &Static{pos: pos}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Locate(ctx context.Context) (models.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinate{}, unavailable("%v", err)
	}
	return s.pos, nil
}
