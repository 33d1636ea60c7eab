package location

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"geocam/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const fixKey = "fix"

// Evaluator issues one-shot fixes with at most one request outstanding.
// Callers arriving while a request is in flight share its result.
type Evaluator struct {
	locator Locator
	timeout time.Duration

	group    singleflight.Group
	inFlight atomic.Bool
}

func NewEvaluator(l Locator, timeout time.Duration) *Evaluator {
	return &Evaluator{locator: l, timeout: timeout}
}

func (e *Evaluator) InFlight() bool {
	return e.inFlight.Load()
}

// RequestFix returns the current position. Every failure matches
// models.ErrLocationUnavailable.
func (e *Evaluator) RequestFix(ctx context.Context) (models.Coordinate, error) {
	if e.inFlight.Load() {
		log.Debug().Msg("joining outstanding fix")
	}

	ch := e.group.DoChan(fixKey, func() (any, error) {
		e.inFlight.Store(true)
		defer e.inFlight.Store(false)

		// Detached from the first caller so a joiner is not cut short by it.
		fixCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()

		start := time.Now()
		pos, err := e.locator.Locate(fixCtx)
		if err != nil {
			if !errors.Is(err, models.ErrLocationUnavailable) {
				err = unavailable("%s: %v", e.locator.Name(), err)
			}
			return models.Coordinate{}, err
		}

		log.Info().
			Str("source", e.locator.Name()).
			Str("position", pos.String()).
			Dur("took", time.Since(start)).
			Msg("position fix")

		return pos, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return models.Coordinate{}, res.Err
		}
		return res.Val.(models.Coordinate), nil
	case <-ctx.Done():
		return models.Coordinate{}, unavailable("%v", ctx.Err())
	}
}
