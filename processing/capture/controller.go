package capture

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"geocam/internal/config"
	"geocam/internal/models"

	"github.com/rs/zerolog/log"
)

// Factory builds a streamer for the given camera settings.
type Factory func(config.CameraConfig) (VideoStreamer, error)

// Controller owns the camera stream for the session. It keeps the most recent
// frame for CaptureFrame and forwards frames to the preview.
type Controller struct {
	cfg         *config.Config
	newStreamer Factory
	now         func() time.Time

	startMu sync.Mutex

	mu        sync.RWMutex
	streamer  VideoStreamer
	stopChan  chan struct{}
	doneChan  chan struct{}
	lastFrame image.Image
	fps       uint
	active    bool

	preview chan image.Image
	errChan chan error
}

func NewController(cfg *config.Config, factory Factory) *Controller {
	if factory == nil {
		factory = NewStreamer
	}

	return &Controller{
		cfg:         cfg,
		newStreamer: factory,
		now:         time.Now,
		preview:     make(chan image.Image, 1),
		errChan:     make(chan error, 1),
	}
}

// StartCapture binds a fresh stream, releasing any previous one first. It
// returns once the first frame arrives, which is when the device has actually
// granted access.
func (c *Controller) StartCapture(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.Close()

	select {
	case <-c.errChan:
	default:
	}

	camera := c.cfg.CameraSnapshot()

	s, err := c.newStreamer(camera)
	if err != nil {
		return err
	}

	if err := s.Start(); err != nil {
		s.Stop()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, camera.StartTimeout)
	defer cancel()

	var first image.Image

	select {
	case frame, ok := <-s.FrameChan():
		if !ok {
			s.Stop()
			return streamEnded(s)
		}
		first = frame

	case err, ok := <-s.ErrorChan():
		s.Stop()
		if !ok || err == nil {
			return streamEnded(s)
		}
		return err

	case <-ctx.Done():
		s.Stop()
		return fmt.Errorf("%w: no frame from camera: %v", models.ErrDeviceUnavailable, ctx.Err())
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	c.mu.Lock()
	c.streamer = s
	c.stopChan = stop
	c.doneChan = done
	c.lastFrame = first
	c.active = true
	c.mu.Unlock()

	c.offerPreview(first)

	size := s.Size()
	log.Info().
		Str("source", string(camera.Source)).
		Int("width", size.X).
		Int("height", size.Y).
		Msg("camera stream started")

	go c.pump(s, stop, done)

	return nil
}

func streamEnded(s VideoStreamer) error {
	select {
	case err, ok := <-s.ErrorChan():
		if ok && err != nil {
			return err
		}
	default:
	}
	return fmt.Errorf("%w: camera stream ended", models.ErrDeviceUnavailable)
}

func (c *Controller) pump(s VideoStreamer, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var frameCount uint
	lastFpsUpdate := c.now()
	errs := s.ErrorChan()

	for {
		select {
		case frame, ok := <-s.FrameChan():
			if !ok {
				c.fail(stop, streamEnded(s))
				return
			}
			if frame == nil {
				continue
			}

			c.mu.Lock()
			c.lastFrame = frame
			c.mu.Unlock()

			c.offerPreview(frame)

			frameCount++
			if elapsed := c.now().Sub(lastFpsUpdate); elapsed >= time.Second {
				c.mu.Lock()
				c.fps = uint(float64(frameCount) / elapsed.Seconds())
				c.mu.Unlock()
				frameCount = 0
				lastFpsUpdate = c.now()
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.fail(stop, err)
			return

		case <-stop:
			return
		}
	}
}

// fail marks the stream dead unless it is being stopped on purpose.
func (c *Controller) fail(stop <-chan struct{}, err error) {
	select {
	case <-stop:
		return
	default:
	}

	c.mu.Lock()
	c.active = false
	c.lastFrame = nil
	c.fps = 0
	c.mu.Unlock()

	log.Error().Err(err).Msg("camera stream stopped")

	select {
	case c.errChan <- err:
	default:
	}
}

func (c *Controller) offerPreview(frame image.Image) {
	select {
	case c.preview <- frame:
	default:
		// Drop the stale frame so the preview always shows the newest one.
		select {
		case <-c.preview:
		default:
		}
		select {
		case c.preview <- frame:
		default:
		}
	}
}

// CaptureFrame renders the current frame onto a bitmap of the stream's
// native size and encodes it as PNG.
func (c *Controller) CaptureFrame() (*models.CapturedImage, error) {
	c.mu.RLock()
	frame, active := c.lastFrame, c.active
	c.mu.RUnlock()

	if !active || frame == nil {
		return nil, models.ErrNoActiveStream
	}

	bounds := frame.Bounds()
	bitmap := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(bitmap, bitmap.Bounds(), frame, bounds.Min, draw.Src)

	img, err := models.EncodePNG(bitmap, c.now())
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	log.Debug().
		Str("capture_id", img.ID.String()).
		Int("bytes", len(img.Data)).
		Msg("frame captured")

	return img, nil
}

func (c *Controller) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *Controller) FPS() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fps
}

// Preview yields the newest frames for display. It is never closed.
func (c *Controller) Preview() <-chan image.Image { return c.preview }

// Errors reports streams that died while running.
func (c *Controller) Errors() <-chan error { return c.errChan }

// Close releases the stream. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	s, stop, done := c.streamer, c.stopChan, c.doneChan
	c.streamer, c.stopChan, c.doneChan = nil, nil, nil
	c.lastFrame = nil
	c.active = false
	c.fps = 0
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	if s != nil {
		s.Stop()
		log.Info().Msg("camera stream released")
	}
}
