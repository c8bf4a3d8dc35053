package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/steveyiyo/signspeak/internal/logging"
)

// JPEGQuality matches the browser's default canvas JPEG quality.
const JPEGQuality = 92

// Clock drives burst sampling.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

type Controller struct {
	device Device
	clock  Clock
	log    *slog.Logger
}

func NewController(device Device, clock Clock, log *slog.Logger) *Controller {
	if clock == nil {
		clock = RealClock
	}
	return &Controller{device: device, clock: clock, log: logging.OrDiscard(log).With("component", "media")}
}

// Acquire opens the camera.
func (c *Controller) Acquire(ctx context.Context) (*Stream, error) {
	if c.device == nil {
		return nil, fmt.Errorf("%w: no camera device", ErrDevice)
	}
	feed, err := c.device.Open(ctx)
	if err != nil {
		c.log.Warn("camera open failed", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}
	c.log.Debug("camera acquired")
	return &Stream{feed: feed}, nil
}

// Release stops the stream. Nil and already released streams are ignored.
func (c *Controller) Release(s *Stream) {
	if s == nil {
		return
	}
	if err := s.stop(); err != nil {
		c.log.Warn("camera release failed", "err", err)
		return
	}
	c.log.Debug("camera released")
}

// Snapshot encodes the current frame as JPEG at native resolution.
func (c *Controller) Snapshot(s *Stream) (EncodedImage, error) {
	if s == nil {
		return EncodedImage{}, ErrCapture
	}
	frame, err := s.frame()
	if err != nil {
		return EncodedImage{}, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	if frame == nil || frame.Bounds().Empty() {
		return EncodedImage{}, ErrCapture
	}
	b := frame.Bounds()
	surface := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(surface, surface.Bounds(), frame, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, surface, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return EncodedImage{}, fmt.Errorf("%w: encode: %v", ErrCapture, err)
	}
	return EncodedImage{MIMEType: "image/jpeg", Data: buf.Bytes()}, nil
}

// RecordBurst samples one frame every 1/fps until duration has elapsed and
// returns the frames in capture order. progress, when set, receives a
// percentage in [0, 100] at every sample; the last value is 100.
func (c *Controller) RecordBurst(ctx context.Context, s *Stream, duration time.Duration, fps int, progress func(float64)) ([]EncodedImage, error) {
	if fps <= 0 || duration <= 0 {
		return nil, fmt.Errorf("invalid burst: %v at %d fps", duration, fps)
	}
	if !s.Active() {
		return nil, ErrCapture
	}
	interval := time.Second / time.Duration(fps)
	start := c.clock.Now()
	frames := make([]EncodedImage, 0, int(duration/interval)+1)
	if progress != nil {
		progress(0)
	}
	for {
		if err := c.clock.Sleep(ctx, interval); err != nil {
			return frames, err
		}
		elapsed := c.clock.Now().Sub(start)
		pct := min(float64(elapsed)/float64(duration)*100, 100)
		if progress != nil {
			progress(pct)
		}
		img, err := c.Snapshot(s)
		if err == nil {
			frames = append(frames, img)
		} else {
			c.log.Debug("burst frame skipped", "err", err)
		}
		if elapsed >= duration {
			break
		}
	}
	c.log.Debug("burst recorded", "frames", len(frames), "duration", duration)
	return frames, nil
}
