// Package media owns camera acquisition and frame capture: single snapshots
// and fixed-rate multi-frame bursts.
package media

import (
	"context"
	"errors"
	"image"
	"sync"
)

var (
	// ErrDevice reports a denied permission or a missing camera.
	ErrDevice = errors.New("camera unavailable")
	// ErrCapture reports that no frame could be read from the stream.
	ErrCapture = errors.New("no frame available")
)

// Device is the platform camera.
type Device interface {
	Open(ctx context.Context) (Feed, error)
}

// Feed is a live video-only feed.
type Feed interface {
	// Frame returns the current frame at native resolution.
	Frame() (image.Image, error)
	Close() error
}

// Stream is an acquired feed. Release it exactly as often as you like.
type Stream struct {
	feed Feed

	mu     sync.Mutex
	closed bool
}

func (s *Stream) Active() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Stream) frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrCapture
	}
	return s.feed.Frame()
}

func (s *Stream) stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.feed.Close()
}
