package aiclient

import (
	"errors"
	"fmt"
)

// Error classes returned by the client. Test with errors.Is.
var (
	// ErrTransport: the backend could not be reached or answered garbage.
	ErrTransport = errors.New("backend unreachable")
	// ErrGeneration: the backend ran but produced no usable media.
	ErrGeneration = errors.New("generation failed")
	// ErrKeyRequired: premium generation needs a user-selected API key.
	ErrKeyRequired = errors.New("api key required")
	// ErrTimeout: video generation did not finish within the poll budget.
	ErrTimeout = errors.New("video generation timed out")
)

// Sentinel recognition results. They are values, not errors.
const (
	NoGestureDetected = "No gesture detected."
	RecognitionFailed = "Could not translate. Please try again."
)

const (
	defaultFeedback  = "Nice try! Let's try one more time."
	fallbackFeedback = "You're doing great! Try to position your hand clearly in the light."
)

// RequestError wraps a failed backend call with its classification.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Kind    error
	Err     error
}

func (e *RequestError) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
