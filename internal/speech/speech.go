// Package speech bridges the platform's voice-to-text and text-to-speech
// engines: continuous transcript capture and voice selection by language and
// gender.
package speech

import (
	"context"
	"errors"
)

// ErrUnavailable means the platform has no recognition engine. Callers treat
// it as a missing feature, not a failure.
var ErrUnavailable = errors.New("speech recognition unavailable")

// Result is one recognition update. Text is cumulative for the utterance.
type Result struct {
	Text  string
	Final bool
}

// Recognizer is the platform recognition engine.
type Recognizer interface {
	// Listen starts one recognition session. The channel closes when the
	// engine reports an end event or ctx is done.
	Listen(ctx context.Context, locale string) (<-chan Result, error)
}

type Voice struct {
	Name string
	Lang string
}

type Utterance struct {
	Text  string
	Lang  string
	Voice *Voice
}

// Synthesizer is the platform speech synthesis engine.
type Synthesizer interface {
	Voices() []Voice
	Speak(ctx context.Context, u Utterance) error
	// Cancel stops any utterance that is currently playing.
	Cancel()
}
