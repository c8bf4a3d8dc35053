package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/model"
)

type Bridge struct {
	rec Recognizer
	syn Synthesizer
	log *slog.Logger

	mu         sync.Mutex
	stop       context.CancelFunc
	done       chan struct{}
	transcript string
}

// NewBridge accepts nil engines; the matching features then report unavailable.
func NewBridge(rec Recognizer, syn Synthesizer, log *slog.Logger) *Bridge {
	return &Bridge{rec: rec, syn: syn, log: logging.OrDiscard(log).With("component", "speech")}
}

func (b *Bridge) CanRecognize() bool { return b.rec != nil }

// StartRecognition begins listening and emits the cumulative transcript of
// the current utterance on every update. With continuous set, end events
// restart the engine until StopRecognition. A running session is stopped
// first.
func (b *Bridge) StartRecognition(ctx context.Context, locale string, continuous bool) (<-chan string, error) {
	if b.rec == nil {
		return nil, ErrUnavailable
	}
	b.StopRecognition()

	lctx, cancel := context.WithCancel(ctx)
	first, err := b.rec.Listen(lctx, locale)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan string, 8)
	done := make(chan struct{})
	b.mu.Lock()
	b.stop = cancel
	b.done = done
	b.transcript = ""
	b.mu.Unlock()

	go b.run(lctx, locale, continuous, first, out, done)
	return out, nil
}

func (b *Bridge) run(ctx context.Context, locale string, continuous bool, ch <-chan Result, out chan<- string, done chan<- struct{}) {
	defer close(done)
	defer close(out)
	for {
		for r := range ch {
			b.mu.Lock()
			b.transcript = r.Text
			b.mu.Unlock()
			select {
			case out <- r.Text:
			case <-ctx.Done():
				return
			}
		}
		if !continuous || ctx.Err() != nil {
			return
		}
		var err error
		ch, err = b.rec.Listen(ctx, locale)
		if err != nil {
			b.log.Debug("recognition restart failed", "err", err)
			return
		}
		b.log.Debug("recognition restarted", "locale", locale)
	}
}

// StopRecognition halts listening and returns the final transcript.
func (b *Bridge) StopRecognition() string {
	b.mu.Lock()
	stop, done := b.stop, b.done
	b.stop, b.done = nil, nil
	b.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transcript
}

// Speak cancels current playback and says text with the best matching voice.
// Empty text and the no-gesture sentinel are ignored.
func (b *Bridge) Speak(ctx context.Context, text, locale string, gender model.Gender) error {
	text = strings.TrimSpace(text)
	if text == "" || text == model.NoGestureDetected || b.syn == nil {
		return nil
	}
	b.syn.Cancel()
	u := Utterance{Text: text, Lang: locale, Voice: SelectVoice(b.syn.Voices(), locale, gender)}
	if u.Voice != nil {
		b.log.Debug("speaking", "voice", u.Voice.Name, "lang", locale)
	}
	return b.syn.Speak(ctx, u)
}
