package orchestrator

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyiyo/signspeak/internal/aiclient"
	"github.com/steveyiyo/signspeak/internal/core/instant"
	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/session"
	"github.com/steveyiyo/signspeak/internal/speech"
)

const (
	msgKeyRequired  = "AI Key setup required for HD Video. Please select a paid API key."
	msgMediaFailed  = "Visual generation failed. You can still use the text instructions."
	msgVideoTimeout = "Video generation timed out. Please try again."
	msgNoSpeech     = "Speech recognition is not available on this device."
)

// LoadingStatuses rotate while an HD video is being generated.
var LoadingStatuses = []string{
	"Drafting hand gestures...",
	"Rendering 3D model...",
	"Applying fluid motion...",
	"Polishing visual details...",
	"Almost ready for you...",
}

// LoadingStatusPeriod is how long each loading status is shown.
const LoadingStatusPeriod = 8 * time.Second

// LoadingStatus returns the status to show after elapsed time in generation.
func LoadingStatus(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	return LoadingStatuses[int(elapsed/LoadingStatusPeriod)%len(LoadingStatuses)]
}

// SignGenerator produces sign instructions and media for text.
type SignGenerator interface {
	Describe(ctx context.Context, text, languageName string) iter.Seq[string]
	GenerateImage(ctx context.Context, text, languageName string) (*media.EncodedImage, error)
	GenerateVideo(ctx context.Context, text, languageName string) (string, error)
}

// CredentialPrompt lets the user pick a paid key for HD video.
type CredentialPrompt interface {
	HasKey(ctx context.Context) bool
	SelectKey(ctx context.Context) error
}

type DeafPhase string

const (
	DeafIdle        DeafPhase = "idle"
	DeafCapturing   DeafPhase = "capturing"
	DeafTranslating DeafPhase = "translating"
	DeafResult      DeafPhase = "result"
	DeafError       DeafPhase = "error"
)

type MediaStatus string

const (
	MediaNone          MediaStatus = ""
	MediaLoading       MediaStatus = "loading"
	MediaReady         MediaStatus = "ready"
	MediaEmpty         MediaStatus = "empty"
	MediaFailed        MediaStatus = "failed"
	MediaSetupRequired MediaStatus = "setup_required"
)

type MediaResult struct {
	URL  string
	Type model.MediaType
}

type DeafState struct {
	Phase      DeafPhase
	HD         bool
	Listening  bool
	Transcript string
	// Input is the text being translated.
	Input       string
	Icon        string
	Description string
	Describing  bool
	Media       *MediaResult
	MediaStatus MediaStatus
	Err         string
}

// Settled reports whether neither the description nor the media is pending.
func (s DeafState) Settled() bool {
	return !s.Describing && s.MediaStatus != MediaLoading
}

type DeafController struct {
	session *session.State
	gen     SignGenerator
	speech  *speech.Bridge
	prompt  CredentialPrompt
	icons   *instant.Engine
	log     *slog.Logger
	now     func() time.Time

	live liveness
	pub  publisher[DeafState]

	mu           sync.Mutex
	st           DeafState
	mediaStarted time.Time
	// run identifies the translation in flight; busy is cleared only by its
	// owner, and a run from an exited visit never blocks a new one.
	run       uint64
	busy      bool
	busyEpoch uint64
}

// NewDeaf wires the voice/text to sign pipeline. bridge and prompt may be nil.
func NewDeaf(s *session.State, gen SignGenerator, bridge *speech.Bridge, prompt CredentialPrompt, icons *instant.Engine, log *slog.Logger) *DeafController {
	if icons == nil {
		icons = instant.New(nil)
	}
	if bridge == nil {
		bridge = speech.NewBridge(nil, nil, log)
	}
	return &DeafController{
		session: s,
		gen:     gen,
		speech:  bridge,
		prompt:  prompt,
		icons:   icons,
		log:     logging.OrDiscard(log).With("component", "deaf"),
		now:     time.Now,
		st:      DeafState{Phase: DeafIdle},
	}
}

func (d *DeafController) Mode() model.AppMode { return model.ModeDeaf }

func (d *DeafController) OnChange(fn func(DeafState)) { d.pub.set(fn) }

func (d *DeafController) Enter(context.Context) error {
	d.mu.Lock()
	d.st = DeafState{Phase: DeafIdle, HD: d.st.HD}
	st := d.st
	d.mu.Unlock()
	d.pub.publish(st)
	return nil
}

func (d *DeafController) Exit() {
	d.live.bump()
	d.speech.StopRecognition()
	d.mu.Lock()
	d.st.Listening = false
	d.mu.Unlock()
}

func (d *DeafController) State() DeafState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st
}

// SetHD switches between image and video output for the next request.
func (d *DeafController) SetHD(hd bool) {
	d.update(d.live.current(), func(s *DeafState) { s.HD = hd })
}

// claim reserves the pipeline for one translation or media retry.
func (d *DeafController) claim(epoch uint64) (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy && d.live.alive(d.busyEpoch) {
		return 0, false
	}
	d.run++
	d.busy = true
	d.busyEpoch = epoch
	return d.run, true
}

func (d *DeafController) release(run uint64) {
	d.mu.Lock()
	if d.run == run {
		d.busy = false
	}
	d.mu.Unlock()
}

// update applies fn unless the visit that started the work has ended.
func (d *DeafController) update(epoch uint64, fn func(*DeafState)) bool {
	d.mu.Lock()
	if !d.live.alive(epoch) {
		d.mu.Unlock()
		return false
	}
	fn(&d.st)
	st := d.st
	d.mu.Unlock()
	d.pub.publish(st)
	return true
}

// StartListening clears the previous result and streams the live transcript
// into the state until StopListening.
func (d *DeafController) StartListening(ctx context.Context) error {
	epoch := d.live.current()
	if !d.speech.CanRecognize() {
		d.update(epoch, func(s *DeafState) {
			s.Phase = DeafError
			s.Err = msgNoSpeech
		})
		return speech.ErrUnavailable
	}
	ch, err := d.speech.StartRecognition(ctx, string(d.session.Language()), true)
	if err != nil {
		d.update(epoch, func(s *DeafState) {
			s.Phase = DeafError
			s.Err = msgNoSpeech
		})
		return err
	}
	d.update(epoch, func(s *DeafState) {
		*s = DeafState{Phase: DeafCapturing, HD: s.HD, Listening: true}
	})
	go func() {
		for t := range ch {
			d.update(epoch, func(s *DeafState) { s.Transcript = t })
		}
	}()
	return nil
}

// StopListening ends capture and translates the transcript, if any.
func (d *DeafController) StopListening(ctx context.Context) error {
	text := d.speech.StopRecognition()
	epoch := d.live.current()
	d.update(epoch, func(s *DeafState) {
		s.Listening = false
		s.Transcript = text
		if strings.TrimSpace(text) == "" {
			s.Phase = DeafIdle
		}
	})
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return d.Submit(ctx, text)
}

// Submit translates text. The instant icon is set before any request; the
// description stream and the media request then run concurrently and Submit
// returns once both have finished. ErrBusy is returned while another
// translation or retry is in flight.
func (d *DeafController) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	epoch := d.live.current()
	run, ok := d.claim(epoch)
	if !ok {
		return ErrBusy
	}
	defer d.release(run)
	var hd bool
	d.update(epoch, func(s *DeafState) {
		hd = s.HD
		*s = DeafState{
			Phase:       DeafTranslating,
			HD:          s.HD,
			Input:       text,
			Icon:        d.icons.Icon(text),
			Describing:  true,
			MediaStatus: MediaLoading,
		}
	})
	lang := d.session.Language().Name()

	var g errgroup.Group
	g.Go(func() error {
		for frag := range d.gen.Describe(ctx, text, lang) {
			if !d.update(epoch, func(s *DeafState) { s.Description += frag }) {
				return nil
			}
		}
		d.update(epoch, func(s *DeafState) { s.Describing = false })
		return nil
	})
	g.Go(func() error {
		d.runMedia(ctx, epoch, text, hd)
		return nil
	})
	_ = g.Wait()

	d.settle(epoch)
	return nil
}

// RetryMedia re-runs only the media request for the current input.
func (d *DeafController) RetryMedia(ctx context.Context) error {
	epoch := d.live.current()
	run, claimed := d.claim(epoch)
	if !claimed {
		return ErrBusy
	}
	defer d.release(run)
	var text string
	var hd bool
	ok := d.update(epoch, func(s *DeafState) {
		text, hd = s.Input, s.HD
		if text == "" {
			return
		}
		s.Phase = DeafTranslating
		s.Media = nil
		s.MediaStatus = MediaLoading
		s.Err = ""
	})
	if !ok || text == "" {
		return nil
	}
	d.runMedia(ctx, epoch, text, hd)
	d.settle(epoch)
	return nil
}

// ConfirmKeySetup runs the key selection and, once it succeeds, retries the
// video for the current input.
func (d *DeafController) ConfirmKeySetup(ctx context.Context) error {
	if d.prompt == nil {
		return aiclient.ErrKeyRequired
	}
	if err := d.prompt.SelectKey(ctx); err != nil {
		return err
	}
	return d.RetryMedia(ctx)
}

// LoadingStatus is the rotating HD status for the media request in flight,
// or "" when none is.
func (d *DeafController) LoadingStatus() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.st.HD || d.st.MediaStatus != MediaLoading {
		return ""
	}
	return LoadingStatus(d.now().Sub(d.mediaStarted))
}

func (d *DeafController) runMedia(ctx context.Context, epoch uint64, text string, hd bool) {
	d.mu.Lock()
	d.mediaStarted = d.now()
	d.mu.Unlock()
	lang := d.session.Language().Name()

	var res *MediaResult
	var err error
	if hd {
		if d.prompt != nil && !d.prompt.HasKey(ctx) {
			if perr := d.prompt.SelectKey(ctx); perr != nil {
				d.log.Info("key selection skipped", "err", perr)
			}
		}
		var u string
		u, err = d.gen.GenerateVideo(ctx, text, lang)
		if err == nil && u != "" {
			res = &MediaResult{URL: u, Type: model.MediaVideo}
		}
	} else {
		var img *media.EncodedImage
		img, err = d.gen.GenerateImage(ctx, text, lang)
		if err == nil && img != nil {
			res = &MediaResult{URL: img.DataURI(), Type: model.MediaImage}
		}
	}

	if err != nil {
		d.log.Warn("media generation failed", "hd", hd, "err", err)
		d.update(epoch, func(s *DeafState) {
			switch {
			case errors.Is(err, aiclient.ErrKeyRequired):
				s.MediaStatus = MediaSetupRequired
				s.Err = msgKeyRequired
			case errors.Is(err, aiclient.ErrTimeout):
				s.MediaStatus = MediaFailed
				s.Err = msgVideoTimeout
			default:
				s.MediaStatus = MediaFailed
				s.Err = msgMediaFailed
			}
		})
		return
	}
	if res == nil {
		d.update(epoch, func(s *DeafState) { s.MediaStatus = MediaEmpty })
		return
	}
	if !d.update(epoch, func(s *DeafState) {
		s.Media = res
		s.MediaStatus = MediaReady
	}) {
		return
	}

	output := "Image Generated"
	if res.Type == model.MediaVideo {
		output = "Video Generated"
	}
	if _, err := d.session.AddLog(ctx, model.HistoryEntry{
		Mode:      model.ModeDeaf,
		Input:     text,
		Output:    output,
		MediaURL:  res.URL,
		MediaType: res.Type,
	}); err != nil {
		d.log.Warn("history not saved", "err", err)
	}
}

func (d *DeafController) settle(epoch uint64) {
	d.update(epoch, func(s *DeafState) {
		if !s.Settled() {
			return
		}
		switch s.MediaStatus {
		case MediaFailed, MediaSetupRequired:
			s.Phase = DeafError
		default:
			s.Phase = DeafResult
		}
	})
}
