package orchestrator

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/steveyiyo/signspeak/internal/aiclient"
	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/repo/memory"
	"github.com/steveyiyo/signspeak/internal/session"
	"github.com/steveyiyo/signspeak/internal/speech"
)

func newSession(t *testing.T) (*session.State, *memory.KV) {
	t.Helper()
	kv := memory.NewKV()
	s := session.New(kv, nil)
	require.NoError(t, s.Load(context.Background()))
	return s, kv
}

// fakeGen is a scripted SignGenerator and PracticeCoach.
type fakeGen struct {
	mu sync.Mutex

	fragments []string
	images    []*media.EncodedImage
	imageErrs []error
	videoURL  string
	videoErrs []error
	eval      aiclient.Evaluation

	// started is signalled when a media call begins; gate, when set, holds
	// it until closed.
	started chan struct{}
	gate    chan struct{}
	// evalStarted and evalGate do the same for practice evaluation.
	evalStarted chan struct{}
	evalGate    chan struct{}

	describeCalls int
	imageCalls    int
	videoCalls    int
	evalTargets   []string
	languages     []string
}

func (g *fakeGen) Describe(_ context.Context, _, lang string) iter.Seq[string] {
	g.mu.Lock()
	g.describeCalls++
	frags := append([]string(nil), g.fragments...)
	g.languages = append(g.languages, lang)
	g.mu.Unlock()
	return func(yield func(string) bool) {
		for _, f := range frags {
			if !yield(f) {
				return
			}
		}
	}
}

func (g *fakeGen) wait() {
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.gate != nil {
		<-g.gate
	}
}

func (g *fakeGen) GenerateImage(_ context.Context, _, _ string) (*media.EncodedImage, error) {
	g.wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.imageCalls
	g.imageCalls++
	if n < len(g.imageErrs) && g.imageErrs[n] != nil {
		return nil, g.imageErrs[n]
	}
	if n < len(g.images) {
		return g.images[n], nil
	}
	return &media.EncodedImage{MIMEType: "image/png", Data: []byte("sign")}, nil
}

func (g *fakeGen) GenerateVideo(_ context.Context, _, _ string) (string, error) {
	g.wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.videoCalls
	g.videoCalls++
	if n < len(g.videoErrs) && g.videoErrs[n] != nil {
		return "", g.videoErrs[n]
	}
	return g.videoURL, nil
}

func (g *fakeGen) EvaluatePractice(_ context.Context, _ media.EncodedImage, target string) aiclient.Evaluation {
	if g.evalStarted != nil {
		g.evalStarted <- struct{}{}
	}
	if g.evalGate != nil {
		<-g.evalGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.evalTargets = append(g.evalTargets, target)
	return g.eval
}

func (g *fakeGen) counts() (describe, image, video int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.describeCalls, g.imageCalls, g.videoCalls
}

type fakePrompt struct {
	mu      sync.Mutex
	hasKey  bool
	selects int
	err     error
}

func (p *fakePrompt) HasKey(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasKey
}

func (p *fakePrompt) SelectKey(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selects++
	if p.err != nil {
		return p.err
	}
	p.hasKey = true
	return nil
}

// fakeRecognizer answers every burst with a fixed sentence and records the
// frame counts it saw.
type fakeRecognizer struct {
	mu     sync.Mutex
	answer string
	frames []int
	langs  []string
	gate   chan struct{}
}

func (r *fakeRecognizer) RecognizeGesture(_ context.Context, images []media.EncodedImage, lang string) string {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, len(images))
	r.langs = append(r.langs, lang)
	return r.answer
}

func (r *fakeRecognizer) calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.frames...)
}

// fakeCamera counts opens and closes of a solid-colour feed.
type fakeCamera struct {
	mu      sync.Mutex
	openErr error
	opens   int
	closes  int
}

func (c *fakeCamera) Open(context.Context) (media.Feed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.opens++
	return &fakeFeed{cam: c}, nil
}

func (c *fakeCamera) live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens - c.closes
}

type fakeFeed struct{ cam *fakeCamera }

func (f *fakeFeed) Frame() (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 200, G: 120, B: 40, A: 255}}, image.Point{}, draw.Src)
	return img, nil
}

func (f *fakeFeed) Close() error {
	f.cam.mu.Lock()
	f.cam.closes++
	f.cam.mu.Unlock()
	return nil
}

// stepClock advances virtual time on every Sleep.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

func newCamera(cam *fakeCamera) *media.Controller {
	return media.NewController(cam, &stepClock{now: time.Unix(1_700_000_000, 0)}, nil)
}

// recordingSynth captures spoken utterances.
type recordingSynth struct {
	mu     sync.Mutex
	spoken []speech.Utterance
}

func (s *recordingSynth) Voices() []speech.Voice {
	return []speech.Voice{
		{Name: "Samantha", Lang: "en-US"},
		{Name: "Daniel Male", Lang: "en-US"},
	}
}

func (s *recordingSynth) Speak(_ context.Context, u speech.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, u)
	return nil
}

func (s *recordingSynth) Cancel() {}

func (s *recordingSynth) utterances() []speech.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]speech.Utterance(nil), s.spoken...)
}

var errBoom = errors.New("boom")

func keyRequired() error {
	return &aiclient.RequestError{Op: "generate video", Status: 403, Kind: aiclient.ErrKeyRequired}
}

func generationFailed() error {
	return &aiclient.RequestError{Op: "generate image", Status: 500, Kind: aiclient.ErrGeneration, Err: errBoom}
}

func historyModes(s *session.State) []model.AppMode {
	var out []model.AppMode
	for _, e := range s.History() {
		out = append(out, e.Mode)
	}
	return out
}
