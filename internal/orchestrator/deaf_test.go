package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyiyo/signspeak/internal/aiclient"
	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/speech"
)

type stateLog[T any] struct {
	mu     sync.Mutex
	states []T
}

func (l *stateLog[T]) add(s T) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
}

func (l *stateLog[T]) all() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.states...)
}

func TestDeaf_HelloInImageMode(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	gen := &fakeGen{fragments: []string{"Move ", "hand ", "up."}}
	d := NewDeaf(sess, gen, nil, nil, nil, nil)
	var seen stateLog[DeafState]
	d.OnChange(seen.add)
	require.NoError(t, d.Enter(ctx))

	require.NoError(t, d.Submit(ctx, "  Hello "))

	states := seen.all()
	require.GreaterOrEqual(t, len(states), 3)
	first := states[1]
	assert.Equal(t, DeafTranslating, first.Phase)
	assert.Equal(t, "👋", first.Icon)
	assert.Empty(t, first.Description)
	assert.Equal(t, MediaLoading, first.MediaStatus)

	var descriptions []string
	for _, s := range states {
		if len(descriptions) == 0 || descriptions[len(descriptions)-1] != s.Description {
			descriptions = append(descriptions, s.Description)
		}
	}
	assert.Contains(t, descriptions, "Move ")
	assert.Contains(t, descriptions, "Move hand ")

	st := d.State()
	assert.Equal(t, DeafResult, st.Phase)
	assert.True(t, st.Settled())
	assert.Equal(t, "Move hand up.", st.Description)
	assert.Equal(t, "👋", st.Icon)
	require.NotNil(t, st.Media)
	assert.Equal(t, model.MediaImage, st.Media.Type)
	assert.True(t, strings.HasPrefix(st.Media.URL, "data:image/png;base64,"))

	h := sess.History()
	require.Len(t, h, 1)
	assert.Equal(t, model.ModeDeaf, h[0].Mode)
	assert.Equal(t, model.MediaImage, h[0].MediaType)
	assert.Equal(t, "Hello", h[0].Input)
	assert.Equal(t, "Image Generated", h[0].Output)
	assert.Equal(t, st.Media.URL, h[0].MediaURL)
	assert.Equal(t, []string{"English (US)"}, gen.languages)
}

func TestDeaf_UnknownPhraseHasNoIcon(t *testing.T) {
	sess, _ := newSession(t)
	d := NewDeaf(sess, &fakeGen{}, nil, nil, nil, nil)
	require.NoError(t, d.Submit(context.Background(), "where is the station"))
	assert.Empty(t, d.State().Icon)
	require.NoError(t, d.Submit(context.Background(), "   "))
	assert.Equal(t, "where is the station", d.State().Input)
}

func TestDeaf_MediaFailureKeepsDescriptionAndRetriesOnlyMedia(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	gen := &fakeGen{fragments: []string{"Tap ", "chin."}, imageErrs: []error{generationFailed()}}
	d := NewDeaf(sess, gen, nil, nil, nil, nil)

	require.NoError(t, d.Submit(ctx, "thanks"))
	st := d.State()
	assert.Equal(t, DeafError, st.Phase)
	assert.Equal(t, MediaFailed, st.MediaStatus)
	assert.Equal(t, msgMediaFailed, st.Err)
	assert.Equal(t, "Tap chin.", st.Description)
	assert.Equal(t, "🙏", st.Icon)
	assert.Empty(t, sess.History())

	require.NoError(t, d.RetryMedia(ctx))
	st = d.State()
	assert.Equal(t, DeafResult, st.Phase)
	assert.Equal(t, MediaReady, st.MediaStatus)
	assert.Empty(t, st.Err)
	assert.Equal(t, "Tap chin.", st.Description)

	describes, images, _ := gen.counts()
	assert.Equal(t, 1, describes)
	assert.Equal(t, 2, images)
	assert.Len(t, sess.History(), 1)
}

func TestDeaf_EmptyImageIsNotLogged(t *testing.T) {
	sess, _ := newSession(t)
	gen := &fakeGen{images: []*media.EncodedImage{nil}}
	d := NewDeaf(sess, gen, nil, nil, nil, nil)
	require.NoError(t, d.Submit(context.Background(), "hello"))
	st := d.State()
	assert.Equal(t, DeafResult, st.Phase)
	assert.Equal(t, MediaEmpty, st.MediaStatus)
	assert.Nil(t, st.Media)
	assert.Empty(t, sess.History())
}

func TestDeaf_KeyRequiredWaitsForSetup(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	gen := &fakeGen{
		fragments: []string{"Wave."},
		videoURL:  "http://backend/api/videos/job_1",
		videoErrs: []error{keyRequired()},
	}
	prompt := &fakePrompt{err: errBoom}
	d := NewDeaf(sess, gen, nil, prompt, nil, nil)
	d.SetHD(true)

	require.NoError(t, d.Submit(ctx, "hello"))
	st := d.State()
	assert.Equal(t, DeafError, st.Phase)
	assert.Equal(t, MediaSetupRequired, st.MediaStatus)
	assert.Equal(t, msgKeyRequired, st.Err)
	assert.Equal(t, "Wave.", st.Description)
	_, _, videos := gen.counts()
	assert.Equal(t, 1, videos)
	assert.Equal(t, 1, prompt.selects, "key selection is offered before the first HD attempt")

	// A declined selection does not retry.
	assert.ErrorIs(t, d.ConfirmKeySetup(ctx), errBoom)
	_, _, videos = gen.counts()
	assert.Equal(t, 1, videos)
	assert.Equal(t, MediaSetupRequired, d.State().MediaStatus)

	prompt.err = nil
	require.NoError(t, d.ConfirmKeySetup(ctx))
	st = d.State()
	assert.Equal(t, DeafResult, st.Phase)
	assert.Equal(t, MediaReady, st.MediaStatus)
	require.NotNil(t, st.Media)
	assert.Equal(t, model.MediaVideo, st.Media.Type)
	assert.Equal(t, "http://backend/api/videos/job_1", st.Media.URL)

	h := sess.History()
	require.Len(t, h, 1)
	assert.Equal(t, "Video Generated", h[0].Output)
	assert.Equal(t, model.MediaVideo, h[0].MediaType)
}

func TestDeaf_ConfirmKeySetupWithoutPrompt(t *testing.T) {
	sess, _ := newSession(t)
	d := NewDeaf(sess, &fakeGen{}, nil, nil, nil, nil)
	assert.ErrorIs(t, d.ConfirmKeySetup(context.Background()), aiclient.ErrKeyRequired)
}

func TestDeaf_VideoTimeout(t *testing.T) {
	sess, _ := newSession(t)
	gen := &fakeGen{videoErrs: []error{&aiclient.RequestError{Op: "generate video", Kind: aiclient.ErrTimeout}}}
	d := NewDeaf(sess, gen, nil, &fakePrompt{hasKey: true}, nil, nil)
	d.SetHD(true)
	require.NoError(t, d.Submit(context.Background(), "sorry"))
	st := d.State()
	assert.Equal(t, MediaFailed, st.MediaStatus)
	assert.Equal(t, msgVideoTimeout, st.Err)
	assert.Equal(t, "😔", st.Icon)
}

func TestDeaf_ExitAbandonsInFlightRequest(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	gen := &fakeGen{
		fragments: []string{"a"},
		started:   make(chan struct{}, 1),
		gate:      make(chan struct{}),
	}
	d := NewDeaf(sess, gen, nil, nil, nil, nil)
	require.NoError(t, d.Enter(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Submit(ctx, "hello")
	}()
	<-gen.started
	d.Exit()
	close(gen.gate)
	<-done

	assert.Equal(t, MediaLoading, d.State().MediaStatus)
	assert.Empty(t, sess.History())

	require.NoError(t, d.Enter(ctx))
	assert.Equal(t, DeafIdle, d.State().Phase)
}

func TestDeaf_OverlappingRequestsAreRefused(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	gen := &fakeGen{
		fragments: []string{"Wave."},
		images:    []*media.EncodedImage{{MIMEType: "image/png", Data: []byte("hello")}},
		started:   make(chan struct{}, 1),
		gate:      make(chan struct{}),
	}
	d := NewDeaf(sess, gen, nil, nil, nil, nil)
	require.NoError(t, d.Enter(ctx))

	done := make(chan error, 1)
	go func() { done <- d.Submit(ctx, "hello") }()
	<-gen.started

	assert.ErrorIs(t, d.Submit(ctx, "thanks"), ErrBusy)
	assert.ErrorIs(t, d.RetryMedia(ctx), ErrBusy)
	st := d.State()
	assert.Equal(t, "hello", st.Input)
	assert.Equal(t, MediaLoading, st.MediaStatus)
	assert.False(t, st.Settled())

	close(gen.gate)
	require.NoError(t, <-done)
	st = d.State()
	assert.Equal(t, "hello", st.Input)
	assert.Equal(t, DeafResult, st.Phase)
	require.NotNil(t, st.Media)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", st.Media.URL)

	gen.started = nil
	require.NoError(t, d.Submit(ctx, "thanks"))
	assert.Equal(t, "thanks", d.State().Input)
	_, images, _ := gen.counts()
	assert.Equal(t, 2, images)
}

func TestDeaf_ExitFreesPipelineForNextVisit(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	gen := &fakeGen{started: make(chan struct{}, 2), gate: make(chan struct{})}
	d := NewDeaf(sess, gen, nil, nil, nil, nil)
	require.NoError(t, d.Enter(ctx))

	first := make(chan error, 1)
	go func() { first <- d.Submit(ctx, "hello") }()
	<-gen.started
	d.Exit()
	require.NoError(t, d.Enter(ctx))

	second := make(chan error, 1)
	go func() { second <- d.Submit(ctx, "thanks") }()
	<-gen.started
	close(gen.gate)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	st := d.State()
	assert.Equal(t, "thanks", st.Input)
	assert.Equal(t, MediaReady, st.MediaStatus)
	assert.Len(t, sess.History(), 1)
}

func TestLoadingStatusRotation(t *testing.T) {
	assert.Equal(t, LoadingStatuses[0], LoadingStatus(0))
	assert.Equal(t, LoadingStatuses[0], LoadingStatus(7*time.Second))
	assert.Equal(t, LoadingStatuses[1], LoadingStatus(8*time.Second))
	assert.Equal(t, LoadingStatuses[4], LoadingStatus(39*time.Second))
	assert.Equal(t, LoadingStatuses[0], LoadingStatus(40*time.Second))
	assert.Equal(t, LoadingStatuses[0], LoadingStatus(-time.Second))
}

func TestDeaf_LoadingStatusOnlyWhileHDInFlight(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	gen := &fakeGen{started: make(chan struct{}, 1), gate: make(chan struct{}), videoURL: "https://v"}
	d := NewDeaf(sess, gen, nil, &fakePrompt{hasKey: true}, nil, nil)
	now := time.Unix(100, 0)
	var mu sync.Mutex
	d.now = func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	d.SetHD(true)
	assert.Empty(t, d.LoadingStatus())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Submit(ctx, "help")
	}()
	<-gen.started
	assert.Equal(t, LoadingStatuses[0], d.LoadingStatus())
	mu.Lock()
	now = now.Add(17 * time.Second)
	mu.Unlock()
	assert.Equal(t, LoadingStatuses[2], d.LoadingStatus())
	close(gen.gate)
	<-done
	assert.Empty(t, d.LoadingStatus())
}

func TestDeaf_VoiceInput(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	bridge := speech.NewBridge(speech.NewLineRecognizer(strings.NewReader("thank you\n")), nil, nil)
	d := NewDeaf(sess, &fakeGen{}, bridge, nil, nil, nil)

	require.NoError(t, d.StartListening(ctx))
	assert.True(t, d.State().Listening)
	require.Eventually(t, func() bool { return d.State().Transcript == "thank you" }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, d.StopListening(ctx))
	st := d.State()
	assert.False(t, st.Listening)
	assert.Equal(t, "thank you", st.Input)
	assert.Equal(t, "🙏", st.Icon)
	assert.Equal(t, DeafResult, st.Phase)
}

func TestDeaf_VoiceUnavailable(t *testing.T) {
	sess, _ := newSession(t)
	d := NewDeaf(sess, &fakeGen{}, nil, nil, nil, nil)
	assert.ErrorIs(t, d.StartListening(context.Background()), speech.ErrUnavailable)
	assert.Equal(t, DeafError, d.State().Phase)
	assert.Equal(t, msgNoSpeech, d.State().Err)
}
