package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyiyo/signspeak/internal/aiclient"
	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/internal/model"
)

func TestLearning_PracticeLoop(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	require.NoError(t, sess.SetLanguage(model.EnglishUK))
	cam := &fakeCamera{}
	gen := &fakeGen{eval: aiclient.Evaluation{Correct: true, Feedback: "Lovely!"}}
	l := NewLearning(sess, newCamera(cam), gen, nil)

	require.NoError(t, l.Enter(ctx))
	st := l.State()
	assert.Equal(t, LearningBrowsing, st.Phase)
	require.Len(t, st.Lessons, 5)
	assert.Equal(t, "SOS", st.Lessons[4].Title)
	assert.Equal(t, "EVALUATE MY SIGN", st.Text.Check)

	require.NoError(t, l.SelectLesson(ctx, "3"))
	assert.Equal(t, LearningLesson, l.State().Phase)
	l.Wait()
	st = l.State()
	assert.False(t, st.ImageLoading)
	assert.Equal(t, "data:image/png;base64,c2lnbg==", st.Image)

	require.NoError(t, l.StartPractice(ctx))
	assert.Equal(t, 1, cam.live())
	for range 3 {
		ev, err := l.Check(ctx)
		require.NoError(t, err)
		assert.True(t, ev.Correct)
		assert.Equal(t, LearningFeedback, l.State().Phase)
	}
	assert.Equal(t, []string{"Hello", "Hello", "Hello"}, gen.evalTargets)

	l.StopPractice()
	assert.Equal(t, 0, cam.live())
	assert.Equal(t, LearningLesson, l.State().Phase)

	l.Back()
	st = l.State()
	assert.Equal(t, LearningBrowsing, st.Phase)
	assert.Nil(t, st.Lesson)
}

func TestLearning_ConcurrentCheckIsRefused(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	gen := &fakeGen{
		eval:        aiclient.Evaluation{Feedback: "Keep your thumb tucked."},
		evalStarted: make(chan struct{}, 1),
		evalGate:    make(chan struct{}),
	}
	l := NewLearning(sess, newCamera(&fakeCamera{}), gen, nil)
	require.NoError(t, l.Enter(ctx))
	require.NoError(t, l.SelectLesson(ctx, "1"))
	l.Wait()
	require.NoError(t, l.StartPractice(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := l.Check(ctx)
		done <- err
	}()
	<-gen.evalStarted

	_, err := l.Check(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.evalGate)
	require.NoError(t, <-done)
	assert.Len(t, gen.evalTargets, 1)

	gen.evalStarted = nil
	_, err = l.Check(ctx)
	require.NoError(t, err)
	assert.Len(t, gen.evalTargets, 2)
}

func TestLearning_IllustrationIsIndependentOfPractice(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	cam := &fakeCamera{}
	gen := &fakeGen{gate: make(chan struct{}), eval: aiclient.Evaluation{Feedback: "Keep going"}}
	l := NewLearning(sess, newCamera(cam), gen, nil)
	require.NoError(t, l.Enter(ctx))

	require.NoError(t, l.SelectLesson(ctx, "1"))
	require.NoError(t, l.StartPractice(ctx))
	ev, err := l.Check(ctx)
	require.NoError(t, err)
	assert.False(t, ev.Correct)
	assert.True(t, l.State().ImageLoading)

	close(gen.gate)
	l.Wait()
	assert.False(t, l.State().ImageLoading)
	assert.NotEmpty(t, l.State().Image)
}

func TestLearning_StaleIllustrationIgnored(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	gen := &fakeGen{gate: make(chan struct{})}
	l := NewLearning(sess, newCamera(&fakeCamera{}), gen, nil)
	require.NoError(t, l.Enter(ctx))

	require.NoError(t, l.SelectLesson(ctx, "1"))
	l.Back()
	close(gen.gate)
	l.Wait()
	st := l.State()
	assert.Nil(t, st.Lesson)
	assert.Empty(t, st.Image)
}

func TestLearning_ExitReleasesCamera(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	cam := &fakeCamera{}
	l := NewLearning(sess, newCamera(cam), &fakeGen{}, nil)
	require.NoError(t, l.Enter(ctx))
	require.NoError(t, l.SelectLesson(ctx, "2"))
	require.NoError(t, l.StartPractice(ctx))
	assert.Equal(t, 1, cam.live())

	l.Exit()
	l.Wait()
	assert.Equal(t, 0, cam.live())
	_, err := l.Check(ctx)
	assert.ErrorIs(t, err, media.ErrDevice)
}

func TestLearning_Errors(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSession(t)
	cam := &fakeCamera{openErr: errBoom}
	l := NewLearning(sess, newCamera(cam), &fakeGen{}, nil)
	require.NoError(t, l.Enter(ctx))

	assert.Error(t, l.StartPractice(ctx))
	assert.Error(t, l.SelectLesson(ctx, "42"))

	require.NoError(t, l.SelectLesson(ctx, "1"))
	assert.ErrorIs(t, l.StartPractice(ctx), media.ErrDevice)
	assert.Equal(t, msgNoCamera, l.State().Err)
	l.Wait()
}
