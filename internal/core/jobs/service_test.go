package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyiyo/signspeak/internal/core/gemini"
	"github.com/steveyiyo/signspeak/internal/repo/memory"
)

type fakeBackend struct {
	key      string
	startErr error
	statuses []gemini.VideoStatus
	pollErrs []error
	polls    int
}

func (f *fakeBackend) StartVideo(context.Context, string) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	return "operations/" + f.key, nil
}

func (f *fakeBackend) PollVideo(_ context.Context, op string) (gemini.VideoStatus, error) {
	i := f.polls
	f.polls++
	var err error
	if i < len(f.pollErrs) {
		err = f.pollErrs[i]
	}
	if i < len(f.statuses) {
		return f.statuses[i], err
	}
	return gemini.VideoStatus{}, err
}

func TestSubmitAndPollUntilDone(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{key: "op1", statuses: []gemini.VideoStatus{{}, {Done: true, URI: "https://files/v.mp4"}}}
	var keys []string
	svc := NewService(memory.NewJobRepo(), func(k string) (VideoBackend, error) {
		keys = append(keys, k)
		return be, nil
	}, time.Hour, nil)

	job, err := svc.Submit(ctx, "hello", "English (US)", "user-key")
	require.NoError(t, err)
	assert.Regexp(t, `^job_[0-9a-f-]{36}$`, job.ID)
	assert.Equal(t, "operations/op1", job.Operation)

	st, err := svc.Status(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, st.Done)
	assert.Equal(t, 1, st.Polls)

	st, err = svc.Status(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, st.Done)
	assert.Equal(t, "https://files/v.mp4", st.VideoURI)

	st, err = svc.Status(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, be.polls, "finished jobs are not polled again")
	assert.Equal(t, []string{"user-key", "user-key", "user-key"}, keys)
}

func TestStatusErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	be := &fakeBackend{
		statuses: []gemini.VideoStatus{{}, {Done: true}},
		pollErrs: []error{boom, gemini.ErrNoResult},
	}
	svc := NewService(memory.NewJobRepo(), func(string) (VideoBackend, error) { return be, nil }, time.Hour, nil)

	_, err := svc.Status(ctx, "job_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	job, err := svc.Submit(ctx, "x", "", "")
	require.NoError(t, err)
	_, err = svc.Status(ctx, job.ID)
	assert.ErrorIs(t, err, boom)

	st, err := svc.Status(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, st.Done)
	assert.Equal(t, gemini.ErrNoResult.Error(), st.Err)
}

func TestSubmitErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewJobRepo(), func(string) (VideoBackend, error) { return nil, gemini.ErrNoKey }, time.Hour, nil)
	_, err := svc.Submit(ctx, "x", "", "")
	assert.ErrorIs(t, err, gemini.ErrNoKey)

	be := &fakeBackend{startErr: gemini.ErrKeyRequired}
	svc = NewService(memory.NewJobRepo(), func(string) (VideoBackend, error) { return be, nil }, time.Hour, nil)
	_, err = svc.Submit(ctx, "x", "", "")
	assert.ErrorIs(t, err, gemini.ErrKeyRequired)
}

func TestPrune(t *testing.T) {
	repo := memory.NewJobRepo()
	svc := NewService(repo, nil, time.Hour, nil)
	now := time.Unix(10_000, 0)
	svc.now = func() time.Time { return now }
	repo.Save(&memory.VideoJob{ID: "old", CreatedAt: now.Add(-2 * time.Hour)})
	repo.Save(&memory.VideoJob{ID: "new", CreatedAt: now.Add(-time.Minute)})

	assert.Equal(t, 1, svc.Prune())
	_, ok := svc.Get("old")
	assert.False(t, ok)
	_, ok = svc.Get("new")
	assert.True(t, ok)
}
