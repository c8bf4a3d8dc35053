// Package jobs tracks long-running video generations between submit and
// status polls.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/steveyiyo/signspeak/internal/core/gemini"
	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/repo/memory"
	"github.com/steveyiyo/signspeak/pkg/types"
)

var ErrNotFound = errors.New("video job not found")

// VideoBackend starts and polls provider video operations.
type VideoBackend interface {
	StartVideo(ctx context.Context, text string) (string, error)
	PollVideo(ctx context.Context, operation string) (gemini.VideoStatus, error)
}

// Resolver returns the backend for a caller's API key ("" for the server key).
type Resolver func(apiKey string) (VideoBackend, error)

type Service struct {
	Repo    *memory.JobRepo
	resolve Resolver
	ttl     time.Duration
	now     func() time.Time
	log     *slog.Logger
}

func NewService(repo *memory.JobRepo, resolve Resolver, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		Repo:    repo,
		resolve: resolve,
		ttl:     ttl,
		now:     time.Now,
		log:     logging.OrDiscard(log).With("component", "jobs"),
	}
}

// Submit starts a video for text and records the job.
func (s *Service) Submit(ctx context.Context, text, language, apiKey string) (*memory.VideoJob, error) {
	be, err := s.resolve(apiKey)
	if err != nil {
		return nil, err
	}
	op, err := be.StartVideo(ctx, text)
	if err != nil {
		return nil, err
	}
	job := &memory.VideoJob{
		ID:        "job_" + uuid.NewString(),
		CreatedAt: s.now(),
		Text:      text,
		Language:  language,
		Operation: op,
		APIKey:    apiKey,
	}
	s.Repo.Save(job)
	s.log.Info("video submitted", "job", job.ID)
	return job, nil
}

// Status polls the provider unless the job already finished.
func (s *Service) Status(ctx context.Context, id string) (*memory.VideoJob, error) {
	job, ok := s.Repo.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if job.Done {
		return job, nil
	}
	be, err := s.resolve(job.APIKey)
	if err != nil {
		return nil, err
	}
	st, perr := be.PollVideo(ctx, job.Operation)
	if perr != nil && !st.Done {
		return nil, perr
	}
	job, _ = s.Repo.Update(id, func(j *memory.VideoJob) {
		j.Polls++
		j.Done = st.Done
		j.VideoURI = st.URI
		switch {
		case errors.Is(perr, gemini.ErrKeyRequired):
			j.Err = types.ErrCodeKeyRequired
		case perr != nil:
			j.Err = perr.Error()
		}
	})
	if job.Done {
		s.log.Info("video finished", "job", id, "polls", job.Polls, "err", job.Err)
	}
	return job, nil
}

// Get returns a job without polling.
func (s *Service) Get(id string) (*memory.VideoJob, bool) {
	return s.Repo.Get(id)
}

// Prune forgets jobs older than the TTL.
func (s *Service) Prune() int {
	if s.ttl <= 0 {
		return 0
	}
	n := s.Repo.Prune(s.now().Add(-s.ttl))
	if n > 0 {
		s.log.Debug("pruned video jobs", "count", n)
	}
	return n
}

// RunJanitor prunes every interval until ctx ends.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Prune()
		}
	}
}
