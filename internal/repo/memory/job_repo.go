package memory

import (
	"sync"
	"time"
)

// VideoJob tracks one long-running video generation on the backend.
type VideoJob struct {
	ID        string
	CreatedAt time.Time
	Text      string
	Language  string
	Operation string
	APIKey    string
	Done      bool
	VideoURI  string
	Err       string
	Polls     int
}

type JobRepo struct {
	m sync.Map
}

func NewJobRepo() *JobRepo {
	return &JobRepo{}
}

func (r *JobRepo) Save(j *VideoJob) {
	r.m.Store(j.ID, j)
}

func (r *JobRepo) Get(id string) (*VideoJob, bool) {
	v, ok := r.m.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*VideoJob), true
}

// Update applies fn to a copy of the job and stores the result.
func (r *JobRepo) Update(id string, fn func(j *VideoJob)) (*VideoJob, bool) {
	v, ok := r.m.Load(id)
	if !ok {
		return nil, false
	}
	j := *v.(*VideoJob)
	fn(&j)
	r.m.Store(id, &j)
	return &j, true
}

// Prune drops jobs created before cutoff.
func (r *JobRepo) Prune(cutoff time.Time) int {
	n := 0
	r.m.Range(func(k, v any) bool {
		if v.(*VideoJob).CreatedAt.Before(cutoff) {
			r.m.Delete(k)
			n++
		}
		return true
	})
	return n
}
