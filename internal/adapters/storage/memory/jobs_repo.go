package memory

import (
	"context"
	"sync"
	"time"

	"event-reports/internal/domain/reports"
)

type storedJob struct {
	job       reports.Job
	expiresAt time.Time
}

// JobsRepo guarda snapshots en memoria. Cada Save renueva la expiración,
// igual que el TTL del store Redis.
type JobsRepo struct {
	mu   sync.Mutex
	jobs map[string]storedJob
	ttl  time.Duration
	now  func() time.Time
}

var _ reports.JobStore = (*JobsRepo)(nil)

// NewJobsRepo: ttl <= 0 guarda sin expiración.
func NewJobsRepo(ttl time.Duration) *JobsRepo {
	return &JobsRepo{
		jobs: make(map[string]storedJob),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (r *JobsRepo) Save(ctx context.Context, job reports.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.purge(now)

	var exp time.Time
	if r.ttl > 0 {
		exp = now.Add(r.ttl)
	}
	r.jobs[job.ID] = storedJob{job: job, expiresAt: exp}
	return nil
}

func (r *JobsRepo) Get(ctx context.Context, id string) (reports.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.jobs[id]
	if !ok {
		return reports.Job{}, reports.ErrJobNotFound
	}
	if s.expired(r.now()) {
		delete(r.jobs, id)
		return reports.Job{}, reports.ErrJobNotFound
	}
	return s.job, nil
}

// Len devuelve la cantidad de snapshots retenidos (incluye vencidos aún no purgados).
func (r *JobsRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func (r *JobsRepo) purge(now time.Time) {
	for id, s := range r.jobs {
		if s.expired(now) {
			delete(r.jobs, id)
		}
	}
}

func (s storedJob) expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}
