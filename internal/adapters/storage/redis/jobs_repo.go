package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"event-reports/internal/domain/reports"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "event-reports:job:"

// JobsRepo guarda cada snapshot como JSON con TTL, para que el estado de los
// jobs sobreviva reinicios y se comparta entre réplicas.
type JobsRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

var _ reports.JobStore = (*JobsRepo)(nil)

// Open parsea una URL redis:// y verifica la conexión.
func Open(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewJobsRepo: ttl <= 0 guarda sin expiración.
func NewJobsRepo(client *goredis.Client, ttl time.Duration) *JobsRepo {
	return &JobsRepo{client: client, ttl: ttl}
}

func (r *JobsRepo) Save(ctx context.Context, job reports.Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+job.ID, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set job %s: %w", job.ID, err)
	}
	return nil
}

func (r *JobsRepo) Get(ctx context.Context, id string) (reports.Job, error) {
	b, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return reports.Job{}, reports.ErrJobNotFound
		}
		return reports.Job{}, fmt.Errorf("redis get job %s: %w", id, err)
	}

	var job reports.Job
	if err := json.Unmarshal(b, &job); err != nil {
		return reports.Job{}, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return job, nil
}
