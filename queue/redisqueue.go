package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aggieforge/coderunner/model"
)

// redisQueueKey is grounded on original_source/src/common/queue.py's
// QUEUE_KEY.
const redisQueueKey = "coderunner:queue"

// recordTTL matches original_source's 24h expiry on execution hashes
// (spec.md invariant I4).
const recordTTL = 24 * time.Hour

// RedisQueue is grounded on original_source/src/common/queue.py: Push is
// an RPUSH, Pop is a blocking BLPOP (atomic across any number of
// competing workers, satisfying invariant I3 without any polling loop).
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Push(ctx context.Context, job model.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("redisqueue: marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, redisQueueKey, raw).Err(); err != nil {
		return fmt.Errorf("redisqueue: rpush: %w", err)
	}
	return nil
}

// Pop blocks on BLPOP until a job is available or ctx is canceled. BLPOP's
// timeout argument is the Redis protocol's own idle-reconnect budget, not
// the ctx deadline, so Pop also honors ctx directly: a canceled ctx aborts
// the blocking call immediately via the redis client's context support.
func (q *RedisQueue) Pop(ctx context.Context) (model.Job, error) {
	result, err := q.client.BLPop(ctx, 0, redisQueueKey).Result()
	if err != nil {
		if err == context.Canceled || err == context.DeadlineExceeded {
			return model.Job{}, err
		}
		return model.Job{}, fmt.Errorf("redisqueue: blpop: %w", err)
	}
	// result[0] is the key name, result[1] is the payload.
	var job model.Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return model.Job{}, fmt.Errorf("redisqueue: decode popped job: %w", err)
	}
	return job, nil
}

// Done is a no-op: BLPOP already removed the job atomically in Pop, so
// there is no separate processing entry to clear on this back-end.
func (q *RedisQueue) Done(_ context.Context, _ string) error {
	return nil
}

func (q *RedisQueue) Size(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, redisQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redisqueue: llen: %w", err)
	}
	return int(n), nil
}
