package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aggieforge/coderunner/model"
)

// executionKeyPrefix and metricsKeyPrefix are grounded on
// original_source/src/common/queue.py's EXECUTION_PREFIX and
// METRICS_PREFIX.
const (
	executionKeyPrefix = "coderunner:execution:"
	metricsKeyPrefix   = "coderunner:metrics:"
)

// recordTTL matches original_source's 24h expiry on execution hashes
// (spec.md invariant I4).
const recordTTL = 24 * time.Hour

// RedisStore is grounded on original_source/src/common/queue.py's
// hash-based half: one HSET per execution id, with a 24h TTL (invariant
// I4) refreshed on every write, and INCR/INCRBY for the aggregate
// counters — atomic server-side, unlike FileStore's process-local mutex.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func executionKey(id string) string { return executionKeyPrefix + id }

func (s *RedisStore) CreateQueued(ctx context.Context, job model.Job) error {
	now := job.SubmittedAt
	if now.IsZero() {
		now = time.Now()
	}
	key := executionKey(job.ID)
	fields := map[string]any{
		"status":     string(model.StatusQueued),
		"language":   job.Language,
		"created_at": now.Format(time.RFC3339Nano),
		"updated_at": now.Format(time.RFC3339Nano),
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, recordTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisstore: create queued: %w", err)
	}
	return nil
}

func (s *RedisStore) currentStatus(ctx context.Context, executionID string) (model.Status, error) {
	val, err := s.client.HGet(ctx, executionKey(executionID), "status").Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redisstore: read status: %w", err)
	}
	return model.Status(val), nil
}

func (s *RedisStore) MarkRunning(ctx context.Context, executionID string) error {
	current, err := s.currentStatus(ctx, executionID)
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(model.StatusRunning) {
		return fmt.Errorf("redisstore: cannot transition %s -> running", current)
	}

	now := time.Now()
	key := executionKey(executionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"status":     string(model.StatusRunning),
		"started_at": now.Format(time.RFC3339Nano),
		"updated_at": now.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, recordTTL)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redisstore: mark running: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveResult(ctx context.Context, executionID string, result model.ExecutionResult) error {
	current, err := s.currentStatus(ctx, executionID)
	if err != nil {
		return err
	}
	if current.Terminal() {
		return ErrAlreadyTerminal
	}

	status := model.StatusCompleted
	if result.ExitCode != 0 || result.Timeout || result.ErrorType != "" {
		status = model.StatusFailed
	}
	if !current.CanTransitionTo(status) {
		return fmt.Errorf("redisstore: cannot transition %s -> %s", current, status)
	}

	now := time.Now()
	key := executionKey(executionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"status":       string(status),
		"stdout":       result.Stdout,
		"stderr":       result.Stderr,
		"exit_code":    strconv.Itoa(result.ExitCode),
		"duration_ms":  strconv.FormatInt(result.DurationMs, 10),
		"timeout":      strconv.FormatBool(result.Timeout),
		"error_type":   result.ErrorType,
		"completed_at": now.Format(time.RFC3339Nano),
		"updated_at":   now.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, recordTTL)
	pipe.Incr(ctx, metricsKeyPrefix+"total_processed")
	if status == model.StatusFailed {
		pipe.Incr(ctx, metricsKeyPrefix+"total_failed")
	}
	pipe.IncrBy(ctx, metricsKeyPrefix+"total_duration_ms", result.DurationMs)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisstore: save result: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, executionID string) (model.ExecutionRecord, error) {
	fields, err := s.client.HGetAll(ctx, executionKey(executionID)).Result()
	if err != nil {
		return model.ExecutionRecord{}, fmt.Errorf("redisstore: hgetall: %w", err)
	}
	if len(fields) == 0 {
		return model.ExecutionRecord{}, ErrNotFound
	}

	rec := model.ExecutionRecord{
		ExecutionID: executionID,
		Status:      model.Status(fields["status"]),
		Language:    fields["language"],
		Stdout:      fields["stdout"],
		Stderr:      fields["stderr"],
		ErrorType:   fields["error_type"],
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])

	if raw, ok := fields["started_at"]; ok && raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			rec.StartedAt = &t
		}
	}
	if raw, ok := fields["completed_at"]; ok && raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			rec.CompletedAt = &t
		}
	}
	if raw, ok := fields["exit_code"]; ok && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			rec.ExitCode = &n
		}
	}
	if raw, ok := fields["duration_ms"]; ok && raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			rec.DurationMs = &n
		}
	}
	if raw, ok := fields["timeout"]; ok && raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			rec.Timeout = &b
		}
	}
	return rec, nil
}

func (s *RedisStore) Metrics(ctx context.Context) (Counters, error) {
	pipe := s.client.TxPipeline()
	totalCmd := pipe.Get(ctx, metricsKeyPrefix+"total_processed")
	failedCmd := pipe.Get(ctx, metricsKeyPrefix+"total_failed")
	durationCmd := pipe.Get(ctx, metricsKeyPrefix+"total_duration_ms")
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Counters{}, fmt.Errorf("redisstore: read counters: %w", err)
	}

	return Counters{
		TotalProcessed:  parseCounterOrZero(totalCmd),
		TotalFailed:     parseCounterOrZero(failedCmd),
		TotalDurationMs: parseCounterOrZero(durationCmd),
	}, nil
}

func parseCounterOrZero(cmd *redis.StringCmd) int64 {
	val, err := cmd.Result()
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
