package main

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aggieforge/coderunner/queue"
	"github.com/aggieforge/coderunner/registry"
	"github.com/aggieforge/coderunner/store"
)

// newLogger mirrors the teacher's "dev vs prod" split: a console encoder
// while iterating locally, JSON in production, matching SPEC_FULL's
// ambient-stack logging section.
func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newDockerClient negotiates the API version against whatever daemon is
// reachable from the environment, as the teacher's NewExecutorWithConfig
// does.
func newDockerClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return cli, nil
}

// dockerImagePresent backs registry.ImagePresent with the Docker client's
// own image inspection, the same existence probe
// p0oru-code_editor/backend/execution-worker's ensureImage uses before
// deciding whether to pull.
func dockerImagePresent(cli *client.Client) registry.ImagePresent {
	return func(ctx context.Context, image string) bool {
		_, _, err := cli.ImageInspectWithRaw(ctx, image)
		return err == nil
	}
}

// backendConfig selects between the filesystem and Redis queue/store
// backends: exactly one of RedisURL or QueueBase should be set, matching
// spec.md 9's "two interchangeable queue back-ends" design note.
type backendConfig struct {
	RedisURL  string
	QueueBase string
}

func buildQueueAndStore(cfg backendConfig) (queue.Queue, store.Store, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		return queue.NewRedisQueue(client), store.NewRedisStore(client), nil
	}

	base := cfg.QueueBase
	if base == "" {
		base = "./data"
	}
	q, err := queue.NewFileQueue(base + "/queue")
	if err != nil {
		return nil, nil, fmt.Errorf("build file queue: %w", err)
	}
	st, err := store.NewFileStore(base + "/executions")
	if err != nil {
		return nil, nil, fmt.Errorf("build file store: %w", err)
	}
	return q, st, nil
}
