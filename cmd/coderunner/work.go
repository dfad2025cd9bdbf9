package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aggieforge/coderunner/metrics"
	"github.com/aggieforge/coderunner/registry"
	"github.com/aggieforge/coderunner/sandbox"
	"github.com/aggieforge/coderunner/worker"
)

// newWorkCmd runs a single Worker's claim-execute loop in the current
// process (spec.md 4.F). The Pool spawns one of these as a subprocess per
// slot, but it is also runnable standalone for local testing.
func newWorkCmd() *cobra.Command {
	var (
		workerID  string
		redisURL  string
		queueBase string
		dev       bool
	)

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Run a single claim-execute worker loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(dev)
			if err != nil {
				return err
			}
			defer log.Sync()

			dockerClient, err := newDockerClient()
			if err != nil {
				return err
			}
			sb := sandbox.New(dockerClient, log)

			q, st, err := buildQueueAndStore(backendConfig{RedisURL: redisURL, QueueBase: queueBase})
			if err != nil {
				return err
			}

			reg := registry.DefaultAvailable(context.Background(), dockerImagePresent(dockerClient), log)
			m := metrics.New(prometheus.DefaultRegisterer)

			if workerID == "" {
				workerID = "worker-" + os.Getenv("HOSTNAME")
			}
			w := worker.New(workerID, q, st, reg, sb, m, log)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("worker ready", zap.String("worker_id", workerID))
			w.Run(ctx)
			return nil
		},
	}

	cmd.Flags().StringVar(&workerID, "worker-id", "", "identifier logged alongside this worker's job processing")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL for the queue/store backend (enables the Redis backend)")
	cmd.Flags().StringVar(&queueBase, "queue-base", "", "base directory for the filesystem queue/store backend")
	cmd.Flags().BoolVar(&dev, "dev", false, "use a human-readable console logger instead of JSON")

	return cmd
}
