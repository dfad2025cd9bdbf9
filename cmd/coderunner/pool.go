package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aggieforge/coderunner/worker"
)

// newPoolCmd supervises N "work" subprocesses (spec.md 4.G), each
// re-invoking this same binary, so a runaway sandbox in one worker can
// never take down its siblings.
func newPoolCmd() *cobra.Command {
	var (
		numWorkers  int
		redisURL    string
		queueBase   string
		dev         bool
		stopTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Spawn and supervise a fleet of worker subprocesses",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(dev)
			if err != nil {
				return err
			}
			defer log.Sync()

			p := worker.NewPool(worker.Options{
				RedisURL:   redisURL,
				QueueBase:  queueBase,
				NumWorkers: numWorkers,
				Log:        log,
			})

			if err := p.Start(); err != nil {
				return err
			}
			log.Info("worker pool started", zap.Int("num_workers", numWorkers))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			log.Info("worker pool stopping", zap.Bool("graceful", true))
			p.Stop(true, stopTimeout)
			return nil
		},
	}

	cmd.Flags().IntVar(&numWorkers, "workers", 2, "number of worker subprocesses to maintain")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL for the queue/store backend (enables the Redis backend)")
	cmd.Flags().StringVar(&queueBase, "queue-base", "", "base directory for the filesystem queue/store backend")
	cmd.Flags().BoolVar(&dev, "dev", false, "use a human-readable console logger instead of JSON")
	cmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 30*time.Second, "grace period for in-flight workers to finish before a hard stop")

	return cmd
}
