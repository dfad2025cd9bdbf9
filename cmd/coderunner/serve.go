package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aggieforge/coderunner/dispatcher"
	"github.com/aggieforge/coderunner/metrics"
	"github.com/aggieforge/coderunner/ratelimit"
	"github.com/aggieforge/coderunner/registry"
	"github.com/aggieforge/coderunner/sandbox"
)

func newServeCmd() *cobra.Command {
	var (
		addr            string
		redisURL        string
		queueBase       string
		dev             bool
		rateLimitPerMin int
		rateLimitBurst  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
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
			disp := dispatcher.New(reg, sb, q, st)
			m := metrics.New(prometheus.DefaultRegisterer)

			limiter := ratelimit.New(rateLimitPerMin, rateLimitBurst)
			go cleanupVisitorsPeriodically(limiter)

			srv := &server{dispatcher: disp, registry: reg, metrics: m, log: log}
			handler := newRouter(srv, limiter)

			httpServer := &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 35 * time.Second,
			}

			log.Info("starting server", zap.String("addr", addr))
			return httpServer.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL for the queue/store backend (enables the Redis backend)")
	cmd.Flags().StringVar(&queueBase, "queue-base", "", "base directory for the filesystem queue/store backend")
	cmd.Flags().BoolVar(&dev, "dev", false, "use a human-readable console logger instead of JSON")
	cmd.Flags().IntVar(&rateLimitPerMin, "rate-limit-per-minute", 100, "requests per minute allowed per client IP")
	cmd.Flags().IntVar(&rateLimitBurst, "rate-limit-burst", 10, "burst size for the per-IP rate limiter")

	return cmd
}

// cleanupVisitorsPeriodically evicts idle per-IP limiter entries so a
// long-running server's visitor map doesn't grow unbounded.
func cleanupVisitorsPeriodically(limiter *ratelimit.Limiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		limiter.CleanupVisitors()
	}
}
