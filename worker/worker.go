// Package worker implements the single-threaded claim-execute loop
// (spec.md 4.F) and the process-per-worker pool that fans it out (4.G).
// Grounded on original_source/src/worker/executor.py's Worker.start/
// _process_task and src/worker/pool.py's WorkerPool.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aggieforge/coderunner/metrics"
	"github.com/aggieforge/coderunner/model"
	"github.com/aggieforge/coderunner/queue"
	"github.com/aggieforge/coderunner/registry"
	"github.com/aggieforge/coderunner/runtime"
	"github.com/aggieforge/coderunner/sandbox"
	"github.com/aggieforge/coderunner/store"
)

// Worker repeatedly claims one job at a time from a Queue, runs it through
// the Runtime Registry and a Sandbox, and records the terminal result in
// a Store. It holds no concurrency of its own — that is the Pool's job.
type Worker struct {
	id       string
	queue    queue.Queue
	store    store.Store
	registry *registry.Registry
	sandbox  runtime.Sandbox
	metrics  *metrics.Registry
	log      *zap.Logger
}

func New(id string, q queue.Queue, st store.Store, reg *registry.Registry, sb *sandbox.Driver, m *metrics.Registry, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{id: id, queue: q, store: st, registry: reg, sandbox: sb, metrics: m, log: log}
}

// Run claims and processes jobs until ctx is done. A Pop error other than
// ctx cancellation is logged and retried after a short backoff, matching
// original_source's "skip on empty, keep looping" behavior.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("worker started", zap.String("worker_id", w.id))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopping", zap.String("worker_id", w.id))
			return
		default:
		}

		job, err := w.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.log.Warn("failed to pop job", zap.String("worker_id", w.id), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job model.Job) {
	if err := w.store.MarkRunning(ctx, job.ID); err != nil {
		w.log.Error("failed to mark job running", zap.String("execution_id", job.ID), zap.Error(err))
		return
	}

	rt, ok := w.registry.Get(job.Language)
	if !ok {
		w.saveFailure(ctx, job, fmt.Sprintf("unsupported language: %s", job.Language), "UnsupportedLanguage")
		return
	}

	result := runtime.Execute(ctx, rt, w.sandbox, job.Code, job.Config)

	if err := w.store.SaveResult(ctx, job.ID, result); err != nil {
		w.log.Error("failed to save result", zap.String("execution_id", job.ID), zap.Error(err))
		return
	}
	if err := w.queue.Done(ctx, job.ID); err != nil {
		w.log.Warn("failed to clear processing entry", zap.String("execution_id", job.ID), zap.Error(err))
	}

	status := "completed"
	if result.ExitCode != 0 || result.Timeout || result.ErrorType != "" {
		status = "failed"
	}
	if w.metrics != nil {
		w.metrics.RecordExecution(job.Language, status, float64(result.DurationMs)/1000)
	}
	w.log.Info("job finished",
		zap.String("execution_id", job.ID),
		zap.String("status", status),
		zap.Int64("duration_ms", result.DurationMs))
}

func (w *Worker) saveFailure(ctx context.Context, job model.Job, message, errorType string) {
	result := model.ExecutionResult{Stderr: message, ExitCode: -1, ErrorType: errorType}
	if err := w.store.SaveResult(ctx, job.ID, result); err != nil {
		w.log.Error("failed to save failure result", zap.String("execution_id", job.ID), zap.Error(err))
		return
	}
	if err := w.queue.Done(ctx, job.ID); err != nil {
		w.log.Warn("failed to clear processing entry", zap.String("execution_id", job.ID), zap.Error(err))
	}
}
