package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aggieforge/coderunner/model"
)

// FileStore is grounded on original_source/src/common/file_storage.py:
// one directory per execution id under base_dir, holding status.json
// (atomic temp-then-rename, like FileQueue), stdout.txt and stderr.txt.
// Aggregate counters live in a single metrics/counters.json guarded by an
// in-process mutex — the same non-crash-safe tradeoff the original makes
// (see the design note recorded in DESIGN.md).
type FileStore struct {
	baseDir     string
	metricsMu   sync.Mutex
	metricsPath string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create base dir: %w", err)
	}
	metricsDir := filepath.Join(baseDir, "..", "metrics")
	if err := os.MkdirAll(metricsDir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create metrics dir: %w", err)
	}
	return &FileStore{
		baseDir:     baseDir,
		metricsPath: filepath.Join(metricsDir, "counters.json"),
	}, nil
}

func (s *FileStore) dir(executionID string) string {
	return filepath.Join(s.baseDir, executionID)
}

func (s *FileStore) statusPath(executionID string) string {
	return filepath.Join(s.dir(executionID), "status.json")
}

func (s *FileStore) writeStatusAtomic(executionID string, rec model.ExecutionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("filestore: marshal record: %w", err)
	}
	target := s.statusPath(executionID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("filestore: write temp status: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("filestore: rename status into place: %w", err)
	}
	return nil
}

func (s *FileStore) readStatus(executionID string) (model.ExecutionRecord, error) {
	raw, err := os.ReadFile(s.statusPath(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return model.ExecutionRecord{}, ErrNotFound
		}
		return model.ExecutionRecord{}, fmt.Errorf("filestore: read status: %w", err)
	}
	var rec model.ExecutionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.ExecutionRecord{}, fmt.Errorf("filestore: decode status: %w", err)
	}
	return rec, nil
}

func (s *FileStore) CreateQueued(_ context.Context, job model.Job) error {
	if err := os.MkdirAll(s.dir(job.ID), 0o755); err != nil {
		return fmt.Errorf("filestore: create execution dir: %w", err)
	}
	now := job.SubmittedAt
	if now.IsZero() {
		now = time.Now()
	}
	rec := model.ExecutionRecord{
		ExecutionID: job.ID,
		Status:      model.StatusQueued,
		Language:    job.Language,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.writeStatusAtomic(job.ID, rec)
}

func (s *FileStore) MarkRunning(_ context.Context, executionID string) error {
	rec, err := s.readStatus(executionID)
	if err != nil {
		return err
	}
	if !rec.Status.CanTransitionTo(model.StatusRunning) {
		return fmt.Errorf("filestore: cannot transition %s -> running", rec.Status)
	}
	now := time.Now()
	rec.Status = model.StatusRunning
	rec.StartedAt = &now
	rec.UpdatedAt = now
	return s.writeStatusAtomic(executionID, rec)
}

func (s *FileStore) SaveResult(_ context.Context, executionID string, result model.ExecutionResult) error {
	rec, err := s.readStatus(executionID)
	if err != nil {
		return err
	}
	if rec.Status.Terminal() {
		return ErrAlreadyTerminal
	}

	status := model.StatusCompleted
	if result.ExitCode != 0 || result.Timeout || result.ErrorType != "" {
		status = model.StatusFailed
	}
	if !rec.Status.CanTransitionTo(status) {
		return fmt.Errorf("filestore: cannot transition %s -> %s", rec.Status, status)
	}

	now := time.Now()
	exitCode := result.ExitCode
	duration := result.DurationMs
	timeout := result.Timeout

	rec.Status = status
	rec.Stdout = result.Stdout
	rec.Stderr = result.Stderr
	rec.ExitCode = &exitCode
	rec.DurationMs = &duration
	rec.Timeout = &timeout
	rec.ErrorType = result.ErrorType
	rec.CompletedAt = &now
	rec.UpdatedAt = now

	for name, body := range map[string]string{"stdout.txt": result.Stdout, "stderr.txt": result.Stderr} {
		target := filepath.Join(s.dir(executionID), name)
		if err := os.WriteFile(target+".tmp", []byte(body), 0o644); err != nil {
			return fmt.Errorf("filestore: write temp %s: %w", name, err)
		}
		if err := os.Rename(target+".tmp", target); err != nil {
			return fmt.Errorf("filestore: rename %s into place: %w", name, err)
		}
	}
	if err := s.writeStatusAtomic(executionID, rec); err != nil {
		return err
	}
	return s.recordMetrics(status, result.DurationMs)
}

func (s *FileStore) Get(_ context.Context, executionID string) (model.ExecutionRecord, error) {
	return s.readStatus(executionID)
}

type fileCounters struct {
	TotalProcessed  int64 `json:"total_processed"`
	TotalFailed     int64 `json:"total_failed"`
	TotalDurationMs int64 `json:"total_duration_ms"`
}

func (s *FileStore) recordMetrics(status model.Status, durationMs int64) error {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()

	var counters fileCounters
	if raw, err := os.ReadFile(s.metricsPath); err == nil {
		json.Unmarshal(raw, &counters)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("filestore: read counters: %w", err)
	}

	counters.TotalProcessed++
	if status == model.StatusFailed {
		counters.TotalFailed++
	}
	counters.TotalDurationMs += durationMs

	raw, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("filestore: marshal counters: %w", err)
	}
	tmp := s.metricsPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("filestore: write temp counters: %w", err)
	}
	return os.Rename(tmp, s.metricsPath)
}

func (s *FileStore) Metrics(_ context.Context) (Counters, error) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()

	var counters fileCounters
	raw, err := os.ReadFile(s.metricsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Counters{}, nil
		}
		return Counters{}, fmt.Errorf("filestore: read counters: %w", err)
	}
	if err := json.Unmarshal(raw, &counters); err != nil {
		return Counters{}, fmt.Errorf("filestore: decode counters: %w", err)
	}
	return Counters{
		TotalProcessed:  counters.TotalProcessed,
		TotalFailed:     counters.TotalFailed,
		TotalDurationMs: counters.TotalDurationMs,
	}, nil
}
