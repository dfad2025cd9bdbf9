package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aggieforge/coderunner/model"
)

// FileQueue is grounded on original_source/src/common/file_queue.py:
// pending jobs are one JSON file per job under pending/, written via a
// temp-file-then-rename so a reader never observes a partial write, and
// claimed by renaming the oldest pending file into processing/. Two
// workers racing the same file see one rename succeed and the other fail
// with "already gone", which is the atomicity spec.md I3 requires.
type FileQueue struct {
	baseDir string
}

// NewFileQueue ensures the pending/processing subdirectories exist under
// baseDir and returns a ready queue.
func NewFileQueue(baseDir string) (*FileQueue, error) {
	for _, sub := range []string{"pending", "processing"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("filequeue: create %s: %w", sub, err)
		}
	}
	return &FileQueue{baseDir: baseDir}, nil
}

func (q *FileQueue) pendingDir() string    { return filepath.Join(q.baseDir, "pending") }
func (q *FileQueue) processingDir() string { return filepath.Join(q.baseDir, "processing") }

// fileName encodes the enqueue time so Pop can claim files in FIFO order
// by lexicographic sort, matching the teacher's <timestamp>_<uuid>.json
// scheme.
func fileName(job model.Job) string {
	return fmt.Sprintf("%d_%s.json", job.SubmittedAt.UnixNano(), job.ID)
}

func (q *FileQueue) Push(ctx context.Context, job model.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("filequeue: marshal job: %w", err)
	}

	target := filepath.Join(q.pendingDir(), fileName(job))
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("filequeue: write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("filequeue: rename into place: %w", err)
	}
	return nil
}

// Pop polls pending/ until a job can be claimed or ctx ends. Each
// candidate is claimed by renaming it into processing/; a rename failure
// means another worker already won the race, so Pop simply retries with
// the next candidate.
func (q *FileQueue) Pop(ctx context.Context) (model.Job, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, ok, err := q.tryClaimOldest()
		if err != nil {
			return model.Job{}, err
		}
		if ok {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return model.Job{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *FileQueue) tryClaimOldest() (model.Job, bool, error) {
	entries, err := os.ReadDir(q.pendingDir())
	if err != nil {
		return model.Job{}, false, fmt.Errorf("filequeue: list pending: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		// Skip Push's in-progress temp files; only renamed-into-place
		// entries are complete jobs.
		if !e.IsDir() && !strings.HasSuffix(e.Name(), ".tmp") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		src := filepath.Join(q.pendingDir(), name)
		dst := filepath.Join(q.processingDir(), name)
		if err := os.Rename(src, dst); err != nil {
			if os.IsNotExist(err) {
				continue // another worker claimed it first
			}
			return model.Job{}, false, fmt.Errorf("filequeue: claim %s: %w", name, err)
		}

		raw, err := os.ReadFile(dst)
		if err != nil {
			return model.Job{}, false, fmt.Errorf("filequeue: read claimed job: %w", err)
		}
		var job model.Job
		if err := json.Unmarshal(raw, &job); err != nil {
			return model.Job{}, false, fmt.Errorf("filequeue: decode claimed job: %w", err)
		}
		return job, true, nil
	}
	return model.Job{}, false, nil
}

// Done removes executionID's file from processing/, matching the
// teacher's save_result, which globs processing_dir for "*_<execution_id>.json"
// and unlinks it once FileStorage has the terminal record. A missing file
// (already removed, or never claimed on this back-end) is not an error.
func (q *FileQueue) Done(_ context.Context, executionID string) error {
	entries, err := os.ReadDir(q.processingDir())
	if err != nil {
		return fmt.Errorf("filequeue: list processing: %w", err)
	}
	suffix := "_" + executionID + ".json"
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		if err := os.Remove(filepath.Join(q.processingDir(), e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("filequeue: remove processing entry: %w", err)
		}
	}
	return nil
}

func (q *FileQueue) Size(_ context.Context) (int, error) {
	entries, err := os.ReadDir(q.pendingDir())
	if err != nil {
		return 0, fmt.Errorf("filequeue: list pending: %w", err)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}
	return count, nil
}
