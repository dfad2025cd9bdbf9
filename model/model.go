// Package model defines the data types shared across the execution pipeline:
// the caller-supplied ExecutionConfig, the terminal ExecutionResult, the
// queued Job, and the ExecutionRecord lifecycle row.
package model

import "time"

// Status is a lifecycle state of an ExecutionRecord. Transitions follow the
// DAG queued -> running -> (completed|failed); there are no back-edges.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// CanTransitionTo reports whether moving from s to next is a legal DAG edge.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case "":
		return next == StatusQueued
	case StatusQueued:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false // terminal states never transition again
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ExecutionConfig is the caller-supplied budget for a single run. It is
// immutable once a Job is created from it.
type ExecutionConfig struct {
	// Timeout is the wall-clock budget, bounded to [1,30] seconds by callers
	// at the HTTP boundary; the zero value means "apply the default".
	Timeout time.Duration `json:"timeout"`
	// MemoryLimit is a Docker-style size string, e.g. "256m".
	MemoryLimit string `json:"memory_limit"`
	// CPULimit is a fraction of one core, e.g. 0.5.
	CPULimit float64 `json:"cpu_limit"`
	// NetworkEnabled defaults to false (networking disabled).
	NetworkEnabled bool `json:"network_enabled"`
	// Packages is an optional list of dependency names to install;
	// validated against a per-language whitelist before any container runs.
	Packages []string `json:"packages,omitempty"`
}

const (
	DefaultTimeout     = 5 * time.Second
	MinTimeout         = 1 * time.Second
	MaxTimeout         = 30 * time.Second
	DefaultMemoryLimit = "256m"
	DefaultCPULimit    = 0.5
)

// WithDefaults returns a copy of c with zero-valued fields replaced by
// system defaults, and out-of-range values clamped the way the teacher's
// NewExecutorWithConfig does for ConcurrentLimit/DefaultTimeout.
func (c ExecutionConfig) WithDefaults() ExecutionConfig {
	out := c
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	} else if out.Timeout > MaxTimeout {
		out.Timeout = MaxTimeout
	} else if out.Timeout < MinTimeout {
		out.Timeout = MinTimeout
	}
	if out.MemoryLimit == "" {
		out.MemoryLimit = DefaultMemoryLimit
	}
	if out.CPULimit <= 0 {
		out.CPULimit = DefaultCPULimit
	}
	return out
}

// ExecutionResult is the terminal observation of one sandboxed run.
type ExecutionResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
	Timeout    bool   `json:"timeout"`
	ErrorType  string `json:"error_type,omitempty"`
	// PeakMemoryBytes is best-effort and may be zero when unavailable.
	PeakMemoryBytes int64 `json:"peak_memory_bytes,omitempty"`
}

// Job is a single queued unit of work.
type Job struct {
	ID          string          `json:"execution_id"`
	SubmittedAt time.Time       `json:"created_at"`
	Language    string          `json:"language"`
	Code        string          `json:"code"`
	Config      ExecutionConfig `json:"config"`
}

// ExecutionRecord is the lifecycle row kept by the Result Store, keyed by
// Job id.
type ExecutionRecord struct {
	ExecutionID string    `json:"execution_id"`
	Status      Status    `json:"status"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`

	// Terminal fields, populated only once Status.Terminal() is true.
	Stdout      string     `json:"stdout,omitempty"`
	Stderr      string     `json:"stderr,omitempty"`
	ExitCode    *int       `json:"exit_code,omitempty"`
	DurationMs  *int64     `json:"duration_ms,omitempty"`
	Timeout     *bool      `json:"timeout,omitempty"`
	ErrorType   string     `json:"error_type,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
