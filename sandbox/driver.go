// Package sandbox implements the Sandbox Driver (spec.md 4.A): it creates,
// runs, waits on, kills and always removes one Docker container per
// execution, under the resource, network and filesystem limits an
// ExecutionConfig describes. Adapted from the teacher's
// executor/executor.go createAndStartContainer/getContainerLogs/
// cleanupContainer trio and from original_source/src/runtime/
// base_runtime.py's container contract (read-only rootfs, tmpfs /tmp).
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	"github.com/aggieforge/coderunner/model"
)

// tmpfsSize is the cap on the writable /tmp overlay: compilation
// artifacts, dependency caches and installed packages all live here,
// per spec.md 4.A.
const tmpfsSize = "size=512m,mode=1777,exec"

// Error kinds surfaced through model.ExecutionResult.ErrorType, per spec.md 7.
const (
	ErrorTypeTimeout       = "TimeoutError"
	ErrorTypeImageMissing  = "ImageMissing"
	ErrorTypeSandboxCreate = "SandboxCreateError"
	ErrorTypeSandboxWait   = "SandboxWaitError"
)

// Driver runs one command inside an isolated container per Run call.
type Driver struct {
	client *client.Client
	log    *zap.Logger
}

// New wraps an already-connected Docker client. Use client.NewClientWithOpts
// (client.FromEnv, client.WithAPIVersionNegotiation()) to build one, as the
// teacher's NewExecutorWithConfig does.
func New(cli *client.Client, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{client: cli, log: log}
}

// Spec describes one container invocation: the image to run, the argv, and
// the host workspace directory to mount read-only at /workspace.
type Spec struct {
	Image        string
	Argv         []string
	WorkspaceDir string
	Config       model.ExecutionConfig
}

// Run executes spec in a fresh container and returns the terminal
// observation. It never returns a Go error for ordinary execution outcomes
// (non-zero exit, timeout) — those are encoded in the returned
// ExecutionResult, per spec.md 7's "Timeout is a first-class result"
// policy. Failures of the driver itself (container create/start, wait
// errors, a canceled context) are reported the same way, with ExitCode -1
// and an ErrorType naming the fault.
func (d *Driver) Run(ctx context.Context, spec Spec) model.ExecutionResult {
	cfg := spec.Config.WithDefaults()
	start := time.Now()

	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:     mount.TypeBind,
				Source:   spec.WorkspaceDir,
				Target:   "/workspace",
				ReadOnly: true,
			},
		},
		Tmpfs:          map[string]string{"/tmp": tmpfsSize},
		ReadonlyRootfs: true,
		NetworkMode:    container.NetworkMode(networkMode(cfg.NetworkEnabled)),
		Resources: container.Resources{
			Memory:    parseMemoryLimit(cfg.MemoryLimit),
			NanoCPUs:  int64(cfg.CPULimit * 1e9),
			PidsLimit: int64Ptr(defaultPidsLimit),
		},
	}

	containerConfig := &container.Config{
		Image:      spec.Image,
		Cmd:        spec.Argv,
		WorkingDir: "/workspace",
		Tty:        false,
	}

	createCtx, cancelCreate := context.WithTimeout(ctx, cfg.Timeout+gracePeriod)
	defer cancelCreate()

	resp, err := d.client.ContainerCreate(createCtx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return model.ExecutionResult{
			Stderr:     fmt.Sprintf("failed to create container: %v", err),
			ExitCode:   -1,
			DurationMs: time.Since(start).Milliseconds(),
			ErrorType:  classifyCreateError(err),
		}
	}
	containerID := resp.ID

	// Guaranteed cleanup pass, even if start itself failed.
	defer d.remove(containerID)

	if err := d.client.ContainerStart(createCtx, containerID, container.StartOptions{}); err != nil {
		return model.ExecutionResult{
			Stderr:     fmt.Sprintf("failed to start container: %v", err),
			ExitCode:   -1,
			DurationMs: time.Since(start).Milliseconds(),
			ErrorType:  ErrorTypeSandboxCreate,
		}
	}

	execCtx, cancelExec := context.WithTimeout(ctx, cfg.Timeout)
	defer cancelExec()

	result := d.wait(execCtx, containerID, cfg.Timeout, start)

	if result.ExitCode == 0 || result.Timeout {
		// stdout/stderr already populated for the happy and timeout paths
		// by wait(); nothing further to do.
	}
	return result
}

func (d *Driver) wait(ctx context.Context, containerID string, timeout time.Duration, start time.Time) model.ExecutionResult {
	statusCh, errCh := d.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)

	select {
	case waitErr := <-errCh:
		duration := time.Since(start).Milliseconds()
		d.kill(containerID)
		if ctx.Err() == context.DeadlineExceeded {
			stdout, stderr := d.logs(containerID)
			return model.ExecutionResult{
				Stdout:     stdout,
				Stderr:     stderr + fmt.Sprintf("execution timeout after %v", timeout),
				ExitCode:   -1,
				DurationMs: duration,
				Timeout:    true,
				ErrorType:  ErrorTypeTimeout,
			}
		}
		return model.ExecutionResult{
			Stderr:     fmt.Sprintf("error waiting for container: %v", waitErr),
			ExitCode:   -1,
			DurationMs: duration,
			ErrorType:  ErrorTypeSandboxWait,
		}

	case status := <-statusCh:
		stdout, stderr := d.logs(containerID)
		return model.ExecutionResult{
			Stdout:     stdout,
			Stderr:     stderr,
			ExitCode:   int(status.StatusCode),
			DurationMs: time.Since(start).Milliseconds(),
		}

	case <-ctx.Done():
		duration := time.Since(start).Milliseconds()
		d.kill(containerID)
		if ctx.Err() == context.DeadlineExceeded {
			stdout, stderr := d.logs(containerID)
			return model.ExecutionResult{
				Stdout:     stdout,
				Stderr:     stderr + fmt.Sprintf("execution timeout after %v", timeout),
				ExitCode:   -1,
				DurationMs: duration,
				Timeout:    true,
				ErrorType:  ErrorTypeTimeout,
			}
		}
		return model.ExecutionResult{
			Stderr:     fmt.Sprintf("execution canceled: %v", ctx.Err()),
			ExitCode:   -1,
			DurationMs: duration,
			ErrorType:  ErrorTypeSandboxWait,
		}
	}
}

// logs retrieves and demultiplexes stdout/stderr, tolerating decode errors
// by substituting empty strings, per spec.md 4.A.
func (d *Driver) logs(containerID string) (stdout, stderr string) {
	reader, err := d.client.ContainerLogs(context.Background(), containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		d.log.Warn("failed to fetch container logs", zap.String("container_id", containerID), zap.Error(err))
		return "", ""
	}
	defer reader.Close()

	var outBuf, errBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&outBuf, &errBuf, reader); err != nil {
		d.log.Warn("failed to demultiplex container logs", zap.String("container_id", containerID), zap.Error(err))
		return "", ""
	}
	return outBuf.String(), errBuf.String()
}

func (d *Driver) kill(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.client.ContainerKill(ctx, containerID, "SIGKILL"); err != nil {
		d.log.Debug("container kill failed (already stopped?)", zap.String("container_id", containerID), zap.Error(err))
	}
}

// remove unconditionally removes the container; it is the guaranteed
// cleanup pass spec.md 4.A requires for every exit path.
func (d *Driver) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		d.log.Warn("failed to remove container", zap.String("container_id", containerID), zap.Error(err))
	}
}

func networkMode(enabled bool) string {
	if enabled {
		return "bridge"
	}
	return "none"
}

func int64Ptr(v int64) *int64 { return &v }

const (
	defaultPidsLimit = int64(50)
	gracePeriod      = 10 * time.Second
)

func classifyCreateError(err error) string {
	if client.IsErrNotFound(err) {
		return ErrorTypeImageMissing
	}
	return ErrorTypeSandboxCreate
}

// parseMemoryLimit converts a Docker-style size string ("256m", "1g", "512k")
// into bytes, matching the suffixes original_source/src/common/models.py's
// ExecutionConfig.memory_limit accepts. An unrecognized or empty value falls
// back to DefaultMemoryLimit's byte equivalent.
func parseMemoryLimit(s string) int64 {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return parseMemoryLimit(model.DefaultMemoryLimit)
	}

	var multiplier int64 = 1
	numeric := s
	switch {
	case strings.HasSuffix(s, "g"):
		multiplier = 1 << 30
		numeric = strings.TrimSuffix(s, "g")
	case strings.HasSuffix(s, "m"):
		multiplier = 1 << 20
		numeric = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "k"):
		multiplier = 1 << 10
		numeric = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "b"):
		numeric = strings.TrimSuffix(s, "b")
	}

	n, err := strconv.ParseInt(numeric, 10, 64)
	if err != nil || n <= 0 {
		return parseMemoryLimit(model.DefaultMemoryLimit)
	}
	return n * multiplier
}
