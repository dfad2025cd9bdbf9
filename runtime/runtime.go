// Package runtime implements the per-language Runtime contract (spec.md
// 4.B) and the template-method Execute function that drives every
// concrete runtime through the same prepare-then-run-then-sandbox flow.
// Grounded on original_source/src/runtime/base_runtime.py's BaseRuntime
// ABC, generalizing the teacher's packages/lang per-language docker-exec
// dispatch into a single shared execution path.
package runtime

import (
	"context"
	"fmt"
	"os"

	"github.com/aggieforge/coderunner/model"
	"github.com/aggieforge/coderunner/packages"
	"github.com/aggieforge/coderunner/sandbox"
)

// Runtime is implemented once per supported language. It never touches
// Docker directly: Prepare writes source files into a workspace directory
// and Command returns the argv the sandbox should run against it. The
// shared Execute function below does everything else.
type Runtime interface {
	// LanguageName is the canonical, lower-case language id (e.g. "python").
	LanguageName() string
	// Image is the Docker image to run this language's sandbox in.
	Image() string
	// Prepare writes the code (and any package manifest) into dir, which
	// becomes the container's read-only /workspace.
	Prepare(dir string, code string, cfg model.ExecutionConfig) error
	// Command returns the argv to run inside the container against the
	// files Prepare wrote, given the requested config.
	Command(cfg model.ExecutionConfig) []string
}

// Sandbox is the subset of sandbox.Driver that Execute needs, so tests can
// substitute a fake without depending on a real Docker daemon.
type Sandbox interface {
	Run(ctx context.Context, spec sandbox.Spec) model.ExecutionResult
}

// Execute is the template method every Runtime shares: create a scratch
// workspace, let the runtime populate it, then hand it to the sandbox.
// No concrete Runtime reimplements this flow, matching spec.md 9's
// template-method design note.
func Execute(ctx context.Context, rt Runtime, sb Sandbox, code string, cfg model.ExecutionConfig) model.ExecutionResult {
	cfg = cfg.WithDefaults()

	if err := packages.Check(rt.LanguageName(), cfg.Packages); err != nil {
		return model.ExecutionResult{
			Stderr:    err.Error(),
			ExitCode:  -1,
			ErrorType: "UnauthorizedPackage",
		}
	}

	workspaceDir, err := os.MkdirTemp("", "coderunner-"+rt.LanguageName()+"-*")
	if err != nil {
		return model.ExecutionResult{
			Stderr:    fmt.Sprintf("failed to create workspace: %v", err),
			ExitCode:  -1,
			ErrorType: "WorkspaceError",
		}
	}
	defer os.RemoveAll(workspaceDir)

	if err := rt.Prepare(workspaceDir, code, cfg); err != nil {
		return model.ExecutionResult{
			Stderr:    fmt.Sprintf("failed to prepare code: %v", err),
			ExitCode:  -1,
			ErrorType: "PrepareError",
		}
	}

	return sb.Run(ctx, sandbox.Spec{
		Image:        rt.Image(),
		Argv:         rt.Command(cfg),
		WorkspaceDir: workspaceDir,
		Config:       cfg,
	})
}
