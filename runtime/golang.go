package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aggieforge/coderunner/model"
)

const goImage = "golang:1.23-alpine"

// Go is grounded on original_source/src/runtime/go_runtime.py: it writes
// main.go plus an optional go.mod naming requested packages as
// requirements, builds into a scratch GOCACHE/GOMODCACHE, then runs the
// built binary.
type Go struct{}

func (Go) LanguageName() string { return "go" }
func (Go) Image() string        { return goImage }

func (Go) Prepare(dir, code string, cfg model.ExecutionConfig) error {
	if len(cfg.Packages) > 0 {
		var b strings.Builder
		b.WriteString("module main\n\ngo 1.21\n\nrequire (\n")
		for _, pkg := range cfg.Packages {
			fmt.Fprintf(&b, "\t%s latest\n", pkg)
		}
		b.WriteString(")\n")
		if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(dir, "main.go"), []byte(code), 0o644)
}

func (Go) Command(cfg model.ExecutionConfig) []string {
	const env = "export GOCACHE=/tmp/.cache GOMODCACHE=/tmp/.modcache;"
	if len(cfg.Packages) > 0 {
		return []string{
			"/bin/sh", "-c",
			env + " mkdir -p /tmp/build && cp -r /workspace/* /tmp/build/ && cd /tmp/build && " +
				"go mod download && go build -o /tmp/app main.go && /tmp/app",
		}
	}
	return []string{
		"/bin/sh", "-c",
		env + " mkdir -p /tmp/build && cp -r /workspace/* /tmp/build/ && cd /tmp/build && " +
			"go build -o /tmp/app main.go && /tmp/app",
	}
}
