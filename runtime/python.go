package runtime

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aggieforge/coderunner/model"
)

const pythonImage = "python:3.11-slim"

// Python is grounded on original_source/src/runtime/python_runtime.py:
// it writes code.py plus an optional requirements.txt, and installs
// requested packages into a scratch PYTHONPATH before running.
type Python struct{}

func (Python) LanguageName() string { return "python" }
func (Python) Image() string        { return pythonImage }

func (Python) Prepare(dir, code string, cfg model.ExecutionConfig) error {
	if err := os.WriteFile(filepath.Join(dir, "code.py"), []byte(code), 0o644); err != nil {
		return err
	}
	if len(cfg.Packages) == 0 {
		return nil
	}
	requirements := strings.Join(cfg.Packages, "\n") + "\n"
	return os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte(requirements), 0o644)
}

func (Python) Command(cfg model.ExecutionConfig) []string {
	if len(cfg.Packages) == 0 {
		return []string{"python", "/workspace/code.py"}
	}
	return []string{
		"/bin/sh", "-c",
		"pip install --no-cache-dir -q --target /tmp/packages -r /workspace/requirements.txt && " +
			"PYTHONPATH=/tmp/packages python /workspace/code.py",
	}
}
