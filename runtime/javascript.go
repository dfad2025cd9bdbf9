package runtime

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aggieforge/coderunner/model"
)

const javascriptImage = "node:20-slim"

// JavaScript is grounded on original_source/src/runtime/
// javascript_runtime.py: it writes code.js plus an optional package.json,
// and npm-installs requested packages into a scratch cache before running.
type JavaScript struct{}

func (JavaScript) LanguageName() string { return "javascript" }
func (JavaScript) Image() string        { return javascriptImage }

func (JavaScript) Prepare(dir, code string, cfg model.ExecutionConfig) error {
	if err := os.WriteFile(filepath.Join(dir, "code.js"), []byte(code), 0o644); err != nil {
		return err
	}
	if len(cfg.Packages) == 0 {
		return nil
	}

	deps := make(map[string]string, len(cfg.Packages))
	for _, pkg := range cfg.Packages {
		deps[pkg] = "latest"
	}
	manifest := map[string]any{
		"name":         "code-execution",
		"version":      "1.0.0",
		"dependencies": deps,
	}
	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "package.json"), raw, 0o644)
}

func (JavaScript) Command(cfg model.ExecutionConfig) []string {
	if len(cfg.Packages) == 0 {
		return []string{"node", "/workspace/code.js"}
	}
	return []string{
		"/bin/sh", "-c",
		"cp /workspace/package.json /tmp/ && cd /tmp && " +
			"npm install --cache /tmp/npm-cache --no-progress 2>&1 && " +
			"NODE_PATH=/tmp/node_modules node /workspace/code.js",
	}
}
