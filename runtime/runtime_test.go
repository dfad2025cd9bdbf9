package runtime

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aggieforge/coderunner/model"
	"github.com/aggieforge/coderunner/sandbox"
)

// fakeSandbox records the spec it was asked to run and returns a canned
// result, so Execute can be tested without a Docker daemon.
type fakeSandbox struct {
	gotSpec sandbox.Spec
	result  model.ExecutionResult
}

func (f *fakeSandbox) Run(_ context.Context, spec sandbox.Spec) model.ExecutionResult {
	f.gotSpec = spec
	return f.result
}

func TestExecuteWritesWorkspaceAndDelegatesToSandbox(t *testing.T) {
	fs := &fakeSandbox{result: model.ExecutionResult{Stdout: "hi", ExitCode: 0}}

	got := Execute(context.Background(), Python{}, fs, "print('hi')", model.ExecutionConfig{})

	if got.Stdout != "hi" || got.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if fs.gotSpec.Image != pythonImage {
		t.Fatalf("image = %q, want %q", fs.gotSpec.Image, pythonImage)
	}
	if _, err := os.Stat(fs.gotSpec.WorkspaceDir); err == nil {
		t.Fatal("workspace directory should be removed after Execute returns")
	}
}

func TestPythonPrepareWithoutPackages(t *testing.T) {
	dir := t.TempDir()
	if err := (Python{}).Prepare(dir, "print(1)", model.ExecutionConfig{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "code.py")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "requirements.txt")); !os.IsNotExist(err) {
		t.Fatal("requirements.txt should not be written when no packages requested")
	}
	cmd := (Python{}).Command(model.ExecutionConfig{})
	if len(cmd) != 2 || cmd[0] != "python" {
		t.Fatalf("unexpected command: %v", cmd)
	}
}

func TestPythonPrepareWithPackages(t *testing.T) {
	dir := t.TempDir()
	cfg := model.ExecutionConfig{Packages: []string{"numpy", "pandas"}}
	if err := (Python{}).Prepare(dir, "import numpy", cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "requirements.txt")); err != nil {
		t.Fatal("requirements.txt should be written when packages are requested")
	}
	cmd := (Python{}).Command(cfg)
	if len(cmd) != 3 || cmd[0] != "/bin/sh" {
		t.Fatalf("unexpected command: %v", cmd)
	}
}

func TestGoCommandIncludesModDownloadOnlyWithPackages(t *testing.T) {
	without := (Go{}).Command(model.ExecutionConfig{})
	for _, arg := range without {
		if strings.Contains(arg, "go mod download") {
			t.Fatal("go mod download should not run without requested packages")
		}
	}

	with := (Go{}).Command(model.ExecutionConfig{Packages: []string{"github.com/some/pkg"}})
	found := false
	for _, arg := range with {
		if strings.Contains(arg, "go mod download") {
			found = true
		}
	}
	if !found {
		t.Fatal("go mod download should run when packages are requested")
	}
}

func TestExecuteRejectsUnauthorizedPackagesBeforeTouchingSandbox(t *testing.T) {
	fs := &fakeSandbox{result: model.ExecutionResult{Stdout: "should not run"}}

	got := Execute(context.Background(), Python{}, fs, "import malicious_xyz",
		model.ExecutionConfig{Packages: []string{"malicious-xyz"}})

	if got.ErrorType != "UnauthorizedPackage" || got.ExitCode != -1 {
		t.Fatalf("got %+v, want UnauthorizedPackage with exit code -1", got)
	}
	if fs.gotSpec.Image != "" {
		t.Fatal("sandbox should never have been invoked")
	}
}

func TestExecuteRejectsAnyPackageForCSharp(t *testing.T) {
	fs := &fakeSandbox{}

	got := Execute(context.Background(), CSharp{}, fs, "class Program {}",
		model.ExecutionConfig{Packages: []string{"Newtonsoft.Json"}})

	if got.ErrorType != "UnauthorizedPackage" {
		t.Fatalf("got %+v, want UnauthorizedPackage", got)
	}
	if fs.gotSpec.Image != "" {
		t.Fatal("sandbox should never have been invoked")
	}
}

func TestCSharpIgnoresPackages(t *testing.T) {
	dir := t.TempDir()
	if err := (CSharp{}).Prepare(dir, "class Program {}", model.ExecutionConfig{Packages: []string{"whatever"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Program.csproj")); err != nil {
		t.Fatal("Program.csproj should always be written")
	}
}
