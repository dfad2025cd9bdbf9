package runtime

import (
	"os"
	"path/filepath"

	"github.com/aggieforge/coderunner/model"
)

const csharpImage = "mcr.microsoft.com/dotnet/sdk:8.0"

const csproj = `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <OutputType>Exe</OutputType>
    <TargetFramework>net8.0</TargetFramework>
    <ImplicitUsings>disable</ImplicitUsings>
    <Nullable>disable</Nullable>
  </PropertyGroup>
</Project>
`

// CSharp is grounded on original_source/src/runtime/csharp_runtime.py: it
// always writes a fixed Program.csproj alongside Program.cs, then runs
// "dotnet run" from a scratch build directory. Unlike Python/JavaScript/Go,
// the original carries no package-install path for C#, so Command ignores
// cfg.Packages entirely. In practice Command never sees a non-empty list:
// Execute calls packages.Check before Prepare/Command run at all, and
// csharp has no whitelist entry, so any requested package is rejected as
// UnauthorizedPackage before this runtime is invoked.
type CSharp struct{}

func (CSharp) LanguageName() string { return "csharp" }
func (CSharp) Image() string        { return csharpImage }

func (CSharp) Prepare(dir, code string, _ model.ExecutionConfig) error {
	if err := os.WriteFile(filepath.Join(dir, "Program.csproj"), []byte(csproj), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "Program.cs"), []byte(code), 0o644)
}

func (CSharp) Command(model.ExecutionConfig) []string {
	return []string{
		"/bin/sh", "-c",
		"mkdir -p /tmp/build && cp -r /workspace/* /tmp/build/ && cd /tmp/build && " +
			"export DOTNET_CLI_HOME=/tmp DOTNET_SKIP_FIRST_TIME_EXPERIENCE=1 DOTNET_CLI_TELEMETRY_OPTOUT=1; " +
			"dotnet run",
	}
}
