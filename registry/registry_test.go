package registry

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/aggieforge/coderunner/runtime"
)

func TestDefaultRegistryResolvesAliases(t *testing.T) {
	r := Default()

	cases := map[string]string{
		"python": "python", "py": "python",
		"javascript": "javascript", "js": "javascript", "nodejs": "javascript", "node": "javascript",
		"csharp": "csharp", "cs": "csharp", "dotnet": "csharp",
		"go": "go", "golang": "go",
		"PYTHON": "python",
	}
	for alias, want := range cases {
		rt, ok := r.Get(alias)
		if !ok {
			t.Fatalf("Get(%q): not found", alias)
		}
		if rt.LanguageName() != want {
			t.Fatalf("Get(%q).LanguageName() = %q, want %q", alias, rt.LanguageName(), want)
		}
	}
}

func TestUnknownLanguageNotSupported(t *testing.T) {
	r := Default()
	if r.IsSupported("ruby") {
		t.Fatal("ruby should not be supported by default registry")
	}
	if _, ok := r.Get("ruby"); ok {
		t.Fatal("Get(ruby) should report not found")
	}
}

func TestRegisterOverwritesEarlierBinding(t *testing.T) {
	r := New()
	r.Register(runtime.Python{}, "snek")
	r.Register(runtime.Go{}, "snek")

	rt, ok := r.Get("snek")
	if !ok || rt.LanguageName() != "go" {
		t.Fatalf("expected later registration to win, got %+v ok=%v", rt, ok)
	}
}

func TestLanguagesListsCanonicalNamesOnce(t *testing.T) {
	r := Default()
	names := r.Languages()
	if len(names) != 4 {
		t.Fatalf("Languages() = %v, want 4 entries", names)
	}
}

func TestRegisteredIDsIncludesAliases(t *testing.T) {
	r := Default()
	ids := r.RegisteredIDs()
	// python, py, javascript, js, nodejs, node, csharp, cs, dotnet, go, golang
	if len(ids) != 11 {
		t.Fatalf("RegisteredIDs() = %v, want 11 entries", ids)
	}
	for _, want := range []string{"py", "node", "dotnet", "golang"} {
		found := false
		for _, id := range ids {
			if id == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("RegisteredIDs() = %v, missing alias %q", ids, want)
		}
	}
}

func TestDefaultAvailableSkipsRuntimesWithMissingImages(t *testing.T) {
	present := func(_ context.Context, image string) bool {
		return image != runtime.CSharp{}.Image()
	}

	r := DefaultAvailable(context.Background(), present, zap.NewNop())

	if r.IsSupported("csharp") {
		t.Fatal("csharp should have been skipped: its image was reported missing")
	}
	for _, lang := range []string{"python", "javascript", "go"} {
		if !r.IsSupported(lang) {
			t.Fatalf("%s should still be registered when its image is present", lang)
		}
	}
}

func TestDefaultAvailableWithNilPresentRegistersEverything(t *testing.T) {
	r := DefaultAvailable(context.Background(), nil, nil)
	if len(r.Languages()) != 4 {
		t.Fatalf("Languages() = %v, want all 4 built-ins with a nil presence check", r.Languages())
	}
}
