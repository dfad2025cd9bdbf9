// Package registry implements the process-wide Runtime Registry (spec.md
// 4.C): a read-mostly, case-insensitive map from language id (and alias)
// to a Runtime. Grounded on original_source/src/runtime/registry.py's
// RuntimeRegistry singleton and initialize_default_runtimes.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aggieforge/coderunner/runtime"
)

// Registry resolves a language id to the Runtime that implements it.
type Registry struct {
	mu       sync.RWMutex
	runtimes map[string]runtime.Runtime
}

// New returns an empty registry. Use Default for one pre-populated with
// the built-in languages.
func New() *Registry {
	return &Registry{runtimes: make(map[string]runtime.Runtime)}
}

// Register binds id and every alias (case-insensitive) to rt. A later
// call for the same id overwrites the earlier binding.
func (r *Registry) Register(rt runtime.Runtime, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := append([]string{rt.LanguageName()}, aliases...)
	for _, id := range ids {
		r.runtimes[strings.ToLower(id)] = rt
	}
}

// Get resolves a language id to its Runtime. ok is false for any id that
// was never registered.
func (r *Registry) Get(language string) (rt runtime.Runtime, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok = r.runtimes[strings.ToLower(language)]
	return rt, ok
}

// IsSupported is a convenience wrapper around Get.
func (r *Registry) IsSupported(language string) bool {
	_, ok := r.Get(language)
	return ok
}

// Languages returns the canonical (non-alias) language names currently
// registered, sorted is left to the caller.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, rt := range r.runtimes {
		name := rt.LanguageName()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// RegisteredIDs returns every id currently bound in the registry,
// canonical names and aliases alike, sorted. This is what spec.md 6's
// GET /languages reports; use Languages for the deduplicated canonical
// set instead.
func (r *Registry) RegisteredIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.runtimes))
	for id := range r.runtimes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// String satisfies fmt.Stringer for debug logging.
func (r *Registry) String() string {
	return fmt.Sprintf("registry(%v)", r.Languages())
}

// candidate pairs a built-in Runtime with the aliases it registers under.
type candidate struct {
	rt      runtime.Runtime
	aliases []string
}

// builtins lists the four languages original_source ships by default.
func builtins() []candidate {
	return []candidate{
		{runtime.Python{}, []string{"py"}},
		{runtime.JavaScript{}, []string{"js", "nodejs", "node"}},
		{runtime.CSharp{}, []string{"cs", "dotnet"}},
		{runtime.Go{}, []string{"golang"}},
	}
}

// Default builds a Registry pre-populated with the four built-in
// languages unconditionally, no image-presence check performed. Intended
// for tests and any caller that doesn't have a Docker client handy; use
// DefaultAvailable for the production warn-and-skip wiring.
func Default() *Registry {
	r := New()
	for _, c := range builtins() {
		r.Register(c.rt, c.aliases...)
	}
	return r
}

// ImagePresent reports whether image already exists on the local Docker
// host, without pulling it.
type ImagePresent func(ctx context.Context, image string) bool

// DefaultAvailable builds a Registry the same way Default does, except
// each built-in language is registered only if present reports its image
// already exists locally. A language whose image is missing is logged as
// a warning and simply skipped, per spec.md 4.C; the remaining languages
// stay usable. Passing a nil present behaves exactly like Default.
func DefaultAvailable(ctx context.Context, present ImagePresent, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}

	r := New()
	for _, c := range builtins() {
		if present != nil && !present(ctx, c.rt.Image()) {
			log.Warn("runtime image not present at startup, skipping registration",
				zap.String("language", c.rt.LanguageName()),
				zap.String("image", c.rt.Image()),
			)
			continue
		}
		r.Register(c.rt, c.aliases...)
	}
	return r
}
