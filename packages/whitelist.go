// Package packages holds the per-language package whitelist: the mechanism
// a Runtime consults before installing caller-requested dependencies. The
// membership lists are data, ported from
// original_source/src/common/packages.py; the matching logic is the part
// actually in scope.
package packages

import (
	"fmt"
	"strings"
)

// pythonWhitelist mirrors original_source's PYTHON_WHITELIST.
var pythonWhitelist = newSet(
	"numpy", "pandas", "requests", "scipy", "matplotlib",
	"pillow", "pytest", "flask", "django", "beautifulsoup4",
)

// javascriptWhitelist mirrors original_source's JAVASCRIPT_WHITELIST.
var javascriptWhitelist = newSet(
	"lodash", "axios", "moment", "express", "react",
	"vue", "jest", "mocha", "chalk", "commander",
)

func newSet(names ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[strings.ToLower(n)] = struct{}{}
	}
	return s
}

// whitelistFor returns the whitelist for a language id, and whether that
// language has one at all. Languages without a whitelist (e.g. C#) reject
// all non-empty package lists, per spec.md 4.B.
func whitelistFor(language string) (map[string]struct{}, bool) {
	switch strings.ToLower(language) {
	case "python", "py":
		return pythonWhitelist, true
	case "javascript", "js", "nodejs", "node":
		return javascriptWhitelist, true
	default:
		return nil, false
	}
}

// Validate reports whether every entry of requested is whitelisted for
// language (case-insensitive), and returns the offending entries otherwise.
// An empty requested list is always valid.
func Validate(language string, requested []string) (ok bool, rejected []string) {
	if len(requested) == 0 {
		return true, nil
	}

	whitelist, hasWhitelist := whitelistFor(language)
	if !hasWhitelist {
		return false, append([]string(nil), requested...)
	}

	for _, pkg := range requested {
		if _, allowed := whitelist[strings.ToLower(pkg)]; !allowed {
			rejected = append(rejected, pkg)
		}
	}
	return len(rejected) == 0, rejected
}

// UnauthorizedPackageError reports that a caller requested one or more
// packages outside a language's whitelist. Runtime.Execute returns it
// before a container is ever created (spec.md 4.B), and the dispatcher
// checks for it right after the registry lookup, before the runtime is
// invoked or a job is queued.
type UnauthorizedPackageError struct {
	Language string
	Rejected []string
}

func (e *UnauthorizedPackageError) Error() string {
	return fmt.Sprintf("unauthorized package(s) for %s: %s", e.Language, strings.Join(e.Rejected, ", "))
}

// Check validates requested against language's whitelist and returns an
// *UnauthorizedPackageError naming the offending entries, or nil if
// requested is empty or every entry is whitelisted.
func Check(language string, requested []string) error {
	ok, rejected := Validate(language, requested)
	if ok {
		return nil
	}
	return &UnauthorizedPackageError{Language: language, Rejected: rejected}
}
