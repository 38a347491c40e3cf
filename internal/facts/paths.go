package facts

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/nisedo/Trackidity/internal/shared/util"
)

// DefaultDependencyDirs are path segments that mark vendored, test or
// script code in common Solidity project layouts.
var DefaultDependencyDirs = []string{
	"lib",
	"dependencies",
	"test",
	"tests",
	"script",
	"scripts",
	"node_modules",
	"mock",
	"mocks",
}

// PathClassifier decides whether a source path belongs to dependency
// code and whether it is filtered out of the run entirely.
type PathClassifier struct {
	depDirs     map[string]bool
	depPatterns []glob.Glob
	filters     []glob.Glob
}

// NewPathClassifier compiles the dependency and filter patterns. An empty
// dir list falls back to DefaultDependencyDirs; pass filter patterns to
// drop whole files before analysis.
func NewPathClassifier(depDirs, depPatterns, filterPatterns []string) (*PathClassifier, error) {
	if len(depDirs) == 0 {
		depDirs = DefaultDependencyDirs
	}
	c := &PathClassifier{depDirs: make(map[string]bool, len(depDirs))}
	for _, d := range depDirs {
		segment := strings.Trim(d, "/")
		if strings.ContainsAny(segment, `/\`) {
			return nil, fmt.Errorf("dependency dir %q must be a single path segment; use a dependency path pattern instead", d)
		}
		c.depDirs[segment] = true
	}
	for _, p := range depPatterns {
		g, err := glob.Compile(util.NormalizePath(p), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid dependency pattern %q: %w", p, err)
		}
		c.depPatterns = append(c.depPatterns, g)
	}
	for _, p := range filterPatterns {
		g, err := glob.Compile(util.NormalizePath(p), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", p, err)
		}
		c.filters = append(c.filters, g)
	}
	return c, nil
}

// IsDependency reports whether the path sits under a dependency
// directory or matches a configured dependency pattern.
func (c *PathClassifier) IsDependency(path string) bool {
	normalized := normalizePath(path)
	for _, part := range strings.Split(normalized, "/") {
		if c.depDirs[part] {
			return true
		}
	}
	for _, g := range c.depPatterns {
		if g.Match(normalized) {
			return true
		}
	}
	return false
}

// IsFiltered reports whether the path is excluded from the run entirely.
func (c *PathClassifier) IsFiltered(path string) bool {
	normalized := normalizePath(path)
	for _, g := range c.filters {
		if g.Match(normalized) {
			return true
		}
	}
	return false
}

// FilterUnit returns a copy of the unit without contracts whose file
// matches a filter pattern. The input unit is left untouched.
func (c *PathClassifier) FilterUnit(unit *Unit) *Unit {
	if len(c.filters) == 0 {
		return unit
	}
	filtered := &Unit{Version: unit.Version, Root: unit.Root}
	for _, contract := range unit.Contracts {
		if c.IsFiltered(contract.File) {
			continue
		}
		filtered.Contracts = append(filtered.Contracts, contract)
	}
	return filtered
}

func normalizePath(path string) string {
	return strings.Trim(strings.ReplaceAll(path, "\\", "/"), "/")
}
