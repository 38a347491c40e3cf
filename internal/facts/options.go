package facts

// DefaultMaxDepth bounds call tree expansion when no explicit depth is
// configured.
const DefaultMaxDepth = 10

// Options carries the per-run analysis knobs alongside the facts
// document itself.
type Options struct {
	// MaxDepth bounds traversal from each entry point. Zero selects
	// DefaultMaxDepth; values below one are clamped to one.
	MaxDepth int

	// ExcludeDependencies hides dependency-owned listings and suppresses
	// writer relationships whose every write site is dependency code.
	ExcludeDependencies bool

	// ExpandDependencies expands call trees through dependency code even
	// when dependency listings are excluded.
	ExpandDependencies bool

	// DependencyDirs overrides DefaultDependencyDirs when non-empty.
	DependencyDirs []string

	// DependencyPaths are extra glob patterns classified as dependency
	// code, matched against the whole relative path.
	DependencyPaths []string

	// FilterPaths are glob patterns whose matching files are dropped
	// from the run before analysis.
	FilterPaths []string

	// Workers caps concurrent per-contract analysis. Zero or less means
	// one worker per CPU.
	Workers int
}

// EffectiveMaxDepth resolves the configured depth to the bound actually
// applied during traversal.
func (o Options) EffectiveMaxDepth() int {
	if o.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	if o.MaxDepth < 1 {
		return 1
	}
	return o.MaxDepth
}

// Classifier builds the path classifier for these options.
func (o Options) Classifier() (*PathClassifier, error) {
	return NewPathClassifier(o.DependencyDirs, o.DependencyPaths, o.FilterPaths)
}
