// Package config collects the tunable knobs of the catalog build and
// estimate pipelines into two plain structs, populated by Go
// functional options. This is the idiomatic-Go rendition of the
// reference implementation's builder-pattern method chaining
// (.max_path_length(3).max_star_degree(4)...): rather than a fluent
// builder tied to one concrete type, BuildConfig/EstimateConfig are
// built from With* option funcs so cobra flag parsing in cmd/pathce
// can apply only the options a user actually set.
package config

import (
	"pathce/internal/binning"
	"pathce/internal/common"
)

// BuildConfig holds every catalog.Builder knob plus the worker count,
// populated from cobra's "analyze" flags and applied to a
// fresh catalog.Builder via its own chainable setters.
type BuildConfig struct {
	MaxPathLength      int
	MaxStarLength      int
	MaxStarDegree      int
	Buckets            int
	EnableGreedyBucket bool
	SaveBucketMap      bool
	Threads            int

	PkThreshold            float64
	SmallVarianceThreshold float64
}

// BuildOption mutates a BuildConfig; returned by the With* functions
// below so NewBuildConfig can apply a variadic list of them in order.
type BuildOption func(*BuildConfig)

// NewBuildConfig returns a BuildConfig seeded with the reference
// defaults (matching catalog.NewBuilder), then applies opts in order.
func NewBuildConfig(opts ...BuildOption) *BuildConfig {
	c := &BuildConfig{
		MaxPathLength:          3,
		MaxStarLength:          3,
		MaxStarDegree:          4,
		Buckets:                200,
		EnableGreedyBucket:     true,
		Threads:                0,
		PkThreshold:            0.99,
		SmallVarianceThreshold: 2.0,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithBuildMaxPathLength(n int) BuildOption { return func(c *BuildConfig) { c.MaxPathLength = n } }
func WithBuildMaxStarLength(n int) BuildOption { return func(c *BuildConfig) { c.MaxStarLength = n } }
func WithBuildMaxStarDegree(n int) BuildOption { return func(c *BuildConfig) { c.MaxStarDegree = n } }
func WithBuckets(n int) BuildOption            { return func(c *BuildConfig) { c.Buckets = n } }
func WithEnableGreedyBucket(v bool) BuildOption {
	return func(c *BuildConfig) { c.EnableGreedyBucket = v }
}
func WithSaveBucketMap(v bool) BuildOption { return func(c *BuildConfig) { c.SaveBucketMap = v } }
func WithThreads(n int) BuildOption        { return func(c *BuildConfig) { c.Threads = n } }

// WithPkThreshold overrides the greedy binner's primary-key-like
// column cutoff (see binning.PkThreshold).
func WithPkThreshold(v float64) BuildOption { return func(c *BuildConfig) { c.PkThreshold = v } }

// WithSmallVarianceThreshold overrides the greedy binner's minimum
// split-worthy variance (see binning.SmallVarianceThreshold).
func WithSmallVarianceThreshold(v float64) BuildOption {
	return func(c *BuildConfig) { c.SmallVarianceThreshold = v }
}

// ApplyThresholds pushes the greedy binner overrides onto package
// binning's package-level vars. Called once before catalog.Builder.Build
// so the override takes effect for every GreedyBinner it constructs.
func (c *BuildConfig) ApplyThresholds() {
	binning.PkThreshold = c.PkThreshold
	binning.SmallVarianceThreshold = c.SmallVarianceThreshold
}

// EstimateConfig holds every estimate.Estimator knob plus an optional
// caller-supplied elimination order, populated from cobra's
// "estimate" flags.
type EstimateConfig struct {
	MaxPathLength int
	MaxStarLength int
	MaxStarDegree int
	Limit         int
	DisableStar   bool
	DisablePrune  bool
	DisableCyclic bool
	Order         []common.TagId
}

// EstimateOption mutates an EstimateConfig.
type EstimateOption func(*EstimateConfig)

// NewEstimateConfig returns an EstimateConfig seeded with the
// reference defaults (matching estimate.NewEstimator), then applies
// opts in order.
func NewEstimateConfig(opts ...EstimateOption) *EstimateConfig {
	c := &EstimateConfig{
		MaxPathLength: 3,
		MaxStarLength: 3,
		MaxStarDegree: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithEstimateMaxPathLength(n int) EstimateOption {
	return func(c *EstimateConfig) { c.MaxPathLength = n }
}
func WithEstimateMaxStarLength(n int) EstimateOption {
	return func(c *EstimateConfig) { c.MaxStarLength = n }
}
func WithEstimateMaxStarDegree(n int) EstimateOption {
	return func(c *EstimateConfig) { c.MaxStarDegree = n }
}
func WithLimit(n int) EstimateOption        { return func(c *EstimateConfig) { c.Limit = n } }
func WithDisableStar(v bool) EstimateOption { return func(c *EstimateConfig) { c.DisableStar = v } }
func WithDisablePrune(v bool) EstimateOption {
	return func(c *EstimateConfig) { c.DisablePrune = v }
}
func WithDisableCyclic(v bool) EstimateOption {
	return func(c *EstimateConfig) { c.DisableCyclic = v }
}
func WithOrder(order []common.TagId) EstimateOption {
	return func(c *EstimateConfig) { c.Order = order }
}
