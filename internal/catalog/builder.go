package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"pathce/internal/binning"
	"pathce/internal/common"
	"pathce/internal/graph"
	"pathce/internal/pattern"
	"pathce/internal/sample"
	"pathce/internal/schema"
	"pathce/internal/statistics"
	"pathce/internal/workerpool"
)

// Builder assembles a Store from a schema and graph: it generates
// every length-1 path shape, bins each vertex label's ids into
// buckets (hash or sample-driven greedy), runs the statistics analyzer
// over every path/star shape up to the configured bounds, and loads
// the results into a fresh Store.
type Builder struct {
	schema *schema.Schema
	graph  *graph.LabeledGraph
	pool   *workerpool.Pool

	maxPathLength      int
	maxStarLength      int
	maxStarDegree      int
	buckets            int
	enableGreedyBucket bool
	saveBucketMap      bool
	skipPath           bool
}

// NewBuilder returns a Builder with the reference defaults: 3-edge
// paths and stars, degree-4 stars, 200 buckets, greedy binning on.
func NewBuilder(s *schema.Schema, g *graph.LabeledGraph, pool *workerpool.Pool) *Builder {
	return &Builder{
		schema:             s,
		graph:              g,
		pool:               pool,
		maxPathLength:      3,
		maxStarLength:      3,
		maxStarDegree:      4,
		buckets:            200,
		enableGreedyBucket: true,
	}
}

func (b *Builder) MaxPathLength(n int) *Builder      { b.maxPathLength = n; return b }
func (b *Builder) MaxStarLength(n int) *Builder      { b.maxStarLength = n; return b }
func (b *Builder) MaxStarDegree(n int) *Builder      { b.maxStarDegree = n; return b }
func (b *Builder) Buckets(n int) *Builder            { b.buckets = n; return b }
func (b *Builder) EnableGreedyBucket(v bool) *Builder { b.enableGreedyBucket = v; return b }
func (b *Builder) SaveBucketMap(v bool) *Builder     { b.saveBucketMap = v; return b }
func (b *Builder) SkipPath(v bool) *Builder          { b.skipPath = v; return b }

// Build runs the full pipeline and returns a Store backed by dir.
func (b *Builder) Build(dir string) (*Store, error) {
	start := time.Now()
	edges := b.schema.GeneratePaths(1)
	slog.Debug("catalog: path generation done", "s", time.Since(start).Seconds(), "count", len(edges))

	start = time.Now()
	var bucketMap common.GlobalBucketMap
	if b.enableGreedyBucket {
		bucketMap = b.greedyBinning(edges)
	} else {
		bucketMap = binning.HashBinning(b.schema, b.graph, b.buckets)
	}
	slog.Debug("catalog: binning done", "s", time.Since(start).Seconds())

	analyzer := statistics.New(b.graph, b.schema, bucketMap, b.buckets, b.maxPathLength, b.maxStarLength, b.maxStarDegree, b.pool)

	var pathStats map[string]statistics.PathStatistics
	if !b.skipPath {
		start = time.Now()
		pathStats = analyzer.ComputePathStatistics()
		slog.Debug("catalog: path statistics done", "s", time.Since(start).Seconds(), "count", len(pathStats))
	}

	start = time.Now()
	starStats := analyzer.ComputeStarStatistics()
	slog.Debug("catalog: star statistics done", "s", time.Since(start).Seconds(), "count", len(starStats))

	start = time.Now()
	store, err := Open(dir)
	if err != nil {
		return nil, err
	}
	for _, stats := range orderedPathStats(pathStats) {
		if _, err := store.AddPath(stats); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("catalog: build: %w", err)
		}
	}
	for _, stats := range starStats {
		if _, err := store.AddStar(stats); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("catalog: build: %w", err)
		}
	}

	for _, e := range b.schema.Edges() {
		count, ok := b.graph.GetNumEdges(e.Label)
		if !ok {
			_ = store.Close()
			return nil, fmt.Errorf("catalog: build: no edge count for label %d", e.Label)
		}
		store.AddEdgeCount(e.Label, count)
	}

	if b.saveBucketMap {
		for labelID, local := range bucketMap {
			if err := store.AddBucketMap(labelID, local); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
	}
	slog.Debug("catalog: build done", "s", time.Since(start).Seconds())
	return store, nil
}

// orderedPathStats returns pathStats' values sorted by canonical code,
// for deterministic LabelId assignment across runs.
func orderedPathStats(m map[string]statistics.PathStatistics) []statistics.PathStatistics {
	out := make([]statistics.PathStatistics, 0, len(m))
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		out = append(out, m[code])
	}
	return out
}

// greedyBinning spends each vertex label's bucket budget on whichever
// buckets show the largest join-key skew, observed by sampling every
// length-1 edge shape's (start, end) column pair in both directions.
func (b *Builder) greedyBinning(basePaths []*pattern.PathPattern) common.GlobalBucketMap {
	binners := make(map[common.LabelId]*binning.GreedyBinner, len(b.schema.Vertices()))
	for _, v := range b.schema.Vertices() {
		vertices, _ := b.graph.Vertices(v.Label)
		binners[v.Label] = binning.NewGreedyBinner(b.buckets, vertices)
	}

	sampler := sample.New(b.graph)
	for i, path := range basePaths {
		start, end := path.Start(), path.End()
		if binners[start.LabelID].ShouldFinish() && binners[end.LabelID].ShouldFinish() {
			slog.Debug("catalog: binning sample skipped", "i", i, "path", path.String())
			continue
		}

		table := sampler.Sample(path)
		startCol, _ := table.GetColumn(start.TagID)
		endCol, _ := table.GetColumn(end.TagID)
		binners[start.LabelID].Update(startCol, endCol)
		binners[end.LabelID].Update(endCol, startCol)
	}

	out := make(common.GlobalBucketMap, len(binners))
	for labelID, binner := range binners {
		out[labelID] = binner.Finish()
	}
	return out
}
