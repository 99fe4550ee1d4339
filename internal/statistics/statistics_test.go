package statistics

import (
	"testing"

	"pathce/internal/binning"
	"pathce/internal/common"
	"pathce/internal/graph"
	"pathce/internal/schema"
	"pathce/internal/workerpool"
)

const (
	personLabel common.LabelId = 0
	postLabel   common.LabelId = 1
	likesLabel  common.LabelId = 0
)

func buildTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder().
		AddVertexLabel("Person", personLabel).
		AddVertexLabel("Post", postLabel).
		AddEdgeLabel("Likes", likesLabel).
		AddVertex(schema.Vertex{Label: personLabel}).
		AddVertex(schema.Vertex{Label: postLabel}).
		AddEdge(schema.Edge{From: personLabel, To: postLabel, Label: likesLabel, Card: common.ManyToMany}).
		Build()
	if err != nil {
		t.Fatalf("schema Build: %v", err)
	}
	return s
}

func buildTestGraph(t *testing.T) *graph.LabeledGraph {
	t.Helper()
	pool := workerpool.New(2)
	g, err := graph.NewBuilder(pool).
		AddVertexLabel(personLabel).
		AddVertexLabel(postLabel).
		AddEdgeLabel(likesLabel, personLabel, postLabel).
		AddVertex(10, personLabel).
		AddVertex(11, personLabel).
		AddVertex(20, postLabel).
		AddVertex(21, postLabel).
		AddEdge(10, 20, likesLabel).
		AddEdge(10, 21, likesLabel).
		AddEdge(11, 20, likesLabel).
		Build()
	if err != nil {
		t.Fatalf("graph Build: %v", err)
	}
	return g
}

func newTestAnalyzer(t *testing.T, buckets int) *Analyzer {
	t.Helper()
	s := buildTestSchema(t)
	g := buildTestGraph(t)
	bucketMap := binning.HashBinning(s, g, buckets)
	pool := workerpool.New(2)
	return New(g, s, bucketMap, buckets, 2, 2, 4, pool)
}

func TestComputePathStatisticsCoversLengthOnePaths(t *testing.T) {
	a := newTestAnalyzer(t, 2)
	results := a.ComputePathStatistics()
	if len(results) == 0 {
		t.Fatal("expected at least one path statistics entry")
	}
	for code, stat := range results {
		if stat.Count == nil || stat.StartMaxDegree == nil || stat.EndMaxDegree == nil {
			t.Fatalf("path %x: missing matrices: %+v", code, stat)
		}
		if len(stat.Count) != 2 {
			t.Fatalf("path %x: Count has %d rows, want 2 buckets", code, len(stat.Count))
		}
	}
}

func TestComputeStarStatisticsCoversSingleVertex(t *testing.T) {
	a := newTestAnalyzer(t, 2)
	results := a.ComputeStarStatistics()
	if len(results) == 0 {
		t.Fatal("expected at least one star statistics entry")
	}
	for key, stat := range results {
		if len(stat.Count) != 2 || len(stat.MaxDegree) != 2 {
			t.Fatalf("star %v: Count/MaxDegree length mismatch: %+v", key, stat)
		}
	}
}

func TestComputePathStatisticsTotalCountMatchesEdgeCount(t *testing.T) {
	a := newTestAnalyzer(t, 1)
	results := a.ComputePathStatistics()
	var total uint64
	for _, stat := range results {
		if len(stat.Path.Edges()) != 1 {
			continue
		}
		total += stat.Count[0][0]
	}
	// With a single bucket, the single-edge Likes path's total count
	// across the one (start,end) bucket pair equals the number of
	// directed walks of that shape: one per Likes edge, 3 in all.
	if total != 3 {
		t.Fatalf("total walk count = %d, want 3", total)
	}
}
