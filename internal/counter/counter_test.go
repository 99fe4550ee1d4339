package counter

import (
	"testing"

	"pathce/internal/common"
	"pathce/internal/graph"
	"pathce/internal/pattern"
	"pathce/internal/workerpool"
)

const (
	personLabel common.LabelId = 0
	postLabel   common.LabelId = 1
	likesLabel  common.LabelId = 0
)

// buildTestGraph wires 2 persons liking 2 posts: 10 likes {20,21}, 11
// likes {20}, so the one-edge path (person)-[likes]->(post) has 3
// matches and the star "person liking two posts" centered on a person
// has degree 2 for vertex 10 and degree 1 for vertex 11.
func buildTestGraph(t *testing.T) *graph.LabeledGraph {
	t.Helper()
	pool := workerpool.New(2)
	b := graph.NewBuilder(pool).
		AddVertexLabel(personLabel).
		AddVertexLabel(postLabel).
		AddEdgeLabel(likesLabel, personLabel, postLabel).
		AddVertex(10, personLabel).
		AddVertex(11, personLabel).
		AddVertex(20, postLabel).
		AddVertex(21, postLabel).
		AddEdge(10, 20, likesLabel).
		AddEdge(10, 21, likesLabel).
		AddEdge(11, 20, likesLabel)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func buildTestPath(t *testing.T) *pattern.PathPattern {
	t.Helper()
	p, err := pattern.NewRawPattern().
		PushVertex(0, personLabel).
		PushVertex(1, postLabel).
		PushEdge(0, 0, 1, likesLabel).
		ToPath()
	if err != nil {
		t.Fatalf("build path: %v", err)
	}
	return p
}

func TestPathCounterCount(t *testing.T) {
	g := buildTestGraph(t)
	counter := NewPathCounter(g, workerpool.New(2))
	count, err := counter.Count(buildTestPath(t))
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %v, want 3", count)
	}
}

func TestStarCounterCount(t *testing.T) {
	g := buildTestGraph(t)
	star, err := pattern.NewRawPattern().
		PushVertex(0, personLabel).
		PushVertex(1, postLabel).
		PushVertex(2, postLabel).
		PushEdge(0, 0, 1, likesLabel).
		PushEdge(1, 0, 2, likesLabel).
		ToGeneral()
	if err != nil {
		t.Fatalf("build star: %v", err)
	}
	counter := NewStarCounter(g, workerpool.New(2))
	count, err := counter.Count(star)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	// vertex 10 has outgoing degree 2 along both likes adjacencies
	// (2*2=4), vertex 11 has outgoing degree 1 (1*1=1): total 5.
	if count != 5 {
		t.Fatalf("count = %v, want 5", count)
	}
}
