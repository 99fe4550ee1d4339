package graph

import (
	"testing"

	"pathce/internal/common"
	"pathce/internal/workerpool"
)

const (
	personLabel common.LabelId = 0
	postLabel   common.LabelId = 1
	likesLabel  common.LabelId = 0
)

func buildTestGraph(t *testing.T) *LabeledGraph {
	t.Helper()
	pool := workerpool.New(2)
	b := NewBuilder(pool).
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

func TestBuilderBuild(t *testing.T) {
	g := buildTestGraph(t)
	if n, ok := g.GetNumEdges(likesLabel); !ok || n != 3 {
		t.Errorf("GetNumEdges = %d, %v, want 3, true", n, ok)
	}
	persons, ok := g.Vertices(personLabel)
	if !ok || len(persons) != 2 {
		t.Fatalf("Vertices(person) = %v, %v", persons, ok)
	}
	out, ok := g.OutgoingNeighbors(LabeledVertex{ID: 10, LabelID: personLabel}, likesLabel)
	if !ok {
		t.Fatal("OutgoingNeighbors not found")
	}
	if len(out) != 2 || out[0] != 20 || out[1] != 21 {
		t.Errorf("OutgoingNeighbors(10) = %v, want [20 21]", out)
	}
	in, ok := g.IncomingNeighbors(LabeledVertex{ID: 20, LabelID: postLabel}, likesLabel)
	if !ok {
		t.Fatal("IncomingNeighbors not found")
	}
	if len(in) != 2 || in[0] != 10 || in[1] != 11 {
		t.Errorf("IncomingNeighbors(20) = %v, want [10 11]", in)
	}
	if deg, ok := g.OutgoingDegree(LabeledVertex{ID: 11, LabelID: personLabel}, likesLabel); !ok || deg != 1 {
		t.Errorf("OutgoingDegree(11) = %d, %v, want 1, true", deg, ok)
	}
}

func TestBuilderRejectsDuplicateVertex(t *testing.T) {
	pool := workerpool.New(1)
	b := NewBuilder(pool).
		AddVertexLabel(personLabel).
		AddVertex(10, personLabel).
		AddVertex(10, personLabel)
	if _, err := b.Build(); err == nil {
		t.Error("expected error for duplicate vertex id")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	g := buildTestGraph(t)
	path := t.TempDir() + "/graph.gob"
	if err := g.Export(path); err != nil {
		t.Fatalf("Export: %v", err)
	}
	g2, err := Import(path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	out, ok := g2.OutgoingNeighbors(LabeledVertex{ID: 10, LabelID: personLabel}, likesLabel)
	if !ok || len(out) != 2 {
		t.Fatalf("round-tripped OutgoingNeighbors(10) = %v, %v", out, ok)
	}
}
