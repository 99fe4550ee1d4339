package estimate

import (
	"testing"

	"pathce/internal/catalog"
	"pathce/internal/common"
	"pathce/internal/decompose"
	"pathce/internal/pattern"
	"pathce/internal/statistics"
)

func openTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	s, err := catalog.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func buildPath(t *testing.T, startLabel, edgeLabel, endLabel common.LabelId) *pattern.PathPattern {
	t.Helper()
	p, err := pattern.NewRawPattern().
		PushVertex(0, startLabel).
		PushVertex(1, endLabel).
		PushEdge(0, 0, 1, edgeLabel).
		ToPath()
	if err != nil {
		t.Fatalf("build path: %v", err)
	}
	return p
}

// TestJoinSingleEdge estimates a single-edge pattern (A)-[e]->(B) whose
// path statistics carry one nonzero bucket cell, and checks the join
// engine reproduces that cell's count exactly: the pattern has two
// vertices and one edge, so a single eliminate_vertex step folds one
// endpoint away before finalize.
func TestJoinSingleEdge(t *testing.T) {
	s := openTestStore(t)
	path := buildPath(t, 0, 0, 1)
	labelID, err := s.AddPath(statistics.PathStatistics{
		Path:           path,
		Count:          [][]uint64{{5}},
		StartMaxDegree: [][]uint64{{2}},
		EndMaxDegree:   [][]uint64{{1}},
	})
	if err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	cp := decompose.NewCatalogPattern()
	cp.AddVertex(decompose.CatalogVertex{TagID: 0, LabelID: 0})
	cp.AddVertex(decompose.CatalogVertex{TagID: 1, LabelID: 1})
	cp.AddEdge(decompose.NewPathEdge(0, labelID, 0, 1))

	card, err := Join(cp, s.Conn(), s.NextTableID, nil)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if card != 5 {
		t.Fatalf("card = %v, want 5", card)
	}
}

// TestJoinStarThenPath chains a star edge (leaf fanning into a center)
// with a path edge from that same center to a third vertex, forcing
// one eliminate_vertex step before finalize.
func TestJoinStarThenPath(t *testing.T) {
	s := openTestStore(t)
	starPattern, err := pattern.NewRawPattern().
		PushVertex(0, 0).
		PushVertex(1, 1).
		PushEdge(0, 0, 1, 0).
		ToGeneral()
	if err != nil {
		t.Fatalf("build star pattern: %v", err)
	}
	centerRank, _ := starPattern.GetVertexRank(0)
	starLabelID, err := s.AddStar(statistics.StarStatistics{
		Star:       starPattern,
		CenterRank: centerRank,
		Count:      []uint64{10},
		MaxDegree:  []uint64{3},
	})
	if err != nil {
		t.Fatalf("AddStar: %v", err)
	}

	pathPattern := buildPath(t, 0, 1, 2)
	pathLabelID, err := s.AddPath(statistics.PathStatistics{
		Path:           pathPattern,
		Count:          [][]uint64{{4}},
		StartMaxDegree: [][]uint64{{2}},
		EndMaxDegree:   [][]uint64{{1}},
	})
	if err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	// The star's leaf is summarized statistically by the star shape
	// itself and is never a tracked CatalogPattern vertex — only the
	// center (tag 1) and the path's far endpoint (tag 2) are.
	cp := decompose.NewCatalogPattern()
	cp.AddVertex(decompose.CatalogVertex{TagID: 1, LabelID: 0})
	cp.AddVertex(decompose.CatalogVertex{TagID: 2, LabelID: 1})
	cp.AddEdge(decompose.NewStarEdge(0, starLabelID, 1))
	cp.AddEdge(decompose.NewPathEdge(1, pathLabelID, 1, 2))

	card, err := Join(cp, s.Conn(), s.NextTableID, nil)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if card <= 0 {
		t.Fatalf("card = %v, want > 0", card)
	}
}

func TestEstimatorEstimate(t *testing.T) {
	s := openTestStore(t)
	path := buildPath(t, 0, 0, 1)
	labelID, err := s.AddPath(statistics.PathStatistics{
		Path:           path,
		Count:          [][]uint64{{7}},
		StartMaxDegree: [][]uint64{{1}},
		EndMaxDegree:   [][]uint64{{1}},
	})
	if err != nil {
		t.Fatalf("AddPath: %v", err)
	}
	s.AddEdgeCount(labelID, 7)

	query, err := pattern.NewRawPattern().
		PushVertex(0, 0).
		PushVertex(1, 1).
		PushEdge(0, 0, 1, 0).
		ToGeneral()
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	card, err := NewEstimator(s).DisableStar(true).Estimate(query)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if card != 7 {
		t.Fatalf("card = %v, want 7", card)
	}
}
