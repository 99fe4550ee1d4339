package decompose

import (
	"reflect"
	"testing"

	"pathce/internal/catalog"
	"pathce/internal/common"
	"pathce/internal/pattern"
)

func buildTestCatalog(t *testing.T) *catalog.MockCatalog {
	t.Helper()
	cat := catalog.NewMockCatalog()

	p := mustPath(t, [][2]common.TagId{{0, 0}, {1, 0}}, [][4]common.TagId{{0, 0, 1, 0}})
	if id := cat.AddPath(p); id != 0 {
		t.Fatalf("path 0 got label %d", id)
	}
	p = mustPath(t, [][2]common.TagId{{0, 0}, {1, 0}, {2, 0}}, [][4]common.TagId{{0, 0, 1, 0}, {1, 1, 2, 0}})
	if id := cat.AddPath(p); id != 1 {
		t.Fatalf("path 1 got label %d", id)
	}

	single := pattern.NewRawPattern()
	single.PushVertex(0, 0)
	starSingle, err := single.ToGeneral()
	if err != nil {
		t.Fatalf("single vertex star: %v", err)
	}
	if id := cat.AddStar(starSingle, 0); id != 0 {
		t.Fatalf("star 0 got label %d", id)
	}

	edgeStar := mustGeneral(t, [][2]common.TagId{{0, 0}, {1, 0}}, [][4]common.TagId{{0, 0, 1, 0}})
	rankS, _ := edgeStar.GetVertexRank(0)
	rankT, _ := edgeStar.GetVertexRank(1)
	if id := cat.AddStar(edgeStar, rankS); id != 1 {
		t.Fatalf("star 1 got label %d", id)
	}
	if id := cat.AddStar(edgeStar, rankT); id != 2 {
		t.Fatalf("star 2 got label %d", id)
	}

	pathStar := mustGeneral(t, [][2]common.TagId{{0, 0}, {1, 0}, {2, 0}}, [][4]common.TagId{{0, 0, 1, 0}, {1, 1, 2, 0}})
	rankS, _ = pathStar.GetVertexRank(0)
	rankT, _ = pathStar.GetVertexRank(2)
	rankM, _ := pathStar.GetVertexRank(1)
	if id := cat.AddStar(pathStar, rankS); id != 3 {
		t.Fatalf("star 3 got label %d", id)
	}
	if id := cat.AddStar(pathStar, rankT); id != 4 {
		t.Fatalf("star 4 got label %d", id)
	}
	if id := cat.AddStar(pathStar, rankM); id != 5 {
		t.Fatalf("star 5 got label %d", id)
	}

	cat.AddEdgeCount(0, 123)
	cat.AddEdgeCount(1, 456)
	return cat
}

func mustPath(t *testing.T, vertices [][2]common.TagId, edges [][4]common.TagId) *pattern.PathPattern {
	t.Helper()
	raw := pattern.NewRawPattern()
	for _, v := range vertices {
		raw.PushVertex(v[0], common.LabelId(v[1]))
	}
	for _, e := range edges {
		raw.PushEdge(e[0], e[1], e[2], common.LabelId(e[3]))
	}
	p, err := raw.ToPath()
	if err != nil {
		t.Fatalf("to path: %v", err)
	}
	return p
}

func mustGeneral(t *testing.T, vertices [][2]common.TagId, edges [][4]common.TagId) *pattern.GeneralPattern {
	t.Helper()
	raw := pattern.NewRawPattern()
	for _, v := range vertices {
		raw.PushVertex(v[0], common.LabelId(v[1]))
	}
	for _, e := range edges {
		raw.PushEdge(e[0], e[1], e[2], common.LabelId(e[3]))
	}
	p, err := raw.ToGeneral()
	if err != nil {
		t.Fatalf("to general: %v", err)
	}
	return p
}

// TestHeuristicDecomposeAcyclic exercises decomposeAcyclic directly on a
// pattern that happens to contain a parallel-edge cycle between its two
// pivots: decomposeAcyclic itself only ever looks at candidate paths and
// degrees, so it is well-defined regardless of the pattern's overall
// cyclicity (the top-level Decompose entry point is what chooses whether
// to route a cyclic pattern through spanning trees instead).
func TestHeuristicDecomposeAcyclic(t *testing.T) {
	cat := buildTestCatalog(t)
	decom := NewHeuristicDecomposer(cat, 2, 0, 0, 0, false, true, true)
	p := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}},
		[][4]common.TagId{
			{0, 0, 2, 0},
			{1, 2, 1, 0},
			{2, 2, 3, 0},
			{3, 2, 3, 0},
			{4, 3, 4, 0},
			{5, 5, 3, 0},
		},
	)

	cp := decom.decomposeAcyclic(p)

	wantVertices := []CatalogVertex{{TagID: 2, LabelID: 0}, {TagID: 3, LabelID: 0}}
	if !sameVertexSet(cp.Vertices(), wantVertices) {
		t.Fatalf("vertices = %+v, want %+v", cp.Vertices(), wantVertices)
	}

	wantEdges := []CatalogEdge{
		NewStarEdge(1, 1, 2),
		NewPathEdge(2, 0, 2, 3),
		NewPathEdge(3, 0, 2, 3),
		NewStarEdge(0, 2, 2),
		NewStarEdge(4, 1, 3),
		NewStarEdge(5, 2, 3),
	}
	if !sameEdgeSet(cp.Edges(), wantEdges) {
		t.Fatalf("edges = %+v, want %+v", cp.Edges(), wantEdges)
	}
}

func TestHeuristicTranslatePath(t *testing.T) {
	cat := buildTestCatalog(t)
	decom := NewHeuristicDecomposer(cat, 2, 999, 999, 0, true, true, true)

	p := mustGeneral(t, [][2]common.TagId{{0, 0}, {1, 0}, {2, 0}}, [][4]common.TagId{{0, 0, 1, 0}, {1, 1, 2, 0}})
	paths := FindCandidatePaths(p)
	edge := decom.translatePath(p, paths[0][0].toSegment())
	if !reflect.DeepEqual(edge, NewPathEdge(0, 1, 0, 2)) {
		t.Fatalf("got %+v", edge)
	}

	p = mustGeneral(t, [][2]common.TagId{{0, 0}, {1, 0}, {2, 0}}, [][4]common.TagId{{0, 1, 0, 0}, {1, 2, 1, 0}})
	paths = FindCandidatePaths(p)
	edge = decom.translatePath(p, paths[0][0].toSegment())
	if !reflect.DeepEqual(edge, NewPathEdge(0, 1, 2, 0)) {
		t.Fatalf("got %+v", edge)
	}
}

func TestHeuristicTranslateStar(t *testing.T) {
	cat := buildTestCatalog(t)
	decom := NewHeuristicDecomposer(cat, 2, 999, 999, 0, true, true, true)

	p := mustGeneral(t, [][2]common.TagId{{0, 0}, {1, 0}, {2, 0}}, [][4]common.TagId{{0, 0, 1, 0}, {1, 1, 2, 0}})
	path := newPathRef(0).push(1, 0).push(2, 1)
	edge := decom.translateStar(p, []pathSegment{path.toSegment()}, 2)
	if !reflect.DeepEqual(edge, NewStarEdge(0, 4, 2)) {
		t.Fatalf("got %+v", edge)
	}

	path1 := newPathRef(1).push(0, 0)
	path2 := newPathRef(1).push(2, 1)
	edge = decom.translateStar(p, []pathSegment{path2.toSegment(), path1.toSegment()}, 1)
	if !reflect.DeepEqual(edge, NewStarEdge(1, 5, 1)) {
		t.Fatalf("got %+v", edge)
	}

	single := pattern.NewRawPattern()
	single.PushVertex(0, 0)
	starSingle, err := single.ToGeneral()
	if err != nil {
		t.Fatalf("single vertex star: %v", err)
	}
	zeroPath := newPathRef(0)
	edge = decom.translateStar(starSingle, []pathSegment{zeroPath.toSegment()}, 0)
	if !reflect.DeepEqual(edge, NewStarEdge(0, 0, 0)) {
		t.Fatalf("got %+v", edge)
	}
}

func TestHeuristicDecomposePath(t *testing.T) {
	cat := buildTestCatalog(t)
	decom := NewHeuristicDecomposer(cat, 2, 999, 999, 0, false, true, true)

	p1 := mustGeneral(t, [][2]common.TagId{{0, 0}, {1, 0}, {2, 0}}, [][4]common.TagId{{0, 0, 1, 0}, {1, 1, 2, 0}})
	path := newPathRef(0).push(1, 0).push(2, 1)
	got := decom.decomposePath(p1, path)
	want := []CatalogEdge{NewStarEdge(0, 4, 2)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	path = newPathRef(1).push(2, 1)
	got = decom.decomposePath(p1, path)
	want = []CatalogEdge{NewStarEdge(1, 1, 1)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	p2 := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}},
		[][4]common.TagId{{0, 0, 1, 0}, {1, 1, 2, 0}, {2, 2, 3, 0}, {3, 0, 4, 0}},
	)
	path = newPathRef(0).push(1, 0).push(2, 1).push(3, 2)
	got = decom.decomposePath(p2, path)
	want = []CatalogEdge{NewPathEdge(0, 1, 0, 2), NewStarEdge(2, 1, 2)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestPathSegmentSplitAt(t *testing.T) {
	p := newPathRef(0).push(1, 0).push(2, 1).push(3, 2)

	first, second := p.toSegment().splitAt(0)
	assertSegment(t, first, []common.TagId{0}, nil)
	assertSegment(t, second, []common.TagId{0, 1, 2, 3}, []common.TagId{0, 1, 2})

	first, second = p.toSegment().splitAt(2)
	assertSegment(t, first, []common.TagId{0, 1, 2}, []common.TagId{0, 1})
	assertSegment(t, second, []common.TagId{2, 3}, []common.TagId{2})

	first, second = p.toSegment().splitAt(3)
	assertSegment(t, first, []common.TagId{0, 1, 2, 3}, []common.TagId{0, 1, 2})
	assertSegment(t, second, []common.TagId{3}, nil)
}

func assertSegment(t *testing.T, s pathSegment, vertices, edges []common.TagId) {
	t.Helper()
	if !reflect.DeepEqual([]common.TagId(s.vertices), vertices) && !(len(s.vertices) == 0 && len(vertices) == 0) {
		t.Fatalf("vertices = %v, want %v", s.vertices, vertices)
	}
	if !reflect.DeepEqual([]common.TagId(s.edges), edges) && !(len(s.edges) == 0 && len(edges) == 0) {
		t.Fatalf("edges = %v, want %v", s.edges, edges)
	}
}

func TestFindPivotsHeuristic(t *testing.T) {
	p1 := mustGeneral(t, [][2]common.TagId{{0, 0}, {1, 0}, {2, 0}}, [][4]common.TagId{{0, 0, 1, 0}, {1, 1, 2, 0}})
	if got := findPivots(p1); len(got) != 0 {
		t.Fatalf("p1 pivots = %v, want empty", got)
	}

	p2 := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}},
		[][4]common.TagId{{0, 0, 1, 0}, {1, 0, 2, 0}, {2, 1, 2, 0}, {3, 2, 3, 0}},
	)
	if got := findPivots(p2); !reflect.DeepEqual(got, []common.TagId{2}) {
		t.Fatalf("p2 pivots = %v, want [2]", got)
	}

	p3 := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}},
		[][4]common.TagId{
			{0, 0, 2, 0},
			{1, 1, 2, 0},
			{2, 2, 3, 0},
			{3, 2, 3, 0},
			{4, 3, 4, 0},
			{5, 3, 5, 0},
		},
	)
	if got := findPivots(p3); !reflect.DeepEqual(got, []common.TagId{2, 3}) {
		t.Fatalf("p3 pivots = %v, want [2 3]", got)
	}
}

func TestHeuristicPrune(t *testing.T) {
	cat := buildTestCatalog(t)
	decom := NewHeuristicDecomposer(cat, 2, 999, 999, 0, true, true, true)

	p1 := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}},
		[][4]common.TagId{
			{0, 0, 1, 0},
			{1, 0, 2, 0},
			{2, 0, 3, 0},
			{3, 1, 2, 0},
			{4, 1, 3, 0},
			{5, 2, 3, 0},
		},
	)
	pruned := decom.prune(p1)
	expected := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}},
		[][4]common.TagId{
			{1, 0, 2, 0},
			{2, 0, 3, 0},
			{3, 1, 2, 0},
			{4, 1, 3, 0},
			{5, 2, 3, 0},
		},
	)
	if !reflect.DeepEqual(pattern.Encode(pruned), pattern.Encode(expected)) {
		t.Fatalf("p1 pruned encode = %x, want %x", pattern.Encode(pruned), pattern.Encode(expected))
	}

	p2 := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}},
		[][4]common.TagId{
			{0, 0, 1, 0},
			{1, 0, 2, 0},
			{2, 0, 3, 0},
			{3, 0, 4, 0},
			{4, 1, 2, 0},
			{5, 1, 3, 0},
			{6, 1, 4, 0},
			{7, 2, 3, 0},
			{8, 2, 4, 0},
			{9, 3, 4, 0},
		},
	)
	pruned2 := decom.prune(p2)
	expected2 := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}},
		[][4]common.TagId{
			{2, 0, 3, 0},
			{3, 0, 4, 0},
			{5, 1, 3, 0},
			{6, 1, 4, 0},
			{7, 2, 3, 0},
			{8, 2, 4, 0},
			{9, 3, 4, 0},
		},
	)
	if !reflect.DeepEqual(pattern.Encode(pruned2), pattern.Encode(expected2)) {
		t.Fatalf("p2 pruned encode = %x, want %x", pattern.Encode(pruned2), pattern.Encode(expected2))
	}
}

func TestFindCandidatePathsHeuristic(t *testing.T) {
	p1 := mustGeneral(t, [][2]common.TagId{{0, 0}, {1, 0}, {2, 0}}, [][4]common.TagId{{0, 0, 1, 0}, {1, 1, 2, 0}})
	got := FindCandidatePaths(p1)
	if len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("p1 candidate paths = %+v", got)
	}
	if !reflect.DeepEqual(got[0][0].vertices, []common.TagId{0, 1, 2}) || !reflect.DeepEqual(got[0][0].edges, []common.TagId{0, 1}) {
		t.Fatalf("p1 candidate path = %+v", got[0][0])
	}

	p2 := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}},
		[][4]common.TagId{{0, 0, 1, 0}, {1, 0, 2, 0}, {2, 1, 2, 0}, {3, 2, 3, 0}},
	)
	got = FindCandidatePaths(p2)
	paths, ok := got[2]
	if !ok || len(paths) != 2 {
		t.Fatalf("p2 candidate paths for pivot 2 = %+v", got)
	}

	// p3 has two pivots sharing a parallel pair of edges between 2 and 3.
	p3 := mustGeneral(t,
		[][2]common.TagId{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}},
		[][4]common.TagId{
			{0, 0, 2, 0},
			{1, 1, 2, 0},
			{2, 2, 3, 0},
			{3, 2, 3, 0},
			{4, 3, 4, 0},
			{5, 3, 5, 0},
		},
	)
	got = FindCandidatePaths(p3)
	pivot2, ok := got[2]
	if !ok || len(pivot2) != 4 {
		t.Fatalf("p3 candidate paths for pivot 2 = %+v", got)
	}
	wantPivot2 := [][2][]common.TagId{
		{{2, 3}, {2}},
		{{2, 3}, {3}},
		{{2, 0}, {0}},
		{{2, 1}, {1}},
	}
	for i, w := range wantPivot2 {
		if !reflect.DeepEqual(pivot2[i].vertices, w[0]) || !reflect.DeepEqual(pivot2[i].edges, w[1]) {
			t.Fatalf("p3 pivot 2 candidate path %d = %+v, want vertices %v edges %v", i, pivot2[i], w[0], w[1])
		}
	}

	pivot3, ok := got[3]
	if !ok || len(pivot3) != 2 {
		t.Fatalf("p3 candidate paths for pivot 3 = %+v", got)
	}
	wantPivot3 := [][2][]common.TagId{
		{{3, 4}, {4}},
		{{3, 5}, {5}},
	}
	for i, w := range wantPivot3 {
		if !reflect.DeepEqual(pivot3[i].vertices, w[0]) || !reflect.DeepEqual(pivot3[i].edges, w[1]) {
			t.Fatalf("p3 pivot 3 candidate path %d = %+v, want vertices %v edges %v", i, pivot3[i], w[0], w[1])
		}
	}
}

func sameVertexSet(got, want []CatalogVertex) bool {
	if len(got) != len(want) {
		return false
	}
	index := make(map[common.TagId]CatalogVertex, len(got))
	for _, v := range got {
		index[v.TagID] = v
	}
	for _, v := range want {
		gv, ok := index[v.TagID]
		if !ok || gv != v {
			return false
		}
	}
	return true
}

func sameEdgeSet(got, want []CatalogEdge) bool {
	if len(got) != len(want) {
		return false
	}
	index := make(map[common.TagId]CatalogEdge, len(got))
	for _, e := range got {
		index[e.TagID] = e
	}
	for _, e := range want {
		ge, ok := index[e.TagID]
		if !ok || !reflect.DeepEqual(ge, e) {
			return false
		}
	}
	return true
}
