package decompose

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"sort"

	"pathce/internal/catalog"
	"pathce/internal/common"
	"pathce/internal/pattern"
)

// HeuristicDecomposer turns a query pattern into one or more
// CatalogPatterns, by walking outward from high-degree "pivot"
// vertices, merging degree-1 branches into stars, and segmenting long
// chains into path-length-bounded pieces. Cyclic patterns are handled
// by enumerating spanning trees (each decomposed independently) plus,
// depending on configuration, either the whole cycle itself or a
// degree-pruned approximation of it.
type HeuristicDecomposer struct {
	catalog catalog.Catalog

	maxPathLength int
	maxStarLength int
	maxStarDegree int
	limit         int

	disableStar   bool
	disablePrune  bool
	disableCyclic bool
}

// NewHeuristicDecomposer returns a HeuristicDecomposer. Setting
// disableStar also zeroes maxStarLength/maxStarDegree, so no branch is
// ever judged mergeable.
func NewHeuristicDecomposer(
	cat catalog.Catalog,
	maxPathLength, maxStarLength, maxStarDegree, limit int,
	disableStar, disablePrune, disableCyclic bool,
) *HeuristicDecomposer {
	if disableStar {
		maxStarLength = 0
		maxStarDegree = 0
	}
	return &HeuristicDecomposer{
		catalog:       cat,
		maxPathLength: maxPathLength,
		maxStarLength: maxStarLength,
		maxStarDegree: maxStarDegree,
		limit:         limit,
		disableStar:   disableStar,
		disablePrune:  disablePrune,
		disableCyclic: disableCyclic,
	}
}

// Decompose is the entry point: every non-empty pattern yields at
// least one CatalogPattern; cyclic patterns may yield several
// (spanning-tree variants plus, optionally, a direct cyclic estimate),
// for the join engine to combine.
func (d *HeuristicDecomposer) Decompose(p pattern.GraphPattern) []*CatalogPattern {
	if len(p.Vertices()) == 0 {
		panic("decompose: empty pattern is not allowed")
	}
	if len(p.Vertices()) == 1 && len(p.Edges()) == 0 {
		vertex := p.Vertices()[0]
		ref := newPathRef(vertex.TagID)
		edge := d.translateStar(p, []pathSegment{ref.toSegment()}, vertex.TagID)
		cp := NewCatalogPattern()
		cp.AddVertex(CatalogVertex{TagID: vertex.TagID, LabelID: vertex.LabelID})
		cp.AddEdge(edge)
		return []*CatalogPattern{cp}
	}
	if !pattern.IsCyclic(p) {
		return []*CatalogPattern{d.decomposeAcyclic(p)}
	}
	return d.decomposeCyclic(p)
}

// DecomposeWithPivots decomposes around an explicit set of pivot
// vertices, bypassing pivot discovery — used by
// Estimator.EstimateWithOrder to decompose around caller-chosen
// pivots.
func (d *HeuristicDecomposer) DecomposeWithPivots(p pattern.GraphPattern, pivots []common.TagId) *CatalogPattern {
	set := make(map[common.TagId]bool, len(pivots))
	for _, v := range pivots {
		set[v] = true
	}
	candidatePaths := findCandidatePathsWithPivots(p, set)
	return d.decomposeCandidatePaths(p, candidatePaths)
}

func (d *HeuristicDecomposer) decomposeAcyclic(p pattern.GraphPattern) *CatalogPattern {
	return d.decomposeCandidatePaths(p, FindCandidatePaths(p))
}

func (d *HeuristicDecomposer) decomposeCyclic(p pattern.GraphPattern) []*CatalogPattern {
	var out []*CatalogPattern
	for _, tree := range generateSpanningTrees(p, d.limit) {
		out = append(out, d.decomposeAcyclic(tree))
	}
	if d.disableCyclic {
		return out
	}
	switch {
	case pattern.IsCycle(p):
		for _, v := range p.Vertices() {
			candidatePaths := findCandidatePathsWithPivots(p, map[common.TagId]bool{v.TagID: true})
			out = append(out, d.decomposeCandidatePaths(p, candidatePaths))
		}
	case d.disablePrune:
		out = append(out, d.decomposeAcyclic(p))
	default:
		pruned := d.prune(p)
		out = append(out, d.decomposeAcyclic(pruned))
	}
	return out
}

func (d *HeuristicDecomposer) decomposeCandidatePaths(p pattern.GraphPattern, candidatePaths map[common.TagId][]pathRef) *CatalogPattern {
	var edges []CatalogEdge
	for _, pivot := range sortedKeys(candidatePaths) {
		paths := candidatePaths[pivot]
		var mergeable, unmergeable []pathRef
		for _, path := range paths {
			endDegree, _ := pattern.VertexDegree(p, path.end())
			if endDegree == 1 && path.len() <= d.maxStarLength {
				mergeable = append(mergeable, path)
			} else {
				unmergeable = append(unmergeable, path)
			}
		}
		var remainingMergeable []pathRef
		if len(mergeable) > d.maxStarDegree {
			remainingMergeable = append([]pathRef(nil), mergeable[d.maxStarDegree:]...)
			mergeable = mergeable[:d.maxStarDegree]
		}
		if len(mergeable) > 0 {
			segments := make([]pathSegment, len(mergeable))
			for i, path := range mergeable {
				segments[i] = path.toSegment()
			}
			dedup, duplicates := partitionDedupSegments(p, segments)
			edges = append(edges, d.translateStar(p, dedup, pivot))
			for len(duplicates) > 0 {
				dedup, duplicates = partitionDedupSegments(p, duplicates)
				edges = append(edges, d.translateStar(p, dedup, pivot))
			}
		}
		for _, path := range remainingMergeable {
			edges = append(edges, d.decomposePath(p, path)...)
		}
		for _, path := range unmergeable {
			edges = append(edges, d.decomposePath(p, path)...)
		}
	}

	cp := NewCatalogPattern()
	added := make(map[common.TagId]bool)
	addVertex := func(tagID common.TagId) {
		if added[tagID] {
			return
		}
		added[tagID] = true
		v, _ := p.GetVertex(tagID)
		cp.AddVertex(CatalogVertex{TagID: v.TagID, LabelID: v.LabelID})
	}
	for _, e := range edges {
		switch e.Kind.Type {
		case KindStar:
			addVertex(e.Kind.Center)
		case KindPath:
			addVertex(e.Kind.Src)
			addVertex(e.Kind.Dst)
		default:
			panic("decompose: unexpected catalog edge kind from heuristic decomposer")
		}
		cp.AddEdge(e)
	}
	return cp
}

func (d *HeuristicDecomposer) prune(p pattern.GraphPattern) *pattern.GeneralPattern {
	current, err := pattern.FromGraphPattern(p).ToGeneral()
	if err != nil {
		panic(fmt.Sprintf("decompose: prune: %v", err))
	}
	for {
		neighbors := make(map[common.TagId]map[common.TagId]bool)
		candidatePaths := FindCandidatePaths(current)
		for v, paths := range candidatePaths {
			for _, path := range paths {
				end := path.end()
				degree, _ := pattern.VertexDegree(current, end)
				if end == v || degree == 1 {
					continue
				}
				addNeighbor(neighbors, v, end)
				addNeighbor(neighbors, end, v)
			}
		}

		var edgesToPrune []common.TagId
	pruneLoop:
		for len(neighbors) > 0 {
			victim := minNeighborsVertex(neighbors)
			victimNeighbors := neighbors[victim]
			delete(neighbors, victim)
			if len(victimNeighbors) > 2 {
				numToPrune := len(victimNeighbors) - 2
				paths := candidatePaths[victim]
				for i := 0; i < numToPrune && i < len(paths); i++ {
					edgesToPrune = append(edgesToPrune, maxCountEdge(d.catalog, current, paths[i]))
				}
				break pruneLoop
			}
			for neighbor := range victimNeighbors {
				nn, ok := neighbors[neighbor]
				if !ok {
					continue
				}
				delete(nn, victim)
				for other := range victimNeighbors {
					if other != neighbor {
						nn[other] = true
					}
				}
			}
		}

		if len(edgesToPrune) == 0 {
			return current
		}
		pruneSet := make(map[common.TagId]bool, len(edgesToPrune))
		for _, e := range edgesToPrune {
			pruneSet[e] = true
		}
		raw := pattern.NewRawPattern()
		for _, v := range current.Vertices() {
			raw.PushVertex(v.TagID, v.LabelID)
		}
		for _, e := range current.Edges() {
			if pruneSet[e.TagID] {
				continue
			}
			raw.PushEdge(e.TagID, e.Src, e.Dst, e.LabelID)
		}
		next, err := raw.ToGeneral()
		if err != nil {
			panic(fmt.Sprintf("decompose: prune: rebuild: %v", err))
		}
		current = next
	}
}

func addNeighbor(neighbors map[common.TagId]map[common.TagId]bool, from, to common.TagId) {
	m, ok := neighbors[from]
	if !ok {
		m = make(map[common.TagId]bool)
		neighbors[from] = m
	}
	m[to] = true
}

// minNeighborsVertex returns the vertex with the fewest pending
// neighbors, breaking ties by the smallest tag id (matching BTreeMap's
// ascending iteration order and Iterator::min_by_key's first-wins rule).
func minNeighborsVertex(neighbors map[common.TagId]map[common.TagId]bool) common.TagId {
	best := common.TagId(0)
	bestLen := -1
	for _, v := range sortedTagIDKeys(neighbors) {
		n := len(neighbors[v])
		if bestLen == -1 || n < bestLen {
			best, bestLen = v, n
		}
	}
	return best
}

func maxCountEdge(cat catalog.Catalog, p pattern.GraphPattern, path pathRef) common.TagId {
	best := path.edges[0]
	bestCount := -1
	for _, edgeTagID := range path.edges {
		e, _ := p.GetEdge(edgeTagID)
		count, ok := cat.GetEdgeCount(e.LabelID)
		if !ok {
			count = 0
		}
		if count > bestCount {
			best, bestCount = edgeTagID, count
		}
	}
	return best
}

func (d *HeuristicDecomposer) translatePath(p pattern.GraphPattern, segment pathSegment) CatalogEdge {
	if segment.len() <= 0 {
		panic("decompose: translatePath: empty segment")
	}
	realStart, realEnd := segment.start(), segment.end()

	var path *pattern.PathPattern
	if realStart != realEnd {
		raw := pattern.NewRawPattern()
		for _, v := range segment.vertices {
			pv, _ := p.GetVertex(v)
			raw.PushVertex(pv.TagID, pv.LabelID)
		}
		for _, e := range segment.edges {
			pe, _ := p.GetEdge(e)
			raw.PushEdge(pe.TagID, pe.Src, pe.Dst, pe.LabelID)
		}
		var err error
		path, err = raw.ToPath()
		if err != nil {
			panic(fmt.Sprintf("decompose: translatePath: %v", err))
		}
	} else {
		// The segment loops back to its own start (a cyclic pattern's
		// pruned residual can still contain such a segment); give the
		// closing vertex a fresh tag so the result is a genuine path.
		vertices := make([]pattern.PatternVertex, len(segment.vertices))
		for i, v := range segment.vertices {
			vertices[i], _ = p.GetVertex(v)
		}
		edges := make([]pattern.PatternEdge, len(segment.edges))
		for i, e := range segment.edges {
			edges[i], _ = p.GetEdge(e)
		}
		nextVertexTagID := common.TagId(0)
		for _, v := range vertices {
			if v.TagID+1 > nextVertexTagID {
				nextVertexTagID = v.TagID + 1
			}
		}
		endLabelID := vertices[len(vertices)-1].LabelID
		endTagID := vertices[len(vertices)-1].TagID
		vertices[len(vertices)-1] = pattern.PatternVertex{TagID: nextVertexTagID, LabelID: endLabelID}
		endEdge := edges[len(edges)-1]
		switch endTagID {
		case endEdge.Src:
			edges[len(edges)-1] = pattern.PatternEdge{TagID: endEdge.TagID, Src: nextVertexTagID, Dst: endEdge.Dst, LabelID: endEdge.LabelID}
		case endEdge.Dst:
			edges[len(edges)-1] = pattern.PatternEdge{TagID: endEdge.TagID, Src: endEdge.Src, Dst: nextVertexTagID, LabelID: endEdge.LabelID}
		default:
			panic("decompose: translatePath: closing edge doesn't touch its own segment end")
		}
		raw := pattern.NewRawPattern()
		for _, v := range vertices {
			raw.PushVertex(v.TagID, v.LabelID)
		}
		for _, e := range edges {
			raw.PushEdge(e.TagID, e.Src, e.Dst, e.LabelID)
		}
		var err error
		path, err = raw.ToPath()
		if err != nil {
			panic(fmt.Sprintf("decompose: translatePath: %v", err))
		}
	}

	edgeTagID := segment.edges[0]
	startRank, _ := path.GetVertexRank(path.Start().TagID)
	endRank, _ := path.GetVertexRank(path.End().TagID)
	labelID, ok := d.catalog.GetPathLabelID(pattern.Encode(path))
	if !ok {
		panic(fmt.Sprintf("decompose: translatePath: path shape %v not in catalog", path))
	}
	catalogPath, ok := d.catalog.GetPath(labelID)
	if !ok {
		panic(fmt.Sprintf("decompose: translatePath: label %d not in catalog", labelID))
	}
	catalogStartRank, _ := catalogPath.GetVertexRank(catalogPath.Start().TagID)
	catalogEndRank, _ := catalogPath.GetVertexRank(catalogPath.End().TagID)
	switch {
	case startRank == catalogStartRank && endRank == catalogEndRank:
		return NewPathEdge(edgeTagID, labelID, realStart, realEnd)
	case startRank == catalogEndRank && endRank == catalogStartRank:
		return NewPathEdge(edgeTagID, labelID, realEnd, realStart)
	default:
		panic("decompose: translatePath: rank mismatch against catalogued path shape")
	}
}

func (d *HeuristicDecomposer) translateStar(p pattern.GraphPattern, segments []pathSegment, center common.TagId) CatalogEdge {
	if len(segments) == 0 {
		panic("decompose: translateStar: no segments")
	}
	start := segments[0].start()
	for _, s := range segments {
		if s.start() != start {
			panic("decompose: translateStar: segments do not share a start vertex")
		}
	}

	raw := pattern.NewRawPattern()
	seenVertex := make(map[common.TagId]bool)
	pushVertex := func(tagID common.TagId) {
		if seenVertex[tagID] {
			return
		}
		seenVertex[tagID] = true
		v, _ := p.GetVertex(tagID)
		raw.PushVertex(v.TagID, v.LabelID)
	}
	for _, s := range segments {
		for _, v := range s.vertices[1:] {
			pushVertex(v)
		}
	}
	pushVertex(start)

	var tagID common.TagId
	hasEdge := false
	for _, s := range segments {
		for _, e := range s.edges {
			pe, _ := p.GetEdge(e)
			raw.PushEdge(pe.TagID, pe.Src, pe.Dst, pe.LabelID)
			if !hasEdge {
				tagID, hasEdge = pe.TagID, true
			}
		}
	}
	if !hasEdge {
		tagID = start
	}

	star, err := raw.ToGeneral()
	if err != nil {
		panic(fmt.Sprintf("decompose: translateStar: %v", err))
	}
	centerRank, ok := star.GetVertexRank(center)
	if !ok {
		panic("decompose: translateStar: center vertex missing from star pattern")
	}
	labelID, ok := d.catalog.GetStarLabelID(centerRank, pattern.Encode(star))
	if !ok {
		panic(fmt.Sprintf("decompose: translateStar: star shape %v (center rank %d) not in catalog", pattern.Encode(star), centerRank))
	}
	return NewStarEdge(tagID, labelID, center)
}

func (d *HeuristicDecomposer) decomposePath(p pattern.GraphPattern, path pathRef) []CatalogEdge {
	if path.isEmpty() {
		panic("decompose: decomposePath: empty path")
	}
	seg := path.toSegment()
	var segments []pathSegment
	for seg.len() > d.maxPathLength {
		current, remaining := seg.splitAt(d.maxPathLength)
		segments = append(segments, current)
		seg = remaining
	}
	if seg.len() > 0 {
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		panic("decompose: decomposePath: no segments produced")
	}

	out := make([]CatalogEdge, 0, len(segments))
	for _, segment := range segments {
		start, end := segment.start(), segment.end()
		startDegree, _ := pattern.VertexDegree(p, start)
		endDegree, _ := pattern.VertexDegree(p, end)
		switch {
		case d.disableStar || (startDegree > 1 && endDegree > 1):
			out = append(out, d.translatePath(p, segment))
		case startDegree == 1:
			out = append(out, d.translateStar(p, []pathSegment{segment}, end))
		case endDegree == 1:
			out = append(out, d.translateStar(p, []pathSegment{segment}, start))
		default:
			panic("decompose: decomposePath: segment endpoints both branch")
		}
	}
	return out
}

func findPivots(p pattern.GraphPattern) []common.TagId {
	var out []common.TagId
	for _, v := range p.Vertices() {
		degree, _ := pattern.VertexDegree(p, v.TagID)
		if degree >= 3 {
			out = append(out, v.TagID)
		}
	}
	return out
}

// pathRef is a walk recorded as alternating vertex/edge tag ids,
// vertices one longer than edges.
type pathRef struct {
	vertices []common.TagId
	edges    []common.TagId
}

func newPathRef(source common.TagId) pathRef {
	return pathRef{vertices: []common.TagId{source}}
}

func (r pathRef) toSegment() pathSegment {
	_, seg := splitAt(r.vertices, r.edges, 0)
	return seg
}

func (r pathRef) push(vertex, edge common.TagId) pathRef {
	r.vertices = append(r.vertices, vertex)
	r.edges = append(r.edges, edge)
	return r
}

func (r pathRef) len() int      { return len(r.edges) }
func (r pathRef) isEmpty() bool { return len(r.edges) == 0 }
func (r pathRef) end() common.TagId {
	return r.vertices[len(r.vertices)-1]
}

// pathSegment is a (possibly partial) view of a pathRef's walk.
type pathSegment struct {
	vertices []common.TagId
	edges    []common.TagId
}

func splitAt(vertices, edges []common.TagId, vertexIndex int) (pathSegment, pathSegment) {
	first := pathSegment{vertices: vertices[0 : vertexIndex+1], edges: edges[0:vertexIndex]}
	second := pathSegment{vertices: vertices[vertexIndex:], edges: edges[vertexIndex:]}
	return first, second
}

func (s pathSegment) len() int { return len(s.edges) }
func (s pathSegment) splitAt(vertexIndex int) (pathSegment, pathSegment) {
	return splitAt(s.vertices, s.edges, vertexIndex)
}
func (s pathSegment) start() common.TagId { return s.vertices[0] }
func (s pathSegment) end() common.TagId   { return s.vertices[len(s.vertices)-1] }

// segmentKey renders a segment's vertex/edge label sequence
// (interleaved, vertex-first) into a comparable byte string, so
// structurally-identical branches of a star sort adjacent to each
// other regardless of which tag ids they happen to use.
func segmentKey(p pattern.GraphPattern, s pathSegment) string {
	buf := make([]byte, 0, (len(s.vertices)+len(s.edges))*4)
	for i := 0; i < len(s.vertices) || i < len(s.edges); i++ {
		if i < len(s.vertices) {
			v, _ := p.GetVertex(s.vertices[i])
			buf = appendU32(buf, uint32(v.LabelID))
		}
		if i < len(s.edges) {
			e, _ := p.GetEdge(s.edges[i])
			buf = appendU32(buf, uint32(e.LabelID))
		}
	}
	return string(buf)
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// partitionDedupSegments sorts segments by structural key and returns
// one representative per distinct shape plus every remaining
// (duplicate-shaped) segment, for the caller to fold into further
// star edges on subsequent passes.
func partitionDedupSegments(p pattern.GraphPattern, segments []pathSegment) (dedup, duplicates []pathSegment) {
	sorted := append([]pathSegment(nil), segments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return segmentKey(p, sorted[i]) < segmentKey(p, sorted[j])
	})
	var lastKey string
	has := false
	for _, s := range sorted {
		key := segmentKey(p, s)
		if !has || key != lastKey {
			dedup = append(dedup, s)
			lastKey = key
			has = true
		} else {
			duplicates = append(duplicates, s)
		}
	}
	return dedup, duplicates
}

// findCandidatePathsWithPivots walks outward from every pivot,
// stopping a branch as soon as it reaches another pivot, and returns
// each pivot's candidate branches keyed by that pivot's tag id.
func findCandidatePathsWithPivots(p pattern.GraphPattern, pivots map[common.TagId]bool) map[common.TagId][]pathRef {
	visited := make(map[common.TagId]bool)
	out := make(map[common.TagId][]pathRef, len(pivots))
	for _, v := range sortedKeys(pivots) {
		out[v] = findCandidatePathsFromVertex(p, visited, v, pivots)
	}
	return out
}

// FindCandidatePaths picks pivots automatically: a pattern that is
// itself a simple path or cycle gets a single pivot (so the whole
// shape is walked as one candidate); anything else pivots on its
// degree->=3 vertices.
func FindCandidatePaths(p pattern.GraphPattern) map[common.TagId][]pathRef {
	var pivots []common.TagId
	switch {
	case pattern.IsPath(p):
		var deg1 []common.TagId
		for _, v := range p.Vertices() {
			d, _ := pattern.VertexDegree(p, v.TagID)
			if d == 1 {
				deg1 = append(deg1, v.TagID)
			}
		}
		if len(deg1) != 2 {
			panic("decompose: FindCandidatePaths: path pattern without exactly two degree-1 vertices")
		}
		if deg1[0] < deg1[1] {
			pivots = []common.TagId{deg1[0]}
		} else {
			pivots = []common.TagId{deg1[1]}
		}
	case pattern.IsCycle(p):
		min := p.Vertices()[0].TagID
		for _, v := range p.Vertices()[1:] {
			if v.TagID < min {
				min = v.TagID
			}
		}
		pivots = []common.TagId{min}
	default:
		pivots = findPivots(p)
	}
	set := make(map[common.TagId]bool, len(pivots))
	for _, v := range pivots {
		set[v] = true
	}
	return findCandidatePathsWithPivots(p, set)
}

// LongestCandidatePath reports the edge length of the longest branch
// FindCandidatePaths would walk from any pivot, or 0 for a single
// isolated vertex.
func LongestCandidatePath(p pattern.GraphPattern) int {
	if len(p.Vertices()) == 1 && len(p.Edges()) == 0 {
		return 0
	}
	longest := 0
	for _, refs := range FindCandidatePaths(p) {
		for _, r := range refs {
			if l := r.len(); l > longest {
				longest = l
			}
		}
	}
	return longest
}

func findCandidatePathsFromVertex(p pattern.GraphPattern, visitedEdges map[common.TagId]bool, source common.TagId, pivots map[common.TagId]bool) []pathRef {
	var results []pathRef
	adjs, _ := pattern.Adjacencies(p, source)
	for _, adj := range adjs {
		if visitedEdges[adj.EdgeTagID] {
			continue
		}
		path := newPathRef(source)
		path = path.push(adj.NeighborTagID, adj.EdgeTagID)
		visitedEdges[adj.EdgeTagID] = true
		neighborTagID := adj.NeighborTagID
		for !pivots[neighborTagID] {
			next, ok := firstUnvisitedAdjacency(p, visitedEdges, neighborTagID)
			if !ok {
				break
			}
			neighborTagID = next.NeighborTagID
			path = path.push(next.NeighborTagID, next.EdgeTagID)
			visitedEdges[next.EdgeTagID] = true
		}
		results = append(results, path)
	}
	return results
}

func firstUnvisitedAdjacency(p pattern.GraphPattern, visitedEdges map[common.TagId]bool, tagID common.TagId) (pattern.PatternAdjacency, bool) {
	adjs, _ := pattern.Adjacencies(p, tagID)
	for _, adj := range adjs {
		if !visitedEdges[adj.EdgeTagID] {
			return adj, true
		}
	}
	return pattern.PatternAdjacency{}, false
}

func sortedKeys(m map[common.TagId][]pathRef) []common.TagId {
	out := make([]common.TagId, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedTagIDKeys(m map[common.TagId]map[common.TagId]bool) []common.TagId {
	out := make([]common.TagId, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// generateSpanningTrees returns up to limit spanning trees of p: a BFS
// (stack-ordered, as the reference implementation's frontier is a
// stack) initial tree, plus every other spanning tree reachable by
// swapping in a chord edge for a branch edge without introducing a
// cycle, enumerated by subset size.
//
// Unlike the reference decomposer, which mutates one shared
// union-find-style graph as it walks chord/branch subsets and reverts
// it afterward, each candidate here is built fresh from its edge list
// and checked with a throwaway union-find. Same subsets, same
// determinism, simpler control flow.
func generateSpanningTrees(p pattern.GraphPattern, limit int) []*pattern.GeneralPattern {
	if limit == 0 {
		return nil
	}
	if len(p.Edges()) > 64 {
		panic("decompose: generateSpanningTrees: only patterns with <= 64 edges are supported")
	}
	var trees []*pattern.GeneralPattern
	initial := generateInitialSpanningTree(p)
	trees = append(trees, initial)
	if len(trees) == limit {
		return trees
	}

	branchEdges := append([]pattern.PatternEdge(nil), initial.Edges()...)
	var chordEdges []pattern.PatternEdge
	for _, e := range p.Edges() {
		if _, ok := initial.GetEdge(e.TagID); !ok {
			chordEdges = append(chordEdges, e)
		}
	}

	maxChordBit := len(chordEdges)
	if len(branchEdges) < maxChordBit {
		maxChordBit = len(branchEdges)
	}
	for chordCode := 1; chordCode < (1 << maxChordBit); chordCode++ {
		chordNum := bits.OnesCount(uint(chordCode))
		var addedChords []pattern.PatternEdge
		for _, i := range onesOf(chordCode) {
			addedChords = append(addedChords, chordEdges[i])
		}
		for branchCode := 1; branchCode < (1 << len(branchEdges)); branchCode++ {
			if bits.OnesCount(uint(branchCode)) != chordNum {
				continue
			}
			removed := make(map[common.TagId]bool, chordNum)
			for _, i := range onesOf(branchCode) {
				removed[branchEdges[i].TagID] = true
			}
			candidateEdges := make([]pattern.PatternEdge, 0, len(branchEdges))
			for _, e := range branchEdges {
				if !removed[e.TagID] {
					candidateEdges = append(candidateEdges, e)
				}
			}
			candidateEdges = append(candidateEdges, addedChords...)
			if isCyclicUndirected(p.Vertices(), candidateEdges) {
				continue
			}
			raw := pattern.NewRawPattern()
			for _, v := range p.Vertices() {
				raw.PushVertex(v.TagID, v.LabelID)
			}
			for _, e := range candidateEdges {
				raw.PushEdge(e.TagID, e.Src, e.Dst, e.LabelID)
			}
			tree, err := raw.ToGeneral()
			if err != nil {
				panic(fmt.Sprintf("decompose: generateSpanningTrees: %v", err))
			}
			trees = append(trees, tree)
			if len(trees) == limit {
				return trees
			}
		}
	}
	return trees
}

func onesOf(bitset int) []int {
	var out []int
	for bitset != 0 {
		low := bits.TrailingZeros(uint(bitset))
		out = append(out, low)
		bitset &^= 1 << low
	}
	return out
}

// isCyclicUndirected reports whether edges, treated as undirected,
// contain a cycle over vertices (a disjoint-set forest check).
func isCyclicUndirected(vertices []pattern.PatternVertex, edges []pattern.PatternEdge) bool {
	parent := make(map[common.TagId]common.TagId, len(vertices))
	for _, v := range vertices {
		parent[v.TagID] = v.TagID
	}
	var find func(common.TagId) common.TagId
	find = func(x common.TagId) common.TagId {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for _, e := range edges {
		rs, rd := find(e.Src), find(e.Dst)
		if rs == rd {
			return true
		}
		parent[rs] = rd
	}
	return false
}

// generateInitialSpanningTree walks p from its minimum-degree vertex,
// using a stack (last-pushed-first-visited) exactly as the reference
// decomposer's "frontier.pop()" does despite its BFS-labeled comment.
func generateInitialSpanningTree(p pattern.GraphPattern) *pattern.GeneralPattern {
	vs := p.Vertices()
	start := vs[0]
	for _, v := range vs[1:] {
		d, _ := pattern.VertexDegree(p, v.TagID)
		ds, _ := pattern.VertexDegree(p, start.TagID)
		if d < ds {
			start = v
		}
	}

	frontier := []common.TagId{start.TagID}
	visited := map[common.TagId]bool{start.TagID: true}
	raw := pattern.NewRawPattern()
	for len(frontier) > 0 {
		cur := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		curVertex, _ := p.GetVertex(cur)
		raw.PushVertex(curVertex.TagID, curVertex.LabelID)
		adjs, _ := pattern.Adjacencies(p, cur)
		for _, adj := range adjs {
			if visited[adj.NeighborTagID] {
				continue
			}
			visited[adj.NeighborTagID] = true
			frontier = append(frontier, adj.NeighborTagID)
			edge, _ := p.GetEdge(adj.EdgeTagID)
			raw.PushEdge(edge.TagID, edge.Src, edge.Dst, edge.LabelID)
		}
	}
	tree, err := raw.ToGeneral()
	if err != nil {
		panic(fmt.Sprintf("decompose: generateInitialSpanningTree: %v", err))
	}
	if len(tree.Vertices()) != len(p.Vertices()) || len(tree.Edges()) != len(p.Vertices())-1 {
		panic("decompose: generateInitialSpanningTree: did not reach every vertex")
	}
	return tree
}
