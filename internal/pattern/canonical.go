package pattern

import (
	"sort"

	"pathce/internal/common"
)

// Canonicalize computes a deterministic vertex-rank and edge-rank for
// a pattern, identifying its isomorphism class. Vertices are first
// partitioned into groups by (label, 0) and iteratively refined by
// comparing, for each vertex, the ordered multiset of its adjacencies
// (direction, neighbor label, edge label, neighbor group, neighbor
// rank) until stable; then a deterministic start vertex is chosen and
// vertex/edge ranks are assigned by a DFS that always steps along the
// least-ordered adjacency.
func Canonicalize(p GraphPattern) (map[common.TagId]common.TagId, map[common.TagId]common.TagId) {
	c := newCanonicalizer(p)
	c.canonicalize()
	vertexRank := make(map[common.TagId]common.TagId, len(c.vertexRank))
	for tagID, r := range c.vertexRank {
		vertexRank[tagID] = *r
	}
	edgeRank := make(map[common.TagId]common.TagId, len(c.edgeRank))
	for tagID, r := range c.edgeRank {
		edgeRank[tagID] = *r
	}
	return vertexRank, edgeRank
}

type groupKey struct {
	label common.LabelId
	group common.TagId
}

type canonicalizer struct {
	pattern      GraphPattern
	adjacencies  map[common.TagId][]PatternAdjacency
	vertexGroup  map[common.TagId]common.TagId
	vertexGroups map[groupKey][]common.TagId
	vertexRank   map[common.TagId]*common.TagId
	edgeRank     map[common.TagId]*common.TagId
	converged    bool
}

func newCanonicalizer(p GraphPattern) *canonicalizer {
	c := &canonicalizer{
		pattern:     p,
		adjacencies: make(map[common.TagId][]PatternAdjacency),
		vertexGroup: make(map[common.TagId]common.TagId),
		vertexGroups: make(map[groupKey][]common.TagId),
		vertexRank:  make(map[common.TagId]*common.TagId),
		edgeRank:    make(map[common.TagId]*common.TagId),
	}
	for _, v := range p.Vertices() {
		adjs, _ := Adjacencies(p, v.TagID)
		c.adjacencies[v.TagID] = append([]PatternAdjacency(nil), adjs...)
		c.vertexGroup[v.TagID] = 0
		c.vertexRank[v.TagID] = nil
	}
	for _, e := range p.Edges() {
		c.edgeRank[e.TagID] = nil
	}
	for _, v := range p.Vertices() {
		key := groupKey{v.LabelID, 0}
		c.vertexGroups[key] = append(c.vertexGroups[key], v.TagID)
	}
	c.sortVertexAdjacencies()
	return c
}

func (c *canonicalizer) sortVertexAdjacencies() {
	for tagID, adjs := range c.adjacencies {
		cp := append([]PatternAdjacency(nil), adjs...)
		sort.SliceStable(cp, func(i, j int) bool {
			return c.cmpAdjacency(cp[i], cp[j]) < 0
		})
		c.adjacencies[tagID] = cp
	}
}

func sortedGroupKeys(groups map[groupKey][]common.TagId) []groupKey {
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].label != keys[j].label {
			return keys[i].label < keys[j].label
		}
		return keys[i].group < keys[j].group
	})
	return keys
}

func (c *canonicalizer) refineVertexGroups() {
	updatedGroupMap := make(map[common.TagId]common.TagId)
	updatedGroups := make(map[groupKey][]common.TagId)
	converged := true

	for _, key := range sortedGroupKeys(c.vertexGroups) {
		group := c.vertexGroups[key]
		tmp := make([]common.TagId, len(group))
		for i := range group {
			tmp[i] = key.group
		}
		for i, v1 := range group {
			for j := i + 1; j < len(group); j++ {
				v2 := group[j]
				switch c.cmpVertex(v1, v2) {
				case 1:
					tmp[i]++
				case -1:
					tmp[j]++
				}
			}
			newGroup := tmp[i]
			if newGroup != key.group {
				converged = false
			}
			updatedGroupMap[v1] = newGroup
			nk := groupKey{key.label, newGroup}
			updatedGroups[nk] = append(updatedGroups[nk], v1)
		}
	}
	c.vertexGroup = updatedGroupMap
	c.vertexGroups = updatedGroups
	c.converged = converged
	c.sortVertexAdjacencies()
}

// cmpVertex returns -1/0/1 comparing v1 to v2.
func (c *canonicalizer) cmpVertex(v1, v2 common.TagId) int {
	p1, _ := c.pattern.GetVertex(v1)
	p2, _ := c.pattern.GetVertex(v2)
	if cmp := cmpLabel(p1.LabelID, p2.LabelID); cmp != 0 {
		return cmp
	}
	out1, _ := c.pattern.OutgoingAdjacencies(v1)
	out2, _ := c.pattern.OutgoingAdjacencies(v2)
	if cmp := cmpInt(len(out1), len(out2)); cmp != 0 {
		return cmp
	}
	in1, _ := c.pattern.IncomingAdjacencies(v1)
	in2, _ := c.pattern.IncomingAdjacencies(v2)
	if cmp := cmpInt(len(in1), len(in2)); cmp != 0 {
		return cmp
	}
	adj1 := c.adjacencies[v1]
	adj2 := c.adjacencies[v2]
	for i := range adj1 {
		if cmp := c.cmpAdjacency(adj1[i], adj2[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}

func (c *canonicalizer) cmpAdjacency(a1, a2 PatternAdjacency) int {
	n1, _ := c.pattern.GetVertex(a1.NeighborTagID)
	n2, _ := c.pattern.GetVertex(a2.NeighborTagID)
	if cmp := cmpInt(int(a1.Direction), int(a2.Direction)); cmp != 0 {
		return cmp
	}
	if cmp := cmpLabel(n1.LabelID, n2.LabelID); cmp != 0 {
		return cmp
	}
	if cmp := cmpLabel(a1.EdgeLabelID, a2.EdgeLabelID); cmp != 0 {
		return cmp
	}
	g1 := c.vertexGroup[a1.NeighborTagID]
	g2 := c.vertexGroup[a2.NeighborTagID]
	if cmp := cmpInt(int(g1), int(g2)); cmp != 0 {
		return cmp
	}
	return cmpRank(c.vertexRank[a1.NeighborTagID], c.vertexRank[a2.NeighborTagID])
}

func cmpLabel(a, b common.LabelId) int { return cmpInt(int(a), int(b)) }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpRank orders nil (unranked) before any assigned rank, matching
// Rust's Option<TagId> ordering (None < Some(_)).
func cmpRank(a, b *common.TagId) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmpInt(int(*a), int(*b))
	}
}

func (c *canonicalizer) rankingStartVertex() (common.TagId, bool) {
	minLabel, ok := MinVertexLabelID(c.pattern)
	if !ok {
		return 0, false
	}
	var best common.TagId
	var bestGroup common.TagId
	found := false
	for _, v := range c.pattern.Vertices() {
		if v.LabelID != minLabel {
			continue
		}
		g := c.vertexGroup[v.TagID]
		if !found || g < bestGroup {
			best, bestGroup, found = v.TagID, g, true
		}
	}
	return best, found
}

func (c *canonicalizer) rankingFromVertex(start common.TagId) {
	nextVertexRank := common.TagId(0)
	nextEdgeRank := common.TagId(0)
	setRank := func(r common.TagId) *common.TagId { return &r }
	c.vertexRank[start] = setRank(nextVertexRank)
	nextVertexRank++

	visitedEdges := make(map[common.TagId]bool)
	adjs := c.adjacencies[start]
	stack := make([]PatternAdjacency, len(adjs))
	for i, a := range adjs {
		stack[len(adjs)-1-i] = a
	}

	for len(stack) > 0 {
		adj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visitedEdges[adj.EdgeTagID] {
			continue
		}
		visitedEdges[adj.EdgeTagID] = true
		c.edgeRank[adj.EdgeTagID] = setRank(nextEdgeRank)
		nextEdgeRank++

		neighbor := adj.NeighborTagID
		if c.vertexRank[neighbor] == nil {
			c.vertexRank[neighbor] = setRank(nextVertexRank)
			nextVertexRank++
		}
		c.sortVertexAdjacencies()

		nadjs := c.adjacencies[neighbor]
		for i := len(nadjs) - 1; i >= 0; i-- {
			if !visitedEdges[nadjs[i].EdgeTagID] {
				stack = append(stack, nadjs[i])
			}
		}
	}
}

func (c *canonicalizer) pointRanking() {
	start, ok := c.rankingStartVertex()
	if !ok {
		return
	}
	c.rankingFromVertex(start)
}

func (c *canonicalizer) canonicalize() {
	for !c.converged {
		c.refineVertexGroups()
	}
	c.pointRanking()
}
