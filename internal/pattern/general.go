package pattern

import "pathce/internal/common"

// GeneralPattern is any connected labeled multigraph pattern: vertex
// tags and edge tags, with precomputed adjacency lists and, once
// canonicalized, vertex/edge rank maps.
type GeneralPattern struct {
	vertices  []PatternVertex
	edges     []PatternEdge
	tagVertex map[common.TagId]int
	tagEdge   map[common.TagId]int
	outAdj    map[common.TagId][]PatternAdjacency
	inAdj     map[common.TagId][]PatternAdjacency

	vertexRank map[common.TagId]common.TagId
	edgeRank   map[common.TagId]common.TagId
	rankVertex map[common.TagId]common.TagId
	rankEdge   map[common.TagId]common.TagId
}

var _ GraphPattern = (*GeneralPattern)(nil)

func (g *GeneralPattern) Vertices() []PatternVertex { return g.vertices }
func (g *GeneralPattern) Edges() []PatternEdge      { return g.edges }

func (g *GeneralPattern) GetVertex(tagID common.TagId) (PatternVertex, bool) {
	idx, ok := g.tagVertex[tagID]
	if !ok {
		return PatternVertex{}, false
	}
	return g.vertices[idx], true
}

func (g *GeneralPattern) GetVertexRank(tagID common.TagId) (common.TagId, bool) {
	r, ok := g.vertexRank[tagID]
	return r, ok
}

func (g *GeneralPattern) GetVertexFromRank(rank common.TagId) (PatternVertex, bool) {
	tagID, ok := g.rankVertex[rank]
	if !ok {
		return PatternVertex{}, false
	}
	return g.GetVertex(tagID)
}

func (g *GeneralPattern) GetEdge(tagID common.TagId) (PatternEdge, bool) {
	idx, ok := g.tagEdge[tagID]
	if !ok {
		return PatternEdge{}, false
	}
	return g.edges[idx], true
}

func (g *GeneralPattern) GetEdgeRank(tagID common.TagId) (common.TagId, bool) {
	r, ok := g.edgeRank[tagID]
	return r, ok
}

func (g *GeneralPattern) GetEdgeFromRank(rank common.TagId) (PatternEdge, bool) {
	tagID, ok := g.rankEdge[rank]
	if !ok {
		return PatternEdge{}, false
	}
	return g.GetEdge(tagID)
}

func (g *GeneralPattern) OutgoingAdjacencies(tagID common.TagId) ([]PatternAdjacency, bool) {
	a, ok := g.outAdj[tagID]
	return a, ok
}

func (g *GeneralPattern) IncomingAdjacencies(tagID common.TagId) ([]PatternAdjacency, bool) {
	a, ok := g.inAdj[tagID]
	return a, ok
}

// isConnected reports whether the pattern's underlying undirected
// graph is weakly connected.
func isConnected(g *GeneralPattern) bool {
	if len(g.vertices) == 0 {
		return false
	}
	visited := make(map[common.TagId]bool, len(g.vertices))
	stack := []common.TagId{g.vertices[0].TagID}
	visited[g.vertices[0].TagID] = true
	count := 1
	for len(stack) > 0 {
		tagID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		adjs, _ := Adjacencies(g, tagID)
		for _, adj := range adjs {
			if !visited[adj.NeighborTagID] {
				visited[adj.NeighborTagID] = true
				count++
				stack = append(stack, adj.NeighborTagID)
			}
		}
	}
	return count == len(g.vertices)
}
