// Package decompose breaks a query pattern into the shapes the
// catalog actually has statistics for: paths up to a bounded length
// and stars up to a bounded degree. A CatalogPattern is the result —
// a pattern over the same vertex tags as the original query, but
// whose edges are labeled with a catalog LabelId and a shape kind
// (star/path) instead of a single pattern edge.
package decompose

import (
	"encoding/json"
	"fmt"
	"sort"

	"pathce/internal/common"
)

// CatalogVertex is a query vertex carried through into a CatalogPattern.
type CatalogVertex struct {
	TagID   common.TagId
	LabelID common.LabelId
}

// CatalogEdgeKindType distinguishes how a CatalogEdge's LabelId should
// be looked up and joined: centered on one vertex (star), stretched
// between two endpoints (path), or spanning an explicit vertex list
// (general — never emitted by Heuristic; the join engine creates one
// when an eliminated vertex has three or more neighbors).
type CatalogEdgeKindType int

const (
	KindStar CatalogEdgeKindType = iota
	KindPath
	KindGeneral
)

// CatalogEdgeKind carries the fields relevant to its Type; only the
// matching fields are meaningful.
type CatalogEdgeKind struct {
	Type     CatalogEdgeKindType
	Center   common.TagId   // KindStar
	Src, Dst common.TagId   // KindPath
	Vertices []common.TagId // KindGeneral
}

func StarKind(center common.TagId) CatalogEdgeKind {
	return CatalogEdgeKind{Type: KindStar, Center: center}
}

func PathKind(src, dst common.TagId) CatalogEdgeKind {
	return CatalogEdgeKind{Type: KindPath, Src: src, Dst: dst}
}

func GeneralKind(vertices []common.TagId) CatalogEdgeKind {
	return CatalogEdgeKind{Type: KindGeneral, Vertices: append([]common.TagId(nil), vertices...)}
}

// IncidentVertices returns the vertex tags touched by this edge kind.
func (k CatalogEdgeKind) IncidentVertices() []common.TagId {
	switch k.Type {
	case KindStar:
		return []common.TagId{k.Center}
	case KindPath:
		return []common.TagId{k.Src, k.Dst}
	default:
		return k.Vertices
	}
}

func (k CatalogEdgeKind) incidentVertices() []common.TagId { return k.IncidentVertices() }

// CatalogEdge is one decomposed join edge: a catalog LabelId (path or
// star shape) attached to the query vertices it spans.
type CatalogEdge struct {
	TagID   common.TagId
	LabelID common.LabelId
	Kind    CatalogEdgeKind
}

func NewStarEdge(tagID common.TagId, labelID common.LabelId, center common.TagId) CatalogEdge {
	return CatalogEdge{TagID: tagID, LabelID: labelID, Kind: StarKind(center)}
}

func NewPathEdge(tagID common.TagId, labelID common.LabelId, src, dst common.TagId) CatalogEdge {
	return CatalogEdge{TagID: tagID, LabelID: labelID, Kind: PathKind(src, dst)}
}

func NewGeneralEdge(tagID common.TagId, labelID common.LabelId, vertices []common.TagId) CatalogEdge {
	return CatalogEdge{TagID: tagID, LabelID: labelID, Kind: GeneralKind(vertices)}
}

// CatalogPattern is the decomposition output: a set of query vertices
// joined by catalog edges, each resolvable via Catalog.GetPath/GetStar.
type CatalogPattern struct {
	vertices     []CatalogVertex
	edges        []CatalogEdge
	tagVertexMap map[common.TagId]int
	tagEdgeMap   map[common.TagId]int
	adjList      map[common.TagId][]common.TagId // vertex tag -> incident edge tags, sorted
}

// NewCatalogPattern returns an empty CatalogPattern.
func NewCatalogPattern() *CatalogPattern {
	return &CatalogPattern{
		tagVertexMap: make(map[common.TagId]int),
		tagEdgeMap:   make(map[common.TagId]int),
		adjList:      make(map[common.TagId][]common.TagId),
	}
}

func (c *CatalogPattern) VerticesNum() int { return len(c.tagVertexMap) }
func (c *CatalogPattern) EdgesNum() int    { return len(c.tagEdgeMap) }

// NextEdgeTagID returns one past the largest edge tag currently present.
func (c *CatalogPattern) NextEdgeTagID() common.TagId {
	var max common.TagId
	has := false
	for _, e := range c.edges {
		if _, ok := c.tagEdgeMap[e.TagID]; !ok {
			continue
		}
		if !has || e.TagID+1 > max {
			max = e.TagID + 1
			has = true
		}
	}
	return max
}

// AddVertex records a query vertex; panics on a duplicate tag, matching
// the reference decomposer's invariant that callers never add a vertex
// twice.
func (c *CatalogPattern) AddVertex(v CatalogVertex) {
	if _, dup := c.tagVertexMap[v.TagID]; dup {
		panic(fmt.Sprintf("decompose: duplicate vertex tag %d", v.TagID))
	}
	c.tagVertexMap[v.TagID] = len(c.vertices)
	c.vertices = append(c.vertices, v)
	if _, ok := c.adjList[v.TagID]; !ok {
		c.adjList[v.TagID] = nil
	}
}

// AddEdge records a catalog edge, wiring it into every incident
// vertex's adjacency list.
func (c *CatalogPattern) AddEdge(e CatalogEdge) {
	if _, dup := c.tagEdgeMap[e.TagID]; dup {
		panic(fmt.Sprintf("decompose: duplicate edge tag %d", e.TagID))
	}
	c.tagEdgeMap[e.TagID] = len(c.edges)
	for _, v := range e.Kind.incidentVertices() {
		c.adjList[v] = insertSorted(c.adjList[v], e.TagID)
	}
	c.edges = append(c.edges, e)
}

func insertSorted(s []common.TagId, v common.TagId) []common.TagId {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	if i < len(s) && s[i] == v {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeSorted(s []common.TagId, v common.TagId) []common.TagId {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	if i >= len(s) || s[i] != v {
		return s
	}
	return append(s[:i], s[i+1:]...)
}

// RemoveVertex drops tagID and every edge incident to it, updating the
// adjacency of the other endpoints those edges touched. Reports
// whether tagID was present.
func (c *CatalogPattern) RemoveVertex(tagID common.TagId) bool {
	if _, ok := c.tagVertexMap[tagID]; !ok {
		return false
	}
	delete(c.tagVertexMap, tagID)
	incident := c.adjList[tagID]
	delete(c.adjList, tagID)
	for _, edgeTagID := range incident {
		e, ok := c.GetEdge(edgeTagID)
		if !ok {
			continue
		}
		delete(c.tagEdgeMap, edgeTagID)
		for _, v := range e.Kind.incidentVertices() {
			if v == tagID {
				continue
			}
			c.adjList[v] = removeSorted(c.adjList[v], edgeTagID)
		}
	}
	return true
}

// RemoveEdge drops a single edge, reporting whether it was present.
func (c *CatalogPattern) RemoveEdge(tagID common.TagId) bool {
	e, ok := c.GetEdge(tagID)
	if !ok {
		return false
	}
	delete(c.tagEdgeMap, tagID)
	for _, v := range e.Kind.incidentVertices() {
		c.adjList[v] = removeSorted(c.adjList[v], tagID)
	}
	return true
}

// Vertices returns the live vertices, in insertion order.
func (c *CatalogPattern) Vertices() []CatalogVertex {
	out := make([]CatalogVertex, 0, len(c.tagVertexMap))
	for _, v := range c.vertices {
		if _, ok := c.tagVertexMap[v.TagID]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Edges returns the live edges, in insertion order.
func (c *CatalogPattern) Edges() []CatalogEdge {
	out := make([]CatalogEdge, 0, len(c.tagEdgeMap))
	for _, e := range c.edges {
		if _, ok := c.tagEdgeMap[e.TagID]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (c *CatalogPattern) GetVertex(tagID common.TagId) (CatalogVertex, bool) {
	i, ok := c.tagVertexMap[tagID]
	if !ok {
		return CatalogVertex{}, false
	}
	return c.vertices[i], true
}

func (c *CatalogPattern) GetEdge(tagID common.TagId) (CatalogEdge, bool) {
	i, ok := c.tagEdgeMap[tagID]
	if !ok {
		return CatalogEdge{}, false
	}
	return c.edges[i], true
}

// IncidentEdges returns tagID's incident edges, sorted by edge tag.
func (c *CatalogPattern) IncidentEdges(tagID common.TagId) ([]CatalogEdge, bool) {
	tags, ok := c.adjList[tagID]
	if !ok {
		return nil, false
	}
	out := make([]CatalogEdge, 0, len(tags))
	for _, t := range tags {
		e, ok := c.GetEdge(t)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return out, true
}

// catalogPatternJSON is the on-disk shape for a manually-specified
// CatalogPattern (the "estimate-manual" command's input file): the
// same vertex/edge list a decomposer would have produced, supplied by
// hand instead.
type catalogPatternJSON struct {
	Vertices []CatalogVertex `json:"vertices"`
	Edges    []struct {
		TagID    common.TagId        `json:"tag_id"`
		LabelID  common.LabelId      `json:"label_id"`
		Kind     CatalogEdgeKindType `json:"kind"`
		Center   common.TagId        `json:"center,omitempty"`
		Src      common.TagId        `json:"src,omitempty"`
		Dst      common.TagId        `json:"dst,omitempty"`
		Vertices []common.TagId      `json:"vertices,omitempty"`
	} `json:"edges"`
}

// MarshalJSON renders c into the on-disk CatalogPattern shape.
func (c *CatalogPattern) MarshalJSON() ([]byte, error) {
	var raw catalogPatternJSON
	raw.Vertices = c.Vertices()
	for _, e := range c.Edges() {
		raw.Edges = append(raw.Edges, struct {
			TagID    common.TagId        `json:"tag_id"`
			LabelID  common.LabelId      `json:"label_id"`
			Kind     CatalogEdgeKindType `json:"kind"`
			Center   common.TagId        `json:"center,omitempty"`
			Src      common.TagId        `json:"src,omitempty"`
			Dst      common.TagId        `json:"dst,omitempty"`
			Vertices []common.TagId      `json:"vertices,omitempty"`
		}{
			TagID: e.TagID, LabelID: e.LabelID, Kind: e.Kind.Type,
			Center: e.Kind.Center, Src: e.Kind.Src, Dst: e.Kind.Dst,
			Vertices: e.Kind.Vertices,
		})
	}
	return json.Marshal(raw)
}

// UnmarshalJSON rebuilds a CatalogPattern from the on-disk shape.
func (c *CatalogPattern) UnmarshalJSON(data []byte) error {
	var raw catalogPatternJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decompose: decode catalog pattern json: %w", err)
	}
	*c = *NewCatalogPattern()
	for _, v := range raw.Vertices {
		c.AddVertex(v)
	}
	for _, e := range raw.Edges {
		var kind CatalogEdgeKind
		switch e.Kind {
		case KindStar:
			kind = StarKind(e.Center)
		case KindPath:
			kind = PathKind(e.Src, e.Dst)
		default:
			kind = GeneralKind(e.Vertices)
		}
		c.AddEdge(CatalogEdge{TagID: e.TagID, LabelID: e.LabelID, Kind: kind})
	}
	return nil
}
