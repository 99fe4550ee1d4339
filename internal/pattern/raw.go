package pattern

import (
	"encoding/json"
	"fmt"

	"pathce/internal/common"
)

// ErrPattern wraps a PatternError: disconnected pattern, duplicate tag,
// invalid walk, or an empty path.
type ErrPattern struct{ msg string }

func (e *ErrPattern) Error() string { return "pattern: " + e.msg }

func newPatternError(format string, args ...any) error {
	return &ErrPattern{msg: fmt.Sprintf(format, args...)}
}

// RawPattern is the unchecked, order-preserving builder for patterns:
// a deque of vertices and edges identified by tag. Narrowing into a
// GeneralPattern or PathPattern validates connectedness and (for
// paths) walk shape.
type RawPattern struct {
	vertices []PatternVertex
	edges    []PatternEdge
}

// NewRawPattern returns an empty builder.
func NewRawPattern() *RawPattern {
	return &RawPattern{}
}

// FromGraphPattern copies any existing pattern's vertices/edges into a
// fresh RawPattern, in tag-ascending traversal order as given.
func FromGraphPattern(p GraphPattern) *RawPattern {
	r := &RawPattern{}
	r.vertices = append(r.vertices, p.Vertices()...)
	r.edges = append(r.edges, p.Edges()...)
	return r
}

func (r *RawPattern) MaxVertexTagID() (common.TagId, bool) {
	if len(r.vertices) == 0 {
		return 0, false
	}
	max := r.vertices[0].TagID
	for _, v := range r.vertices[1:] {
		if v.TagID > max {
			max = v.TagID
		}
	}
	return max, true
}

func (r *RawPattern) MaxEdgeTagID() (common.TagId, bool) {
	if len(r.edges) == 0 {
		return 0, false
	}
	max := r.edges[0].TagID
	for _, e := range r.edges[1:] {
		if e.TagID > max {
			max = e.TagID
		}
	}
	return max, true
}

// NextVertexTagID returns the smallest tag id greater than every
// existing vertex tag (or 0 if empty).
func (r *RawPattern) NextVertexTagID() common.TagId {
	if m, ok := r.MaxVertexTagID(); ok {
		return m + 1
	}
	return 0
}

// NextEdgeTagID returns the smallest tag id greater than every
// existing edge tag (or 0 if empty).
func (r *RawPattern) NextEdgeTagID() common.TagId {
	if m, ok := r.MaxEdgeTagID(); ok {
		return m + 1
	}
	return 0
}

func (r *RawPattern) NumVertices() int { return len(r.vertices) }
func (r *RawPattern) NumEdges() int    { return len(r.edges) }

func (r *RawPattern) PushVertex(tagID common.TagId, labelID common.LabelId) *RawPattern {
	r.vertices = append(r.vertices, PatternVertex{TagID: tagID, LabelID: labelID})
	return r
}

func (r *RawPattern) PushEdge(tagID, src, dst common.TagId, labelID common.LabelId) *RawPattern {
	r.edges = append(r.edges, PatternEdge{TagID: tagID, Src: src, Dst: dst, LabelID: labelID})
	return r
}

func (r *RawPattern) PushFrontVertex(tagID common.TagId, labelID common.LabelId) *RawPattern {
	r.vertices = append([]PatternVertex{{TagID: tagID, LabelID: labelID}}, r.vertices...)
	return r
}

func (r *RawPattern) PushFrontEdge(tagID, src, dst common.TagId, labelID common.LabelId) *RawPattern {
	r.edges = append([]PatternEdge{{TagID: tagID, Src: src, Dst: dst, LabelID: labelID}}, r.edges...)
	return r
}

func (r *RawPattern) PopBackVertex() *RawPattern {
	if len(r.vertices) > 0 {
		r.vertices = r.vertices[:len(r.vertices)-1]
	}
	return r
}

func (r *RawPattern) PopBackEdge() *RawPattern {
	if len(r.edges) > 0 {
		r.edges = r.edges[:len(r.edges)-1]
	}
	return r
}

// ToGeneral narrows into a GeneralPattern, computing adjacency lists
// and a canonical rank assignment. Fails on duplicate tags, dangling
// edge endpoints, or disconnection.
func (r *RawPattern) ToGeneral() (*GeneralPattern, error) {
	tagVertex := make(map[common.TagId]int, len(r.vertices))
	for i, v := range r.vertices {
		if _, dup := tagVertex[v.TagID]; dup {
			return nil, newPatternError("duplicate vertex tag id %d", v.TagID)
		}
		tagVertex[v.TagID] = i
	}
	tagEdge := make(map[common.TagId]int, len(r.edges))
	for i, e := range r.edges {
		if _, dup := tagEdge[e.TagID]; dup {
			return nil, newPatternError("duplicate edge tag id %d", e.TagID)
		}
		tagEdge[e.TagID] = i
	}
	outAdj := make(map[common.TagId][]PatternAdjacency, len(r.vertices))
	inAdj := make(map[common.TagId][]PatternAdjacency, len(r.vertices))
	for _, v := range r.vertices {
		outAdj[v.TagID] = nil
		inAdj[v.TagID] = nil
	}
	for _, e := range r.edges {
		if _, ok := tagVertex[e.Src]; !ok {
			return nil, newPatternError("vertex with tag id %d not exist", e.Src)
		}
		if _, ok := tagVertex[e.Dst]; !ok {
			return nil, newPatternError("vertex with tag id %d not exist", e.Dst)
		}
		outAdj[e.Src] = append(outAdj[e.Src], PatternAdjacency{
			EdgeTagID: e.TagID, EdgeLabelID: e.LabelID, NeighborTagID: e.Dst, Direction: common.Out,
		})
		inAdj[e.Dst] = append(inAdj[e.Dst], PatternAdjacency{
			EdgeTagID: e.TagID, EdgeLabelID: e.LabelID, NeighborTagID: e.Src, Direction: common.In,
		})
	}

	g := &GeneralPattern{
		vertices:  append([]PatternVertex(nil), r.vertices...),
		edges:     append([]PatternEdge(nil), r.edges...),
		tagVertex: tagVertex,
		tagEdge:   tagEdge,
		outAdj:    outAdj,
		inAdj:     inAdj,
	}
	if !isConnected(g) {
		return nil, newPatternError("pattern not connected")
	}
	vertexRank, edgeRank := Canonicalize(g)
	rankVertex := make(map[common.TagId]common.TagId, len(vertexRank))
	for tagID, rank := range vertexRank {
		rankVertex[rank] = tagID
	}
	rankEdge := make(map[common.TagId]common.TagId, len(edgeRank))
	for tagID, rank := range edgeRank {
		rankEdge[rank] = tagID
	}
	g.vertexRank = vertexRank
	g.edgeRank = edgeRank
	g.rankVertex = rankVertex
	g.rankEdge = rankEdge
	return g, nil
}

// ToPath narrows into a PathPattern: a GeneralPattern whose edges form
// a single walk from the first vertex to the last.
func (r *RawPattern) ToPath() (*PathPattern, error) {
	g, err := r.ToGeneral()
	if err != nil {
		return nil, err
	}
	if len(g.Vertices()) == 0 {
		return nil, newPatternError("empty path is not allowed")
	}
	directions := make([]common.EdgeDirection, 0, len(g.Edges()))
	start := g.Vertices()[0].TagID
	end := g.Vertices()[len(g.Vertices())-1].TagID
	cur := start
	for _, e := range g.Edges() {
		switch cur {
		case e.Src:
			directions = append(directions, common.Out)
			cur = e.Dst
		case e.Dst:
			directions = append(directions, common.In)
			cur = e.Src
		default:
			return nil, newPatternError("pattern is not a single walk")
		}
	}
	if cur != end {
		return nil, newPatternError("pattern is not a single walk")
	}
	return &PathPattern{pattern: g, directions: directions}, nil
}

// rawJSON is the on-disk JSON shape for patterns (§6 Pattern file):
// {vertices: [{tag_id,label_id}], edges: [{tag_id,src,dst,label_id}]}.
type rawJSON struct {
	Vertices []struct {
		TagID   common.TagId   `json:"tag_id"`
		LabelID common.LabelId `json:"label_id"`
	} `json:"vertices"`
	Edges []struct {
		TagID   common.TagId   `json:"tag_id"`
		Src     common.TagId   `json:"src"`
		Dst     common.TagId   `json:"dst"`
		LabelID common.LabelId `json:"label_id"`
	} `json:"edges"`
}

// DecodeRawPattern reads the Pattern file JSON shape from bytes.
func DecodeRawPattern(data []byte) (*RawPattern, error) {
	var raw rawJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode pattern json: %w", err)
	}
	r := NewRawPattern()
	for _, v := range raw.Vertices {
		r.PushVertex(v.TagID, v.LabelID)
	}
	for _, e := range raw.Edges {
		r.PushEdge(e.TagID, e.Src, e.Dst, e.LabelID)
	}
	return r, nil
}

// MarshalGraphPattern renders any pattern refinement back into the
// Pattern file JSON shape.
func MarshalGraphPattern(p GraphPattern) ([]byte, error) {
	var raw rawJSON
	for _, v := range p.Vertices() {
		raw.Vertices = append(raw.Vertices, struct {
			TagID   common.TagId   `json:"tag_id"`
			LabelID common.LabelId `json:"label_id"`
		}{v.TagID, v.LabelID})
	}
	for _, e := range p.Edges() {
		raw.Edges = append(raw.Edges, struct {
			TagID   common.TagId   `json:"tag_id"`
			Src     common.TagId   `json:"src"`
			Dst     common.TagId   `json:"dst"`
			LabelID common.LabelId `json:"label_id"`
		}{e.TagID, e.Src, e.Dst, e.LabelID})
	}
	return json.Marshal(raw)
}

// DecodeAsPattern decodes Pattern-file JSON into a Path if it forms a
// walk, a General pattern otherwise, matching §6's "check" semantics.
func DecodeAsPattern(data []byte) (GraphPattern, error) {
	raw, err := DecodeRawPattern(data)
	if err != nil {
		return nil, err
	}
	if p, err := raw.ToPath(); err == nil {
		return p, nil
	}
	return raw.ToGeneral()
}
