// Package pattern implements query patterns (Path/Star/General
// refinements), their canonical isomorphism-class encoding, and the
// raw-pattern builder that validates and narrows into those refinements.
package pattern

import (
	"encoding/binary"
	"sort"

	"pathce/internal/common"
)

// edgeEncodingLength is the fixed byte width of one edge's canonical
// code record: edge label (4), src label (4), dst label (4), src rank
// (1), dst rank (1).
const edgeEncodingLength = 14

// PatternVertex is a single vertex within a pattern, identified by a
// stable tag within the pattern's tag namespace.
type PatternVertex struct {
	TagID   common.TagId
	LabelID common.LabelId
}

// PatternEdge is a single directed edge within a pattern.
type PatternEdge struct {
	TagID   common.TagId
	Src     common.TagId
	Dst     common.TagId
	LabelID common.LabelId
}

// PatternAdjacency is one endpoint's view of an incident edge: which
// edge, which neighbor, and in which direction the edge is traversed
// from this vertex.
type PatternAdjacency struct {
	EdgeTagID     common.TagId
	EdgeLabelID   common.LabelId
	NeighborTagID common.TagId
	Direction     common.EdgeDirection
}

// GraphPattern is the shared read interface over Path/Star/General
// pattern refinements: lookups by tag, rank assignment from the
// canonicalizer, and adjacency traversal.
type GraphPattern interface {
	Vertices() []PatternVertex
	Edges() []PatternEdge

	GetVertex(tagID common.TagId) (PatternVertex, bool)
	GetVertexRank(tagID common.TagId) (common.TagId, bool)
	GetVertexFromRank(rank common.TagId) (PatternVertex, bool)

	GetEdge(tagID common.TagId) (PatternEdge, bool)
	GetEdgeRank(tagID common.TagId) (common.TagId, bool)
	GetEdgeFromRank(rank common.TagId) (PatternEdge, bool)

	OutgoingAdjacencies(tagID common.TagId) ([]PatternAdjacency, bool)
	IncomingAdjacencies(tagID common.TagId) ([]PatternAdjacency, bool)
}

// Adjacencies returns all adjacencies (outgoing then incoming) of tagID.
func Adjacencies(p GraphPattern, tagID common.TagId) ([]PatternAdjacency, bool) {
	out, ok1 := p.OutgoingAdjacencies(tagID)
	in, ok2 := p.IncomingAdjacencies(tagID)
	if !ok1 || !ok2 {
		return nil, false
	}
	all := make([]PatternAdjacency, 0, len(out)+len(in))
	all = append(all, out...)
	all = append(all, in...)
	return all, true
}

// VertexDegree returns the total (in+out) degree of tagID.
func VertexDegree(p GraphPattern, tagID common.TagId) (int, bool) {
	out, ok1 := p.OutgoingAdjacencies(tagID)
	in, ok2 := p.IncomingAdjacencies(tagID)
	if !ok1 || !ok2 {
		return 0, false
	}
	return len(out) + len(in), true
}

// MinVertexLabelID returns the minimum vertex label present, if any.
func MinVertexLabelID(p GraphPattern) (common.LabelId, bool) {
	vs := p.Vertices()
	if len(vs) == 0 {
		return 0, false
	}
	min := vs[0].LabelID
	for _, v := range vs[1:] {
		if v.LabelID < min {
			min = v.LabelID
		}
	}
	return min, true
}

// IsCyclic reports whether the pattern has more edges than a spanning
// tree would (the pattern is assumed connected).
func IsCyclic(p GraphPattern) bool {
	vs := p.Vertices()
	if len(vs) == 0 {
		return false
	}
	return len(p.Edges()) > len(vs)-1
}

// IsCycle reports whether every vertex has degree exactly 2.
func IsCycle(p GraphPattern) bool {
	vs := p.Vertices()
	if len(vs) == 0 {
		return false
	}
	for _, v := range vs {
		d, _ := VertexDegree(p, v.TagID)
		if d != 2 {
			return false
		}
	}
	return true
}

// IsPath reports whether the pattern is a simple path: two degree-1
// endpoints (or a single degree-0 vertex), rest degree 2.
func IsPath(p GraphPattern) bool {
	vs := p.Vertices()
	if len(vs) == 0 {
		return false
	}
	deg1, deg2 := 0, 0
	for _, v := range vs {
		d, _ := VertexDegree(p, v.TagID)
		switch d {
		case 0:
			return len(vs) == 1 && len(p.Edges()) == 0
		case 1:
			deg1++
		case 2:
			deg2++
		default:
			return false
		}
	}
	return deg1 == 2 && deg1+deg2 == len(vs)
}

// EncodeVertex is the canonical code of a single-vertex pattern: the
// little-endian vertex label.
func EncodeVertex(labelID common.LabelId) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(labelID))
	return b
}

// EncodeEdge is the canonical code of a single-edge pattern: edge
// label, src label, dst label, src rank, dst rank (0/1 ordered by
// label ascending; ties resolve to 1,0).
func EncodeEdge(srcLabelID, dstLabelID, edgeLabelID common.LabelId) []byte {
	code := make([]byte, 0, edgeEncodingLength)
	code = appendU32(code, uint32(edgeLabelID))
	code = appendU32(code, uint32(srcLabelID))
	code = appendU32(code, uint32(dstLabelID))
	var srcRank, dstRank byte
	if srcLabelID < dstLabelID {
		srcRank, dstRank = 0, 1
	} else {
		srcRank, dstRank = 1, 0
	}
	code = append(code, srcRank, dstRank)
	return code
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// encodeGeneral concatenates per-edge 14-byte records in edge-rank
// order. Requires the pattern to already carry vertex/edge ranks.
func encodeGeneral(p GraphPattern) []byte {
	edges := append([]PatternEdge(nil), p.Edges()...)
	sort.Slice(edges, func(i, j int) bool {
		ri, _ := p.GetEdgeRank(edges[i].TagID)
		rj, _ := p.GetEdgeRank(edges[j].TagID)
		return ri < rj
	})
	code := make([]byte, 0, len(edges)*edgeEncodingLength)
	for _, e := range edges {
		srcV, _ := p.GetVertex(e.Src)
		dstV, _ := p.GetVertex(e.Dst)
		srcRank, _ := p.GetVertexRank(e.Src)
		dstRank, _ := p.GetVertexRank(e.Dst)
		code = appendU32(code, uint32(e.LabelID))
		code = appendU32(code, uint32(srcV.LabelID))
		code = appendU32(code, uint32(dstV.LabelID))
		code = append(code, byte(srcRank), byte(dstRank))
	}
	return code
}

// Encode returns the canonical code for any pattern refinement.
func Encode(p GraphPattern) []byte {
	switch {
	case len(p.Vertices()) == 0:
		return []byte{}
	case len(p.Edges()) == 0 && len(p.Vertices()) == 1:
		return EncodeVertex(p.Vertices()[0].LabelID)
	case len(p.Edges()) == 1:
		e := p.Edges()[0]
		srcV, _ := p.GetVertex(e.Src)
		dstV, _ := p.GetVertex(e.Dst)
		return EncodeEdge(srcV.LabelID, dstV.LabelID, e.LabelID)
	default:
		return encodeGeneral(p)
	}
}
