package pattern

import (
	"fmt"
	"strings"

	"pathce/internal/common"
)

// PathPattern is a GeneralPattern refinement carrying per-edge walk
// direction: a connected pattern where every vertex has degree <= 2
// and exactly two have degree 1 (or a single degree-0 vertex).
type PathPattern struct {
	pattern    *GeneralPattern
	directions []common.EdgeDirection
}

var _ GraphPattern = (*PathPattern)(nil)

func (p *PathPattern) Vertices() []PatternVertex { return p.pattern.Vertices() }
func (p *PathPattern) Edges() []PatternEdge      { return p.pattern.Edges() }
func (p *PathPattern) GetVertex(tagID common.TagId) (PatternVertex, bool) {
	return p.pattern.GetVertex(tagID)
}
func (p *PathPattern) GetVertexRank(tagID common.TagId) (common.TagId, bool) {
	return p.pattern.GetVertexRank(tagID)
}
func (p *PathPattern) GetVertexFromRank(rank common.TagId) (PatternVertex, bool) {
	return p.pattern.GetVertexFromRank(rank)
}
func (p *PathPattern) GetEdge(tagID common.TagId) (PatternEdge, bool) {
	return p.pattern.GetEdge(tagID)
}
func (p *PathPattern) GetEdgeRank(tagID common.TagId) (common.TagId, bool) {
	return p.pattern.GetEdgeRank(tagID)
}
func (p *PathPattern) GetEdgeFromRank(rank common.TagId) (PatternEdge, bool) {
	return p.pattern.GetEdgeFromRank(rank)
}
func (p *PathPattern) OutgoingAdjacencies(tagID common.TagId) ([]PatternAdjacency, bool) {
	return p.pattern.OutgoingAdjacencies(tagID)
}
func (p *PathPattern) IncomingAdjacencies(tagID common.TagId) ([]PatternAdjacency, bool) {
	return p.pattern.IncomingAdjacencies(tagID)
}

// General returns the underlying GeneralPattern (narrowing inverse).
func (p *PathPattern) General() *GeneralPattern { return p.pattern }

func (p *PathPattern) Start() PatternVertex { return p.Vertices()[0] }
func (p *PathPattern) End() PatternVertex   { return p.Vertices()[len(p.Vertices())-1] }
func (p *PathPattern) IsEmpty() bool        { return len(p.Edges()) == 0 }
func (p *PathPattern) Len() int             { return len(p.Edges()) }
func (p *PathPattern) Directions() []common.EdgeDirection { return p.directions }

func (p *PathPattern) IsSingleDirection() bool {
	for _, d := range p.directions {
		if d != common.Out {
			return false
		}
	}
	return true
}

// Reverse returns the path walked in the opposite direction.
func (p *PathPattern) Reverse() *PathPattern {
	r := NewRawPattern()
	vs := p.Vertices()
	for i := len(vs) - 1; i >= 0; i-- {
		r.PushVertex(vs[i].TagID, vs[i].LabelID)
	}
	es := p.Edges()
	for i := len(es) - 1; i >= 0; i-- {
		e := es[i]
		r.PushEdge(e.TagID, e.Src, e.Dst, e.LabelID)
	}
	rev, err := r.ToPath()
	if err != nil {
		panic(err)
	}
	return rev
}

// IsSymmetric reports whether the path reads identically (by label
// sequence and direction) forwards and backwards.
func (p *PathPattern) IsSymmetric() bool {
	rev := p.Reverse()
	vs, rvs := p.Vertices(), rev.Vertices()
	for i := range vs {
		if vs[i].LabelID != rvs[i].LabelID {
			return false
		}
	}
	es, res := p.Edges(), rev.Edges()
	for i := range es {
		if es[i].LabelID != res[i].LabelID {
			return false
		}
	}
	for i := range p.directions {
		if p.directions[i] != rev.directions[i] {
			return false
		}
	}
	return true
}

func (p *PathPattern) String() string {
	var b strings.Builder
	start := p.Start()
	fmt.Fprintf(&b, "(%d:%d)", start.TagID, start.LabelID)
	for i, e := range p.Edges() {
		if p.directions[i] == common.Out {
			next, _ := p.GetVertex(e.Dst)
			fmt.Fprintf(&b, "-[%d:%d]->(%d:%d)", e.TagID, e.LabelID, next.TagID, next.LabelID)
		} else {
			next, _ := p.GetVertex(e.Src)
			fmt.Fprintf(&b, "<-[%d:%d]-(%d:%d)", e.TagID, e.LabelID, next.TagID, next.LabelID)
		}
	}
	return b.String()
}

// MergePathsToStar merges N paths sharing the same-labeled start
// vertex into a single star GeneralPattern centered on that vertex,
// returning the star and the center's rank within it.
func MergePathsToStar(paths []*PathPattern) (*GeneralPattern, common.TagId) {
	if len(paths) == 0 {
		panic("MergePathsToStar: no paths")
	}
	first := paths[0]
	raw := FromGraphPattern(first)
	vertexOffset := raw.NextVertexTagID()
	edgeOffset := raw.NextEdgeTagID()
	firstStart := first.Start()

	for _, path := range paths[1:] {
		start := path.Start()
		if start.LabelID != firstStart.LabelID {
			panic("MergePathsToStar: mismatched start labels")
		}
		for _, v := range path.Vertices() {
			if v.TagID == start.TagID {
				continue
			}
			raw.PushVertex(v.TagID+vertexOffset, v.LabelID)
		}
		for _, e := range path.Edges() {
			srcTag := e.Src
			if srcTag != start.TagID {
				srcTag += vertexOffset
			} else {
				srcTag = firstStart.TagID
			}
			dstTag := e.Dst
			if dstTag != start.TagID {
				dstTag += vertexOffset
			} else {
				dstTag = firstStart.TagID
			}
			raw.PushEdge(e.TagID+edgeOffset, srcTag, dstTag, e.LabelID)
		}
		vertexOffset = raw.NextVertexTagID()
		edgeOffset = raw.NextEdgeTagID()
	}

	star, err := raw.ToGeneral()
	if err != nil {
		panic(err)
	}
	centerRank, _ := star.GetVertexRank(firstStart.TagID)
	return star, centerRank
}
