// Package catalog stores the path and star shapes a graph's schema was
// analyzed into, each mapped to a LabelId, alongside the bucket x
// bucket statistics tables the join engine queries to estimate
// cardinality. The concrete store is SQLite-backed (*Store); MockCatalog
// is an in-memory double for tests that don't need real SQL tables.
package catalog

import (
	"pathce/internal/common"
	"pathce/internal/pattern"
)

// Catalog looks up a pattern shape's LabelId, or the shape behind a
// LabelId, for paths and stars independently: path codes are global,
// star codes are additionally keyed by the rank of the star's center
// vertex (the same star shape can be centered on different ranks of a
// symmetric pattern).
type Catalog interface {
	GetPathLabelID(code []byte) (common.LabelId, bool)
	GetPath(labelID common.LabelId) (*pattern.PathPattern, bool)
	GetStarLabelID(rank common.TagId, code []byte) (common.LabelId, bool)
	GetStar(labelID common.LabelId) (*pattern.GeneralPattern, bool)
	GetEdgeCount(labelID common.LabelId) (int, bool)
}

// GetEdgeLabelID resolves a (src, dst, edge) triple's LabelId by
// encoding it as the single-edge path it would be catalogued under.
func GetEdgeLabelID(c Catalog, srcLabelID, dstLabelID, edgeLabelID common.LabelId) (common.LabelId, bool) {
	code := pattern.EncodeEdge(srcLabelID, dstLabelID, edgeLabelID)
	return c.GetPathLabelID(code)
}

// GetVertexLabelID resolves a vertex label's LabelId by encoding it as
// the rank-0, degree-0 star it would be catalogued under.
func GetVertexLabelID(c Catalog, vertexLabelID common.LabelId) (common.LabelId, bool) {
	code := pattern.EncodeVertex(vertexLabelID)
	return c.GetStarLabelID(0, code)
}
