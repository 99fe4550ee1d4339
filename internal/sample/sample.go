// Package sample materializes a path pattern's factorized join table
// by walking the labeled graph: 0/1/2-edge base cases plus an `extend`
// step that grows an existing table by one more hop without
// re-sampling what is already known.
package sample

import (
	"pathce/internal/common"
	"pathce/internal/factorization"
	"pathce/internal/graph"
	"pathce/internal/pattern"
)

// PathSampler materializes PathPattern join tables against one graph.
type PathSampler struct {
	graph *graph.LabeledGraph
}

func New(g *graph.LabeledGraph) *PathSampler {
	return &PathSampler{graph: g}
}

// Sample builds the factorized table for a path of length 0, 1 or 2.
// Longer paths are built incrementally via Extend from a shorter base.
func (s *PathSampler) Sample(path *pattern.PathPattern) *factorization.Table {
	switch path.Len() {
	case 0:
		return s.sample0(path)
	case 1:
		return s.sample1(path)
	case 2:
		return s.sample2(path)
	default:
		panic("sample: paths longer than 2 edges must be built via Extend")
	}
}

func (s *PathSampler) sample0(path *pattern.PathPattern) *factorization.Table {
	start := path.Start()
	vertices, _ := s.graph.Vertices(start.LabelID)
	col := factorization.NewSingleColumn()
	col.Extend(vertices)
	table := factorization.NewTable()
	table.AddGroup(factorization.NewColumnGroup(col))
	table.AddTag(start.TagID, 0, 0)
	return table
}

// sample1Inner builds the (start, end) column pair for a single edge
// walked from startLabel in direction dir, sharing startLabel's
// vertex list as the cheaper side to enumerate.
func (s *PathSampler) sample1Inner(startLabel, edgeLabel common.LabelId, dir common.EdgeDirection) (*factorization.ColumnGroup, *factorization.ColumnGroup) {
	vertices, _ := s.graph.Vertices(startLabel)
	startCol := factorization.NewSingleColumn()
	startCol.Extend(vertices)
	endCol := factorization.NewMultipleColumn()
	for _, v := range vertices {
		neighbors, _ := s.graph.Neighbors(graph.LabeledVertex{ID: v, LabelID: startLabel}, edgeLabel, dir)
		endCol.Extend(neighbors)
	}
	return factorization.NewColumnGroup(startCol), factorization.NewColumnGroup(endCol)
}

func (s *PathSampler) sample1(path *pattern.PathPattern) *factorization.Table {
	start, end := path.Start(), path.End()
	dir := path.Directions()[0]
	edge := path.Edges()[0]
	table := factorization.NewTable()

	startVertices, _ := s.graph.Vertices(start.LabelID)
	endVertices, _ := s.graph.Vertices(end.LabelID)
	if len(startVertices) < len(endVertices) {
		startGroup, endGroup := s.sample1Inner(start.LabelID, edge.LabelID, dir)
		table.AddGroup(startGroup)
		table.AddGroup(endGroup)
	} else {
		endGroup, startGroup := s.sample1Inner(end.LabelID, edge.LabelID, dir.Reverse())
		table.AddGroup(startGroup)
		table.AddGroup(endGroup)
	}
	table.AddTag(start.TagID, 0, 0)
	table.AddTag(end.TagID, 1, 0)
	return table
}

func (s *PathSampler) sample2(path *pattern.PathPattern) *factorization.Table {
	start, end := path.Start(), path.End()
	edges := path.Edges()
	dirs := path.Directions()
	firstEdge, secondEdge := edges[0], edges[1]
	firstDir, secondDir := dirs[0], dirs[1]

	var midTag common.TagId
	if firstDir == common.Out {
		midTag = firstEdge.Dst
	} else {
		midTag = firstEdge.Src
	}
	mid, _ := path.GetVertex(midTag)

	midVertices, _ := s.graph.Vertices(mid.LabelID)
	midCol := factorization.NewSingleColumn()
	midCol.Extend(midVertices)

	startCol := factorization.NewMultipleColumn()
	endCol := factorization.NewMultipleColumn()
	for _, v := range midVertices {
		midVertex := graph.LabeledVertex{ID: v, LabelID: mid.LabelID}
		startNeighbors, _ := s.graph.Neighbors(midVertex, firstEdge.LabelID, firstDir.Reverse())
		startCol.Extend(startNeighbors)
		endNeighbors, _ := s.graph.Neighbors(midVertex, secondEdge.LabelID, secondDir)
		endCol.Extend(endNeighbors)
	}

	table := factorization.NewTable()
	table.AddGroup(factorization.NewColumnGroup(startCol))
	table.AddGroup(factorization.NewColumnGroup(midCol))
	table.AddGroup(factorization.NewColumnGroup(endCol))
	table.AddTag(start.TagID, 0, 0)
	table.AddTag(mid.TagID, 1, 0)
	table.AddTag(end.TagID, 2, 0)
	return table
}

// Extend grows baseTable (sampled for basePath) by one more hop to
// match newPath, which must equal basePath plus exactly one trailing
// (fromEnd=true) or leading (fromEnd=false) vertex+edge. Column values
// that have no matching neighbor become common.InvalidVertexId.
func (s *PathSampler) Extend(basePath *pattern.PathPattern, baseTable *factorization.Table, newPath *pattern.PathPattern, fromEnd bool) *factorization.Table {
	var extendStart pattern.PatternVertex
	if fromEnd {
		extendStart = basePath.End()
	} else {
		extendStart = basePath.Start()
	}
	var extendEnd pattern.PatternVertex
	if fromEnd {
		extendEnd = newPath.End()
	} else {
		extendEnd = newPath.Start()
	}
	edges := newPath.Edges()
	dirs := newPath.Directions()
	var extendEdge pattern.PatternEdge
	var direction common.EdgeDirection
	if fromEnd {
		extendEdge = edges[len(edges)-1]
		direction = dirs[len(dirs)-1]
	} else {
		extendEdge = edges[0]
		direction = dirs[0].Reverse()
	}

	col, ok := baseTable.GetColumn(extendStart.TagID)
	if !ok {
		panic("sample: extend base column not found")
	}
	values := col.Values()
	newColumn := make([]common.VertexId, len(values))
	for i, id := range values {
		if !id.IsValid() {
			newColumn[i] = common.InvalidVertexId
			continue
		}
		vertex := graph.LabeledVertex{ID: id, LabelID: extendStart.LabelID}
		neighbors, _ := s.graph.Neighbors(vertex, extendEdge.LabelID, direction)
		if len(neighbors) == 0 {
			newColumn[i] = common.InvalidVertexId
		} else {
			newColumn[i] = neighbors[0]
		}
	}

	groupID, _, _ := baseTable.GetColumnPos(extendStart.TagID)
	columnID := baseTable.AddColumn(groupID, newColumn)
	baseTable.AddTag(extendEnd.TagID, groupID, columnID)
	return baseTable
}
