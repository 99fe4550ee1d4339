// Package counter brute-forces the exact cardinality of a path or star
// pattern by walking the data graph directly, with no catalog
// involved: a ground-truth oracle for checking estimate.Estimator's
// output against, the same role counter.rs plays in the reference
// implementation.
package counter

import (
	"fmt"
	"sync"

	"pathce/internal/common"
	"pathce/internal/graph"
	"pathce/internal/pattern"
	"pathce/internal/workerpool"
)

// PathCounter counts exact path-pattern matches by a per-vertex
// running-count sweep: start every start-label vertex at count 1, then
// for each edge fold the running counts across its neighbors, summing
// the final counts once the walk reaches the path's end.
type PathCounter struct {
	graph *graph.LabeledGraph
	pool  *workerpool.Pool
}

func NewPathCounter(g *graph.LabeledGraph, pool *workerpool.Pool) *PathCounter {
	return &PathCounter{graph: g, pool: pool}
}

// Count returns the exact number of matches of path in the counter's
// graph.
func (c *PathCounter) Count(path *pattern.PathPattern) (float64, error) {
	start := path.Start()
	counts, err := c.countVertex(start.LabelID)
	if err != nil {
		return 0, err
	}

	for i, dir := range path.Directions() {
		e := path.Edges()[i]
		var sourceTagID, neighborTagID common.TagId
		var edgeDir common.EdgeDirection
		if dir == common.Out {
			sourceTagID, neighborTagID, edgeDir = e.Dst, e.Src, common.In
		} else {
			sourceTagID, neighborTagID, edgeDir = e.Src, e.Dst, common.Out
		}
		sourceVertex, _ := path.GetVertex(sourceTagID)
		neighborVertex, _ := path.GetVertex(neighborTagID)
		next, err := c.countEdge(sourceVertex.LabelID, e.LabelID, neighborVertex.LabelID, edgeDir, counts)
		if err != nil {
			return 0, err
		}
		counts = next
	}

	var total float64
	for _, v := range counts {
		total += v
	}
	return total, nil
}

func (c *PathCounter) countVertex(labelID common.LabelId) (map[common.VertexId]float64, error) {
	vertices, ok := c.graph.Vertices(labelID)
	if !ok {
		return nil, newCounterError("unknown vertex label %d", labelID)
	}
	counts := make(map[common.VertexId]float64, len(vertices))
	for _, v := range vertices {
		counts[v] = 1
	}
	return counts, nil
}

// countEdge folds counts (keyed by neighborLabelID's vertices) across
// one edge traversal, producing a new map keyed by vertexLabelID's
// vertices: each vertex's new count is the sum of its neighbors'
// counts reached by following edgeLabelID in direction dir.
func (c *PathCounter) countEdge(vertexLabelID, edgeLabelID, neighborLabelID common.LabelId, dir common.EdgeDirection, counts map[common.VertexId]float64) (map[common.VertexId]float64, error) {
	vertices, ok := c.graph.Vertices(vertexLabelID)
	if !ok {
		return nil, newCounterError("unknown vertex label %d", vertexLabelID)
	}
	out := make(map[common.VertexId]float64, len(vertices))
	var mu sync.Mutex
	err := workerpool.Scope(c.pool, func(s *workerpool.Scope) {
		for _, v := range vertices {
			v := v
			s.Go(func() error {
				neighbors, ok := c.graph.Neighbors(graph.LabeledVertex{ID: v, LabelID: vertexLabelID}, edgeLabelID, dir)
				if !ok {
					return newCounterError("unknown edge label %d", edgeLabelID)
				}
				var sum float64
				for _, n := range neighbors {
					sum += counts[n]
				}
				mu.Lock()
				out[v] = sum
				mu.Unlock()
				return nil
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StarCounter counts exact star-pattern matches: for every center
// vertex, the product of its per-adjacency degree along the star's
// declared edges (no catalog involved, see PathCounter).
type StarCounter struct {
	graph *graph.LabeledGraph
	pool  *workerpool.Pool
}

func NewStarCounter(g *graph.LabeledGraph, pool *workerpool.Pool) *StarCounter {
	return &StarCounter{graph: g, pool: pool}
}

// Count returns the exact number of matches of star in the counter's
// graph. star must be a genuine star shape: exactly one vertex with
// degree greater than one.
func (c *StarCounter) Count(star *pattern.GeneralPattern) (float64, error) {
	var center pattern.PatternVertex
	found := false
	for _, v := range star.Vertices() {
		d, _ := pattern.VertexDegree(star, v.TagID)
		if d > 1 {
			center = v
			found = true
			break
		}
	}
	if !found {
		return 0, newCounterError("star has no center vertex")
	}

	adjs, ok := pattern.Adjacencies(star, center.TagID)
	if !ok {
		return 0, newCounterError("unknown center tag %d", center.TagID)
	}
	vertices, ok := c.graph.Vertices(center.LabelID)
	if !ok {
		return 0, newCounterError("unknown vertex label %d", center.LabelID)
	}

	totals := make([]float64, len(vertices))
	err := workerpool.Scope(c.pool, func(s *workerpool.Scope) {
		for i, v := range vertices {
			i, v := i, v
			s.Go(func() error {
				product := 1.0
				for _, adj := range adjs {
					lv := graph.LabeledVertex{ID: v, LabelID: center.LabelID}
					var degree int
					var ok bool
					if adj.Direction == common.Out {
						degree, ok = c.graph.OutgoingDegree(lv, adj.EdgeLabelID)
					} else {
						degree, ok = c.graph.IncomingDegree(lv, adj.EdgeLabelID)
					}
					if !ok {
						return newCounterError("unknown edge label %d", adj.EdgeLabelID)
					}
					product *= float64(degree)
				}
				totals[i] = product
				return nil
			})
		}
	})
	if err != nil {
		return 0, err
	}

	var total float64
	for _, t := range totals {
		total += t
	}
	return total, nil
}

type counterError struct{ msg string }

func (e *counterError) Error() string { return "counter: " + e.msg }

func newCounterError(format string, args ...any) error {
	return &counterError{msg: fmt.Sprintf(format, args...)}
}
