// Package graph holds the labeled data graph: per-label dense vertex
// interning plus a bidirectional CSR adjacency index per edge label,
// loaded from CSV or a binary snapshot.
package graph

import (
	"fmt"
	"sort"

	"pathce/internal/common"
)

// ErrGraph wraps a GraphError: unsorted edge input, an out-of-range
// vertex id, or a duplicate vertex id.
type ErrGraph struct{ msg string }

func (e *ErrGraph) Error() string { return "graph: " + e.msg }

func newGraphError(format string, args ...any) error {
	return &ErrGraph{msg: fmt.Sprintf(format, args...)}
}

// Csr is a compressed sparse row adjacency list keyed by a source
// vertex's dense internal id, but storing neighbors as *external*
// vertex ids directly (so a caller never needs a second id
// translation on the neighbor side): offsets has one entry per
// internal id plus a trailing sentinel, neighbors holds the
// concatenated external-id adjacency lists.
type Csr struct {
	offsets   []int
	neighbors []common.VertexId
}

// Neighbors returns the adjacency list of the internal id vertex, or
// an empty slice if vertex is out of range.
func (c *Csr) Neighbors(vertex common.InternalId) []common.VertexId {
	idx := int(vertex)
	if len(c.offsets) < 2 || idx > len(c.offsets)-2 {
		return nil
	}
	return c.neighbors[c.offsets[idx]:c.offsets[idx+1]]
}

func (c *Csr) numEdges() int { return len(c.neighbors) }

// edgePair is a (src internal id, dst external id) pair, sorted by src
// then dst.
type edgePair struct {
	src common.InternalId
	dst common.VertexId
}

// fromSortedEdges builds a Csr over internal ids [0, maxVertexID] from
// edges already sorted by src. offsets has maxVertexID+2 entries, the
// last being a sentinel equal to the edge count.
func fromSortedEdges(maxVertexID common.InternalId, edges []edgePair) (*Csr, error) {
	offsets := make([]int, maxVertexID+2)
	neighbors := make([]common.VertexId, 0, len(edges))

	cur := common.InternalId(0)
	pos := 0
	for pos < len(edges) {
		start := pos
		src := edges[pos].src
		if src < cur {
			return nil, newGraphError("edges are not sorted by src vertex id")
		}
		if src > maxVertexID {
			return nil, newGraphError("src vertex id %d exceeds max vertex id %d", src, maxVertexID)
		}
		for pos < len(edges) && edges[pos].src == src {
			pos++
		}
		for v := cur; v <= src; v++ {
			offsets[v] = len(neighbors)
		}
		for _, e := range edges[start:pos] {
			neighbors = append(neighbors, e.dst)
		}
		cur = src + 1
	}
	for v := cur; v < common.InternalId(len(offsets)); v++ {
		offsets[v] = len(neighbors)
	}
	return &Csr{offsets: offsets, neighbors: neighbors}, nil
}

func sortEdgePairs(edges []edgePair) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].src != edges[j].src {
			return edges[i].src < edges[j].src
		}
		return edges[i].dst < edges[j].dst
	})
}

// BidirectionalCsr pairs a forward and backward adjacency index for one
// edge label, so neighbors can be found by walking either direction.
type BidirectionalCsr struct {
	forward  *Csr
	backward *Csr
}

func newBidirectionalCsr(forward, backward *Csr) *BidirectionalCsr {
	return &BidirectionalCsr{forward: forward, backward: backward}
}

func (b *BidirectionalCsr) OutgoingNeighbors(v common.InternalId) []common.VertexId {
	return b.forward.Neighbors(v)
}

func (b *BidirectionalCsr) IncomingNeighbors(v common.InternalId) []common.VertexId {
	return b.backward.Neighbors(v)
}

func (b *BidirectionalCsr) NumEdges() int { return b.forward.numEdges() }
