// Package factorization holds factorized sampling tables: columns of
// path-sample vertex ids sharing either "exactly one value per item"
// (Single) or "a variable-length run per item" (Multiple) offset
// semantics, grouped so that sibling columns of one table share an
// offsets array.
package factorization

import (
	"pathce/internal/common"
)

// offsetsKind distinguishes a column group's indexing scheme.
type offsetsKind int

const (
	offsetsSingle offsetsKind = iota
	offsetsMultiple
)

type offsets struct {
	kind   offsetsKind
	bounds []int // only used when kind == offsetsMultiple
}

// ColumnRef is a read-only view of one column within a ColumnGroup.
type ColumnRef struct {
	offsets *offsets
	values  []common.VertexId
}

func (c *ColumnRef) Values() []common.VertexId { return c.values }

func (c *ColumnRef) NumItems() int {
	switch c.offsets.kind {
	case offsetsSingle:
		return len(c.values)
	default:
		return len(c.offsets.bounds) - 1
	}
}

func (c *ColumnRef) NumValues() int { return len(c.values) }

// CountValid reports how many non-sentinel ids item index holds.
func (c *ColumnRef) CountValid(index int) (int, bool) {
	item, ok := c.GetItem(index)
	if !ok {
		return 0, false
	}
	n := 0
	for _, v := range item {
		if v != common.InvalidVertexId {
			n++
		}
	}
	return n, true
}

func (c *ColumnRef) GetItem(index int) ([]common.VertexId, bool) {
	switch c.offsets.kind {
	case offsetsSingle:
		if index < 0 || index >= len(c.values) {
			return nil, false
		}
		return c.values[index : index+1], true
	default:
		if index < 0 || index+1 >= len(c.offsets.bounds) {
			return nil, false
		}
		start, end := c.offsets.bounds[index], c.offsets.bounds[index+1]
		return c.values[start:end], true
	}
}

// Items returns every item's slice of ids in order.
func (c *ColumnRef) Items() [][]common.VertexId {
	n := c.NumItems()
	out := make([][]common.VertexId, n)
	for i := 0; i < n; i++ {
		out[i], _ = c.GetItem(i)
	}
	return out
}

// SingleColumnGroup is one in-progress column under construction,
// before being sealed into a ColumnGroup via NewColumnGroup.
type SingleColumnGroup struct {
	offsets offsets
	values  []common.VertexId
}

func NewSingleColumn() *SingleColumnGroup {
	return &SingleColumnGroup{offsets: offsets{kind: offsetsSingle}}
}

func NewMultipleColumn() *SingleColumnGroup {
	return &SingleColumnGroup{offsets: offsets{kind: offsetsMultiple, bounds: []int{0}}}
}

func (g *SingleColumnGroup) NumItems() int {
	switch g.offsets.kind {
	case offsetsSingle:
		return len(g.values)
	default:
		return len(g.offsets.bounds) - 1
	}
}

func (g *SingleColumnGroup) NumValues() int { return len(g.values) }

func (g *SingleColumnGroup) Extend(ids []common.VertexId) {
	g.values = append(g.values, ids...)
	if g.offsets.kind == offsetsMultiple {
		g.offsets.bounds = append(g.offsets.bounds, len(g.values))
	}
}

func (g *SingleColumnGroup) ExtendOne(id common.VertexId) {
	g.Extend([]common.VertexId{id})
}

// ColumnGroup is a sealed set of sibling columns sharing one offsets
// array: every column in the group has the same item boundaries.
type ColumnGroup struct {
	offsets *offsets
	columns [][]common.VertexId
}

// NewColumnGroup seals a SingleColumnGroup as the first column of a
// new group.
func NewColumnGroup(first *SingleColumnGroup) *ColumnGroup {
	off := first.offsets
	return &ColumnGroup{
		offsets: &off,
		columns: [][]common.VertexId{first.values},
	}
}

func (g *ColumnGroup) Count(itemID int) (int, bool) {
	if itemID < 0 || itemID >= g.NumItems() {
		return 0, false
	}
	switch g.offsets.kind {
	case offsetsSingle:
		return 1, true
	default:
		return g.offsets.bounds[itemID+1] - g.offsets.bounds[itemID], true
	}
}

func (g *ColumnGroup) NumColumns() int { return len(g.columns) }

func (g *ColumnGroup) NumItems() int {
	switch g.offsets.kind {
	case offsetsSingle:
		if len(g.columns) == 0 {
			return 0
		}
		return len(g.columns[0])
	default:
		return len(g.offsets.bounds) - 1
	}
}

func (g *ColumnGroup) NumValues() int {
	if len(g.columns) == 0 {
		return 0
	}
	return len(g.columns[0])
}

// AddColumn appends a sibling column sharing this group's offsets,
// returning its index. The new column's value count must match the
// group's existing value count.
func (g *ColumnGroup) AddColumn(values []common.VertexId) int {
	if len(g.columns) > 0 && len(values) != len(g.columns[0]) {
		panic("factorization: sibling column length mismatch")
	}
	g.columns = append(g.columns, values)
	return len(g.columns) - 1
}

func (g *ColumnGroup) GetColumn(index int) (*ColumnRef, bool) {
	if index < 0 || index >= len(g.columns) {
		return nil, false
	}
	return &ColumnRef{offsets: g.offsets, values: g.columns[index]}, true
}

func (g *ColumnGroup) ReplaceColumn(index int, values []common.VertexId) []common.VertexId {
	old := g.columns[index]
	g.columns[index] = values
	return old
}
