package factorization

import (
	"pathce/internal/common"
)

type columnPos struct {
	groupID, columnID int
}

// Table is a factorized sample: a set of ColumnGroups (each group's
// columns sharing one offsets array) addressed by pattern tag id, all
// groups agreeing on item count. Each row's total cardinality is the
// product, across groups, of that row's per-group count.
type Table struct {
	tagToPos map[common.TagId]columnPos
	groups   []*ColumnGroup
}

func NewTable() *Table {
	return &Table{tagToPos: make(map[common.TagId]columnPos)}
}

func (t *Table) Tags() []common.TagId {
	out := make([]common.TagId, 0, len(t.tagToPos))
	for tag := range t.tagToPos {
		out = append(out, tag)
	}
	return out
}

func (t *Table) GetColumn(tag common.TagId) (*ColumnRef, bool) {
	pos, ok := t.tagToPos[tag]
	if !ok {
		return nil, false
	}
	if pos.groupID >= len(t.groups) {
		return nil, false
	}
	return t.groups[pos.groupID].GetColumn(pos.columnID)
}

func (t *Table) GetColumnPos(tag common.TagId) (int, int, bool) {
	pos, ok := t.tagToPos[tag]
	return pos.groupID, pos.columnID, ok
}

func (t *Table) ReplaceColumn(groupID, columnID int, values []common.VertexId) []common.VertexId {
	return t.groups[groupID].ReplaceColumn(columnID, values)
}

func (t *Table) AddColumn(groupID int, values []common.VertexId) int {
	return t.groups[groupID].AddColumn(values)
}

// AddGroup appends a new ColumnGroup, requiring it to share the
// table's item count once at least one group already exists.
func (t *Table) AddGroup(group *ColumnGroup) int {
	if len(t.groups) > 0 && t.groups[0].NumItems() != group.NumItems() {
		panic("factorization: group item count mismatch")
	}
	t.groups = append(t.groups, group)
	return len(t.groups) - 1
}

func (t *Table) NumTags() int   { return len(t.tagToPos) }
func (t *Table) NumGroups() int { return len(t.groups) }

func (t *Table) NumItems() int {
	if len(t.groups) == 0 {
		return 0
	}
	return t.groups[0].NumItems()
}

func (t *Table) AddTag(tag common.TagId, groupID, columnID int) {
	if groupID >= len(t.groups) {
		panic("factorization: groupID should be valid")
	}
	if columnID >= t.groups[groupID].NumColumns() {
		panic("factorization: columnID should be valid")
	}
	if _, dup := t.tagToPos[tag]; dup {
		panic("factorization: no duplicate tag id is allowed")
	}
	t.tagToPos[tag] = columnPos{groupID, columnID}
}

// Count returns the table's total row cardinality: the sum, over every
// item, of the product of that item's per-group valid count.
func (t *Table) Count() int {
	if len(t.groups) == 0 {
		return 0
	}
	numItems := t.groups[0].NumItems()
	total := 0
	for i := 0; i < numItems; i++ {
		product := 1
		for _, g := range t.groups {
			c, _ := g.Count(i)
			product *= c
		}
		total += product
	}
	return total
}
