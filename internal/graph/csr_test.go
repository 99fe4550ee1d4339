package graph

import (
	"reflect"
	"testing"

	"pathce/internal/common"
)

func vid(ids ...int) []common.VertexId {
	out := make([]common.VertexId, len(ids))
	for i, id := range ids {
		out[i] = common.VertexId(id)
	}
	return out
}

func TestFromSortedEdges(t *testing.T) {
	edges := []edgePair{
		{src: 3, dst: 1},
		{src: 3, dst: 2},
		{src: 5, dst: 1},
	}
	csr, err := fromSortedEdges(6, edges)
	if err != nil {
		t.Fatalf("fromSortedEdges: %v", err)
	}
	wantOffsets := []int{0, 0, 0, 0, 2, 2, 3, 3}
	if !reflect.DeepEqual(csr.offsets, wantOffsets) {
		t.Errorf("offsets = %v, want %v", csr.offsets, wantOffsets)
	}
	wantNeighbors := vid(1, 2, 1)
	if !reflect.DeepEqual(csr.neighbors, wantNeighbors) {
		t.Errorf("neighbors = %v, want %v", csr.neighbors, wantNeighbors)
	}
	if got := csr.Neighbors(3); !reflect.DeepEqual(got, vid(1, 2)) {
		t.Errorf("Neighbors(3) = %v, want [1 2]", got)
	}
	if got := csr.Neighbors(4); len(got) != 0 {
		t.Errorf("Neighbors(4) = %v, want empty", got)
	}
}

func TestFromSortedEdgesRejectsUnsorted(t *testing.T) {
	edges := []edgePair{{src: 5, dst: 1}, {src: 3, dst: 2}}
	if _, err := fromSortedEdges(6, edges); err == nil {
		t.Error("expected error for unsorted edges")
	}
}

func TestFromSortedEdgesRejectsOutOfRange(t *testing.T) {
	edges := []edgePair{{src: 7, dst: 1}}
	if _, err := fromSortedEdges(6, edges); err == nil {
		t.Error("expected error for src exceeding max vertex id")
	}
}

func TestFromSortedEdgesEmpty(t *testing.T) {
	csr, err := fromSortedEdges(2, nil)
	if err != nil {
		t.Fatalf("fromSortedEdges: %v", err)
	}
	if len(csr.neighbors) != 0 {
		t.Errorf("neighbors = %v, want empty", csr.neighbors)
	}
	for v := common.InternalId(0); v <= 2; v++ {
		if got := csr.Neighbors(v); len(got) != 0 {
			t.Errorf("Neighbors(%d) = %v, want empty", v, got)
		}
	}
}
