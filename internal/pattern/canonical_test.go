package pattern

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"pgregory.net/rapid"

	"pathce/internal/common"
)

// buildStar constructs a degree-leaves star with the given center/leaf/edge
// labels, numbering vertex tags starting at tagOffset and renumbering
// leaves through the given permutation of [0, len(leafLabels)).
func buildStar(centerLabel common.LabelId, leafLabels, edgeLabels []common.LabelId, tagOffset common.TagId, order []int) *RawPattern {
	r := NewRawPattern()
	centerTag := tagOffset
	r.PushVertex(centerTag, centerLabel)
	for i, pos := range order {
		leafTag := tagOffset + common.TagId(i) + 1
		r.PushVertex(leafTag, leafLabels[pos])
		r.PushEdge(tagOffset+common.TagId(i)+1+common.TagId(len(order)), centerTag, leafTag, edgeLabels[pos])
	}
	return r
}

func TestCanonicalizeInvariantUnderRelabeling(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		degree := rapid.IntRange(1, 5).Draw(t, "degree")
		centerLabel := common.LabelId(rapid.IntRange(0, 3).Draw(t, "centerLabel"))

		leafLabels := make([]common.LabelId, degree)
		edgeLabels := make([]common.LabelId, degree)
		for i := range leafLabels {
			leafLabels[i] = common.LabelId(rapid.IntRange(0, 3).Draw(t, "leafLabel"))
			edgeLabels[i] = common.LabelId(rapid.IntRange(0, 3).Draw(t, "edgeLabel"))
		}

		identity := make([]int, degree)
		for i := range identity {
			identity[i] = i
		}
		shuffled := append([]int(nil), identity...)
		seed := rapid.Uint64().Draw(t, "seed")
		rand.New(rand.NewPCG(seed, seed)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		a := buildStar(centerLabel, leafLabels, edgeLabels, 0, identity)
		b := buildStar(centerLabel, leafLabels, edgeLabels, 100, shuffled)

		ga, err := a.ToGeneral()
		if err != nil {
			t.Fatalf("build pattern a: %v", err)
		}
		gb, err := b.ToGeneral()
		if err != nil {
			t.Fatalf("build pattern b: %v", err)
		}

		if !bytes.Equal(Encode(ga), Encode(gb)) {
			t.Fatalf("canonical code differs under tag relabeling: %x vs %x", Encode(ga), Encode(gb))
		}
	})
}

func TestCanonicalizeIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		degree := rapid.IntRange(0, 5).Draw(t, "degree")
		centerLabel := common.LabelId(rapid.IntRange(0, 3).Draw(t, "centerLabel"))
		leafLabels := make([]common.LabelId, degree)
		edgeLabels := make([]common.LabelId, degree)
		for i := range leafLabels {
			leafLabels[i] = common.LabelId(rapid.IntRange(0, 3).Draw(t, "leafLabel"))
			edgeLabels[i] = common.LabelId(rapid.IntRange(0, 3).Draw(t, "edgeLabel"))
		}
		order := make([]int, degree)
		for i := range order {
			order[i] = i
		}

		raw := buildStar(centerLabel, leafLabels, edgeLabels, 0, order)
		g, err := raw.ToGeneral()
		if err != nil {
			t.Fatalf("build pattern: %v", err)
		}
		code := Encode(g)

		// Re-running Canonicalize against the same pattern must produce
		// the same ranks (and so the same code) every time.
		again, err := raw.ToGeneral()
		if err != nil {
			t.Fatalf("rebuild pattern: %v", err)
		}
		if !bytes.Equal(Encode(again), code) {
			t.Fatalf("canonicalize is not idempotent")
		}
	})
}
