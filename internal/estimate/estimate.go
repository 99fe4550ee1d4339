package estimate

import (
	"fmt"
	"log/slog"

	"pathce/internal/catalog"
	"pathce/internal/common"
	"pathce/internal/decompose"
	"pathce/internal/pattern"
)

// Estimator decomposes a query pattern into catalog shapes with a
// HeuristicDecomposer and runs the resulting join(s) against store's
// SQLite connection, taking the minimum cardinality across every
// decomposition produced (a cyclic pattern without a predefined
// elimination order can decompose more than one way; the tightest
// bound wins).
type Estimator struct {
	store *catalog.Store

	maxPathLength int
	maxStarLength int
	maxStarDegree int
	limit         int
	disableStar   bool
	disablePrune  bool
	disableCyclic bool
}

// NewEstimator returns an Estimator with the reference defaults,
// matching catalog.NewBuilder's analysis bounds.
func NewEstimator(store *catalog.Store) *Estimator {
	return &Estimator{
		store:         store,
		maxPathLength: 3,
		maxStarLength: 3,
		maxStarDegree: 4,
	}
}

func (e *Estimator) MaxPathLength(n int) *Estimator { e.maxPathLength = n; return e }
func (e *Estimator) MaxStarLength(n int) *Estimator { e.maxStarLength = n; return e }
func (e *Estimator) MaxStarDegree(n int) *Estimator { e.maxStarDegree = n; return e }
func (e *Estimator) Limit(n int) *Estimator         { e.limit = n; return e }
func (e *Estimator) DisableStar(v bool) *Estimator  { e.disableStar = v; return e }
func (e *Estimator) DisablePrune(v bool) *Estimator { e.disablePrune = v; return e }
func (e *Estimator) DisableCyclic(v bool) *Estimator {
	e.disableCyclic = v
	return e
}

func (e *Estimator) decomposer() *decompose.HeuristicDecomposer {
	return decompose.NewHeuristicDecomposer(
		e.store,
		e.maxPathLength, e.maxStarLength, e.maxStarDegree,
		e.limit, e.disableStar, e.disablePrune, e.disableCyclic,
	)
}

// Estimate decomposes p (possibly several ways) and returns the
// smallest cardinality estimate across all of them.
func (e *Estimator) Estimate(p pattern.GraphPattern) (float64, error) {
	patterns := e.decomposer().Decompose(p)
	if len(patterns) == 0 {
		return 0, fmt.Errorf("estimate: decompose produced no catalog patterns")
	}
	best := -1.0
	for _, cp := range patterns {
		card, err := Join(cp, e.store.Conn(), e.store.NextTableID, nil)
		if err != nil {
			return 0, err
		}
		if best < 0 || card < best {
			best = card
		}
	}
	slog.Debug("estimate: best cardinality", "card", best, "candidates", len(patterns))
	return best, nil
}

// EstimateWithOrder decomposes p around a fixed pivot order and runs
// the join with that exact elimination order, so repeated calls
// against the same pattern shape produce the same query plan.
func (e *Estimator) EstimateWithOrder(p pattern.GraphPattern, order []common.TagId) (float64, error) {
	cp := e.decomposer().DecomposeWithPivots(p, order)
	return Join(cp, e.store.Conn(), e.store.NextTableID, order)
}

// EstimateManual runs the join directly against an already-decomposed
// pattern, bypassing the heuristic decomposer entirely — for callers
// (tooling, tests) that build their own CatalogPattern.
type EstimateManual struct {
	store *catalog.Store
}

func NewEstimateManual(store *catalog.Store) *EstimateManual {
	return &EstimateManual{store: store}
}

func (m *EstimateManual) Estimate(p *decompose.CatalogPattern) (float64, error) {
	return Join(p, m.store.Conn(), m.store.NextTableID, nil)
}
