package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pathce/internal/common"
	"pathce/internal/estimate"
	"pathce/internal/pattern"
)

func (a *App) handleCatalogPaths(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	paths := a.store.Paths()
	resp := CatalogPaths{Paths: make([]PathSummary, len(paths))}
	for i, p := range paths {
		resp.Paths[i] = PathSummary{LabelID: common.LabelId(i), Shape: p.String()}
	}
	a.mu.Unlock()
	writeJSON(w, resp)
}

func (a *App) handleCatalogStars(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	stars := a.store.Stars()
	resp := CatalogStars{Stars: make([]StarSummary, len(stars))}
	for i, s := range stars {
		resp.Stars[i] = StarSummary{LabelID: common.LabelId(i), Shape: s.String()}
	}
	a.mu.Unlock()
	writeJSON(w, resp)
}

func (a *App) handleCatalogEdgeCount(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "label")
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		http.Error(w, "invalid label id", http.StatusBadRequest)
		return
	}
	labelID := common.LabelId(n)
	a.mu.Lock()
	count, ok := a.store.GetEdgeCount(labelID)
	a.mu.Unlock()
	if !ok {
		http.Error(w, "unknown edge label", http.StatusNotFound)
		return
	}
	writeJSON(w, EdgeCount{LabelID: labelID, Count: count})
}

func (a *App) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	raw, err := pattern.DecodeRawPattern(req.Pattern)
	if err != nil {
		http.Error(w, "invalid pattern: "+err.Error(), http.StatusBadRequest)
		return
	}
	p, err := raw.ToGeneral()
	if err != nil {
		http.Error(w, "invalid pattern: "+err.Error(), http.StatusBadRequest)
		return
	}

	key := estimateKey(p, req)
	if card, ok := a.cache.get(key); ok {
		writeJSON(w, EstimateResponse{Cardinality: card, Cached: true})
		return
	}

	estimator := estimate.NewEstimator(a.store).
		MaxPathLength(orDefault(req.MaxPathLength, 3)).
		MaxStarLength(orDefault(req.MaxStarLength, 3)).
		MaxStarDegree(orDefault(req.MaxStarDegree, 4)).
		Limit(req.Limit).
		DisableStar(req.DisableStar).
		DisablePrune(req.DisablePrune).
		DisableCyclic(req.DisableCyclic)

	a.mu.Lock()
	card, err := estimator.Estimate(p)
	a.mu.Unlock()
	if err != nil {
		http.Error(w, "estimate: "+err.Error(), http.StatusInternalServerError)
		return
	}
	a.cache.put(key, card)
	writeJSON(w, EstimateResponse{Cardinality: card, Cached: false})
}

func orDefault(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
