package main

import (
	"encoding/json"

	"pathce/internal/common"
)

// PathSummary is the JSON projection of a catalogued path shape.
type PathSummary struct {
	LabelID common.LabelId `json:"label_id"`
	Shape   string         `json:"shape"`
}

// StarSummary is the JSON projection of a catalogued star shape.
type StarSummary struct {
	LabelID common.LabelId `json:"label_id"`
	Shape   string         `json:"shape"`
}

// CatalogPaths is the response body of GET /catalog/paths.
type CatalogPaths struct {
	Paths []PathSummary `json:"paths"`
}

// CatalogStars is the response body of GET /catalog/stars.
type CatalogStars struct {
	Stars []StarSummary `json:"stars"`
}

// EdgeCount is the response body of GET /catalog/edges/{label}.
type EdgeCount struct {
	LabelID common.LabelId `json:"label_id"`
	Count   int            `json:"count"`
}

// EstimateRequest is the request body of POST /estimate: a RawPattern
// JSON document plus the decomposition knobs estimate.Estimator takes.
type EstimateRequest struct {
	Pattern       json.RawMessage `json:"pattern"`
	MaxPathLength int             `json:"max_path_length"`
	MaxStarLength int             `json:"max_star_length"`
	MaxStarDegree int             `json:"max_star_degree"`
	Limit         int             `json:"limit"`
	DisableStar   bool            `json:"disable_star"`
	DisablePrune  bool            `json:"disable_prune"`
	DisableCyclic bool            `json:"disable_cyclic"`
}

// EstimateResponse is the response body of POST /estimate.
type EstimateResponse struct {
	Cardinality float64 `json:"cardinality"`
	Cached      bool    `json:"cached"`
}
