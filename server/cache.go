package main

import (
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"pathce/internal/pattern"
)

// estimateKey builds a cache key from a pattern's canonical code plus
// the decomposition knobs that affect its estimate, so two requests for
// the same shape under different limits don't collide.
func estimateKey(p pattern.GraphPattern, req EstimateRequest) string {
	code := hex.EncodeToString(pattern.Encode(p))
	return code + estimateKeySuffix(req)
}

func estimateKeySuffix(req EstimateRequest) string {
	b := make([]byte, 0, 32)
	b = appendInt(b, req.MaxPathLength)
	b = appendInt(b, req.MaxStarLength)
	b = appendInt(b, req.MaxStarDegree)
	b = appendInt(b, req.Limit)
	b = appendBool(b, req.DisableStar)
	b = appendBool(b, req.DisablePrune)
	b = appendBool(b, req.DisableCyclic)
	return string(b)
}

func appendInt(b []byte, n int) []byte {
	return append(b, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

// estimateCache memoizes estimate.Estimator.Estimate results, keyed by
// canonical pattern code, the same role the teacher server's LRU plays
// for its dashboard queries.
type estimateCache struct {
	lru *lru.Cache[string, float64]
}

func newEstimateCache(size int) (*estimateCache, error) {
	c, err := lru.New[string, float64](size)
	if err != nil {
		return nil, err
	}
	return &estimateCache{lru: c}, nil
}

func (c *estimateCache) get(key string) (float64, bool) {
	return c.lru.Get(key)
}

func (c *estimateCache) put(key string, value float64) {
	c.lru.Add(key, value)
}
