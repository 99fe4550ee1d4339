// Package workerpool provides a caller-owned, bounded-concurrency pool
// built on golang.org/x/sync/errgroup, constructed once by the CLI and
// threaded down into graph construction, binning and statistics so that
// fan-out call sites read the same whether they run one goroutine or
// many: workerpool.Scope(pool, func(s *workerpool.Scope) { ... s.Go(...) }).
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of concurrently running tasks submitted via
// Scope/ScopeContext to its configured limit.
type Pool struct {
	limit int
}

// New returns a Pool that runs at most limit tasks concurrently. A
// limit <= 0 means unbounded, matching errgroup.SetLimit's convention.
func New(limit int) *Pool {
	return &Pool{limit: limit}
}

// Limit reports the pool's configured concurrency bound.
func (p *Pool) Limit() int { return p.limit }

// scope pairs a pool with an errgroup; Scope itself builds a *Scope and
// does not use this type.
type scope struct {
	pool *Pool
	g    *errgroup.Group
}

// Scope runs fn with a fresh bounded errgroup, waiting for every task
// submitted to it (via the *Scope passed to fn) to finish before
// returning. Mirrors the call shape of a rayon thread pool scope: each
// call site fans out independently, and a failing task's error is
// propagated to the caller without aborting sibling tasks (the group
// has no context, so every submitted task runs to completion; the
// first error is the one returned).
func Scope(p *Pool, fn func(s *Scope)) error {
	g := &errgroup.Group{}
	if p != nil && p.limit > 0 {
		g.SetLimit(p.limit)
	}
	s := &Scope{g: g}
	fn(s)
	return g.Wait()
}

// Scope is the fan-out handle passed into a Scope callback; Go queues
// one task, blocking if the pool's concurrency limit is already in use.
type Scope struct {
	g *errgroup.Group
}

func (s *Scope) Go(task func() error) {
	s.g.Go(task)
}

// ScopeContext is Scope but cancels sibling tasks via ctx when any task
// returns an error, for callers that want fail-fast fan-out.
func ScopeContext(ctx context.Context, p *Pool, fn func(s *CtxScope)) error {
	g, ctx := errgroup.WithContext(ctx)
	if p != nil && p.limit > 0 {
		g.SetLimit(p.limit)
	}
	s := &CtxScope{g: g, ctx: ctx}
	fn(s)
	return g.Wait()
}

// CtxScope is the fail-fast counterpart of Scope: the context passed to
// each task is cancelled as soon as any sibling task returns an error.
type CtxScope struct {
	g   *errgroup.Group
	ctx context.Context
}

func (s *CtxScope) Context() context.Context { return s.ctx }

func (s *CtxScope) Go(task func(ctx context.Context) error) {
	s.g.Go(func() error { return task(s.ctx) })
}
