package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wricardo/rushhour/game/engine"
)

const (
	DefaultSolveTimeout  = 10 * time.Second
	DefaultMaxStates     = 1_000_000
	DefaultSolutionCache = 4096
)

// SolverOptions bounds the solver used by the service. Zero values select
// the defaults.
type SolverOptions struct {
	Timeout   time.Duration
	MaxStates int
	CacheSize int
}

// Solver runs engine.Solve behind a solution cache keyed by board. Concurrent
// requests for the same board share one search.
type Solver struct {
	opts   SolverOptions
	flight singleflight.Group

	mu    sync.RWMutex
	cache map[string]*engine.Solution // nil value: known unsolvable
}

// NewSolver creates a solver with the given bounds
func NewSolver(opts SolverOptions) *Solver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSolveTimeout
	}
	if opts.MaxStates <= 0 {
		opts.MaxStates = DefaultMaxStates
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultSolutionCache
	}
	return &Solver{
		opts:  opts,
		cache: make(map[string]*engine.Solution),
	}
}

// Solve returns an optimal solution for b. cached reports whether the answer
// came from the cache or from a search started by another caller.
// Unsolvable boards return engine.ErrUnsolvable.
func (s *Solver) Solve(ctx context.Context, b engine.Board) (sol *engine.Solution, cached bool, err error) {
	key := b.Key()

	s.mu.RLock()
	sol, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		solveCacheHits.Inc()
		if sol == nil {
			return nil, true, engine.ErrUnsolvable
		}
		return sol, true, nil
	}

	// The search outlives any single caller; each caller only waits for it.
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		searchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
		defer cancel()
		return s.search(searchCtx, b)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*engine.Solution), res.Shared, nil
	}
}

func (s *Solver) search(ctx context.Context, b engine.Board) (*engine.Solution, error) {
	sol, err := engine.Solve(ctx, b, engine.SolveOptions{MaxStates: s.opts.MaxStates})

	switch {
	case err == nil:
		solveTotal.WithLabelValues("solved").Inc()
		solveDuration.Observe(sol.Duration.Seconds())
		solveExplored.Observe(float64(sol.Explored))
		solveLength.Observe(float64(sol.Len()))
		s.remember(b, sol)
		return sol, nil
	case errors.Is(err, engine.ErrUnsolvable):
		solveTotal.WithLabelValues("unsolvable").Inc()
		s.store(b.Key(), nil)
	case errors.Is(err, engine.ErrSearchLimit):
		solveTotal.WithLabelValues("limit").Inc()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		solveTotal.WithLabelValues("cancelled").Inc()
	default:
		solveTotal.WithLabelValues("invalid").Inc()
	}
	return nil, err
}

// remember caches sol for b and the remainder of it for every board along
// the path, since a suffix of a shortest path is itself shortest.
func (s *Solver) remember(b engine.Board, sol *engine.Solution) {
	s.store(b.Key(), sol)
	for i, m := range sol.Moves {
		next, err := b.Apply(m)
		if err != nil {
			return
		}
		b = next
		s.store(b.Key(), &engine.Solution{Moves: sol.Moves[i+1:]})
	}
}

func (s *Solver) store(key string, sol *engine.Solution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cache) >= s.opts.CacheSize {
		s.cache = make(map[string]*engine.Solution)
	}
	s.cache[key] = sol
}

// CacheLen returns the number of boards with a cached answer.
func (s *Solver) CacheLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
