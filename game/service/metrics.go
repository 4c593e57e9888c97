package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// solveTotal counts solver runs by result: solved, unsolvable, limit, cancelled, invalid.
	solveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rushhour_solve_total",
		Help: "Total solver runs by result",
	}, []string{"result"})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rushhour_solve_duration_seconds",
		Help:    "Solver run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	})

	solveExplored = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rushhour_solve_explored_states",
		Help:    "Number of boards expanded per solver run",
		Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
	})

	solveLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rushhour_solution_moves",
		Help:    "Length of computed solutions in moves",
		Buckets: []float64{0, 5, 10, 20, 40, 60, 80, 100, 150},
	})

	solveCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rushhour_solve_cache_hits_total",
		Help: "Solve requests answered from the solution cache",
	})

	// movesTotal counts interactive moves by result: success, blocked, rejected.
	movesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rushhour_moves_total",
		Help: "Total interactive moves by result",
	}, []string{"result"})
)
