package engine

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsolvable  = errors.New("puzzle is unsolvable")
	ErrSearchLimit = errors.New("search state limit reached")
)

// ctxCheckInterval is how many pops happen between context checks.
const ctxCheckInterval = 256

// SolveOptions bounds a search. The zero value is unbounded.
type SolveOptions struct {
	// MaxStates stops the search with ErrSearchLimit once this many boards
	// have been discovered. Zero means no limit.
	MaxStates int
}

// Solution is the result of a successful search.
type Solution struct {
	Moves     []Move        `json:"moves"`
	Explored  int           `json:"explored"`
	Generated int           `json:"generated"`
	Duration  time.Duration `json:"duration"`
}

// Len returns the number of moves in the solution.
func (s *Solution) Len() int {
	return len(s.Moves)
}

type searchNode struct {
	board  Board
	key    string
	move   Move
	parent *searchNode
	steps  int
	h      int
	seq    int
	index  int
}

// frontier is a min-heap of search nodes ordered by steps+h, then h, then
// insertion order.
type frontier []*searchNode

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	a, b := f[i], f[j]
	if fa, fb := a.steps+a.h, b.steps+b.h; fa != fb {
		return fa < fb
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
	f[i].index = i
	f[j].index = j
}

func (f *frontier) Push(x interface{}) {
	n := x.(*searchNode)
	n.index = len(*f)
	*f = append(*f, n)
}

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*f = old[:n-1]
	return node
}

// Solve runs a best-first search from start and returns the move history
// that reaches a solved board. Boards are deduplicated by Key at discovery
// time; a board is only queued again when reached in strictly fewer steps.
func Solve(ctx context.Context, start Board, opts SolveOptions) (*Solution, error) {
	began := time.Now()
	if len(start.Vehicles) == 0 {
		return nil, ErrNoVehicles
	}
	if !start.IsValid() {
		return nil, ErrInvalidBoard
	}

	seq := 0
	root := &searchNode{board: start, key: start.Key(), h: start.Heuristic(), seq: seq}
	best := map[string]int{root.key: 0}

	open := &frontier{}
	heap.Init(open)
	heap.Push(open, root)

	explored := 0
	for open.Len() > 0 {
		if explored%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("search cancelled after %d states: %w", explored, err)
			}
		}

		current := heap.Pop(open).(*searchNode)
		if current.steps > best[current.key] {
			continue // superseded by a shorter path
		}
		explored++

		if current.board.IsSolved() {
			return &Solution{
				Moves:     current.history(),
				Explored:  explored,
				Generated: len(best),
				Duration:  time.Since(began),
			}, nil
		}

		for _, succ := range current.board.Successors() {
			key := succ.Board.Key()
			steps := current.steps + 1
			if prev, seen := best[key]; seen && prev <= steps {
				continue
			}
			best[key] = steps
			if opts.MaxStates > 0 && len(best) > opts.MaxStates {
				return nil, fmt.Errorf("%w (%d)", ErrSearchLimit, opts.MaxStates)
			}
			seq++
			heap.Push(open, &searchNode{
				board:  succ.Board,
				key:    key,
				move:   succ.Move,
				parent: current,
				steps:  steps,
				h:      succ.Board.Heuristic(),
				seq:    seq,
			})
		}
	}

	return nil, ErrUnsolvable
}

// history walks parent links back to the root.
func (n *searchNode) history() []Move {
	moves := make([]Move, n.steps)
	for node := n; node.parent != nil; node = node.parent {
		moves[node.steps-1] = node.move
	}
	return moves
}
