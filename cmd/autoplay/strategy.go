package main

import (
	"context"
	"log"
	"math/rand"

	"github.com/wricardo/rushhour/game/engine"
)

// Strategy picks the next move for a board.
type Strategy interface {
	// NextMove returns false when it has no move to offer.
	NextMove(ctx context.Context, state *engine.GameState) (engine.MoveOption, bool, error)
	// Reset forgets everything learned during an attempt.
	Reset()
}

// HintStrategy plays the server's optimal hint every turn.
type HintStrategy struct {
	client *Client
}

func NewHintStrategy(client *Client) *HintStrategy {
	return &HintStrategy{client: client}
}

func (s *HintStrategy) NextMove(ctx context.Context, state *engine.GameState) (engine.MoveOption, bool, error) {
	hint, err := s.client.Hint(ctx)
	if err != nil {
		return engine.MoveOption{}, false, err
	}
	if hint.Move == nil {
		log.Printf("No hint: %s", hint.Message)
		return engine.MoveOption{}, false, nil
	}
	return engine.MoveOption{
		Vehicle:   hint.Move.Vehicle,
		Label:     hint.Move.Label,
		Direction: hint.Move.Direction,
		Way:       hint.Move.Way,
	}, true, nil
}

func (s *HintStrategy) Reset() {}

// GreedyStrategy searches locally without the solver: it takes the legal
// move whose resulting board is closest to solved, penalizing boards it has
// already seen and undoing its previous move. Ties are broken at random.
type GreedyStrategy struct {
	rng     *rand.Rand
	visited map[string]int
	last    *engine.Move
}

func NewGreedyStrategy(seed int64) *GreedyStrategy {
	return &GreedyStrategy{
		rng:     rand.New(rand.NewSource(seed)),
		visited: make(map[string]int),
	}
}

// score is lower for boards nearer the exit with fewer vehicles in the way.
func (s *GreedyStrategy) score(b engine.Board) int {
	return b.Heuristic() + 2*len(engine.Blockers(b)) + 3*s.visited[b.Key()]
}

func (s *GreedyStrategy) NextMove(ctx context.Context, state *engine.GameState) (engine.MoveOption, bool, error) {
	board := state.Board
	s.visited[board.Key()]++

	var best []engine.MoveOption
	bestScore := 0
	for _, opt := range engine.LegalMoves(board) {
		m := engine.Move{Vehicle: opt.Vehicle, Direction: opt.Direction}
		next, err := board.Apply(m)
		if err != nil {
			continue
		}

		score := s.score(next)
		if s.last != nil && s.last.Vehicle == m.Vehicle && s.last.Direction == m.Direction.Opposite() {
			score += 2
		}

		switch {
		case len(best) == 0 || score < bestScore:
			best = []engine.MoveOption{opt}
			bestScore = score
		case score == bestScore:
			best = append(best, opt)
		}
	}

	if len(best) == 0 {
		return engine.MoveOption{}, false, nil
	}

	pick := best[s.rng.Intn(len(best))]
	s.last = &engine.Move{Vehicle: pick.Vehicle, Direction: pick.Direction}
	return pick, true, nil
}

func (s *GreedyStrategy) Reset() {
	s.visited = make(map[string]int)
	s.last = nil
}
