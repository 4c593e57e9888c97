package engine

import (
	"fmt"
	"time"
)

func newGameState(config *PuzzleConfig, initial Board) *GameState {
	state := &GameState{
		Board:        NewBoard(initial.Vehicles, initial.Size, initial.ExitDirection),
		ConfigName:   config.Name,
		MoveHistory:  []MoveHistoryEntry{},
		CurrentMoves: []MoveHistoryEntry{},
	}
	state.refresh(config)
	state.Message = config.Messages.Welcome
	return state
}

// refresh recomputes every field derived from the board.
func (s *GameState) refresh(config *PuzzleConfig) {
	s.Grid = GridRows(s.Board)
	s.Solved = s.Board.IsSolved()
	s.Heuristic = s.Board.Heuristic()
	s.Blockers = len(Blockers(s.Board))
	if s.Solved {
		s.PossibleMoves = []MoveOption{}
		s.Message = fmt.Sprintf(config.Messages.Solved, s.CurrentMovesCount)
		return
	}
	s.PossibleMoves = LegalMoves(s.Board)
	s.Message = fmt.Sprintf("%d cells to the exit, %d vehicles in the way", s.Heuristic, s.Blockers)
}

// addMoveToHistory records an attempted move in both the cumulative and the
// since-reset history.
func (s *GameState) addMoveToHistory(m Move, from, to Vector, success bool) {
	entry := MoveHistoryEntry{
		Action:       string(s.Board.Way(m)),
		Vehicle:      m.Vehicle,
		Direction:    m.Direction,
		FromPosition: from,
		ToPosition:   to,
		Timestamp:    time.Now().Unix(),
		Success:      success,
	}

	s.TotalMoves++
	entry.MoveNumber = s.TotalMoves
	s.MoveHistory = append(s.MoveHistory, entry)

	if success {
		s.CurrentMovesCount++
	}
	s.CurrentMoves = append(s.CurrentMoves, entry)
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.Board.Vehicles = append([]Vehicle(nil), s.Board.Vehicles...)
	c.Grid = append([]string(nil), s.Grid...)
	c.MoveHistory = append([]MoveHistoryEntry{}, s.MoveHistory...)
	c.CurrentMoves = append([]MoveHistoryEntry{}, s.CurrentMoves...)
	if s.PossibleMoves != nil {
		c.PossibleMoves = append([]MoveOption{}, s.PossibleMoves...)
	}
	return &c
}
