package engine

import "fmt"

// Engine provides the main interface for interactive puzzle operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Restore(history, current []MoveHistoryEntry) error
	Reset() *GameState
	IsSolved() bool
	Board() Board
	InitialBoard() Board

	// Movement operations
	Move(vehicle int, direction Direction) bool
	CanMove(vehicle int, direction Direction) bool
	GetPossibleMoves() []MoveOption
	BulkMove(moves []Move) []bool

	// Configuration
	GetConfig() *PuzzleConfig
	SetConfig(config *PuzzleConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state   *GameState
	config  *PuzzleConfig
	initial Board
}

// NewEngine creates a new engine for the provided puzzle
func NewEngine(config *PuzzleConfig) (*GameEngine, error) {
	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	initial, err := config.Board()
	if err != nil {
		return nil, err
	}

	return &GameEngine{
		config:  config,
		initial: initial,
		state:   newGameState(config, initial),
	}, nil
}

// NewEngineWithDefaults creates an engine for the built-in classic puzzle
func NewEngineWithDefaults() *GameEngine {
	engine, err := NewEngine(DefaultPuzzleConfig())
	if err != nil {
		// the built-in puzzle is always valid
		panic(err)
	}
	return engine
}

// GetState returns a copy of the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state.Clone()
}

// Restore rebuilds the state from a saved log. The successful entries of
// current, the moves since the last reset, are replayed from the starting
// board; history is the cumulative log shown to players. On error the engine
// is left unchanged.
func (e *GameEngine) Restore(history, current []MoveHistoryEntry) error {
	board := e.initial
	applied := 0
	for i, entry := range current {
		if !entry.Success {
			continue
		}
		next, err := board.Apply(Move{Vehicle: entry.Vehicle, Direction: entry.Direction})
		if err != nil {
			return fmt.Errorf("replay move %d (%s %s): %w", i+1, Label(entry.Vehicle), entry.Action, err)
		}
		board = next
		applied++
	}

	state := newGameState(e.config, board)
	state.MoveHistory = append([]MoveHistoryEntry{}, history...)
	state.CurrentMoves = append([]MoveHistoryEntry{}, current...)
	state.CurrentMovesCount = applied
	state.TotalMoves = len(history)
	if n := len(history); n > 0 && history[n-1].MoveNumber > n {
		state.TotalMoves = history[n-1].MoveNumber
	}
	state.refresh(e.config)

	e.state = state
	return nil
}

// Reset puts every vehicle back to its starting position
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = newGameState(e.config, e.initial)

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state.Clone()
}

// IsSolved reports whether the main vehicle has reached the exit
func (e *GameEngine) IsSolved() bool {
	return e.state.Solved
}

// Board returns the current board
func (e *GameEngine) Board() Board {
	return e.state.Board
}

// InitialBoard returns the board the puzzle starts from
func (e *GameEngine) InitialBoard() Board {
	return e.initial
}

// Move slides one vehicle one cell. Moves after the puzzle is solved are rejected.
func (e *GameEngine) Move(vehicle int, direction Direction) bool {
	m := Move{Vehicle: vehicle, Direction: direction}

	if e.state.Solved {
		e.state.addMoveToHistory(m, Vector{}, Vector{}, false)
		return false
	}

	var from Vector
	if vehicle >= 0 && vehicle < len(e.state.Board.Vehicles) {
		from = e.state.Board.Vehicles[vehicle].Position
	}

	next, err := e.state.Board.Apply(m)
	if err != nil {
		e.state.addMoveToHistory(m, from, from, false)
		e.state.Message = e.config.Messages.Blocked
		return false
	}

	e.state.addMoveToHistory(m, from, next.Vehicles[vehicle].Position, true)
	e.state.Board = next
	e.state.refresh(e.config)
	return true
}

// CanMove checks if a vehicle can slide one cell in the given direction
func (e *GameEngine) CanMove(vehicle int, direction Direction) bool {
	if e.state.Solved {
		return false
	}
	_, err := e.state.Board.Apply(Move{Vehicle: vehicle, Direction: direction})
	return err == nil
}

// GetPossibleMoves returns every legal move on the current board
func (e *GameEngine) GetPossibleMoves() []MoveOption {
	if e.state.Solved {
		return []MoveOption{}
	}
	return LegalMoves(e.state.Board)
}

// GetConfig returns the current puzzle configuration
func (e *GameEngine) GetConfig() *PuzzleConfig {
	return e.config
}

// SetConfig switches to a new puzzle and resets the game
func (e *GameEngine) SetConfig(config *PuzzleConfig) error {
	if err := ValidatePuzzleConfig(config); err != nil {
		return err
	}
	config.ApplyDefaults()

	initial, err := config.Board()
	if err != nil {
		return err
	}

	e.config = config
	e.initial = initial
	e.state = newGameState(config, initial)
	return nil
}

// GetMoveHistory returns a copy of the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return append([]MoveHistoryEntry{}, e.state.MoveHistory...)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	last := e.state.MoveHistory[len(e.state.MoveHistory)-1]
	return &last
}

// BulkMove executes moves in sequence, returning success status for each.
// It stops early once the puzzle is solved.
func (e *GameEngine) BulkMove(moves []Move) []bool {
	results := make([]bool, 0, len(moves))

	for _, m := range moves {
		if e.IsSolved() {
			break
		}
		results = append(results, e.Move(m.Vehicle, m.Direction))
	}

	return results
}
