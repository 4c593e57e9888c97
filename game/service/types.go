package service

import (
	"time"

	"github.com/wricardo/rushhour/game/engine"
)

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string               `json:"id"`
	ConfigName     string               `json:"config_name"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	GameState      *engine.GameState    `json:"game_state"`
	PuzzleConfig   *engine.PuzzleConfig `json:"puzzle_config"`
}

// MoveRequest names a vehicle and where to slide it. Vehicle is a label
// ("A", "b") or an index ("0"); Direction is "positive"/"negative" (or
// "+"/"-") or a cardinal way ("up", "down", "left", "right").
type MoveRequest struct {
	Vehicle   string `json:"vehicle"`
	Direction string `json:"direction"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_vehicle|blocked_boundary|invalid_move|solved
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	Solved        bool                `json:"solved"`
	Message       string              `json:"message,omitempty"`
	Heuristic     int                 `json:"heuristic"`
	Blockers      int                 `json:"blockers"`
	PossibleMoves []engine.MoveOption `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx       int              `json:"idx"`
	Vehicle   int              `json:"vehicle"`
	Label     string           `json:"label"`
	Direction engine.Direction `json:"direction"`
	Way       string           `json:"way"`
	From      engine.Vector    `json:"from"`
	To        engine.Vector    `json:"to"`
	Success   bool             `json:"success"`
	Solved    bool             `json:"solved,omitempty"`
}

// AttemptInfo details the first move that could not be made. BlockedBy is
// the label of the vehicle occupying the target cell, or "boundary".
type AttemptInfo struct {
	Vehicle   int           `json:"vehicle"`
	Label     string        `json:"label"`
	Way       string        `json:"way,omitempty"`
	Target    engine.Vector `json:"target"`
	BlockedBy string        `json:"blocked_by,omitempty"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string        `json:"type"` // "move", "solved", "reset", "hint", "autosolve"
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Position  engine.Vector `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a puzzle configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Vehicles    int    `json:"vehicles"`
	Exit        string `json:"exit"`
}

// SolutionStep is one move of a computed solution
type SolutionStep struct {
	Index     int              `json:"index"` // 1-based
	Vehicle   int              `json:"vehicle"`
	Label     string           `json:"label"`
	Direction engine.Direction `json:"direction"`
	Way       string           `json:"way"`
}

// SolveResult is the outcome of solving a board
type SolveResult struct {
	ConfigName string         `json:"config_name,omitempty"`
	Solvable   bool           `json:"solvable"`
	Length     int            `json:"length"`
	Moves      []SolutionStep `json:"moves"`
	Summary    string         `json:"summary"`
	Explored   int            `json:"explored"`
	Generated  int            `json:"generated"`
	DurationMs int64          `json:"duration_ms"`
	Cached     bool           `json:"cached"`
}

// HintResult suggests the next move toward an optimal solution
type HintResult struct {
	Solved    bool          `json:"solved"`
	Move      *SolutionStep `json:"move,omitempty"`
	Remaining int           `json:"remaining"`
	Message   string        `json:"message"`
}
