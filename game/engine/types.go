package engine

import (
	"fmt"
	"strings"
)

// Axis is the line a vehicle slides along.
type Axis int

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

func (a Axis) String() string {
	if a == AxisVertical {
		return "vertical"
	}
	return "horizontal"
}

// Orientation is one of the four cardinal unit vectors. Horizontal and
// Vertical are axis tokens that share the vector of Right and Down.
type Orientation string

const (
	Up    Orientation = "up"
	Down  Orientation = "down"
	Left  Orientation = "left"
	Right Orientation = "right"

	Horizontal = Right
	Vertical   = Down
)

// Direction is a signed unit step along a vehicle's axis.
type Direction int

const (
	Positive Direction = 1
	Negative Direction = -1
)

// Directions lists both directions in successor enumeration order.
var Directions = []Direction{Positive, Negative}

const (
	// Validation constants
	MinBoardSize = 1
	MaxBoardSize = 16
	MaxVehicles  = 26
	MaxBulkMoves = 200
)

var orientationVectors = map[Orientation]Vector{
	Up:    {X: 0, Y: -1},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
	Right: {X: 1, Y: 0},
}

// reversed maps each cardinal orientation to the one pointing the other way.
var reversed = map[Orientation]Orientation{
	Up:    Down,
	Down:  Up,
	Left:  Right,
	Right: Left,
}

// Vector returns the unit vector of o. Unknown orientations yield the zero vector.
func (o Orientation) Vector() Vector {
	return orientationVectors[o]
}

// Axis returns the axis o lies on.
func (o Orientation) Axis() Axis {
	if o == Up || o == Down {
		return AxisVertical
	}
	return AxisHorizontal
}

// Times resolves o multiplied by a signed direction to a cardinal orientation.
func (o Orientation) Times(d Direction) Orientation {
	if d == Negative {
		return reversed[o]
	}
	return o
}

// Valid reports whether o is one of the four cardinal orientations.
func (o Orientation) Valid() bool {
	_, ok := orientationVectors[o]
	return ok
}

// ParseOrientation accepts cardinal names as well as the axis tokens
// "horizontal" and "vertical" (and their h/v shorthands).
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	}
	return "", fmt.Errorf("unknown orientation %q", s)
}

// Opposite returns -d.
func (d Direction) Opposite() Direction {
	return -d
}

func (d Direction) String() string {
	if d == Negative {
		return "negative"
	}
	return "positive"
}

// MarshalText encodes d as "positive" or "negative".
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts "positive"/"negative", "+"/"-" and "1"/"-1".
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses the textual forms accepted by UnmarshalText.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "pos", "+", "1", "+1":
		return Positive, nil
	case "negative", "neg", "-", "-1":
		return Negative, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Vehicle is an immutable axis-aligned block on the board.
type Vehicle struct {
	Orientation Orientation `json:"orientation"`
	Position    Vector      `json:"position"`
	Size        Vector      `json:"size"`
}

// Move is one single-cell slide of the vehicle at index Vehicle.
type Move struct {
	Vehicle   int       `json:"vehicle"`
	Direction Direction `json:"direction"`
}

// GameState is the JSON view of an interactive puzzle session.
type GameState struct {
	Board         Board              `json:"board"`
	Grid          []string           `json:"grid"`
	Solved        bool               `json:"solved"`
	Message       string             `json:"message"`
	ConfigName    string             `json:"config_name"`
	Heuristic     int                `json:"heuristic"`
	Blockers      int                `json:"blockers"`
	MoveHistory   []MoveHistoryEntry `json:"move_history"`
	TotalMoves    int                `json:"total_moves"`
	PossibleMoves []MoveOption       `json:"possible_moves,omitempty"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`
}

// MoveOption is a legal move from the current board.
type MoveOption struct {
	Vehicle   int       `json:"vehicle"`
	Label     string    `json:"label"`
	Direction Direction `json:"direction"`
	Way       string    `json:"way"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action       string    `json:"action"`
	Vehicle      int       `json:"vehicle"`
	Direction    Direction `json:"direction"`
	FromPosition Vector    `json:"from_position"`
	ToPosition   Vector    `json:"to_position"`
	Timestamp    int64     `json:"timestamp"`
	Success      bool      `json:"success"`
	MoveNumber   int       `json:"move_number"`
}
