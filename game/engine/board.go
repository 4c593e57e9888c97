package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrNoVehicles      = errors.New("board has no vehicles")
	ErrUnknownVehicle  = errors.New("unknown vehicle")
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidBoard    = errors.New("invalid board")
	ErrInvalidMoveWay  = errors.New("way is not along the vehicle's axis")
	ErrUnknownWay      = errors.New("unknown way")
	ErrInvalidMoveList = errors.New("invalid move list")
)

// Board is an immutable snapshot of every vehicle plus the static board
// size and exit. Vehicles[0] is the main vehicle.
type Board struct {
	Vehicles      []Vehicle `json:"vehicles"`
	Size          Vector    `json:"size"`
	ExitDirection Direction `json:"exit_direction"`
}

// Successor is a board reachable from another by one legal move.
type Successor struct {
	Move  Move
	Board Board
}

// NewBoard copies vehicles into a new board. It performs no validation.
func NewBoard(vehicles []Vehicle, size Vector, exit Direction) Board {
	vs := make([]Vehicle, len(vehicles))
	copy(vs, vehicles)
	return Board{Vehicles: vs, Size: size, ExitDirection: exit}
}

// Main returns the designated vehicle.
func (b Board) Main() Vehicle {
	return b.Vehicles[0]
}

// IsValid reports whether every vehicle is in bounds and no two vehicles
// share a cell.
func (b Board) IsValid() bool {
	if b.Size.X <= 0 || b.Size.Y <= 0 {
		return len(b.Vehicles) == 0
	}
	occupied := make([]bool, b.Size.X*b.Size.Y)
	for _, v := range b.Vehicles {
		if !v.Within(b.Size) {
			return false
		}
		for y := v.Position.Y; y < v.Position.Y+v.Size.Y; y++ {
			for x := v.Position.X; x < v.Position.X+v.Size.X; x++ {
				i := y*b.Size.X + x
				if occupied[i] {
					return false
				}
				occupied[i] = true
			}
		}
	}
	return true
}

// IsSolved reports whether the main vehicle touches the exit edge.
func (b Board) IsSolved() bool {
	if len(b.Vehicles) == 0 {
		return false
	}
	return b.Heuristic() == 0
}

// Heuristic is the number of cells the main vehicle's leading edge still has
// to travel to reach the exit, ignoring every other vehicle.
func (b Board) Heuristic() int {
	if len(b.Vehicles) == 0 {
		return 0
	}
	main := b.Main()
	axis := main.Axis()
	if b.ExitDirection == Negative {
		return main.Position.Component(axis)
	}
	return b.Size.Component(axis) - (main.Position.Component(axis) + main.Size.Component(axis))
}

// With returns a copy of b with vehicle i replaced by v.
func (b Board) With(i int, v Vehicle) Board {
	vs := make([]Vehicle, len(b.Vehicles))
	copy(vs, b.Vehicles)
	vs[i] = v
	return Board{Vehicles: vs, Size: b.Size, ExitDirection: b.ExitDirection}
}

// Successors enumerates every valid board one move away: directions in
// Directions order on the outside, vehicles in index order inside.
func (b Board) Successors() []Successor {
	out := make([]Successor, 0, 2*len(b.Vehicles))
	for _, d := range Directions {
		for i, v := range b.Vehicles {
			next := b.With(i, v.Moved(d))
			if next.IsValid() {
				out = append(out, Successor{Move: Move{Vehicle: i, Direction: d}, Board: next})
			}
		}
	}
	return out
}

// Apply performs m and returns the resulting board, or ErrIllegalMove if the
// result would leave the board or overlap another vehicle.
func (b Board) Apply(m Move) (Board, error) {
	if m.Vehicle < 0 || m.Vehicle >= len(b.Vehicles) {
		return b, fmt.Errorf("%w: %d", ErrUnknownVehicle, m.Vehicle)
	}
	if m.Direction != Positive && m.Direction != Negative {
		return b, fmt.Errorf("%w: direction %d", ErrIllegalMove, int(m.Direction))
	}
	next := b.With(m.Vehicle, b.Vehicles[m.Vehicle].Moved(m.Direction))
	if !next.IsValid() {
		return b, fmt.Errorf("%w: vehicle %d %s", ErrIllegalMove, m.Vehicle, b.Way(m))
	}
	return next, nil
}

// Way resolves a move to the cardinal orientation the vehicle travels in.
func (b Board) Way(m Move) Orientation {
	if m.Vehicle < 0 || m.Vehicle >= len(b.Vehicles) {
		return ""
	}
	return b.Vehicles[m.Vehicle].Orientation.Times(m.Direction)
}

// MoveFor converts a cardinal way ("up", "left", ...) for vehicle i into a Move.
func (b Board) MoveFor(i int, way Orientation) (Move, error) {
	if i < 0 || i >= len(b.Vehicles) {
		return Move{}, fmt.Errorf("%w: %d", ErrUnknownVehicle, i)
	}
	if !way.Valid() {
		return Move{}, fmt.Errorf("%w: %q", ErrUnknownWay, way)
	}
	o := b.Vehicles[i].Orientation
	switch way {
	case o.Times(Positive):
		return Move{Vehicle: i, Direction: Positive}, nil
	case o.Times(Negative):
		return Move{Vehicle: i, Direction: Negative}, nil
	}
	return Move{}, fmt.Errorf("%w: vehicle %d is %s, cannot move %s", ErrInvalidMoveWay, i, o.Axis(), way)
}

// Key is a compact encoding of the whole board; two boards are equal iff
// their keys are equal.
func (b Board) Key() string {
	buf := make([]byte, 0, 4+len(b.Vehicles)*6)
	buf = binary.AppendVarint(buf, int64(b.Size.X))
	buf = binary.AppendVarint(buf, int64(b.Size.Y))
	buf = binary.AppendVarint(buf, int64(b.ExitDirection))
	for _, v := range b.Vehicles {
		buf = append(buf, orientationCode(v.Orientation))
		buf = binary.AppendVarint(buf, int64(v.Position.X))
		buf = binary.AppendVarint(buf, int64(v.Position.Y))
		buf = binary.AppendVarint(buf, int64(v.Size.X))
		buf = binary.AppendVarint(buf, int64(v.Size.Y))
	}
	return string(buf)
}

// Equal reports structural equality.
func (b Board) Equal(o Board) bool {
	return b.Key() == o.Key()
}

// VehicleAt returns the index of the vehicle covering c, or -1.
func (b Board) VehicleAt(c Vector) int {
	for i, v := range b.Vehicles {
		if v.Occupies(c) {
			return i
		}
	}
	return -1
}

// Replay applies moves in order and returns every board, starting with b.
func Replay(b Board, moves []Move) ([]Board, error) {
	boards := make([]Board, 0, len(moves)+1)
	boards = append(boards, b)
	current := b
	for i, m := range moves {
		next, err := current.Apply(m)
		if err != nil {
			return boards, fmt.Errorf("%w: move %d: %v", ErrInvalidMoveList, i+1, err)
		}
		boards = append(boards, next)
		current = next
	}
	return boards, nil
}

func orientationCode(o Orientation) byte {
	switch o {
	case Up:
		return 'u'
	case Down:
		return 'd'
	case Left:
		return 'l'
	case Right:
		return 'r'
	}
	return '?'
}
