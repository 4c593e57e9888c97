package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/rushhour/game/engine"
)

var (
	// ErrInvalidMove is returned when a move request names an unknown vehicle
	// or a direction that cannot be parsed.
	ErrInvalidMove = errors.New("invalid move")

	ErrSessionNotFound = errors.New("session not found")

	// ErrConfigNotFound is returned by ConfigManager implementations for a
	// puzzle name they do not know.
	ErrConfigNotFound = errors.New("configuration not found")
)

// ResolveMove turns a textual move request into an engine move on b.
func ResolveMove(b engine.Board, req MoveRequest) (engine.Move, error) {
	i, err := vehicleIndex(b, req.Vehicle)
	if err != nil {
		return engine.Move{}, err
	}

	dir := strings.ToLower(strings.TrimSpace(req.Direction))
	if d, err := engine.ParseDirection(dir); err == nil {
		return engine.Move{Vehicle: i, Direction: d}, nil
	}

	way := engine.Orientation(dir)
	if !way.Valid() {
		return engine.Move{}, fmt.Errorf("%w: unknown direction %q (use up, down, left, right, positive or negative)", ErrInvalidMove, req.Direction)
	}
	m, err := b.MoveFor(i, way)
	if err != nil {
		return engine.Move{}, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	return m, nil
}

// vehicleIndex accepts a vehicle label ("A", "c") or a numeric index.
func vehicleIndex(b engine.Board, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: vehicle is required", ErrInvalidMove)
	}

	i, err := strconv.Atoi(s)
	if err != nil {
		if len(s) != 1 {
			return 0, fmt.Errorf("%w: unknown vehicle %q", ErrInvalidMove, s)
		}
		i = int(strings.ToUpper(s)[0]) - 'A'
	}
	if i < 0 || i >= len(b.Vehicles) {
		return 0, fmt.Errorf("%w: unknown vehicle %q (board has %d vehicles)", ErrInvalidMove, s, len(b.Vehicles))
	}
	return i, nil
}

// BlockedAttempt describes the cell m would move into on b and what occupies
// it. It is meaningful only for moves that b.Apply rejects.
func BlockedAttempt(b engine.Board, m engine.Move) *AttemptInfo {
	v := b.Vehicles[m.Vehicle]
	info := &AttemptInfo{
		Vehicle: m.Vehicle,
		Label:   engine.Label(m.Vehicle),
		Way:     string(b.Way(m)),
	}

	for _, c := range v.Moved(m.Direction).Cells() {
		if v.Occupies(c) {
			continue
		}
		info.Target = c
		if c.X < 0 || c.Y < 0 || c.X >= b.Size.X || c.Y >= b.Size.Y {
			info.BlockedBy = "boundary"
		} else if j := b.VehicleAt(c); j >= 0 {
			info.BlockedBy = engine.Label(j)
		}
		if info.BlockedBy != "" {
			break
		}
	}
	return info
}

func stopReasonCode(a *AttemptInfo) string {
	if a.BlockedBy == "boundary" {
		return "blocked_boundary"
	}
	return "blocked_vehicle"
}

// solutionSteps labels each move of a solution as replayed from b.
func solutionSteps(b engine.Board, moves []engine.Move) []SolutionStep {
	steps := make([]SolutionStep, 0, len(moves))
	for i, m := range moves {
		steps = append(steps, SolutionStep{
			Index:     i + 1,
			Vehicle:   m.Vehicle,
			Label:     engine.Label(m.Vehicle),
			Direction: m.Direction,
			Way:       string(b.Way(m)),
		})
		if next, err := b.Apply(m); err == nil {
			b = next
		}
	}
	return steps
}
