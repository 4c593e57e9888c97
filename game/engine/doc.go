// Package engine provides the core puzzle logic for the Rush Hour solver.
//
// The engine package implements:
//   - Integer 2D geometry (Vector) and cardinal orientations
//   - Vehicles that slide one cell at a time along a single axis
//   - Immutable boards with validity, goal and heuristic checks
//   - Successor enumeration and an A* search over board states
//   - An interactive GameEngine with move history for sessions
//   - Puzzle configuration loading (JSON or YAML) and validation
//
// Core Types:
//
// Board is a value: every move produces a new Board and never mutates the
// old one. Vehicles[0] is the main vehicle that has to reach the exit edge
// named by ExitDirection. Solve searches from a starting Board and returns
// the shortest list of Moves that solves it, or ErrUnsolvable once every
// reachable board has been examined.
//
// The Engine interface wraps a Board for interactive play, implemented by
// GameEngine. GameState is its JSON view, while PuzzleConfig defines the
// starting layout loaded from files under configs/.
//
// Usage:
//
//	config, err := engine.LoadConfigByName("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	board, err := config.Board()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	solution, err := engine.Solve(ctx, board, engine.SolveOptions{})
//	if errors.Is(err, engine.ErrUnsolvable) {
//		fmt.Println("no solution")
//	}
//
// Coordinates:
//
// X grows to the right and Y grows downward. A positive exit means the main
// vehicle leaves through the right (horizontal) or bottom (vertical) edge; a
// negative exit means the left or top edge.
package engine
