// Command analyze prints quick, human-readable facts about the puzzles in the
// project's configs directory: dimensions, vehicle counts, what blocks the
// main vehicle, and the optimal solution length with the search effort it
// took to find it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/rushhour/game/engine"
	"github.com/wricardo/rushhour/game/render"
)

// Analysis summarizes one puzzle file.
type Analysis struct {
	Name      string
	Width     int
	Height    int
	Vehicles  int
	Exit      string
	Heuristic int
	Blockers  []string
	Solvable  bool
	Moves     int
	Explored  int
	Generated int
	Duration  time.Duration
	Board     engine.Board
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	var files []string
	for _, ext := range engine.ConfigExtensions {
		matches, _ := filepath.Glob(filepath.Join(dir, "*"+ext))
		files = append(files, matches...)
	}
	sort.Strings(files)

	for _, configFile := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(configFile))
		a, err := analyzeConfig(context.Background(), configFile)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, a)
	}
}

// analyzeConfig loads a puzzle and solves it.
func analyzeConfig(ctx context.Context, path string) (*Analysis, error) {
	config, err := engine.LoadPuzzleConfig(path)
	if err != nil {
		return nil, err
	}
	board, err := config.Board()
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Name:      config.Name,
		Width:     config.Width,
		Height:    config.Height,
		Vehicles:  len(config.Vehicles),
		Exit:      exitEdge(board),
		Heuristic: board.Heuristic(),
		Board:     board,
	}
	for _, i := range engine.Blockers(board) {
		a.Blockers = append(a.Blockers, engine.Label(i))
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	sol, err := engine.Solve(ctx, board, engine.SolveOptions{})
	if errors.Is(err, engine.ErrUnsolvable) {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("solve %s: %w", config.Name, err)
	}

	a.Solvable = true
	a.Moves = sol.Len()
	a.Explored = sol.Explored
	a.Generated = sol.Generated
	a.Duration = sol.Duration
	return a, nil
}

func exitEdge(b engine.Board) string {
	vertical := b.Main().Axis() == engine.AxisVertical
	switch {
	case vertical && b.ExitDirection == engine.Positive:
		return "bottom"
	case vertical:
		return "top"
	case b.ExitDirection == engine.Positive:
		return "right"
	default:
		return "left"
	}
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Board: %d x %d, exit on the %s edge\n", a.Width, a.Height, a.Exit)
	fmt.Fprintf(w, "Vehicles: %d\n", a.Vehicles)
	fmt.Fprintln(w, render.Text(a.Board))
	fmt.Fprintf(w, "Distance to exit: %d\n", a.Heuristic)

	if len(a.Blockers) > 0 {
		fmt.Fprintf(w, "Blockers on exit path: %s\n", strings.Join(a.Blockers, ", "))
	} else {
		fmt.Fprintf(w, "Exit path is clear\n")
	}

	if !a.Solvable {
		fmt.Fprintf(w, "⚠️  CRITICAL: puzzle has no solution!\n")
		return
	}
	fmt.Fprintf(w, "✅ %s (explored %d, generated %d boards in %s)\n",
		render.Summary(a.Moves), a.Explored, a.Generated, a.Duration.Round(time.Millisecond))
}
