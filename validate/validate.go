// Command validate provides a small CLI that validates puzzle configuration
// files (.json, .yaml, .yml) in the ../configs directory. It checks:
//   - JSON/YAML structure and required fields
//   - Board bounds, vehicle shapes and overlaps
//   - That the puzzle is not already solved
//   - Solvability: an optimal solution is found within the search bounds
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/rushhour/game/engine"
)

// Search bounds for the solvability check.
const (
	solveTimeout = 30 * time.Second
	maxStates    = 2_000_000
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Moves  int
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single puzzle file, then solves it.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.DecodePuzzleConfig(data, filepath.Ext(filePath))
	if err != nil {
		result.fail("Invalid %s: %v", strings.ToUpper(strings.TrimPrefix(filepath.Ext(filePath), ".")), err)
		return result
	}

	if err := engine.ValidatePuzzleConfig(config); err != nil {
		result.fail("%v", err)
		return result
	}

	board, err := config.Board()
	if err != nil {
		result.fail("%v", err)
		return result
	}

	ctx, cancel := context.WithTimeout(context.Background(), solveTimeout)
	defer cancel()

	sol, err := engine.Solve(ctx, board, engine.SolveOptions{MaxStates: maxStates})
	switch {
	case errors.Is(err, engine.ErrUnsolvable):
		result.fail("Puzzle has no solution: vehicle A can never reach the exit")
		return result
	case errors.Is(err, engine.ErrSearchLimit), errors.Is(err, context.DeadlineExceeded):
		result.fail("Solver gave up before finding a solution: %v", err)
		return result
	case err != nil:
		result.fail("Solver failed: %v", err)
		return result
	}
	result.Moves = sol.Len()

	result.info("Name: %s", config.Name)
	result.info("Board: %dx%d, exit %s", config.Width, config.Height, config.Exit)
	result.info("Vehicles: %d", len(config.Vehicles))
	result.info("Blockers on exit path: %d", len(engine.Blockers(board)))
	result.info("Solvable in %d moves (%d boards explored)", sol.Len(), sol.Explored)

	return result
}

// configFiles lists the puzzle files in dir in name order.
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range engine.ConfigExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main scans ../configs (or the directory given as the first argument) and
// validates each puzzle, printing a concise report and exiting with
// non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := configFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All puzzles are valid!")
	} else {
		fmt.Println("❌ Some puzzles have errors")
		os.Exit(1)
	}
}
