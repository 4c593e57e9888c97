// Command autoplay plays a Rush Hour session on a running server until the
// puzzle is solved. It either follows the server's optimal hints or searches
// greedily on its own, retrying from a reset board when an attempt runs out
// of moves.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/rushhour/game/engine"
)

// attemptResult is the outcome of one play-through.
type attemptResult struct {
	Moves  int
	Solved bool
	State  *engine.GameState
}

// play asks strategy for moves until the board is solved, the strategy gives
// up, or maxMoves moves have been tried.
func play(ctx context.Context, client *Client, strategy Strategy, state *engine.GameState, maxMoves int, delay time.Duration, verbose bool) (*attemptResult, error) {
	result := &attemptResult{State: state}

	for turn := 0; turn < maxMoves && !result.State.Solved; turn++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		move, ok, err := strategy.NextMove(ctx, result.State)
		if err != nil {
			return result, err
		}
		if !ok {
			log.Printf("⚠️  No valid moves available")
			break
		}

		newState, err := client.Move(ctx, move.Label, move.Way)
		if err != nil {
			if verbose {
				log.Printf("Move failed: %v", err)
			}
			if newState == nil {
				return result, err
			}
		}
		result.State = newState
		if err == nil {
			result.Moves++
			if verbose {
				log.Printf("%d. %s %s (distance %d)", result.Moves, move.Label, move.Way, newState.Heuristic)
			}
		}

		if delay > 0 {
			time.Sleep(delay)
		}
	}

	result.Solved = result.State.Solved
	return result, nil
}

func newStrategy(name string, client *Client) (Strategy, error) {
	switch name {
	case "hint":
		return NewHintStrategy(client), nil
	case "greedy":
		return NewGreedyStrategy(time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (use hint or greedy)", name)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Connecting to puzzle server at %s", cmd.String("url"))
	client := NewClient(cmd.String("url"))

	strategy, err := newStrategy(cmd.String("strategy"), client)
	if err != nil {
		return err
	}

	var state *engine.GameState

	// Check for saved session ID
	sessionFile := cmd.String("session-file")
	savedSessionID := cmd.String("continue")
	if savedSessionID == "" && sessionFile != "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	if savedSessionID != "" {
		log.Printf("🔄 Resuming session: %s", savedSessionID)
		state, err = client.Resume(ctx, savedSessionID)
		if err != nil {
			log.Printf("⚠️  Failed to resume session (may be expired): %v", err)
			log.Printf("Creating new session...")
			savedSessionID = ""
		}
	}

	if savedSessionID == "" {
		state, err = client.CreateSession(ctx, cmd.String("config"))
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		log.Printf("✨ Session created: %s (%s)", client.SessionID(), state.ConfigName)

		if sessionFile != "" {
			if err := os.WriteFile(sessionFile, []byte(client.SessionID()), 0644); err != nil {
				log.Printf("Warning: Failed to save session ID: %v", err)
			}
		}
	}

	maxAttempts := int(cmd.Int("max-attempts"))
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		state, err = client.Reset(ctx)
		if err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}
		strategy.Reset()

		log.Printf("=== 🎮 Attempt %d/%d ===", attempt, maxAttempts)

		result, err := play(ctx, client, strategy, state, int(cmd.Int("max-moves")), cmd.Duration("delay"), cmd.Bool("verbose"))
		if err != nil {
			return err
		}
		log.Printf("Attempt %d: Moves=%d, Distance=%d", attempt, result.Moves, result.State.Heuristic)

		if result.Solved {
			log.Printf("🎉 SOLVED in attempt %d with %d moves!", attempt, result.Moves)
			log.Printf("Session: %s", client.SessionID())
			return nil
		}
	}

	return fmt.Errorf("failed to solve session %s after %d attempts", client.SessionID(), maxAttempts)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play a Rush Hour session to completion",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Puzzle server URL"},
			&cli.StringFlag{Name: "config", Usage: "Puzzle to play (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "File remembering the last session ID (empty to disable)"},
			&cli.StringFlag{Name: "strategy", Value: "hint", Usage: "hint (server's optimal moves) or greedy (local search)"},
			&cli.IntFlag{Name: "max-moves", Value: 500, Usage: "Maximum moves per attempt"},
			&cli.IntFlag{Name: "max-attempts", Value: 10, Usage: "Maximum attempts before giving up"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between moves"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
		},
		Action: run,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
