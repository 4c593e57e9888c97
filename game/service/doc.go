// Package service provides the business logic layer for the Rush Hour server.
//
// The service package implements:
//   - Multi-session puzzle management
//   - Configuration management and loading
//   - Move resolution and validation
//   - Optimal solving, hints and auto-solve
//   - Move history tracking
//
// Core Interfaces:
//
// PuzzleService is the main service interface providing high-level puzzle operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages puzzle configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the puzzle engine, providing session isolation, configuration management, and
// business logic orchestration. Each session maintains its own engine
// instance with independent state.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	puzzleService := service.NewPuzzleService(sessionMgr, configMgr, nil)
//
//	// Create a new session
//	sessionInfo, err := puzzleService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Slide vehicle B down one cell
//	result, err := puzzleService.Move(ctx, sessionInfo.ID,
//		service.MoveRequest{Vehicle: "B", Direction: "down"}, false)
//
// Moves:
//
// A MoveRequest names a vehicle by label ("A" is the main vehicle) or by
// index, and a direction either along the vehicle's axis ("positive",
// "negative") or as a cardinal way ("up", "down", "left", "right").
//
// Solving:
//
// Solve, Hint and AutoSolve search from the session's current board with
// a Solver. Solutions are cached by board, and every board along a found
// solution is cached with the remainder of it, so repeated hints are cheap.
// Concurrent requests for the same board share one search. Solver runs and
// interactive moves are counted in Prometheus metrics.
package service
