// Package mcp provides the Model Context Protocol interface for the Rush Hour server.
//
// The mcp package implements:
//   - An MCP server for AI agent integration
//   - Tool definitions that proxy to the REST API
//   - Text renderings of boards, moves and solutions for language models
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - game_state: Get the current board, exit, blockers and legal moves
//   - move: Slide one vehicle one cell
//   - bulk_move: Execute several moves such as "B down" or "A+" in sequence
//   - reset_game: Reset the puzzle to its initial board
//   - move_history: Retrieve move history with pagination
//   - create_session: Create a new session with puzzle selection
//   - get_session: Get specific session details
//   - list_sessions: List all active sessions
//   - list_configs: List available puzzles
//   - solve: Compute an optimal solution for a session or stored puzzle
//   - hint: Get the next optimal move
//   - autosolve: Play the optimal solution to the end
//   - game_instructions: Rules and solving tips
//   - describe_vehicle: What blocks a vehicle in each direction
//
// The client holds no puzzle state. Every tool call becomes one or two HTTP
// requests against the API server given to NewClient, so an agent and a
// browser watching the same session see the same board.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
