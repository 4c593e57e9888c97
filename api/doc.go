// Package api provides the HTTP REST API for the Rush Hour puzzle server.
//
// Endpoints:
//
// Health and metrics:
//   - GET /api/health - Liveness probe
//   - GET /metrics - Prometheus metrics
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "beginner"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Several sessions at once (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Playing:
//   - GET /api/sessions/{id}/state - Current board state
//   - POST /api/sessions/{id}/move - Slide one vehicle one cell
//   - POST /api/sessions/{id}/bulk-move - Several moves, stopping at the first failure
//   - POST /api/sessions/{id}/reset - Restore the starting board
//   - GET /api/sessions/{id}/history - Move history (?page=1&limit=20&order=desc)
//
// Solving:
//   - GET|POST /api/sessions/{id}/solve - Optimal solution from the current board
//   - GET /api/sessions/{id}/hint - Next optimal move
//   - POST /api/sessions/{id}/autosolve - Play the optimal solution
//
// Puzzles:
//   - GET /api/configs - List puzzles
//   - POST /api/configs - Add a puzzle (validated and checked for solvability)
//   - GET /api/configs/{name} - Get one puzzle
//   - GET|POST /api/configs/{name}/solve - Solve a puzzle's starting board
//
// WebSocket:
//   - GET /ws?session={id} - State pushes for one session
//
// Moves name a vehicle by label and a way along its axis:
//
//	{"vehicle": "B", "direction": "down", "reset": false}
//	{"moves": [{"vehicle": "A", "direction": "right"}], "reset": true}
//
// The move response carries a step with the vehicle's from and to
// positions, or attempted_to with the target cell and what blocked it
// ("boundary" or the other vehicle's label). The bulk-move response adds
// requested_moves, moves_executed, stop_reason_code
// (blocked_vehicle, blocked_boundary, invalid_move, solved), stopped_on_move
// (1-based) and the per-move steps.
//
// Errors are returned as JSON with the HTTP status code:
//
//	{
//	  "error": "session not found: 1a2b",
//	  "code": 404
//	}
//
// Every response carries an X-Request-ID header, echoed from the request
// when present.
package api
