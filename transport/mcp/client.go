package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/rushhour/game/engine"
	"github.com/wricardo/rushhour/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			// Solving a hard puzzle can take a few seconds
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rush Hour",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rush Hour puzzles over the REST API.

Vehicles slide along their own axis one cell per move. A puzzle is solved
when vehicle A reaches the exit on the board's edge.

Start with create_session (see list_configs for puzzle IDs), then read the
board with game_state. Use move or bulk_move to play, hint when stuck, and
solve or autosolve to get an optimal line. describe_vehicle explains what
blocks a single vehicle. game_instructions has the full rules.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new puzzle session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the puzzle to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active puzzle sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Puzzle operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, distance to the exit and legal moves",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide one vehicle one cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"vehicle": map[string]interface{}{
					"type":        "string",
					"description": "Vehicle label as shown on the board (A is the main vehicle)",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right", "positive", "negative"},
					"description": "Direction to slide; must be along the vehicle's axis",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "vehicle", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Execute multiple moves in sequence, stopping at the first blocked or invalid move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
					},
					"description": `Moves written as "<vehicle> <direction>", e.g. ["B down", "C left", "A right"]`,
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the puzzle to its initial board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Moves per page (default 20)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available puzzles",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	// Solving
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve",
		Description: "Compute an optimal solution from a session's current board, or from a stored puzzle's start",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Solve a stored puzzle instead of a session",
				},
			},
		},
	}, c.handleSolve)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Get the next move of an optimal solution from the current board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "autosolve",
		Description: "Play an optimal solution from the current board until solved",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleAutoSolve)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules, board legend and solving tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_vehicle",
		Description: "Describe one vehicle: cells, axis, and what blocks it in each direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"vehicle": map[string]interface{}{
					"type":        "string",
					"description": "Vehicle label (A, B, ...)",
				},
			},
			Required: []string{"session_id", "vehicle"},
		},
	}, c.handleDescribeVehicle)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil && s.GameState.Solved {
			status = "solved"
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s, %s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), status)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	vehicle, _ := args["vehicle"].(string)
	direction, _ := args["direction"].(string)
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"vehicle":   vehicle,
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

// parseMoveToken reads "B down", "b:left", "C+" or "A -" into a move request.
func parseMoveToken(token string) (service.MoveRequest, error) {
	token = strings.TrimSpace(token)
	fields := strings.FieldsFunc(token, func(r rune) bool {
		return r == ' ' || r == ':' || r == ',' || r == '\t'
	})
	switch {
	case len(fields) == 2:
		return service.MoveRequest{Vehicle: fields[0], Direction: fields[1]}, nil
	case len(fields) == 1 && len(token) >= 2 && (strings.HasSuffix(token, "+") || strings.HasSuffix(token, "-")):
		return service.MoveRequest{Vehicle: token[:len(token)-1], Direction: token[len(token)-1:]}, nil
	}
	return service.MoveRequest{}, fmt.Errorf("cannot read move %q, expected \"<vehicle> <direction>\"", token)
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	reset, _ := args["reset"].(bool)

	moves := make([]service.MoveRequest, 0, len(movesRaw))
	for _, m := range movesRaw {
		token, ok := m.(string)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("moves must be strings, got %v", m)), nil
		}
		move, err := parseMoveToken(token)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		moves = append(moves, move)
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Also fetch current segment from live state
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultText(formatHistory(&history)), nil
	}

	result := formatHistory(&history) + "\n" + formatCurrentSegment(session.GameState)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Puzzles:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Board: %dx%d, Vehicles: %d, Exit: %s\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Width, cfg.Height, cfg.Vehicles, cfg.Exit)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleSolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	configID, _ := args["config_id"].(string)

	var path string
	switch {
	case sessionID != "":
		path = sessionPath(sessionID, "/solve")
	case configID != "":
		path = "/api/configs/" + url.PathEscape(configID) + "/solve"
	default:
		return mcp.NewToolResultError("session_id or config_id is required"), nil
	}

	var result service.SolveResult
	if err := c.apiCall(ctx, "GET", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSolveResult(&result)), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var hint service.HintResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/hint"), nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if hint.Move == nil {
		return mcp.NewToolResultText(hint.Message), nil
	}
	result := fmt.Sprintf("💡 %s\nCall: move(vehicle=%q, direction=%q)", hint.Message, hint.Move.Label, hint.Move.Way)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleAutoSolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/autosolve"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🚗 Rush Hour - Complete Instructions

PUZZLE OBJECTIVE:
Get vehicle A out of the parking lot. A leaves when its front reaches the exit edge of the board.

RULES:
• Every vehicle is a straight block, 1 cell wide, lying horizontally or vertically
• Vehicles only slide along their own axis: horizontal ones left/right, vertical ones up/down
• One move slides one vehicle by exactly one cell
• Vehicles cannot leave the board or overlap each other
• The exit is on the edge A points toward: right or left for a horizontal A, bottom or top for a vertical A

BOARD LEGEND:
• A - The main vehicle (the one that must escape)
• B, C, D, ... - Other vehicles, lettered in order
• . - Empty cell
Rows are printed top to bottom; (x, y) coordinates start at (0, 0) in the top-left corner.

DIRECTIONS:
• up, down, left, right - Cardinal ways, must match the vehicle's axis
• positive / negative (or + / -) - Along the axis: positive is right for horizontal vehicles, down for vertical ones

🤖 AI AGENTS - SOLVING STRATEGIES:

🔍 READ THE EXIT PATH FIRST:
- "Distance to exit" is how many cells A still has to travel
- "Blockers" lists the vehicles sitting on that path, nearest first
- Every blocker has to leave A's row (or column) before A can pass

🧩 WORK BACKWARDS:
- For each blocker, ask which way it can leave the path and what stands in that way
- Those vehicles must move first; repeat until you reach a vehicle that can move now
- Use describe_vehicle to see exactly what blocks a vehicle in each direction

🚨 COMMON PITFALLS:
- ❌ Moving a vertical vehicle left/right (or a horizontal one up/down) - always rejected
- ❌ Sliding a blocker further along the exit path instead of off it
- ❌ Long bulk_move sequences without checking the board - bulk_move stops at the first blocked move

🎮 API USAGE BEST PRACTICES:
- game_state shows the legal moves from the current board
- bulk_move accepts moves such as ["B down", "C left", "A right"]
- hint gives one optimal next move; solve gives the whole optimal sequence
- autosolve plays the optimal sequence when you want to see the finish
- reset_game (or reset=true on move/bulk_move) restores the starting board

SESSION MANAGEMENT:
- Multiple puzzle sessions can run simultaneously
- Each session has a unique 4-character ID
- Sessions keep independent boards and history

Good luck clearing the traffic jam! 🚦`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeVehicle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	label, _ := args["vehicle"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := describeVehicle(state.Board, label)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// describeVehicle reports a vehicle's geometry and, per direction, whether
// it can move and what is in the way.
func describeVehicle(b engine.Board, label string) (string, error) {
	resolved, err := service.ResolveMove(b, service.MoveRequest{Vehicle: label, Direction: "positive"})
	if err != nil {
		return "", err
	}
	i := resolved.Vehicle
	v := b.Vehicles[i]

	cells := make([]string, 0, v.Length())
	for _, c := range v.Cells() {
		cells = append(cells, c.String())
	}

	role := "blocking vehicle"
	if i == 0 {
		role = "main vehicle (must reach the exit)"
	} else {
		for _, j := range engine.Blockers(b) {
			if j == i {
				role = "blocking vehicle, currently ON the exit path"
			}
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Vehicle %s\n━━━━━━━━━━━━━━━━━━━━━━━━\n", engine.Label(i))
	fmt.Fprintf(&out, "Role: %s\n", role)
	fmt.Fprintf(&out, "Axis: %s, length %d\n", v.Axis(), v.Length())
	fmt.Fprintf(&out, "Cells: %s\n\n", strings.Join(cells, " "))

	for _, d := range engine.Directions {
		m := engine.Move{Vehicle: i, Direction: d}
		way := b.Way(m)
		if _, err := b.Apply(m); err == nil {
			fmt.Fprintf(&out, "%-5s ✓ free\n", way)
			continue
		}
		attempt := service.BlockedAttempt(b, m)
		if attempt.BlockedBy == "boundary" {
			fmt.Fprintf(&out, "%-5s ✗ board edge\n", way)
		} else {
			fmt.Fprintf(&out, "%-5s ✗ blocked by %s at %s\n", way, attempt.BlockedBy, attempt.Target)
		}
	}

	return out.String(), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// exitDescription names the edge vehicle A leaves through
func exitDescription(b engine.Board) string {
	if len(b.Vehicles) == 0 {
		return "unknown"
	}
	a := b.Main()
	if a.Axis() == engine.AxisVertical {
		if b.ExitDirection == engine.Positive {
			return fmt.Sprintf("bottom edge, column %d", a.Position.X)
		}
		return fmt.Sprintf("top edge, column %d", a.Position.X)
	}
	if b.ExitDirection == engine.Positive {
		return fmt.Sprintf("right edge, row %d", a.Position.Y)
	}
	return fmt.Sprintf("left edge, row %d", a.Position.Y)
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No puzzle state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Config: %s | Moves: %d | Distance to exit: %d\n",
		state.ConfigName, state.CurrentMovesCount, state.Heuristic)
	fmt.Fprintf(&result, "Exit: %s\n", exitDescription(state.Board))

	if blockers := engine.Blockers(state.Board); len(blockers) > 0 {
		labels := make([]string, len(blockers))
		for i, j := range blockers {
			labels[i] = engine.Label(j)
		}
		fmt.Fprintf(&result, "Blockers on exit path: %s\n", strings.Join(labels, ", "))
	}
	result.WriteString("\n")

	// Grid with column and row indices
	if len(state.Grid) > 0 {
		result.WriteString("   ")
		for x := 0; x < len(state.Grid[0]); x++ {
			fmt.Fprintf(&result, "%d", x%10)
		}
		result.WriteString("\n")
	}
	for y, row := range state.Grid {
		fmt.Fprintf(&result, "%2d %s\n", y, row)
	}

	if len(state.PossibleMoves) > 0 {
		moves := make([]string, len(state.PossibleMoves))
		for i, m := range state.PossibleMoves {
			moves[i] = m.Label + " " + m.Way
		}
		fmt.Fprintf(&result, "\nPossible moves: %s\n", strings.Join(moves, ", "))
	}

	if state.Solved {
		result.WriteString("\n🎉 SOLVED!")
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatMoveResult(result *service.MoveResult) string {
	response := ""
	if result.Success {
		response = "✓ Move successful\n"
	} else {
		response = "✗ Move failed\n"
	}

	if s := result.Step; s != nil {
		response += fmt.Sprintf("Step: %s %s %s→%s\n", s.Label, s.Way, s.From, s.To)
	}

	if a := result.AttemptedTo; a != nil {
		if a.BlockedBy == "boundary" {
			response += fmt.Sprintf("Blocked: %s cannot move %s past the board edge\n", a.Label, a.Way)
		} else {
			response += fmt.Sprintf("Blocked: %s cannot move %s, cell %s is taken by %s\n", a.Label, a.Way, a.Target, a.BlockedBy)
		}
	}

	if len(result.Events) > 0 {
		response += "Events:\n"
		for _, event := range result.Events {
			response += fmt.Sprintf("- %s: %s\n", event.Type, event.Message)
		}
	}

	response += "\n" + formatGameState(result.GameState)
	return response
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s\n", sessionID, configName)

	fmt.Fprintf(&b, "Executed %d/%d moves\n", result.MovesExecuted, result.RequestedMoves)
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d moves\n", result.Limit)
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for _, s := range result.Steps {
			status := "✓"
			if !s.Success {
				status = "✗"
			}
			fmt.Fprintf(&b, "%d. %s %s %s→%s %s\n", s.Idx, s.Label, s.Way, s.From, s.To, status)
		}
	}

	if a := result.AttemptedTo; a != nil && a.BlockedBy != "" {
		fmt.Fprintf(&b, "\nBlocked: %s %s into %s (%s)\n", a.Label, a.Way, a.Target, a.BlockedBy)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatSolveResult(result *service.SolveResult) string {
	if !result.Solvable {
		return "❌ No solution: vehicle A can never reach the exit from this board."
	}
	if result.Length == 0 {
		return "🎉 Already solved."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Optimal solution: %s (explored %d boards", result.Summary, result.Explored)
	if result.Cached {
		b.WriteString(", cached")
	}
	b.WriteString(")\n\n")
	for _, s := range result.Moves {
		fmt.Fprintf(&b, "(%d/%d): move %s %s\n", s.Index, result.Length, s.Label, s.Way)
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for i, move := range history.Moves {
		num := (history.Page-1)*history.PageSize + i + 1
		fmt.Fprintf(&b, "%d. %s\n", num, formatHistoryEntry(move))
	}

	return b.String()
}

func formatHistoryEntry(move engine.MoveHistoryEntry) string {
	status := "✓"
	if !move.Success {
		status = "✗"
	}
	return fmt.Sprintf("%s %s %s→%s %s", engine.Label(move.Vehicle), move.Action, move.FromPosition, move.ToPosition, status)
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Segment: unavailable"
	}
	header := fmt.Sprintf("Moves since last reset: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no moves since last reset)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatHistoryEntry(move))
	}
	return b.String()
}
