package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	gws "github.com/gorilla/websocket"

	"github.com/wricardo/rushhour/game/config"
	"github.com/wricardo/rushhour/game/engine"
	"github.com/wricardo/rushhour/game/service"
	"github.com/wricardo/rushhour/game/session"
	"github.com/wricardo/rushhour/transport/websocket"
)

// MockPuzzleService implements service.PuzzleService for testing
type MockPuzzleService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Puzzle Operations
	MoveFunc     func(ctx context.Context, sessionID string, move service.MoveRequest, reset bool) (*service.MoveResult, error)
	BulkMoveFunc func(ctx context.Context, sessionID string, moves []service.MoveRequest, reset bool) (*service.BulkMoveResult, error)
	ResetFunc    func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Puzzle State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Solving
	SolveFunc       func(ctx context.Context, sessionID string) (*service.SolveResult, error)
	HintFunc        func(ctx context.Context, sessionID string) (*service.HintResult, error)
	AutoSolveFunc   func(ctx context.Context, sessionID string) (*service.BulkMoveResult, error)
	SolveConfigFunc func(ctx context.Context, configName string) (*service.SolveResult, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.PuzzleConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, cfg *engine.PuzzleConfig) error
}

func (m *MockPuzzleService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockPuzzleService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockPuzzleService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockPuzzleService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockPuzzleService) Move(ctx context.Context, sessionID string, move service.MoveRequest, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, move, reset)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockPuzzleService) BulkMove(ctx context.Context, sessionID string, moves []service.MoveRequest, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockPuzzleService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockPuzzleService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockPuzzleService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockPuzzleService) Solve(ctx context.Context, sessionID string) (*service.SolveResult, error) {
	if m.SolveFunc != nil {
		return m.SolveFunc(ctx, sessionID)
	}
	return &service.SolveResult{Solvable: true, Moves: []service.SolutionStep{}}, nil
}

func (m *MockPuzzleService) Hint(ctx context.Context, sessionID string) (*service.HintResult, error) {
	if m.HintFunc != nil {
		return m.HintFunc(ctx, sessionID)
	}
	return &service.HintResult{Solved: true}, nil
}

func (m *MockPuzzleService) AutoSolve(ctx context.Context, sessionID string) (*service.BulkMoveResult, error) {
	if m.AutoSolveFunc != nil {
		return m.AutoSolveFunc(ctx, sessionID)
	}
	return &service.BulkMoveResult{Success: true, Solved: true, GameState: &engine.GameState{Solved: true}}, nil
}

func (m *MockPuzzleService) SolveConfig(ctx context.Context, configName string) (*service.SolveResult, error) {
	if m.SolveConfigFunc != nil {
		return m.SolveConfigFunc(ctx, configName)
	}
	return &service.SolveResult{ConfigName: configName, Solvable: true, Moves: []service.SolutionStep{}}, nil
}

func (m *MockPuzzleService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockPuzzleService) LoadConfig(ctx context.Context, configName string) (*engine.PuzzleConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.PuzzleConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockPuzzleService) SaveConfig(ctx context.Context, configName string, cfg *engine.PuzzleConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, cfg)
	}
	return nil
}

// Test helpers
func setupTestServer(mockService *MockPuzzleService) *Server {
	return NewServer(mockService, nil)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	parseResponse(t, w, &resp)
	msg, _ := resp["error"].(string)
	return msg
}

var notFound = fmt.Errorf("%w: nope", service.ErrSessionNotFound)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{notFound, http.StatusNotFound},
		{fmt.Errorf("config 'x' not found: %w", config.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: unknown vehicle", service.ErrInvalidMove), http.StatusBadRequest},
		{fmt.Errorf("%w: overlap", config.ErrInvalidConfig), http.StatusBadRequest},
		{fmt.Errorf("autosolve failed: %w", engine.ErrUnsolvable), http.StatusUnprocessableEntity},
		{fmt.Errorf("solve failed: %w", engine.ErrSearchLimit), http.StatusServiceUnavailable},
		{fmt.Errorf("solve failed: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	mockService := &MockPuzzleService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			seen = RequestID(ctx)
			return &engine.GameState{}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/state", nil))

	id := w.Header().Get(RequestIDHeader)
	if len(id) != 36 {
		t.Errorf("Expected generated UUID request ID, got %q", id)
	}
	if seen != id {
		t.Errorf("Handler saw request ID %q, response carried %q", seen, id)
	}

	w = httptest.NewRecorder()
	req := makeRequest("GET", "/api/sessions/ab12/state", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	server.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "caller-id" {
		t.Errorf("Expected caller request ID to be echoed, got %q", got)
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockPuzzleService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockPuzzleService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %s", configName)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "classic"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with config_id",
			requestBody: map[string]string{"config_id": "beginner"},
			setupMock: func(m *MockPuzzleService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "cd34", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "beginner" {
					t.Errorf("Expected config name 'beginner', got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Deprecated config_name is accepted",
			requestBody: map[string]string{"config_name": "tower"},
			setupMock: func(m *MockPuzzleService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "ef56", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "tower" {
					t.Errorf("Expected config name 'tower', got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "missing"},
			setupMock: func(m *MockPuzzleService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config 'missing' not found: %w", config.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Handle service error",
			requestBody: nil,
			setupMock: func(m *MockPuzzleService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if msg := errorMessage(t, w); msg != "service error" {
					t.Errorf("Expected error message 'service error', got %s", msg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestCreateSession_InvalidBody(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{not json"))

	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mockService := &MockPuzzleService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "s1", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-1 * time.Minute)},
				{ID: "s2", CreatedAt: now.Add(-1 * time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
				{ID: "s3", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal int
	}{
		{"default sorts by access desc", "", []string{"s3", "s1", "s2"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"s1", "s3", "s2"}, 3},
		{"limit", "?limit=2", []string{"s3", "s1"}, 3},
		{"limit above count", "?limit=10", []string{"s3", "s1", "s2"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.wantTotal || resp.Count != len(tt.wantIDs) {
				t.Errorf("Expected count %d of %d, got %d of %d", len(tt.wantIDs), tt.wantTotal, resp.Count, resp.Total)
			}
			for i, id := range tt.wantIDs {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Errorf("Session %d: expected %s, got %+v", i, id, resp.Sessions)
					break
				}
			}
		})
	}
}

func TestListSessions_Error(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return nil, fmt.Errorf("storage error")
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != "storage error" {
		t.Errorf("Expected error 'storage error', got %s", msg)
	}
}

func TestGetSession(t *testing.T) {
	mockService := &MockPuzzleService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, notFound
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "classic"}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	req := mux.SetURLVars(makeRequest("GET", "/api/sessions/ab12", nil), map[string]string{"id": "ab12"})
	server.handleGetSession(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp service.SessionInfo
	parseResponse(t, w, &resp)
	if resp.ID != "ab12" {
		t.Errorf("Expected session ID ab12, got %s", resp.ID)
	}

	w = httptest.NewRecorder()
	req = mux.SetURLVars(makeRequest("GET", "/api/sessions/zz99", nil), map[string]string{"id": "zz99"})
	server.handleGetSession(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	var deleted string
	server := setupTestServer(&MockPuzzleService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "gone" {
				return notFound
			}
			deleted = sessionID
			return nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/ab12", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if deleted != "ab12" {
		t.Errorf("Expected ab12 to be deleted, got %q", deleted)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/gone", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Puzzle Operation Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockPuzzleService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Valid move",
			requestBody: map[string]interface{}{"vehicle": "B", "direction": "down"},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, move service.MoveRequest, reset bool) (*service.MoveResult, error) {
					if move.Vehicle != "B" || move.Direction != "down" {
						t.Errorf("Unexpected move request %+v", move)
					}
					return &service.MoveResult{
						Success:   true,
						GameState: &engine.GameState{Heuristic: 3},
						Step: &service.StepInfo{
							Idx: 1, Vehicle: 1, Label: "B", Way: "down",
							From: engine.Vector{X: 2, Y: 0}, To: engine.Vector{X: 2, Y: 1}, Success: true,
						},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if !resp.Success || resp.Step == nil || resp.Step.To.Y != 1 {
					t.Errorf("Unexpected move result %+v", resp)
				}
			},
		},
		{
			name:        "Move with reset",
			requestBody: map[string]interface{}{"vehicle": "0", "direction": "+", "reset": true},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, move service.MoveRequest, reset bool) (*service.MoveResult, error) {
					if !reset {
						t.Error("Expected reset to be true")
					}
					return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Blocked move is not an error",
			requestBody: map[string]interface{}{"vehicle": "A", "direction": "right"},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, move service.MoveRequest, reset bool) (*service.MoveResult, error) {
					return &service.MoveResult{
						GameState:   &engine.GameState{},
						Message:     "That move is blocked",
						AttemptedTo: &service.AttemptInfo{Label: "A", Way: "right", Target: engine.Vector{X: 2, Y: 1}, BlockedBy: "B"},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if resp.Success || resp.AttemptedTo == nil || resp.AttemptedTo.BlockedBy != "B" {
					t.Errorf("Expected blocked move, got %+v", resp)
				}
			},
		},
		{
			name:        "Invalid move",
			requestBody: map[string]interface{}{"vehicle": "Z", "direction": "up"},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, move service.MoveRequest, reset bool) (*service.MoveResult, error) {
					return nil, fmt.Errorf("%w: unknown vehicle %q", service.ErrInvalidMove, move.Vehicle)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Session not found",
			requestBody: map[string]interface{}{"vehicle": "A", "direction": "right"},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, move service.MoveRequest, reset bool) (*service.MoveResult, error) {
					return nil, notFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Malformed body",
			requestBody:    "not an object",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/sessions/ab12/move", tt.requestBody)
			req = mux.SetURLVars(req, map[string]string{"id": "ab12"})

			server.handleMove(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestBulkMove(t *testing.T) {
	var got []service.MoveRequest
	server := setupTestServer(&MockPuzzleService{
		BulkMoveFunc: func(ctx context.Context, sessionID string, moves []service.MoveRequest, reset bool) (*service.BulkMoveResult, error) {
			got = moves
			return &service.BulkMoveResult{
				MovesExecuted:  2,
				RequestedMoves: len(moves),
				StoppedReason:  "Vehicle C is blocked",
				StopReasonCode: "blocked_vehicle",
				StoppedOnMove:  3,
				GameState:      &engine.GameState{},
			}, nil
		},
	})

	body := map[string]interface{}{
		"moves": []map[string]string{
			{"vehicle": "C", "direction": "left"},
			{"vehicle": "C", "direction": "left"},
			{"vehicle": "C", "direction": "left"},
		},
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/bulk-move", body))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(got) != 3 || got[0].Vehicle != "C" || got[2].Direction != "left" {
		t.Errorf("Moves not decoded correctly: %+v", got)
	}

	var resp service.BulkMoveResult
	parseResponse(t, w, &resp)
	if resp.StopReasonCode != "blocked_vehicle" || resp.StoppedOnMove != 3 {
		t.Errorf("Unexpected bulk result %+v", resp)
	}
}

func TestReset(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID != "ab12" {
				return nil, notFound
			}
			return &engine.GameState{Message: "Get vehicle A to the exit!"}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/reset", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resp)
	if resp.State == nil || resp.State.Message != "Get vehicle A to the exit!" {
		t.Errorf("Unexpected reset response %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/zz99/reset", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"invalid values fall back", "?page=-1&limit=abc&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			server := setupTestServer(&MockPuzzleService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
				},
			})

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/history"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got != tt.want {
				t.Errorf("Expected options %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestGetGameState(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return &engine.GameState{Grid: []string{"..B.", "AAB."}, Heuristic: 3, Blockers: 1}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/state", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var state engine.GameState
	parseResponse(t, w, &state)
	if state.Heuristic != 3 || state.Blockers != 1 || len(state.Grid) != 2 {
		t.Errorf("Unexpected state %+v", state)
	}
}

// Solving Tests

func TestSolve(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{
		SolveFunc: func(ctx context.Context, sessionID string) (*service.SolveResult, error) {
			return &service.SolveResult{
				ConfigName: "test",
				Solvable:   true,
				Length:     1,
				Moves:      []service.SolutionStep{{Index: 1, Vehicle: 0, Label: "A", Direction: engine.Positive, Way: "right"}},
				Summary:    "solvable in 1 move",
			}, nil
		},
	})

	for _, method := range []string{"GET", "POST"} {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest(method, "/api/sessions/ab12/solve", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", method, w.Code)
		}

		var resp service.SolveResult
		parseResponse(t, w, &resp)
		if !resp.Solvable || resp.Length != 1 || resp.Moves[0].Way != "right" {
			t.Errorf("%s: unexpected solve result %+v", method, resp)
		}
	}
}

func TestHint(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{
		HintFunc: func(ctx context.Context, sessionID string) (*service.HintResult, error) {
			return &service.HintResult{
				Move:      &service.SolutionStep{Index: 1, Vehicle: 1, Label: "B", Direction: engine.Positive, Way: "down"},
				Remaining: 6,
				Message:   "Move B down (6 left)",
			}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/hint", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp service.HintResult
	parseResponse(t, w, &resp)
	if resp.Move == nil || resp.Move.Label != "B" || resp.Remaining != 6 {
		t.Errorf("Unexpected hint %+v", resp)
	}
}

func TestAutoSolve(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"solves", nil, http.StatusOK},
		{"unsolvable", fmt.Errorf("autosolve failed: %w", engine.ErrUnsolvable), http.StatusUnprocessableEntity},
		{"search limit", fmt.Errorf("autosolve failed: %w", engine.ErrSearchLimit), http.StatusServiceUnavailable},
		{"missing session", notFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(&MockPuzzleService{
				AutoSolveFunc: func(ctx context.Context, sessionID string) (*service.BulkMoveResult, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.BulkMoveResult{
						MovesExecuted:  6,
						RequestedMoves: 6,
						Success:        true,
						Solved:         true,
						StopReasonCode: "solved",
						GameState:      &engine.GameState{Solved: true},
					}, nil
				},
			})

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/autosolve", nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestSolveConfig(t *testing.T) {
	var got string
	server := setupTestServer(&MockPuzzleService{
		SolveConfigFunc: func(ctx context.Context, configName string) (*service.SolveResult, error) {
			got = configName
			if configName == "missing" {
				return nil, fmt.Errorf("config 'missing' not found: %w", config.ErrConfigNotFound)
			}
			return &service.SolveResult{ConfigName: configName, Solvable: true, Length: 14}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/tower.yml/solve", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got != "tower" {
		t.Errorf("Expected extension to be trimmed, got %q", got)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs/missing/solve", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Configuration Tests

func TestListConfigs(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				{Filename: "classic.json", ConfigID: "classic", Name: "classic", Width: 6, Height: 6, Vehicles: 13, Exit: "positive"},
				{Filename: "tower.yml", ConfigID: "tower", Name: "Tower", Width: 5, Height: 6, Vehicles: 7, Exit: "negative"},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 2 || configs[1].Exit != "negative" {
		t.Errorf("Unexpected configs %+v", configs)
	}
}

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		expectedStatus int
		wantName       string
	}{
		{"by id", "/api/configs/classic", http.StatusOK, "classic"},
		{"json extension", "/api/configs/classic.json", http.StatusOK, "classic"},
		{"yaml extension", "/api/configs/beginner.yaml", http.StatusOK, "beginner"},
		{"missing", "/api/configs/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(&MockPuzzleService{
				LoadConfigFunc: func(ctx context.Context, configName string) (*engine.PuzzleConfig, error) {
					if configName == "missing" {
						return nil, config.ErrConfigNotFound
					}
					return &engine.PuzzleConfig{Name: configName, Width: 6, Height: 6}, nil
				},
			})

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.wantName == "" {
				return
			}

			var cfg engine.PuzzleConfig
			parseResponse(t, w, &cfg)
			if cfg.Name != tt.wantName {
				t.Errorf("Expected config %q, got %q", tt.wantName, cfg.Name)
			}
		})
	}
}

func TestCreateConfig(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		saveErr        error
		expectedStatus int
	}{
		{
			name: "valid config",
			body: engine.PuzzleConfig{
				Name: "line", Description: "One car", Width: 3, Height: 1, Exit: "positive",
				Vehicles: []engine.VehicleConfig{{Orientation: "horizontal", Length: 1}},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			body:           engine.PuzzleConfig{Description: "nameless"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "rejected by validation",
			body:           engine.PuzzleConfig{Name: "bad"},
			saveErr:        fmt.Errorf("%w: no vehicles", config.ErrInvalidConfig),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "write failure",
			body:           engine.PuzzleConfig{Name: "disk"},
			saveErr:        errors.New("failed to write config file"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved *engine.PuzzleConfig
			server := setupTestServer(&MockPuzzleService{
				SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.PuzzleConfig) error {
					saved = cfg
					return tt.saveErr
				},
			})

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/configs", tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus == http.StatusCreated && (saved == nil || len(saved.Vehicles) != 1) {
				t.Errorf("Config not passed through: %+v", saved)
			}
		})
	}
}

func TestUnifiedSessions(t *testing.T) {
	sessions := map[string]*service.SessionInfo{
		"s1": {ID: "s1", ConfigName: "classic", PuzzleConfig: engine.DefaultPuzzleConfig(), GameState: &engine.GameState{}},
		"s2": {ID: "s2", ConfigName: "classic", GameState: &engine.GameState{Solved: true}},
		"s3": {ID: "s3", ConfigName: "tower", GameState: &engine.GameState{}},
	}
	mockService := &MockPuzzleService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if s, ok := sessions[sessionID]; ok {
				return s, nil
			}
			return nil, notFound
		},
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{sessions["s1"], sessions["s2"], sessions["s3"]}, nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		name       string
		query      string
		wantCount  int
		wantSolved int
		wantConfig string
	}{
		{"by ids skips unknown", "?sessionIds=s1,zz,s2", 2, 1, "classic"},
		{"by config", "?configName=tower", 1, 0, "tower"},
		{"all", "", 3, 1, "classic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				ConfigName string                   `json:"config_name"`
				Vehicles   int                      `json:"vehicles"`
				Solved     int                      `json:"solved"`
				Sessions   []map[string]interface{} `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if len(resp.Sessions) != tt.wantCount || resp.Solved != tt.wantSolved || resp.ConfigName != tt.wantConfig {
				t.Errorf("Unexpected unified response %+v", resp)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("Unexpected health response %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected metrics status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("Expected default Go collectors in metrics output")
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		expectedStatus int
	}{
		{"Missing session parameter", "", http.StatusBadRequest},
		{"Invalid session", "?session=invalid", http.StatusNotFound},
	}

	mockService := &MockPuzzleService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, notFound
		},
	}
	hub := websocket.NewHub()
	server := NewServer(mockService, hub)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestWebSocket_NotServedWithoutHub(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/ws?session=ab12", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestWebSocket_ReceivesMoveUpdates(t *testing.T) {
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	mockService := &MockPuzzleService{
		MoveFunc: func(ctx context.Context, sessionID string, move service.MoveRequest, reset bool) (*service.MoveResult, error) {
			return &service.MoveResult{Success: true, GameState: &engine.GameState{TotalMoves: 1, Heuristic: 2}}, nil
		},
	}
	ts := httptest.NewServer(NewServer(mockService, hub))
	defer ts.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?session=ab12", nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount("ab12") != 1 {
		if time.Now().After(deadline) {
			t.Fatal("Client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	body, _ := json.Marshal(map[string]string{"vehicle": "A", "direction": "right"})
	resp, err := http.Post(ts.URL+"/api/sessions/ab12/move", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Move request failed: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read update: %v", err)
	}
	if msg.Event != websocket.EventStateUpdate || msg.GameState == nil || msg.GameState.TotalMoves != 1 {
		t.Errorf("Unexpected update %+v", msg)
	}
}

// TestEndToEnd drives the real service over HTTP with the shipped puzzles.
func TestEndToEnd(t *testing.T) {
	configs, err := config.NewManager("../configs")
	if err != nil {
		t.Fatalf("Failed to load configs: %v", err)
	}
	svc := service.NewPuzzleService(session.NewManager(), configs, nil)
	server := NewServer(svc, nil)

	do := func(method, path string, body interface{}, target interface{}) int {
		t.Helper()
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest(method, path, body))
		if target != nil && w.Code < 300 {
			parseResponse(t, w, target)
		}
		return w.Code
	}

	var info service.SessionInfo
	if code := do("POST", "/api/sessions", map[string]string{"config_id": "beginner"}, &info); code != http.StatusCreated {
		t.Fatalf("Create session returned %d", code)
	}
	if info.ConfigName != "beginner" || info.GameState == nil || info.GameState.Solved {
		t.Fatalf("Unexpected session %+v", info)
	}
	base := "/api/sessions/" + info.ID

	var hint service.HintResult
	if code := do("GET", base+"/hint", nil, &hint); code != http.StatusOK {
		t.Fatalf("Hint returned %d", code)
	}
	if hint.Move == nil || hint.Remaining != 6 {
		t.Fatalf("Unexpected hint %+v", hint)
	}

	var moved service.MoveResult
	do("POST", base+"/move", map[string]string{"vehicle": hint.Move.Label, "direction": hint.Move.Way}, &moved)
	if !moved.Success {
		t.Fatalf("Hinted move failed: %+v", moved)
	}

	if code := do("POST", base+"/move", map[string]string{"vehicle": "Q", "direction": "up"}, nil); code != http.StatusBadRequest {
		t.Errorf("Unknown vehicle returned %d, want 400", code)
	}

	var solved service.BulkMoveResult
	if code := do("POST", base+"/autosolve", nil, &solved); code != http.StatusOK {
		t.Fatalf("Autosolve returned %d", code)
	}
	if !solved.Solved || solved.MovesExecuted != 5 {
		t.Errorf("Expected 5 remaining moves to solve, got %+v", solved)
	}

	var state engine.GameState
	do("GET", base+"/state", nil, &state)
	if !state.Solved || state.Heuristic != 0 {
		t.Errorf("Expected solved state, got %+v", state)
	}

	var tower service.SolveResult
	if code := do("GET", "/api/configs/tower/solve", nil, &tower); code != http.StatusOK {
		t.Fatalf("Solve config returned %d", code)
	}
	if !tower.Solvable || tower.Length != 14 {
		t.Errorf("Expected tower to solve in 14 moves, got %+v", tower)
	}

	if code := do("GET", "/api/sessions/zzzz/state", nil, nil); code != http.StatusNotFound {
		t.Errorf("Missing session returned %d, want 404", code)
	}
	if code := do("GET", "/api/configs/nope/solve", nil, nil); code != http.StatusNotFound {
		t.Errorf("Missing config returned %d, want 404", code)
	}
}
