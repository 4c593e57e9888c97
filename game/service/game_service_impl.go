package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/wricardo/rushhour/game/engine"
	"github.com/wricardo/rushhour/game/render"
)

// puzzleServiceImpl implements the PuzzleService interface
type puzzleServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	solver   *Solver
	mu       sync.RWMutex
}

// idForName maps a puzzle's display name back to the ID it is stored under.
func (s *puzzleServiceImpl) idForName(name string) string {
	if list, err := s.configs.ListConfigs(); err == nil {
		for _, cfg := range list {
			if cfg.Name == name {
				return cfg.ConfigID
			}
		}
	}
	if name == "" {
		return "default"
	}
	return name
}

// lookup finds a session without marking it used.
func (s *puzzleServiceImpl) lookup(id string) (*Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// touch finds a session and marks it used. Callers hold s.mu for writing.
func (s *puzzleServiceImpl) touch(id string) (*Session, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(id)
	return sess, nil
}

// persist saves a session after a change. Failures are logged; the change
// already happened in memory.
func (s *puzzleServiceImpl) persist(id, after string) {
	if err := s.sessions.Save(id); err != nil {
		log.Printf("Warning: failed to persist session %s after %s: %v", id, after, err)
	}
}

// NewPuzzleService creates a new puzzle service instance. A nil solver gets
// one with default bounds.
func NewPuzzleService(sessions SessionManager, configs ConfigManager, solver *Solver) PuzzleService {
	if solver == nil {
		solver = NewSolver(SolverOptions{})
	}
	return &puzzleServiceImpl{
		sessions: sessions,
		configs:  configs,
		solver:   solver,
	}
}

// loadConfig loads a named configuration, listing the alternatives when it does not exist
func (s *puzzleServiceImpl) loadConfig(configName string) (*engine.PuzzleConfig, error) {
	config, err := s.configs.LoadConfig(configName)
	if err == nil {
		return config, nil
	}
	if errors.Is(err, ErrConfigNotFound) {
		availableConfigs, listErr := s.configs.ListConfigs()
		if listErr == nil && len(availableConfigs) > 0 {
			var configIDs []string
			for _, cfg := range availableConfigs {
				configIDs = append(configIDs, cfg.ConfigID)
			}
			return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
		}
		return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
	}
	return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
}

func sessionInfo(sess *Session) *SessionInfo {
	configID := sess.ConfigID
	if configID == "" {
		configID = "default"
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID, // Return the config_id, not the display name
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		PuzzleConfig:   sess.Config,
	}
}

// CreateSession creates a new puzzle session
func (s *puzzleServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.PuzzleConfig
	configID := configName
	if configName != "" {
		var err error
		config, err = s.loadConfig(configName)
		if err != nil {
			return nil, err
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.idForName(config.Name)
	}

	session, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *puzzleServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *puzzleServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *puzzleServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// Move slides one vehicle one cell
func (s *puzzleServiceImpl) Move(ctx context.Context, sessionID string, move MoveRequest, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	// a rejected request leaves the session untouched, reset included
	board := sess.Engine.Board()
	if reset {
		board = sess.Engine.InitialBoard()
	}
	m, err := ResolveMove(board, move)
	if err != nil {
		movesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	success := sess.Engine.Move(m.Vehicle, m.Direction)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   success,
		GameState: state,
		Message:   state.Message,
		Events:    events,
	}

	if success {
		movesTotal.WithLabelValues("success").Inc()
		result.Step = lastStep(sess.Engine, 1)
		result.Events = append(result.Events, moveEvents(result.Step, state)...)
	} else {
		movesTotal.WithLabelValues("blocked").Inc()
		if !board.IsSolved() {
			result.AttemptedTo = BlockedAttempt(board, m)
		}
	}

	s.persist(sessionID, "move")

	return result, nil
}

// BulkMove executes multiple moves in sequence
func (s *puzzleServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []MoveRequest, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	var events []GameEvent
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	result := s.runMoves(sess, moves, engine.MaxBulkMoves, events)

	s.persist(sessionID, "bulk moves")

	return result, nil
}

// runMoves applies moves to the session until one fails or the puzzle is
// solved. A positive limit truncates the list. Callers hold s.mu.
func (s *puzzleServiceImpl) runMoves(sess *Session, moves []MoveRequest, limit int, events []GameEvent) *BulkMoveResult {
	if events == nil {
		events = make([]GameEvent, 0)
	}
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         events,
		Success:        true,
	}

	if limit > 0 && len(moves) > limit {
		result.Truncated = true
		result.Limit = limit
		moves = moves[:limit]
	}

	for i, req := range moves {
		if sess.Engine.IsSolved() {
			result.StoppedReason = "puzzle solved"
			result.StopReasonCode = "solved"
			result.StoppedOnMove = i + 1
			break
		}

		board := sess.Engine.Board()
		m, err := ResolveMove(board, req)
		if err != nil {
			movesTotal.WithLabelValues("rejected").Inc()
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d invalid: %v", i+1, err)
			result.StopReasonCode = "invalid_move"
			result.StoppedOnMove = i + 1
			break
		}

		if !sess.Engine.Move(m.Vehicle, m.Direction) {
			movesTotal.WithLabelValues("blocked").Inc()
			attempt := BlockedAttempt(board, m)
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s %s", i+1, attempt.Label, attempt.Way)
			result.StopReasonCode = stopReasonCode(attempt)
			result.StoppedOnMove = i + 1
			result.AttemptedTo = attempt
			break
		}

		movesTotal.WithLabelValues("success").Inc()
		result.MovesExecuted++
		step := lastStep(sess.Engine, i+1)
		result.Steps = append(result.Steps, *step)
		result.Events = append(result.Events, moveEvents(step, sess.Engine.GetState())...)
	}

	state := sess.Engine.GetState()
	result.GameState = state
	result.Solved = state.Solved
	result.Message = state.Message
	result.Heuristic = state.Heuristic
	result.Blockers = state.Blockers
	result.PossibleMoves = sess.Engine.GetPossibleMoves()

	if result.Solved && result.StopReasonCode == "" {
		result.StopReasonCode = "solved"
	}

	return result
}

// Reset resets a puzzle session to its initial board
func (s *puzzleServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Engine.Reset()

	s.persist(sessionID, "reset")

	return state, nil
}

// GetGameState retrieves the current game state
func (s *puzzleServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *puzzleServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// currentBoard snapshots the session's board so searches run without the lock
func (s *puzzleServiceImpl) currentBoard(sessionID string) (*Session, engine.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, engine.Board{}, err
	}
	return sess, sess.Engine.Board(), nil
}

// Solve finds an optimal solution from the session's current board
func (s *puzzleServiceImpl) Solve(ctx context.Context, sessionID string) (*SolveResult, error) {
	sess, board, err := s.currentBoard(sessionID)
	if err != nil {
		return nil, err
	}

	sol, cached, err := s.solver.Solve(ctx, board)
	return solveResult(sess.ConfigID, board, sol, cached, err)
}

// Hint returns the first move of an optimal solution from the current board
func (s *puzzleServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	_, board, err := s.currentBoard(sessionID)
	if err != nil {
		return nil, err
	}

	if board.IsSolved() {
		return &HintResult{Solved: true, Message: "Puzzle already solved"}, nil
	}

	sol, _, err := s.solver.Solve(ctx, board)
	if errors.Is(err, engine.ErrUnsolvable) {
		return &HintResult{Message: "No solution from this position; reset to start over"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hint failed: %w", err)
	}

	step := solutionSteps(board, sol.Moves[:1])[0]
	return &HintResult{
		Move:      &step,
		Remaining: sol.Len(),
		Message:   fmt.Sprintf("Move %s %s (%d left)", step.Label, step.Way, sol.Len()),
	}, nil
}

// AutoSolve solves the current board and plays the whole solution
func (s *puzzleServiceImpl) AutoSolve(ctx context.Context, sessionID string) (*BulkMoveResult, error) {
	_, board, err := s.currentBoard(sessionID)
	if err != nil {
		return nil, err
	}

	sol, _, err := s.solver.Solve(ctx, board)
	if err != nil {
		return nil, fmt.Errorf("autosolve failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Engine.Board().Equal(board) {
		return nil, fmt.Errorf("session %s changed while solving, try again", sessionID)
	}

	moves := make([]MoveRequest, len(sol.Moves))
	for i, m := range sol.Moves {
		moves[i] = MoveRequest{Vehicle: strconv.Itoa(m.Vehicle), Direction: m.Direction.String()}
	}

	events := []GameEvent{{
		Type:      "autosolve",
		Message:   fmt.Sprintf("Playing %s", render.Summary(sol.Len())),
		Timestamp: time.Now(),
	}}
	result := s.runMoves(sess, moves, 0, events)

	s.persist(sessionID, "autosolve")

	return result, nil
}

// SolveConfig solves a stored puzzle from its initial board
func (s *puzzleServiceImpl) SolveConfig(ctx context.Context, configName string) (*SolveResult, error) {
	config, err := s.loadConfig(configName)
	if err != nil {
		return nil, err
	}

	board, err := config.Board()
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", configName, err)
	}

	sol, cached, err := s.solver.Solve(ctx, board)
	return solveResult(configName, board, sol, cached, err)
}

func solveResult(configName string, board engine.Board, sol *engine.Solution, cached bool, err error) (*SolveResult, error) {
	if errors.Is(err, engine.ErrUnsolvable) {
		return &SolveResult{
			ConfigName: configName,
			Moves:      []SolutionStep{},
			Summary:    "unsolvable",
			Cached:     cached,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("solve failed: %w", err)
	}

	return &SolveResult{
		ConfigName: configName,
		Solvable:   true,
		Length:     sol.Len(),
		Moves:      solutionSteps(board, sol.Moves),
		Summary:    render.Summary(sol.Len()),
		Explored:   sol.Explored,
		Generated:  sol.Generated,
		DurationMs: sol.Duration.Milliseconds(),
		Cached:     cached,
	}, nil
}

// ListConfigs returns available puzzle configurations
func (s *puzzleServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific puzzle configuration
func (s *puzzleServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.PuzzleConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a puzzle configuration to disk
func (s *puzzleServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.PuzzleConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// lastStep builds the step record for the engine's latest history entry
func lastStep(eng *engine.GameEngine, idx int) *StepInfo {
	last := eng.GetLastMove()
	return &StepInfo{
		Idx:       idx,
		Vehicle:   last.Vehicle,
		Label:     engine.Label(last.Vehicle),
		Direction: last.Direction,
		Way:       last.Action,
		From:      last.FromPosition,
		To:        last.ToPosition,
		Success:   last.Success,
		Solved:    eng.IsSolved(),
	}
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Puzzle reset to initial board",
		Timestamp: time.Now(),
	}
}

// moveEvents generates events from an executed step
func moveEvents(step *StepInfo, state *engine.GameState) []GameEvent {
	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s %s to %s", step.Label, step.Way, step.To),
		Timestamp: time.Now(),
		Position:  step.To,
	}}

	if step.Solved {
		events = append(events, GameEvent{
			Type:      "solved",
			Message:   state.Message,
			Timestamp: time.Now(),
		})
	}
	return events
}
