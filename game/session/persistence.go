package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/rushhour/game/engine"
	"github.com/wricardo/rushhour/game/service"
)

// Store persists sessions outside the process.
type Store interface {
	Save(session *service.Session) error
	Load(id string) (*service.Session, error)
	Delete(id string) error
	// IDs lists every stored session.
	IDs() ([]string, error)
	Exists(id string) bool
}

// ConfigLoader resolves a stored config ID to its current puzzle.
type ConfigLoader interface {
	LoadConfig(name string) (*engine.PuzzleConfig, error)
}

// Record is the stored form of a session. The board is not stored: it is
// rebuilt by replaying Current from the puzzle's starting position. Puzzle
// is a snapshot of the config the session was created from.
type Record struct {
	ID             string                    `json:"id"`
	ConfigID       string                    `json:"config_id"`
	CreatedAt      time.Time                 `json:"created_at"`
	LastAccessedAt time.Time                 `json:"last_accessed_at"`
	Puzzle         *engine.PuzzleConfig      `json:"puzzle"`
	History        []engine.MoveHistoryEntry `json:"history"`
	Current        []engine.MoveHistoryEntry `json:"current"`
}

// NewRecord captures session for storage.
func NewRecord(s *service.Session) *Record {
	state := s.Engine.GetState()
	return &Record{
		ID:             s.ID,
		ConfigID:       s.ConfigID,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
		Puzzle:         s.Config,
		History:        state.MoveHistory,
		Current:        state.CurrentMoves,
	}
}

// Session rebuilds a live session on puzzle, replaying the stored moves.
func (r *Record) Session(puzzle *engine.PuzzleConfig) (*service.Session, error) {
	if puzzle == nil {
		return nil, fmt.Errorf("session %s: no puzzle", r.ID)
	}

	eng, err := engine.NewEngine(puzzle)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}
	if err := eng.Restore(r.History, r.Current); err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}

	return &service.Session{
		ID:             r.ID,
		ConfigID:       r.ConfigID,
		Engine:         eng,
		Config:         puzzle,
		CreatedAt:      r.CreatedAt,
		LastAccessedAt: r.LastAccessedAt,
	}, nil
}

// validID rejects IDs that cannot safely name a file.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.HasPrefix(id, ".")
}
