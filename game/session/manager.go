package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/rushhour/game/engine"
	"github.com/wricardo/rushhour/game/service"
)

// maxIDAttempts bounds retries when a generated ID collides.
const maxIDAttempts = 16

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager holds live sessions in memory and mirrors them to an optional
// Store. IDs are case-insensitive and kept in lower case.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*service.Session
	store    Store
}

// NewManager creates a memory-only session manager
func NewManager() *Manager {
	return NewManagerWithStore(nil)
}

// NewManagerWithStore creates a session manager backed by store. Sessions
// missing from memory are loaded from store on first access.
func NewManagerWithStore(store Store) *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		store:    store,
	}
}

func key(id string) string {
	return strings.ToLower(id)
}

// Create starts a session on puzzle. An empty id gets a generated one;
// configID records which stored puzzle the session plays.
func (m *Manager) Create(id, configID string, puzzle *engine.PuzzleConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = newSessionID()
		for attempts := 0; m.taken(id) && attempts < maxIDAttempts; attempts++ {
			id = newSessionID()
		}
	} else if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	id = key(id)

	if m.taken(id) {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(puzzle)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	sess := &service.Session{
		ID:             id,
		ConfigID:       configID,
		Engine:         eng,
		Config:         puzzle,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[id] = sess

	if m.store != nil {
		if err := m.store.Save(sess); err != nil {
			log.Printf("Warning: Failed to persist session %s: %v", id, err)
		}
	}

	return sess, nil
}

// taken reports whether id is in use in memory or in the store. Callers
// hold m.mu.
func (m *Manager) taken(id string) bool {
	if _, ok := m.sessions[key(id)]; ok {
		return true
	}
	return m.store != nil && m.store.Exists(key(id))
}

// Get returns the session with id, loading it from the store when it is not
// in memory.
func (m *Manager) Get(id string) (*service.Session, error) {
	id = key(id)

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if m.store == nil || !m.store.Exists(id) {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.store.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have loaded it meanwhile
	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}
	m.sessions[id] = loaded
	return loaded, nil
}

// List returns every session in memory
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Delete removes a session from memory and from the store.
func (m *Manager) Delete(id string) error {
	id = key(id)

	m.mu.Lock()
	_, inMemory := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.store != nil && m.store.Exists(id) {
		if err := m.store.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// evict drops a session from memory only.
func (m *Manager) evict(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key(id)]; !ok {
		return false
	}
	delete(m.sessions, key(id))
	return true
}

// UpdateLastAccessed marks the session as used now. The new time reaches
// the store with the session's next Save or Flush.
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[key(id)]
	if !ok {
		return ErrSessionNotFound
	}
	sess.LastAccessedAt = time.Now()
	return nil
}

// Save writes one session to the store.
func (m *Manager) Save(id string) error {
	if m.store == nil {
		return nil
	}

	m.mu.RLock()
	sess, ok := m.sessions[key(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	return m.store.Save(sess)
}

// ExpireIdle drops sessions idle for longer than maxAge from memory and
// returns how many were dropped. Stored sessions stay on disk and come back
// on their next access.
func (m *Manager) ExpireIdle(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for k, sess := range m.sessions {
		if sess.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, k)
			removed++
		}
	}
	return removed
}

// PruneOrphaned drops in-memory sessions whose stored record has been
// removed and returns how many were dropped.
func (m *Manager) PruneOrphaned() int {
	if m.store == nil {
		return 0
	}

	pruned := 0
	for _, sess := range m.List() {
		if m.store.Exists(sess.ID) {
			continue
		}
		if m.evict(sess.ID) {
			pruned++
			log.Printf("Pruned session %s from memory (file deleted)", sess.ID)
		}
	}
	return pruned
}

// Count returns the number of sessions in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// newSessionID returns 4 random hex characters.
func newSessionID() string {
	b := make([]byte, 2)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// LoadAll reads every stored session into memory and returns how many were
// loaded. Records that cannot be rebuilt are logged and skipped.
func (m *Manager) LoadAll() (int, error) {
	if m.store == nil {
		return 0, nil
	}

	ids, err := m.store.IDs()
	if err != nil {
		return 0, fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loaded := 0
	for _, id := range ids {
		m.mu.RLock()
		_, ok := m.sessions[key(id)]
		m.mu.RUnlock()
		if ok {
			continue
		}

		sess, err := m.store.Load(id)
		if err != nil {
			log.Printf("Warning: Failed to load persisted session %s: %v", id, err)
			continue
		}

		m.mu.Lock()
		if _, ok := m.sessions[key(id)]; !ok {
			m.sessions[key(id)] = sess
			loaded++
		}
		m.mu.Unlock()
	}

	return loaded, nil
}

// Flush writes every in-memory session to the store.
func (m *Manager) Flush() error {
	if m.store == nil {
		return nil
	}

	var errs []error
	for _, sess := range m.List() {
		if err := m.store.Save(sess); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", sess.ID, err))
		}
	}
	return errors.Join(errs...)
}
