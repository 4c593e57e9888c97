package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/rushhour/game/service"
)

const recordExt = ".json"

// FileStore keeps one JSON record per session in a directory.
type FileStore struct {
	dir     string
	configs ConfigLoader
}

// NewFileStore creates dir if needed. configs may be nil, in which case
// sessions are always rebuilt from their puzzle snapshot.
func NewFileStore(dir string, configs ConfigLoader) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FileStore{dir: dir, configs: configs}, nil
}

// Save writes the session's record, replacing any previous one atomically.
func (s *FileStore) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if !validID(session.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, session.ID)
	}

	data, err := json.MarshalIndent(NewRecord(session), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+session.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write session %s: %w", session.ID, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session %s: %w", session.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session %s: %w", session.ID, err)
	}
	return os.Rename(tmp.Name(), s.path(session.ID))
}

// Load rebuilds a session from its record. The named config is tried first
// so that a session follows its puzzle file; when that config is gone or no
// longer accepts the stored moves, the snapshot is used instead.
func (s *FileStore) Load(id string) (*service.Session, error) {
	rec, err := s.read(id)
	if err != nil {
		return nil, err
	}

	if s.configs != nil && rec.ConfigID != "" {
		puzzle, err := s.configs.LoadConfig(rec.ConfigID)
		if err == nil {
			sess, replayErr := rec.Session(puzzle)
			if replayErr == nil {
				return sess, nil
			}
			err = replayErr
		}
		if rec.Puzzle == nil {
			return nil, fmt.Errorf("failed to load config '%s': %w", rec.ConfigID, err)
		}
		log.Printf("Warning: config '%s' unusable for session %s, using stored snapshot: %v", rec.ConfigID, id, err)
	}

	return rec.Session(rec.Puzzle)
}

func (s *FileStore) read(id string) (*Record, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return &rec, nil
}

// Delete removes a session's record.
func (s *FileStore) Delete(id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrSessionNotFound
	}
	return err
}

// IDs returns the ID of every record in the directory.
func (s *FileStore) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != recordExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordExt))
	}
	return ids, nil
}

// Exists reports whether a record is stored for id.
func (s *FileStore) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	_, err := os.Stat(s.path(id))
	return err == nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}
