// Package store persists sessions as JSON files in a local directory,
// with recordings alongside under recordings/. The on-disk JSON uses
// the recorder's wire format, so a store directory and the backend API
// are interchangeable sources.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/voxtape/voxtape/internal/core"
	verrors "github.com/voxtape/voxtape/internal/errors"
)

// Store is a directory of <id>.json session files.
type Store struct {
	dir string
}

// Open creates the store directory if needed and returns a Store.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "recordings"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// List returns all sessions, newest first.
func (s *Store) List() ([]core.Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store dir: %w", err)
	}

	var sessions []core.Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		session, err := s.Get(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			// Skip unreadable files rather than failing the listing.
			continue
		}
		sessions = append(sessions, *session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Get reads one session by id.
func (s *Store) Get(id string) (*core.Session, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", verrors.ErrSessionNotFound, id)
		}
		return nil, err
	}

	var session core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	return &session, nil
}

// Put writes a session atomically, assigning an id if absent.
func (s *Store) Put(session *core.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := s.path(session.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// RecordingPath returns the expected path of a session's recording and
// whether it exists.
func (s *Store) RecordingPath(id string) (string, bool) {
	path := filepath.Join(s.dir, "recordings", id+".wav")
	_, err := os.Stat(path)
	return path, err == nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
