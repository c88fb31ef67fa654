package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

// Store persists the active session as a small JSON file so a chat picks up
// where the previous invocation left off.
type Store struct {
	path string
}

type sessionFile struct {
	ThreadID        cortex.ThreadID  `json:"thread_id"`
	ParentMessageID cortex.MessageID `json:"parent_message_id"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewStore creates a store writing to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted session. A missing file is an empty session, not
// an error.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Session{}, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &Session{ThreadID: f.ThreadID, ParentMessageID: f.ParentMessageID}, nil
}

// Save writes the session, creating the parent directory if needed.
// The write is atomic: temp file then rename.
func (s *Store) Save(session *Session) error {
	f := sessionFile{
		ThreadID:        session.ThreadID,
		ParentMessageID: session.ParentMessageID,
		UpdatedAt:       time.Now(),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp session: %w", err)
	}
	return nil
}

// Clear removes the persisted session. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
