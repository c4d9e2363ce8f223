package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soverbye/dagbok/internal/digest"
)

// Storage keys. The live record and the committed snapshot are fixed and
// stable across sessions; each session additionally writes a copy under
// its own random identifier so concurrent sessions cannot clobber each
// other's fallback.
const (
	liveKey      = "draft"
	committedKey = "draft.committed"
	hashKey      = "draft.sha256"
	sessionDir   = "sessions/"
)

// ErrCorrupt is returned by Committed when the stored content no longer
// matches its stored digest.
var ErrCorrupt = errors.New("draft: committed snapshot digest mismatch")

// Record is the persisted live draft: the content plus the instant it was
// saved.
type Record struct {
	SavedAt string `json:"saved_at"`
	Content string `json:"content"`
}

// LocalStore persists drafts through an injected Storage.
//
// Two write paths exist on purpose: Save runs on every scheduler tick and
// writes a cheap timestamped record; SaveWithHash runs once at submission
// and writes the content next to its SHA-256 digest so later reads can
// verify integrity. Hashing on every tick would be wasted work.
type LocalStore struct {
	storage   Storage
	sessionID string
	now       func() time.Time
	logger    *slog.Logger
}

// NewLocalStore creates a LocalStore. sessionID namespaces the per-session
// fallback copy; it only needs to be unique for the session's lifetime.
func NewLocalStore(storage Storage, sessionID string, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{
		storage:   storage,
		sessionID: sessionID,
		now:       time.Now,
		logger:    logger,
	}
}

// Save writes the live draft record under the fixed key and the session
// key. The record timestamp is the current instant, RFC 3339.
func (s *LocalStore) Save(content string) error {
	rec := Record{
		SavedAt: s.now().UTC().Format(time.RFC3339),
		Content: content,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("draft: marshal record: %w", err)
	}
	if err := s.storage.Set(liveKey, string(data)); err != nil {
		return err
	}
	// Session copy is best-effort; the fixed key already holds the draft.
	if err := s.storage.Set(sessionDir+s.sessionID, string(data)); err != nil {
		s.logger.Warn("draft: session copy failed", "error", err)
	}
	return nil
}

// SaveWithHash writes the committed snapshot: the raw content under one
// fixed key and its lowercase hex SHA-256 under another. The digest is
// computed over the exact bytes written.
func (s *LocalStore) SaveWithHash(content string) error {
	if err := s.storage.Set(hashKey, digest.Hex(content)); err != nil {
		return err
	}
	if err := s.storage.Set(committedKey, content); err != nil {
		return err
	}
	return nil
}

// Load returns the live draft record, if any. Callers seed the editor with
// it in preference to an empty document.
func (s *LocalStore) Load() (*Record, error) {
	data, err := s.storage.Get(liveKey)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("draft: decode record: %w", err)
	}
	return &rec, nil
}

// Committed returns the committed snapshot after recomputing its digest
// over the stored bytes. A mismatch returns ErrCorrupt.
func (s *LocalStore) Committed() (string, error) {
	content, err := s.storage.Get(committedKey)
	if err != nil {
		return "", err
	}
	want, err := s.storage.Get(hashKey)
	if err != nil {
		return "", err
	}
	if !digest.Matches(content, want) {
		return "", ErrCorrupt
	}
	return content, nil
}

// Clear removes the live record and the session copy. Called after a
// successful submission so the next session starts fresh. The committed
// snapshot is kept.
func (s *LocalStore) Clear() error {
	if err := s.storage.Delete(liveKey); err != nil {
		return err
	}
	return s.storage.Delete(sessionDir + s.sessionID)
}
