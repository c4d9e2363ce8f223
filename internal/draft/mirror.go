// Package draft implements the draft durability protocol for diary entries:
// in-progress text is mirrored from the editor, persisted locally on a
// fixed interval, pushed to the server draft endpoint when it changed, and
// committed with an integrity digest at submission time.
//
// All state lives on a Session constructed once per editing session; the
// storage capability, HTTP client, and editor are injected so every piece
// is independently testable.
package draft

import "sync"

// Mirror holds the latest known plain-text value of the document.
// It is a pass-through of whatever the editor holds: no validation, no
// history. Reads before the first change notification return the seed.
type Mirror struct {
	mu   sync.RWMutex
	text string
}

// NewMirror creates a Mirror holding the initial seed value.
func NewMirror(seed string) *Mirror {
	return &Mirror{text: seed}
}

// Set records a new document value. Called on every editor change
// notification, in mutation order.
func (m *Mirror) Set(text string) {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
}

// Text returns the document as of the last change notification.
func (m *Mirror) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text
}
