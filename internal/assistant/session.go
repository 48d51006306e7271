package assistant

import (
	"sync"

	"github.com/google/uuid"
)

// SessionHolder owns the conversation identity for one live engine
// instance. The token is client-generated on first use and overwritten by
// whatever the backend returns; last write wins. Not persisted across
// process restarts.
type SessionHolder struct {
	mu sync.Mutex
	id string
}

// Current returns the session token, generating one on first use.
func (h *SessionHolder) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.id == "" {
		h.id = uuid.NewString()
	}
	return h.id
}

// Adopt replaces the token with a server-issued value. Empty tokens are
// ignored; the holder never fails.
func (h *SessionHolder) Adopt(token string) {
	if token == "" {
		return
	}
	h.mu.Lock()
	h.id = token
	h.mu.Unlock()
}
