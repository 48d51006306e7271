package assistant

import (
	"sync"
)

// ConfirmationState tracks whether the assistant's last reply expects an
// explicit yes/no follow-up before a side-effecting action proceeds.
//
// The state is advisory: the backend decides what a reply means. It is
// reset at the start of every submission and re-asserted only when the
// new response carries the flag again.
type ConfirmationState struct {
	mu       sync.RWMutex
	awaiting bool
}

// Awaiting reports whether the assistant is blocked on a confirmation.
func (c *ConfirmationState) Awaiting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.awaiting
}

// Set updates the state from a completed response's flag.
func (c *ConfirmationState) Set(awaiting bool) {
	c.mu.Lock()
	c.awaiting = awaiting
	c.mu.Unlock()
}
