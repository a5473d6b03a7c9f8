package tabsession

import (
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
)

// Status tracks a handle through its lifecycle:
// creating → active → messaging → closing → closed.
// Any non-terminal status may jump straight to closing on error or timeout;
// closed is terminal and non-reentrant.
type Status string

const (
	StatusCreating  Status = "creating"
	StatusActive    Status = "active"
	StatusMessaging Status = "messaging"
	StatusClosing   Status = "closing"
	StatusClosed    Status = "closed"
)

// Handle identifies one ephemeral rendering context. Owned exclusively by
// the controller for the duration of one fetch; never shared across
// concurrent fetches.
type Handle struct {
	ID        target.ID
	URL       string
	CreatedAt time.Time

	// owned is false for handles borrowed from an already-open tab, which
	// Destroy must never close.
	owned bool

	mu     sync.Mutex
	status Status
}

func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// advance moves the handle to next unless it is already closed.
// Returns false when the handle was terminal.
func (h *Handle) advance(next Status) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status == StatusClosed {
		return false
	}
	h.status = next
	return true
}
