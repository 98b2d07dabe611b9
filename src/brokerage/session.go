package brokerage

import (
	"sync"
	"time"
)

type Credentials struct {
	AccountID string
	Token     string
}

// Session is an authenticated brokerage login.
type Session struct {
	AccountID       string    `json:"account_id"`
	ProfileID       string    `json:"profile_id"`
	ProfileName     string    `json:"profile_name"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
	token           string
}

// sessionHolder guards the current session of a gateway.
type sessionHolder struct {
	mu      sync.RWMutex
	session *Session
}

func (h *sessionHolder) get() (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.session == nil {
		return nil, false
	}

	s := *h.session
	return &s, true
}

func (h *sessionHolder) set(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session = s
}

func (h *sessionHolder) clear() {
	h.set(nil)
}
