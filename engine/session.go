// Package engine holds the runtime's stateful core: the session, the typed
// event bus, and the task-completion orchestrator.
package engine

import (
	"errors"
	"sync"
)

// ErrNotConnected is returned by operations that require a connected wallet.
var ErrNotConnected = errors.New("wallet not connected")

// Flags are feature toggles loaded once after the wallet connects.
type Flags struct {
	PresaleOnly bool
}

// Session is the explicit per-process session state. Identity is set only by
// the wallet connect path and cleared on disconnect; the consumed allowance
// is monotonically non-decreasing and resets only with the process.
type Session struct {
	mu       sync.RWMutex
	address  string
	consumed float64
	flags    Flags
	flagsSet bool
	inviter  string
}

// NewSession creates an empty session. The inviter address, when present,
// is captured once at startup (the ?ref= analogue).
func NewSession(inviter string) *Session {
	return &Session{inviter: inviter}
}

// Connect records the account identity.
func (s *Session) Connect(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
}

// Disconnect clears the identity and the loaded flags. The consumed allowance
// deliberately survives: it only resets with the process.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = ""
	s.flags = Flags{}
	s.flagsSet = false
}

// Address returns the connected wallet address, if any.
func (s *Session) Address() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address, s.address != ""
}

// SetFlags loads feature flags. Only the first call after a connect takes
// effect; flags are loaded once per connection.
func (s *Session) SetFlags(f Flags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flagsSet {
		return
	}
	s.flags = f
	s.flagsSet = true
}

// GetFlags returns the loaded feature flags.
func (s *Session) GetFlags() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// ConsumeAllowance adds amount to the consumed counter. The counter never
// decreases; negative amounts are ignored.
func (s *Session) ConsumeAllowance(amount float64) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumed += amount
}

// Consumed returns the total allowance consumed this session.
func (s *Session) Consumed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consumed
}

// Inviter returns the inviter address captured at startup, if any.
func (s *Session) Inviter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inviter
}
