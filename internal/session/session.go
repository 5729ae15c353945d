// Package session tracks which owner the current caller acts for.
package session

import (
	"errors"
	"sync"

	"kassabok/internal/core"
)

// ErrNoOwner is returned when an owner-scoped operation runs without a
// logged-in owner.
var ErrNoOwner = errors.New("no owner logged in")

// Source yields the owner that scopes relational operations.
type Source interface {
	Current() (core.OwnerID, bool)
}

// Session holds the logged-in owner. It is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	owner core.Owner
	set   bool
}

func New() *Session {
	return &Session{}
}

// Login makes o the current owner, replacing any previous one.
func (s *Session) Login(o core.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = o
	s.set = true
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = core.Owner{}
	s.set = false
}

func (s *Session) Current() (core.OwnerID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner.ID, s.set
}

// Username returns the current owner's name, or "" when logged out.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner.Username
}

// Require returns the current owner or ErrNoOwner.
func Require(src Source) (core.OwnerID, error) {
	if src == nil {
		return 0, ErrNoOwner
	}
	id, ok := src.Current()
	if !ok {
		return 0, ErrNoOwner
	}
	return id, nil
}

// Fixed is a Source permanently bound to one owner.
type Fixed core.OwnerID

func (f Fixed) Current() (core.OwnerID, bool) { return core.OwnerID(f), true }

// None is a Source with no owner.
var None Source = noOwner{}

type noOwner struct{}

func (noOwner) Current() (core.OwnerID, bool) { return 0, false }
