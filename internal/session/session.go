// Package session tracks each buyer's in-progress intake conversation.
package session

import (
	"sync"
	"time"

	"github.com/vendorlink/vendorlink/internal/match"
)

// State is the position of a session in the intake dialogue.
type State int

// Dialogue states, in turn order.
const (
	StateProductName State = iota
	StateCategory
	StateQuantity
	StatePincode
	StateProximity
	StateEnd
)

// Session is one buyer's dialogue state. The mutex serializes turns for the
// same buyer; different buyers never contend.
type Session struct {
	mu sync.Mutex

	Buyer     string
	State     State
	Draft     match.Request
	CreatedAt time.Time
	LastSeen  time.Time
}

// Lock serializes turn handling for this session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records activity for idle eviction.
func (s *Session) Touch() { s.LastSeen = time.Now() }

// Reset clears the draft and restarts the dialogue, keeping the session alive.
func (s *Session) Reset() {
	s.Draft = match.Request{}
	s.State = StateProductName
}

// Store is a concurrent map of buyer address to Session. Exactly one session
// exists per buyer at any time.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: map[string]*Session{},
	}
}

// Get returns the buyer's session if one exists.
func (st *Store) Get(buyer string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[buyer]
	return s, ok
}

// GetOrCreate returns the buyer's session, creating a fresh one if absent.
// The second result reports whether the session was created.
func (st *Store) GetOrCreate(buyer string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[buyer]; ok {
		return s, false
	}
	now := time.Now()
	s := &Session{
		Buyer:     buyer,
		State:     StateProductName,
		CreatedAt: now,
		LastSeen:  now,
	}
	st.sessions[buyer] = s
	return s, true
}

// Replace discards any existing session for the buyer and installs a fresh one.
func (st *Store) Replace(buyer string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	s := &Session{
		Buyer:     buyer,
		State:     StateProductName,
		CreatedAt: now,
		LastSeen:  now,
	}
	st.sessions[buyer] = s
	return s
}

// Delete destroys the buyer's session.
func (st *Store) Delete(buyer string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, buyer)
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle longer than maxIdle and reports how many went.
func (st *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for buyer, s := range st.sessions {
		if s.LastSeen.Before(cutoff) {
			delete(st.sessions, buyer)
			removed++
		}
	}
	return removed
}
