package farmengine

import (
	"sync"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
)

// Snapshot is a copy of the cached reads for one farm.
type Snapshot struct {
	Quote    farm.Loadable[farm.Quote]
	FarmInfo farm.Loadable[farm.FarmInfo]
	User     farm.Loadable[farm.UserFarmInfo]
}

// FarmState holds the latest read results and per-action status for a farm.
// Reads are replaced wholesale, never edited in place.
type FarmState struct {
	mu       sync.RWMutex
	snap     Snapshot
	statuses map[farm.ActionKind]ActionStatus
}

func newFarmState() *FarmState {
	return &FarmState{statuses: make(map[farm.ActionKind]ActionStatus)}
}

// Snapshot returns a copy safe to read without the lock.
func (s *FarmState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *FarmState) setQuote(q *farm.Quote) {
	s.mu.Lock()
	s.snap.Quote = farm.Loaded(*q)
	s.mu.Unlock()
}

func (s *FarmState) setFarmInfo(fi *farm.FarmInfo) {
	s.mu.Lock()
	s.snap.FarmInfo = farm.Loaded(*fi)
	s.mu.Unlock()
}

func (s *FarmState) setUser(u *farm.UserFarmInfo) {
	s.mu.Lock()
	s.snap.User = farm.Loaded(*u)
	s.mu.Unlock()
}

// ClearUser drops the user position, e.g. on wallet disconnect.
func (s *FarmState) ClearUser() {
	s.mu.Lock()
	s.snap.User = farm.Unloaded[farm.UserFarmInfo]()
	s.mu.Unlock()
}

// Status returns the lifecycle state of kind; unknown kinds are idle.
func (s *FarmState) Status(kind farm.ActionKind) ActionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.statuses[kind]; ok {
		return st
	}
	return StatusIdle
}

func (s *FarmState) setStatus(kind farm.ActionKind, st ActionStatus) {
	s.mu.Lock()
	s.statuses[kind] = st
	s.mu.Unlock()
}
