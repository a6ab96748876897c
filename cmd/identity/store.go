package identity

import "sync"

// Store is the in-memory credential store: an ordered list of records.
//
// Add does not enforce uniqueness. When a username appears more than once,
// GetUser returns the first record added. Loaders reject duplicates before
// records reach the store.
type Store struct {
	mu      sync.RWMutex
	users   []UserRecord
	version uint64
}

// NewStore returns a store holding a copy of records.
func NewStore(records ...UserRecord) *Store {
	s := &Store{}
	s.Replace(records)
	return s
}

// Add appends record.
func (s *Store) Add(record UserRecord) {
	s.mu.Lock()
	s.users = append(s.users, record)
	s.version++
	s.mu.Unlock()
}

// GetUser returns a copy of the first record whose username equals username exactly.
func (s *Store) GetUser(username string) (UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return UserRecord{}, false
}

// Clear removes every record.
func (s *Store) Clear() {
	s.mu.Lock()
	s.users = nil
	s.version++
	s.mu.Unlock()
}

// Replace swaps the whole contents for a copy of records.
func (s *Store) Replace(records []UserRecord) {
	cp := make([]UserRecord, len(records))
	copy(cp, records)

	s.mu.Lock()
	s.users = cp
	s.version++
	s.mu.Unlock()
}

// Len returns the number of records, duplicates included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Usernames returns every username in insertion order.
func (s *Store) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.users))
	for i, u := range s.users {
		out[i] = u.Username
	}
	return out
}

// PasswordHashes returns every stored hash and the store version they were read at.
func (s *Store) PasswordHashes() ([]string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.users))
	for i, u := range s.users {
		out[i] = u.PasswordHash
	}
	return out, s.version
}

// Version changes on every mutation. Callers caching derived data compare it.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
