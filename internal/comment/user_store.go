package comment

import (
	"strings"
	"sync"
)

// UserStore hands out one shared *User per site and user id so that a
// nickname change reaches every row showing that user.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*User
}

// NewUserStore creates an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*User)}
}

// Key builds the store key for a user on a site, e.g. "twitch:1234".
func Key(site, id string) string {
	return site + ":" + id
}

// Get returns the user for site and id, creating it on first use.
// An empty id yields nil.
func (s *UserStore) Get(site, id string) *User {
	if id == "" {
		return nil
	}

	key := Key(site, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[key]
	if !ok {
		u = NewUser(id)
		s.users[key] = u
	}
	return u
}

// ApplyNicknames sets the nicknames in m (keyed by Key) and clears the
// nickname of every known user missing from m.
func (s *UserStore) ApplyNicknames(m map[string]string) {
	s.mu.Lock()
	for key := range m {
		_, id, ok := strings.Cut(key, ":")
		if !ok || id == "" {
			continue
		}
		if _, exists := s.users[key]; !exists {
			s.users[key] = NewUser(id)
		}
	}
	users := make(map[string]*User, len(s.users))
	for k, u := range s.users {
		users[k] = u
	}
	s.mu.Unlock()

	for key, u := range users {
		u.SetNickname(m[key])
	}
}

// Forget drops the user for site and id if it has no nickname and nothing
// subscribed to it, and reports whether it was dropped. A later Get
// creates the user afresh.
func (s *UserStore) Forget(site, id string) bool {
	key := Key(site, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[key]
	if !ok || u.Nickname() != "" || u.changed.Len() > 0 {
		return false
	}
	delete(s.users, key)
	return true
}

// Len reports the number of known users.
func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
