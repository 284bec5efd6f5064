package comment

import (
	"sync"

	"github.com/john/chatview/internal/observe"
)

// PropNickname is raised by User when its nickname changes.
const PropNickname = "Nickname"

// User is a chat participant. The nickname is a locally assigned alias
// and may change while rows referring to the user are displayed.
type User struct {
	id string

	mu       sync.RWMutex
	nickname string

	changed observe.Notifier
}

// NewUser creates a user with the platform-specific id.
func NewUser(id string) *User {
	return &User{id: id}
}

// ID returns the platform-specific user id.
func (u *User) ID() string { return u.id }

// Nickname returns the local alias, or "" when none is set.
func (u *User) Nickname() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nickname
}

// SetNickname changes the alias. Subscribers are notified only when the
// value actually changes.
func (u *User) SetNickname(nickname string) {
	u.mu.Lock()
	if u.nickname == nickname {
		u.mu.Unlock()
		return
	}
	u.nickname = nickname
	u.mu.Unlock()

	u.changed.Raise(PropNickname)
}

// Subscribe registers fn for property changes and returns its unsubscribe func.
func (u *User) Subscribe(fn observe.Handler) func() {
	return u.changed.Subscribe(fn)
}
