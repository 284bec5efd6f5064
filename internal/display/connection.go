package display

import (
	"sync"

	"github.com/john/chatview/internal/observe"
)

// PropName is raised by Connection when its display name changes.
const PropName = "Name"

// Connection identifies the site connection that produced a row.
type Connection struct {
	site    string
	channel string

	mu   sync.RWMutex
	name string

	changed observe.Notifier
}

// NewConnection creates a connection to channel on site (e.g. "twitch")
// labelled name.
func NewConnection(site, channel, name string) *Connection {
	return &Connection{site: site, channel: channel, name: name}
}

// Site returns the platform the connection belongs to.
func (c *Connection) Site() string { return c.site }

// Channel returns the channel the connection reads from.
func (c *Connection) Channel() string { return c.channel }

// Name returns the display label.
func (c *Connection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetName relabels the connection.
func (c *Connection) SetName(name string) {
	c.mu.Lock()
	if c.name == name {
		c.mu.Unlock()
		return
	}
	c.name = name
	c.mu.Unlock()

	c.changed.Raise(PropName)
}

// Subscribe registers fn for property changes and returns its unsubscribe func.
func (c *Connection) Subscribe(fn observe.Handler) func() {
	return c.changed.Subscribe(fn)
}
