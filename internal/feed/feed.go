// Package feed turns incoming chat events into display rows and keeps the
// bounded list of rows currently on screen.
package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/john/chatview/internal/comment"
	"github.com/john/chatview/internal/display"
	"github.com/john/chatview/internal/logging"
)

// Item is an event tagged with the connection that produced it.
type Item struct {
	Site    string
	Channel string
	Event   comment.Event
}

// Sink is told about rows as they enter and leave the feed.
type Sink interface {
	RowAdded(r *display.Row)
	RowRemoved(r *display.Row)
}

// ConnectionConfig supplies the initial label and style for a connection.
type ConnectionConfig func(site, channel string) (label string, style display.Style)

type connection struct {
	site     string
	channel  string
	metadata *display.Metadata
	conn     *display.Connection
}

// Feed owns the displayed rows. Rows are created, added and evicted on the
// goroutine running Run.
type Feed struct {
	options *display.Options
	lookup  ConnectionConfig
	maxRows int
	sinks   []Sink
	logger  zerolog.Logger

	mu          sync.RWMutex
	rows        []*display.Row
	connections map[string]*connection
}

// New creates a feed holding at most maxRows rows; zero means unbounded.
func New(options *display.Options, lookup ConnectionConfig, maxRows int, sinks ...Sink) *Feed {
	return &Feed{
		options:     options,
		lookup:      lookup,
		maxRows:     maxRows,
		sinks:       sinks,
		logger:      logging.Component("feed"),
		connections: make(map[string]*connection),
	}
}

// Run consumes items until ctx is cancelled or items is closed. Items
// already queued at cancellation are still added. On return every
// remaining row is removed and closed.
func (f *Feed) Run(ctx context.Context, items <-chan Item) error {
	defer f.clear()

	for {
		select {
		case item, ok := <-items:
			if !ok {
				return nil
			}
			f.Add(ctx, item)

		case <-ctx.Done():
			f.drain(items)
			return ctx.Err()
		}
	}
}

// drain adds items that were queued before shutdown, such as disconnect
// notices.
func (f *Feed) drain(items <-chan Item) {
	for {
		select {
		case item, ok := <-items:
			if !ok {
				return
			}
			f.Add(context.Background(), item)
		default:
			return
		}
	}
}

// Add builds a row for item, runs its post-add hook and hands it to the sinks.
func (f *Feed) Add(ctx context.Context, item Item) *display.Row {
	c := f.connection(item.Site, item.Channel)
	row := display.NewRow(item.Event, c.metadata, c.conn, f.options)

	var evicted []*display.Row

	f.mu.Lock()
	f.rows = append(f.rows, row)
	if f.maxRows > 0 && len(f.rows) > f.maxRows {
		n := len(f.rows) - f.maxRows
		evicted = append(evicted, f.rows[:n]...)
		f.rows = append([]*display.Row(nil), f.rows[n:]...)
	}
	f.mu.Unlock()

	if err := row.AfterAdded(ctx); err != nil {
		f.logger.Warn().Err(err).Str("id", row.ID()).Msg("post-add hook failed")
	}

	for _, s := range f.sinks {
		s.RowAdded(row)
	}

	for _, old := range evicted {
		f.remove(old)
	}

	f.logger.Debug().
		Str("site", item.Site).
		Str("channel", item.Channel).
		Stringer("kind", row.Kind()).
		Str("id", row.ID()).
		Msg("row added")

	return row
}

// remove closes r before telling the sinks, so a sink sees the row already
// detached from its user and styling.
func (f *Feed) remove(r *display.Row) {
	r.Close()
	for _, s := range f.sinks {
		s.RowRemoved(r)
	}
}

func (f *Feed) clear() {
	f.mu.Lock()
	rows := f.rows
	f.rows = nil
	f.mu.Unlock()

	for _, r := range rows {
		f.remove(r)
	}
}

// Connection returns the shared metadata and identity of a site channel,
// creating them from the connection config on first use.
func (f *Feed) Connection(site, channel string) (*display.Metadata, *display.Connection) {
	c := f.connection(site, channel)
	return c.metadata, c.conn
}

func (f *Feed) connection(site, channel string) *connection {
	key := site + ":" + channel

	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.connections[key]
	if !ok {
		label, style := f.lookup(site, channel)
		c = &connection{
			site:     site,
			channel:  channel,
			metadata: display.NewMetadata(style),
			conn:     display.NewConnection(site, channel, label),
		}
		f.connections[key] = c
	}
	return c
}

// Reconfigure re-applies the connection config to every known connection,
// raising change notifications on the rows that use them.
func (f *Feed) Reconfigure(lookup ConnectionConfig) {
	f.mu.Lock()
	f.lookup = lookup
	conns := make([]*connection, 0, len(f.connections))
	for _, c := range f.connections {
		conns = append(conns, c)
	}
	f.mu.Unlock()

	for _, c := range conns {
		label, style := lookup(c.site, c.channel)
		c.conn.SetName(label)
		c.metadata.Apply(style)
	}
}

// Rows returns the rows currently displayed, oldest first.
func (f *Feed) Rows() []*display.Row {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*display.Row(nil), f.rows...)
}

// Len reports the number of rows currently displayed.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rows)
}

// userPruner drops users from the store once no displayed row refers to them.
type userPruner struct {
	users *comment.UserStore
}

// PruneUsers returns a sink that forgets a removed row's user unless it has
// a nickname or is still shown by another row.
func PruneUsers(users *comment.UserStore) Sink {
	return userPruner{users: users}
}

func (userPruner) RowAdded(*display.Row) {}

func (p userPruner) RowRemoved(r *display.Row) {
	if id := r.UserID(); id != "" {
		p.users.Forget(r.Site(), id)
	}
}
