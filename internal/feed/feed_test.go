package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john/chatview/internal/comment"
	"github.com/john/chatview/internal/display"
)

type recordingSink struct {
	added   []string
	removed []string
}

func (s *recordingSink) RowAdded(r *display.Row)   { s.added = append(s.added, r.ID()) }
func (s *recordingSink) RowRemoved(r *display.Row) { s.removed = append(s.removed, r.ID()) }

func staticLookup(site, channel string) (string, display.Style) {
	return channel, display.Style{Background: "#FFFFFF", Foreground: "#000000", FontSize: 14}
}

func commentItem(id string) Item {
	return Item{
		Site:    "twitch",
		Channel: "ludwig",
		Event:   comment.NewComment{ID: id, Message: comment.TextParts("hi")},
	}
}

func TestFeed_Add_notifies_sinks(t *testing.T) {
	sink := &recordingSink{}
	f := New(display.NewOptions(display.OptionsValues{}), staticLookup, 0, sink)

	row := f.Add(context.Background(), commentItem("a"))

	assert.Equal(t, "a", row.ID())
	assert.Equal(t, "ludwig", row.ConnectionLabel())
	assert.Equal(t, []string{"a"}, sink.added)
	assert.Equal(t, 1, f.Len())
}

func TestFeed_evicts_oldest_rows(t *testing.T) {
	sink := &recordingSink{}
	f := New(display.NewOptions(display.OptionsValues{}), staticLookup, 2, sink)
	ctx := context.Background()

	first := f.Add(ctx, commentItem("a"))
	f.Add(ctx, commentItem("b"))
	f.Add(ctx, commentItem("c"))

	assert.Equal(t, []string{"a"}, sink.removed)
	require.Len(t, f.Rows(), 2)
	assert.Equal(t, "b", f.Rows()[0].ID())

	// The evicted row no longer follows its metadata.
	var props []string
	first.Subscribe(func(p string) { props = append(props, p) })
	md, _ := f.Connection("twitch", "ludwig")
	md.SetFontSize(30)
	assert.Empty(t, props)
}

func TestFeed_rows_share_connection_state(t *testing.T) {
	f := New(display.NewOptions(display.OptionsValues{}), staticLookup, 0)
	ctx := context.Background()

	a := f.Add(ctx, commentItem("a"))
	b := f.Add(ctx, commentItem("b"))
	other := f.Add(ctx, Item{Site: "kick", Channel: "xqc", Event: comment.ConnectedNotice{}})

	md, conn := f.Connection("twitch", "ludwig")
	md.SetBackground("#222222")
	conn.SetName("Ludwig")

	assert.Equal(t, display.Color("#222222"), a.Background())
	assert.Equal(t, display.Color("#222222"), b.Background())
	assert.Equal(t, "Ludwig", b.ConnectionLabel())
	assert.Equal(t, display.Color("#FFFFFF"), other.Background())
	assert.Equal(t, "xqc", other.ConnectionLabel())
}

func TestFeed_Reconfigure_updates_live_rows(t *testing.T) {
	f := New(display.NewOptions(display.OptionsValues{}), staticLookup, 0)
	row := f.Add(context.Background(), commentItem("a"))

	var props []string
	row.Subscribe(func(p string) { props = append(props, p) })

	f.Reconfigure(func(site, channel string) (string, display.Style) {
		return "Ludwig", display.Style{Background: "#FFFFFF", Foreground: "#000000", FontSize: 18}
	})

	assert.Equal(t, "Ludwig", row.ConnectionLabel())
	assert.Equal(t, 18, row.FontSize())
	assert.ElementsMatch(t, []string{display.RowConnectionLabel, display.RowFontSize}, props)
}

func TestFeed_Run_closes_rows_on_shutdown(t *testing.T) {
	sink := &recordingSink{}
	f := New(display.NewOptions(display.OptionsValues{}), staticLookup, 0, sink)

	items := make(chan Item, 2)
	items <- commentItem("a")
	items <- commentItem("b")
	close(items)

	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background(), items) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	assert.Equal(t, []string{"a", "b"}, sink.added)
	assert.Equal(t, []string{"a", "b"}, sink.removed)
	assert.Zero(t, f.Len())
}

func TestFeed_Run_drains_queue_on_cancel(t *testing.T) {
	sink := &recordingSink{}
	f := New(display.NewOptions(display.OptionsValues{}), staticLookup, 0, sink)

	items := make(chan Item, 2)
	items <- commentItem("a")
	items <- Item{Site: "twitch", Channel: "ludwig", Event: comment.DisconnectedNotice{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Run(ctx, items)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sink.added, 2)
	assert.Len(t, sink.removed, 2)
}

func TestPruneUsers_forgets_users_no_longer_shown(t *testing.T) {
	users := comment.NewUserStore()
	f := New(display.NewOptions(display.OptionsValues{}), staticLookup, 1, PruneUsers(users))
	ctx := context.Background()

	withUser := func(id, userID string) Item {
		item := commentItem(id)
		item.Event = comment.NewComment{ID: id, User: users.Get("twitch", userID)}
		return item
	}

	f.Add(ctx, withUser("a", "1"))
	f.Add(ctx, withUser("b", "2"))
	assert.Equal(t, 1, users.Len(), "user 1 is gone with its only row")

	users.Get("twitch", "2").SetNickname("Bob")
	f.Add(ctx, withUser("c", "3"))
	assert.Equal(t, 2, users.Len(), "nicknamed users stay")
	assert.Equal(t, "Bob", users.Get("twitch", "2").Nickname())
}
