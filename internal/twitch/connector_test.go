package twitch

import (
	"testing"
	"time"

	"github.com/gempir/go-twitch-irc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john/chatview/internal/comment"
)

func TestSplitEmotes(t *testing.T) {
	emotes := []*twitch.Emote{
		{Name: "Kappa", ID: "25", Positions: []twitch.EmotePosition{{Start: 6, End: 10}}},
	}

	parts := splitEmotes("hello Kappa world", emotes)

	require.Len(t, parts, 3)
	assert.Equal(t, comment.Text{Value: "hello "}, parts[0])
	assert.Equal(t, comment.Image{URL: "https://static-cdn.jtvnw.net/emoticons/v2/25/default/dark/1.0", Alt: "Kappa"}, parts[1])
	assert.Equal(t, comment.Text{Value: " world"}, parts[2])
	assert.Equal(t, "hello Kappa world", comment.PlainText(parts))
}

func TestSplitEmotes_orders_and_skips_bad_ranges(t *testing.T) {
	emotes := []*twitch.Emote{
		{Name: "B", ID: "2", Positions: []twitch.EmotePosition{{Start: 2, End: 2}}},
		{Name: "A", ID: "1", Positions: []twitch.EmotePosition{{Start: 0, End: 0}, {Start: 40, End: 45}}},
		nil,
	}

	parts := splitEmotes("A B", emotes)

	require.Len(t, parts, 3)
	assert.Equal(t, "A", parts[0].(comment.Image).Alt)
	assert.Equal(t, comment.Text{Value: " "}, parts[1])
	assert.Equal(t, "B", parts[2].(comment.Image).Alt)
}

func TestSplitEmotes_without_emotes(t *testing.T) {
	assert.Equal(t, comment.TextParts("plain"), splitEmotes("plain", nil))
}

func TestConvertMessage(t *testing.T) {
	users := comment.NewUserStore()
	c := New("", "", []string{"ludwig"}, users)
	sent := time.Date(2025, 12, 30, 10, 30, 0, 0, time.UTC)

	msg := twitch.PrivateMessage{
		User:    twitch.User{ID: "1234", Name: "viewer", DisplayName: "Viewer"},
		Message: "hello",
		Channel: "ludwig",
		ID:      "msg-1",
		Time:    sent,
	}

	event := c.convertMessage(msg)

	nc, ok := event.(comment.NewComment)
	require.True(t, ok)
	assert.Equal(t, "msg-1", nc.ID)
	assert.Equal(t, sent, nc.PostTime)
	assert.Equal(t, "Viewer", comment.PlainText(nc.Name))
	assert.Same(t, users.Get(Site, "1234"), nc.User)
}

func TestConvertMessage_bits_become_paid(t *testing.T) {
	c := New("", "", nil, comment.NewUserStore())

	event := c.convertMessage(twitch.PrivateMessage{
		User:    twitch.User{ID: "1", Name: "cheerer"},
		Message: "cheer100 gg",
		ID:      "msg-2",
		Bits:    100,
	})

	paid, ok := event.(comment.PaidMessage)
	require.True(t, ok)
	assert.Equal(t, "100 bits", paid.Amount)
	assert.Equal(t, "cheerer", comment.PlainText(paid.Name))
}

func TestNew_lowercases_channels(t *testing.T) {
	c := New("", "", []string{"Ludwig", "#XQC"}, nil)

	assert.Equal(t, []string{"ludwig", "xqc"}, c.channels)
}
