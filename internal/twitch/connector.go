package twitch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gempir/go-twitch-irc/v4"
	"github.com/rs/zerolog"

	"github.com/john/chatview/internal/comment"
	"github.com/john/chatview/internal/feed"
	"github.com/john/chatview/internal/logging"
)

// Site is the site name used for Twitch connections and users.
const Site = "twitch"

const emoteURL = "https://static-cdn.jtvnw.net/emoticons/v2/%s/default/dark/1.0"

// Connector manages Twitch chat connections
type Connector struct {
	username string
	oauth    string
	channels []string
	users    *comment.UserStore
	client   *twitch.Client
	logger   zerolog.Logger
}

// New creates a new Twitch connector. An empty username joins anonymously.
// Channel names are lowercased, matching what the IRC server reports.
func New(username, oauth string, channels []string, users *comment.UserStore) *Connector {
	lower := make([]string, len(channels))
	for i, ch := range channels {
		lower[i] = strings.ToLower(strings.TrimPrefix(ch, "#"))
	}

	return &Connector{
		username: username,
		oauth:    oauth,
		channels: lower,
		users:    users,
		logger:   logging.Component("twitch"),
	}
}

// Start begins listening to Twitch chat
func (c *Connector) Start(ctx context.Context, items chan<- feed.Item) error {
	if c.username == "" {
		c.client = twitch.NewAnonymousClient()
	} else {
		c.client = twitch.NewClient(c.username, c.oauth)
	}

	send := func(item feed.Item) {
		select {
		case items <- item:
		case <-ctx.Done():
		}
	}

	c.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		send(feed.Item{
			Site:    Site,
			Channel: strings.TrimPrefix(msg.Channel, "#"),
			Event:   c.convertMessage(msg),
		})
	})

	c.client.OnConnect(func() {
		c.logger.Info().Msg("connected to Twitch IRC")
		for _, channel := range c.channels {
			send(feed.Item{
				Site:    Site,
				Channel: channel,
				Event:   comment.ConnectedNotice{Message: comment.TextParts("Connected to #" + channel)},
			})
		}
	})

	c.client.OnReconnectMessage(func(msg twitch.ReconnectMessage) {
		c.logger.Info().Msg("reconnecting to Twitch IRC")
	})

	for _, channel := range c.channels {
		c.client.Join(channel)
		c.logger.Info().Str("channel", channel).Msg("joined channel")
	}

	go func() {
		if err := c.client.Connect(); err != nil && err != twitch.ErrClientDisconnected {
			c.logger.Error().Err(err).Msg("Twitch IRC connection error")
		}
	}()

	<-ctx.Done()

	c.logger.Info().Msg("disconnecting from Twitch IRC")
	if err := c.client.Disconnect(); err != nil {
		c.logger.Warn().Err(err).Msg("disconnect")
	}

	// Best effort: the feed may already be shutting down.
	for _, channel := range c.channels {
		select {
		case items <- feed.Item{
			Site:    Site,
			Channel: channel,
			Event:   comment.DisconnectedNotice{Message: comment.TextParts("Disconnected from #" + channel)},
		}:
		default:
		}
	}

	return ctx.Err()
}

// convertMessage turns a chat message into a comment, or a paid message
// when it carries bits.
func (c *Connector) convertMessage(msg twitch.PrivateMessage) comment.Event {
	name := msg.User.DisplayName
	if name == "" {
		name = msg.User.Name
	}

	var user *comment.User
	if c.users != nil {
		user = c.users.Get(Site, msg.User.ID)
	}

	parts := splitEmotes(msg.Message, msg.Emotes)

	if msg.Bits > 0 {
		return comment.PaidMessage{
			ID:       msg.ID,
			PostTime: msg.Time,
			Name:     comment.TextParts(name),
			Message:  parts,
			User:     user,
			Amount:   fmt.Sprintf("%d bits", msg.Bits),
		}
	}

	return comment.NewComment{
		ID:       msg.ID,
		PostTime: msg.Time,
		Name:     comment.TextParts(name),
		Message:  parts,
		User:     user,
	}
}

type emoteRange struct {
	start, end int
	id, name   string
}

// splitEmotes cuts text into text and emote image parts. Emote positions
// are inclusive rune offsets.
func splitEmotes(text string, emotes []*twitch.Emote) []comment.Part {
	var ranges []emoteRange
	for _, e := range emotes {
		if e == nil {
			continue
		}
		for _, p := range e.Positions {
			ranges = append(ranges, emoteRange{start: p.Start, end: p.End, id: e.ID, name: e.Name})
		}
	}
	if len(ranges) == 0 {
		return comment.TextParts(text)
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })

	runes := []rune(text)
	var parts []comment.Part
	pos := 0
	for _, r := range ranges {
		if r.start < pos || r.end >= len(runes) || r.start > r.end {
			continue
		}
		if r.start > pos {
			parts = append(parts, comment.Text{Value: string(runes[pos:r.start])})
		}
		parts = append(parts, comment.Image{
			URL: fmt.Sprintf(emoteURL, r.id),
			Alt: r.name,
		})
		pos = r.end + 1
	}
	if pos < len(runes) {
		parts = append(parts, comment.Text{Value: string(runes[pos:])})
	}
	return parts
}
