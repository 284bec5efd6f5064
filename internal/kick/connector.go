// Package kick reads Kick chatrooms over the Pusher websocket and turns
// their messages into comment events.
package kick

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	kickchat "github.com/johanvandegriff/kick-chat-wrapper"
	"github.com/rs/zerolog"

	"github.com/john/chatview/internal/comment"
	"github.com/john/chatview/internal/feed"
	"github.com/john/chatview/internal/logging"
)

// Site is the site name used for Kick connections and users.
const Site = "kick"

// Channel is a channel to join. A zero ChatroomID is resolved through the
// channel API on start.
type Channel struct {
	Slug       string
	ChatroomID int
}

// Connector joins a set of Kick chatrooms.
type Connector struct {
	channels []Channel
	rooms    map[int]string // chatroom id -> slug
	users    *comment.UserStore
	logger   zerolog.Logger
}

// New creates a connector for channels. users may be nil.
func New(channels []Channel, users *comment.UserStore) *Connector {
	return &Connector{
		channels: channels,
		rooms:    make(map[int]string),
		users:    users,
		logger:   logging.Component("kick"),
	}
}

// resolve fills rooms, skipping channels whose chatroom cannot be found.
func (c *Connector) resolve(ctx context.Context) {
	for _, ch := range c.channels {
		if ch.ChatroomID == 0 {
			info, err := ResolveChannel(ctx, ch.Slug)
			if err != nil {
				c.logger.Warn().Err(err).Str("channel", ch.Slug).Msg("skipping unresolved channel")
				continue
			}
			ch = Channel{Slug: info.Slug, ChatroomID: info.Chatroom.ID}
		}
		c.rooms[ch.ChatroomID] = ch.Slug
	}
}

// Start joins the chatrooms and forwards their messages to items until
// ctx is cancelled.
func (c *Connector) Start(ctx context.Context, items chan<- feed.Item) error {
	c.resolve(ctx)
	if len(c.rooms) == 0 {
		return errors.New("no Kick channels could be resolved")
	}

	client, err := kickchat.NewClient()
	if err != nil {
		return err
	}
	defer client.Close()

	send := func(item feed.Item) bool {
		select {
		case items <- item:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var joined []string
	for id, slug := range c.rooms {
		if err := client.JoinChannelByID(id); err != nil {
			c.logger.Warn().Err(err).Str("channel", slug).Int("chatroom_id", id).Msg("join failed")
			continue
		}
		c.logger.Info().Str("channel", slug).Int("chatroom_id", id).Msg("joined chatroom")
		joined = append(joined, slug)
		send(notice(slug, comment.ConnectedNotice{Message: comment.TextParts("Connected to " + slug)}))
	}

	messages := client.ListenForMessages()
	go func() {
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					c.logger.Info().Msg("message stream closed")
					return
				}
				if item, ok := c.convertMessage(msg); ok && !send(item) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	c.logger.Info().Msg("leaving Kick chatrooms")

	// Best effort: the feed may already be shutting down.
	for _, slug := range joined {
		select {
		case items <- notice(slug, comment.DisconnectedNotice{Message: comment.TextParts("Disconnected from " + slug)}):
		default:
		}
	}

	return ctx.Err()
}

func notice(slug string, e comment.Event) feed.Item {
	return feed.Item{Site: Site, Channel: slug, Event: e}
}

// convertMessage maps a chat message onto a comment. Messages from rooms
// we did not join are dropped.
func (c *Connector) convertMessage(msg kickchat.ChatMessage) (feed.Item, bool) {
	slug, ok := c.rooms[msg.ChatroomID]
	if !ok {
		c.logger.Warn().Int("chatroom_id", msg.ChatroomID).Msg("message from unknown chatroom")
		return feed.Item{}, false
	}

	var user *comment.User
	if c.users != nil {
		user = c.users.Get(Site, strconv.Itoa(msg.Sender.ID))
	}

	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}

	posted := msg.CreatedAt
	if posted.IsZero() {
		posted = time.Now()
	}

	return feed.Item{
		Site:    Site,
		Channel: slug,
		Event: comment.NewComment{
			ID:       id,
			PostTime: posted,
			Name:     nameParts(msg.Sender.Username, msg.Sender.Identity.Badges),
			Message:  comment.TextParts(msg.Content),
			User:     user,
		},
	}, true
}

// nameParts renders the username followed by one bracketed part per badge.
func nameParts(username string, badges []kickchat.Badge) []comment.Part {
	parts := comment.TextParts(username)
	for _, b := range badges {
		label := b.Text
		if label == "" {
			label = b.Type
		}
		parts = append(parts, comment.Text{Value: " [" + label + "]"})
	}
	return parts
}
