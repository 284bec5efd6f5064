package message

import (
	"time"

	"github.com/john/chatview/internal/comment"
	"github.com/john/chatview/internal/display"
)

// Message is one transcript line: a displayed row as it looked when added.
type Message struct {
	Platform   string `json:"platform"`             // Platform name: "twitch", "kick", etc.
	Timestamp  string `json:"timestamp"`            // Post time in RFC3339 (UTC); record time for notices
	Channel    string `json:"channel"`              // Channel name or slug
	Connection string `json:"connection"`           // Connection label at record time
	Kind       string `json:"kind"`                 // comment, paid, connected, disconnected
	ID         string `json:"id,omitempty"`         // Platform message ID
	UserID     string `json:"user_id,omitempty"`    // Platform-specific user ID
	Username   string `json:"username,omitempty"`   // Displayed name (nickname when set)
	Message    string `json:"message"`              // Flattened message text
	Amount     string `json:"amount,omitempty"`     // Paid amount
	Background string `json:"background,omitempty"` // Effective colors
	Foreground string `json:"foreground,omitempty"`
}

// FromSnapshot flattens a row snapshot. now is used when the row has no post time.
func FromSnapshot(s display.Snapshot, now time.Time) Message {
	ts := s.PostTime
	if ts.IsZero() {
		ts = now
	}

	return Message{
		Platform:   s.Site,
		Timestamp:  ts.UTC().Format(time.RFC3339),
		Channel:    s.Channel,
		Connection: s.ConnectionLabel,
		Kind:       s.Kind.String(),
		ID:         s.ID,
		UserID:     s.UserID,
		Username:   comment.PlainText(s.Name),
		Message:    comment.PlainText(s.Message),
		Amount:     s.Amount,
		Background: string(s.Background),
		Foreground: string(s.Foreground),
	}
}
