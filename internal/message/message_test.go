package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/john/chatview/internal/comment"
	"github.com/john/chatview/internal/display"
)

func TestFromSnapshot(t *testing.T) {
	posted := time.Date(2025, 12, 30, 10, 30, 0, 0, time.FixedZone("JST", 9*3600))

	m := FromSnapshot(display.Snapshot{
		Kind:            comment.KindPaid,
		ID:              "abc",
		PostTime:        posted,
		Site:            "twitch",
		Channel:         "ludwig",
		ConnectionLabel: "Ludwig",
		UserID:          "1",
		Name:            comment.TextParts("Alice"),
		Message:         []comment.Part{comment.Text{Value: "gg "}, comment.Image{Alt: "Kappa"}},
		Amount:          "100 bits",
		Background:      "#FFFFFF",
		Foreground:      "#000000",
	}, time.Now())

	assert.Equal(t, Message{
		Platform:   "twitch",
		Timestamp:  "2025-12-30T01:30:00Z",
		Channel:    "ludwig",
		Connection: "Ludwig",
		Kind:       "paid",
		ID:         "abc",
		UserID:     "1",
		Username:   "Alice",
		Message:    "gg Kappa",
		Amount:     "100 bits",
		Background: "#FFFFFF",
		Foreground: "#000000",
	}, m)
}

func TestFromSnapshot_notice_uses_now(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	m := FromSnapshot(display.Snapshot{Kind: comment.KindConnected, Site: "kick", Channel: "xqc"}, now)

	assert.Equal(t, "2026-01-02T03:04:05Z", m.Timestamp)
	assert.Equal(t, "connected", m.Kind)
	assert.Empty(t, m.ID)
}
