package uploader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john/chatview/internal/recorder"
)

func TestKey(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{filename: "twitch_ludwig_20251230_103015.jsonl", want: "2025/12/30/twitch/ludwig/twitch_ludwig_20251230_103015.jsonl"},
		{filename: "twitch_ludwig_20251230_1030.jsonl", want: "2025/12/30/twitch/ludwig/twitch_ludwig_20251230_1030.jsonl"},
		{filename: "kick_big_channel_20260102_0005.jsonl", want: "2026/01/02/kick/big_channel/kick_big_channel_20260102_0005.jsonl"},
		{filename: "twitch_20251230.jsonl", wantErr: true},
		{filename: "twitch_ludwig_2025_1030.jsonl", wantErr: true},
		{filename: "twitch_ludwig_20251230_1030.log", wantErr: true},
		{filename: "_20251230_1030.jsonl", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := Key(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKey_accepts_recorder_filenames(t *testing.T) {
	at := time.Date(2025, 12, 30, 10, 30, 0, 0, time.UTC)

	key, err := Key(recorder.Filename("kick", "x_q_c", at))

	require.NoError(t, err)
	assert.Equal(t, "2025/12/30/kick/x_q_c/kick_x_q_c_20251230_103000.jsonl", key)
}
