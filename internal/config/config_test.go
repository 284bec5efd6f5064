package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john/chatview/internal/display"
)

const minimal = `
twitch:
  channels: [ludwig]
`

func TestParse_defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Feed.MaxRows)
	assert.Equal(t, 100, cfg.Recorder.BufferSize)
	assert.Equal(t, "./data", cfg.Recorder.OutputDir)
	assert.Equal(t, ":8080", cfg.Health.Addr)
	assert.Equal(t, 3, cfg.Uploader.MaxRetries)

	label, style := cfg.Connection("twitch", "ludwig")
	assert.Equal(t, "ludwig", label)
	assert.Equal(t, display.Color("#FFFFFF"), style.Background)
	assert.Equal(t, 14, style.FontSize)
	assert.Equal(t, display.FontWeightNormal, style.FontWeight)
}

func TestParse_env_overrides(t *testing.T) {
	t.Setenv("TWITCH_OAUTH", "oauth:secret")

	cfg, err := Parse([]byte(`
twitch:
  username: bot
  channels: [ludwig]
`))
	require.NoError(t, err)
	assert.Equal(t, "oauth:secret", cfg.Twitch.OAuth)
}

func TestParse_validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no channels",
			yaml:    `kick: {enabled: false, channels: [{slug: xqc}]}`,
			wantErr: "at least one twitch or kick channel is required",
		},
		{
			name:    "username without oauth",
			yaml:    "twitch: {username: bot, channels: [a]}",
			wantErr: "twitch.oauth is required",
		},
		{
			name:    "kick channel without slug",
			yaml:    "kick: {enabled: true, channels: [{chatroom_id: 5}]}",
			wantErr: "kick.channels[0]: slug is required",
		},
		{
			name:    "s3 without region",
			yaml:    "twitch: {channels: [a]}\ns3: {bucket: logs}",
			wantErr: "s3.region is required",
		},
		{
			name:    "static key without secret",
			yaml:    "twitch: {channels: [a]}\ns3: {bucket: logs, region: us-east-1, access_key_id: AK}",
			wantErr: "s3.secret_access_key is required",
		},
		{
			name:    "bad scope",
			yaml:    "twitch: {channels: [a]}\ndisplay: {color_scope: global}",
			wantErr: "display.color_scope",
		},
		{
			name:    "bad site color",
			yaml:    "twitch: {channels: [a]}\ndisplay: {site_colors: {twitch: {background: purple, foreground: '#FFFFFF'}}}",
			wantErr: "display.site_colors[twitch].background",
		},
		{
			name:    "bad connection style",
			yaml:    "twitch: {channels: [a]}\ndisplay: {connections: {'twitch:a': {font_style: slanted}}}",
			wantErr: "display.connections[twitch:a]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TWITCH_OAUTH", "")
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_DisplayOptions(t *testing.T) {
	cfg, err := Parse([]byte(`
twitch: {channels: [a]}
display:
  site_color_override: true
  color_scope: site
  site_colors:
    twitch: {background: "#9146ff", foreground: "#ffffff"}
`))
	require.NoError(t, err)

	v, err := cfg.DisplayOptions()
	require.NoError(t, err)

	assert.True(t, v.SiteColorOverride)
	assert.Equal(t, display.ScopeSite, v.Scope)
	assert.Equal(t, display.ColorPair{Background: "#9146FF", Foreground: "#FFFFFF"}, v.SiteColors["twitch"])
}

func TestConfig_Connection_overlays_default(t *testing.T) {
	cfg, err := Parse([]byte(`
twitch: {channels: [ludwig]}
display:
  default: {font_family: Consolas, font_size: 12}
  connections:
    "twitch:ludwig":
      label: Ludwig
      background: "#101010"
      font_weight: 700
      name_wrapping: true
`))
	require.NoError(t, err)

	label, style := cfg.Connection("twitch", "ludwig")

	assert.Equal(t, "Ludwig", label)
	assert.Equal(t, display.Color("#101010"), style.Background)
	assert.Equal(t, display.Color("#000000"), style.Foreground)
	assert.Equal(t, "Consolas", style.FontFamily)
	assert.Equal(t, 12, style.FontSize)
	assert.Equal(t, display.FontWeightBold, style.FontWeight)
	assert.True(t, style.NameWrapping)
}

func TestConfig_Connection_ignores_channel_case(t *testing.T) {
	cfg, err := Parse([]byte(`
twitch: {channels: [Ludwig]}
display:
  connections:
    "twitch:Ludwig": {label: Main}
`))
	require.NoError(t, err)

	label, _ := cfg.Connection("twitch", "ludwig")
	assert.Equal(t, "Main", label)
}

func TestLoad_missing_file(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestWatch_reloads_on_write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(minimal+"nicknames: {\"twitch:1\": Alice}\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "Alice", cfg.Nicknames["twitch:1"])
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
