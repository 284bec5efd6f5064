package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/john/chatview/internal/display"
)

// Config holds the application configuration
type Config struct {
	Twitch    TwitchConfig      `yaml:"twitch"`
	Kick      KickConfig        `yaml:"kick"`
	Display   DisplayConfig     `yaml:"display"`
	Nicknames map[string]string `yaml:"nicknames"` // "site:user_id" -> nickname
	Feed      FeedConfig        `yaml:"feed"`
	S3        S3Config          `yaml:"s3"`
	Recorder  RecorderConfig    `yaml:"recorder"`
	Uploader  UploaderConfig    `yaml:"uploader"`
	Health    HealthConfig      `yaml:"health"`
}

// TwitchConfig holds Twitch-specific configuration
type TwitchConfig struct {
	Username string   `yaml:"username"` // empty joins anonymously
	OAuth    string   `yaml:"oauth"`
	Channels []string `yaml:"channels"`
}

// KickConfig holds Kick-specific configuration
type KickConfig struct {
	Enabled  bool                `yaml:"enabled"`
	Channels []KickChannelConfig `yaml:"channels"`
}

// KickChannelConfig is a Kick channel with an optional pre-resolved chatroom ID
type KickChannelConfig struct {
	Slug       string `yaml:"slug"`
	ChatroomID int    `yaml:"chatroom_id"`
}

// DisplayConfig holds the shared display options and per-connection styling
type DisplayConfig struct {
	SiteColorOverride bool                        `yaml:"site_color_override"`
	ColorScope        string                      `yaml:"color_scope"` // "site" or "connection"
	SiteColors        map[string]ColorPairConfig  `yaml:"site_colors"`
	Default           StyleConfig                 `yaml:"default"`
	Connections       map[string]ConnectionConfig `yaml:"connections"` // "site:channel" -> overrides
}

// ColorPairConfig is a background/foreground pair
type ColorPairConfig struct {
	Background string `yaml:"background"`
	Foreground string `yaml:"foreground"`
}

// StyleConfig mirrors display.Style. Zero values inherit from the default style.
type StyleConfig struct {
	Background   string `yaml:"background"`
	Foreground   string `yaml:"foreground"`
	FontFamily   string `yaml:"font_family"`
	FontSize     int    `yaml:"font_size"`
	FontStyle    string `yaml:"font_style"`
	FontWeight   int    `yaml:"font_weight"`
	NameWrapping *bool  `yaml:"name_wrapping"`
}

// ConnectionConfig overrides the label and style of one connection
type ConnectionConfig struct {
	Label       string `yaml:"label"`
	StyleConfig `yaml:",inline"`
}

// FeedConfig holds row board configuration
type FeedConfig struct {
	MaxRows    int `yaml:"max_rows"`
	BufferSize int `yaml:"buffer_size"`
}

// S3Config holds S3 upload configuration. An empty bucket disables uploads.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	RoleARN         string `yaml:"role_arn"`          // IAM role ARN for OIDC authentication
	AccessKeyID     string `yaml:"access_key_id"`     // Legacy: static credentials
	SecretAccessKey string `yaml:"secret_access_key"` // Legacy: static credentials
	Endpoint        string `yaml:"endpoint"`          // For S3-compatible services
}

// RecorderConfig holds transcript recorder configuration
type RecorderConfig struct {
	Enabled         bool   `yaml:"enabled"`
	OutputDir       string `yaml:"output_dir"`
	RotateMinutes   int    `yaml:"rotate_minutes"`
	RotateMegabytes int    `yaml:"rotate_megabytes"`
	BufferSize      int    `yaml:"buffer_size"`
}

// UploaderConfig holds uploader configuration
type UploaderConfig struct {
	DeleteAfterUpload bool `yaml:"delete_after_upload"`
	MaxRetries        int  `yaml:"max_retries"`
}

// HealthConfig holds health server configuration
type HealthConfig struct {
	Addr string `yaml:"addr"`
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// Apply environment variable overrides
	if oauth := os.Getenv("TWITCH_OAUTH"); oauth != "" {
		cfg.Twitch.OAuth = oauth
	}
	if roleARN := os.Getenv("AWS_ROLE_ARN"); roleARN != "" {
		cfg.S3.RoleARN = roleARN
	}
	if keyID := os.Getenv("S3_ACCESS_KEY_ID"); keyID != "" {
		cfg.S3.AccessKeyID = keyID
	}
	if secretKey := os.Getenv("S3_SECRET_ACCESS_KEY"); secretKey != "" {
		cfg.S3.SecretAccessKey = secretKey
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Feed.MaxRows == 0 {
		cfg.Feed.MaxRows = 500
	}
	if cfg.Feed.BufferSize == 0 {
		cfg.Feed.BufferSize = 100
	}
	if cfg.Recorder.BufferSize == 0 {
		cfg.Recorder.BufferSize = 100
	}
	if cfg.Recorder.RotateMinutes == 0 {
		cfg.Recorder.RotateMinutes = 60
	}
	if cfg.Recorder.RotateMegabytes == 0 {
		cfg.Recorder.RotateMegabytes = 100
	}
	if cfg.Recorder.OutputDir == "" {
		cfg.Recorder.OutputDir = "./data"
	}
	if cfg.Uploader.MaxRetries == 0 {
		cfg.Uploader.MaxRetries = 3
	}
	if cfg.Health.Addr == "" {
		cfg.Health.Addr = ":8080"
	}

	d := &cfg.Display.Default
	if d.Background == "" {
		d.Background = "#FFFFFF"
	}
	if d.Foreground == "" {
		d.Foreground = "#000000"
	}
	if d.FontFamily == "" {
		d.FontFamily = "Meiryo"
	}
	if d.FontSize == 0 {
		d.FontSize = 14
	}
	if d.FontWeight == 0 {
		d.FontWeight = int(display.FontWeightNormal)
	}
}

// Validate checks required fields and display values
func (cfg *Config) Validate() error {
	if len(cfg.Twitch.Channels) == 0 && !(cfg.Kick.Enabled && len(cfg.Kick.Channels) > 0) {
		return fmt.Errorf("at least one twitch or kick channel is required")
	}
	if cfg.Twitch.Username != "" && cfg.Twitch.OAuth == "" {
		return fmt.Errorf("twitch.oauth is required when twitch.username is set (or set TWITCH_OAUTH env var)")
	}
	for i, ch := range cfg.Kick.Channels {
		if ch.Slug == "" {
			return fmt.Errorf("kick.channels[%d]: slug is required", i)
		}
	}
	if cfg.Feed.MaxRows < 0 {
		return fmt.Errorf("feed.max_rows must not be negative")
	}

	if cfg.S3.Bucket != "" {
		if cfg.S3.Region == "" {
			return fmt.Errorf("s3.region is required")
		}
		// Either OIDC role or static credentials required
		if cfg.S3.RoleARN == "" && cfg.S3.AccessKeyID == "" {
			return fmt.Errorf("either s3.role_arn (OIDC) or s3.access_key_id (legacy) is required")
		}
		// If using static credentials, both key and secret are required
		if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey == "" {
			return fmt.Errorf("s3.secret_access_key is required when using access_key_id")
		}
	}

	if _, err := cfg.DisplayOptions(); err != nil {
		return err
	}
	if _, err := toStyle(cfg.Display.Default, display.Style{}); err != nil {
		return fmt.Errorf("display.default: %w", err)
	}
	for key, conn := range cfg.Display.Connections {
		if _, err := toStyle(conn.StyleConfig, display.Style{}); err != nil {
			return fmt.Errorf("display.connections[%s]: %w", key, err)
		}
	}

	return nil
}

// DisplayOptions converts the display section into option values
func (cfg *Config) DisplayOptions() (display.OptionsValues, error) {
	scope, err := display.ParseColorScope(cfg.Display.ColorScope)
	if err != nil {
		return display.OptionsValues{}, fmt.Errorf("display.color_scope: %w", err)
	}

	v := display.OptionsValues{
		SiteColorOverride: cfg.Display.SiteColorOverride,
		Scope:             scope,
		SiteColors:        make(map[string]display.ColorPair, len(cfg.Display.SiteColors)),
	}
	for site, pair := range cfg.Display.SiteColors {
		bg, err := display.ParseColor(pair.Background)
		if err != nil {
			return display.OptionsValues{}, fmt.Errorf("display.site_colors[%s].background: %w", site, err)
		}
		fg, err := display.ParseColor(pair.Foreground)
		if err != nil {
			return display.OptionsValues{}, fmt.Errorf("display.site_colors[%s].foreground: %w", site, err)
		}
		v.SiteColors[site] = display.ColorPair{Background: bg, Foreground: fg}
	}

	return v, nil
}

// Connection returns the label and style for a site channel. The label
// defaults to the channel name; style fields not set for the connection
// fall back to display.default.
func (cfg *Config) Connection(site, channel string) (string, display.Style) {
	base, _ := toStyle(cfg.Display.Default, display.Style{})

	conn, ok := cfg.connectionConfig(site + ":" + channel)
	if !ok {
		return channel, base
	}

	style, err := toStyle(conn.StyleConfig, base)
	if err != nil {
		style = base
	}
	label := conn.Label
	if label == "" {
		label = channel
	}
	return label, style
}

// connectionConfig looks key up exactly, then ignoring case, since Twitch
// reports channel names in lower case.
func (cfg *Config) connectionConfig(key string) (ConnectionConfig, bool) {
	if conn, ok := cfg.Display.Connections[key]; ok {
		return conn, true
	}
	for k, conn := range cfg.Display.Connections {
		if strings.EqualFold(k, key) {
			return conn, true
		}
	}
	return ConnectionConfig{}, false
}

// toStyle overlays the set fields of sc onto base.
func toStyle(sc StyleConfig, base display.Style) (display.Style, error) {
	s := base

	if sc.Background != "" {
		c, err := display.ParseColor(sc.Background)
		if err != nil {
			return s, fmt.Errorf("background: %w", err)
		}
		s.Background = c
	}
	if sc.Foreground != "" {
		c, err := display.ParseColor(sc.Foreground)
		if err != nil {
			return s, fmt.Errorf("foreground: %w", err)
		}
		s.Foreground = c
	}
	if sc.FontFamily != "" {
		s.FontFamily = sc.FontFamily
	}
	if sc.FontSize != 0 {
		if sc.FontSize < 0 {
			return s, fmt.Errorf("font_size must be positive")
		}
		s.FontSize = sc.FontSize
	}
	if sc.FontStyle != "" {
		fs, err := display.ParseFontStyle(sc.FontStyle)
		if err != nil {
			return s, err
		}
		s.FontStyle = fs
	}
	if sc.FontWeight != 0 {
		if sc.FontWeight < 1 || sc.FontWeight > 1000 {
			return s, fmt.Errorf("font_weight must be between 1 and 1000")
		}
		s.FontWeight = display.FontWeight(sc.FontWeight)
	}
	if sc.NameWrapping != nil {
		s.NameWrapping = *sc.NameWrapping
	}

	return s, nil
}
