package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/john/chatview/internal/comment"
	"github.com/john/chatview/internal/config"
	"github.com/john/chatview/internal/console"
	"github.com/john/chatview/internal/display"
	"github.com/john/chatview/internal/feed"
	"github.com/john/chatview/internal/health"
	"github.com/john/chatview/internal/kick"
	"github.com/john/chatview/internal/logging"
	"github.com/john/chatview/internal/recorder"
	"github.com/john/chatview/internal/twitch"
	"github.com/john/chatview/internal/uploader"
)

var version = "dev"

type flags struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	NoConsole  bool
}

func main() {
	// Secrets such as TWITCH_OAUTH may live in a local .env file. It must be
	// loaded before flags are parsed so env-backed flags see it too.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	f := &flags{}
	var logCloser func()

	app := &cli.Command{
		Name:    "chatview",
		Usage:   "Display live chat from Twitch and Kick as styled rows",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("CONFIG_PATH"),
				Value:       "config.yaml",
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("CHATVIEW_LOG_LEVEL"),
				Value:       "info",
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "write JSON logs to this file instead of stderr",
				Sources:     cli.EnvVars("CHATVIEW_LOG_FILE"),
				Destination: &f.LogFile,
			},
			&cli.BoolFlag{
				Name:        "no-console",
				Usage:       "do not print rows to stdout",
				Destination: &f.NoConsole,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logging.New(f.LogLevel, f.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, f)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("chatview failed")
	}
}

func run(parent context.Context, f *flags) error {
	log.Info().Str("version", version).Msg("chatview starting")

	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	optionValues, err := cfg.DisplayOptions()
	if err != nil {
		return err
	}
	options := display.NewOptions(optionValues)

	users := comment.NewUserStore()
	users.ApplyNicknames(cfg.Nicknames)

	if len(cfg.Twitch.Channels) > 0 {
		log.Info().Strs("channels", cfg.Twitch.Channels).Msg("monitoring Twitch channels")
	}
	if cfg.Kick.Enabled && len(cfg.Kick.Channels) > 0 {
		log.Info().Int("count", len(cfg.Kick.Channels)).Msg("monitoring Kick channels")
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	items := make(chan feed.Item, cfg.Feed.BufferSize)
	fileChan := make(chan string, 100)

	sinks := []feed.Sink{feed.PruneUsers(users)}
	if !f.NoConsole {
		sinks = append(sinks, console.New(os.Stdout))
	}

	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		rec = recorder.New(
			cfg.Recorder.OutputDir,
			cfg.Recorder.BufferSize,
			cfg.Recorder.RotateMinutes,
			cfg.Recorder.RotateMegabytes,
		)
		sinks = append(sinks, rec)
	}

	board := feed.New(options, cfg.Connection, cfg.Feed.MaxRows, sinks...)

	var up *uploader.Uploader
	if rec != nil && cfg.S3.Bucket != "" {
		up, err = uploader.New(ctx, uploader.Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			RoleARN:         cfg.S3.RoleARN,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			DeleteAfter:     cfg.Uploader.DeleteAfterUpload,
			MaxRetries:      cfg.Uploader.MaxRetries,
		})
		if err != nil {
			return fmt.Errorf("create uploader: %w", err)
		}

		if err := up.ScanAndUploadExisting(ctx, cfg.Recorder.OutputDir); err != nil {
			log.Warn().Err(err).Msg("failed to scan for existing files")
		}
	}

	healthServer := health.New(cfg.Health.Addr, board)

	var wg sync.WaitGroup
	start := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("component", name).Msg("component stopped with error")
			}
		}()
	}

	// The feed outlives the connectors so their disconnect notices are shown.
	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	var feedWG sync.WaitGroup
	feedWG.Add(1)
	go func() {
		defer feedWG.Done()
		_ = board.Run(feedCtx, items)
	}()

	if len(cfg.Twitch.Channels) > 0 {
		tc := twitch.New(cfg.Twitch.Username, cfg.Twitch.OAuth, cfg.Twitch.Channels, users)
		start("twitch", func() error { return tc.Start(ctx, items) })
	}

	if cfg.Kick.Enabled && len(cfg.Kick.Channels) > 0 {
		channels := make([]kick.Channel, 0, len(cfg.Kick.Channels))
		for _, ch := range cfg.Kick.Channels {
			channels = append(channels, kick.Channel{Slug: ch.Slug, ChatroomID: ch.ChatroomID})
		}
		kc := kick.New(channels, users)
		start("kick", func() error { return kc.Start(ctx, items) })
	}

	recCtx, stopRec := context.WithCancel(context.Background())
	defer stopRec()
	var recWG sync.WaitGroup
	if rec != nil {
		recWG.Add(1)
		go func() {
			defer recWG.Done()
			_ = rec.Start(recCtx, fileChan)
		}()
	}

	if up != nil {
		start("uploader", func() error { return up.Start(ctx, fileChan) })
	}

	start("health", healthServer.Start)

	start("config-watcher", func() error {
		return config.Watch(ctx, f.ConfigPath, func(next *config.Config) {
			if v, err := next.DisplayOptions(); err == nil {
				options.Update(v)
			}
			users.ApplyNicknames(next.Nicknames)
			board.Reconfigure(next.Connection)
		})
	})

	log.Info().Msg("all components started")

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received, initiating graceful shutdown")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutting down health server")
	}

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all components stopped gracefully")
	case <-shutdownCtx.Done():
		log.Warn().Msg("shutdown timeout exceeded, forcing exit")
	}

	// Drain the feed before the recorder so the final rows are written.
	stopFeed()
	feedWG.Wait()
	stopRec()
	recWG.Wait()

	log.Info().Msg("chatview stopped")
	return nil
}
