package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/john/chatview/internal/config"
	"github.com/john/chatview/internal/kick"
)

func main() {
	var timeout time.Duration

	cmd := &cli.Command{
		Name:      "resolve-kick-channels",
		Usage:     "Look up Kick chatroom IDs and print a kick config block",
		ArgsUsage: "<slug> [slug...]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "per-channel lookup timeout",
				Value:       10 * time.Second,
				Destination: &timeout,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			slugs := c.Args().Slice()
			if len(slugs) == 0 {
				return cli.Exit("at least one channel slug is required", 1)
			}
			return resolve(ctx, slugs, timeout)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolve(ctx context.Context, slugs []string, timeout time.Duration) error {
	var block struct {
		Kick config.KickConfig `yaml:"kick"`
	}
	block.Kick.Enabled = true

	failed := 0
	for _, slug := range slugs {
		lookupCtx, cancel := context.WithTimeout(ctx, timeout)
		info, err := kick.ResolveChannel(lookupCtx, slug)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", slug, err)
			failed++
			continue
		}
		block.Kick.Channels = append(block.Kick.Channels, config.KickChannelConfig{
			Slug:       info.Slug,
			ChatroomID: info.Chatroom.ID,
		})
	}

	if len(block.Kick.Channels) > 0 {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(block); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d channel(s) could not be resolved", failed, len(slugs))
	}
	return nil
}
