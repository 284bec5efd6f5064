// Package uploader ships rotated transcript files to S3.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"

	"github.com/john/chatview/internal/logging"
)

const (
	transcriptExt = ".jsonl"

	oidcSocket   = "/.fly/api"
	oidcAudience = "sts.amazonaws.com"
)

// stampLayouts are the timestamps transcript names end with, newest first.
// Minute stamps come from older recorders.
var stampLayouts = []string{"20060102_150405", "20060102_1504"}

// Options configures an Uploader. RoleARN selects OIDC web identity;
// otherwise AccessKeyID and SecretAccessKey are used.
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string // S3-compatible endpoint; forces path-style addressing
	RoleARN         string
	AccessKeyID     string
	SecretAccessKey string
	DeleteAfter     bool
	MaxRetries      int
	Workers         int // concurrent uploads, default 2
}

// Uploader puts transcript files into a bucket, retrying with backoff.
type Uploader struct {
	client      *s3.Client
	bucket      string
	deleteAfter bool
	maxRetries  int
	slots       chan struct{}
	wg          sync.WaitGroup
	logger      zerolog.Logger
}

// New builds the S3 client for opts.
func New(ctx context.Context, opts Options) (*Uploader, error) {
	logger := logging.Component("uploader")

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.RoleARN == "" {
		logger.Warn().Msg("using static S3 credentials")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	if opts.RoleARN != "" {
		logger.Info().Str("role", opts.RoleARN).Msg("using OIDC web identity")
		provider := stscreds.NewWebIdentityRoleProvider(
			sts.NewFromConfig(cfg),
			opts.RoleARN,
			socketToken{socket: oidcSocket, audience: oidcAudience},
		)
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	workers := opts.Workers
	if workers <= 0 {
		workers = 2
	}

	return &Uploader{
		client:      client,
		bucket:      opts.Bucket,
		deleteAfter: opts.DeleteAfter,
		maxRetries:  opts.MaxRetries,
		slots:       make(chan struct{}, workers),
		logger:      logger,
	}, nil
}

// socketToken fetches an OIDC token from the Fly.io machine API socket.
type socketToken struct {
	socket   string
	audience string
}

func (t socketToken) GetIdentityToken() ([]byte, error) {
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", t.socket)
			},
		},
		Timeout: 5 * time.Second,
	}

	body, err := json.Marshal(map[string]string{"aud": t.audience})
	if err != nil {
		return nil, err
	}

	resp, err := client.Post("http://localhost/v1/tokens/oidc", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request: status %d: %s", resp.StatusCode, data)
	}
	return data, nil
}

// ScanAndUploadExisting queues every transcript left in dir by a previous
// run. A missing dir is not an error.
func (u *Uploader) ScanAndUploadExisting(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	n := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != transcriptExt {
			continue
		}
		u.enqueue(ctx, filepath.Join(dir, entry.Name()))
		n++
	}

	u.logger.Info().Str("dir", dir).Int("count", n).Msg("queued leftover transcripts")
	return nil
}

// Start uploads every path received on files until ctx is cancelled, then
// waits for in-flight uploads to stop.
func (u *Uploader) Start(ctx context.Context, files <-chan string) error {
	defer u.wg.Wait()

	for {
		select {
		case p := <-files:
			u.enqueue(ctx, p)
		case <-ctx.Done():
			u.logger.Info().Msg("uploader shutting down")
			return ctx.Err()
		}
	}
}

func (u *Uploader) enqueue(ctx context.Context, localPath string) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()

		select {
		case u.slots <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-u.slots }()

		u.upload(ctx, localPath)
	}()
}

func (u *Uploader) upload(ctx context.Context, localPath string) {
	name := filepath.Base(localPath)
	log := u.logger.With().Str("file", name).Logger()

	key, err := Key(name)
	if err != nil {
		log.Error().Err(err).Msg("skipping file")
		return
	}

	for attempt := 0; ; attempt++ {
		err := u.put(ctx, localPath, key)
		if err == nil {
			break
		}
		if attempt >= u.maxRetries {
			log.Error().Err(err).Int("attempts", attempt+1).Msg("giving up on upload")
			return
		}

		backoff := time.Second << attempt
		log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("upload failed, retrying")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
	}

	log.Info().Str("bucket", u.bucket).Str("key", key).Msg("uploaded transcript")

	if u.deleteAfter {
		if err := os.Remove(localPath); err != nil {
			log.Error().Err(err).Msg("deleting local file")
		}
	}
}

func (u *Uploader) put(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/x-ndjson"),
	})
	return err
}

// Key maps a transcript file name such as twitch_ludwig_20251230_103000.jsonl
// to its object key 2025/12/30/twitch/ludwig/twitch_ludwig_20251230_103000.jsonl.
// Channel names may contain underscores; the platform may not.
func Key(filename string) (string, error) {
	base, ok := strings.CutSuffix(filename, transcriptExt)
	if !ok {
		return "", fmt.Errorf("not a transcript: %s", filename)
	}

	for _, layout := range stampLayouts {
		cut := len(base) - len(layout) - 1
		if cut < 0 || base[cut] != '_' {
			continue
		}
		t, err := time.Parse(layout, base[cut+1:])
		if err != nil {
			continue
		}

		platform, channel, ok := strings.Cut(base[:cut], "_")
		if !ok || platform == "" || channel == "" {
			return "", fmt.Errorf("missing platform or channel: %s", filename)
		}
		return path.Join(t.Format("2006/01/02"), platform, channel, filename), nil
	}

	return "", fmt.Errorf("missing timestamp: %s", filename)
}
