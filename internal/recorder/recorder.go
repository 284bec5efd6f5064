// Package recorder keeps a JSONL transcript of every row shown in the
// feed, one file per channel, rotated by age and size.
package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/john/chatview/internal/display"
	"github.com/john/chatview/internal/logging"
	"github.com/john/chatview/internal/message"
)

const rotationCheck = time.Minute

// countingWriter tracks the bytes that reached the file.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// transcript is the open file of one channel.
type transcript struct {
	platform string
	channel  string
	name     string
	opened   time.Time

	file    *os.File
	size    *countingWriter
	buf     *bufio.Writer
	enc     *json.Encoder
	pending []message.Message
}

// Recorder is a feed sink writing rows to per-channel transcripts. Closed
// files are passed on for upload.
type Recorder struct {
	dir         string
	batch       int
	maxAge      time.Duration
	maxBytes    int64
	now         func() time.Time
	logger      zerolog.Logger
	messages    chan message.Message
	mu          sync.Mutex
	transcripts map[string]*transcript // platform + "/" + channel
}

// New creates a recorder writing under dir. Lines are written in batches
// of batch; files rotate after rotateMinutes or rotateMegabytes.
func New(dir string, batch, rotateMinutes, rotateMegabytes int) *Recorder {
	return &Recorder{
		dir:         dir,
		batch:       batch,
		maxAge:      time.Duration(rotateMinutes) * time.Minute,
		maxBytes:    int64(rotateMegabytes) << 20,
		now:         time.Now,
		logger:      logging.Component("recorder"),
		messages:    make(chan message.Message, batch),
		transcripts: make(map[string]*transcript),
	}
}

// RowAdded queues a transcript line for the row. Lines are dropped when
// the queue is full so the display never waits on disk.
func (r *Recorder) RowAdded(row *display.Row) {
	msg := message.FromSnapshot(row.Snapshot(), r.now())

	select {
	case r.messages <- msg:
	default:
		r.logger.Warn().Str("platform", msg.Platform).Str("channel", msg.Channel).Msg("recorder queue full, dropping line")
	}
}

// RowRemoved is a no-op; transcripts keep evicted rows.
func (r *Recorder) RowRemoved(*display.Row) {}

// Start writes queued lines until ctx is cancelled. On shutdown the queue
// is drained and every transcript is closed and sent to closed.
func (r *Recorder) Start(ctx context.Context, closed chan<- string) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ticker := time.NewTicker(rotationCheck)
	defer ticker.Stop()

	for {
		select {
		case msg := <-r.messages:
			r.record(msg)

		case <-ticker.C:
			r.rotateDue(closed)

		case <-ctx.Done():
			r.drain()
			r.closeAll(closed)
			return ctx.Err()
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case msg := <-r.messages:
			r.record(msg)
		default:
			return
		}
	}
}

func (r *Recorder) record(msg message.Message) {
	if err := r.write(msg); err != nil {
		r.logger.Error().Err(err).Str("platform", msg.Platform).Str("channel", msg.Channel).Msg("recording message")
	}
}

// write appends msg to its channel's transcript, opening one if needed.
func (r *Recorder) write(msg message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := msg.Platform + "/" + msg.Channel
	t, ok := r.transcripts[key]
	if !ok {
		var err error
		if t, err = r.open(msg.Platform, msg.Channel, time.Time{}); err != nil {
			return err
		}
		r.transcripts[key] = t
	}

	t.pending = append(t.pending, msg)
	if len(t.pending) < r.batch {
		return nil
	}
	return t.flush()
}

// Filename builds the transcript file name for a channel created at t,
// e.g. twitch_ludwig_20251230_103000.jsonl.
func Filename(platform, channel string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s.jsonl", platform, sanitize(channel), t.UTC().Format("20060102_150405"))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '-'
		}
		return r
	}, s)
}

// open starts a transcript stamped strictly after the given time, so a
// rotated file is never reopened. A file left by an earlier run with the
// same stamp is appended to.
func (r *Recorder) open(platform, channel string, after time.Time) (*transcript, error) {
	opened := r.now().UTC().Truncate(time.Second)
	if !opened.After(after) {
		opened = after.Truncate(time.Second).Add(time.Second)
	}
	name := Filename(platform, channel, opened)

	f, err := os.OpenFile(filepath.Join(r.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}

	size := &countingWriter{w: f}
	buf := bufio.NewWriter(size)

	r.logger.Info().Str("file", name).Msg("opened transcript")

	return &transcript{
		platform: platform,
		channel:  channel,
		name:     name,
		opened:   opened,
		file:     f,
		size:     size,
		buf:      buf,
		enc:      json.NewEncoder(buf),
		pending:  make([]message.Message, 0, r.batch),
	}, nil
}

// flush encodes pending lines and pushes them to the file.
func (t *transcript) flush() error {
	for _, msg := range t.pending {
		if err := t.enc.Encode(msg); err != nil {
			return fmt.Errorf("write line: %w", err)
		}
	}
	t.pending = t.pending[:0]
	return t.buf.Flush()
}

// rotateDue closes transcripts past their age or size limit and opens
// fresh ones for the same channels.
func (r *Recorder) rotateDue(closed chan<- string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, t := range r.transcripts {
		var reason string
		switch {
		case now.Sub(t.opened) >= r.maxAge:
			reason = "age"
		case t.size.n >= r.maxBytes:
			reason = "size"
		default:
			continue
		}

		r.logger.Info().Str("file", t.name).Str("reason", reason).Msg("rotating transcript")
		r.finish(t, closed)

		next, err := r.open(t.platform, t.channel, t.opened)
		if err != nil {
			r.logger.Error().Err(err).Str("channel", t.channel).Msg("reopening transcript")
			delete(r.transcripts, key)
			continue
		}
		r.transcripts[key] = next
	}
}

// finish flushes and closes t and hands its path to closed without blocking.
func (r *Recorder) finish(t *transcript, closed chan<- string) {
	log := r.logger.With().Str("file", t.name).Logger()

	if err := t.flush(); err != nil {
		log.Error().Err(err).Msg("flushing transcript")
	}
	if err := t.file.Close(); err != nil {
		log.Error().Err(err).Msg("closing transcript")
	}

	if closed == nil {
		return
	}
	select {
	case closed <- filepath.Join(r.dir, t.name):
		log.Debug().Msg("queued transcript for upload")
	default:
		log.Warn().Msg("upload queue full, transcript will be uploaded on next start")
	}
}

func (r *Recorder) closeAll(closed chan<- string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, t := range r.transcripts {
		r.finish(t, closed)
		delete(r.transcripts, key)
	}
}
