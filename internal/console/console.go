// Package console renders feed rows to a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/john/chatview/internal/comment"
	"github.com/john/chatview/internal/display"
)

const defaultNameWidth = 20

// Console prints each row when it is added and reprints it when its name,
// colors or connection label change.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	renderer  *lipgloss.Renderer
	nameWidth int
	rows      map[*display.Row]*followed
}

type followed struct {
	unsub func()
	last  lineKey
}

// lineKey is what a printed line shows. Colors are kept apart from the
// text since a plain terminal renders them as nothing.
type lineKey struct {
	text   string
	bg, fg display.Color
}

// New creates a console writing to w.
func New(w io.Writer) *Console {
	return &Console{
		out:       w,
		renderer:  lipgloss.NewRenderer(w),
		nameWidth: defaultNameWidth,
		rows:      make(map[*display.Row]*followed),
	}
}

// RowAdded prints r and follows its changes until RowRemoved.
func (c *Console) RowAdded(r *display.Row) {
	unsub := r.Subscribe(func(prop string) {
		switch prop {
		case display.RowName, display.RowBackground, display.RowForeground, display.RowConnectionLabel:
			c.show(r, "~")
		}
	})

	c.mu.Lock()
	c.rows[r] = &followed{unsub: unsub}
	c.mu.Unlock()

	c.show(r, " ")
}

// RowRemoved stops following r.
func (c *Console) RowRemoved(r *display.Row) {
	c.mu.Lock()
	f, ok := c.rows[r]
	delete(c.rows, r)
	c.mu.Unlock()

	if ok {
		f.unsub()
	}
}

// show prints r unless the line would repeat the last one printed for it,
// so a change raised as several properties prints once.
func (c *Console) show(r *display.Row, marker string) {
	s := r.Snapshot()
	key := lineKey{text: c.Render(s), bg: s.Background, fg: s.Foreground}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.rows[r]
	if !ok || f.last == key {
		return
	}
	f.last = key
	fmt.Fprintf(c.out, "%s %s\n", marker, key.text)
}

// Render formats one row snapshot.
func (c *Console) Render(s display.Snapshot) string {
	style := c.renderer.NewStyle().
		Background(lipgloss.Color(s.Background)).
		Foreground(lipgloss.Color(s.Foreground)).
		Bold(s.FontWeight >= display.FontWeightBold).
		Italic(s.FontStyle != display.FontStyleNormal)

	var b strings.Builder
	if !s.PostTime.IsZero() {
		b.WriteString(s.PostTime.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s] ", s.ConnectionLabel)

	switch s.Kind {
	case comment.KindConnected, comment.KindDisconnected:
		b.WriteString("* ")
		b.WriteString(comment.PlainText(s.Message))
	default:
		nameStyle := c.renderer.NewStyle().Bold(true)
		if s.NameWrapping == display.NoWrap {
			nameStyle = nameStyle.MaxWidth(c.nameWidth)
		}
		b.WriteString(nameStyle.Render(comment.PlainText(s.Name)))
		if s.Amount != "" {
			fmt.Fprintf(&b, " (%s)", s.Amount)
		}
		b.WriteString(": ")
		b.WriteString(comment.PlainText(s.Message))
	}

	return style.Render(b.String())
}
