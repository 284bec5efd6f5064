package display

import (
	"sync"

	"github.com/john/chatview/internal/observe"
)

// Properties raised by Metadata.
const (
	PropBackColor    = "BackColor"
	PropForeColor    = "ForeColor"
	PropFontFamily   = "FontFamily"
	PropFontSize     = "FontSize"
	PropFontStyle    = "FontStyle"
	PropFontWeight   = "FontWeight"
	PropNameWrapping = "NameWrapping"
)

// Style is the set of per-connection display settings.
type Style struct {
	Background   Color
	Foreground   Color
	FontFamily   string
	FontSize     int
	FontStyle    FontStyle
	FontWeight   FontWeight
	NameWrapping bool
}

// Metadata is the styling shared by every row of one connection.
type Metadata struct {
	mu sync.RWMutex
	s  Style

	changed observe.Notifier
}

// NewMetadata creates metadata with the initial style s.
func NewMetadata(s Style) *Metadata {
	return &Metadata{s: s}
}

// Style returns a copy of the current style.
func (m *Metadata) Style() Style {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s
}

// Colors returns background and foreground read under one lock.
func (m *Metadata) Colors() (bg, fg Color) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.Background, m.s.Foreground
}

// SetBackground changes the background color.
func (m *Metadata) SetBackground(c Color) { setField(m, &m.s.Background, c, PropBackColor) }

// SetForeground changes the foreground color.
func (m *Metadata) SetForeground(c Color) { setField(m, &m.s.Foreground, c, PropForeColor) }

func (m *Metadata) SetFontFamily(family string) { setField(m, &m.s.FontFamily, family, PropFontFamily) }

func (m *Metadata) SetFontSize(size int) { setField(m, &m.s.FontSize, size, PropFontSize) }

func (m *Metadata) SetFontStyle(style FontStyle) { setField(m, &m.s.FontStyle, style, PropFontStyle) }

func (m *Metadata) SetFontWeight(weight FontWeight) { setField(m, &m.s.FontWeight, weight, PropFontWeight) }

func (m *Metadata) SetNameWrapping(wrap bool) { setField(m, &m.s.NameWrapping, wrap, PropNameWrapping) }

// Apply sets every field of s, raising one notification per field that
// actually changed.
func (m *Metadata) Apply(s Style) {
	m.SetBackground(s.Background)
	m.SetForeground(s.Foreground)
	m.SetFontFamily(s.FontFamily)
	m.SetFontSize(s.FontSize)
	m.SetFontStyle(s.FontStyle)
	m.SetFontWeight(s.FontWeight)
	m.SetNameWrapping(s.NameWrapping)
}

// Subscribe registers fn for property changes and returns its unsubscribe func.
func (m *Metadata) Subscribe(fn observe.Handler) func() {
	return m.changed.Subscribe(fn)
}

func setField[T comparable](m *Metadata, field *T, v T, prop string) {
	m.mu.Lock()
	if *field == v {
		m.mu.Unlock()
		return
	}
	*field = v
	m.mu.Unlock()

	m.changed.Raise(prop)
}
