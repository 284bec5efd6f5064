package display

import (
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/john/chatview/internal/observe"
)

// PropOptions is raised by Options after every Update.
const PropOptions = "Options"

// ColorScope selects what a site color override applies to.
type ColorScope int

const (
	// ScopeConnection keeps per-connection colors even when the override
	// is enabled.
	ScopeConnection ColorScope = iota
	// ScopeSite makes every connection of a site share one color pair.
	ScopeSite
)

func (s ColorScope) String() string {
	if s == ScopeSite {
		return "site"
	}
	return "connection"
}

// ParseColorScope accepts "site" or "connection"; "" means connection.
func ParseColorScope(s string) (ColorScope, error) {
	switch strings.ToLower(s) {
	case "", "connection":
		return ScopeConnection, nil
	case "site":
		return ScopeSite, nil
	}
	return ScopeConnection, fmt.Errorf("invalid color scope %q", s)
}

// ColorPair is a background/foreground combination.
type ColorPair struct {
	Background Color
	Foreground Color
}

// OptionsValues is a plain copy of the option state.
type OptionsValues struct {
	SiteColorOverride bool
	Scope             ColorScope
	SiteColors        map[string]ColorPair
}

// Options is the process-wide display configuration shared by all rows.
type Options struct {
	mu sync.RWMutex
	v  OptionsValues

	changed observe.Notifier
}

// NewOptions creates options holding v.
func NewOptions(v OptionsValues) *Options {
	v.SiteColors = maps.Clone(v.SiteColors)
	return &Options{v: v}
}

// Values returns a copy of the current options.
func (o *Options) Values() OptionsValues {
	o.mu.RLock()
	defer o.mu.RUnlock()

	v := o.v
	v.SiteColors = maps.Clone(v.SiteColors)
	return v
}

// Update replaces the options and raises PropOptions. Nothing is raised
// when v equals the current options.
func (o *Options) Update(v OptionsValues) {
	v.SiteColors = maps.Clone(v.SiteColors)

	o.mu.Lock()
	if o.v.equal(v) {
		o.mu.Unlock()
		return
	}
	o.v = v
	o.mu.Unlock()

	o.changed.Raise(PropOptions)
}

func (v OptionsValues) equal(w OptionsValues) bool {
	return v.SiteColorOverride == w.SiteColorOverride &&
		v.Scope == w.Scope &&
		maps.Equal(v.SiteColors, w.SiteColors)
}

// SiteOverride returns the color pair forced on site, if the override is
// enabled with site scope and colors are configured for the site.
func (o *Options) SiteOverride(site string) (ColorPair, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.v.SiteColorOverride || o.v.Scope != ScopeSite {
		return ColorPair{}, false
	}
	pair, ok := o.v.SiteColors[site]
	return pair, ok
}

// Subscribe registers fn for property changes and returns its unsubscribe func.
func (o *Options) Subscribe(fn observe.Handler) func() {
	return o.changed.Subscribe(fn)
}
