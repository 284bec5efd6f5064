package display

import (
	"context"
	"sync"
	"time"

	"github.com/john/chatview/internal/comment"
	"github.com/john/chatview/internal/observe"
)

// Properties raised by Row.
const (
	RowName            = "Name"
	RowBackground      = "Background"
	RowForeground      = "Foreground"
	RowFontFamily      = "FontFamily"
	RowFontSize        = "FontSize"
	RowFontStyle       = "FontStyle"
	RowFontWeight      = "FontWeight"
	RowNameWrapping    = "NameWrapping"
	RowConnectionLabel = "ConnectionLabel"
)

// metadataProps maps Metadata properties onto the Row properties derived
// from them.
var metadataProps = map[string]string{
	PropBackColor:    RowBackground,
	PropForeColor:    RowForeground,
	PropFontFamily:   RowFontFamily,
	PropFontSize:     RowFontSize,
	PropFontStyle:    RowFontStyle,
	PropFontWeight:   RowFontWeight,
	PropNameWrapping: RowNameWrapping,
}

// Row is the view-model of one displayed chat event. Identity fields are
// fixed at construction; styling is read through from the shared
// collaborators on every access.
type Row struct {
	kind     comment.Kind
	id       string
	postTime time.Time
	name     []comment.Part
	message  []comment.Part
	avatar   *comment.Image
	amount   string
	user     *comment.User

	metadata *Metadata
	conn     *Connection
	options  *Options

	mu       sync.RWMutex
	nickname []comment.Part

	changed   observe.Notifier
	unsubs    []func()
	closeOnce sync.Once
}

// NewRow builds the row for event and subscribes it to the user, metadata,
// connection and options it reads from. Call Close when the row is
// discarded.
func NewRow(event comment.Event, metadata *Metadata, conn *Connection, options *Options) *Row {
	r := &Row{
		metadata: metadata,
		conn:     conn,
		options:  options,
	}

	switch e := deref(event).(type) {
	case comment.NewComment:
		r.kind = comment.KindComment
		r.id, r.postTime = e.ID, e.PostTime
		r.name, r.message, r.avatar = e.Name, e.Message, e.Avatar
		r.user = e.User
	case comment.PaidMessage:
		r.kind = comment.KindPaid
		r.id, r.postTime = e.ID, e.PostTime
		r.name, r.message, r.avatar = e.Name, e.Message, e.Avatar
		r.user = e.User
		r.amount = e.Amount
	case comment.ConnectedNotice:
		r.kind = comment.KindConnected
		r.message = e.Message
	case comment.DisconnectedNotice:
		r.kind = comment.KindDisconnected
		r.message = e.Message
	}

	r.unsubs = append(r.unsubs,
		conn.Subscribe(func(prop string) {
			if prop == PropName {
				r.changed.Raise(RowConnectionLabel)
			}
		}),
		metadata.Subscribe(func(prop string) {
			if rowProp, ok := metadataProps[prop]; ok {
				r.changed.Raise(rowProp)
			}
		}),
		options.Subscribe(func(string) {
			r.changed.Raise(RowBackground)
			r.changed.Raise(RowForeground)
		}),
	)

	if r.user != nil {
		r.unsubs = append(r.unsubs, r.user.Subscribe(func(prop string) {
			if prop == comment.PropNickname {
				r.refreshNickname()
				r.changed.Raise(RowName)
			}
		}))
		r.refreshNickname()
	}

	return r
}

// deref turns a pointer variant into its value. A nil pointer yields the
// zero value of its variant.
func deref(event comment.Event) comment.Event {
	switch e := event.(type) {
	case *comment.NewComment:
		if e == nil {
			return comment.NewComment{}
		}
		return *e
	case *comment.PaidMessage:
		if e == nil {
			return comment.PaidMessage{}
		}
		return *e
	case *comment.ConnectedNotice:
		if e == nil {
			return comment.ConnectedNotice{}
		}
		return *e
	case *comment.DisconnectedNotice:
		if e == nil {
			return comment.DisconnectedNotice{}
		}
		return *e
	}
	return event
}

func (r *Row) refreshNickname() {
	nick := r.user.Nickname()

	r.mu.Lock()
	defer r.mu.Unlock()

	if nick == "" {
		r.nickname = nil
		return
	}
	r.nickname = []comment.Part{comment.Text{Value: nick}}
}

// Subscribe registers fn for property changes and returns its unsubscribe func.
func (r *Row) Subscribe(fn observe.Handler) func() {
	return r.changed.Subscribe(fn)
}

// Close detaches the row from its collaborators. It is safe to call more
// than once; a closed row stops raising notifications.
func (r *Row) Close() {
	r.closeOnce.Do(func() {
		for _, unsub := range r.unsubs {
			unsub()
		}
		r.unsubs = nil
	})
}

// AfterAdded runs once the row has been added to a display. It does no
// work today and always returns nil.
func (r *Row) AfterAdded(ctx context.Context) error {
	return nil
}

func (r *Row) Kind() comment.Kind { return r.kind }
func (r *Row) ID() string { return r.id }
func (r *Row) PostTime() time.Time { return r.postTime }
func (r *Row) Message() []comment.Part { return r.message }
func (r *Row) Avatar() *comment.Image { return r.avatar }
func (r *Row) Amount() string { return r.amount }
func (r *Row) Site() string { return r.conn.Site() }
func (r *Row) ConnectionLabel() string { return r.conn.Name() }
func (r *Row) IsVisible() bool { return true }
func (r *Row) FontFamily() string { return r.metadata.Style().FontFamily }
func (r *Row) FontSize() int { return r.metadata.Style().FontSize }
func (r *Row) FontStyle() FontStyle { return r.metadata.Style().FontStyle }
func (r *Row) FontWeight() FontWeight { return r.metadata.Style().FontWeight }

// Name returns the user's nickname as a single text part when one is set,
// otherwise the name parts the event arrived with.
func (r *Row) Name() []comment.Part {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.nickname != nil {
		return r.nickname
	}
	return r.name
}

// UserID returns the id of the associated user, or "" for rows without one.
func (r *Row) UserID() string {
	if r.user == nil {
		return ""
	}
	return r.user.ID()
}

// Colors returns the background and foreground. Both come from the site
// override when it applies, otherwise both come from the metadata.
func (r *Row) Colors() (bg, fg Color) {
	if pair, ok := r.options.SiteOverride(r.conn.Site()); ok {
		return pair.Background, pair.Foreground
	}
	return r.metadata.Colors()
}

func (r *Row) Background() Color {
	bg, _ := r.Colors()
	return bg
}

func (r *Row) Foreground() Color {
	_, fg := r.Colors()
	return fg
}

// NameWrapping reports whether long names wrap.
func (r *Row) NameWrapping() Wrapping {
	if r.metadata.Style().NameWrapping {
		return Wrap
	}
	return NoWrap
}

// Snapshot is a point-in-time copy of every derived property of a Row.
type Snapshot struct {
	Kind            comment.Kind
	ID              string
	PostTime        time.Time
	Site            string
	Channel         string
	ConnectionLabel string
	UserID          string
	Name            []comment.Part
	Message         []comment.Part
	Avatar          *comment.Image
	Amount          string
	Background      Color
	Foreground      Color
	FontFamily      string
	FontSize        int
	FontStyle       FontStyle
	FontWeight      FontWeight
	NameWrapping    Wrapping
	Visible         bool
}

// Snapshot reads every property once.
func (r *Row) Snapshot() Snapshot {
	bg, fg := r.Colors()
	style := r.metadata.Style()

	wrap := NoWrap
	if style.NameWrapping {
		wrap = Wrap
	}

	return Snapshot{
		Kind:            r.kind,
		ID:              r.id,
		PostTime:        r.postTime,
		Site:            r.conn.Site(),
		Channel:         r.conn.Channel(),
		ConnectionLabel: r.conn.Name(),
		UserID:          r.UserID(),
		Name:            r.Name(),
		Message:         r.message,
		Avatar:          r.avatar,
		Amount:          r.amount,
		Background:      bg,
		Foreground:      fg,
		FontFamily:      style.FontFamily,
		FontSize:        style.FontSize,
		FontStyle:       style.FontStyle,
		FontWeight:      style.FontWeight,
		NameWrapping:    wrap,
		Visible:         r.IsVisible(),
	}
}
