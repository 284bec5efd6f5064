package comment

import "time"

// Kind identifies the variant of an Event.
type Kind int

const (
	KindComment Kind = iota
	KindPaid
	KindConnected
	KindDisconnected
)

func (k Kind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindPaid:
		return "paid"
	case KindConnected:
		return "connected"
	case KindDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is one of NewComment, PaidMessage, ConnectedNotice or
// DisconnectedNotice, passed by value or by pointer. Events are immutable
// once produced.
type Event interface {
	Kind() Kind
	event()
}

// NewComment is a regular chat message.
type NewComment struct {
	ID       string
	PostTime time.Time
	Name     []Part
	Message  []Part
	Avatar   *Image
	User     *User
}

// PaidMessage is a chat message attached to a payment (super chat, bits).
type PaidMessage struct {
	ID       string
	PostTime time.Time
	Name     []Part
	Message  []Part
	Avatar   *Image
	User     *User
	Amount   string
}

// ConnectedNotice reports that a connection to a channel was established.
type ConnectedNotice struct {
	Message []Part
}

// DisconnectedNotice reports that a connection to a channel was closed.
type DisconnectedNotice struct {
	Message []Part
}

func (NewComment) Kind() Kind         { return KindComment }
func (PaidMessage) Kind() Kind        { return KindPaid }
func (ConnectedNotice) Kind() Kind    { return KindConnected }
func (DisconnectedNotice) Kind() Kind { return KindDisconnected }

func (NewComment) event()         {}
func (PaidMessage) event()        {}
func (ConnectedNotice) event()    {}
func (DisconnectedNotice) event() {}
