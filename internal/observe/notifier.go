// Package observe provides property-change notification for view-model
// types. Handlers receive the name of the property that changed.
package observe

import "sync"

// Handler is invoked with the name of a changed property.
type Handler func(property string)

// Notifier keeps an ordered set of handlers. The zero value is ready to use.
type Notifier struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []entry
}

type entry struct {
	id uint64
	fn Handler
}

// Subscribe registers fn and returns a function that removes it again.
// The returned function may be called more than once.
func (n *Notifier) Subscribe(fn Handler) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.handlers = append(n.handlers, entry{id: id, fn: fn})
	n.mu.Unlock()

	return func() { n.remove(id) }
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, e := range n.handlers {
		if e.id == id {
			n.handlers = append(n.handlers[:i:i], n.handlers[i+1:]...)
			return
		}
	}
}

// Raise calls every handler with property. Handlers run on the caller's
// goroutine, outside the lock, so they may subscribe or unsubscribe.
func (n *Notifier) Raise(property string) {
	n.mu.Lock()
	subs := make([]entry, len(n.handlers))
	copy(subs, n.handlers)
	n.mu.Unlock()

	for _, e := range subs {
		e.fn(property)
	}
}

// Len reports the number of registered handlers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.handlers)
}
