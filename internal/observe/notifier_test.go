package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_Raise_calls_handlers_in_order(t *testing.T) {
	var n Notifier

	var got []string
	n.Subscribe(func(p string) { got = append(got, "a:"+p) })
	n.Subscribe(func(p string) { got = append(got, "b:"+p) })

	n.Raise("Name")

	assert.Equal(t, []string{"a:Name", "b:Name"}, got)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	var n Notifier

	calls := 0
	unsub := n.Subscribe(func(string) { calls++ })
	other := 0
	n.Subscribe(func(string) { other++ })

	n.Raise("x")
	unsub()
	unsub()
	n.Raise("x")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
	assert.Equal(t, 1, n.Len())
}

func TestNotifier_handler_may_unsubscribe_itself(t *testing.T) {
	var n Notifier

	calls := 0
	var unsub func()
	unsub = n.Subscribe(func(string) {
		calls++
		unsub()
	})

	n.Raise("x")
	n.Raise("x")

	assert.Equal(t, 1, calls)
	assert.Zero(t, n.Len())
}
