package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListeners_AddIsDeduplicated(t *testing.T) {
	r := NewListeners[string]()

	calls := 0
	l := OnEvent(func(string) { calls++ })
	r.Add("ready", l)
	r.Add("ready", l)

	r.Dispatch("ready", "x")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, r.Count("ready"))
}

func TestListeners_Remove(t *testing.T) {
	r := NewListeners[string]()

	calls := 0
	l := OnEvent(func(string) { calls++ })
	r.Add("ready", l)
	r.Remove("ready", l)

	r.Dispatch("ready", "x")

	assert.Zero(t, calls)
	assert.Zero(t, r.Count("ready"))
}

func TestListeners_RemoveAll(t *testing.T) {
	r := NewListeners[int]()

	calls := 0
	r.Add("sizeChange", OnEvent(func(int) { calls++ }))
	r.Add("sizeChange", OnEvent(func(int) { calls++ }))
	r.Add("ready", OnEvent(func(int) { calls += 10 }))

	r.Remove("sizeChange", nil)
	r.Dispatch("sizeChange", 1)

	assert.Zero(t, calls)
	assert.Equal(t, 1, r.Count("ready"))
}

func TestListeners_RemoveUnknown(t *testing.T) {
	r := NewListeners[int]()
	r.Remove("nothing", nil)
	r.Remove("nothing", OnEvent(func(int) {}))
	assert.Zero(t, r.Count("nothing"))
}

func TestListeners_DispatchOrder(t *testing.T) {
	r := NewListeners[int]()

	var order []string
	r.Add("stateChange", OnEvent(func(int) { order = append(order, "first") }))
	r.Add("stateChange", OnEvent(func(int) { order = append(order, "second") }))
	r.Add("stateChange", OnEvent(func(int) { order = append(order, "third") }))

	r.Dispatch("stateChange", 0)

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestListeners_DispatchPayload(t *testing.T) {
	r := NewListeners[[]any]()

	var got []any
	r.Add("error", OnEvent(func(args []any) { got = args }))
	r.Dispatch("error", []any{"bad", "close"})

	assert.Equal(t, []any{"bad", "close"}, got)
}

func TestListeners_PanicAbortsDispatch(t *testing.T) {
	r := NewListeners[int]()

	reached := false
	r.Add("ready", OnEvent(func(int) { panic("listener failed") }))
	r.Add("ready", OnEvent(func(int) { reached = true }))

	require.PanicsWithValue(t, "listener failed", func() {
		r.Dispatch("ready", 0)
	})
	assert.False(t, reached, "listeners after a panicking one must not run")
}

func TestListeners_RemoveDuringDispatch(t *testing.T) {
	r := NewListeners[int]()

	calls := 0
	var second Listener[int]
	first := OnEvent(func(int) { r.Remove("ready", second) })
	second = OnEvent(func(int) { calls++ })
	r.Add("ready", first)
	r.Add("ready", second)

	r.Dispatch("ready", 0)
	assert.Equal(t, 1, calls, "dispatch runs over the listeners registered when it started")

	r.Dispatch("ready", 0)
	assert.Equal(t, 1, calls)
}
