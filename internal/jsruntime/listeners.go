package jsruntime

import (
	"github.com/dop251/goja"
	"github.com/woxQAQ/creative-bridge/internal/bridge"
)

type argsEvent interface {
	Args() []any
}

// scriptListener adapts a script function to a bridge listener. Two
// adapters for the same function object compare equal, so registries
// deduplicate them like the script would.
type scriptListener[E argsEvent] struct {
	page *Page
	fn   *goja.Object
}

func (l scriptListener[E]) Notify(ev E) {
	l.page.callFunction(l.fn, goja.Null(), ev.Args())
}

func listenerFor[E argsEvent](p *Page, v goja.Value) bridge.Listener[E] {
	fn, ok := functionObject(v)
	if !ok {
		return nil
	}
	return scriptListener[E]{page: p, fn: fn}
}

// removalFor maps a removeEventListener argument: undefined removes every
// listener (nil), a function removes itself, anything else removes nothing.
func removalFor[E argsEvent](p *Page, v goja.Value) (bridge.Listener[E], bool) {
	if !defined(v) {
		return nil, true
	}
	l := listenerFor[E](p, v)
	return l, l != nil
}

// scriptCallback adapts a script function to a callback handle target.
type scriptCallback struct {
	page *Page
	fn   *goja.Object
}

func (c scriptCallback) Invoke(args ...any) {
	c.page.callFunction(c.fn, c.page.vm.GlobalObject(), args)
}

// callbackFor returns nil unless v is a function.
func (p *Page) callbackFor(v goja.Value) bridge.Callback {
	fn, ok := functionObject(v)
	if !ok {
		return nil
	}
	return scriptCallback{page: p, fn: fn}
}

// callFunction calls fn. A script exception is re-raised as a panic so it
// aborts the surrounding dispatch and surfaces at the caller: back in script
// when the dispatch started there, otherwise in the page loop.
func (p *Page) callFunction(fn *goja.Object, this goja.Value, args []any) {
	call, ok := goja.AssertFunction(fn)
	if !ok {
		return
	}
	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = p.toValue(a)
	}
	if _, err := call(this, values...); err != nil {
		panic(err)
	}
}
