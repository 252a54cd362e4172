package bridge

import (
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Callback is a creative-side function the native layer may call later.
// Implementations must be comparable (typically pointers) because the
// registry deduplicates by identity.
type Callback interface {
	Invoke(args ...any)
}

type funcCallback struct {
	fn func(args ...any)
}

func (c *funcCallback) Invoke(args ...any) {
	c.fn(args...)
}

// NewCallback gives a Go function a stable identity.
func NewCallback(fn func(args ...any)) Callback {
	return &funcCallback{fn: fn}
}

// Callbacks maps callbacks to small integer handles that survive the trip
// through the native layer. Handles are never reused or released: a callback
// may be invoked at any point while the page is alive.
type Callbacks struct {
	entries []Callback
	logger  *zap.Logger
}

// NewCallbacks creates an empty callback registry.
func NewCallbacks(logger *zap.Logger) *Callbacks {
	return &Callbacks{
		logger: logger.With(zap.String("component", "callback-registry")),
	}
}

// Register returns the handle for cb, appending it on first sight.
func (r *Callbacks) Register(cb Callback) int {
	for i, existing := range r.entries {
		if sameIdentity(existing, cb) {
			r.logger.Debug("Callback already registered", zap.Int("callback_id", i))
			return i
		}
	}
	r.entries = append(r.entries, cb)
	id := len(r.entries) - 1
	r.logger.Debug("Callback registered", zap.Int("callback_id", id))
	return id
}

// Invoke resolves a handle as sent by the native layer and calls the
// callback with args. Malformed or unknown handles are logged and ignored.
func (r *Callbacks) Invoke(handle string, args ...any) {
	id, ok := parseHandle(handle)
	if !ok || id >= len(r.entries) {
		r.logger.Warn("Dropping callback invocation", zap.Error(&CallbackNotFoundError{Handle: handle}))
		return
	}
	r.call(id, args)
}

// InvokeHandle is Invoke for an already numeric handle.
func (r *Callbacks) InvokeHandle(id int, args ...any) {
	if id < 0 || id >= len(r.entries) {
		r.logger.Warn("Dropping callback invocation",
			zap.Error(&CallbackNotFoundError{Handle: strconv.Itoa(id)}))
		return
	}
	r.call(id, args)
}

// Len returns the number of registered callbacks.
func (r *Callbacks) Len() int {
	return len(r.entries)
}

func (r *Callbacks) call(id int, args []any) {
	r.logger.Debug("Calling callback", zap.Int("callback_id", id), zap.Int("args", len(args)))
	r.entries[id].Invoke(args...)
}

// parseHandle reads a leading decimal integer the way parseInt(s, 10) does:
// leading whitespace and an optional sign are accepted, trailing garbage ignored.
func parseHandle(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	if neg && n != 0 {
		return 0, false
	}
	return n, true
}

// sameIdentity compares two values by identity without panicking on
// non-comparable dynamic types.
func sameIdentity(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
