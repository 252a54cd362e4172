package bridge

// Listener receives events of type E.
// Implementations must be comparable; the registry deduplicates by identity.
type Listener[E any] interface {
	Notify(E)
}

type funcListener[E any] struct {
	fn func(E)
}

func (l *funcListener[E]) Notify(e E) {
	l.fn(e)
}

// OnEvent gives a Go function a stable listener identity.
func OnEvent[E any](fn func(E)) Listener[E] {
	return &funcListener[E]{fn: fn}
}

// Listeners keeps per-event-name listener lists in registration order.
type Listeners[E any] struct {
	byName map[string][]Listener[E]
}

// NewListeners creates an empty listener registry.
func NewListeners[E any]() *Listeners[E] {
	return &Listeners[E]{byName: make(map[string][]Listener[E])}
}

// Add appends l to the listeners of name unless it is already registered.
func (r *Listeners[E]) Add(name string, l Listener[E]) {
	for _, existing := range r.byName[name] {
		if sameIdentity(existing, l) {
			return
		}
	}
	r.byName[name] = append(r.byName[name], l)
}

// Remove unregisters l from name. A nil listener removes every listener of name.
func (r *Listeners[E]) Remove(name string, l Listener[E]) {
	list, ok := r.byName[name]
	if !ok {
		return
	}
	if l == nil {
		delete(r.byName, name)
		return
	}
	for i, existing := range list {
		if sameIdentity(existing, l) {
			r.byName[name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Dispatch calls every listener of name with payload, synchronously and in
// registration order. A panicking listener is not recovered: it aborts the
// remaining listeners and propagates to the caller.
func (r *Listeners[E]) Dispatch(name string, payload E) {
	list := r.byName[name]
	if len(list) == 0 {
		return
	}
	snapshot := make([]Listener[E], len(list))
	copy(snapshot, list)
	for _, l := range snapshot {
		l.Notify(payload)
	}
}

// Count returns the number of listeners registered for name.
func (r *Listeners[E]) Count(name string) int {
	return len(r.byName[name])
}
