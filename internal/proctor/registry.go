package proctor

import "sync"

// Registry is a listener table that transports embed to become an Environment.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[EventKind][]registered
}

type registered struct {
	id uint64
	fn Listener
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{listeners: make(map[EventKind][]registered)}
}

// AddListener registers l for kind and returns its remover.
func (r *Registry) AddListener(kind EventKind, l Listener) (remove func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners[kind] = append(r.listeners[kind], registered{id: id, fn: l})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		list := r.listeners[kind]
		for i, reg := range list {
			if reg.id == id {
				r.listeners[kind] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(r.listeners[kind]) == 0 {
			delete(r.listeners, kind)
		}
	}
}

// Dispatch delivers e to every listener of its kind, in registration order,
// and merges their directives.
func (r *Registry) Dispatch(e Event) Directive {
	r.mu.Lock()
	list := append([]registered(nil), r.listeners[e.Kind]...)
	r.mu.Unlock()

	var out Directive
	for _, reg := range list {
		d := reg.fn(e)
		out.PreventDefault = out.PreventDefault || d.PreventDefault
		out.ConfirmExit = out.ConfirmExit || d.ConfirmExit
	}
	return out
}

// Len returns the number of registered listeners across all kinds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, list := range r.listeners {
		n += len(list)
	}
	return n
}
