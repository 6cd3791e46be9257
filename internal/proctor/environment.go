package proctor

// EventKind names an environment signal the monitor can listen to.
type EventKind string

const (
	EventVisibilityChange EventKind = "visibilitychange"
	EventFullscreenChange EventKind = "fullscreenchange"
	EventContextMenu      EventKind = "contextmenu"
	EventBeforeUnload     EventKind = "beforeunload"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventVisibilityChange, EventFullscreenChange, EventContextMenu, EventBeforeUnload:
		return true
	}
	return false
}

// Event is one signal raised by the environment.
// Hidden is meaningful for visibilitychange, Fullscreen for fullscreenchange.
type Event struct {
	Kind       EventKind
	Hidden     bool
	Fullscreen bool
}

// Directive is what a listener asks the environment to do with an event.
type Directive struct {
	PreventDefault bool `json:"prevent_default"`
	ConfirmExit    bool `json:"confirm_exit"`
}

// Listener handles one environment event.
type Listener func(Event) Directive

// Environment is the runtime the student takes the exam in.
// AddListener returns a function that removes exactly the listener it added.
type Environment interface {
	AddListener(kind EventKind, l Listener) (remove func())
	RequestFullscreen() error
}
