package websocket

import (
	"fmt"

	"github.com/stemsi/proctor-backend/internal/proctor"
)

// Environment is the proctoring environment of one student stream. The
// browser forwards its raw signals as "signal" actions; listeners run on
// the reading goroutine and any resulting directive is written back.
type Environment struct {
	*proctor.Registry
	conn *Conn
}

// NewEnvironment creates an Environment writing to conn.
func NewEnvironment(conn *Conn) *Environment {
	return &Environment{
		Registry: proctor.NewRegistry(),
		conn:     conn,
	}
}

// RequestFullscreen asks the client to enter fullscreen.
func (e *Environment) RequestFullscreen() error {
	return e.conn.WriteTyped(FullscreenRequest{Event: EventFullscreen})
}

// Signal dispatches a client-reported signal to the registered listeners.
func (e *Environment) Signal(req RequestPayload) error {
	if !req.Event.Valid() {
		return fmt.Errorf("unknown signal %q", req.Event)
	}

	d := e.Dispatch(proctor.Event{
		Kind:       req.Event,
		Hidden:     req.Hidden,
		Fullscreen: req.Fullscreen,
	})
	if d == (proctor.Directive{}) {
		return nil
	}
	return e.conn.WriteTyped(DirectiveResponse{Event: EventDirective, Directive: d})
}
