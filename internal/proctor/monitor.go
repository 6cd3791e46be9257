package proctor

import (
	"sync"

	"github.com/rs/zerolog"
)

// Monitor turns environment signals into violation tags while a session is active.
type Monitor struct {
	env Environment
	log zerolog.Logger
}

// NewMonitor creates a Monitor over env.
func NewMonitor(env Environment, log zerolog.Logger) *Monitor {
	return &Monitor{
		env: env,
		log: log.With().Str("component", "proctor_monitor").Logger(),
	}
}

// Start registers every listener and reports each violation to onViolation.
// The returned stop releases all listeners; it may be called any number of
// times and only the first call has an effect.
func (m *Monitor) Start(onViolation func(tag string)) (stop func()) {
	report := func(tag string) {
		m.log.Debug().Str("tag", tag).Msg("Violation observed")
		onViolation(tag)
	}

	removers := []func(){
		m.env.AddListener(EventVisibilityChange, func(e Event) Directive {
			if e.Hidden {
				report(TagTabSwitch)
			}
			return Directive{}
		}),
		m.env.AddListener(EventFullscreenChange, func(e Event) Directive {
			if !e.Fullscreen {
				report(TagFullscreenExit)
			}
			return Directive{}
		}),
		m.env.AddListener(EventContextMenu, func(Event) Directive {
			report(TagRightClick)
			return Directive{PreventDefault: true}
		}),
		// Leaving the page is challenged, not scored.
		m.env.AddListener(EventBeforeUnload, func(Event) Directive {
			return Directive{PreventDefault: true, ConfirmExit: true}
		}),
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, remove := range removers {
				remove()
			}
			m.log.Debug().Msg("Monitor stopped")
		})
	}
}

// EnterFullscreen asks the environment for fullscreen mode. Refusal or lack of
// support is not a violation and is only logged.
func (m *Monitor) EnterFullscreen() {
	if err := m.env.RequestFullscreen(); err != nil {
		m.log.Debug().Err(err).Msg("Fullscreen request not honoured")
	}
}
