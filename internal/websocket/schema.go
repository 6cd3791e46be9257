package websocket

import (
	"github.com/google/uuid"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/proctor"
	"github.com/stemsi/proctor-backend/internal/session"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionSignal   Action = "signal"
	ActionPing     Action = "ping"
)

// RequestPayload is the single client message shape. Which fields are
// read depends on Action.
type RequestPayload struct {
	Action Action `json:"action"`

	// answer, navigate
	Question *int `json:"question,omitempty"`
	// answer
	Option *int `json:"option,omitempty"`

	// signal
	Event      proctor.EventKind `json:"event,omitempty"`
	Hidden     bool              `json:"hidden,omitempty"`
	Fullscreen bool              `json:"fullscreen,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState        Event = "state"
	EventViolation    Event = "violation"
	EventDirective    Event = "directive"
	EventFullscreen   Event = "fullscreen"
	EventFinalized    Event = "finalized"
	EventSubmitted    Event = "submitted"
	EventSubmitFailed Event = "submit_failed"
	EventError        Event = "error"
	EventPong         Event = "pong"
)

type StateResponse struct {
	Event Event `json:"event"`
	session.Snapshot
}

type ViolationResponse struct {
	Event Event  `json:"event"`
	Tag   string `json:"tag"`
	Score int    `json:"score"`
}

type DirectiveResponse struct {
	Event Event `json:"event"`
	proctor.Directive
}

type FullscreenRequest struct {
	Event Event `json:"event"`
}

type FinalizedResponse struct {
	Event      Event               `json:"event"`
	Status     model.SessionStatus `json:"status"`
	Violations []string            `json:"violations"`
	Score      int                 `json:"violation_score"`
}

type SubmittedResponse struct {
	Event     Event     `json:"event"`
	AttemptID uuid.UUID `json:"attempt_id"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
