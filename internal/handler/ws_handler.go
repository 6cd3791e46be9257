package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/proctor"
	"github.com/stemsi/proctor-backend/internal/response"
	"github.com/stemsi/proctor-backend/internal/service"
	"github.com/stemsi/proctor-backend/internal/session"
	"github.com/stemsi/proctor-backend/internal/validator"
	ws "github.com/stemsi/proctor-backend/internal/websocket"
)

const (
	feedBuffer  = 32
	feedTimeout = 3 * time.Second
)

// PublicExamSource resolves the student-facing view of an exam.
type PublicExamSource interface {
	GetPublicExam(ctx context.Context, examID uuid.UUID) (*model.PublicExam, error)
}

// SubmitterFactory builds the submitter that records a student's session.
type SubmitterFactory interface {
	SessionSubmitter(examID uuid.UUID, studentName, studentID string) session.Submitter
}

// LiveFeed carries session events to the examiner monitor and the violation log.
type LiveFeed interface {
	Publish(ctx context.Context, ev model.MonitorEvent) error
	QueueViolation(ctx context.Context, ev model.ViolationEvent) error
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs proctored exam sessions over WebSocket.
type WSHandler struct {
	exams        PublicExamSource
	submitters   SubmitterFactory
	feed         LiveFeed
	cfg          session.Config
	log          zerolog.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration

	streams   sync.WaitGroup
	closing   chan struct{}
	closeOnce sync.Once
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	exams PublicExamSource,
	submitters SubmitterFactory,
	feed LiveFeed,
	cfg session.Config,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		exams:      exams,
		submitters: submitters,
		feed:       feed,
		cfg:        cfg,
		log:        log.With().Str("component", "ws_handler").Logger(),
		upgrader:   buildUpgrader(allowedOrigins),

		pingInterval: ws.DefaultPingInterval,
		closing:      make(chan struct{}),
	}
}

// Drain closes every open stream and waits until their sessions are done.
// Unfinished sessions are abandoned; finalized ones finish recording their
// attempt. Call it after the HTTP server has stopped accepting requests.
func (h *WSHandler) Drain(ctx context.Context) error {
	h.closeOnce.Do(func() { close(h.closing) })

	done := make(chan struct{})
	go func() {
		h.streams.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/exams/:exam_id/stream?student_name=&student_id=
// Runs one proctored session for the lifetime of the connection.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var q model.StreamQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.exams.GetPublicExam(c.Request.Context(), examID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
		default:
			h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Load exam for stream failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	// Registered before the upgrade, while the server still tracks this request.
	h.streams.Add(1)
	defer h.streams.Done()

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("exam_id", examID.String()).
		Str("student_id", q.StudentID).
		Logger()

	env := ws.NewEnvironment(conn)
	obs := newStreamObserver(conn, h.feed, examID, q, wsLog)
	go obs.pump()
	defer obs.close()

	runner := session.NewRunner(
		h.cfg,
		exam,
		proctor.NewMonitor(env, wsLog),
		h.submitters.SessionSubmitter(examID, q.StudentName, q.StudentID),
		obs,
		wsLog,
	)

	obs.emit(model.MonitorEventJoined, "", 0, model.SessionStatusInProgress)
	wsLog.Info().Msg("Student connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(ctx) }()

	go conn.KeepAlive(ctx.Done(), h.pingInterval)

	// Unblock the read loop once the session has been submitted or the
	// server is going down.
	go func() {
		select {
		case <-runner.Done():
			_ = conn.CloseNormal("session closed")
			_ = conn.Close()
		case <-h.closing:
			_ = conn.CloseGoingAway("server shutting down")
			_ = conn.Close()
		case <-ctx.Done():
		}
	}()

	h.readLoop(conn, env, runner, wsLog)

	// A dropped stream abandons an unfinished session. A finalized one
	// still finishes its submission before Run returns.
	cancel()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		wsLog.Error().Err(err).Msg("Session ended with error")
	}
	if !obs.finalized() {
		obs.emit(model.MonitorEventLeft, "", 0, model.SessionStatusInProgress)
	}
	wsLog.Info().Msg("Student disconnected")
}

func (h *WSHandler) readLoop(conn *ws.Conn, env *ws.Environment, runner *session.Runner, log zerolog.Logger) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			} else {
				log.Debug().Msg("Connection closed")
			}
			return
		}

		// A bad frame is answered and skipped; the session keeps running.
		var msg ws.RequestPayload
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("Malformed client message")
			_ = conn.WriteError("malformed message")
			continue
		}

		switch msg.Action {
		case ws.ActionAnswer:
			if msg.Question == nil || msg.Option == nil {
				_ = conn.WriteError("question and option are required")
				continue
			}
			runner.SelectAnswer(*msg.Question, *msg.Option)
		case ws.ActionNavigate:
			if msg.Question == nil {
				_ = conn.WriteError("question is required")
				continue
			}
			runner.Navigate(*msg.Question)
		case ws.ActionSubmit:
			runner.Submit()
		case ws.ActionSignal:
			if err := env.Signal(msg); err != nil {
				_ = conn.WriteError(err.Error())
			}
		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}
