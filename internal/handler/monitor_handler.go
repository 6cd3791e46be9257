package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/middleware"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/response"
	"github.com/stemsi/proctor-backend/internal/service"
)

const (
	keepAliveInterval = 30 * time.Second
	snapshotTimeout   = 5 * time.Second
	snapshotBacklog   = 200
)

// ResultLister lists recorded attempts for an exam author.
type ResultLister interface {
	ListResults(ctx context.Context, examinerID, examID uuid.UUID) ([]model.Attempt, error)
}

// MonitorFeed is the subscription side of the live proctor feed.
type MonitorFeed interface {
	Subscribe(ctx context.Context, examID uuid.UUID) *redis.PubSub
	Recent(ctx context.Context, examID uuid.UUID, limit int) ([]model.ViolationEvent, error)
}

// MonitorHandler streams the live proctor feed of an exam via SSE.
type MonitorHandler struct {
	results ResultLister
	feed    MonitorFeed
	log     zerolog.Logger
}

func NewMonitorHandler(results ResultLister, feed MonitorFeed, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		results: results,
		feed:    feed,
		log:     log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExamSSE godoc
// GET /api/v1/examiner/exams/:exam_id/monitor
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	reqCtx := c.Request.Context()

	// Subscribe before loading the snapshot so an attempt recorded in
	// between shows up in the stream.
	pubsub := h.feed.Subscribe(reqCtx, examID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(reqCtx); err != nil {
		h.log.Error().Err(err).Msg("Subscribe to monitor channel failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// Ownership is checked by listing results before any stream bytes go out.
	fetchCtx, cancel := context.WithTimeout(reqCtx, snapshotTimeout)
	attempts, err := h.results.ListResults(fetchCtx, claims.ExaminerID, examID)
	cancel()
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		case errors.Is(err, service.ErrNotExamAuthor):
			response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
		default:
			h.log.Error().Err(err).Msg("Load monitor snapshot failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	ch := pubsub.Channel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.sendSnapshot(c, reqCtx, examID, attempts)

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	h.log.Info().Str("exam_id", examID.String()).Msg("Examiner attached to live monitor SSE")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("exam_id", examID.String()).Msg("Examiner disconnected from live monitor SSE")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Forward raw JSON directly, no deserialization needed
			_, _ = c.Writer.Write([]byte("data: " + msg.Payload + "\n\n"))
			c.Writer.Flush()

		case <-keepAliveTicker.C:
			_, _ = c.Writer.Write([]byte("data: {\"type\":\"ping\"}\n\n"))
			c.Writer.Flush()
		}
	}
}

// sendSnapshot writes the recorded attempts and recent violations as the first event.
func (h *MonitorHandler) sendSnapshot(c *gin.Context, ctx context.Context, examID uuid.UUID, attempts []model.Attempt) {
	fetchCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	violations, err := h.feed.Recent(fetchCtx, examID, snapshotBacklog)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to load recent violations for snapshot")
		violations = []model.ViolationEvent{}
	}

	completed, terminated := 0, 0
	for _, a := range attempts {
		switch a.Status {
		case model.SessionStatusCompleted:
			completed++
		case model.SessionStatusTerminated:
			terminated++
		}
	}

	c.SSEvent("message", gin.H{
		"type": "snapshot",
		"data": gin.H{
			"exam_id": examID,
			"stats": gin.H{
				"total_submitted":  len(attempts),
				"total_completed":  completed,
				"total_terminated": terminated,
				"total_violations": len(violations),
			},
			"attempts":   attempts,
			"violations": violations,
		},
	})
	c.Writer.Flush()
}
