package handler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/session"
	ws "github.com/stemsi/proctor-backend/internal/websocket"
)

type feedItem struct {
	event     model.MonitorEvent
	violation *model.ViolationEvent
}

// streamObserver mirrors a running session to its WebSocket client and
// forwards feed events to a pump goroutine, so the runner never waits on Redis.
type streamObserver struct {
	conn    *ws.Conn
	feed    LiveFeed
	examID  uuid.UUID
	student model.StreamQuery
	log     zerolog.Logger

	items     chan feedItem
	closeOnce sync.Once
	pumpDone  chan struct{}
	done      atomic.Bool
}

func newStreamObserver(conn *ws.Conn, feed LiveFeed, examID uuid.UUID, student model.StreamQuery, log zerolog.Logger) *streamObserver {
	return &streamObserver{
		conn:     conn,
		feed:     feed,
		examID:   examID,
		student:  student,
		log:      log,
		items:    make(chan feedItem, feedBuffer),
		pumpDone: make(chan struct{}),
	}
}

func (o *streamObserver) OnState(s session.Snapshot) {
	o.write(ws.StateResponse{Event: ws.EventState, Snapshot: s})
}

func (o *streamObserver) OnViolation(tag string, score int) {
	o.write(ws.ViolationResponse{Event: ws.EventViolation, Tag: tag, Score: score})

	now := time.Now().UTC()
	o.enqueue(feedItem{
		event: o.event(model.MonitorEventViolation, tag, score, model.SessionStatusInProgress, now),
		violation: &model.ViolationEvent{
			ExamID:      o.examID,
			StudentID:   o.student.StudentID,
			StudentName: o.student.StudentName,
			Tag:         tag,
			Score:       score,
			RecordedAt:  now,
		},
	})
}

func (o *streamObserver) OnFinalized(res session.Result) {
	o.done.Store(true)
	o.write(ws.FinalizedResponse{
		Event:      ws.EventFinalized,
		Status:     res.Status,
		Violations: res.Violations,
		Score:      res.ViolationScore,
	})
	o.emit(model.MonitorEventFinalized, "", res.ViolationScore, res.Status)
}

func (o *streamObserver) OnSubmitted(r session.Receipt, err error) {
	if err != nil {
		o.write(ws.ErrorResponse{Event: ws.EventSubmitFailed, Error: "failed to record attempt"})
		return
	}
	o.write(ws.SubmittedResponse{
		Event:     ws.EventSubmitted,
		AttemptID: r.AttemptID,
		Score:     r.Score,
		Total:     r.Total,
	})
}

func (o *streamObserver) finalized() bool {
	return o.done.Load()
}

func (o *streamObserver) write(v any) {
	if err := o.conn.WriteTyped(v); err != nil {
		o.log.Debug().Err(err).Msg("Write to client failed")
	}
}

func (o *streamObserver) event(t model.MonitorEventType, tag string, score int, status model.SessionStatus, at time.Time) model.MonitorEvent {
	return model.MonitorEvent{
		Type:        t,
		ExamID:      o.examID,
		StudentID:   o.student.StudentID,
		StudentName: o.student.StudentName,
		Tag:         tag,
		Score:       score,
		Status:      status,
		At:          at,
	}
}

func (o *streamObserver) emit(t model.MonitorEventType, tag string, score int, status model.SessionStatus) {
	o.enqueue(feedItem{event: o.event(t, tag, score, status, time.Now().UTC())})
}

func (o *streamObserver) enqueue(it feedItem) {
	select {
	case o.items <- it:
	default:
		o.log.Warn().Str("type", string(it.event.Type)).Msg("Monitor feed backlog full, dropping event")
	}
}

// pump publishes queued items until close.
func (o *streamObserver) pump() {
	defer close(o.pumpDone)
	for it := range o.items {
		ctx, cancel := context.WithTimeout(context.Background(), feedTimeout)
		if it.violation != nil {
			if err := o.feed.QueueViolation(ctx, *it.violation); err != nil {
				o.log.Error().Err(err).Msg("Failed to queue violation")
			}
		}
		if err := o.feed.Publish(ctx, it.event); err != nil {
			o.log.Warn().Err(err).Msg("Failed to publish monitor event")
		}
		cancel()
	}
}

// close drains the pump. Callers must not enqueue afterwards.
func (o *streamObserver) close() {
	o.closeOnce.Do(func() {
		close(o.items)
		<-o.pumpDone
	})
}
