package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/proctor"
)

const (
	DefaultTickInterval  = time.Second
	DefaultSubmitTimeout = 10 * time.Second

	eventBuffer = 64
)

// Receipt is what Submission returns for a recorded attempt.
type Receipt struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
}

// Submitter records a finalized session.
type Submitter interface {
	Submit(ctx context.Context, res Result) (Receipt, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, res Result) (Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, res Result) (Receipt, error) {
	return f(ctx, res)
}

// Observer is the host view of a running session. All callbacks run on the
// runner goroutine.
type Observer interface {
	OnState(Snapshot)
	OnViolation(tag string, score int)
	OnFinalized(Result)
	OnSubmitted(Receipt, error)
}

// Config tunes a Runner.
type Config struct {
	TickInterval  time.Duration
	SubmitTimeout time.Duration
	// DurationSeconds overrides the exam duration when positive.
	DurationSeconds int
}

type eventKind int

const (
	evAnswer eventKind = iota
	evNavigate
	evSubmit
	evViolation
)

type event struct {
	kind     eventKind
	question int
	option   int
	tag      string
}

type submission struct {
	receipt Receipt
	err     error
}

// Runner owns one Session and is the only goroutine that mutates it.
// Monitor callbacks, countdown ticks and host actions are all funnelled
// through its event loop.
type Runner struct {
	cfg       Config
	exam      *model.PublicExam
	monitor   *proctor.Monitor
	submitter Submitter
	observer  Observer
	log       zerolog.Logger

	events chan event
	done   chan struct{}
}

// NewRunner prepares a runner; nothing happens until Run.
func NewRunner(cfg Config, exam *model.PublicExam, monitor *proctor.Monitor, submitter Submitter, observer Observer, log zerolog.Logger) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	return &Runner{
		cfg:       cfg,
		exam:      exam,
		monitor:   monitor,
		submitter: submitter,
		observer:  observer,
		log:       log.With().Str("component", "session_runner").Logger(),
		events:    make(chan event, eventBuffer),
		done:      make(chan struct{}),
	}
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// SelectAnswer queues an answer selection.
func (r *Runner) SelectAnswer(questionIndex, optionIndex int) bool {
	return r.send(event{kind: evAnswer, question: questionIndex, option: optionIndex})
}

// Navigate queues a move of the question pointer.
func (r *Runner) Navigate(toIndex int) bool {
	return r.send(event{kind: evNavigate, question: toIndex})
}

// Submit queues an explicit submission.
func (r *Runner) Submit() bool {
	return r.send(event{kind: evSubmit})
}

// RecordViolation queues a violation. The monitor reports through it.
func (r *Runner) RecordViolation(tag string) bool {
	return r.send(event{kind: evViolation, tag: tag})
}

// send never blocks once the runner has exited.
func (r *Runner) send(ev event) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

// Run drives the session until it is submitted or ctx is cancelled.
// Cancellation before finalization abandons the session without an attempt.
// The countdown and the monitor listeners are released on every return path.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	duration := r.exam.DurationSeconds()
	if r.cfg.DurationSeconds > 0 {
		duration = r.cfg.DurationSeconds
	}

	var final *Result
	sess, err := Start(r.exam, duration, func(res Result) { final = &res })
	if err != nil {
		return err
	}

	stopMonitor := r.monitor.Start(func(tag string) { r.RecordViolation(tag) })
	defer stopMonitor()

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	r.log.Info().Int("duration_seconds", duration).Msg("Session started")
	r.monitor.EnterFullscreen()
	r.observer.OnState(sess.Snapshot())

	for final == nil {
		select {
		case <-ctx.Done():
			r.log.Info().
				Int("time_remaining", sess.Snapshot().TimeRemaining).
				Msg("Session abandoned before finalization")
			return ctx.Err()
		case <-ticker.C:
			if sess.Tick() {
				r.observer.OnState(sess.Snapshot())
			}
		case ev := <-r.events:
			r.apply(sess, ev)
		}
	}

	ticker.Stop()
	stopMonitor()

	r.log.Info().
		Str("status", string(final.Status)).
		Int("violation_score", final.ViolationScore).
		Int("answered", len(final.Answers)).
		Msg("Session finalized")
	r.observer.OnState(sess.Snapshot())
	r.observer.OnFinalized(*final)

	outcome := make(chan submission, 1)
	go func(res Result) {
		subCtx, cancel := context.WithTimeout(context.Background(), r.cfg.SubmitTimeout)
		defer cancel()
		receipt, err := r.submitter.Submit(subCtx, res)
		outcome <- submission{receipt: receipt, err: err}
	}(*final)

	for {
		select {
		case out := <-outcome:
			if out.err != nil {
				r.log.Error().Err(out.err).Msg("Attempt submission failed")
			} else {
				r.log.Info().
					Str("attempt_id", out.receipt.AttemptID.String()).
					Int("score", out.receipt.Score).
					Int("total", out.receipt.Total).
					Msg("Attempt recorded")
			}
			r.observer.OnSubmitted(out.receipt, out.err)
			return nil
		case ev := <-r.events:
			// Late events hit a terminal session and are dropped.
			r.apply(sess, ev)
		}
	}
}

func (r *Runner) apply(sess *Session, ev event) {
	switch ev.kind {
	case evAnswer:
		if sess.SelectAnswer(ev.question, ev.option) {
			r.observer.OnState(sess.Snapshot())
		}
	case evNavigate:
		if sess.Navigate(ev.question) {
			r.observer.OnState(sess.Snapshot())
		}
	case evSubmit:
		sess.Submit()
	case evViolation:
		if sess.RecordViolation(ev.tag) {
			r.observer.OnViolation(ev.tag, sess.ViolationScore())
		}
	}
}
