package session

import (
	"errors"
	"sync/atomic"

	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/proctor"
)

var (
	ErrNoQuestions     = errors.New("exam has no questions")
	ErrInvalidDuration = errors.New("session duration must be positive")
)

const (
	stateInProgress int32 = iota
	stateCompleted
	stateTerminated
)

func statusOf(state int32) model.SessionStatus {
	switch state {
	case stateCompleted:
		return model.SessionStatusCompleted
	case stateTerminated:
		return model.SessionStatusTerminated
	default:
		return model.SessionStatusInProgress
	}
}

// Result is the frozen outcome of a finalized session.
type Result struct {
	Answers        map[int]int         `json:"answers"`
	Violations     []string            `json:"violations"`
	Status         model.SessionStatus `json:"status"`
	TimeRemaining  int                 `json:"time_remaining"`
	ViolationScore int                 `json:"violation_score"`
}

// Snapshot is the renderable view of a session.
type Snapshot struct {
	CurrentQuestion int                 `json:"current_question"`
	QuestionCount   int                 `json:"question_count"`
	Answers         map[int]int         `json:"answers"`
	TimeRemaining   int                 `json:"time_remaining"`
	ViolationCount  int                 `json:"violation_count"`
	ViolationScore  int                 `json:"violation_score"`
	LastViolation   string              `json:"last_violation,omitempty"`
	Status          model.SessionStatus `json:"status"`
}

// Session is the timed exam state machine of one student.
//
// A Session is not safe for concurrent mutation; callers serialize access
// (see Runner). The status is the exception: it moves out of In Progress
// through a single compare-and-swap, so exactly one finalization is observed
// no matter how many triggers race for it.
type Session struct {
	optionCounts []int
	current      int
	answers      map[int]int
	violations   []string
	tally        proctor.Tally
	remaining    int
	state        atomic.Int32
	onFinalize   func(Result)
}

// Start opens a session on exam at question 0 with durationSeconds on the clock.
// onFinalize receives the result exactly once, when the session leaves In Progress.
func Start(exam *model.PublicExam, durationSeconds int, onFinalize func(Result)) (*Session, error) {
	if exam == nil || len(exam.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	if durationSeconds <= 0 {
		return nil, ErrInvalidDuration
	}

	counts := make([]int, len(exam.Questions))
	for i, q := range exam.Questions {
		counts[i] = len(q.Options)
	}

	return &Session{
		optionCounts: counts,
		answers:      make(map[int]int),
		remaining:    durationSeconds,
		onFinalize:   onFinalize,
	}, nil
}

// Status returns the current status.
func (s *Session) Status() model.SessionStatus {
	return statusOf(s.state.Load())
}

func (s *Session) active() bool {
	return s.state.Load() == stateInProgress
}

// SelectAnswer records optionIndex for questionIndex, replacing any earlier
// answer. It reports whether the answer was applied.
func (s *Session) SelectAnswer(questionIndex, optionIndex int) bool {
	if !s.active() || !s.validQuestion(questionIndex) {
		return false
	}
	if optionIndex < 0 || optionIndex >= s.optionCounts[questionIndex] {
		return false
	}
	s.answers[questionIndex] = optionIndex
	return true
}

// Navigate moves the pointer to any question; answering is not required first.
func (s *Session) Navigate(toIndex int) bool {
	if !s.active() || !s.validQuestion(toIndex) {
		return false
	}
	s.current = toIndex
	return true
}

// Tick consumes one second. Running out of time completes the session.
func (s *Session) Tick() bool {
	if !s.active() {
		return false
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.finalize(stateCompleted)
	}
	return true
}

// RecordViolation appends tag to the log and applies the termination policy.
func (s *Session) RecordViolation(tag string) bool {
	if !s.active() {
		return false
	}
	s.violations = append(s.violations, tag)
	if _, terminate := s.tally.Add(tag); terminate {
		s.finalize(stateTerminated)
	}
	return true
}

// Submit completes the session on the student's request.
func (s *Session) Submit() bool {
	return s.finalize(stateCompleted)
}

// ViolationScore is the running policy score.
func (s *Session) ViolationScore() int {
	return s.tally.Score()
}

// Snapshot copies the renderable state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		CurrentQuestion: s.current,
		QuestionCount:   len(s.optionCounts),
		Answers:         copyAnswers(s.answers),
		TimeRemaining:   s.remaining,
		ViolationCount:  len(s.violations),
		ViolationScore:  s.tally.Score(),
		Status:          s.Status(),
	}
	if n := len(s.violations); n > 0 {
		snap.LastViolation = s.violations[n-1]
	}
	return snap
}

func (s *Session) finalize(to int32) bool {
	if !s.state.CompareAndSwap(stateInProgress, to) {
		return false
	}
	if s.onFinalize != nil {
		s.onFinalize(Result{
			Answers:        copyAnswers(s.answers),
			Violations:     append([]string{}, s.violations...),
			Status:         statusOf(to),
			TimeRemaining:  s.remaining,
			ViolationScore: s.tally.Score(),
		})
	}
	return true
}

func (s *Session) validQuestion(i int) bool {
	return i >= 0 && i < len(s.optionCounts)
}

func copyAnswers(in map[int]int) map[int]int {
	out := make(map[int]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
