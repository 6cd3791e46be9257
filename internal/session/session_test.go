package session

import (
	"sync"
	"testing"

	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/proctor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExam(questions, options int) *model.PublicExam {
	exam := &model.PublicExam{Title: "Physics", DurationMinutes: 10, TotalMarks: questions}
	for i := 0; i < questions; i++ {
		opts := make([]string, options)
		for j := range opts {
			opts[j] = string(rune('A' + j))
		}
		exam.Questions = append(exam.Questions, model.PublicQuestion{Text: "q", Options: opts})
	}
	return exam
}

type finalizeRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (f *finalizeRecorder) record(r Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
}

func (f *finalizeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

func TestStartPreconditions(t *testing.T) {
	_, err := Start(testExam(0, 4), 60, nil)
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = Start(nil, 60, nil)
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = Start(testExam(1, 4), 0, nil)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	s, err := Start(testExam(3, 4), 600, nil)
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.CurrentQuestion)
	assert.Equal(t, 3, snap.QuestionCount)
	assert.Empty(t, snap.Answers)
	assert.Equal(t, 600, snap.TimeRemaining)
	assert.Zero(t, snap.ViolationCount)
	assert.Equal(t, model.SessionStatusInProgress, snap.Status)
}

func TestRoundTrip(t *testing.T) {
	rec := &finalizeRecorder{}
	s, err := Start(testExam(2, 4), 600, rec.record)
	require.NoError(t, err)

	assert.True(t, s.SelectAnswer(0, 1))
	assert.True(t, s.Navigate(1))
	assert.True(t, s.SelectAnswer(1, 0))
	assert.True(t, s.Submit())

	require.Equal(t, 1, rec.count())
	res := rec.results[0]
	assert.Equal(t, map[int]int{0: 1, 1: 0}, res.Answers)
	assert.Equal(t, model.SessionStatusCompleted, res.Status)
	assert.Equal(t, 600, res.TimeRemaining)
	assert.Empty(t, res.Violations)
}

func TestSelectAnswerOverwritesAndKeepsPointer(t *testing.T) {
	s, err := Start(testExam(3, 4), 600, nil)
	require.NoError(t, err)

	s.SelectAnswer(2, 1)
	s.SelectAnswer(2, 3)

	snap := s.Snapshot()
	assert.Equal(t, map[int]int{2: 3}, snap.Answers)
	assert.Equal(t, 0, snap.CurrentQuestion)
}

func TestOutOfRangeInputIsIgnored(t *testing.T) {
	s, err := Start(testExam(2, 3), 600, nil)
	require.NoError(t, err)
	before := s.Snapshot()

	assert.False(t, s.Navigate(2))
	assert.False(t, s.Navigate(-1))
	assert.False(t, s.SelectAnswer(5, 0))
	assert.False(t, s.SelectAnswer(0, 3))
	assert.False(t, s.SelectAnswer(0, -1))

	assert.Equal(t, before, s.Snapshot())
}

func TestOneSecondSessionCompletesAfterOneTick(t *testing.T) {
	rec := &finalizeRecorder{}
	s, err := Start(testExam(1, 2), 1, rec.record)
	require.NoError(t, err)

	assert.True(t, s.Tick())

	assert.Equal(t, model.SessionStatusCompleted, s.Status())
	assert.Equal(t, 0, s.Snapshot().TimeRemaining)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, 0, rec.results[0].TimeRemaining)
}

func TestTickCountsDown(t *testing.T) {
	s, err := Start(testExam(1, 2), 3, nil)
	require.NoError(t, err)

	s.Tick()
	s.Tick()
	assert.Equal(t, 1, s.Snapshot().TimeRemaining)
	assert.Equal(t, model.SessionStatusInProgress, s.Status())
}

func TestViolationsTerminateAtThreshold(t *testing.T) {
	rec := &finalizeRecorder{}
	s, err := Start(testExam(2, 4), 600, rec.record)
	require.NoError(t, err)

	s.RecordViolation(proctor.TagTabSwitch)
	assert.Equal(t, model.SessionStatusInProgress, s.Status())
	assert.Equal(t, 2, s.ViolationScore())

	s.RecordViolation(proctor.TagFullscreenExit)
	assert.Equal(t, model.SessionStatusTerminated, s.Status())

	require.Equal(t, 1, rec.count())
	assert.Equal(t, []string{proctor.TagTabSwitch, proctor.TagFullscreenExit}, rec.results[0].Violations)
	assert.Equal(t, 5, rec.results[0].ViolationScore)
}

func TestRepeatedRightClicksAreNotDeduplicated(t *testing.T) {
	s, err := Start(testExam(1, 2), 600, nil)
	require.NoError(t, err)

	s.RecordViolation(proctor.TagRightClick)
	s.RecordViolation(proctor.TagRightClick)
	assert.Equal(t, model.SessionStatusInProgress, s.Status())
	assert.Equal(t, 2, s.Snapshot().ViolationCount)

	for i := 0; i < 3; i++ {
		s.RecordViolation(proctor.TagRightClick)
	}
	assert.Equal(t, model.SessionStatusTerminated, s.Status())
}

func TestTerminalSessionIgnoresEveryOperation(t *testing.T) {
	for _, finish := range []struct {
		name string
		fn   func(*Session)
	}{
		{"submitted", func(s *Session) { s.Submit() }},
		{"terminated", func(s *Session) {
			s.RecordViolation(proctor.TagFullscreenExit)
			s.RecordViolation(proctor.TagTabSwitch)
		}},
	} {
		t.Run(finish.name, func(t *testing.T) {
			rec := &finalizeRecorder{}
			s, err := Start(testExam(3, 4), 600, rec.record)
			require.NoError(t, err)
			s.SelectAnswer(0, 2)
			s.Tick()

			finish.fn(s)
			before := s.Snapshot()

			assert.False(t, s.SelectAnswer(1, 1))
			assert.False(t, s.Navigate(2))
			assert.False(t, s.Tick())
			assert.False(t, s.RecordViolation(proctor.TagRightClick))
			assert.False(t, s.Submit())

			assert.Equal(t, before, s.Snapshot())
			assert.Equal(t, 1, rec.count())
		})
	}
}

func TestExpiryAndTerminationRaceFinalizesOnce(t *testing.T) {
	rec := &finalizeRecorder{}
	s, err := Start(testExam(1, 2), 1, rec.record)
	require.NoError(t, err)
	s.RecordViolation(proctor.TagFullscreenExit)

	// Expiry lands first, so the terminating violation arrives too late.
	s.Tick()
	s.RecordViolation(proctor.TagTabSwitch)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, model.SessionStatusCompleted, rec.results[0].Status)
	assert.Equal(t, []string{proctor.TagFullscreenExit}, rec.results[0].Violations)
}

func TestConcurrentSubmitFinalizesOnce(t *testing.T) {
	rec := &finalizeRecorder{}
	s, err := Start(testExam(2, 2), 600, rec.record)
	require.NoError(t, err)
	s.SelectAnswer(1, 1)

	var wg sync.WaitGroup
	wins := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- s.Submit()
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, rec.count())
}

func TestResultIsDetachedFromSession(t *testing.T) {
	rec := &finalizeRecorder{}
	s, err := Start(testExam(2, 2), 600, rec.record)
	require.NoError(t, err)
	s.SelectAnswer(0, 1)
	s.RecordViolation(proctor.TagRightClick)
	s.Submit()

	res := rec.results[0]
	res.Answers[1] = 1
	res.Violations[0] = "changed"

	snap := s.Snapshot()
	assert.Equal(t, map[int]int{0: 1}, snap.Answers)
	assert.Equal(t, proctor.TagRightClick, snap.LastViolation)
}
