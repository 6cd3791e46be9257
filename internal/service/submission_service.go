package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/grading"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/session"
)

// AnswerKeySource resolves the authoritative answer key of an exam.
type AnswerKeySource interface {
	GetAnswerKey(ctx context.Context, examID uuid.UUID) ([]int, error)
}

// SubmissionService grades and records finished attempts.
type SubmissionService struct {
	keys     AnswerKeySource
	attempts AttemptStore
	feed     *ProctorFeed
	log      zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(keys AnswerKeySource, attempts AttemptStore, feed *ProctorFeed, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		keys:     keys,
		attempts: attempts,
		feed:     feed,
		log:      log.With().Str("component", "submission_service").Logger(),
	}
}

// Submit grades answers against the stored key and records a new attempt.
// Every call records an independent attempt.
func (s *SubmissionService) Submit(ctx context.Context, req model.SubmitAttemptRequest) (*model.AttemptResult, error) {
	key, err := s.keys.GetAnswerKey(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.SessionStatusCompleted
	}
	violations := req.Violations
	if violations == nil {
		violations = []string{}
	}
	answers := req.Answers
	if answers == nil {
		answers = map[int]int{}
	}

	attempt := &model.Attempt{
		ExamID:      req.ExamID,
		StudentName: req.StudentName,
		StudentID:   req.StudentID,
		Answers:     answers,
		Score:       grading.Score(key, answers),
		Total:       len(key),
		Status:      status,
		Violations:  violations,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_id", req.ExamID.String()).
		Str("student_id", req.StudentID).
		Str("status", string(status)).
		Int("score", attempt.Score).
		Int("total", attempt.Total).
		Msg("Attempt recorded")

	if s.feed != nil {
		id := attempt.ID
		ev := model.MonitorEvent{
			Type:        model.MonitorEventSubmitted,
			ExamID:      req.ExamID,
			StudentID:   req.StudentID,
			StudentName: req.StudentName,
			Status:      status,
			AttemptID:   &id,
			At:          time.Now().UTC(),
		}
		if err := s.feed.Publish(ctx, ev); err != nil {
			s.log.Warn().Err(err).Msg("Failed to publish submission to monitor feed")
		}
	}

	return &model.AttemptResult{
		AttemptID: attempt.ID,
		Score:     attempt.Score,
		Total:     attempt.Total,
	}, nil
}

// SessionSubmitter records the finalized result of a proctored session
// on behalf of the given student.
func (s *SubmissionService) SessionSubmitter(examID uuid.UUID, studentName, studentID string) session.Submitter {
	return session.SubmitterFunc(func(ctx context.Context, res session.Result) (session.Receipt, error) {
		out, err := s.Submit(ctx, model.SubmitAttemptRequest{
			ExamID:      examID,
			StudentName: studentName,
			StudentID:   studentID,
			Answers:     res.Answers,
			Violations:  res.Violations,
			Status:      res.Status,
		})
		if err != nil {
			return session.Receipt{}, err
		}
		return session.Receipt{AttemptID: out.AttemptID, Score: out.Score, Total: out.Total}, nil
	})
}
