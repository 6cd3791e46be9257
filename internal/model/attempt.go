package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is the immutable record of one finished exam session.
type Attempt struct {
	ID          uuid.UUID     `json:"id"`
	ExamID      uuid.UUID     `json:"exam_id"`
	StudentName string        `json:"student_name"`
	StudentID   string        `json:"student_id"`
	Answers     map[int]int   `json:"answers"`
	Score       int           `json:"score"`
	Total       int           `json:"total"`
	Status      SessionStatus `json:"status"`
	Violations  []string      `json:"violations"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// SubmitAttemptRequest is the stateless submission payload.
// Answers are keyed by question position.
type SubmitAttemptRequest struct {
	ExamID      uuid.UUID     `json:"exam_id" binding:"required"`
	StudentName string        `json:"student_name" binding:"required,min=1,max=255"`
	StudentID   string        `json:"student_id" binding:"required,min=1,max=64"`
	Answers     map[int]int   `json:"answers"`
	Violations  []string      `json:"violations" binding:"omitempty,max=1000,dive,max=255"`
	Status      SessionStatus `json:"status" binding:"omitempty,oneof=Completed Terminated"`
}

// AttemptResult is returned to the student after a submission is recorded.
type AttemptResult struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
}
