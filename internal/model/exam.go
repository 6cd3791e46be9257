package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is an examiner-authored exam definition. Immutable once created.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	ExaminerID      uuid.UUID `json:"examiner_id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration"`
	TotalMarks      int       `json:"total_marks"`
	CreatedAt       time.Time `json:"created_at"`
}

// DurationSeconds is the countdown length of a session on this exam.
func (e *Exam) DurationSeconds() int {
	return e.DurationMinutes * 60
}

// CreateExamRequest is the payload for creating a new exam with its questions.
type CreateExamRequest struct {
	Title           string               `json:"title" binding:"required,min=1,max=255"`
	DurationMinutes int                  `json:"duration" binding:"required,min=1,max=600"`
	Questions       []NewQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// PublicExam is the student-facing exam view. Correct answers are withheld.
type PublicExam struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	DurationMinutes int              `json:"duration"`
	TotalMarks      int              `json:"total_marks"`
	Questions       []PublicQuestion `json:"questions"`
}

// DurationSeconds is the countdown length of a session on this exam.
func (e *PublicExam) DurationSeconds() int {
	return e.DurationMinutes * 60
}

// PublicExamFrom builds the student-facing view of an exam definition.
func PublicExamFrom(exam *Exam, questions []Question) *PublicExam {
	view := &PublicExam{
		ID:              exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		TotalMarks:      exam.TotalMarks,
		Questions:       make([]PublicQuestion, 0, len(questions)),
	}
	for _, q := range questions {
		view.Questions = append(view.Questions, PublicQuestion{
			ID:      q.ID,
			Text:    q.Text,
			Options: append([]string(nil), q.Options...),
		})
	}
	return view
}
