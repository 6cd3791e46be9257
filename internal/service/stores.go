package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/proctor-backend/internal/model"
)

// ExaminerStore is the examiner persistence used by AuthService.
type ExaminerStore interface {
	Create(ctx context.Context, e *model.Examiner) error
	GetByEmail(ctx context.Context, email string) (*model.Examiner, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Examiner, error)
}

// ExamStore is the exam persistence used by ExamService.
type ExamStore interface {
	Create(ctx context.Context, exam *model.Exam, questions []model.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListByExaminer(ctx context.Context, examinerID uuid.UUID) ([]model.Exam, error)
	ListAll(ctx context.Context) ([]model.Exam, error)
	ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}

// AttemptStore is the attempt persistence used by submission and results.
type AttemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, error)
}

// ViolationStore reads the persisted proctor log.
type ViolationStore interface {
	ListRecent(ctx context.Context, examID uuid.UUID, limit int) ([]model.ViolationEvent, error)
}
