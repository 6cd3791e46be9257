package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockExaminerStore is a mock implementation of ExaminerStore
type MockExaminerStore struct {
	mock.Mock
}

func (m *MockExaminerStore) Create(ctx context.Context, e *model.Examiner) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockExaminerStore) GetByEmail(ctx context.Context, email string) (*model.Examiner, error) {
	args := m.Called(ctx, email)
	e, _ := args.Get(0).(*model.Examiner)
	return e, args.Error(1)
}

func (m *MockExaminerStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Examiner, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*model.Examiner)
	return e, args.Error(1)
}

// MockExamStore is a mock implementation of ExamStore
type MockExamStore struct {
	mock.Mock
}

func (m *MockExamStore) Create(ctx context.Context, exam *model.Exam, questions []model.Question) error {
	args := m.Called(ctx, exam, questions)
	return args.Error(0)
}

func (m *MockExamStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*model.Exam)
	return e, args.Error(1)
}

func (m *MockExamStore) ListByExaminer(ctx context.Context, examinerID uuid.UUID) ([]model.Exam, error) {
	args := m.Called(ctx, examinerID)
	e, _ := args.Get(0).([]model.Exam)
	return e, args.Error(1)
}

func (m *MockExamStore) ListAll(ctx context.Context) ([]model.Exam, error) {
	args := m.Called(ctx)
	e, _ := args.Get(0).([]model.Exam)
	return e, args.Error(1)
}

func (m *MockExamStore) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	args := m.Called(ctx, examID)
	q, _ := args.Get(0).([]model.Question)
	return q, args.Error(1)
}

// MockAttemptStore is a mock implementation of AttemptStore
type MockAttemptStore struct {
	mock.Mock
}

func (m *MockAttemptStore) Create(ctx context.Context, a *model.Attempt) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAttemptStore) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, error) {
	args := m.Called(ctx, examID)
	a, _ := args.Get(0).([]model.Attempt)
	return a, args.Error(1)
}

// MockViolationStore is a mock implementation of ViolationStore
type MockViolationStore struct {
	mock.Mock
}

func (m *MockViolationStore) ListRecent(ctx context.Context, examID uuid.UUID, limit int) ([]model.ViolationEvent, error) {
	args := m.Called(ctx, examID, limit)
	v, _ := args.Get(0).([]model.ViolationEvent)
	return v, args.Error(1)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}
}

func intPtr(n int) *int { return &n }

// sampleExam returns an exam with two questions whose correct options are 1 and 0.
func sampleExam(examinerID uuid.UUID) (*model.Exam, []model.Question) {
	exam := &model.Exam{
		ID:              uuid.New(),
		ExaminerID:      examinerID,
		Title:           "Physics",
		DurationMinutes: 15,
		TotalMarks:      2,
	}
	questions := []model.Question{
		{ID: uuid.New(), ExamID: exam.ID, Position: 0, Text: "g?", Options: []string{"8.9", "9.8"}, CorrectOption: 1},
		{ID: uuid.New(), ExamID: exam.ID, Position: 1, Text: "c?", Options: []string{"3e8", "3e6"}, CorrectOption: 0},
	}
	return exam, questions
}
