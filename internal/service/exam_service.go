package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/model"
)

// Domain Errors
var (
	ErrExamNotFound  = errors.New("exam not found")
	ErrNotExamAuthor = errors.New("not the author of this exam")
	ErrNoQuestions   = errors.New("exam has no questions")
)

// ExamService handles exam business logic and the Redis fast lane.
// The fast lane holds the student-facing payload and the ordered answer key
// of every exam so that session start and grading skip PostgreSQL.
type ExamService struct {
	exams ExamStore
	rdb   *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewExamService creates a new ExamService. A zero ttl keeps cache entries forever.
func NewExamService(exams ExamStore, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams: exams,
		rdb:   rdb,
		ttl:   ttl,
		log:   log.With().Str("component", "exam_service").Logger(),
	}
}

// CreateExam persists an exam with its questions and warms its cache.
// TotalMarks is the number of questions.
func (s *ExamService) CreateExam(ctx context.Context, examinerID uuid.UUID, req model.CreateExamRequest) (*model.Exam, error) {
	if len(req.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	questions := make([]model.Question, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = model.Question{
			Text:          strings.TrimSpace(q.Text),
			Options:       q.Options,
			CorrectOption: *q.Correct,
		}
	}

	exam := &model.Exam{
		ExaminerID:      examinerID,
		Title:           strings.TrimSpace(req.Title),
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      len(questions),
	}
	if err := s.exams.Create(ctx, exam, questions); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	// A cold cache self-heals on first read.
	if err := s.cache(ctx, exam, questions); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Failed to warm new exam")
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("examiner_id", examinerID.String()).
		Int("questions", len(questions)).
		Msg("Exam created")
	return exam, nil
}

// ListExams returns the exams authored by an examiner.
func (s *ExamService) ListExams(ctx context.Context, examinerID uuid.UUID) ([]model.Exam, error) {
	exams, err := s.exams.ListByExaminer(ctx, examinerID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// GetOwnedExam returns an exam after checking that examinerID authored it.
func (s *ExamService) GetOwnedExam(ctx context.Context, examinerID, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.ExaminerID != examinerID {
		return nil, ErrNotExamAuthor
	}
	return exam, nil
}

// GetPublicExam returns the student-facing view of an exam.
// Served from Redis; on a miss the exam is loaded from PostgreSQL and re-cached.
func (s *ExamService) GetPublicExam(ctx context.Context, examID uuid.UUID) (*model.PublicExam, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.PublicExamKey(examID.String())).Bytes()
	if err == nil {
		var pub model.PublicExam
		if err := json.Unmarshal(data, &pub); err == nil {
			return &pub, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("Corrupt public exam cache entry, reloading")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Redis unavailable, falling back to PostgreSQL")
	}

	exam, questions, err := s.load(ctx, examID)
	if err != nil {
		return nil, err
	}
	return model.PublicExamFrom(exam, questions), nil
}

// GetAnswerKey returns the ordered correct options of an exam.
func (s *ExamService) GetAnswerKey(ctx context.Context, examID uuid.UUID) ([]int, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.AnswerKeyKey(examID.String())).Bytes()
	if err == nil {
		var key []int
		if err := json.Unmarshal(data, &key); err == nil {
			return key, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Redis unavailable, falling back to PostgreSQL")
	}

	_, questions, err := s.load(ctx, examID)
	if err != nil {
		return nil, err
	}
	return model.AnswerKey(questions), nil
}

// PrewarmAllCaches loads every exam into Redis on application startup.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.exams.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No exams to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(exams)).Msg("Prewarming exams...")

	warmed := 0
	for i := range exams {
		questions, err := s.exams.ListQuestions(ctx, exams[i].ID)
		if err == nil {
			err = s.cache(ctx, &exams[i], questions)
		}
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// load reads an exam from PostgreSQL and repopulates the fast lane.
func (s *ExamService) load(ctx context.Context, examID uuid.UUID) (*model.Exam, []model.Question, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("get exam: %w", err)
	}

	questions, err := s.exams.ListQuestions(ctx, examID)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, nil, ErrNoQuestions
	}

	if err := s.cache(ctx, exam, questions); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to self-heal exam cache")
	}
	return exam, questions, nil
}

// cache writes the public payload and answer key in one pipeline.
func (s *ExamService) cache(ctx context.Context, exam *model.Exam, questions []model.Question) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	payload, err := json.Marshal(model.PublicExamFrom(exam, questions))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	key, err := json.Marshal(model.AnswerKey(questions))
	if err != nil {
		return fmt.Errorf("marshal answer key: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.PublicExamKey(exam.ID.String()), payload, s.ttl)
	pipe.Set(ctx, config.CacheKey.AnswerKeyKey(exam.ID.String()), key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}
