package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/proctor-backend/internal/model"
)

// ExamRepository handles exam and question data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts an exam together with its questions in one transaction.
// IDs and positions are assigned here.
func (r *ExamRepository) Create(ctx context.Context, exam *model.Exam, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO exams (examiner_id, title, duration_minutes, total_marks)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		exam.ExaminerID, exam.Title, exam.DurationMinutes, exam.TotalMarks,
	).Scan(&exam.ID, &exam.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range questions {
		q := &questions[i]
		q.ID = uuid.New()
		q.ExamID = exam.ID
		q.Position = i

		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		batch.Queue(
			`INSERT INTO questions (id, exam_id, position, question_text, options, correct_option)
			 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
			q.ID, q.ExamID, q.Position, q.Text, string(options), q.CorrectOption,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, examiner_id, title, duration_minutes, total_marks, created_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.ExaminerID, &e.Title, &e.DurationMinutes, &e.TotalMarks, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByExaminer retrieves the exams authored by an examiner, newest first.
func (r *ExamRepository) ListByExaminer(ctx context.Context, examinerID uuid.UUID) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, examiner_id, title, duration_minutes, total_marks, created_at
		 FROM exams WHERE examiner_id = $1
		 ORDER BY created_at DESC`, examinerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.ExaminerID, &e.Title, &e.DurationMinutes, &e.TotalMarks, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListAll retrieves every exam. Used to prewarm the fast lane.
func (r *ExamRepository) ListAll(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, examiner_id, title, duration_minutes, total_marks, created_at
		 FROM exams ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.ExaminerID, &e.Title, &e.DurationMinutes, &e.TotalMarks, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListQuestions retrieves the questions of an exam in position order.
func (r *ExamRepository) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, position, question_text, options, correct_option
		 FROM questions WHERE exam_id = $1
		 ORDER BY position ASC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var (
			q   model.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Position, &q.Text, &raw, &q.CorrectOption); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
