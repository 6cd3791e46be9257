package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/proctor-backend/internal/model"
)

// AttemptRepository handles attempt data access. Attempts are insert-only.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts an attempt and fills its ID and submission time.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	violations, err := json.Marshal(a.Violations)
	if err != nil {
		return fmt.Errorf("encode violations: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (exam_id, student_name, student_id, answers, score, total, status, violations)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8::jsonb)
		 RETURNING id, submitted_at`,
		a.ExamID, a.StudentName, a.StudentID, string(answers), a.Score, a.Total, a.Status, string(violations),
	).Scan(&a.ID, &a.SubmittedAt)
}

// ListByExam retrieves every attempt of an exam in submission order.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, student_name, student_id, answers, score, total, status, violations, submitted_at
		 FROM attempts WHERE exam_id = $1
		 ORDER BY submitted_at ASC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var (
			a                    model.Attempt
			rawAns, rawViolation []byte
		)
		if err := rows.Scan(&a.ID, &a.ExamID, &a.StudentName, &a.StudentID, &rawAns,
			&a.Score, &a.Total, &a.Status, &rawViolation, &a.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawAns, &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of attempt %s: %w", a.ID, err)
		}
		if err := json.Unmarshal(rawViolation, &a.Violations); err != nil {
			return nil, fmt.Errorf("decode violations of attempt %s: %w", a.ID, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
