package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/proctor-backend/internal/model"
)

// ExaminerRepository handles examiner data access.
type ExaminerRepository struct {
	pool *pgxpool.Pool
}

// NewExaminerRepository creates a new ExaminerRepository.
func NewExaminerRepository(pool *pgxpool.Pool) *ExaminerRepository {
	return &ExaminerRepository{pool: pool}
}

// Create inserts an examiner. A duplicate email surfaces as a unique violation.
func (r *ExaminerRepository) Create(ctx context.Context, e *model.Examiner) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO examiners (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		e.Name, e.Email, e.PasswordHash,
	).Scan(&e.ID, &e.CreatedAt)
}

// GetByEmail retrieves an examiner by login email.
func (r *ExaminerRepository) GetByEmail(ctx context.Context, email string) (*model.Examiner, error) {
	e := &model.Examiner{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM examiners WHERE email = $1`, email,
	).Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an examiner by ID.
func (r *ExaminerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Examiner, error) {
	e := &model.Examiner{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM examiners WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}
