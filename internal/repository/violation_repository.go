package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/proctor-backend/internal/model"
)

// ViolationRepository reads and writes the live proctor log.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

var violationColumns = []string{"exam_id", "student_id", "student_name", "tag", "score", "recorded_at"}

// BulkInsert writes a batch of events with COPY.
func (r *ViolationRepository) BulkInsert(ctx context.Context, events []model.ViolationEvent) error {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{e.ExamID, e.StudentID, e.StudentName, e.Tag, e.Score, e.RecordedAt})
	}
	_, err := r.pool.CopyFrom(ctx, pgx.Identifier{"violation_events"}, violationColumns, pgx.CopyFromRows(rows))
	return err
}

// Insert writes a single event.
func (r *ViolationRepository) Insert(ctx context.Context, e model.ViolationEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO violation_events (exam_id, student_id, student_name, tag, score, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ExamID, e.StudentID, e.StudentName, e.Tag, e.Score, e.RecordedAt,
	)
	return err
}

// ListRecent returns the newest events of an exam, newest first.
func (r *ViolationRepository) ListRecent(ctx context.Context, examID uuid.UUID, limit int) ([]model.ViolationEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT exam_id, student_id, student_name, tag, score, recorded_at
		 FROM violation_events WHERE exam_id = $1
		 ORDER BY recorded_at DESC
		 LIMIT $2`, examID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.ViolationEvent
	for rows.Next() {
		var e model.ViolationEvent
		if err := rows.Scan(&e.ExamID, &e.StudentID, &e.StudentName, &e.Tag, &e.Score, &e.RecordedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
