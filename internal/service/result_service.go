package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/grading"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/proctor"
	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

// ExamOwnerChecker resolves an exam only for its author.
type ExamOwnerChecker interface {
	GetOwnedExam(ctx context.Context, examinerID, examID uuid.UUID) (*model.Exam, error)
}

// ResultService serves recorded attempts to exam authors.
type ResultService struct {
	exams    ExamOwnerChecker
	attempts AttemptStore
	log      zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(exams ExamOwnerChecker, attempts AttemptStore, log zerolog.Logger) *ResultService {
	return &ResultService{
		exams:    exams,
		attempts: attempts,
		log:      log.With().Str("component", "result_service").Logger(),
	}
}

// ListResults returns the attempts of an exam owned by examinerID.
func (s *ResultService) ListResults(ctx context.Context, examinerID, examID uuid.UUID) ([]model.Attempt, error) {
	if _, err := s.exams.GetOwnedExam(ctx, examinerID, examID); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

// ExportResults writes the attempts of an exam as an XLSX workbook to w.
// It returns the exam so callers can name the download.
func (s *ResultService) ExportResults(ctx context.Context, examinerID, examID uuid.UUID, w io.Writer) (*model.Exam, error) {
	exam, err := s.exams.GetOwnedExam(ctx, examinerID, examID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{
		"Student Name", "Student ID", "Status", "Score", "Total", "Percentage",
		"Violations", "Violation Score", "Violation Log", "Submitted At",
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, a := range attempts {
		row := []any{
			a.StudentName,
			a.StudentID,
			string(a.Status),
			a.Score,
			a.Total,
			grading.Percentage(a.Score, a.Total),
			len(a.Violations),
			proctor.Score(a.Violations),
			strings.Join(a.Violations, "; "),
			a.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(resultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("attempts", len(attempts)).
		Msg("Results exported")
	return exam, nil
}
