package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/middleware"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/response"
	"github.com/stemsi/proctor-backend/internal/service"
	"github.com/stemsi/proctor-backend/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExamHandler handles examiner exam and results endpoints.
type ExamHandler struct {
	examService   *service.ExamService
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, resultService *service.ResultService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService:   examService,
		resultService: resultService,
		log:           log.With().Str("component", "exam_handler").Logger(),
	}
}

// CreateExam godoc
// POST /api/v1/examiner/exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.CreateExam(c.Request.Context(), claims.ExaminerID, req)
	if err != nil {
		h.log.Error().Err(err).Msg("Create exam failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam_id": exam.ID, "exam": exam})
}

// ListExams godoc
// GET /api/v1/examiner/exams
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.examService.ListExams(c.Request.Context(), claims.ExaminerID)
	if err != nil {
		h.log.Error().Err(err).Msg("List exams failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, exams)
}

// GetResults godoc
// GET /api/v1/examiner/exams/:exam_id/results
func (h *ExamHandler) GetResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempts, err := h.resultService.ListResults(c.Request.Context(), claims.ExaminerID, examID)
	if err != nil {
		h.failExamAccess(c, err)
		return
	}

	response.Success(c, http.StatusOK, attempts)
}

// ExportResults godoc
// GET /api/v1/examiner/exams/:exam_id/results/export
// Streams the attempts of an exam as an XLSX download.
func (h *ExamHandler) ExportResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var buf bytes.Buffer
	exam, err := h.resultService.ExportResults(c.Request.Context(), claims.ExaminerID, examID, &buf)
	if err != nil {
		h.failExamAccess(c, err)
		return
	}

	name := unsafeFilename.ReplaceAllString(exam.Title, "_")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_results.xlsx"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExamHandler) failExamAccess(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, service.ErrNotExamAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
	default:
		h.log.Error().Err(err).Msg("Exam results request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
