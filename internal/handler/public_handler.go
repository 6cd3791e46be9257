package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/response"
	"github.com/stemsi/proctor-backend/internal/service"
	"github.com/stemsi/proctor-backend/internal/validator"
)

// AttemptSubmitter records a stateless submission.
type AttemptSubmitter interface {
	Submit(ctx context.Context, req model.SubmitAttemptRequest) (*model.AttemptResult, error)
}

// PublicHandler serves unauthenticated student endpoints.
type PublicHandler struct {
	exams       PublicExamSource
	submissions AttemptSubmitter
	log         zerolog.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(exams PublicExamSource, submissions AttemptSubmitter, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		exams:       exams,
		submissions: submissions,
		log:         log.With().Str("component", "public_handler").Logger(),
	}
}

// GetExam godoc
// GET /api/v1/public/exams/:exam_id
// Returns the exam without correct answers.
func (h *PublicHandler) GetExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.exams.GetPublicExam(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) || errors.Is(err, service.ErrNoQuestions) {
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
			return
		}
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Get public exam failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, exam)
}

// SubmitAttempt godoc
// POST /api/v1/public/exams/submit
// Grades and records a finished attempt sent by a thin client.
func (h *PublicHandler) SubmitAttempt(c *gin.Context) {
	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.submissions.Submit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) || errors.Is(err, service.ErrNoQuestions) {
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
			return
		}
		h.log.Error().Err(err).Str("exam_id", req.ExamID.String()).Msg("Submit attempt failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, res)
}
