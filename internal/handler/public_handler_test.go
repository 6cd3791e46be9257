package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/response"
	"github.com/stemsi/proctor-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAttemptSubmitter struct {
	got model.SubmitAttemptRequest
	res *model.AttemptResult
	err error
}

func (f *fakeAttemptSubmitter) Submit(_ context.Context, req model.SubmitAttemptRequest) (*model.AttemptResult, error) {
	f.got = req
	return f.res, f.err
}

func newPublicRouter(exams PublicExamSource, sub AttemptSubmitter) *gin.Engine {
	h := NewPublicHandler(exams, sub, zerolog.Nop())
	r := gin.New()
	r.GET("/exams/:exam_id", h.GetExam)
	r.POST("/exams/submit", h.SubmitAttempt)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPublicHandler_GetExam(t *testing.T) {
	exam := &model.PublicExam{ID: uuid.New(), Title: "History", DurationMinutes: 5, TotalMarks: 1,
		Questions: []model.PublicQuestion{{ID: uuid.New(), Text: "1066?", Options: []string{"yes", "no"}}}}
	r := newPublicRouter(&fakeExams{exam: exam}, &fakeAttemptSubmitter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exams/"+exam.ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correct")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exams/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrExamNotFound, decode(t, w).Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exams/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicHandler_SubmitAttempt(t *testing.T) {
	attemptID := uuid.New()
	sub := &fakeAttemptSubmitter{res: &model.AttemptResult{AttemptID: attemptID, Score: 2, Total: 3}}
	r := newPublicRouter(&fakeExams{}, sub)
	examID := uuid.New()

	body := `{"exam_id":"` + examID.String() + `","student_name":"Ana","student_id":"S-1",
		"answers":{"0":1,"2":0},"violations":["Right click attempt"],"status":"Terminated"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exams/submit", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), attemptID.String())
	assert.Equal(t, map[int]int{0: 1, 2: 0}, sub.got.Answers)
	assert.Equal(t, model.SessionStatusTerminated, sub.got.Status)
}

func TestPublicHandler_SubmitAttemptValidation(t *testing.T) {
	r := newPublicRouter(&fakeExams{}, &fakeAttemptSubmitter{})

	body := `{"exam_id":"` + uuid.NewString() + `","student_name":"Ana","student_id":"S-1","status":"Paused"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exams/submit", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, response.ErrValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "status")
}

func TestPublicHandler_SubmitAttemptErrors(t *testing.T) {
	body := `{"exam_id":"` + uuid.NewString() + `","student_name":"Ana","student_id":"S-1"}`

	r := newPublicRouter(&fakeExams{}, &fakeAttemptSubmitter{err: service.ErrExamNotFound})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exams/submit", strings.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	r = newPublicRouter(&fakeExams{}, &fakeAttemptSubmitter{err: errors.New("db down")})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exams/submit", strings.NewReader(body)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
