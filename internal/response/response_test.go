package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFail_UsesCodeMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Fail(c, http.StatusNotFound, ErrExamNotFound)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrExamNotFound, body.Error.Code)
	assert.Equal(t, "Exam not found.", body.Error.Message)
	assert.NotEmpty(t, body.Metadata.RequestID)
}

func TestRequestIDMiddleware_PropagatesHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-123", body.Metadata.RequestID)
	assert.Nil(t, body.Error)
}

func TestGetMessage_UnknownCode(t *testing.T) {
	assert.Equal(t, "An unexpected error occurred.", GetMessage("SOMETHING_ELSE"))
}

func TestRequestIDMiddleware_ReplacesMalformedHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad id <script>")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "bad id <script>", seen)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}
