package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/middleware"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeMonitorFeed struct {
	rdb *redis.Client
	log *callLog
}

func (f *fakeMonitorFeed) Subscribe(ctx context.Context, examID uuid.UUID) *redis.PubSub {
	f.log.add("subscribe")
	return f.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
}

func (f *fakeMonitorFeed) Recent(context.Context, uuid.UUID, int) ([]model.ViolationEvent, error) {
	return nil, nil
}

type fakeResults struct {
	log *callLog
	err error
	// during runs inside ListResults, after the subscription exists.
	during func(examID uuid.UUID)
}

func (f *fakeResults) ListResults(_ context.Context, _, examID uuid.UUID) ([]model.Attempt, error) {
	f.log.add("list")
	if f.during != nil {
		f.during(examID)
	}
	if f.err != nil {
		return nil, f.err
	}
	return []model.Attempt{}, nil
}

func newMonitorRouter(t *testing.T, results ResultLister) (*gin.Engine, *redis.Client, *callLog) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := &callLog{}
	if fr, ok := results.(*fakeResults); ok {
		fr.log = calls
	}

	h := NewMonitorHandler(results, &fakeMonitorFeed{rdb: rdb, log: calls}, zerolog.Nop())
	r := gin.New()
	r.GET("/exams/:exam_id/monitor", func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{ExaminerID: uuid.New()})
		c.Next()
	}, h.MonitorExamSSE)
	return r, rdb, calls
}

func TestMonitorSSE_RejectsNonOwnerAfterSubscribing(t *testing.T) {
	results := &fakeResults{err: service.ErrNotExamAuthor}
	r, _, calls := newMonitorRouter(t, results)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exams/"+uuid.NewString()+"/monitor", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Equal(t, []string{"subscribe", "list"}, calls.list())
}

func TestMonitorSSE_EventDuringSnapshotIsStreamed(t *testing.T) {
	results := &fakeResults{}
	r, rdb, calls := newMonitorRouter(t, results)
	results.during = func(examID uuid.UUID) {
		payload, _ := json.Marshal(model.MonitorEvent{
			Type:      model.MonitorEventSubmitted,
			ExamID:    examID,
			StudentID: "S-9",
			At:        time.Now().UTC(),
		})
		_ = rdb.Publish(context.Background(), config.CacheKey.ExamMonitorChannel(examID.String()), payload).Err()
	}

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/exams/"+uuid.NewString()+"/monitor", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sawSnapshot, sawSubmitted bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, `"type":"snapshot"`) {
			sawSnapshot = true
		}
		if strings.Contains(line, `"type":"submitted"`) && strings.Contains(line, `"S-9"`) {
			sawSubmitted = true
			break
		}
	}

	assert.True(t, sawSnapshot)
	assert.True(t, sawSubmitted)
	assert.Equal(t, []string{"subscribe", "list"}, calls.list())
}
