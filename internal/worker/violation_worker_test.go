package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	bulkErr  error
	failTags map[string]bool
	// rowErrs makes Insert return a fixed error per tag.
	rowErrs map[string]error
	rows    []model.ViolationEvent
	bulks   int
}

func (m *memStore) BulkInsert(_ context.Context, events []model.ViolationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulks++
	if m.bulkErr != nil {
		return m.bulkErr
	}
	m.rows = append(m.rows, events...)
	return nil
}

func (m *memStore) Insert(_ context.Context, e model.ViolationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTags[e.Tag] {
		return errors.New("insert failed")
	}
	if err := m.rowErrs[e.Tag]; err != nil {
		return err
	}
	m.rows = append(m.rows, e)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func newWorker(t *testing.T, store ViolationWriter) (*ViolationWorker, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	w := NewViolationWorker(store, rdb, zerolog.Nop())
	w.requeueBackoff = 0
	return w, mr, rdb
}

func violation(tag string) model.ViolationEvent {
	return model.ViolationEvent{ExamID: uuid.New(), StudentID: "S-1", Tag: tag, Score: 1, RecordedAt: time.Now().UTC()}
}

func TestViolationWorker_FlushesOnShutdown(t *testing.T) {
	store := &memStore{}
	w, _, rdb := newWorker(t, store)

	for _, tag := range []string{"a", "b", "c"} {
		data, _ := json.Marshal(violation(tag))
		require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.PersistViolationsQueue, data).Err())
	}
	require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.PersistViolationsQueue, "{not json").Err())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		n, _ := rdb.LLen(context.Background(), config.WorkerKey.PersistViolationsQueue).Result()
		return n == 0
	}, 3*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 3, store.count())
}

func TestViolationWorker_FallbackRequeuesFailures(t *testing.T) {
	store := &memStore{bulkErr: errors.New("copy failed"), failTags: map[string]bool{"bad": true}}
	w, mr, _ := newWorker(t, store)

	w.flushSafe(context.Background(), []model.ViolationEvent{violation("ok"), violation("bad")})

	assert.Equal(t, 1, store.count())
	items, err := mr.List(config.WorkerKey.PersistViolationsQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var ev model.ViolationEvent
	require.NoError(t, json.Unmarshal([]byte(items[0]), &ev))
	assert.Equal(t, "bad", ev.Tag)
}

func TestViolationWorker_FallbackDiscardsRejectedRows(t *testing.T) {
	store := &memStore{
		bulkErr:  errors.New("copy failed"),
		failTags: map[string]bool{"flaky": true},
		rowErrs: map[string]error{
			"orphan":  &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			"garbled": &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation},
		},
	}
	w, mr, _ := newWorker(t, store)

	w.flushSafe(context.Background(), []model.ViolationEvent{
		violation("ok"), violation("orphan"), violation("garbled"), violation("flaky"),
	})

	assert.Equal(t, 1, store.count())
	items, err := mr.List(config.WorkerKey.PersistViolationsQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var ev model.ViolationEvent
	require.NoError(t, json.Unmarshal([]byte(items[0]), &ev))
	assert.Equal(t, "flaky", ev.Tag)
}
