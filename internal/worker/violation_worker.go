package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ViolationWriter persists violation events.
type ViolationWriter interface {
	BulkInsert(ctx context.Context, events []model.ViolationEvent) error
	Insert(ctx context.Context, e model.ViolationEvent) error
}

// ViolationWorker drains the violation queue into PostgreSQL in batches.
type ViolationWorker struct {
	store ViolationWriter
	rdb   *redis.Client
	log   zerolog.Logger

	requeueBackoff time.Duration
	errorBackoff   time.Duration
}

func NewViolationWorker(store ViolationWriter, rdb *redis.Client, log zerolog.Logger) *ViolationWorker {
	return &ViolationWorker{
		store:          store,
		rdb:            rdb,
		log:            log.With().Str("component", "violation_worker").Logger(),
		requeueBackoff: 2 * time.Second,
		errorBackoff:   3 * time.Second,
	}
}

// Start consumes the queue until ctx is cancelled, then flushes what it holds.
func (w *ViolationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ViolationWorker started")

	buffer := make([]model.ViolationEvent, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Check Flush Conditions (Time or Size)
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Check Context (Graceful Shutdown)
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis
		// BLPop blocks for 1 second. Returns immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistViolationsQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, backing off")
			w.sleep(ctx, w.errorBackoff)
			continue
		}

		// 4. Process Data
		if len(result) < 2 {
			continue
		}

		var ev model.ViolationEvent
		if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
			// Malformed JSON can never succeed. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed violation")
			continue
		}

		buffer = append(buffer, ev)
	}
}

// flushSafe attempts bulk insert, then row-by-row insert, then requeue.
func (w *ViolationWorker) flushSafe(ctx context.Context, batch []model.ViolationEvent) {
	if err := w.store.BulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
		return
	}
	w.log.Debug().Int("count", len(batch)).Msg("Violations persisted")
}

func (w *ViolationWorker) fallbackInsert(ctx context.Context, batch []model.ViolationEvent) {
	var requeueList []model.ViolationEvent

	for _, ev := range batch {
		err := w.store.Insert(ctx, ev)
		switch {
		case err == nil:
		case rejected(err):
			// The row can never be stored, e.g. its exam was deleted.
			w.log.Error().
				Err(err).
				Str("exam_id", ev.ExamID.String()).
				Str("student_id", ev.StudentID).
				Msg("Violation rejected by database, discarding")
		default:
			w.log.Error().Err(err).Str("student_id", ev.StudentID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, ev)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

// rejected reports whether PostgreSQL refused the row itself, so retrying
// cannot succeed.
func rejected(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) || pgerrcode.IsDataException(pgErr.Code)
}

func (w *ViolationWorker) requeue(ctx context.Context, items []model.ViolationEvent) {
	pipe := w.rdb.Pipeline()
	for _, ev := range items {
		data, _ := json.Marshal(ev)
		pipe.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue violations. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed violations")
	// Avoid thrashing while the database is down.
	w.sleep(ctx, w.requeueBackoff)
}

func (w *ViolationWorker) shutdown(buffer []model.ViolationEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}

func (w *ViolationWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
