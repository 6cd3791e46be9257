package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/model"
)

// ProctorFeed fans live session events out to examiners and queues
// violations for the persistence worker.
type ProctorFeed struct {
	rdb        *redis.Client
	violations ViolationStore
	log        zerolog.Logger
}

// NewProctorFeed creates a new ProctorFeed.
func NewProctorFeed(rdb *redis.Client, violations ViolationStore, log zerolog.Logger) *ProctorFeed {
	return &ProctorFeed{
		rdb:        rdb,
		violations: violations,
		log:        log.With().Str("component", "proctor_feed").Logger(),
	}
}

// Publish sends ev on the exam's monitor channel.
func (f *ProctorFeed) Publish(ctx context.Context, ev model.MonitorEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal monitor event: %w", err)
	}
	channel := config.CacheKey.ExamMonitorChannel(ev.ExamID.String())
	if err := f.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish monitor event: %w", err)
	}
	return nil
}

// QueueViolation pushes a violation onto the persistence queue.
func (f *ProctorFeed) QueueViolation(ctx context.Context, ev model.ViolationEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal violation: %w", err)
	}
	if err := f.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data).Err(); err != nil {
		return fmt.Errorf("queue violation: %w", err)
	}
	return nil
}

// Subscribe opens a subscription to the exam's monitor channel.
// The caller must Close the returned PubSub.
func (f *ProctorFeed) Subscribe(ctx context.Context, examID uuid.UUID) *redis.PubSub {
	return f.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
}

// Recent returns the newest persisted violations of an exam, oldest first.
func (f *ProctorFeed) Recent(ctx context.Context, examID uuid.UUID, limit int) ([]model.ViolationEvent, error) {
	events, err := f.violations.ListRecent(ctx, examID, limit)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}
