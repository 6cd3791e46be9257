package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationEvent is one entry of the live proctor log of an exam.
type ViolationEvent struct {
	ExamID      uuid.UUID `json:"exam_id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Tag         string    `json:"tag"`
	Score       int       `json:"score"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// MonitorEventType enumerates live proctor feed messages.
type MonitorEventType string

const (
	MonitorEventJoined    MonitorEventType = "joined"
	MonitorEventViolation MonitorEventType = "violation"
	MonitorEventFinalized MonitorEventType = "finalized"
	MonitorEventSubmitted MonitorEventType = "submitted"
	MonitorEventLeft      MonitorEventType = "left"
)

// MonitorEvent is published on an exam's live proctor channel.
type MonitorEvent struct {
	Type        MonitorEventType `json:"type"`
	ExamID      uuid.UUID        `json:"exam_id"`
	StudentID   string           `json:"student_id"`
	StudentName string           `json:"student_name"`
	Tag         string           `json:"tag,omitempty"`
	Score       int              `json:"violation_score"`
	Status      SessionStatus    `json:"status,omitempty"`
	AttemptID   *uuid.UUID       `json:"attempt_id,omitempty"`
	At          time.Time        `json:"at"`
}
