package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PublicExamKey returns the cache key for an exam's student-facing payload.
func (r *CacheKeyStruct) PublicExamKey(examID string) string {
	return fmt.Sprintf("exam:%s:public", examID)
}

// AnswerKeyKey returns the cache key for an exam's ordered correct-option list.
func (r *CacheKeyStruct) AnswerKeyKey(examID string) string {
	return fmt.Sprintf("exam:%s:answer_key", examID)
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam's live proctor feed.
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

var CacheKey = NewCacheKeyStruct()
