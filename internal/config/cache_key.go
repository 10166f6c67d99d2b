package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionPaperKey returns the cache key for an attempt's student-facing question paper
func (r *CacheKeyStruct) SessionPaperKey(sessionID string) string {
	return fmt.Sprintf("session:%s:paper", sessionID)
}

// StudentAnswerRateKey returns the fixed-window counter key for a student's answer saves
func (r *CacheKeyStruct) StudentAnswerRateKey(studentID int, window int64) string {
	return fmt.Sprintf("student:%d:answer_rate:%d", studentID, window)
}

var CacheKey = NewCacheKeyStruct()
