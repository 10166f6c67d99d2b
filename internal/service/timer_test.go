package service

import (
	"testing"
	"time"

	"github.com/stemsi/exstem-engine/internal/model"
)

func TestRemainingSeconds(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	early := start.Add(30 * time.Minute)
	late := start.Add(2 * time.Hour)

	tests := []struct {
		name string
		end  *time.Time
		now  time.Time
		want int
	}{
		{"duration only", nil, start.Add(15 * time.Minute), 45 * 60},
		{"hard end earlier", &early, start.Add(15 * time.Minute), 15 * 60},
		{"hard end later", &late, start.Add(15 * time.Minute), 45 * 60},
		{"half a second left", nil, start.Add(60*time.Minute - 500*time.Millisecond), 0},
		{"exactly one second left", nil, start.Add(59*time.Minute + 59*time.Second), 1},
		{"exactly at deadline", nil, start.Add(60 * time.Minute), 0},
		{"one second past deadline", nil, start.Add(60*time.Minute + time.Second), 0},
		{"long past hard end", &early, start.Add(5 * time.Hour), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			attempt := &model.ExamSession{StartedAt: start}
			exam := &model.Exam{DurationMinutes: 60, EndTime: tc.end}
			if got := RemainingSeconds(attempt, exam, tc.now); got != tc.want {
				t.Fatalf("RemainingSeconds = %d, want %d", got, tc.want)
			}
			if expired := Expired(attempt, exam, tc.now); expired != (tc.want == 0) {
				t.Fatalf("Expired = %v with %d seconds remaining", expired, tc.want)
			}
		})
	}
}
