package service

import (
	"testing"

	"github.com/stemsi/exstem-engine/internal/model"
)

func result(total, percent float64) model.ExamResult {
	return model.ExamResult{TotalScore: total, ScorePercent: percent}
}

func TestRank(t *testing.T) {
	results := []model.ExamResult{result(100, 100), result(90, 90), result(80, 80)}

	tests := []struct {
		target model.ExamResult
		want   int
	}{
		{result(100, 100), 1},
		{result(90, 90), 2},
		{result(80, 80), 3},
	}
	for _, tc := range tests {
		if got := Rank(results, tc.target); got != tc.want {
			t.Errorf("Rank(%v) = %d, want %d", tc.target.TotalScore, got, tc.want)
		}
	}
}

func TestRank_TiesShareRankAndSkip(t *testing.T) {
	results := []model.ExamResult{result(100, 100), result(90, 90), result(90, 90), result(80, 80)}

	if got := Rank(results, result(90, 90)); got != 2 {
		t.Fatalf("tied 90 rank = %d, want 2", got)
	}
	if got := Rank(results, result(80, 80)); got != 4 {
		t.Fatalf("80 rank = %d, want 4", got)
	}
}

func TestRank_PercentBreaksScoreTie(t *testing.T) {
	results := []model.ExamResult{result(90, 95), result(90, 90)}

	if got := Rank(results, result(90, 90)); got != 2 {
		t.Fatalf("rank = %d, want 2", got)
	}
}

func TestRankAll(t *testing.T) {
	ranked := []model.RankedResult{
		{ExamResult: result(80, 80)},
		{ExamResult: result(90, 90)},
		{ExamResult: result(100, 100)},
		{ExamResult: result(90, 90)},
	}
	RankAll(ranked)

	want := []struct {
		total float64
		rank  int
	}{{100, 1}, {90, 2}, {90, 2}, {80, 4}}
	for i, w := range want {
		if ranked[i].TotalScore != w.total || ranked[i].Rank != w.rank {
			t.Errorf("position %d = (%v, %d), want (%v, %d)", i, ranked[i].TotalScore, ranked[i].Rank, w.total, w.rank)
		}
	}
}
