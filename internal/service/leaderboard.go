package service

import (
	"sort"

	"github.com/stemsi/exstem-engine/internal/model"
)

// outranks reports whether a is strictly ahead of b.
func outranks(a, b model.ExamResult) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	return a.ScorePercent > b.ScorePercent
}

// Rank returns 1 + the number of results strictly ahead of target. Results
// tied on both score and percent share a rank, and the ranks after a tie skip.
func Rank(results []model.ExamResult, target model.ExamResult) int {
	rank := 1
	for _, r := range results {
		if outranks(r, target) {
			rank++
		}
	}
	return rank
}

// RankAll orders results best first and fills in each Rank.
func RankAll(results []model.RankedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return outranks(results[i].ExamResult, results[j].ExamResult)
	})
	for i := range results {
		if i > 0 && !outranks(results[i-1].ExamResult, results[i].ExamResult) {
			results[i].Rank = results[i-1].Rank
			continue
		}
		results[i].Rank = i + 1
	}
}
