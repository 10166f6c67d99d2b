package service

import "github.com/stemsi/exstem-engine/internal/model"

// ResultSelector picks the attempt that backs a student's canonical result.
// finished holds every finished attempt of the student, oldest first, and
// always includes current.
type ResultSelector interface {
	Select(current model.ExamSession, finished []model.ExamSession) model.ExamSession
}

// OfficialSelector uses the attempt that was just finalized.
type OfficialSelector struct{}

func (OfficialSelector) Select(current model.ExamSession, _ []model.ExamSession) model.ExamSession {
	return current
}

// BestAttemptSelector uses the highest (total score, percent) attempt; the
// earlier attempt wins a tie.
type BestAttemptSelector struct{}

func (BestAttemptSelector) Select(current model.ExamSession, finished []model.ExamSession) model.ExamSession {
	best := current
	for _, s := range finished {
		if s.ID == current.ID {
			s = current
		}
		if betterAttempt(s, best) || (sameScore(s, best) && s.AttemptNumber < best.AttemptNumber) {
			best = s
		}
	}
	return best
}

// LatestAttemptSelector uses the finished attempt with the highest number.
type LatestAttemptSelector struct{}

func (LatestAttemptSelector) Select(current model.ExamSession, finished []model.ExamSession) model.ExamSession {
	latest := current
	for _, s := range finished {
		if s.AttemptNumber > latest.AttemptNumber {
			latest = s
		}
	}
	return latest
}

// SelectorFor returns the selector of a policy, defaulting to official.
func SelectorFor(policy model.ResultPolicy) ResultSelector {
	switch policy {
	case model.ResultPolicyBest:
		return BestAttemptSelector{}
	case model.ResultPolicyLatest:
		return LatestAttemptSelector{}
	default:
		return OfficialSelector{}
	}
}

func betterAttempt(a, b model.ExamSession) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	return scorePercent(a.TotalScore, a.TotalAchievable) > scorePercent(b.TotalScore, b.TotalAchievable)
}

func sameScore(a, b model.ExamSession) bool {
	return !betterAttempt(a, b) && !betterAttempt(b, a)
}

// scorePercent is total/achievable as a percentage, or 0 when nothing is achievable.
func scorePercent(total, achievable float64) float64 {
	if achievable <= 0 {
		return 0
	}
	return total / achievable * 100
}
