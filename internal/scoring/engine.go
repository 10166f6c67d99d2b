// Package scoring grades student answers against typed answer keys.
//
// Every rule is a pure function of (key, answer, max score). Binary rules
// award the full max score or zero; ratio rules round to one decimal place and
// never go negative. Essays are never auto-scored.
package scoring

import (
	"math"
	"strings"

	"github.com/stemsi/exstem-engine/internal/model"
)

// mathEpsilon absorbs float noise when comparing against a tolerance.
const mathEpsilon = 1e-9

// Result is the outcome of grading one answer.
type Result struct {
	Score   float64 `json:"score"`
	Correct *bool   `json:"correct"`
	// Manual is set for hand-graded types: the caller keeps whatever grade a
	// human already recorded.
	Manual bool `json:"manual"`
}

// IsCorrect reports the correctness flag, treating ungraded as false.
func (r Result) IsCorrect() bool {
	return r.Correct != nil && *r.Correct
}

// Score grades ans against key. A nil answer scores zero before any type
// dispatch; an unrecognized key type scores zero as well.
func Score(key AnswerKey, ans *Answer, maxScore float64) Result {
	if ans == nil {
		return wrong()
	}
	if maxScore < 0 {
		maxScore = 0
	}

	switch k := key.(type) {
	case MultipleChoiceKey:
		text, ok := ans.Text()
		return binary(ok && normalizeKey(text) == normalizeKey(k.Answer), maxScore)

	case TrueFalseKey:
		text, ok := ans.Text()
		if !ok {
			return wrong()
		}
		tf, ok := normalizeTrueFalse(text)
		return binary(ok && tf == k.Answer, maxScore)

	case MultipleSelectionKey:
		return scoreMultipleSelection(k, ans, maxScore)

	case MatchingKey:
		return scoreMatching(k, ans, maxScore)

	case SequenceKey:
		list, ok := ans.List()
		return binary(ok && equalOrdered(list, k.Order, normalizeKey), maxScore)

	case MathInputKey:
		text, ok := ans.Text()
		if !ok {
			return wrong()
		}
		v, ok := parseNumber(text)
		return binary(ok && math.Abs(v-k.Answer) <= k.Tolerance+mathEpsilon, maxScore)

	case TextResponseKey:
		text, ok := ans.Text()
		if !ok {
			return wrong()
		}
		given := strings.TrimSpace(text)
		for _, accepted := range k.Answers {
			if strings.EqualFold(given, strings.TrimSpace(accepted)) {
				return binary(true, maxScore)
			}
		}
		return wrong()

	case EssayKey:
		return Result{Manual: true}

	case ArrangeWordsKey:
		list, ok := ans.List()
		return binary(ok && equalOrdered(list, k.Words, strings.TrimSpace), maxScore)
	}

	return wrong()
}

// ScoreQuestion parses the snapshot's key and grades ans against it. A key
// that fails to parse degrades to zero instead of failing the caller.
func ScoreQuestion(q *model.ExamQuestion, ans *Answer) Result {
	if ans == nil {
		return wrong()
	}
	key, err := ParseKey(q.Type, q.AnswerKey)
	if err != nil {
		return wrong()
	}
	return Score(key, ans, q.MaxScore)
}

// scoreMultipleSelection applies net scoring: every wrong selection cancels a
// right one, and the net is scaled against the size of the correct set.
func scoreMultipleSelection(k MultipleSelectionKey, ans *Answer, maxScore float64) Result {
	selected, ok := ans.List()
	if !ok {
		return wrong()
	}
	correct := toSet(k.Answers)
	if len(correct) == 0 {
		return wrong()
	}

	chosen := toSet(selected)
	right := 0
	for s := range chosen {
		if _, ok := correct[s]; ok {
			right++
		}
	}
	wrongCount := len(chosen) - right
	net := right - wrongCount
	if net < 0 {
		net = 0
	}

	return ratio(float64(net)/float64(len(correct)), maxScore)
}

func scoreMatching(k MatchingKey, ans *Answer, maxScore float64) Result {
	given, ok := ans.Pairs()
	if !ok || len(k.Pairs) == 0 {
		return wrong()
	}

	matched := 0
	for left, right := range k.Pairs {
		if got, ok := given[left]; ok && normalizeKey(got) == normalizeKey(right) {
			matched++
		}
	}
	return ratio(float64(matched)/float64(len(k.Pairs)), maxScore)
}

func binary(ok bool, maxScore float64) Result {
	if ok {
		return Result{Score: maxScore, Correct: boolPtr(true)}
	}
	return wrong()
}

func ratio(r, maxScore float64) Result {
	if r < 0 {
		r = 0
	}
	return Result{Score: round1(maxScore * r), Correct: boolPtr(r == 1.0)}
}

func wrong() Result {
	return Result{Score: 0, Correct: boolPtr(false)}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[normalizeKey(it)] = struct{}{}
	}
	return set
}

func equalOrdered(got, want []string, norm func(string) string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if norm(got[i]) != norm(want[i]) {
			return false
		}
	}
	return true
}

func boolPtr(v bool) *bool {
	return &v
}
