package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stemsi/exstem-engine/internal/model"
)

// ErrMalformedKey is returned when an answer key does not match its question type.
var ErrMalformedKey = errors.New("malformed answer key")

// AnswerKey is the typed answer-key payload of one question type.
type AnswerKey interface {
	QuestionType() model.QuestionType
}

// MultipleChoiceKey: {"answer": key}.
type MultipleChoiceKey struct{ Answer string }

// TrueFalseKey: {"answer": "T"|"F"}.
type TrueFalseKey struct{ Answer string }

// MultipleSelectionKey: {"answers": [key, ...]}.
type MultipleSelectionKey struct{ Answers []string }

// MatchingKey: {"pairs": {left: right}}.
type MatchingKey struct{ Pairs map[string]string }

// SequenceKey: {"order": [item, ...]}.
type SequenceKey struct{ Order []string }

// MathInputKey: {"answer": number, "tolerance": number}.
type MathInputKey struct {
	Answer    float64
	Tolerance float64
}

// TextResponseKey covers short_answer, arabic_response and javanese_response:
// {"answers": [string, ...]} with a legacy single "answer" folded in.
type TextResponseKey struct {
	Type    model.QuestionType
	Answers []string
}

// EssayKey carries no key; essays are graded by hand.
type EssayKey struct{}

// ArrangeWordsKey: {"words": [string, ...]}.
type ArrangeWordsKey struct{ Words []string }

func (MultipleChoiceKey) QuestionType() model.QuestionType {
	return model.QuestionTypeMultipleChoice
}

func (TrueFalseKey) QuestionType() model.QuestionType {
	return model.QuestionTypeTrueFalse
}

func (MultipleSelectionKey) QuestionType() model.QuestionType {
	return model.QuestionTypeMultipleSelection
}

func (MatchingKey) QuestionType() model.QuestionType {
	return model.QuestionTypeMatching
}

func (SequenceKey) QuestionType() model.QuestionType {
	return model.QuestionTypeSequence
}

func (MathInputKey) QuestionType() model.QuestionType {
	return model.QuestionTypeMathInput
}

func (k TextResponseKey) QuestionType() model.QuestionType {
	if k.Type == "" {
		return model.QuestionTypeShortAnswer
	}
	return k.Type
}

func (EssayKey) QuestionType() model.QuestionType {
	return model.QuestionTypeEssay
}

func (ArrangeWordsKey) QuestionType() model.QuestionType {
	return model.QuestionTypeArrangeWords
}

// ParseKey decodes a raw answer-key payload into the typed key for qType.
func ParseKey(qType model.QuestionType, raw json.RawMessage) (AnswerKey, error) {
	if qType == model.QuestionTypeEssay {
		return EssayKey{}, nil
	}
	if _, ok := Lookup(qType); !ok {
		return nil, fmt.Errorf("%w: unknown question type %q", ErrMalformedKey, qType)
	}

	v, err := decodeLoose(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object", ErrMalformedKey)
	}

	switch qType {
	case model.QuestionTypeMultipleChoice:
		s, ok := scalarString(obj["answer"])
		if !ok {
			return nil, fmt.Errorf("%w: answer is required", ErrMalformedKey)
		}
		return MultipleChoiceKey{Answer: s}, nil

	case model.QuestionTypeTrueFalse:
		s, ok := scalarString(obj["answer"])
		if !ok {
			return nil, fmt.Errorf("%w: answer is required", ErrMalformedKey)
		}
		tf, ok := normalizeTrueFalse(s)
		if !ok {
			return nil, fmt.Errorf("%w: answer must be T or F", ErrMalformedKey)
		}
		return TrueFalseKey{Answer: tf}, nil

	case model.QuestionTypeMultipleSelection:
		list, ok := stringList(obj["answers"])
		if !ok || len(list) == 0 {
			return nil, fmt.Errorf("%w: answers must be a non-empty list", ErrMalformedKey)
		}
		return MultipleSelectionKey{Answers: list}, nil

	case model.QuestionTypeMatching:
		m, ok := obj["pairs"].(map[string]any)
		if !ok || len(m) == 0 {
			return nil, fmt.Errorf("%w: pairs must be a non-empty object", ErrMalformedKey)
		}
		pairs := make(map[string]string, len(m))
		for left, right := range m {
			s, ok := pairTarget(right)
			if !ok {
				return nil, fmt.Errorf("%w: invalid pair %q", ErrMalformedKey, left)
			}
			pairs[left] = s
		}
		return MatchingKey{Pairs: pairs}, nil

	case model.QuestionTypeSequence:
		list, ok := stringList(obj["order"])
		if !ok || len(list) == 0 {
			return nil, fmt.Errorf("%w: order must be a non-empty list", ErrMalformedKey)
		}
		return SequenceKey{Order: list}, nil

	case model.QuestionTypeMathInput:
		answer, ok := number(obj["answer"])
		if !ok {
			return nil, fmt.Errorf("%w: answer must be numeric", ErrMalformedKey)
		}
		tolerance := 0.0
		if raw, present := obj["tolerance"]; present && raw != nil {
			if tolerance, ok = number(raw); !ok || tolerance < 0 {
				return nil, fmt.Errorf("%w: tolerance must be a non-negative number", ErrMalformedKey)
			}
		}
		return MathInputKey{Answer: answer, Tolerance: tolerance}, nil

	case model.QuestionTypeShortAnswer, model.QuestionTypeArabicResponse, model.QuestionTypeJavaneseResponse:
		answers, _ := stringList(obj["answers"])
		if legacy, ok := scalarString(obj["answer"]); ok && strings.TrimSpace(legacy) != "" {
			answers = append(answers, legacy)
		}
		if len(answers) == 0 {
			return nil, fmt.Errorf("%w: at least one accepted answer is required", ErrMalformedKey)
		}
		return TextResponseKey{Type: qType, Answers: answers}, nil

	case model.QuestionTypeArrangeWords:
		list, ok := stringList(obj["words"])
		if !ok || len(list) == 0 {
			return nil, fmt.Errorf("%w: words must be a non-empty list", ErrMalformedKey)
		}
		return ArrangeWordsKey{Words: list}, nil
	}

	return nil, fmt.Errorf("%w: unknown question type %q", ErrMalformedKey, qType)
}

func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := scalarString(it)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		return parseNumber(t)
	}
	return 0, false
}

// parseNumber accepts both "3.5" and the comma-decimal "3,5".
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return 0, false
		}
	}
	return f, true
}

func normalizeTrueFalse(s string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "T", "TRUE", "B", "BENAR":
		return "T", true
	case "F", "FALSE", "S", "SALAH":
		return "F", true
	}
	return "", false
}
