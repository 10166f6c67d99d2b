package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stemsi/exstem-engine/internal/model"
)

// ErrMalformedAnswer is returned when a student answer payload cannot be decoded.
var ErrMalformedAnswer = errors.New("malformed answer payload")

type answerKind int

const (
	answerScalar answerKind = iota + 1
	answerList
	answerPairs
)

// Answer is a decoded student answer. It is one of a scalar, an ordered list
// of scalars, or a left->right mapping.
type Answer struct {
	kind  answerKind
	text  string
	list  []string
	pairs map[string]string
}

// TextAnswer builds a scalar answer.
func TextAnswer(s string) *Answer { return &Answer{kind: answerScalar, text: s} }

// ListAnswer builds an ordered list answer.
func ListAnswer(items ...string) *Answer { return &Answer{kind: answerList, list: items} }

// PairsAnswer builds a matching answer.
func PairsAnswer(pairs map[string]string) *Answer { return &Answer{kind: answerPairs, pairs: pairs} }

// Text returns the scalar form of the answer.
func (a *Answer) Text() (string, bool) {
	if a == nil || a.kind != answerScalar {
		return "", false
	}
	return a.text, true
}

// List returns the list form. A scalar is promoted to a single-element list.
func (a *Answer) List() ([]string, bool) {
	if a == nil {
		return nil, false
	}
	switch a.kind {
	case answerList:
		return a.list, true
	case answerScalar:
		return []string{a.text}, true
	}
	return nil, false
}

// Pairs returns the mapping form of the answer.
func (a *Answer) Pairs() (map[string]string, bool) {
	if a == nil || a.kind != answerPairs {
		return nil, false
	}
	return a.pairs, true
}

// MarshalJSON encodes the answer in its single-encoded canonical form.
func (a *Answer) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	switch a.kind {
	case answerList:
		return json.Marshal(a.list)
	case answerPairs:
		return json.Marshal(a.pairs)
	default:
		return json.Marshal(a.text)
	}
}

// ParseAnswer decodes a raw answer payload. A JSON string that itself holds a
// JSON array or object is decoded once more, so double-encoded payloads reach
// the scoring rules already normalized. A null or empty payload yields nil.
func ParseAnswer(raw json.RawMessage) (*Answer, error) {
	v, err := decodeLoose(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}
	if v == nil {
		return nil, nil
	}

	switch t := v.(type) {
	case []any:
		if pairs, ok := pairsFromList(t); ok {
			return PairsAnswer(pairs), nil
		}
		items := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := scalarString(it)
			if !ok {
				return nil, fmt.Errorf("%w: list items must be scalars", ErrMalformedAnswer)
			}
			items = append(items, s)
		}
		return ListAnswer(items...), nil
	case map[string]any:
		pairs := make(map[string]string, len(t))
		for left, right := range t {
			s, ok := pairTarget(right)
			if !ok {
				return nil, fmt.Errorf("%w: invalid mapping for %q", ErrMalformedAnswer, left)
			}
			pairs[left] = s
		}
		return PairsAnswer(pairs), nil
	default:
		s, ok := scalarString(t)
		if !ok {
			return nil, ErrMalformedAnswer
		}
		return TextAnswer(s), nil
	}
}

// ParseAnswerFor decodes raw for a question of qType. Types graded on a
// single value take a JSON string literally, so text such as "[2]" is scored
// as written rather than unwrapped into a list.
func ParseAnswerFor(qType model.QuestionType, raw json.RawMessage) (*Answer, error) {
	info, ok := Lookup(qType)
	if ok && info.AnswerShape == ShapeScalar && strings.HasPrefix(strings.TrimSpace(string(raw)), `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
		}
		return TextAnswer(s), nil
	}
	return ParseAnswer(raw)
}

// decodeLoose unmarshals raw, unwrapping one level of string-encoded JSON.
func decodeLoose(raw json.RawMessage) (any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, err
	}

	if s, ok := v.(string); ok {
		inner := strings.TrimSpace(s)
		if (strings.HasPrefix(inner, "[") || strings.HasPrefix(inner, "{")) && json.Valid([]byte(inner)) {
			var decoded any
			if err := json.Unmarshal([]byte(inner), &decoded); err == nil {
				return decoded, nil
			}
		}
	}
	return v, nil
}

// pairsFromList accepts the [{"left":..,"right":..}] matching form.
func pairsFromList(items []any) (map[string]string, bool) {
	if len(items) == 0 {
		return nil, false
	}
	pairs := make(map[string]string, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			return nil, false
		}
		left, okL := scalarString(obj["left"])
		right, okR := pairTarget(obj["right"])
		if !okL || !okR {
			return nil, false
		}
		pairs[left] = right
	}
	return pairs, true
}

// pairTarget resolves the right-hand side of a matching pair, which may be a
// bare key or an object carrying one.
func pairTarget(v any) (string, bool) {
	if obj, ok := v.(map[string]any); ok {
		for _, field := range []string{"key", "id", "value", "right"} {
			if s, ok := scalarString(obj[field]); ok {
				return s, true
			}
		}
		return "", false
	}
	return scalarString(v)
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// normalizeKey trims s and canonicalizes numeric strings so "1", "1.0" and 1
// compare equal.
func normalizeKey(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}
