package scoring

import "github.com/stemsi/exstem-engine/internal/model"

// AnswerShape describes the student answer form a question type expects.
type AnswerShape string

const (
	ShapeScalar AnswerShape = "scalar"
	ShapeList   AnswerShape = "list"
	ShapePairs  AnswerShape = "pairs"
)

// TypeInfo describes one supported question type.
type TypeInfo struct {
	Type        model.QuestionType `json:"type"`
	AutoGraded  bool               `json:"auto_graded"`
	PartialCred bool               `json:"partial_credit"`
	AnswerShape AnswerShape        `json:"answer_shape"`
	KeyShape    string             `json:"key_shape"`
}

var catalog = []TypeInfo{
	{Type: model.QuestionTypeMultipleChoice, AutoGraded: true, AnswerShape: ShapeScalar, KeyShape: `{"answer": key}`},
	{Type: model.QuestionTypeTrueFalse, AutoGraded: true, AnswerShape: ShapeScalar, KeyShape: `{"answer": "T"|"F"}`},
	{Type: model.QuestionTypeMultipleSelection, AutoGraded: true, PartialCred: true, AnswerShape: ShapeList, KeyShape: `{"answers": [key, ...]}`},
	{Type: model.QuestionTypeMatching, AutoGraded: true, PartialCred: true, AnswerShape: ShapePairs, KeyShape: `{"pairs": {left: right}}`},
	{Type: model.QuestionTypeSequence, AutoGraded: true, AnswerShape: ShapeList, KeyShape: `{"order": [item, ...]}`},
	{Type: model.QuestionTypeMathInput, AutoGraded: true, AnswerShape: ShapeScalar, KeyShape: `{"answer": number, "tolerance": number}`},
	{Type: model.QuestionTypeShortAnswer, AutoGraded: true, AnswerShape: ShapeScalar, KeyShape: `{"answers": [string, ...]}`},
	{Type: model.QuestionTypeArabicResponse, AutoGraded: true, AnswerShape: ShapeScalar, KeyShape: `{"answers": [string, ...]}`},
	{Type: model.QuestionTypeJavaneseResponse, AutoGraded: true, AnswerShape: ShapeScalar, KeyShape: `{"answers": [string, ...]}`},
	{Type: model.QuestionTypeEssay, AutoGraded: false, AnswerShape: ShapeScalar, KeyShape: `{}`},
	{Type: model.QuestionTypeArrangeWords, AutoGraded: true, AnswerShape: ShapeList, KeyShape: `{"words": [string, ...]}`},
}

var catalogIndex = func() map[model.QuestionType]TypeInfo {
	idx := make(map[model.QuestionType]TypeInfo, len(catalog))
	for _, info := range catalog {
		idx[info.Type] = info
	}
	return idx
}()

// Catalog returns every supported question type.
func Catalog() []TypeInfo {
	out := make([]TypeInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for qType.
func Lookup(qType model.QuestionType) (TypeInfo, bool) {
	info, ok := catalogIndex[qType]
	return info, ok
}

// Accepts reports whether ans has a shape qType can grade. Unknown types
// accept anything; they score zero regardless.
func Accepts(qType model.QuestionType, ans *Answer) bool {
	if ans == nil {
		return true
	}
	info, ok := Lookup(qType)
	if !ok {
		return true
	}
	switch info.AnswerShape {
	case ShapeScalar:
		_, ok = ans.Text()
	case ShapeList:
		_, ok = ans.List()
	case ShapePairs:
		_, ok = ans.Pairs()
	}
	return ok
}
