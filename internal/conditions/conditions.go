// Package conditions decides per-question visibility from the current answers.
//
// Two evaluators are exposed on purpose. IsFieldVisible drives what the user
// sees and fails open on operators it does not recognize, so a config typo
// degrades to showing a question rather than silently swallowing it.
// EvaluateCondition is the strict building block for programmatic checks and
// fails closed on unknown operators.
package conditions

import (
	"strings"

	"github.com/formscore/formscore/internal/schema"
)

// IsFieldVisible reports whether a question should currently be shown.
//
// A question without conditional logic is always visible. When the referenced
// answer is absent or the empty string the question is hidden regardless of
// operator; this guard runs before any comparison. A present numeric zero or
// an empty checkbox selection is NOT treated as absent.
func IsFieldVisible(q *schema.Question, values schema.FormValues) bool {
	c := q.Conditional
	if c == nil {
		return true
	}

	current, ok := values[c.QuestionID]
	if !ok || current.IsBlank() {
		return false
	}

	return evalOperator(c, current, true)
}

// VisibleQuestions filters questions through IsFieldVisible.
func VisibleQuestions(questions []schema.Question, values schema.FormValues) []schema.Question {
	visible := make([]schema.Question, 0, len(questions))
	for _, q := range questions {
		if IsFieldVisible(&q, values) {
			visible = append(visible, q)
		}
	}
	return visible
}

// EvaluateCondition applies the operator table directly to a value. Unlike
// IsFieldVisible it returns false for operators it does not recognize.
func EvaluateCondition(c *schema.ConditionalLogic, current schema.Value) bool {
	if c == nil {
		return true
	}
	if current.IsBlank() {
		return false
	}
	return evalOperator(c, current, false)
}

func evalOperator(c *schema.ConditionalLogic, current schema.Value, unknownResult bool) bool {
	op := c.Operator
	if op == "" {
		op = schema.OpEquals
	}

	switch op {
	case schema.OpEquals:
		return equals(c.Answer, current)
	case schema.OpIncludes:
		return includes(c.Answer, current)
	case schema.OpGreaterThan:
		return compareNumeric(current, c.Answer, func(a, b float64) bool { return a > b })
	case schema.OpLessThan:
		return compareNumeric(current, c.Answer, func(a, b float64) bool { return a < b })
	default:
		return unknownResult
	}
}

// equals handles the array forms first: an array answer matches when any of
// its elements intersects the current value (array-in-array, or array
// containing the scalar). Scalars compare strictly.
func equals(answer, current schema.Value) bool {
	if answer.Kind() == schema.KindStringList {
		for _, want := range answer.List() {
			if current.Kind() == schema.KindStringList {
				if current.Contains(want) {
					return true
				}
			} else if current.AsString() == want {
				return true
			}
		}
		return false
	}
	return current.Equal(answer)
}

func includes(answer, current schema.Value) bool {
	needle := answer.AsString()
	if current.Kind() == schema.KindStringList {
		return current.Contains(needle)
	}
	return strings.Contains(current.AsString(), needle)
}

func compareNumeric(current, answer schema.Value, cmp func(a, b float64) bool) bool {
	a, ok := current.AsNumber()
	if !ok {
		return false
	}
	b, ok := answer.AsNumber()
	if !ok {
		return false
	}
	return cmp(a, b)
}
