package schema

import (
	"encoding/json"
	"fmt"
)

// ParseConfig decodes and integrity-checks a form config.
func ParseConfig(data []byte) (*FormConfig, error) {
	var cfg FormConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("schema: failed to decode form config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural integrity: non-empty ids, question ids unique
// across the whole config, option values unique within a question, and
// non-negative risk weights. Conditional references are intentionally not
// enforced here.
func (c *FormConfig) Validate() error {
	if c.ID == "" {
		return ErrEmptyConfigID
	}
	if len(c.Sections) == 0 {
		return ErrNoSections
	}

	seenSections := make(map[string]struct{}, len(c.Sections))
	seenQuestions := make(map[string]struct{})
	for _, section := range c.Sections {
		if section.ID == "" {
			return fmt.Errorf("schema: config %q has a section without an id", c.ID)
		}
		if _, dup := seenSections[section.ID]; dup {
			return fmt.Errorf("schema: duplicate section id %q", section.ID)
		}
		seenSections[section.ID] = struct{}{}

		for _, q := range section.Questions {
			if q.ID == "" {
				return fmt.Errorf("schema: section %q has a question without an id", section.ID)
			}
			if _, dup := seenQuestions[q.ID]; dup {
				return fmt.Errorf("schema: duplicate question id %q", q.ID)
			}
			seenQuestions[q.ID] = struct{}{}

			if err := validateQuestion(&q); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateQuestion(q *Question) error {
	switch q.Type {
	case TypeText, TypeNumber, TypeSelect, TypeCheckbox, TypeFile, TypeDate:
	default:
		return fmt.Errorf("schema: question %q has unknown type %q", q.ID, q.Type)
	}
	if q.RiskWeight < 0 {
		return fmt.Errorf("schema: question %q has negative risk weight", q.ID)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if _, dup := seen[opt.Value]; dup {
			return fmt.Errorf("schema: question %q has duplicate option value %q", q.ID, opt.Value)
		}
		seen[opt.Value] = struct{}{}
	}
	return nil
}

// EffectiveMaxRiskScore returns maxRiskScore or the default when unset.
func (c *FormConfig) EffectiveMaxRiskScore() float64 {
	if c.MaxRiskScore > 0 {
		return c.MaxRiskScore
	}
	return DefaultMaxRiskScore
}

// Questions returns all questions across sections in document order.
func (c *FormConfig) Questions() []Question {
	var out []Question
	for _, s := range c.Sections {
		out = append(out, s.Questions...)
	}
	return out
}

// Question looks up a question by id.
func (c *FormConfig) Question(id string) (*Question, bool) {
	for si := range c.Sections {
		for qi := range c.Sections[si].Questions {
			if c.Sections[si].Questions[qi].ID == id {
				return &c.Sections[si].Questions[qi], true
			}
		}
	}
	return nil, false
}

// FindOption looks up an option on a question by its value.
func (q *Question) FindOption(value string) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].Value == value {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// CheckShapes verifies every supplied answer's runtime shape against the
// question's declared type, rejecting mismatches at the ingestion boundary.
// Answers for unknown question ids pass through untouched; visibility
// conditions may reference values the config does not own.
func (values FormValues) CheckShapes(cfg *FormConfig) error {
	for _, q := range cfg.Questions() {
		v, ok := values[q.ID]
		if !ok || v.Kind() == KindEmpty {
			continue
		}
		if !shapeMatches(q.Type, v.Kind()) {
			return fmt.Errorf("%w: question %q (%s) got %s answer",
				ErrShapeMismatch, q.ID, q.Type, kindName(v.Kind()))
		}
	}
	return nil
}

func shapeMatches(qt QuestionType, k Kind) bool {
	switch qt {
	case TypeText, TypeDate, TypeSelect:
		return k == KindString
	case TypeNumber:
		// HTML inputs deliver numbers as strings; validation reports
		// coercion failures with a field-level message.
		return k == KindNumber || k == KindString
	case TypeCheckbox:
		return k == KindStringList
	case TypeFile:
		return k == KindFileList
	default:
		return false
	}
}

func kindName(k Kind) string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindStringList:
		return "string list"
	case KindFileList:
		return "file list"
	default:
		return "empty"
	}
}
