package schema

import (
	"encoding/json"
	"fmt"
)

// QuestionType discriminates the question union.
type QuestionType string

const (
	TypeText     QuestionType = "text"
	TypeNumber   QuestionType = "number"
	TypeSelect   QuestionType = "select"
	TypeCheckbox QuestionType = "checkbox"
	TypeFile     QuestionType = "file"
	TypeDate     QuestionType = "date"
)

// DefaultMaxRiskScore is applied when a config omits maxRiskScore.
const DefaultMaxRiskScore = 100

// FormConfig is the full declarative schema for one questionnaire.
// Configs are authored externally and treated as immutable for a session.
type FormConfig struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Sections     []Section `json:"sections"`
	MaxRiskScore float64   `json:"maxRiskScore,omitempty"`
}

// Section is a named, ordered group of questions.
type Section struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Question is one schema-typed field with validation, risk and visibility metadata.
// Type-specific fields are only meaningful for the matching QuestionType.
type Question struct {
	ID          string            `json:"id"`
	Type        QuestionType      `json:"type"`
	Label       string            `json:"label"`
	Required    bool              `json:"required,omitempty"`
	RiskWeight  float64           `json:"riskWeight,omitempty"`
	Conditional *ConditionalLogic `json:"conditional,omitempty"`
	Validation  []ValidationRule  `json:"validation,omitempty"`

	// text
	MinLength int    `json:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// number
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// select / checkbox
	Options []Option `json:"options,omitempty"`

	// file
	Accept    string  `json:"accept,omitempty"`
	MaxSizeMB float64 `json:"maxSize,omitempty"`
	Multiple  bool    `json:"multiple,omitempty"`

	// date, ISO-8601 calendar dates
	MinDate string `json:"minDate,omitempty"`
	MaxDate string `json:"maxDate,omitempty"`
}

// Option is one selectable choice. RiskValue, when present, overrides the
// question's RiskWeight for this choice.
type Option struct {
	Label     string   `json:"label"`
	Value     string   `json:"value"`
	RiskValue *float64 `json:"riskValue,omitempty"`
}

// UnmarshalJSON accepts both the canonical object shape and a bare string,
// normalizing "yes" to {Label: "yes", Value: "yes"}. Downstream code never
// branches on shape again.
func (o *Option) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		o.Label = bare
		o.Value = bare
		o.RiskValue = nil
		return nil
	}

	type option Option
	var full option
	if err := json.Unmarshal(data, &full); err != nil {
		return fmt.Errorf("schema: option must be a string or an object: %w", err)
	}
	*o = Option(full)
	return nil
}

// ConditionalLogic makes a question's visibility depend on another question's
// answer. QuestionID should reference a question in the same config; this is
// not structurally enforced.
type ConditionalLogic struct {
	QuestionID string   `json:"questionId"`
	Answer     Value    `json:"answer"`
	Operator   Operator `json:"operator,omitempty"`
}

// Operator names a visibility comparison.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpIncludes    Operator = "includes"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
)

// ValidationRule carries validation metadata. Only rules with Type "custom"
// are executed by the engine, through the validator registered under Name;
// other types are declarative hints for presentation layers.
type ValidationRule struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Value   json.RawMessage `json:"value,omitempty"`
	Name    string          `json:"name,omitempty"`
}

// RuleCustom marks rules the validation engine executes itself.
const RuleCustom = "custom"
