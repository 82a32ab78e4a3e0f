// Package validation produces per-field error messages and aggregates them
// per form. Errors are data, never returned as Go errors: a field either has
// one message or none.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/formscore/formscore/internal/conditions"
	"github.com/formscore/formscore/internal/schema"
)

const dateLayout = "2006-01-02"

// ValidateField validates one answer against its question. The empty string
// means the field passed.
//
// Hidden fields never validate. Required fields with absent or empty-string
// answers fail with a required message; optional empty fields skip all
// further checks, including custom rules.
func ValidateField(q *schema.Question, value schema.Value, visible bool) string {
	return validateField(defaultRegistry, q, value, visible)
}

// ValidateForm computes visibility per question, validates each, and collects
// the failures keyed by question id. Visible questions that pass are absent
// from the map.
func ValidateForm(questions []schema.Question, values schema.FormValues) map[string]string {
	return validateForm(defaultRegistry, questions, values)
}

// ValidateFormWith runs ValidateForm against an explicit validator registry.
func ValidateFormWith(reg *Registry, questions []schema.Question, values schema.FormValues) map[string]string {
	return validateForm(reg, questions, values)
}

func validateForm(reg *Registry, questions []schema.Question, values schema.FormValues) map[string]string {
	errs := make(map[string]string)
	for i := range questions {
		q := &questions[i]
		visible := conditions.IsFieldVisible(q, values)
		if msg := validateField(reg, q, values[q.ID], visible); msg != "" {
			errs[q.ID] = msg
		}
	}
	return errs
}

func validateField(reg *Registry, q *schema.Question, value schema.Value, visible bool) string {
	if !visible {
		return ""
	}

	if value.IsBlank() {
		if q.Required {
			return fmt.Sprintf("%s is required", q.Label)
		}
		return ""
	}

	if msg := validateByType(q, value); msg != "" {
		return msg
	}

	return runCustomRules(reg, q, value)
}

func validateByType(q *schema.Question, value schema.Value) string {
	switch q.Type {
	case schema.TypeText:
		return validateText(q, value.Str())
	case schema.TypeNumber:
		return validateNumber(q, value)
	case schema.TypeDate:
		return validateDate(q, value.Str())
	case schema.TypeFile:
		return validateFiles(q, value.Files())
	case schema.TypeSelect, schema.TypeCheckbox:
		return validateSelection(q, value)
	default:
		return ""
	}
}

func validateText(q *schema.Question, s string) string {
	length := utf8.RuneCountInString(s)
	if q.MinLength > 0 && length < q.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", q.Label, q.MinLength)
	}
	if q.MaxLength > 0 && length > q.MaxLength {
		return fmt.Sprintf("%s must be at most %d characters", q.Label, q.MaxLength)
	}
	if q.Pattern != "" {
		re, err := regexp.Compile(q.Pattern)
		// An uncompilable pattern is a config bug, not user error; skip it.
		if err == nil && !re.MatchString(s) {
			return fmt.Sprintf("%s format is invalid", q.Label)
		}
	}
	return ""
}

func validateNumber(q *schema.Question, value schema.Value) string {
	n, ok := value.AsNumber()
	if !ok {
		return fmt.Sprintf("%s must be a valid number", q.Label)
	}
	if q.Min != nil && n < *q.Min {
		return fmt.Sprintf("%s must be at least %s", q.Label, formatNumber(*q.Min))
	}
	if q.Max != nil && n > *q.Max {
		return fmt.Sprintf("%s must be at most %s", q.Label, formatNumber(*q.Max))
	}
	return ""
}

func validateDate(q *schema.Question, s string) string {
	d, err := parseDate(s)
	if err != nil {
		return fmt.Sprintf("%s must be a valid date", q.Label)
	}
	if q.MinDate != "" {
		if min, err := parseDate(q.MinDate); err == nil && d.Before(min) {
			return fmt.Sprintf("%s must be on or after %s", q.Label, q.MinDate)
		}
	}
	if q.MaxDate != "" {
		if max, err := parseDate(q.MaxDate); err == nil && d.After(max) {
			return fmt.Sprintf("%s must be on or before %s", q.Label, q.MaxDate)
		}
	}
	return ""
}

func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}

func validateFiles(q *schema.Question, files []schema.FileRef) string {
	maxBytes := int64(q.MaxSizeMB * 1024 * 1024)
	accept := parseAcceptTokens(q.Accept)

	for _, f := range files {
		if len(accept) > 0 && !fileAccepted(f, accept) {
			return fmt.Sprintf("%s: file type of %q is not accepted", q.Label, f.Name)
		}
		if maxBytes > 0 && f.Size > maxBytes {
			return fmt.Sprintf("%s: %q exceeds the maximum size of %s MB", q.Label, f.Name, formatNumber(q.MaxSizeMB))
		}
	}
	return ""
}

func parseAcceptTokens(accept string) []string {
	if accept == "" {
		return nil
	}
	var tokens []string
	for _, t := range strings.Split(accept, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// fileAccepted matches dot-prefixed tokens against the file extension
// case-insensitively; any other token matches as a MIME substring.
func fileAccepted(f schema.FileRef, tokens []string) bool {
	ext := strings.ToLower(filepath.Ext(f.Name))
	mime := strings.ToLower(f.Type)
	for _, token := range tokens {
		if strings.HasPrefix(token, ".") {
			if ext == strings.ToLower(token) {
				return true
			}
			continue
		}
		if strings.Contains(mime, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

func validateSelection(q *schema.Question, value schema.Value) string {
	if q.Required && value.Kind() == schema.KindStringList && len(value.List()) == 0 {
		return fmt.Sprintf("%s requires at least one selection", q.Label)
	}
	return ""
}

// runCustomRules executes rules of type "custom" in order; the first failing
// rule wins. Rules whose validator name is unregistered are skipped, matching
// the treatment of other declarative rule types.
func runCustomRules(reg *Registry, q *schema.Question, value schema.Value) string {
	for _, rule := range q.Validation {
		if rule.Type != schema.RuleCustom {
			continue
		}
		fn, ok := reg.Lookup(rule.Name)
		if !ok {
			continue
		}
		passed, msg := fn(value)
		if passed {
			continue
		}
		if msg != "" {
			return msg
		}
		return rule.Message
	}
	return ""
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
