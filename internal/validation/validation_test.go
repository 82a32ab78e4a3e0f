package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formscore/formscore/internal/schema"
)

func floatPtr(f float64) *float64 { return &f }

func TestHiddenFieldsNeverValidate(t *testing.T) {
	q := &schema.Question{ID: "q", Type: schema.TypeText, Label: "Name", Required: true, MinLength: 10}

	assert.Empty(t, ValidateField(q, schema.Value{}, false))
	assert.Empty(t, ValidateField(q, schema.StringValue("x"), false))
}

func TestRequiredAndOptionalEmpty(t *testing.T) {
	required := &schema.Question{ID: "q", Type: schema.TypeText, Label: "Name", Required: true}
	optional := &schema.Question{ID: "q", Type: schema.TypeText, Label: "Name", MinLength: 5}

	assert.Equal(t, "Name is required", ValidateField(required, schema.Value{}, true))
	assert.Equal(t, "Name is required", ValidateField(required, schema.StringValue(""), true))

	// Optional empty fields skip type checks entirely.
	assert.Empty(t, ValidateField(optional, schema.StringValue(""), true))
	assert.Empty(t, ValidateField(optional, schema.Value{}, true))
}

func TestTextRules(t *testing.T) {
	q := &schema.Question{
		ID: "bio", Type: schema.TypeText, Label: "Bio",
		MinLength: 3, MaxLength: 5, Pattern: "^[a-z]+$",
	}

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"too short", "ab", "Bio must be at least 3 characters"},
		{"too long", "abcdef", "Bio must be at most 5 characters"},
		{"pattern mismatch", "ABC", "Bio format is invalid"},
		{"ok", "abcd", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateField(q, schema.StringValue(tt.value), true))
		})
	}
}

func TestNumberRules(t *testing.T) {
	q := &schema.Question{
		ID: "age", Type: schema.TypeNumber, Label: "Age",
		Min: floatPtr(18), Max: floatPtr(99),
	}

	assert.Equal(t, "Age must be a valid number", ValidateField(q, schema.StringValue("old"), true))
	assert.Equal(t, "Age must be at least 18", ValidateField(q, schema.NumberValue(17), true))
	assert.Equal(t, "Age must be at most 99", ValidateField(q, schema.NumberValue(100), true))
	assert.Empty(t, ValidateField(q, schema.NumberValue(30), true))
	assert.Empty(t, ValidateField(q, schema.StringValue("42"), true), "numeric strings coerce")
}

func TestDateRules(t *testing.T) {
	q := &schema.Question{
		ID: "start", Type: schema.TypeDate, Label: "Start date",
		MinDate: "2024-01-01", MaxDate: "2024-12-31",
	}

	assert.Equal(t, "Start date must be a valid date", ValidateField(q, schema.StringValue("not-a-date"), true))
	assert.Equal(t, "Start date must be on or after 2024-01-01", ValidateField(q, schema.StringValue("2023-12-31"), true))
	assert.Equal(t, "Start date must be on or before 2024-12-31", ValidateField(q, schema.StringValue("2025-01-01"), true))
	assert.Empty(t, ValidateField(q, schema.StringValue("2024-01-01"), true), "bounds are inclusive")
	assert.Empty(t, ValidateField(q, schema.StringValue("2024-12-31"), true))
}

func TestFileRules(t *testing.T) {
	q := &schema.Question{
		ID: "docs", Type: schema.TypeFile, Label: "Documents",
		Accept: ".pdf, image/", MaxSizeMB: 1,
	}

	pdf := schema.FileRef{Name: "Scan.PDF", Size: 1024, Type: "application/pdf"}
	png := schema.FileRef{Name: "photo.png", Size: 1024, Type: "image/png"}
	exe := schema.FileRef{Name: "setup.exe", Size: 1024, Type: "application/octet-stream"}
	big := schema.FileRef{Name: "huge.pdf", Size: 2 * 1024 * 1024, Type: "application/pdf"}

	assert.Empty(t, ValidateField(q, schema.FileValue(pdf), true), "extension match is case-insensitive")
	assert.Empty(t, ValidateField(q, schema.FileValue(png), true), "MIME substring match")

	msg := ValidateField(q, schema.FileValue(pdf, exe), true)
	assert.Contains(t, msg, `"setup.exe"`)
	assert.Contains(t, msg, "not accepted")

	msg = ValidateField(q, schema.FileValue(big), true)
	assert.Contains(t, msg, "exceeds the maximum size of 1 MB")
}

func TestSelectionRules(t *testing.T) {
	q := &schema.Question{ID: "tags", Type: schema.TypeCheckbox, Label: "Tags", Required: true}

	assert.Equal(t, "Tags requires at least one selection", ValidateField(q, schema.ListValue(), true))
	assert.Empty(t, ValidateField(q, schema.ListValue("a"), true))

	// A missing checkbox answer is blank and takes the required path instead.
	assert.Equal(t, "Tags is required", ValidateField(q, schema.Value{}, true))
}

func TestCustomRules(t *testing.T) {
	Register("no-acme", func(v schema.Value) (bool, string) {
		if strings.Contains(strings.ToLower(v.AsString()), "acme") {
			return false, ""
		}
		return true, ""
	})
	Register("shouty", func(v schema.Value) (bool, string) {
		if v.AsString() == strings.ToUpper(v.AsString()) {
			return false, "please stop shouting"
		}
		return true, ""
	})

	q := &schema.Question{
		ID: "company", Type: schema.TypeText, Label: "Company", Required: true,
		Validation: []schema.ValidationRule{
			{Type: "minLength", Message: "declarative only, never executed"},
			{Type: schema.RuleCustom, Name: "no-acme", Message: "competitors are not eligible"},
			{Type: schema.RuleCustom, Name: "shouty", Message: "unused static message"},
			{Type: schema.RuleCustom, Name: "not-registered", Message: "skipped"},
		},
	}

	// First failing custom rule wins, using its static message.
	assert.Equal(t, "competitors are not eligible", ValidateField(q, schema.StringValue("Acme Ltd"), true))

	// Second rule returns its own message.
	assert.Equal(t, "please stop shouting", ValidateField(q, schema.StringValue("LOUD CO"), true))

	// Unregistered validators are skipped.
	assert.Empty(t, ValidateField(q, schema.StringValue("Quiet Co"), true))

	// Custom rules never run for empty optional values.
	optional := *q
	optional.Required = false
	assert.Empty(t, ValidateField(&optional, schema.StringValue(""), true))
}

func TestValidateForm(t *testing.T) {
	questions := []schema.Question{
		{ID: "name", Type: schema.TypeText, Label: "Name", Required: true},
		{ID: "email", Type: schema.TypeText, Label: "Email", Required: true},
		{ID: "age", Type: schema.TypeNumber, Label: "Age", Required: true},
		{ID: "details", Type: schema.TypeText, Label: "Details", Required: true, Conditional: &schema.ConditionalLogic{
			QuestionID: "name",
			Answer:     schema.StringValue("trigger"),
		}},
	}

	// All three visible required questions fail on an empty form; the
	// conditionally hidden one does not.
	errs := ValidateForm(questions, schema.FormValues{})
	require.Len(t, errs, 3)
	assert.Equal(t, "Name is required", errs["name"])
	assert.NotContains(t, errs, "details")

	// Answering reveals the dependent question.
	errs = ValidateForm(questions, schema.FormValues{
		"name": schema.StringValue("trigger"),
		"age":  schema.NumberValue(30),
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "details")
}

func TestValidateFormWithRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("always-fails", func(schema.Value) (bool, string) { return false, "nope" })

	questions := []schema.Question{{
		ID: "q", Type: schema.TypeText, Label: "Q",
		Validation: []schema.ValidationRule{{Type: schema.RuleCustom, Name: "always-fails"}},
	}}

	errs := ValidateFormWith(reg, questions, schema.FormValues{"q": schema.StringValue("x")})
	assert.Equal(t, map[string]string{"q": "nope"}, errs)
}
