package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the answer union.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindStringList
	KindFileList
)

// Value is a typed answer. The JSON wire shape is the natural one (string,
// number, array of strings, array of file objects); conversion happens once,
// at decode time, instead of ad hoc casts downstream.
type Value struct {
	kind  Kind
	str   string
	num   float64
	list  []string
	files []FileRef
}

// FileRef describes an uploaded file by reference; the engine never touches
// file contents.
type FileRef struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// FormValues maps question ids to answers.
type FormValues map[string]Value

func StringValue(s string) Value          { return Value{kind: KindString, str: s} }
func NumberValue(f float64) Value         { return Value{kind: KindNumber, num: f} }
func ListValue(items ...string) Value     { return Value{kind: KindStringList, list: items} }
func FileValue(files ...FileRef) Value    { return Value{kind: KindFileList, files: files} }

// Kind reports which member of the union is set.
func (v Value) Kind() Kind { return v.kind }

func (v Value) Str() string      { return v.str }
func (v Value) Num() float64     { return v.num }
func (v Value) List() []string   { return v.list }
func (v Value) Files() []FileRef { return v.files }

// IsBlank reports whether the answer is absent or the empty string. Empty
// lists are deliberately NOT blank: an empty checkbox selection is a present
// answer and flows through operator and scoring logic.
func (v Value) IsBlank() bool {
	return v.kind == KindEmpty || (v.kind == KindString && v.str == "")
}

// AsString coerces the value to a string the way a display layer would:
// numbers are formatted, lists are comma-joined.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindStringList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// AsNumber coerces the value to a float. The second result is false when the
// value has no numeric interpretation.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Equal is strict equality: kinds must match and payloads must be identical.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindStringList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
		return true
	case KindEmpty:
		return true
	default:
		return false
	}
}

// Contains reports whether a list value contains item. Non-list values never
// contain anything.
func (v Value) Contains(item string) bool {
	if v.kind != KindStringList {
		return false
	}
	for _, s := range v.list {
		if s == item {
			return true
		}
	}
	return false
}

// MarshalJSON writes the natural wire shape. Blank values marshal as null so
// persisted state round-trips without inventing empty strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindStringList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindFileList:
		if v.files == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.files)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the single conversion boundary from untyped JSON answers
// into the union. Shape is inferred: string, number, array of strings, or
// array of file objects. Anything else is rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Value{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if len(raw) == 0 {
			*v = Value{kind: KindStringList, list: []string{}}
			return nil
		}
		if strings.HasPrefix(strings.TrimSpace(string(raw[0])), "{") {
			var files []FileRef
			if err := json.Unmarshal(data, &files); err != nil {
				return fmt.Errorf("schema: file answer must be an array of file references: %w", err)
			}
			*v = FileValue(files...)
			return nil
		}
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("schema: list answer must be an array of strings: %w", err)
		}
		*v = ListValue(items...)
		return nil
	case '{':
		return fmt.Errorf("schema: answer cannot be a bare object")
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("schema: unsupported answer shape %q", trimmed)
		}
		*v = NumberValue(f)
		return nil
	}
}

// ParseValues decodes a JSON object of answers into FormValues.
func ParseValues(data []byte) (FormValues, error) {
	var values FormValues
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("schema: failed to decode form values: %w", err)
	}
	if values == nil {
		values = FormValues{}
	}
	return values, nil
}
