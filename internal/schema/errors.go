package schema

import "errors"

var (
	// ErrEmptyConfigID is returned when a config has no id
	ErrEmptyConfigID = errors.New("schema: config id is required")

	// ErrNoSections is returned when a config has no sections
	ErrNoSections = errors.New("schema: config requires at least one section")

	// ErrShapeMismatch is returned when an answer's runtime shape does not
	// match the question's declared type
	ErrShapeMismatch = errors.New("schema: answer shape does not match question type")
)
