package formstate

import "errors"

var (
	// ErrWriteFailed wraps underlying storage failures on save paths
	ErrWriteFailed = errors.New("formstate: failed to write state")

	// ErrNoState is returned by ExportFormState when nothing is saved
	ErrNoState = errors.New("formstate: no saved state for form")

	// ErrFormIDMismatch is returned when an imported payload targets a
	// different form
	ErrFormIDMismatch = errors.New("formstate: imported state belongs to a different form")

	// ErrInvalidPayload is returned when an imported payload cannot be parsed
	ErrInvalidPayload = errors.New("formstate: invalid state payload")
)
