package errorx

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrFetch           = errors.New("fetch failed")
	ErrDeserialization = errors.New("artifact deserialization failed")
	ErrSchema          = errors.New("invalid input table")
	ErrPrediction      = errors.New("prediction failed")
	ErrExport          = errors.New("export failed")
)

// Pipeline stages reported to the user when something fails.
const (
	StageLoad      = "load"
	StageRead      = "read"
	StageNormalize = "normalize"
	StageScore     = "score"
	StagePresent   = "present"
	StageExport    = "export"
)

// StageError tags a failure with the pipeline stage it happened in.
type StageError struct {
	Stage string
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New wraps cause as a kind error raised in stage.
func New(stage string, kind, cause error) error {
	return &StageError{Stage: stage, Kind: kind, Err: cause}
}

// Newf is New with a formatted cause.
func Newf(stage string, kind error, format string, args ...interface{}) error {
	return &StageError{Stage: stage, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// StageOf returns the stage a failure was tagged with, or "" if untagged.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// KindName returns a short label for the error kind, used in run history.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrDeserialization):
		return "deserialization"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrPrediction):
		return "prediction"
	case errors.Is(err, ErrExport):
		return "export"
	default:
		return "internal"
	}
}

// IsUploadScoped reports whether err only affects the current upload and the
// surface should stay usable for the next one.
func IsUploadScoped(err error) bool {
	return errors.Is(err, ErrSchema) || errors.Is(err, ErrPrediction) || errors.Is(err, ErrExport)
}
