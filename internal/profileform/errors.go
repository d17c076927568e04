package profileform

import (
	"errors"
	"strings"
)

var (
	// ErrValidationFailed is matched by every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")
	ErrUnknownField     = errors.New("unknown field")
	ErrClosed           = errors.New("edit session closed")
	ErrCommitInFlight   = errors.New("commit already in progress")
)

// ValidationError carries the per-field issues that blocked a commit.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidationFailed.Error())
	sep := ": "
	for _, f := range AllFields {
		issue, ok := e.Result[f]
		if !ok {
			continue
		}
		b.WriteString(sep)
		b.WriteString(string(f))
		b.WriteString(" ")
		b.WriteString(issue.Message)
		sep = "; "
	}
	return b.String()
}

// Is makes errors.Is(err, ErrValidationFailed) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
