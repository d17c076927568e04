package client

import (
	"fmt"
	"net/http"

	"github.com/janisto/profile-sync/internal/service/profile"
)

// APIError is a non-2xx response. It unwraps to the profile gateway error
// matching the operation and status, so callers keep using errors.Is with the
// profile sentinels.
type APIError struct {
	Status  int
	Title   string
	Detail  string
	problem wireProblem
	cause   error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("profile api error (status=%d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("profile api error (status=%d)", e.Status)
}

// Unwrap enables errors.Is/As against the profile sentinels.
func (e *APIError) Unwrap() error {
	return e.cause
}

// operation fixes which gateway error a failure surfaces as.
type operation int

const (
	opFetch operation = iota
	opUpdate
	opAvatar
	opSession
)

func (op operation) failure() error {
	switch op {
	case opUpdate:
		return profile.ErrUpdateFailed
	case opAvatar:
		return profile.ErrAvatarUploadFailed
	}
	return profile.ErrRemoteUnavailable
}

// transportError wraps network failures, timeouts and undecodable bodies.
func (op operation) transportError(err error) error {
	if f := op.failure(); f != profile.ErrRemoteUnavailable {
		return fmt.Errorf("%w: %w: %w", f, profile.ErrRemoteUnavailable, err)
	}
	return fmt.Errorf("%w: %w", profile.ErrRemoteUnavailable, err)
}

func (op operation) statusCause(status int) error {
	failure := op.failure()
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", failure, ErrUnauthorized)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %w", failure, profile.ErrNotFound)
	case status == http.StatusUnprocessableEntity && op == opAvatar:
		return profile.ErrInvalidImage
	case status == http.StatusServiceUnavailable && failure != profile.ErrRemoteUnavailable:
		return fmt.Errorf("%w: %w", failure, profile.ErrRemoteUnavailable)
	}
	return failure
}
