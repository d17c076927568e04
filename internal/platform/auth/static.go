package auth

import (
	"context"
)

// StaticVerifier accepts any bearer token and returns a fixed user or error.
// Tests use it as a double; the server uses it when fallback data is enabled
// and no Firebase project is configured.
type StaticVerifier struct {
	User  *User
	Error error
}

// Verify returns the configured user or error.
func (s *StaticVerifier) Verify(_ context.Context, _ string) (*User, error) {
	if s.Error != nil {
		return nil, s.Error
	}
	return s.User, nil
}

// TestUser returns a standard test user.
func TestUser() *User {
	return &User{
		UID:           "test-user-123",
		Email:         "test@example.com",
		EmailVerified: true,
	}
}

// Compile-time interface check
var _ Verifier = (*StaticVerifier)(nil)
