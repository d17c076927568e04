package profile

import (
	"context"
	"errors"
	"time"
)

// Gateway errors. Callers match them with errors.Is; the wrapped cause is kept
// for logging.
var (
	ErrNotFound           = errors.New("profile not found")
	ErrRemoteUnavailable  = errors.New("profile backend unavailable")
	ErrUpdateFailed       = errors.New("profile update failed")
	ErrAvatarUploadFailed = errors.New("avatar upload failed")
	ErrInvalidImage       = errors.New("invalid avatar image")
)

// Snapshot is the merged, read-only view of one user's profile.
//
// A snapshot is replaced as a whole; nothing mutates one after it has been
// returned.
type Snapshot struct {
	UserID    string
	FullName  string
	Email     string
	Phone     string
	Address1  string
	Address2  string
	AvatarURL string // empty when the user has no avatar
	UpdatedAt time.Time
}

// HasAvatar reports whether the snapshot carries an avatar URL.
func (s Snapshot) HasAvatar() bool {
	return s.AvatarURL != ""
}

// WithAvatarURL returns a copy of s with only the avatar URL changed.
func (s Snapshot) WithAvatarURL(url string) Snapshot {
	s.AvatarURL = url
	return s
}

// Fields is a partial profile update. Nil members are left untouched.
// Email is intentionally absent: it is owned by the account record.
type Fields struct {
	FullName *string
	Phone    *string
	Address1 *string
	Address2 *string
}

// Empty reports whether no member is set.
func (f Fields) Empty() bool {
	return f.FullName == nil && f.Phone == nil && f.Address1 == nil && f.Address2 == nil
}

// Image is raw image content supplied for an avatar replacement.
type Image struct {
	Data        []byte
	ContentType string
}

// Gateway is the server-side profile API, keyed by the verified user id.
type Gateway interface {
	FetchProfile(ctx context.Context, userID string) (*Snapshot, error)
	UpdateProfile(ctx context.Context, userID string, fields Fields) (*Snapshot, error)
	ReplaceAvatar(ctx context.Context, userID string, img Image) (string, error)
	EndSession(ctx context.Context, userID string) error
}

// Session is the gateway bound to the signed-in user. The view-model and the
// edit form depend on this; both the HTTP client and ForUser implement it.
type Session interface {
	FetchProfile(ctx context.Context) (*Snapshot, error)
	UpdateProfile(ctx context.Context, fields Fields) (*Snapshot, error)
	ReplaceAvatar(ctx context.Context, img Image) (string, error)
	EndSession(ctx context.Context) error
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrRemoteUnavailable):
		return "unavailable"
	default:
		return "internal_error"
	}
}
