package profile

import (
	"context"
	"time"
)

// Account is the identity record owned by the auth backend.
type Account struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Document is the per-user profile document.
type Document struct {
	Name         string
	Phone        string
	Address1     string
	Address2     string
	AvatarFileID string
	UpdatedAt    time.Time
}

// DocumentUpdate lists the document paths to write. Nil members are not sent.
type DocumentUpdate struct {
	Name         *string
	Phone        *string
	Address1     *string
	Address2     *string
	AvatarFileID *string
}

// Empty reports whether the update writes nothing.
func (u DocumentUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Address1 == nil && u.Address2 == nil && u.AvatarFileID == nil
}

// Accounts is the account record primitive.
type Accounts interface {
	Get(ctx context.Context, userID string) (*Account, error)
	UpdateName(ctx context.Context, userID, name string) error
	EndSession(ctx context.Context, userID string) error
}

// Documents is the document database primitive. Get and Update return
// ErrNotFound when the user's document does not exist.
type Documents interface {
	Get(ctx context.Context, userID string) (*Document, error)
	Update(ctx context.Context, userID string, update DocumentUpdate) error
}

// Files is the avatar bucket primitive.
type Files interface {
	Create(ctx context.Context, fileID, name, contentType string, data []byte) error
	Delete(ctx context.Context, fileID string) error
	URL(fileID string) string
}
