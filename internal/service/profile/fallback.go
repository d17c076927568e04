package profile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/profile-sync/internal/platform/logging"
)

var timeNow = time.Now

// Placeholder returns the development profile served by FallbackGateway.
func Placeholder(userID string) Snapshot {
	return Snapshot{
		UserID:   userID,
		FullName: "Adrian Hajdin",
		Email:    "adrian@jsmastery.com",
		Phone:    "+1 555 123 4567",
		Address1: "123 Main Street, Springfield, IL 62704",
		Address2: "221B Rose Street, Foodville, FL 12345",
	}
}

// FallbackGateway serves placeholder data from memory. It never touches the
// network and is only used when explicitly selected by configuration.
type FallbackGateway struct {
	mu        sync.Mutex
	accounts  *MemoryAccounts
	documents *MemoryDocuments
	remote    *RemoteGateway
}

// NewFallbackGateway creates a gateway whose users are seeded with
// Placeholder on first access. Updates and avatars persist for the life of the
// gateway; avatar URLs are data: URLs.
func NewFallbackGateway(opts ...Option) *FallbackGateway {
	accounts := NewMemoryAccounts()
	documents := NewMemoryDocuments()
	return &FallbackGateway{
		accounts:  accounts,
		documents: documents,
		remote:    NewRemoteGateway(accounts, documents, NewMemoryFiles(), opts...),
	}
}

func (f *FallbackGateway) seed(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accounts.Has(userID) {
		return
	}
	p := Placeholder(userID)
	f.accounts.Put(Account{ID: userID, Name: p.FullName, Email: p.Email, Phone: p.Phone})
	f.documents.Put(userID, Document{
		Name:      p.FullName,
		Phone:     p.Phone,
		Address1:  p.Address1,
		Address2:  p.Address2,
		UpdatedAt: timeNow().UTC(),
	})
}

func (f *FallbackGateway) FetchProfile(ctx context.Context, userID string) (*Snapshot, error) {
	f.seed(userID)
	return f.remote.FetchProfile(ctx, userID)
}

func (f *FallbackGateway) UpdateProfile(ctx context.Context, userID string, fields Fields) (*Snapshot, error) {
	f.seed(userID)
	return f.remote.UpdateProfile(ctx, userID, fields)
}

func (f *FallbackGateway) ReplaceAvatar(ctx context.Context, userID string, img Image) (string, error) {
	f.seed(userID)
	return f.remote.ReplaceAvatar(ctx, userID, img)
}

// EndSession is a no-op.
func (f *FallbackGateway) EndSession(ctx context.Context, userID string) error {
	applog.LogInfo(ctx, "fallback session end", zap.String("user_id", userID))
	return nil
}

var _ Gateway = (*FallbackGateway)(nil)
