package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	applog "github.com/janisto/profile-sync/internal/platform/logging"
)

// DefaultTimeout bounds every gateway operation.
const DefaultTimeout = 30 * time.Second

const cleanupTimeout = 10 * time.Second

// RemoteGateway implements Gateway over the account, document and file
// primitives.
type RemoteGateway struct {
	accounts  Accounts
	documents Documents
	files     Files
	timeout   time.Duration
	avatar    AvatarOptions
	now       func() time.Time
	newFileID func() string
}

// Option configures a RemoteGateway.
type Option func(*RemoteGateway)

// WithTimeout sets the per-operation timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *RemoteGateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithAvatarOptions sets avatar normalisation options.
func WithAvatarOptions(o AvatarOptions) Option {
	return func(g *RemoteGateway) {
		g.avatar = o
	}
}

// WithClock overrides the clock used for avatar file names.
func WithClock(now func() time.Time) Option {
	return func(g *RemoteGateway) {
		g.now = now
	}
}

// WithFileIDs overrides the avatar file id generator.
func WithFileIDs(next func() string) Option {
	return func(g *RemoteGateway) {
		g.newFileID = next
	}
}

// NewRemoteGateway composes the three backend primitives into a Gateway.
func NewRemoteGateway(accounts Accounts, documents Documents, files Files, opts ...Option) *RemoteGateway {
	g := &RemoteGateway{
		accounts:  accounts,
		documents: documents,
		files:     files,
		timeout:   DefaultTimeout,
		now:       time.Now,
		newFileID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchProfile reads the account and document concurrently and merges them.
// Any read failure, including a missing document, is ErrRemoteUnavailable;
// a missing document or account also matches ErrNotFound.
func (g *RemoteGateway) FetchProfile(ctx context.Context, userID string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	snap, err := g.fetch(ctx, userID)
	if err != nil {
		applog.LogWarn(ctx, "profile fetch failed",
			zap.String("user_id", userID), zap.String("error_category", categorizeError(err)), zap.Error(err))
		return nil, err
	}
	return snap, nil
}

func (g *RemoteGateway) fetch(ctx context.Context, userID string) (*Snapshot, error) {
	var (
		acc *Account
		doc *Document
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		a, err := g.accounts.Get(egCtx, userID)
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}
		acc = a
		return nil
	})
	eg.Go(func() error {
		d, err := g.documents.Get(egCtx, userID)
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		doc = d
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return g.merge(userID, acc, doc), nil
}

// merge prefers document values over account values; email only lives on the
// account and addresses only on the document.
func (g *RemoteGateway) merge(userID string, acc *Account, doc *Document) *Snapshot {
	snap := &Snapshot{
		UserID:    userID,
		FullName:  firstNonEmpty(doc.Name, acc.Name),
		Email:     acc.Email,
		Phone:     firstNonEmpty(doc.Phone, acc.Phone),
		Address1:  doc.Address1,
		Address2:  doc.Address2,
		UpdatedAt: doc.UpdatedAt,
	}
	if acc.ID != "" {
		snap.UserID = acc.ID
	}
	if doc.AvatarFileID != "" {
		snap.AvatarURL = g.files.URL(doc.AvatarFileID)
	}
	return snap
}

// UpdateProfile writes the provided fields to the document, then mirrors a new
// full name onto the account record, then returns the re-fetched snapshot.
//
// A failed document write is ErrUpdateFailed, and also ErrRemoteUnavailable
// when the write ran out of time. A failed account write after a
// successful document write is logged as a partial update inconsistency and
// does not fail the call.
func (g *RemoteGateway) UpdateProfile(ctx context.Context, userID string, fields Fields) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	update := DocumentUpdate{
		Name:     fields.FullName,
		Phone:    fields.Phone,
		Address1: fields.Address1,
		Address2: fields.Address2,
	}
	if err := g.documents.Update(ctx, userID, update); err != nil {
		applog.LogAuditEvent(ctx, "update", userID, "profile", userID, applog.AuditFailure,
			map[string]any{"error": categorizeError(err), "step": "document"})
		return nil, writeFailure(ErrUpdateFailed, err)
	}

	partial := false
	if fields.FullName != nil {
		if err := g.accounts.UpdateName(ctx, userID, *fields.FullName); err != nil {
			applog.LogPartialInconsistency(ctx, "update", userID, "account_name", err)
			partial = true
		}
	}

	snap, err := g.fetch(ctx, userID)
	if err != nil {
		applog.LogAuditEvent(ctx, "update", userID, "profile", userID, applog.AuditFailure,
			map[string]any{"error": categorizeError(err), "step": "refetch"})
		return nil, writeFailure(ErrUpdateFailed, err)
	}

	if !partial {
		applog.LogAuditEvent(ctx, "update", userID, "profile", userID, applog.AuditSuccess, nil)
	}
	return snap, nil
}

// ReplaceAvatar normalises img, deletes the current avatar file, uploads the
// new one, links it in the document and returns its URL.
//
// The old file is deleted before the new one is linked. If linking fails the
// new upload is removed again; a user whose old file was already gone ends up
// with a dangling avatar id, which is logged as a partial update inconsistency.
func (g *RemoteGateway) ReplaceAvatar(ctx context.Context, userID string, img Image) (string, error) {
	norm, err := NormalizeAvatar(img, g.avatar)
	if err != nil {
		applog.LogAuditEvent(ctx, "replace_avatar", userID, "avatar", userID, applog.AuditFailure,
			map[string]any{"error": categorizeError(err)})
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	fail := func(step string, err error) (string, error) {
		applog.LogAuditEvent(ctx, "replace_avatar", userID, "avatar", userID, applog.AuditFailure,
			map[string]any{"error": categorizeError(err), "step": step})
		return "", writeFailure(ErrAvatarUploadFailed, fmt.Errorf("%s: %w", step, err))
	}

	doc, err := g.documents.Get(ctx, userID)
	if err != nil {
		return fail("read_document", err)
	}

	oldDeleted := false
	if doc.AvatarFileID != "" {
		if err := g.files.Delete(ctx, doc.AvatarFileID); err != nil {
			applog.LogWarn(ctx, "failed to delete old avatar",
				zap.String("user_id", userID), zap.String("file_id", doc.AvatarFileID), zap.Error(err))
		} else {
			oldDeleted = true
		}
	}

	fileID := g.newFileID()
	name := fmt.Sprintf("avatar_%s_%d.jpg", userID, g.now().UnixMilli())
	if err := g.files.Create(ctx, fileID, name, norm.ContentType, norm.Data); err != nil {
		if oldDeleted {
			applog.LogPartialInconsistency(ctx, "replace_avatar", userID, "upload", err)
		}
		return fail("upload", err)
	}

	if err := g.documents.Update(ctx, userID, DocumentUpdate{AvatarFileID: &fileID}); err != nil {
		g.discardUpload(ctx, userID, fileID)
		if oldDeleted {
			applog.LogPartialInconsistency(ctx, "replace_avatar", userID, "link", err)
		}
		return fail("link", err)
	}

	applog.LogAuditEvent(ctx, "replace_avatar", userID, "avatar", fileID, applog.AuditSuccess, nil)
	return g.files.URL(fileID), nil
}

// writeFailure wraps err in sentinel. A write cut off by the deadline also
// matches ErrRemoteUnavailable.
func writeFailure(sentinel, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrRemoteUnavailable) {
		return fmt.Errorf("%w: %w: %w", sentinel, ErrRemoteUnavailable, err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func (g *RemoteGateway) discardUpload(ctx context.Context, userID, fileID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := g.files.Delete(ctx, fileID); err != nil {
		applog.LogWarn(ctx, "failed to remove unlinked avatar",
			zap.String("user_id", userID), zap.String("file_id", fileID), zap.Error(err))
	}
}

// EndSession revokes the user's sessions. Callers treat failure as
// best-effort; the error is returned for logging.
func (g *RemoteGateway) EndSession(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.accounts.EndSession(ctx, userID); err != nil {
		applog.LogAuditEvent(ctx, "end_session", userID, "session", userID, applog.AuditFailure,
			map[string]any{"error": categorizeError(err)})
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	applog.LogAuditEvent(ctx, "end_session", userID, "session", userID, applog.AuditSuccess, nil)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Compile-time interface check
var _ Gateway = (*RemoteGateway)(nil)
