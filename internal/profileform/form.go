// Package profileform manages a single profile edit session: a draft copy of
// the editable fields, validation, dirty tracking and the commit.
package profileform

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/zap"

	applog "github.com/janisto/profile-sync/internal/platform/logging"
	"github.com/janisto/profile-sync/internal/service/profile"
)

// User-facing messages.
const (
	MessageFixErrors      = "Please fix the errors before saving"
	MessageSaved          = "Profile updated successfully!"
	MessageUpdateFailed   = "Failed to update profile"
	MessageDiscardChanges = "Are you sure you want to discard your changes?"
)

// Draft is the working copy of the editable fields.
type Draft struct {
	FullName string
	Email    string
	Phone    string
	Address1 string
	Address2 string
}

// DraftFrom copies the editable fields of snap.
func DraftFrom(snap profile.Snapshot) Draft {
	return Draft{
		FullName: snap.FullName,
		Email:    snap.Email,
		Phone:    snap.Phone,
		Address1: snap.Address1,
		Address2: snap.Address2,
	}
}

// Get returns the value of f.
func (d Draft) Get(f Field) string {
	switch f {
	case FieldFullName:
		return d.FullName
	case FieldEmail:
		return d.Email
	case FieldPhone:
		return d.Phone
	case FieldAddress1:
		return d.Address1
	case FieldAddress2:
		return d.Address2
	}
	return ""
}

func (d *Draft) set(f Field, v string) {
	switch f {
	case FieldFullName:
		d.FullName = v
	case FieldEmail:
		d.Email = v
	case FieldPhone:
		d.Phone = v
	case FieldAddress1:
		d.Address1 = v
	case FieldAddress2:
		d.Address2 = v
	}
}

// Payload is the update sent on commit. Email is never included.
func (d Draft) Payload() profile.Fields {
	return profile.Fields{
		FullName: &d.FullName,
		Phone:    &d.Phone,
		Address1: &d.Address1,
		Address2: &d.Address2,
	}
}

// Updater sends a profile update. profile.Session satisfies it.
type Updater interface {
	UpdateProfile(ctx context.Context, fields profile.Fields) (*profile.Snapshot, error)
}

// Controller is one edit session. It is safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	origin  Draft
	draft   Draft
	issues  ValidationResult
	updater Updater
	saving  bool
	closed  bool
}

// New starts an edit session from snap.
func New(snap profile.Snapshot, updater Updater) *Controller {
	d := DraftFrom(snap)
	return &Controller{
		origin:  d,
		draft:   d,
		issues:  ValidationResult{},
		updater: updater,
	}
}

// Set changes one field and clears any issue previously reported for it.
func (c *Controller) Set(f Field, value string) error {
	if _, err := ParseField(string(f)); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.draft.set(f, value)
	delete(c.issues, f)
	return nil
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Issues returns the issues from the last validation, minus fields edited
// since.
func (c *Controller) Issues() ValidationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.issues)
}

// Validate checks the draft and records the result.
func (c *Controller) Validate() ValidationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = c.draft.Validate()
	return maps.Clone(c.issues)
}

// IsDirty reports whether any field differs from the originating snapshot.
func (c *Controller) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft != c.origin
}

// Commit validates the draft and, when valid, sends it through the updater.
//
// An invalid draft returns a *ValidationError without calling the updater.
// Success closes the session. Any updater failure keeps the draft and matches
// profile.ErrUpdateFailed, except a server-side *ValidationError, which is
// returned as is and recorded as the current issues.
func (c *Controller) Commit(ctx context.Context) (*profile.Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.saving {
		c.mu.Unlock()
		return nil, ErrCommitInFlight
	}
	c.issues = c.draft.Validate()
	if !c.issues.OK() {
		err := &ValidationError{Result: maps.Clone(c.issues)}
		c.mu.Unlock()
		return nil, err
	}
	payload := c.draft.Payload()
	c.saving = true
	c.mu.Unlock()

	snap, err := c.updater.UpdateProfile(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.issues = maps.Clone(verr.Result)
			return nil, err
		}
		applog.LogWarn(ctx, "profile commit failed", zap.Error(err))
		if !errors.Is(err, profile.ErrUpdateFailed) {
			err = fmt.Errorf("%w: %w", profile.ErrUpdateFailed, err)
		}
		return nil, err
	}
	c.closed = true
	return snap, nil
}

// Discard closes the session without committing.
func (c *Controller) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether the session ended by commit or discard.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
