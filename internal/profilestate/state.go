// Package profilestate holds the signed-in user's profile snapshot and the
// load, refresh and avatar state around it.
package profilestate

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	applog "github.com/janisto/profile-sync/internal/platform/logging"
	"github.com/janisto/profile-sync/internal/service/profile"
)

// State is the load state of a Model.
type State int

// Load states.
const (
	Idle State = iota
	Loading
	Loaded
	Refreshing
	Failed
	SignedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Refreshing:
		return "refreshing"
	case Failed:
		return "failed"
	case SignedOut:
		return "signed_out"
	}
	return "unknown"
}

var (
	ErrLoadInFlight   = errors.New("profile load already in progress")
	ErrAvatarInFlight = errors.New("avatar upload already in progress")
	ErrSignedOut      = errors.New("signed out")
)

// Source is the subset of profile.Session the model reads from.
type Source interface {
	FetchProfile(ctx context.Context) (*profile.Snapshot, error)
	ReplaceAvatar(ctx context.Context, img profile.Image) (string, error)
	EndSession(ctx context.Context) error
}

// trigger is what started a load; it only changes which indicator is shown.
type trigger int

const (
	triggerLoad trigger = iota
	triggerRefresh
	triggerReload
)

// Model is the profile view-model. It is safe for concurrent use; at most one
// load and one avatar replacement run at a time, and the two may overlap.
type Model struct {
	mu        sync.Mutex
	src       Source
	state     State
	snap      *profile.Snapshot
	err       error
	loading   bool
	trigger   trigger
	uploading bool
}

// New creates an idle model.
func New(src Source) *Model {
	return &Model{src: src}
}

// Load fetches the profile with the full-screen spinner. Without a snapshot
// the model moves through Loading; with one it moves through Refreshing so
// the displayed data stays in place.
func (m *Model) Load(ctx context.Context) error {
	return m.load(ctx, triggerLoad)
}

// Retry reloads after a failure.
func (m *Model) Retry(ctx context.Context) error {
	return m.load(ctx, triggerLoad)
}

// Refresh is pull-to-refresh: same as Load but shows the refresh indicator.
func (m *Model) Refresh(ctx context.Context) error {
	return m.load(ctx, triggerRefresh)
}

// Reload refreshes without any indicator, e.g. on returning from the edit
// screen. Its failures carry no user-facing message.
func (m *Model) Reload(ctx context.Context) error {
	return m.load(ctx, triggerReload)
}

func (m *Model) load(ctx context.Context, t trigger) error {
	m.mu.Lock()
	switch {
	case m.state == SignedOut:
		m.mu.Unlock()
		return ErrSignedOut
	case m.loading:
		m.mu.Unlock()
		return ErrLoadInFlight
	}
	m.loading = true
	m.trigger = t
	if m.snap == nil {
		m.state = Loading
	} else {
		m.state = Refreshing
	}
	m.mu.Unlock()

	snap, err := m.src.FetchProfile(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if m.state == SignedOut {
		return ErrSignedOut
	}
	if err != nil {
		opErr := &OpError{Op: t.op(), Err: err}
		m.err = opErr
		m.state = Failed
		applog.LogWarn(ctx, "profile load failed",
			zap.String("op", string(opErr.Op)), zap.Bool("has_snapshot", m.snap != nil), zap.Error(err))
		return opErr
	}
	cp := *snap
	m.snap = &cp
	m.err = nil
	m.state = Loaded
	return nil
}

// ReplaceAvatar uploads img and, on success, swaps in a copy of the snapshot
// with only the avatar URL changed. On failure the prior URL is kept.
func (m *Model) ReplaceAvatar(ctx context.Context, img profile.Image) (string, error) {
	m.mu.Lock()
	switch {
	case m.state == SignedOut:
		m.mu.Unlock()
		return "", ErrSignedOut
	case m.uploading:
		m.mu.Unlock()
		return "", ErrAvatarInFlight
	}
	m.uploading = true
	m.mu.Unlock()

	url, err := m.src.ReplaceAvatar(ctx, img)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploading = false
	if err != nil {
		applog.LogWarn(ctx, "avatar replace failed", zap.Error(err))
		return "", &OpError{Op: OpAvatar, Err: err}
	}
	if m.snap != nil {
		next := m.snap.WithAvatarURL(url)
		m.snap = &next
	}
	return url, nil
}

// Logout ends the remote session and always signs out locally. A failure to
// end the remote session is logged and swallowed.
func (m *Model) Logout(ctx context.Context) {
	if err := m.src.EndSession(ctx); err != nil {
		applog.LogWarn(ctx, "end session failed; signing out locally", zap.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	m.err = nil
	m.state = SignedOut
}

// State returns the current load state.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a copy of the current snapshot, or nil before the first
// successful load and after logout.
func (m *Model) Snapshot() *profile.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil
	}
	cp := *m.snap
	return &cp
}

// Err returns the error of the last failed load, cleared by the next success.
func (m *Model) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// View is a render-ready copy of the model.
type View struct {
	State State
	// Snapshot is nil when there is nothing to show. A failed refresh keeps
	// the last good snapshot here.
	Snapshot             *profile.Snapshot
	ShowSpinner          bool
	ShowRefreshIndicator bool
	UploadingAvatar      bool
	// ErrorScreen is set when the initial load failed and no data exists.
	ErrorScreen bool
	Message     string
}

// View returns the current render state.
func (m *Model) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := View{
		State:                m.state,
		ShowSpinner:          m.loading && m.trigger == triggerLoad,
		ShowRefreshIndicator: m.loading && m.trigger == triggerRefresh,
		UploadingAvatar:      m.uploading,
		ErrorScreen:          m.state == Failed && m.snap == nil,
		Message:              Message(m.err),
	}
	if m.snap != nil {
		cp := *m.snap
		v.Snapshot = &cp
	}
	return v
}
