package profilestate

import "errors"

// Op names the model operation that failed.
type Op string

// Operations.
const (
	OpLoad    Op = "load"
	OpRefresh Op = "refresh"
	OpReload  Op = "reload"
	OpAvatar  Op = "replace_avatar"
)

func (t trigger) op() Op {
	switch t {
	case triggerRefresh:
		return OpRefresh
	case triggerReload:
		return OpReload
	}
	return OpLoad
}

// OpError records which operation failed. The cause is available through
// errors.Is and errors.As.
type OpError struct {
	Op  Op
	Err error
}

func (e *OpError) Error() string {
	return string(e.Op) + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// User-facing messages.
const (
	MessageLoadFailed    = "Failed to load your profile. Please try again."
	MessageRefreshFailed = "Failed to refresh profile."
	MessageAvatarFailed  = "Failed to update profile photo."
	MessageAvatarUpdated = "Profile photo updated successfully!"
	MessageLoggedOut     = "Logged out successfully!"
)

// Message returns the alert text for err, or "" when nothing should be shown.
// Silent reload failures and nil errors show nothing.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var opErr *OpError
	if !errors.As(err, &opErr) {
		return ""
	}
	switch opErr.Op {
	case OpLoad:
		return MessageLoadFailed
	case OpRefresh:
		return MessageRefreshFailed
	case OpAvatar:
		return MessageAvatarFailed
	}
	return ""
}
