package profile

import "context"

type userSession struct {
	gw     Gateway
	userID string
}

// ForUser binds gw to one user.
func ForUser(gw Gateway, userID string) Session {
	return &userSession{gw: gw, userID: userID}
}

func (s *userSession) FetchProfile(ctx context.Context) (*Snapshot, error) {
	return s.gw.FetchProfile(ctx, s.userID)
}

func (s *userSession) UpdateProfile(ctx context.Context, fields Fields) (*Snapshot, error) {
	return s.gw.UpdateProfile(ctx, s.userID, fields)
}

func (s *userSession) ReplaceAvatar(ctx context.Context, img Image) (string, error) {
	return s.gw.ReplaceAvatar(ctx, s.userID, img)
}

func (s *userSession) EndSession(ctx context.Context) error {
	return s.gw.EndSession(ctx, s.userID)
}
