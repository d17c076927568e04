package profile

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// FirebaseAccounts implements Accounts with the Firebase Auth admin client.
type FirebaseAccounts struct {
	client *auth.Client
}

// NewFirebaseAccounts creates an Accounts adapter.
func NewFirebaseAccounts(client *auth.Client) *FirebaseAccounts {
	return &FirebaseAccounts{client: client}
}

func (a *FirebaseAccounts) Get(ctx context.Context, userID string) (*Account, error) {
	rec, err := a.client.GetUser(ctx, userID)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, fmt.Errorf("account %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	acc := &Account{ID: userID}
	if rec.UserInfo != nil {
		acc.ID = rec.UID
		acc.Name = rec.DisplayName
		acc.Email = rec.Email
		acc.Phone = rec.PhoneNumber
	}
	return acc, nil
}

func (a *FirebaseAccounts) UpdateName(ctx context.Context, userID, name string) error {
	params := (&auth.UserToUpdate{}).DisplayName(name)
	if _, err := a.client.UpdateUser(ctx, userID, params); err != nil {
		if auth.IsUserNotFound(err) {
			return fmt.Errorf("account %s: %w", userID, ErrNotFound)
		}
		return err
	}
	return nil
}

// EndSession revokes the user's refresh tokens. ID tokens already issued stay
// valid until they expire unless the verifier checks revocation.
func (a *FirebaseAccounts) EndSession(ctx context.Context, userID string) error {
	return a.client.RevokeRefreshTokens(ctx, userID)
}

var _ Accounts = (*FirebaseAccounts)(nil)
