package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/profile-sync/internal/platform/auth"
	applog "github.com/janisto/profile-sync/internal/platform/logging"
	"github.com/janisto/profile-sync/internal/platform/timeutil"
	"github.com/janisto/profile-sync/internal/profileform"
	profilesvc "github.com/janisto/profile-sync/internal/service/profile"
)

// Options tunes the profile endpoints.
type Options struct {
	// AvatarMaxBytes caps the PUT /profile/avatar body. Zero uses the
	// gateway default.
	AvatarMaxBytes int64
}

var bearerAuth = []map[string][]string{
	{"bearerAuth": {}},
}

// Register registers profile and session endpoints.
func Register(api huma.API, gw profilesvc.Gateway, opts Options) {
	maxAvatar := opts.AvatarMaxBytes
	if maxAvatar <= 0 {
		maxAvatar = profilesvc.DefaultAvatarMaxBytes
	}

	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profile",
		Summary:     "Get current user's profile",
		Description: "Returns the account record merged with the user's profile document.",
		Tags:        []string{"Profile"},
		Security:    bearerAuth,
	}, func(ctx context.Context, _ *ProfileGetInput) (*ProfileGetOutput, error) {
		user := auth.UserFromContext(ctx)

		snap, err := gw.FetchProfile(ctx, user.UID)
		if err != nil {
			return nil, mapGatewayError(err)
		}
		return &ProfileGetOutput{Body: toHTTPProfile(snap)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPatch,
		Path:        "/profile",
		Summary:     "Update current user's profile",
		Description: "Writes the provided fields to the profile document and mirrors a new full name " +
			"onto the account. Returns the re-read profile.",
		Tags:     []string{"Profile"},
		Security: bearerAuth,
	}, func(ctx context.Context, input *ProfileUpdateInput) (*ProfileUpdateOutput, error) {
		user := auth.UserFromContext(ctx)

		fields := profilesvc.Fields{
			FullName: input.Body.FullName,
			Phone:    input.Body.Phone,
			Address1: input.Body.Address1,
			Address2: input.Body.Address2,
		}
		if fields.Empty() {
			return nil, huma.Error422UnprocessableEntity("at least one field must be provided")
		}
		if err := validateFields(fields); err != nil {
			return nil, err
		}

		snap, err := gw.UpdateProfile(ctx, user.UID, fields)
		if err != nil {
			return nil, mapGatewayError(err)
		}
		return &ProfileUpdateOutput{Body: toHTTPProfile(snap)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "replace-avatar",
		Method:       http.MethodPut,
		Path:         "/profile/avatar",
		Summary:      "Replace avatar",
		Description:  "Accepts a raw image body, stores it as a square JPEG and links it to the profile.",
		Tags:         []string{"Profile"},
		Security:     bearerAuth,
		MaxBodyBytes: maxAvatar,
	}, func(ctx context.Context, input *AvatarPutInput) (*AvatarPutOutput, error) {
		user := auth.UserFromContext(ctx)

		url, err := gw.ReplaceAvatar(ctx, user.UID, profilesvc.Image{
			Data:        input.RawBody,
			ContentType: input.ContentType,
		})
		if err != nil {
			return nil, mapGatewayError(err)
		}
		return &AvatarPutOutput{Body: Avatar{AvatarURL: url}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "end-session",
		Method:        http.MethodDelete,
		Path:          "/session",
		Summary:       "Log out",
		Description:   "Revokes the user's sessions. Always succeeds; revocation failures are only logged.",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerAuth,
	}, func(ctx context.Context, _ *SessionDeleteInput) (*struct{}, error) {
		user := auth.UserFromContext(ctx)

		if err := gw.EndSession(ctx, user.UID); err != nil {
			applog.LogWarn(ctx, "end session failed", zap.String("user_id", user.UID), zap.Error(err))
		}
		return nil, nil
	})
}

// validateFields applies the edit form rules to the provided fields.
func validateFields(fields profilesvc.Fields) error {
	provided := []struct {
		field profileform.Field
		value *string
	}{
		{profileform.FieldFullName, fields.FullName},
		{profileform.FieldPhone, fields.Phone},
		{profileform.FieldAddress1, fields.Address1},
		{profileform.FieldAddress2, fields.Address2},
	}

	var details []error
	for _, p := range provided {
		if p.value == nil {
			continue
		}
		if issue, bad := profileform.ValidateField(p.field, *p.value); bad {
			details = append(details, &huma.ErrorDetail{
				Message:  issue.Message,
				Location: "body." + string(p.field),
				Value:    *p.value,
			})
		}
	}
	if len(details) == 0 {
		return nil
	}
	return huma.Error422UnprocessableEntity("validation failed", details...)
}

func mapGatewayError(err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrInvalidImage):
		return huma.Error422UnprocessableEntity("body is not a supported image")
	case errors.Is(err, profilesvc.ErrUpdateFailed):
		return huma.Error502BadGateway("profile update failed")
	case errors.Is(err, profilesvc.ErrAvatarUploadFailed):
		return huma.Error502BadGateway("avatar upload failed")
	case errors.Is(err, profilesvc.ErrNotFound):
		return huma.Error404NotFound("profile not found")
	case errors.Is(err, profilesvc.ErrRemoteUnavailable):
		return huma.Error503ServiceUnavailable("profile backend unavailable")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

func toHTTPProfile(s *profilesvc.Snapshot) Profile {
	p := Profile{
		ID:        s.UserID,
		FullName:  s.FullName,
		Email:     s.Email,
		Phone:     s.Phone,
		Address1:  s.Address1,
		Address2:  s.Address2,
		AvatarURL: s.AvatarURL,
	}
	if !s.UpdatedAt.IsZero() {
		p.UpdatedAt = &timeutil.Time{Time: s.UpdatedAt}
	}
	return p
}
