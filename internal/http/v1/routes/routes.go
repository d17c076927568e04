package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/profile-sync/internal/http/v1/profile"
	"github.com/janisto/profile-sync/internal/platform/auth"
	profilesvc "github.com/janisto/profile-sync/internal/service/profile"
)

// Register wires all HTTP routes into the provided API router.
func Register(
	api huma.API,
	verifier auth.Verifier,
	gateway profilesvc.Gateway,
	opts profile.Options,
) {
	// Apply auth middleware for protected endpoints
	api.UseMiddleware(auth.NewAuthMiddleware(api, verifier))

	profile.Register(api, gateway, opts)
}
