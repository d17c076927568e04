package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/profile-sync/internal/http/health"
	profilehttp "github.com/janisto/profile-sync/internal/http/v1/profile"
	"github.com/janisto/profile-sync/internal/http/v1/routes"
	"github.com/janisto/profile-sync/internal/platform/auth"
	"github.com/janisto/profile-sync/internal/platform/config"
	"github.com/janisto/profile-sync/internal/platform/firebase"
	applog "github.com/janisto/profile-sync/internal/platform/logging"
	appmiddleware "github.com/janisto/profile-sync/internal/platform/middleware"
	"github.com/janisto/profile-sync/internal/platform/respond"
	"github.com/janisto/profile-sync/internal/service/profile"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const (
	docsPath        = "/api-docs"
	shutdownTimeout = 10 * time.Second
)

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		applog.LogError(context.Background(), "invalid configuration", err)
		os.Exit(1)
	}

	b, err := newBackend(context.Background(), cfg)
	if err != nil {
		applog.LogError(context.Background(), "backend init failed", err)
		os.Exit(1)
	}
	defer func() {
		if err := b.close(); err != nil {
			applog.LogError(context.Background(), "backend close error", err)
		}
	}()

	srv := newServer(cfg, newRouter(cfg, b))

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening",
			zap.String("addr", srv.Addr), zap.String("mode", b.mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		os.Exit(1)
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		applog.LogError(ctx, "server shutdown error", err)
	}
	applog.LogInfo(context.Background(), "server exited")
}

// backend is the gateway and token verifier the routes run against.
type backend struct {
	mode     string
	gateway  profile.Gateway
	verifier auth.Verifier
	close    func() error
}

func avatarOptions(cfg config.Config) profile.AvatarOptions {
	return profile.AvatarOptions{
		Size:      cfg.AvatarSize,
		Quality:   cfg.AvatarQuality,
		MaxBytes:  cfg.AvatarMaxBytes,
		MaxPixels: cfg.AvatarMaxPixels,
	}
}

// newBackend builds the Firebase-backed gateway, or the placeholder one when
// fallback data is enabled. Fallback mode accepts any bearer token as
// FallbackUserID.
func newBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.UseFallbackData {
		applog.LogWarn(ctx, "serving placeholder profile data", zap.String("userId", cfg.FallbackUserID))
		return &backend{
			mode:     health.ModeFallback,
			gateway:  profile.NewFallbackGateway(profile.WithAvatarOptions(avatarOptions(cfg))),
			verifier: &auth.StaticVerifier{User: &auth.User{UID: cfg.FallbackUserID}},
			close:    func() error { return nil },
		}, nil
	}

	clients, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID:                    cfg.ProjectID,
		GoogleApplicationCredentials: cfg.CredentialsFile,
		StorageBucket:                cfg.AvatarBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("firebase: %w", err)
	}

	gw := profile.NewRemoteGateway(
		profile.NewFirebaseAccounts(clients.Auth),
		profile.NewFirestoreDocuments(clients.Firestore, cfg.ProfileCollection),
		profile.NewBucketFiles(clients.Bucket, cfg.AvatarBucket, cfg.StorageDownloadBaseURL),
		profile.WithTimeout(cfg.RemoteTimeout),
		profile.WithAvatarOptions(avatarOptions(cfg)),
	)
	return &backend{
		mode:     health.ModeFirebase,
		gateway:  gw,
		verifier: auth.NewFirebaseVerifier(clients.Auth),
		close:    clients.Close,
	}, nil
}

// newRouter assembles the middleware stack, the health check and the
// versioned API.
func newRouter(cfg config.Config, b *backend) http.Handler {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.Security(docsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		chimiddleware.RealIP,
		// Avatar uploads are the largest bodies the API accepts.
		chimiddleware.RequestSize(cfg.AvatarMaxBytes),
		applog.RequestLogger(cfg.ProjectID),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	router.Get("/health", health.Handler(b.mode))

	humaCfg := huma.DefaultConfig("Profile Sync API", Version)
	humaCfg.DocsPath = docsPath
	humaCfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(router, humaCfg)
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation, addCBORContent)

	routes.Register(api, b.verifier, b.gateway, profilehttp.Options{AvatarMaxBytes: cfg.AvatarMaxBytes})
	return router
}

// addCBORContent mirrors every JSON request and response schema as CBOR in
// the OpenAPI document.
func addCBORContent(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = jsonContent
		}
	}
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}

// newServer sizes the timeouts for avatar uploads and for remote calls that
// may take up to RemoteTimeout.
func newServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      cfg.RemoteTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}
