package client

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"

	profilehttp "github.com/janisto/profile-sync/internal/http/v1/profile"
	"github.com/janisto/profile-sync/internal/http/v1/routes"
	"github.com/janisto/profile-sync/internal/platform/auth"
	"github.com/janisto/profile-sync/internal/profileform"
	"github.com/janisto/profile-sync/internal/service/profile"
)

type testBackend struct {
	accounts  *profile.MemoryAccounts
	documents *profile.MemoryDocuments
	files     *profile.MemoryFiles
	server    *httptest.Server
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{
		accounts:  profile.NewMemoryAccounts(),
		documents: profile.NewMemoryDocuments(),
		files:     profile.NewMemoryFiles(),
	}
	uid := auth.TestUser().UID
	b.accounts.Put(profile.Account{ID: uid, Email: "ada@example.com"})
	b.documents.Put(uid, profile.Document{
		Name:     "Ada Lovelace",
		Phone:    "+1 555 0100",
		Address1: "1 Analytical Engine Way",
	})

	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("ClientTest", "test"))
	verifier := &auth.StaticVerifier{User: auth.TestUser()}
	gw := profile.NewRemoteGateway(b.accounts, b.documents, b.files,
		profile.WithAvatarOptions(profile.AvatarOptions{Size: 8}))
	routes.Register(api, verifier, gw, profilehttp.Options{})

	b.server = httptest.NewServer(router)
	t.Cleanup(b.server.Close)
	return b
}

func (b *testBackend) client(opts ...Option) *Client {
	return NewClient(b.server.Client(), append([]Option{WithBaseURL(b.server.URL), WithToken("token")}, opts...)...)
}

func strPtr(s string) *string { return &s }

func TestFetchProfileCBORAndJSON(t *testing.T) {
	b := newTestBackend(t)

	for name, c := range map[string]*Client{"cbor": b.client(), "json": b.client(WithJSON())} {
		t.Run(name, func(t *testing.T) {
			snap, err := c.FetchProfile(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if snap.FullName != "Ada Lovelace" || snap.Email != "ada@example.com" || snap.Phone != "+1 555 0100" {
				t.Fatalf("unexpected snapshot %+v", snap)
			}
			if snap.UserID != auth.TestUser().UID {
				t.Errorf("expected user id, got %q", snap.UserID)
			}
		})
	}
}

func TestFetchProfileErrors(t *testing.T) {
	b := newTestBackend(t)
	b.accounts.Fail("get", errors.New("connection reset"))
	_, err := b.client().FetchProfile(context.Background())
	if !errors.Is(err, profile.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 APIError, got %v", err)
	}
}

func TestFetchProfileUnauthorized(t *testing.T) {
	b := newTestBackend(t)
	c := NewClient(b.server.Client(), WithBaseURL(b.server.URL))

	_, err := c.FetchProfile(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFetchProfileTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(nil, WithBaseURL(url)).FetchProfile(context.Background())
	if !errors.Is(err, profile.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	b := newTestBackend(t)

	snap, err := b.client().UpdateProfile(context.Background(), profile.Fields{
		Phone:    strPtr("+44 20 7946 0000"),
		Address2: strPtr("Ockham Park"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Phone != "+44 20 7946 0000" || snap.Address2 != "Ockham Park" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("expected updatedAt to round-trip")
	}
}

func TestUpdateProfileValidationError(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.client().UpdateProfile(context.Background(), profile.Fields{
		FullName: strPtr("A"),
		Phone:    strPtr("not a phone"),
	})
	if !errors.Is(err, profileform.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	var verr *profileform.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Result[profileform.FieldFullName].Rule != profileform.RuleTooShort {
		t.Errorf("expected fullName too_short, got %+v", verr.Result)
	}
	if verr.Result[profileform.FieldPhone].Rule != profileform.RuleInvalidFormat {
		t.Errorf("expected phone invalid_format, got %+v", verr.Result)
	}
}

func TestUpdateProfileBackendFailure(t *testing.T) {
	b := newTestBackend(t)
	b.documents.Fail("update", errors.New("unavailable"))

	_, err := b.client().UpdateProfile(context.Background(), profile.Fields{Phone: strPtr("123")})
	if !errors.Is(err, profile.ErrUpdateFailed) {
		t.Fatalf("expected ErrUpdateFailed, got %v", err)
	}
}

func TestReplaceAvatar(t *testing.T) {
	b := newTestBackend(t)
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	url, err := b.client().ReplaceAvatar(context.Background(), profile.Image{Data: buf.Bytes()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/jpeg") {
		t.Fatalf("unexpected url %.40s", url)
	}

	_, err = b.client().ReplaceAvatar(context.Background(), profile.Image{Data: []byte("text"), ContentType: "text/plain"})
	if !errors.Is(err, profile.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}

	b.files.Fail("create", errors.New("bucket unavailable"))
	_, err = b.client().ReplaceAvatar(context.Background(), profile.Image{Data: buf.Bytes()})
	if !errors.Is(err, profile.ErrAvatarUploadFailed) {
		t.Fatalf("expected ErrAvatarUploadFailed, got %v", err)
	}
}

func TestEndSession(t *testing.T) {
	b := newTestBackend(t)

	if err := b.client().EndSession(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.accounts.SessionsEnded(auth.TestUser().UID) != 1 {
		t.Fatal("expected session ended")
	}
}

func TestClientDrivesEditForm(t *testing.T) {
	b := newTestBackend(t)
	c := b.client()

	snap, err := c.FetchProfile(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	form := profileform.New(*snap, c)
	_ = form.Set(profileform.FieldAddress2, "Ockham Park")

	updated, err := form.Commit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Address2 != "Ockham Park" || !form.Closed() {
		t.Fatalf("unexpected result %+v closed=%v", updated, form.Closed())
	}
}
