package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"

	profilehttp "github.com/janisto/profile-sync/internal/http/v1/profile"
	"github.com/janisto/profile-sync/internal/http/v1/routes"
	"github.com/janisto/profile-sync/internal/platform/auth"
	"github.com/janisto/profile-sync/internal/profileform"
	"github.com/janisto/profile-sync/internal/profilestate"
	"github.com/janisto/profile-sync/internal/service/profile"
)

type apiFixture struct {
	url       string
	accounts  *profile.MemoryAccounts
	documents *profile.MemoryDocuments
	files     *profile.MemoryFiles
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	return newAPIWith(t, nil)
}

// newAPIWith serves the API through wrap when it is not nil.
func newAPIWith(t *testing.T, wrap func(http.Handler) http.Handler) *apiFixture {
	t.Helper()
	f := &apiFixture{
		accounts:  profile.NewMemoryAccounts(),
		documents: profile.NewMemoryDocuments(),
		files:     profile.NewMemoryFiles(),
	}
	uid := auth.TestUser().UID
	f.accounts.Put(profile.Account{ID: uid, Email: "ada@example.com"})
	f.documents.Put(uid, profile.Document{
		Name:     "Ada Lovelace",
		Phone:    "+1 555 0100",
		Address1: "1 Analytical Engine Way",
	})

	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("CLITest", "test"))
	gw := profile.NewRemoteGateway(f.accounts, f.documents, f.files,
		profile.WithAvatarOptions(profile.AvatarOptions{Size: 8}))
	routes.Register(api, &auth.StaticVerifier{User: auth.TestUser()}, gw, profilehttp.Options{})

	var handler http.Handler = router
	if wrap != nil {
		handler = wrap(router)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f.url = srv.URL
	return f
}

func configPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "profilectl", configFileName)
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (f *apiFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	base := []string{"--endpoint", f.url, "--token", "token", "--config", configPath(t)}
	out, _, err := run(t, append(base, args...)...)
	return out, err
}

func TestShowOffline(t *testing.T) {
	out, _, err := run(t, "--offline", "--config", configPath(t), "show")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Adrian Hajdin") || !strings.Contains(out, "adrian@jsmastery.com") {
		t.Fatalf("expected placeholder profile, got:\n%s", out)
	}
}

func TestShowRemote(t *testing.T) {
	f := newAPI(t)

	for _, args := range [][]string{{"show"}, {"show", "--refresh"}} {
		out, err := f.run(t, args...)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", args, err)
		}
		if !strings.Contains(out, "Name:      Ada Lovelace") || !strings.Contains(out, "Email:     ada@example.com") {
			t.Fatalf("%v: unexpected output:\n%s", args, out)
		}
	}
}

func TestShowLoadFailure(t *testing.T) {
	f := newAPI(t)
	f.documents.Fail("get", errors.New("unavailable"))

	out, err := f.run(t, "show")
	if !errors.Is(err, profile.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	if !strings.Contains(out, profilestate.MessageLoadFailed) {
		t.Fatalf("expected load failure message, got:\n%s", out)
	}
}

func TestShowRequiresToken(t *testing.T) {
	_, _, err := run(t, "--endpoint", "http://127.0.0.1:1", "--config", configPath(t), "show")
	if !errors.Is(err, errNoToken) {
		t.Fatalf("expected errNoToken, got %v", err)
	}
}

func TestShowReadsConfigFile(t *testing.T) {
	f := newAPI(t)
	path := configPath(t)
	if err := saveFileConfig(path, fileConfig{Endpoint: f.url, Token: "token"}); err != nil {
		t.Fatalf("save config: %v", err)
	}

	out, _, err := run(t, "--config", path, "show")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Ada Lovelace") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestEditSavesAndReloads(t *testing.T) {
	f := newAPI(t)

	out, err := f.run(t, "edit", "--phone", "+1 555 0199", "--address2", "Ockham Park")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, profileform.MessageSaved) {
		t.Fatalf("expected saved message, got:\n%s", out)
	}
	if !strings.Contains(out, "Phone:     +1 555 0199") || !strings.Contains(out, "Address 2: Ockham Park") {
		t.Fatalf("expected reloaded profile, got:\n%s", out)
	}
}

func TestEditShowsSavedProfileWhenReloadFails(t *testing.T) {
	var saved atomic.Bool
	f := newAPIWith(t, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && r.URL.Path == "/profile" && saved.Load() {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
			if r.Method == http.MethodPatch {
				saved.Store(true)
			}
		})
	})

	out, errOut, err := run(t, "--endpoint", f.url, "--token", "token", "--config", configPath(t),
		"--verbose", "edit", "--phone", "+1 555 0199")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !saved.Load() {
		t.Fatal("expected the edit to be sent")
	}
	if !strings.Contains(out, profileform.MessageSaved) {
		t.Fatalf("expected saved message, got:\n%s", out)
	}
	if !strings.Contains(out, "Phone:     +1 555 0199") {
		t.Fatalf("expected the saved profile, got:\n%s", out)
	}
	if strings.Contains(out, "Phone:     +1 555 0100") {
		t.Fatalf("expected the pre-edit profile not to be shown, got:\n%s", out)
	}
	if !strings.Contains(errOut, "reload after save failed") {
		t.Fatalf("expected reload failure in the log, got:\n%s", errOut)
	}
}

func TestEditValidationMessages(t *testing.T) {
	f := newAPI(t)

	out, err := f.run(t, "edit", "--full-name", "A", "--phone", "call me")
	if !errors.Is(err, profileform.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	for _, want := range []string{
		profileform.MessageFixErrors,
		"fullName: Full name must be at least 2 characters",
		"phone: ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestEditNoChanges(t *testing.T) {
	f := newAPI(t)

	out, err := f.run(t, "edit", "--full-name", "Ada Lovelace")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No changes.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestEditUpdateFailure(t *testing.T) {
	f := newAPI(t)
	f.documents.Fail("update", errors.New("unavailable"))

	out, err := f.run(t, "edit", "--address1", "2 Difference Engine Road")
	if !errors.Is(err, profile.ErrUpdateFailed) {
		t.Fatalf("expected ErrUpdateFailed, got %v", err)
	}
	if !strings.Contains(out, profileform.MessageUpdateFailed) {
		t.Fatalf("expected failure message, got:\n%s", out)
	}
}

func writePNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 12, 12))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func TestAvatar(t *testing.T) {
	f := newAPI(t)

	out, err := f.run(t, "avatar", writePNG(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, profilestate.MessageAvatarUpdated) {
		t.Fatalf("expected success message, got:\n%s", out)
	}
	if f.files.Len() != 1 {
		t.Fatalf("expected one stored file, got %d", f.files.Len())
	}
}

func TestAvatarInvalidImage(t *testing.T) {
	f := newAPI(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not an image"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := f.run(t, "avatar", path)
	if !errors.Is(err, profile.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if !strings.Contains(out, profilestate.MessageAvatarFailed) {
		t.Fatalf("expected failure message, got:\n%s", out)
	}
}

func TestLogoutEndsSessionAndClearsToken(t *testing.T) {
	f := newAPI(t)
	path := configPath(t)
	if err := saveFileConfig(path, fileConfig{Endpoint: f.url, Token: "token"}); err != nil {
		t.Fatalf("save config: %v", err)
	}

	out, _, err := run(t, "--config", path, "logout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, profilestate.MessageLoggedOut) {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if f.accounts.SessionsEnded(auth.TestUser().UID) != 1 {
		t.Error("expected remote session ended")
	}

	cfg, err := loadFileConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Token != "" || cfg.Endpoint != f.url {
		t.Fatalf("expected token cleared and endpoint kept, got %+v", cfg)
	}
}

func TestLogoutClearsTokenWhenServerFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	path := configPath(t)
	if err := saveFileConfig(path, fileConfig{Endpoint: srv.URL, Token: "token"}); err != nil {
		t.Fatalf("save config: %v", err)
	}

	out, errOut, err := run(t, "--config", path, "--verbose", "logout")
	if err != nil {
		t.Fatalf("logout must succeed locally, got %v", err)
	}
	if !strings.Contains(out, profilestate.MessageLoggedOut) {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(errOut, "end session failed") {
		t.Errorf("expected logged failure, got:\n%s", errOut)
	}

	cfg, err := loadFileConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Token != "" {
		t.Fatal("expected token cleared")
	}
}

func TestLogoutWithoutToken(t *testing.T) {
	out, _, err := run(t, "--config", configPath(t), "logout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, profilestate.MessageLoggedOut) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestLoadFileConfig(t *testing.T) {
	cfg, err := loadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	if cfg != (fileConfig{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "endpoint: https://api.example.com\ntoken: abc\noffline: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err = loadFileConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := fileConfig{Endpoint: "https://api.example.com", Token: "abc", Offline: true}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}

	if err := os.WriteFile(path, []byte("endpoint: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadFileConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDisplayURL(t *testing.T) {
	if got := displayURL("https://cdn.example.com/a.jpg"); got != "https://cdn.example.com/a.jpg" {
		t.Errorf("expected URL unchanged, got %q", got)
	}
	got := displayURL("data:image/jpeg;base64,AAAA")
	if got != "data:image/jpeg;base64,... (27 bytes)" {
		t.Errorf("unexpected display %q", got)
	}
}
