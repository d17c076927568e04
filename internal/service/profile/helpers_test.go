package profile

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	applog "github.com/janisto/profile-sync/internal/platform/logging"
)

func pngImage(t *testing.T, w, h int) Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return Image{Data: buf.Bytes(), ContentType: "image/png"}
}

func observedContext() (context.Context, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return applog.WithLogger(context.Background(), zap.New(core)), recorded
}

type fixture struct {
	accounts  *MemoryAccounts
	documents *MemoryDocuments
	files     *MemoryFiles
	gateway   *RemoteGateway
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		accounts:  NewMemoryAccounts(),
		documents: NewMemoryDocuments(),
		files:     NewMemoryFiles(),
	}
	ids := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithFileIDs(func() string {
			ids++
			return "file-" + string(rune('a'+ids-1))
		}),
		WithAvatarOptions(AvatarOptions{Size: 32, Quality: 70}),
	}
	f.gateway = NewRemoteGateway(f.accounts, f.documents, f.files, append(base, opts...)...)

	f.accounts.Put(Account{ID: "u1", Name: "Account Name", Email: "jane@example.com", Phone: "+1 000"})
	f.documents.Put("u1", Document{
		Name:     "Jane Doe",
		Phone:    "+1 555 0100",
		Address1: "1 Main St",
		Address2: "Apt 2",
	})
	return f
}

func strPtr(s string) *string { return &s }
