package profile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/jpeg"
	"testing"
)

func TestNormalizeAvatarCropsToSquareJPEG(t *testing.T) {
	out, err := NormalizeAvatar(pngImage(t, 120, 60), AvatarOptions{Size: 40, Quality: 75})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ContentType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %s", out.ContentType)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg, got %s", format)
	}
	if cfg.Width != 40 || cfg.Height != 40 {
		t.Errorf("expected 40x40, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestNormalizeAvatarDefaults(t *testing.T) {
	out, err := NormalizeAvatar(pngImage(t, 10, 10), AvatarOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultAvatarSize || b.Dy() != DefaultAvatarSize {
		t.Errorf("expected default size %d, got %v", DefaultAvatarSize, b)
	}
}

// hugePNG builds a PNG that declares w x h pixels in its header. The header
// alone is enough for the dimension check, so no pixel data follows.
func hugePNG(t *testing.T, w, h uint32) Image {
	t.Helper()
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return Image{Data: buf.Bytes(), ContentType: "image/png"}
}

func TestNormalizeAvatarAcceptsPixelLimit(t *testing.T) {
	if _, err := NormalizeAvatar(pngImage(t, 200, 100), AvatarOptions{Size: 16, MaxPixels: 200 * 100}); err != nil {
		t.Fatalf("expected image at the pixel limit to pass, got %v", err)
	}
}

func TestNormalizeAvatarRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		img  Image
		opts AvatarOptions
	}{
		{name: "empty", img: Image{}},
		{name: "garbage", img: Image{Data: []byte("<html></html>"), ContentType: "image/png"}},
		{name: "too large", img: Image{Data: make([]byte, 64)}, opts: AvatarOptions{MaxBytes: 16}},
		{name: "too many pixels", img: pngImage(t, 200, 100), opts: AvatarOptions{MaxPixels: 199 * 100}},
		{name: "huge dimensions", img: hugePNG(t, 12000, 12000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NormalizeAvatar(tt.img, tt.opts); !errors.Is(err, ErrInvalidImage) {
				t.Fatalf("expected ErrInvalidImage, got %v", err)
			}
		})
	}
}
