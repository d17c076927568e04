package profile

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Avatar defaults.
const (
	DefaultAvatarSize     = 512
	DefaultAvatarQuality  = 80
	DefaultAvatarMaxBytes = 10 << 20
	// DefaultAvatarMaxPixels caps the decoded bitmap (about 160 MB as NRGBA).
	DefaultAvatarMaxPixels = 40_000_000

	avatarContentType = "image/jpeg"
)

// AvatarOptions controls avatar normalisation.
type AvatarOptions struct {
	Size     int   // edge length of the square output, in pixels
	Quality  int   // JPEG quality, 1-100
	MaxBytes int64 // upper bound on the raw input
	// MaxPixels bounds width*height of the input. Compressed size says little
	// about decoded size, so this is checked from the header before decoding.
	MaxPixels int64
}

func (o AvatarOptions) withDefaults() AvatarOptions {
	if o.Size <= 0 {
		o.Size = DefaultAvatarSize
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultAvatarQuality
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultAvatarMaxBytes
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultAvatarMaxPixels
	}
	return o
}

// NormalizeAvatar decodes img, crops it to a centred square, resizes it and
// re-encodes it as JPEG. Any input that cannot be decoded yields ErrInvalidImage.
func NormalizeAvatar(img Image, opts AvatarOptions) (Image, error) {
	opts = opts.withDefaults()
	if len(img.Data) == 0 {
		return Image{}, fmt.Errorf("%w: empty body", ErrInvalidImage)
	}
	if int64(len(img.Data)) > opts.MaxBytes {
		return Image{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInvalidImage, len(img.Data), opts.MaxBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); cfg.Width <= 0 || cfg.Height <= 0 || pixels > opts.MaxPixels {
		return Image{}, fmt.Errorf("%w: %dx%d exceeds limit of %d pixels",
			ErrInvalidImage, cfg.Width, cfg.Height, opts.MaxPixels)
	}

	src, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	dst := imaging.Fill(src, opts.Size, opts.Size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return Image{}, fmt.Errorf("encode avatar: %w", err)
	}
	return Image{Data: buf.Bytes(), ContentType: avatarContentType}, nil
}
