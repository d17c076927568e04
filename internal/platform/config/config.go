// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultPort              = "8080"
	DefaultProfileCollection = "users"
	DefaultFallbackUserID    = "dev-user"
	DefaultRemoteTimeout     = 30 * time.Second
	DefaultAvatarMaxBytes    = 10 << 20
	DefaultAvatarMaxPixels   = 40_000_000
	DefaultAvatarSize        = 512
	DefaultAvatarQuality     = 80
	DefaultStorageBaseURL    = "https://firebasestorage.googleapis.com"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the server configuration.
type Config struct {
	Port string

	// Firebase project and resources.
	ProjectID              string
	CredentialsFile        string
	ProfileCollection      string
	AvatarBucket           string
	StorageDownloadBaseURL string

	// UseFallbackData selects the in-memory placeholder gateway instead of
	// Firebase. Checked once at startup; the Firebase path is never attempted.
	UseFallbackData bool
	FallbackUserID  string

	RemoteTimeout  time.Duration
	AvatarMaxBytes  int64
	AvatarMaxPixels int64
	AvatarSize      int
	AvatarQuality   int
}

// Load reads .env (when present) into the process environment and builds a
// validated Config from it. Variables already set in the environment win.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has the signature of os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Port:                   get("PORT", DefaultPort),
		ProjectID:              get("FIREBASE_PROJECT_ID", get("GOOGLE_CLOUD_PROJECT", "")),
		CredentialsFile:        get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		ProfileCollection:      get("PROFILE_COLLECTION", DefaultProfileCollection),
		AvatarBucket:           get("AVATAR_BUCKET", ""),
		StorageDownloadBaseURL: get("STORAGE_DOWNLOAD_BASE_URL", DefaultStorageBaseURL),
		FallbackUserID:         get("FALLBACK_USER_ID", DefaultFallbackUserID),
		RemoteTimeout:          DefaultRemoteTimeout,
		AvatarMaxBytes:         DefaultAvatarMaxBytes,
		AvatarMaxPixels:        DefaultAvatarMaxPixels,
		AvatarSize:             DefaultAvatarSize,
		AvatarQuality:          DefaultAvatarQuality,
	}

	var err error
	if v := get("USE_FALLBACK_DATA", ""); v != "" {
		if cfg.UseFallbackData, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("%w: USE_FALLBACK_DATA: %w", ErrInvalid, err)
		}
	}
	if v := get("REMOTE_TIMEOUT", ""); v != "" {
		if cfg.RemoteTimeout, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("%w: REMOTE_TIMEOUT: %w", ErrInvalid, err)
		}
	}
	if v := get("AVATAR_MAX_BYTES", ""); v != "" {
		if cfg.AvatarMaxBytes, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("%w: AVATAR_MAX_BYTES: %w", ErrInvalid, err)
		}
	}
	if v := get("AVATAR_MAX_PIXELS", ""); v != "" {
		if cfg.AvatarMaxPixels, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("%w: AVATAR_MAX_PIXELS: %w", ErrInvalid, err)
		}
	}
	if v := get("AVATAR_SIZE", ""); v != "" {
		if cfg.AvatarSize, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("%w: AVATAR_SIZE: %w", ErrInvalid, err)
		}
	}
	if v := get("AVATAR_QUALITY", ""); v != "" {
		if cfg.AvatarQuality, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("%w: AVATAR_QUALITY: %w", ErrInvalid, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and, unless fallback data is enabled, that the
// Firebase project and avatar bucket are set.
func (c Config) Validate() error {
	switch {
	case c.RemoteTimeout <= 0:
		return fmt.Errorf("%w: REMOTE_TIMEOUT must be positive", ErrInvalid)
	case c.AvatarMaxBytes <= 0:
		return fmt.Errorf("%w: AVATAR_MAX_BYTES must be positive", ErrInvalid)
	case c.AvatarMaxPixels <= 0:
		return fmt.Errorf("%w: AVATAR_MAX_PIXELS must be positive", ErrInvalid)
	case c.AvatarSize <= 0:
		return fmt.Errorf("%w: AVATAR_SIZE must be positive", ErrInvalid)
	case c.AvatarQuality < 1 || c.AvatarQuality > 100:
		return fmt.Errorf("%w: AVATAR_QUALITY must be between 1 and 100", ErrInvalid)
	}
	if c.UseFallbackData {
		return nil
	}
	if c.ProjectID == "" {
		return fmt.Errorf("%w: FIREBASE_PROJECT_ID is required unless USE_FALLBACK_DATA is set", ErrInvalid)
	}
	if c.AvatarBucket == "" {
		return fmt.Errorf("%w: AVATAR_BUCKET is required unless USE_FALLBACK_DATA is set", ErrInvalid)
	}
	return nil
}
