package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Config holds Firebase configuration.
type Config struct {
	ProjectID                    string
	GoogleApplicationCredentials string // Path to service account JSON (optional)
	StorageBucket                string // Avatar bucket, e.g. "<project>.appspot.com"
}

// Clients holds initialized Firebase clients.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
	Bucket    *gcs.BucketHandle
}

// InitializeClients sets up Firebase and returns the Auth, Firestore and
// Storage bucket clients the profile adapters are built from.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	if cfg.StorageBucket == "" {
		return nil, errors.New("firebase: storage bucket is required")
	}

	var opts []option.ClientOption
	if cfg.GoogleApplicationCredentials != "" {
		creds, err := os.ReadFile(cfg.GoogleApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	config := &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}
	fbApp, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	ac, err := fbApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth client: %w", err)
	}

	fc, err := fbApp.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	sc, err := fbApp.Storage(ctx)
	if err != nil {
		_ = fc.Close()
		return nil, fmt.Errorf("storage client: %w", err)
	}
	bucket, err := sc.Bucket(cfg.StorageBucket)
	if err != nil {
		_ = fc.Close()
		return nil, fmt.Errorf("storage bucket: %w", err)
	}

	return &Clients{
		Auth:      ac,
		Firestore: fc,
		Bucket:    bucket,
	}, nil
}

// Close closes the Firestore client.
func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}
