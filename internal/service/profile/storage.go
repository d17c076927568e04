package profile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
)

const (
	// DefaultDownloadBaseURL serves Firebase Storage download URLs.
	DefaultDownloadBaseURL = "https://firebasestorage.googleapis.com"

	avatarPrefix = "avatars/"
)

// BucketFiles implements Files on a Cloud Storage bucket. Objects are stored
// under avatars/<fileID>.
type BucketFiles struct {
	bucket      *gcs.BucketHandle
	bucketName  string
	downloadURL string
}

// NewBucketFiles creates a Files adapter. downloadBase may point at the
// Storage emulator; empty selects DefaultDownloadBaseURL.
func NewBucketFiles(bucket *gcs.BucketHandle, bucketName, downloadBase string) *BucketFiles {
	if downloadBase == "" {
		downloadBase = DefaultDownloadBaseURL
	}
	return &BucketFiles{
		bucket:      bucket,
		bucketName:  bucketName,
		downloadURL: strings.TrimRight(downloadBase, "/"),
	}
}

// Create uploads data as a single object. A failed write aborts the upload so
// no partial object is committed.
func (f *BucketFiles) Create(ctx context.Context, fileID, name, contentType string, data []byte) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := f.bucket.Object(avatarPrefix + fileID).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"
	w.Metadata = map[string]string{"originalName": name}

	if _, err := w.Write(data); err != nil {
		// The writer only discards the upload when its context is done.
		cancel()
		_ = w.Close()
		return fmt.Errorf("write %s: %w", fileID, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", fileID, err)
	}
	return nil
}

func (f *BucketFiles) Delete(ctx context.Context, fileID string) error {
	if err := f.bucket.Object(avatarPrefix + fileID).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return fmt.Errorf("file %s: %w", fileID, ErrNotFound)
		}
		return err
	}
	return nil
}

// URL returns the Firebase download URL for the file.
func (f *BucketFiles) URL(fileID string) string {
	return fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media",
		f.downloadURL, f.bucketName, url.PathEscape(avatarPrefix+fileID))
}

var _ Files = (*BucketFiles)(nil)
