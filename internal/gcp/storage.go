package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/polishcitizenship/docfill/internal/models"
)

// TemplateBucket loads PDF templates stored under a prefix of a bucket.
type TemplateBucket struct {
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// NewTemplateBucket returns a template source for bucketName/prefix.
func NewTemplateBucket(client *storage.Client, bucketName, prefix string) *TemplateBucket {
	return &TemplateBucket{bucket: client.Bucket(bucketName), name: bucketName, prefix: prefix}
}

// ObjectName is the object holding template file.
func (t *TemplateBucket) ObjectName(file string) string {
	return t.prefix + file
}

// Owns reports whether an object event concerns a template of this source,
// returning the template file name.
func (t *TemplateBucket) Owns(bucket, object string) (string, bool) {
	if bucket != t.name || !strings.HasPrefix(object, t.prefix) {
		return "", false
	}
	file := strings.TrimPrefix(object, t.prefix)
	if file == "" || strings.Contains(file, "/") || !strings.HasSuffix(strings.ToLower(file), ".pdf") {
		return "", false
	}
	return file, true
}

// Load reads a template file.
func (t *TemplateBucket) Load(ctx context.Context, file string) ([]byte, error) {
	objectName := t.ObjectName(file)
	r, err := t.bucket.Object(objectName).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("template gs://%s/%s: %w", t.name, objectName, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open template %s: %w", objectName, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", objectName, err)
	}
	return data, nil
}

// ObjectBucket stores generated documents and signs download links.
type ObjectBucket struct {
	bucket *storage.BucketHandle
	now    func() time.Time
}

// NewObjectBucket returns the delivery store for bucketName.
func NewObjectBucket(client *storage.Client, bucketName string) *ObjectBucket {
	return &ObjectBucket{bucket: client.Bucket(bucketName), now: time.Now}
}

// Put writes data to key only if the object doesn't already exist.
func (o *ObjectBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	writer := o.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			slog.Warn("SKIPPING: object already exists.", "object", key)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// SignedURL returns a V4 signed GET link valid for expiry.
func (o *ObjectBucket) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	link, err := o.bucket.SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: o.now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", key, err)
	}
	return link, nil
}
