// Package media stores product and profile images in object storage buckets
// and hands out their public URLs.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/glamup-shop-verse/domain/apperr"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	nanoid "github.com/jaevor/go-nanoid"
)

// Bucket names.
const (
	ProductImages = "product-images"
	ProfileImages = "profile-images"
)

// MaxSizes holds the upload limit of each bucket in bytes.
var MaxSizes = map[string]int64{
	ProductImages: 5 << 20,
	ProfileImages: 2 << 20,
}

// Errors returned by MediaService.
var (
	ErrUnknownBucket  = apperr.NotFound("unknown media bucket")
	ErrNotImage       = apperr.Validation("only image uploads are accepted")
	ErrTooLarge       = apperr.Validation("file exceeds the upload limit")
	ErrEmptyUpload    = apperr.Validation("file is empty")
	ErrInvalidKey     = apperr.Validation("invalid media key")
	ErrObjectNotFound = apperr.NotFound("media not found")
)

const keyLength = 21

// Object describes a stored image.
type Object struct {
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// MediaService uploads, serves and deletes images.
type MediaService struct {
	buckets map[string]fsjetstream.FileStoragePort
	baseURL string
	newKey  func() string
}

// NewMediaService creates a MediaService over the given buckets. baseURL
// prefixes the public URLs, e.g. "http://localhost:3000".
func NewMediaService(buckets map[string]fsjetstream.FileStoragePort, baseURL string) (*MediaService, error) {
	gen, err := nanoid.Standard(keyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create key generator: %w", err)
	}
	return &MediaService{
		buckets: buckets,
		baseURL: strings.TrimRight(baseURL, "/"),
		newKey:  gen,
	}, nil
}

func (s *MediaService) bucket(name string) (fsjetstream.FileStoragePort, error) {
	b, ok := s.buckets[name]
	if !ok || b == nil {
		return nil, ErrUnknownBucket
	}
	return b, nil
}

// URL returns the public URL of key in bucket.
func (s *MediaService) URL(bucket, key string) string {
	return fmt.Sprintf("%s/media/%s/%s", s.baseURL, bucket, key)
}

// Upload stores data as a new object in bucket. Only image/* content is
// accepted, within the bucket's size limit.
func (s *MediaService) Upload(ctx context.Context, bucket, filename, contentType string, data []byte) (*Object, error) {
	b, err := s.bucket(bucket)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if int64(len(data)) > MaxSizes[bucket] {
		return nil, ErrTooLarge
	}

	contentType = imageContentType(filename, contentType)
	if contentType == "" {
		return nil, ErrNotImage
	}
	key := s.newKey() + imageExtension(filename, contentType)
	now := time.Now().UTC()

	info, err := b.Put(ctx, key, data,
		fsjetstream.WithDescription(fmt.Sprintf("Image: %s", filepath.Base(filename))),
		fsjetstream.WithHeaders(map[string]string{
			"Content-Type": contentType,
			"Uploaded-At":  now.Format(time.RFC3339),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	return &Object{
		Bucket:      bucket,
		Key:         key,
		URL:         s.URL(bucket, key),
		ContentType: contentType,
		Size:        int64(info.Size),
		UploadedAt:  now,
	}, nil
}

// Open returns a reader for the object. The caller closes it.
func (s *MediaService) Open(_ context.Context, bucket, key string) (io.ReadCloser, *Object, error) {
	b, err := s.bucket(bucket)
	if err != nil {
		return nil, nil, err
	}
	if !validKey(key) {
		return nil, nil, ErrInvalidKey
	}

	info, err := b.Stat(key)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindNotFound, ErrObjectNotFound.Message, err)
	}

	reader, _, err := b.GetReader(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}

	contentType := info.Headers["Content-Type"]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return reader, &Object{
		Bucket:      bucket,
		Key:         key,
		URL:         s.URL(bucket, key),
		ContentType: contentType,
		Size:        int64(info.Size),
		UploadedAt:  info.ModTime,
	}, nil
}

// Delete removes the object. Deleting a missing object is NotFound.
func (s *MediaService) Delete(_ context.Context, bucket, key string) error {
	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	if !validKey(key) {
		return ErrInvalidKey
	}
	if _, err := b.Stat(key); err != nil {
		return apperr.Wrap(apperr.KindNotFound, ErrObjectNotFound.Message, err)
	}
	if err := b.Delete(key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// KeyFromURL extracts bucket and key from a URL produced by URL. It reports
// false for foreign URLs.
func (s *MediaService) KeyFromURL(url string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(url, s.baseURL+"/media/")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || !validKey(key) {
		return "", "", false
	}
	if _, known := s.buckets[bucket]; !known {
		return "", "", false
	}
	return bucket, key, true
}

// imageContentType resolves the content type from the declared type, falling
// back to the file extension. It returns "" for non-image content.
func imageContentType(filename, declared string) string {
	ct := declared
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		ct = mediaType
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			ct = mediaType
		}
	}
	if !strings.HasPrefix(ct, "image/") {
		return ""
	}
	return ct
}

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
}

func imageExtension(filename, contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if validKey("x" + ext) {
		return ext
	}
	return ""
}

// validKey accepts nanoid characters plus one extension dot.
func validKey(key string) bool {
	if key == "" || len(key) > 64 {
		return false
	}
	dots := 0
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return dots <= 1 && key[0] != '.'
}
