// Package media validates uploaded images and stores them on disk or in S3-compatible storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register decoder
)

// ErrInvalidImage is returned when an upload is not a decodable image.
var ErrInvalidImage = errors.New("upload is not a valid image")

// PostsDir is the key prefix for post images.
const PostsDir = "posts"

var allowedTypes = map[string]string{
	"image/gif":  ".gif",
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// Store persists uploaded files and resolves their public URLs.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Backend() string
}

// Image describes a validated upload.
type Image struct {
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Inspect sniffs the content type and decodes the image header.
func Inspect(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	mt := mimetype.Detect(data)
	ext, ok := allowedTypes[mt.String()]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, mt.String())
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return &Image{ContentType: mt.String(), Ext: ext, Width: cfg.Width, Height: cfg.Height}, nil
}

// ObjectKey builds a unique key under dir keeping a sanitized form of the original name.
func ObjectKey(dir, originalName, ext string) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(originalName, `\`, "/")), path.Ext(originalName))
	if base != "." {
		base = sanitize(base)
	}
	if base == "" || base == "." {
		base = "image"
	}
	return path.Join(dir, fmt.Sprintf("%s_%s%s", base, uuid.NewString()[:8], ext))
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}

// Save validates data as an image and stores it under dir, returning the stored key.
func Save(ctx context.Context, store Store, dir, originalName string, data []byte) (string, error) {
	img, err := Inspect(data)
	if err != nil {
		return "", err
	}
	key := ObjectKey(dir, originalName, img.Ext)
	if err := store.Put(ctx, key, img.ContentType, data); err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	return key, nil
}

// IsInvalidImage reports whether err came from rejecting an upload.
func IsInvalidImage(err error) bool {
	return errors.Is(err, ErrInvalidImage)
}
