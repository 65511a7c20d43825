// Package prescription validates and stores prescription images attached to orders.
package prescription

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no image exists under a key.
var ErrNotFound = errors.New("prescription image not found")

// Image is a decoded prescription upload.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Store persists prescription images under opaque keys.
type Store interface {
	// Put stores img under key, replacing any existing image.
	Put(ctx context.Context, key string, img Image) error

	// Get returns the image stored under key or ErrNotFound.
	Get(ctx context.Context, key string) (Image, error)

	// Delete removes the image under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}
