//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_domain.go -package=mocks

package domain

import (
	"context"
	"net/http"
	"time"
)

// Fetcher defines the interface for network document retrieval
type Fetcher interface {
	// Get fetches content from a URL
	Get(ctx context.Context, url string) (*Response, error)
	// Close releases resources
	Close() error
}

// Response represents an HTTP response
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
	FromCache   bool
}

// Cache defines the interface for content caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}

// Notifier delivers change notifications to an external channel
type Notifier interface {
	// Notify announces that a version's fingerprint changed
	Notify(ctx context.Context, n Notification) error
}

// FingerprintStore persists one fingerprint per version
type FingerprintStore interface {
	// Read returns the stored fingerprint, or "" if none exists yet
	Read(version Version) (string, error)
	// Write overwrites the stored fingerprint
	Write(version Version, fingerprint string) error
}
