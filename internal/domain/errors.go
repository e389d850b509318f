package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrMarkerMissing indicates the root directory lacks the marker entry
	ErrMarkerMissing = errors.New("marker entry not found in root")

	// ErrNoRootFolder indicates a manifest has no top-level <Folder> element
	ErrNoRootFolder = errors.New("could not find root <Folder>")

	// ErrMalformedDocument indicates a manifest is not well-formed XML
	ErrMalformedDocument = errors.New("malformed manifest document")

	// ErrLocatorNotFound indicates a locator is neither a local file nor a fetchable URL
	ErrLocatorNotFound = errors.New("locator is neither an existing file nor a URL")

	// ErrUnknownAlgorithm indicates an unsupported fingerprint algorithm
	ErrUnknownAlgorithm = errors.New("unknown fingerprint algorithm")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited indicates rate limiting was encountered
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")
)

// PreconditionError is returned when the run environment is not usable.
// Nothing has been processed when it is returned.
type PreconditionError struct {
	Root string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for root %s: %v", e.Root, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// StructuralError reports a manifest that cannot be used as a tree node
type StructuralError struct {
	Locator string
	Err     error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error in %s: %v", e.Locator, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// NewStructuralError creates a new StructuralError
func NewStructuralError(locator string, err error) *StructuralError {
	return &StructuralError{Locator: locator, Err: err}
}

// TransportError reports a failed local read or network fetch
type TransportError struct {
	Locator string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.Locator, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError
func NewTransportError(locator string, err error) *TransportError {
	return &TransportError{Locator: locator, Err: err}
}

// CycleError reports a locator that is reachable from itself
type CycleError struct {
	Locator string
	// Chain lists the ancestry from the outermost document to the repeated one
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("reference cycle at %s: %s", e.Locator, strings.Join(e.Chain, " -> "))
}

// DepthError reports a manifest tree deeper than the configured bound
type DepthError struct {
	Locator  string
	MaxDepth int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("max depth %d exceeded at %s", e.MaxDepth, e.Locator)
}

// NotificationError wraps a failed change notification
type NotificationError struct {
	Version Version
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification for version %s failed: %v", e.Version, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// FetchError represents an error during fetching
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.StatusCode {
		case 429, 503, 502, 504:
			return true
		}
		// Cloudflare errors
		if fetchErr.StatusCode >= 520 && fetchErr.StatusCode <= 530 {
			return true
		}
	}

	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}
