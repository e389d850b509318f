package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/wwt-image-collection/hashgen/internal/domain"
)

// Ensure Client implements domain.Fetcher
var _ domain.Fetcher = (*Client)(nil)

// Client is an HTTP client for manifest documents using tls-client
type Client struct {
	tlsClient    tls_client.HttpClient
	timeout      time.Duration
	userAgent    string
	retrier      *Retrier
	cache        domain.Cache
	cacheEnabled bool
	cacheTTL     time.Duration
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	Timeout     time.Duration
	MaxRetries  int
	EnableCache bool
	CacheTTL    time.Duration
	Cache       domain.Cache
	UserAgent   string
	ProxyURL    string
}

// DefaultClientOptions returns default client options.
// Retries and caching are off: a failed fetch fails the run and every run
// sees the current remote content.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:     60 * time.Second,
		MaxRetries:  0,
		EnableCache: false,
		CacheTTL:    time.Hour,
		UserAgent:   "",
		ProxyURL:    "",
	}
}

// NewClient creates a new HTTP client. Unset timeouts and TTLs take their
// DefaultClientOptions values.
func NewClient(opts ClientOptions) (*Client, error) {
	defaults := DefaultClientOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaults.CacheTTL
	}

	tlsOpts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutMilliseconds(timeoutMillis(opts.Timeout)),
		tls_client.WithClientProfile(profiles.Chrome_131),
		tls_client.WithRandomTLSExtensionOrder(),
	}

	if opts.ProxyURL != "" {
		tlsOpts = append(tlsOpts, tls_client.WithProxyUrl(opts.ProxyURL))
	}

	tlsClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), tlsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tls client: %w", err)
	}

	retrier := NewRetrier(RetrierOptions{
		MaxRetries:      opts.MaxRetries,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	})

	return &Client{
		tlsClient:    tlsClient,
		timeout:      opts.Timeout,
		userAgent:    opts.UserAgent,
		retrier:      retrier,
		cache:        opts.Cache,
		cacheEnabled: opts.EnableCache,
		cacheTTL:     opts.CacheTTL,
	}, nil
}

// timeoutMillis converts a positive timeout to whole milliseconds, rounding
// up so that no timeout becomes 0, which tls-client treats as unlimited
func timeoutMillis(d time.Duration) int {
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	return int(max(ms, 1))
}

// Get fetches content from a URL
func (c *Client) Get(ctx context.Context, url string) (*domain.Response, error) {
	if c.cacheEnabled && c.cache != nil {
		cached, err := c.getFromCache(ctx, url)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	resp, err := RetryWithValue(ctx, c.retrier, func() (*domain.Response, error) {
		return c.doRequest(ctx, url)
	})
	if err != nil {
		return nil, err
	}

	if c.cacheEnabled && c.cache != nil {
		_ = c.saveToCache(ctx, url, resp)
	}

	return resp, nil
}

// doRequest performs the actual HTTP request
func (c *Client) doRequest(ctx context.Context, targetURL string) (*domain.Response, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, targetURL, nil)
	if err != nil {
		return nil, domain.NewFetchError(targetURL, 0, fmt.Errorf("failed to create request: %w", err))
	}

	for k, v := range RequestHeaders(c.userAgent) {
		req.Header.Set(k, v)
	}

	resp, err := c.tlsClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			if ctx.Err() == nil {
				err = fmt.Errorf("no response within %s: %w", c.timeout, err)
			}
			return nil, domain.NewFetchError(targetURL, 0, fmt.Errorf("request failed: %w: %w", domain.ErrTimeout, err))
		}
		return nil, domain.NewFetchError(targetURL, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("HTTP %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests {
			statusErr = fmt.Errorf("HTTP %d: %w", resp.StatusCode, domain.ErrRateLimited)
		}
		fetchErr := domain.NewFetchError(targetURL, resp.StatusCode, statusErr)
		if ShouldRetryStatus(resp.StatusCode) {
			return nil, &domain.RetryableError{
				Err:        fetchErr,
				RetryAfter: int(ParseRetryAfter(resp.Header.Get("Retry-After")).Seconds()),
			}
		}
		return nil, fetchErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError(targetURL, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	// Convert fhttp.Header to http.Header
	httpHeaders := make(http.Header, len(resp.Header))
	for k, v := range resp.Header {
		httpHeaders[k] = v
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Headers:     httpHeaders,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         targetURL,
		FromCache:   false,
	}, nil
}

// isTimeout reports whether a request failed on the client timeout or a
// context deadline
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Close releases client resources
func (c *Client) Close() error {
	// TLS client doesn't have a Close method, but we keep this for interface compliance
	return nil
}

// getFromCache retrieves a response from cache
func (c *Client) getFromCache(ctx context.Context, url string) (*domain.Response, error) {
	data, err := c.cache.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, domain.ErrCacheMiss
	}

	return &domain.Response{
		StatusCode:  http.StatusOK,
		Body:        entry.Content,
		ContentType: entry.ContentType,
		URL:         url,
		FromCache:   true,
	}, nil
}

// saveToCache saves a response to cache
func (c *Client) saveToCache(ctx context.Context, url string, resp *domain.Response) error {
	data, err := json.Marshal(domain.CacheEntry{
		URL:         url,
		Content:     resp.Body,
		ContentType: resp.ContentType,
		FetchedAt:   time.Now(),
	})
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, url, data, c.cacheTTL)
}
