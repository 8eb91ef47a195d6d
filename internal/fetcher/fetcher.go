// Package fetcher wraps an HTTP client with the concurrency cap and pacing
// the partner platform's rate limits require. The fetcher only throttles:
// retry on 429/5xx is the caller's responsibility (see RetryPolicy).
package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	// DefaultConcurrency is the maximum number of in-flight requests.
	DefaultConcurrency = 3

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// Pacing sleep before each dispatch: minPacing plus up to pacingJitter.
	defaultMinPacing    = 250 * time.Millisecond
	defaultPacingJitter = 250 * time.Millisecond
)

// Fetcher issues paced, bounded-concurrency HTTP requests. Excess calls
// queue FIFO on the slot channel. Identical in-flight URLs are never merged
// or deduplicated; every caller gets its own request and response.
type Fetcher struct {
	httpClient *http.Client
	slots      chan struct{}
	minPacing  time.Duration
	jitter     time.Duration
	logger     arbor.ILogger
}

// Option configures the Fetcher
type Option func(*Fetcher)

// WithConcurrency sets the maximum in-flight request count
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.slots = make(chan struct{}, n)
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

// WithPacing overrides the pre-dispatch pacing window
func WithPacing(min, jitter time.Duration) Option {
	return func(f *Fetcher) {
		f.minPacing = min
		f.jitter = jitter
	}
}

// New creates a throttled fetcher
func New(logger arbor.ILogger, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		slots:      make(chan struct{}, DefaultConcurrency),
		minPacing:  defaultMinPacing,
		jitter:     defaultPacingJitter,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET request once a concurrency slot is free and the
// pacing sleep has elapsed. The caller owns the response body. Errors
// propagate unchanged; the fetcher never retries.
func (f *Fetcher) Fetch(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	select {
	case f.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-f.slots }()

	if err := f.pace(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	f.logger.Debug().Str("url", url).Msg("Partner API request")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// pace sleeps the jittered pre-dispatch interval, honoring cancellation
func (f *Fetcher) pace(ctx context.Context) error {
	delay := f.minPacing
	if f.jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(f.jitter)))
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
