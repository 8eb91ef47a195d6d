package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestFetchConcurrencyCap(t *testing.T) {
	var inFlight, maxInFlight int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt64(&inFlight, 1)
		for {
			max := atomic.LoadInt64(&maxInFlight)
			if current <= max || atomic.CompareAndSwapInt64(&maxInFlight, max, current) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(arbor.NewLogger(), WithConcurrency(3), WithPacing(0, 0))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.Fetch(context.Background(), server.URL, nil)
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&maxInFlight), int64(3))
}

func TestFetchNoDeduplication(t *testing.T) {
	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(arbor.NewLogger(), WithPacing(0, 0))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.Fetch(context.Background(), server.URL+"/same", nil)
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), atomic.LoadInt64(&requests),
		"identical in-flight URLs must not be merged")
}

func TestFetchPropagatesHeaders(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(arbor.NewLogger(), WithPacing(0, 0))

	header := http.Header{}
	header.Set("Authorization", "Bearer test-token")
	resp, err := f.Fetch(context.Background(), server.URL, header)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestFetchContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(arbor.NewLogger(), WithPacing(time.Second, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, server.URL, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicyBackoffBounds(t *testing.T) {
	p := NewRetryPolicy()

	for attempt := 0; attempt < 10; attempt++ {
		backoff := p.CalculateBackoff(attempt)
		assert.Greater(t, backoff, time.Duration(0))
		// MaxBackoff plus 25% jitter headroom
		assert.LessOrEqual(t, backoff, p.MaxBackoff+p.MaxBackoff/4)
	}
}

func TestRetryPolicyRetriesTransientStatus(t *testing.T) {
	p := NewRetryPolicy()
	p.InitialBackoff = time.Millisecond
	p.MaxBackoff = 2 * time.Millisecond

	calls := 0
	status, err := p.ExecuteWithRetry(context.Background(), arbor.NewLogger(), func() (int, error) {
		calls++
		if calls < 3 {
			return http.StatusServiceUnavailable, nil
		}
		return http.StatusOK, nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyStopsAtMaxAttempts(t *testing.T) {
	p := NewRetryPolicy()
	p.InitialBackoff = time.Millisecond
	p.MaxBackoff = 2 * time.Millisecond

	calls := 0
	status, _ := p.ExecuteWithRetry(context.Background(), arbor.NewLogger(), func() (int, error) {
		calls++
		return http.StatusTooManyRequests, nil
	})

	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, p.MaxAttempts, calls)
}

func TestRetryPolicyDoesNotRetryClientErrors(t *testing.T) {
	p := NewRetryPolicy()

	calls := 0
	status, _ := p.ExecuteWithRetry(context.Background(), arbor.NewLogger(), func() (int, error) {
		calls++
		return http.StatusNotFound, nil
	})

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 1, calls)
}
