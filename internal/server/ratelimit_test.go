package server

import "testing"

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := newIPRateLimiter(1, 3, 100)

	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("Request %d within burst should be allowed", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Error("Request beyond burst should be blocked")
	}

	// A different client has its own bucket.
	if !l.allow("10.0.0.2") {
		t.Error("Fresh client must not inherit another client's bucket")
	}
}

func TestRateLimiterBoundsTrackedClients(t *testing.T) {
	l := newIPRateLimiter(1, 1, 5)

	for i := 0; i < 20; i++ {
		l.allow(string(rune('a' + i)))
	}

	if len(l.limiters) > 5 {
		t.Errorf("Tracked clients must stay bounded, got %d", len(l.limiters))
	}
}
