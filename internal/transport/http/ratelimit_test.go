package http

import "testing"

func TestRateLimiterBurst(t *testing.T) {
	r := newRateLimiter(0.001, 2)
	if !r.allow() || !r.allow() {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if r.allow() {
		t.Fatalf("expected third message to be throttled")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	var r *rateLimiter = newRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !r.allow() {
			t.Fatalf("disabled limiter must allow everything")
		}
	}
}
