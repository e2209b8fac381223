package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterBurstThenRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(2, 2)
	l.now = func() time.Time { return now }

	if !l.Allow("000001.SZ") || !l.Allow("000001.SZ") {
		t.Fatalf("burst should allow two")
	}
	if l.Allow("000001.SZ") {
		t.Fatalf("third call should be throttled")
	}
	if !l.Allow("600000.SH") {
		t.Fatalf("keys must not share a bucket")
	}

	now = now.Add(500 * time.Millisecond)
	if !l.Allow("000001.SZ") {
		t.Fatalf("half a second at 2/s should refill one token")
	}
	if l.Allow("000001.SZ") {
		t.Fatalf("only one token should have been refilled")
	}

	l.Forget("000001.SZ")
	if l.Len() != 1 {
		t.Fatalf("len = %d", l.Len())
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		if !l.Allow("k") {
			t.Fatalf("disabled limiter throttled")
		}
	}
}
