package socketio

import (
	"testing"
	"time"
)

func TestBackoffCapsExponentialGrowth(t *testing.T) {
	b := &Backoff{Min: time.Second, Max: 5 * time.Second, Factor: 2}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.Duration(); got != w {
			t.Fatalf("attempt %d: got %v, want %v", i, got, w)
		}
	}
	if b.Attempts() != len(want) {
		t.Fatalf("attempts = %d", b.Attempts())
	}
	b.Reset()
	if got := b.Duration(); got != time.Second {
		t.Fatalf("after reset got %v", got)
	}
}

func TestBackoffJitter(t *testing.T) {
	// r*10 = 5 is odd so the deviation is added.
	b := &Backoff{Min: time.Second, Max: 5 * time.Second, Factor: 2, Jitter: 0.5, rnd: func() float64 { return 0.5 }}
	if got := b.Duration(); got != 1250*time.Millisecond {
		t.Fatalf("got %v", got)
	}

	b = &Backoff{Min: time.Second, Max: 5 * time.Second, Factor: 2, Jitter: 0.5, rnd: func() float64 { return 0.4 }}
	if got := b.Duration(); got != 800*time.Millisecond {
		t.Fatalf("got %v", got)
	}
}

func TestBackoffDefaultsFactor(t *testing.T) {
	b := &Backoff{Min: 100 * time.Millisecond}
	b.Duration()
	if got := b.Duration(); got != 200*time.Millisecond {
		t.Fatalf("got %v", got)
	}
}
