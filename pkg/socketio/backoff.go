package socketio

import (
	"math"
	"math/rand"
	"time"
)

// Backoff yields capped exponential delays with symmetric jitter:
// min * factor^attempt, moved by up to jitter*delay either way, never above max.
type Backoff struct {
	Min      time.Duration
	Max      time.Duration
	Factor   float64
	Jitter   float64
	attempts int
	rnd      func() float64
}

// Duration returns the next delay and counts one attempt.
func (b *Backoff) Duration() time.Duration {
	factor := b.Factor
	if factor < 1 {
		factor = 2
	}
	base := float64(b.Min) * math.Pow(factor, float64(b.attempts))
	b.attempts++

	if b.Jitter > 0 {
		r := b.random()
		deviation := math.Floor(b.random() * b.Jitter * base)
		if int(math.Floor(r*10))&1 == 0 {
			base -= deviation
		} else {
			base += deviation
		}
	}
	if ceiling := float64(b.Max); b.Max > 0 && base > ceiling {
		base = ceiling
	}
	if base < 0 {
		base = 0
	}
	return time.Duration(base)
}

// Attempts is the number of delays handed out since the last Reset.
func (b *Backoff) Attempts() int { return b.attempts }

// Reset starts the sequence over.
func (b *Backoff) Reset() { b.attempts = 0 }

func (b *Backoff) random() float64 {
	if b.rnd != nil {
		return b.rnd()
	}
	return rand.Float64()
}
