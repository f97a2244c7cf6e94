package transport

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Jitter: 0})

		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			32 * time.Second,
			60 * time.Second,
			60 * time.Second,
		}
		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("attempt %d: delay = %v, want %v", i, got, exp)
			}
		}
	})

	t.Run("JitterBounds", func(t *testing.T) {
		b := NewBackoff(DefaultBackoffConfig())
		for i := 0; i < 20; i++ {
			base := b.Current()
			d := b.Next()
			upper := base + time.Duration(float64(base)*JitterFactor)
			if d < base || d > upper {
				t.Fatalf("delay %v outside [%v, %v]", d, base, upper)
			}
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff(DefaultBackoffConfig())
		for i := 0; i < 4; i++ {
			b.Next()
		}
		if b.Attempts() != 4 {
			t.Errorf("Attempts() = %d, want 4", b.Attempts())
		}

		b.Reset()
		if b.Current() != InitialBackoff {
			t.Errorf("Current() = %v after reset, want %v", b.Current(), InitialBackoff)
		}
		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
	})

	t.Run("CustomConfig", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{
			Initial:    100 * time.Millisecond,
			Max:        300 * time.Millisecond,
			Multiplier: 3,
		})
		want := []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
		for i, w := range want {
			if got := b.Next(); got != w {
				t.Errorf("attempt %d: %v, want %v", i, got, w)
			}
		}
	})
}
