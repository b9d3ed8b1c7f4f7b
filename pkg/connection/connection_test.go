package connection

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff()

		expected := []time.Duration{
			1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
			16 * time.Second, 32 * time.Second, 64 * time.Second, 128 * time.Second,
			256 * time.Second, 512 * time.Second, 900 * time.Second,
			900 * time.Second, 900 * time.Second,
		}

		for i, exp := range expected {
			got := b.Next()
			if got != exp {
				t.Errorf("Attempt %d: delay = %v, want %v", i, got, exp)
			}
		}
	})

	t.Run("NeverExceedsMax", func(t *testing.T) {
		b := NewBackoff()
		lo, hi := b.Bounds()

		prev := time.Duration(0)
		for i := 0; i < 100; i++ {
			got := b.Next()
			if got < lo || got > hi {
				t.Fatalf("Attempt %d: delay %v outside [%v, %v]", i, got, lo, hi)
			}
			if got < prev {
				t.Fatalf("Attempt %d: delay %v decreased from %v", i, got, prev)
			}
			prev = got
		}
	})

	t.Run("FirstFailureUsesInitial", func(t *testing.T) {
		b := NewBackoff()

		if got := b.Next(); got != InitialBackoff {
			t.Errorf("first delay = %v, want %v", got, InitialBackoff)
		}
		if got := b.Current(); got != 2*InitialBackoff {
			t.Errorf("Current() after first failure = %v, want %v", got, 2*InitialBackoff)
		}
	})

	t.Run("ResetAfterSuccess", func(t *testing.T) {
		b := NewBackoff()

		for i := 0; i < 5; i++ {
			b.Next()
		}
		if b.Current() <= InitialBackoff {
			t.Error("Backoff should have increased")
		}

		if !b.Reset() {
			t.Error("Reset() = false after failures, want true")
		}
		if b.Reset() {
			t.Error("second Reset() = true, want false")
		}

		if b.Current() != InitialBackoff {
			t.Errorf("Current() = %v after reset, want %v", b.Current(), InitialBackoff)
		}
		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
		if got := b.Next(); got != InitialBackoff {
			t.Errorf("first delay after reset = %v, want %v", got, InitialBackoff)
		}
	})

	t.Run("Attempts", func(t *testing.T) {
		b := NewBackoff()

		if b.Attempts() != 0 {
			t.Errorf("Initial Attempts() = %d, want 0", b.Attempts())
		}

		for i := 1; i <= 5; i++ {
			b.Next()
			if b.Attempts() != i {
				t.Errorf("After %d calls, Attempts() = %d", i, b.Attempts())
			}
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{Jitter: 0.25})

		samples := make([]time.Duration, 10)
		for i := range samples {
			samples[i] = b.Next()
			b.Reset()
		}

		for i, s := range samples {
			if s < 1*time.Second || s > time.Duration(float64(1*time.Second)*1.25)+time.Millisecond {
				t.Errorf("Sample %d: %v out of expected range [1s, 1.25s]", i, s)
			}
		}

		allSame := true
		for i := 1; i < len(samples); i++ {
			if samples[i] != samples[0] {
				allSame = false
				break
			}
		}
		if allSame {
			t.Error("All jittered samples are identical - jitter may not be working")
		}
	})

	t.Run("CustomConfig", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{
			Initial:    100 * time.Millisecond,
			Max:        500 * time.Millisecond,
			Multiplier: 2.0,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond, // Max
			500 * time.Millisecond,
		}

		for i, exp := range expected {
			got := b.Next()
			if got != exp {
				t.Errorf("Attempt %d: got %v, want %v", i, got, exp)
			}
		}
	})

	t.Run("MaxBelowInitial", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{
			Initial: 2 * time.Second,
			Max:     time.Second,
		})
		if got := b.Next(); got != 2*time.Second {
			t.Errorf("delay = %v, want 2s", got)
		}
		if got := b.Next(); got != 2*time.Second {
			t.Errorf("delay = %v, want max clamped to initial", got)
		}
	})
}

func TestBackoffJitterStaysWithinBounds(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Initial: time.Second, Max: 900 * time.Second, Jitter: 1})
	lo, hi := b.Bounds()

	for i := 0; i < 200; i++ {
		got := b.Next()
		if got < lo || got > hi {
			t.Fatalf("Attempt %d: jittered delay %v outside [%v, %v]", i, got, lo, hi)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnecting, "CONNECTING"},
		{StateConnected, "CONNECTED"},
		{StateReconnecting, "RECONNECTING"},
		{StateClosed, "CLOSED"},
		{State(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
