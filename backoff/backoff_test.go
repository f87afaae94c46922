package backoff_test

import (
	"testing"
	"time"

	"github.com/mitchcodes/datautils/backoff"
)

func TestNone(t *testing.T) {
	for attempt := 1; attempt <= 5; attempt++ {
		if got := backoff.None.Delay(attempt); got != 0 {
			t.Errorf("Delay(%d) = %v, want 0", attempt, got)
		}
	}
}

func TestConstant(t *testing.T) {
	c := backoff.Constant(50 * time.Millisecond)
	for attempt := 1; attempt <= 5; attempt++ {
		if got := c.Delay(attempt); got != 50*time.Millisecond {
			t.Errorf("Delay(%d) = %v, want 50ms", attempt, got)
		}
	}
}

func TestLinear(t *testing.T) {
	l := backoff.Linear{Step: 100 * time.Millisecond, Max: 350 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 350 * time.Millisecond},
		{40, 350 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := l.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponential(t *testing.T) {
	e := backoff.Exponential{Initial: 10 * time.Millisecond, Max: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{7, 640 * time.Millisecond},
		{8, time.Second},
		{500, time.Second},
	}
	for _, tt := range tests {
		if got := e.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponential_CustomFactor(t *testing.T) {
	e := backoff.Exponential{Initial: time.Millisecond, Factor: 3}
	if got := e.Delay(3); got != 9*time.Millisecond {
		t.Errorf("Delay(3) = %v, want 9ms", got)
	}
}

func TestJitter_StaysBelowBase(t *testing.T) {
	s := backoff.Jitter(backoff.Constant(20 * time.Millisecond))
	for range 200 {
		d := s.Delay(1)
		if d < 0 || d >= 20*time.Millisecond {
			t.Fatalf("Delay = %v, want [0, 20ms)", d)
		}
	}
	if got := backoff.Jitter(backoff.None).Delay(1); got != 0 {
		t.Errorf("Jitter(None).Delay = %v, want 0", got)
	}
}
