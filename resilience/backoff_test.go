package resilience

import (
	"testing"
	"time"
)

func TestLinearBackoff(t *testing.T) {
	b := LinearBackoff(time.Second)
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{5, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := b(tt.attempt); got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(3*time.Second, 1.5, 30*time.Second)
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 3 * time.Second},
		{2, 4500 * time.Millisecond},
		{3, 6750 * time.Millisecond},
		{6, 22781250 * time.Microsecond},
		{7, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := b(tt.attempt); got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestExponentialBackoff_Uncapped(t *testing.T) {
	b := ExponentialBackoff(100*time.Millisecond, 2, 0)
	if got := b(11); got != 102400*time.Millisecond {
		t.Errorf("expected 102.4s, got %v", got)
	}
}
