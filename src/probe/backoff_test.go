package probe

import (
	"testing"
	"time"
)

func TestCalculateNextInterval(t *testing.T) {
	if got := calculateNextInterval(100*time.Millisecond, time.Second, 2); got != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", got)
	}
	if got := calculateNextInterval(800*time.Millisecond, time.Second, 2); got != time.Second {
		t.Fatalf("expected cap at 1s, got %v", got)
	}
}

func TestApplyJitter(t *testing.T) {
	if got := applyJitter(time.Second, 0); got != time.Second {
		t.Fatalf("zero jitter should not change the interval, got %v", got)
	}
	for i := 0; i < 100; i++ {
		got := applyJitter(time.Second, 0.2)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jittered interval %v out of range", got)
		}
	}
}
