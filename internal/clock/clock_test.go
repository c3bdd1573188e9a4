package clock

import (
	"testing"
	"time"
)

// TestSystemNowUTC ensures the clock returns UTC timestamps.
func TestSystemNowUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

func TestFuncClock(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 8, 11, 12, 0, 0, 0, time.UTC)
	var clk Clock = Func(func() time.Time { return fixed })
	if !clk.Now().Equal(fixed) {
		t.Fatalf("expected %v, got %v", fixed, clk.Now())
	}
}
