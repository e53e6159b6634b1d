package modules

import (
	"strings"
	"testing"
	"time"

	"github.com/halfmetre/strut/internal/loop"
)

func TestClockPrintsFormattedTime(t *testing.T) {
	c := NewClock("15:04", time.Hour, nil)
	defer c.Close()

	c.now = func() time.Time {
		return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	}
	if act, err := c.onTick(); act != loop.Continue || err != nil {
		t.Fatalf("onTick returned (%v, %v)", act, err)
	}

	var sb strings.Builder
	if err := c.Print(&sb); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if got := sb.String(); got != "09:30" {
		t.Errorf("expected 09:30, got %q", got)
	}
}

func TestClockPrintIsIdempotent(t *testing.T) {
	c := NewClock("", 0, nil)
	defer c.Close()

	var first, second strings.Builder
	if err := c.Print(&first); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if err := c.Print(&second); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("Print not idempotent: %q vs %q", first.String(), second.String())
	}
}

func TestClockTickTriggersRepaint(t *testing.T) {
	repaints := 0
	c := NewClock("15:04:05", time.Hour, func() { repaints++ })
	defer c.Close()

	c.onTick()
	c.onTick()
	if repaints != 2 {
		t.Errorf("expected 2 repaints, got %d", repaints)
	}
}
