package modules

import (
	"io"
	"time"

	"github.com/halfmetre/strut/internal/loop"
)

// Clock displays the current time.
type Clock struct {
	format  string
	now     func() time.Time
	ticker  *time.Ticker
	ready   chan struct{}
	stop    chan struct{}
	ev      *loop.Event
	repaint func()
	cached  string
}

// NewClock creates a clock module ticking at interval. repaint is invoked
// from the module's input callback after the cached text changes.
func NewClock(format string, interval time.Duration, repaint func()) *Clock {
	if format == "" {
		format = "15:04:05"
	}
	if interval <= 0 {
		interval = time.Second
	}

	c := &Clock{
		format:  format,
		now:     time.Now,
		ticker:  time.NewTicker(interval),
		ready:   make(chan struct{}, 1),
		stop:    make(chan struct{}),
		repaint: repaint,
	}
	c.cached = c.now().Format(c.format)
	c.ev = &loop.Event{
		Name:    "clock",
		Ready:   c.ready,
		OnInput: c.onTick,
	}

	go c.forward()

	return c
}

func (c *Clock) forward() {
	for {
		select {
		case <-c.stop:
			return
		case <-c.ticker.C:
			select {
			case c.ready <- struct{}{}:
			default:
			}
		}
	}
}

func (c *Clock) onTick() (loop.Action, error) {
	c.cached = c.now().Format(c.format)
	if c.repaint != nil {
		c.repaint()
	}
	return loop.Continue, nil
}

// Name returns the module name
func (c *Clock) Name() string {
	return "clock"
}

// Event returns the clock's loop event
func (c *Clock) Event() *loop.Event {
	return c.ev
}

// Print writes the cached time text.
func (c *Clock) Print(w io.Writer) error {
	_, err := io.WriteString(w, c.cached)
	return err
}

// Close stops the timer.
func (c *Clock) Close() {
	c.ticker.Stop()
	close(c.stop)
}
