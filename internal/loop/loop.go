package loop

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Action is the control signal a callback hands back to the loop. It is
// deliberately separate from the error return: an error is a per-source
// problem the loop logs and survives, an Action decides whether dispatch
// continues at all.
type Action int

const (
	Continue Action = iota
	Terminate
)

// String returns the string representation of Action
func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Terminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Callback handles one readiness notification for an event's source.
type Callback func() (Action, error)

// NopCallback is the shared pass-through output callback for modules with
// no write-readiness interest. It does nothing and never fails.
func NopCallback() (Action, error) {
	return Continue, nil
}

// Event binds one wakeup source to its owning module. Ready carries
// readiness notifications; OnInput is invoked for each of them, then
// OnOutput if set. The channel and both callbacks must stay valid for as
// long as the event is registered. The loop never closes Ready on the
// module's behalf.
type Event struct {
	Name     string
	Ready    <-chan struct{}
	OnInput  Callback
	OnOutput Callback
}

var ErrAlreadyRunning = errors.New("event loop is already running")

// wakeup pairs an event with one readiness notification in the fan-in queue.
type wakeup struct {
	ev *Event
}

// Loop multiplexes all registered events and dispatches their callbacks
// sequentially. Every callback runs to completion on the Run goroutine
// before the next wakeup is serviced, so callbacks may mutate shared state
// without locking. Wakeups are serviced in arrival order; no priority
// across events.
type Loop struct {
	mu      sync.Mutex
	events  []*Event
	wake    chan wakeup
	done    chan struct{}
	running bool

	// AfterDispatch, if set, runs at the end of every dispatch iteration
	// regardless of which source fired. Used to flush the display
	// connection.
	AfterDispatch func()
}

// New creates an empty event loop.
func New() *Loop {
	return &Loop{
		wake: make(chan wakeup, 64),
	}
}

// Register adds a pollable source to the loop. Safe to call before Run and
// from within a callback (e.g. a new control connection or monitor). The
// forwarder it starts stops when the loop is done; the event's Ready
// channel itself stays owned by the module.
func (l *Loop) Register(ev *Event) {
	if ev.OnOutput == nil {
		ev.OnOutput = NopCallback
	}

	l.mu.Lock()
	l.events = append(l.events, ev)
	done := l.doneLocked()
	l.mu.Unlock()

	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-ev.Ready:
				if !ok {
					return
				}
				select {
				case l.wake <- wakeup{ev: ev}:
				case <-done:
					return
				}
			}
		}
	}()
}

// doneLocked returns a channel closed when the loop finishes. Created
// lazily so events can be registered before Run.
func (l *Loop) doneLocked() <-chan struct{} {
	if l.done == nil {
		l.done = make(chan struct{})
	}
	return l.done
}

// Run blocks, waiting for readiness across all registered sources and
// dispatching callbacks until a callback returns Terminate or ctx is
// cancelled. When a callback terminates the loop, no further callback from
// the same readiness batch runs. Callback errors are logged and swallowed;
// only Terminate (nil error) or ctx cancellation end the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.running = true
	l.doneLocked()
	l.mu.Unlock()

	// Close before clearing, under the lock, so a Register racing loop exit
	// either sees the closing channel or a fresh one a later Run will own.
	defer func() {
		l.mu.Lock()
		l.running = false
		close(l.done)
		l.done = nil
		l.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case w := <-l.wake:
			if l.dispatch(w.ev) == Terminate {
				return nil
			}
			if l.AfterDispatch != nil {
				l.AfterDispatch()
			}
		}
	}
}

// dispatch services one wakeup: input callback, then output callback if
// the event has one.
func (l *Loop) dispatch(ev *Event) Action {
	act, err := ev.OnInput()
	if err != nil {
		log.Printf("loop: %s input callback: %v", ev.Name, err)
	}
	if act == Terminate {
		log.Printf("loop: %s requested termination", ev.Name)
		return Terminate
	}

	act, err = ev.OnOutput()
	if err != nil {
		log.Printf("loop: %s output callback: %v", ev.Name, err)
	}
	if act == Terminate {
		log.Printf("loop: %s requested termination", ev.Name)
		return Terminate
	}

	return Continue
}

// Events returns the registered event names, in registration order.
func (l *Loop) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.events))
	for _, ev := range l.events {
		names = append(names, ev.Name)
	}
	return names
}
