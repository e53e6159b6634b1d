package statusbar

import (
	"io"

	"github.com/halfmetre/strut/internal/loop"
)

// Module is a self-contained status provider. Each variant owns its wakeup
// source (a timer, a sway subscription, a D-Bus watch) and a cached value
// that Print formats.
type Module interface {
	// Name identifies the module in logs and control messages.
	Name() string

	// Event returns the module's loop event. It is built once at
	// construction and must stay valid (channel, callbacks, cached state)
	// for as long as it is registered; the loop does not re-query it per
	// wakeup.
	Event() *loop.Event

	// Print writes the module's current cached value as display text.
	// It may lazily refresh the cache but must leave the module consistent
	// whether or not it succeeds.
	Print(w io.Writer) error

	// Close releases the wakeup source. The loop never closes sources on a
	// module's behalf.
	Close()
}

// Controllable is implemented by modules that accept control-channel
// messages. The message payload is opaque to the dispatcher; the module
// reports whether it consumed it.
type Controllable interface {
	Control(message string) bool
}
