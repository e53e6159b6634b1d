package modules

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/halfmetre/strut/internal/loop"
	"github.com/halfmetre/strut/internal/power"
)

// batteryIcons is the fixed status-to-icon lookup. Unknown statuses fall
// back to batteryIconDefault.
var batteryIcons = map[string]string{
	"Discharging": "",
	"Charging":    "",
	"Full":        "",
}

const batteryIconDefault = ""

// Battery displays charge state for every battery the registry knows. Its
// wakeup source merges a timer with UPower hotplug notifications, so a
// plugged-in battery shows up ahead of the next scheduled refresh.
type Battery struct {
	registry *power.Registry
	history  *power.History
	ticker   *time.Ticker
	ready    chan struct{}
	stop     chan struct{}
	hotplug  *power.HotplugWatcher
	ev       *loop.Event
	repaint  func()
}

// NewBattery creates the battery module. Fails with power.ErrNoDevices when
// the host has no battery hardware; the caller decides whether to run
// without the module. history may be nil to disable charge recording.
func NewBattery(sysfsRoot string, interval time.Duration, history *power.History, repaint func()) (*Battery, error) {
	registry, err := power.NewRegistry(sysfsRoot)
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = 30 * time.Second
	}

	b := &Battery{
		registry: registry,
		history:  history,
		ticker:   time.NewTicker(interval),
		ready:    make(chan struct{}, 1),
		stop:     make(chan struct{}),
		repaint:  repaint,
	}
	b.ev = &loop.Event{
		Name:    "battery",
		Ready:   b.ready,
		OnInput: b.onWake,
	}

	hotplug, err := power.WatchHotplug(b.ready)
	if err != nil {
		log.Printf("battery: hotplug watch unavailable: %v", err)
	} else {
		b.hotplug = hotplug
	}

	go b.forward()

	return b, nil
}

func (b *Battery) forward() {
	for {
		select {
		case <-b.stop:
			return
		case <-b.ticker.C:
			select {
			case b.ready <- struct{}{}:
			default:
			}
		}
	}
}

func (b *Battery) onWake() (loop.Action, error) {
	if err := b.registry.Refresh(); err != nil {
		// Stale values stay on the bar; retried on the next cadence.
		log.Printf("battery: refresh failed: %v", err)
	}

	if b.history != nil {
		for _, dev := range b.registry.Devices() {
			b.history.Record(dev.Name, dev.Capacity, dev.Status == "Charging")
		}
	}

	if b.repaint != nil {
		b.repaint()
	}
	return loop.Continue, nil
}

// Name returns the module name
func (b *Battery) Name() string {
	return "battery"
}

// Event returns the battery's loop event
func (b *Battery) Event() *loop.Event {
	return b.ev
}

// Print writes icon and percentage for each known battery.
func (b *Battery) Print(w io.Writer) error {
	parts := make([]string, 0, 1)
	for _, dev := range b.registry.Devices() {
		icon, ok := batteryIcons[dev.Status]
		if !ok {
			icon = batteryIconDefault
		}
		parts = append(parts, fmt.Sprintf("%s %d%%", icon, dev.Capacity))
	}

	_, err := io.WriteString(w, strings.Join(parts, " "))
	return err
}

// Control handles "refresh" from the control channel.
func (b *Battery) Control(message string) bool {
	if message != "refresh" {
		return false
	}
	select {
	case b.ready <- struct{}{}:
	default:
	}
	return true
}

// Close stops the timer and the hotplug watch, and flushes history.
func (b *Battery) Close() {
	b.ticker.Stop()
	close(b.stop)
	if b.hotplug != nil {
		b.hotplug.Close()
	}
	if b.history != nil {
		b.history.Flush()
	}
}
