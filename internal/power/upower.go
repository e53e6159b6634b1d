package power

import (
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"
)

const (
	upowerPath      = "/org/freedesktop/UPower"
	upowerInterface = "org.freedesktop.UPower"
)

// HotplugWatcher turns UPower DeviceAdded/DeviceRemoved D-Bus signals into
// readiness notifications, so the battery module can re-reconcile ahead of
// its timer cadence when hardware appears.
type HotplugWatcher struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	notify  chan<- struct{}
	stop    chan struct{}
}

// WatchHotplug subscribes to UPower device signals on the system bus and
// pushes a notification into notify for each one. UPower being absent is
// not fatal; the battery module still refreshes on its timer.
func WatchHotplug(notify chan<- struct{}) (*HotplugWatcher, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(upowerPath),
		dbus.WithMatchInterface(upowerInterface),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to match UPower signals: %w", err)
	}

	w := &HotplugWatcher{
		conn:    conn,
		signals: make(chan *dbus.Signal, 16),
		notify:  notify,
		stop:    make(chan struct{}),
	}
	conn.Signal(w.signals)

	go w.forward()

	return w, nil
}

func (w *HotplugWatcher) forward() {
	for {
		select {
		case <-w.stop:
			return
		case sig, ok := <-w.signals:
			if !ok {
				return
			}
			switch sig.Name {
			case upowerInterface + ".DeviceAdded", upowerInterface + ".DeviceRemoved":
				log.Printf("power: hotplug signal %s", sig.Name)
				select {
				case w.notify <- struct{}{}:
				default:
				}
			}
		}
	}
}

// Close tears down the subscription and the bus connection.
func (w *HotplugWatcher) Close() {
	close(w.stop)
	w.conn.RemoveSignal(w.signals)
	w.conn.Close()
}
