package render

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/halfmetre/strut/internal/loop"
	"github.com/halfmetre/strut/internal/statusbar"
)

// fakeModule prints a fixed text, optionally failing.
type fakeModule struct {
	name string
	text string
	err  error
}

func (m *fakeModule) Name() string { return m.name }
func (m *fakeModule) Event() *loop.Event { return nil }
func (m *fakeModule) Close() {}
func (m *fakeModule) Print(w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, m.text)
	return err
}

type fakeSource struct {
	modules []statusbar.Module
}

func (s *fakeSource) Modules() []statusbar.Module { return s.modules }

// fakeDisplay records render and commit calls and can fail one region.
type fakeDisplay struct {
	monitors  []*Monitor
	calls     []string
	clockErr  map[string]error
	lastClock map[string]string
	lastMods  map[string]string
}

func newFakeDisplay(monitors ...*Monitor) *fakeDisplay {
	return &fakeDisplay{
		monitors:  monitors,
		clockErr:  make(map[string]error),
		lastClock: make(map[string]string),
		lastMods:  make(map[string]string),
	}
}

func (d *fakeDisplay) RenderClock(m *Monitor, text string) error {
	if err := d.clockErr[m.Name]; err != nil {
		return err
	}
	d.calls = append(d.calls, m.Name+":render-clock")
	d.lastClock[m.Name] = text
	return nil
}

func (d *fakeDisplay) RenderModules(m *Monitor, text string) error {
	d.calls = append(d.calls, m.Name+":render-modules")
	d.lastMods[m.Name] = text
	return nil
}

func (d *fakeDisplay) Commit(s *Surface) error {
	for _, m := range d.monitors {
		switch s {
		case m.Clock:
			d.calls = append(d.calls, m.Name+":commit-clock")
		case m.Modules:
			d.calls = append(d.calls, m.Name+":commit-modules")
		case m.Background:
			d.calls = append(d.calls, m.Name+":commit-background")
		}
	}
	return nil
}

func (d *fakeDisplay) Monitors() []*Monitor { return d.monitors }
func (d *fakeDisplay) Changes() <-chan struct{} { return nil }
func (d *fakeDisplay) Flush() {}
func (d *fakeDisplay) Run() error { return nil }
func (d *fakeDisplay) Quit() {}

func configured(name string) *Monitor {
	m := NewMonitor(name)
	m.Clock.SetConfigured(true)
	m.Modules.SetConfigured(true)
	m.Background.SetConfigured(true)
	return m
}

func TestRepaintSkipsUnconfiguredSurfaces(t *testing.T) {
	ready := configured("ready")
	pending := NewMonitor("pending")
	display := newFakeDisplay(ready, pending)

	trigger := NewTrigger(display, &fakeSource{modules: []statusbar.Module{
		&fakeModule{name: "clock", text: "12:00"},
		&fakeModule{name: "battery", text: "42%"},
	}})
	trigger.Repaint()

	for _, call := range display.calls {
		if strings.HasPrefix(call, "pending:") {
			t.Errorf("unconfigured monitor was touched: %s", call)
		}
	}
	if display.lastClock["ready"] != "12:00" {
		t.Errorf("clock region not rendered: %q", display.lastClock["ready"])
	}
}

func TestCommitOrder(t *testing.T) {
	mon := configured("only")
	display := newFakeDisplay(mon)

	trigger := NewTrigger(display, &fakeSource{modules: []statusbar.Module{
		&fakeModule{name: "clock", text: "12:00"},
	}})
	trigger.Repaint()

	want := []string{
		"only:render-clock",
		"only:render-modules",
		"only:commit-clock",
		"only:commit-modules",
		"only:commit-background",
	}
	if len(display.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), display.calls)
	}
	for i := range want {
		if display.calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], display.calls[i])
		}
	}
}

func TestClockRegionFailureDoesNotBlockPass(t *testing.T) {
	broken := configured("broken")
	healthy := configured("healthy")
	display := newFakeDisplay(broken, healthy)
	display.clockErr["broken"] = errors.New("shaper exploded")

	trigger := NewTrigger(display, &fakeSource{modules: []statusbar.Module{
		&fakeModule{name: "clock", text: "12:00"},
		&fakeModule{name: "battery", text: "42%"},
	}})
	trigger.Repaint()

	if display.lastMods["broken"] == "" {
		t.Error("modules region skipped after clock region failure")
	}
	committed := strings.Join(display.calls, " ")
	for _, want := range []string{
		"broken:commit-clock", "broken:commit-modules", "broken:commit-background",
		"healthy:render-clock", "healthy:commit-background",
	} {
		if !strings.Contains(committed, want) {
			t.Errorf("missing %s in pass: %v", want, display.calls)
		}
	}
}

func TestModulesTextJoinsAndSkipsFailures(t *testing.T) {
	mon := configured("only")
	display := newFakeDisplay(mon)

	trigger := NewTrigger(display, &fakeSource{modules: []statusbar.Module{
		&fakeModule{name: "clock", text: "12:00"},
		&fakeModule{name: "tags", text: "[1] 2"},
		&fakeModule{name: "battery", err: errors.New("refresh race")},
		&fakeModule{name: "brightness", text: "70%"},
	}})
	trigger.Separator = " | "
	trigger.Repaint()

	if got := display.lastMods["only"]; got != "[1] 2 | 70%" {
		t.Errorf("unexpected modules text: %q", got)
	}
	if got := display.lastClock["only"]; got != "12:00" {
		t.Errorf("clock text leaked into modules region or was lost: %q", got)
	}
}
