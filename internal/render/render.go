package render

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/halfmetre/strut/internal/statusbar"
)

// Surface is one per-monitor drawable target. Configured flips once the
// display server finishes the handshake for the output; draws before that
// would hit an invalid buffer and are skipped. The flag is atomic because
// the display collaborator sets it from its own main loop while the
// dispatch goroutine reads it.
type Surface struct {
	configured atomic.Bool
}

// Configured reports whether the surface is ready to draw into.
func (s *Surface) Configured() bool {
	return s.configured.Load()
}

// SetConfigured marks the surface state. Called by the display collaborator
// when the compositor completes or revokes the surface setup.
func (s *Surface) SetConfigured(v bool) {
	s.configured.Store(v)
}

// Monitor is one output with its three bar surfaces.
type Monitor struct {
	Name       string
	Clock      *Surface
	Modules    *Surface
	Background *Surface
}

// NewMonitor creates a monitor with unconfigured surfaces.
func NewMonitor(name string) *Monitor {
	return &Monitor{
		Name:       name,
		Clock:      &Surface{},
		Modules:    &Surface{},
		Background: &Surface{},
	}
}

// Renderer is the compositing and text shaping boundary. The trigger hands
// it text and a target surface and expects success or a recoverable error;
// pixel contents are not its business.
type Renderer interface {
	RenderClock(m *Monitor, text string) error
	RenderModules(m *Monitor, text string) error
	Commit(s *Surface) error
}

// Display is the display-server boundary: the renderer plus the monitor
// list, a hotplug notification channel, and the per-iteration flush of
// outgoing protocol requests.
type Display interface {
	Renderer
	Monitors() []*Monitor
	Changes() <-chan struct{}
	Flush()
	Run() error
	Quit()
}

// Printer yields the module list the bar shows, in display order.
type Printer interface {
	Modules() []statusbar.Module
}

// Trigger repaints every configured monitor. Invoked from module input
// callbacks after they update shared-visible state.
type Trigger struct {
	display Display
	source  Printer

	// Separator goes between module texts in the modules region.
	Separator string
}

// NewTrigger creates a render trigger over the display and module source.
func NewTrigger(display Display, source Printer) *Trigger {
	return &Trigger{
		display:   display,
		source:    source,
		Separator: "  ",
	}
}

// Repaint renders the clock and modules regions of every configured monitor
// and commits clock, modules, background in that order. Region failures are
// logged and skipped; a bad region never blocks the rest of the pass, and a
// partial update is corrected on the next tick.
func (t *Trigger) Repaint() {
	clockText := t.clockText()
	modulesText := t.modulesText()

	for _, mon := range t.display.Monitors() {
		if mon.Clock.Configured() {
			if err := t.display.RenderClock(mon, clockText); err != nil {
				log.Printf("render: %s clock region: %v", mon.Name, err)
			}
		}
		if mon.Modules.Configured() {
			if err := t.display.RenderModules(mon, modulesText); err != nil {
				log.Printf("render: %s modules region: %v", mon.Name, err)
			}
		}

		if mon.Clock.Configured() {
			t.commit(mon.Name, "clock", mon.Clock)
		}
		if mon.Modules.Configured() {
			t.commit(mon.Name, "modules", mon.Modules)
		}
		if mon.Background.Configured() {
			t.commit(mon.Name, "background", mon.Background)
		}
	}
}

func (t *Trigger) commit(monitor, region string, s *Surface) {
	if err := t.display.Commit(s); err != nil {
		log.Printf("render: %s %s commit: %v", monitor, region, err)
	}
}

// clockText prints the clock module, if present.
func (t *Trigger) clockText() string {
	for _, mod := range t.source.Modules() {
		if mod.Name() == "clock" {
			return printModule(mod)
		}
	}
	return ""
}

// modulesText prints every non-clock module joined by the separator.
func (t *Trigger) modulesText() string {
	parts := make([]string, 0, 4)
	for _, mod := range t.source.Modules() {
		if mod.Name() == "clock" {
			continue
		}
		if text := printModule(mod); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, t.Separator)
}

// printModule formats one module, swallowing its error: a module that fails
// to print this pass shows nothing rather than taking the bar down.
func printModule(mod statusbar.Module) string {
	var sb strings.Builder
	if err := mod.Print(&sb); err != nil {
		log.Printf("render: module %s: %v", mod.Name(), err)
		return ""
	}
	return sb.String()
}
