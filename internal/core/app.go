package core

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sahilm/fuzzy"

	"github.com/halfmetre/strut/internal/config"
	"github.com/halfmetre/strut/internal/loop"
	"github.com/halfmetre/strut/internal/power"
	"github.com/halfmetre/strut/internal/render"
	"github.com/halfmetre/strut/internal/statusbar"
	"github.com/halfmetre/strut/internal/statusbar/modules"
)

// controlVerbs are the canonical control-channel commands. Incoming verbs
// are fuzzy-matched against this list.
var controlVerbs = []string{"quit", "repaint", "refresh", "tags"}

// App is the process-wide state: config, display, loop, render trigger and
// the active module list. Created once at startup, torn down at shutdown;
// modules hold it only through the repaint closure they are given.
type App struct {
	cfg     *config.Config
	loop    *loop.Loop
	display render.Display
	trigger *render.Trigger
	modules []statusbar.Module
	control *ControlServer
	sigs    chan os.Signal
	sigRdy  chan struct{}
}

// NewApp wires the loop, trigger, modules and control channel over the
// given display. A module whose construction fails is logged and left off
// the bar; only the display itself is load-bearing.
func NewApp(cfg *config.Config, display render.Display) (*App, error) {
	a := &App{
		cfg:     cfg,
		loop:    loop.New(),
		display: display,
		sigs:    make(chan os.Signal, 1),
		sigRdy:  make(chan struct{}, 1),
	}

	a.trigger = render.NewTrigger(display, a)
	if cfg.Bar.Separator != "" {
		a.trigger.Separator = cfg.Bar.Separator
	}

	a.buildModules()
	for _, mod := range a.modules {
		a.loop.Register(mod.Event())
	}

	a.loop.Register(&loop.Event{
		Name:    "display",
		Ready:   display.Changes(),
		OnInput: a.onDisplayChange,
	})

	control, err := NewControlServer(cfg.SocketPath, a.Dispatch)
	if err != nil {
		log.Printf("control channel unavailable: %v", err)
	} else {
		a.control = control
		a.loop.Register(control.Event())
	}

	signal.Notify(a.sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range a.sigs {
			select {
			case a.sigRdy <- struct{}{}:
			default:
			}
		}
	}()
	a.loop.Register(&loop.Event{
		Name:    "signal",
		Ready:   a.sigRdy,
		OnInput: func() (loop.Action, error) { return loop.Terminate, nil },
	})

	a.loop.AfterDispatch = display.Flush

	return a, nil
}

// buildModules constructs each enabled module variant.
func (a *App) buildModules() {
	var history *power.History
	if a.cfg.History.Enabled {
		history = power.NewHistory(a.cfg.HistoryPath())
	}

	repaint := a.trigger.Repaint

	for _, name := range a.cfg.Modules.Enabled {
		var (
			mod statusbar.Module
			err error
		)

		switch name {
		case "clock":
			mod = modules.NewClock(a.cfg.Modules.Clock.Format, a.cfg.ClockInterval(), repaint)
		case "battery":
			mod, err = modules.NewBattery(a.cfg.Modules.Battery.SysfsRoot, a.cfg.BatteryInterval(), history, repaint)
		case "brightness":
			mod, err = modules.NewBrightness(a.cfg.Modules.Brightness.Root, a.cfg.Modules.Brightness.Device, a.cfg.BrightnessInterval(), repaint)
		case "tags":
			mod, err = modules.NewTags(repaint)
		default:
			log.Printf("unknown module: %s", name)
			continue
		}

		if err != nil {
			// The bar stays up without it.
			log.Printf("module %s disabled: %v", name, err)
			continue
		}

		a.modules = append(a.modules, mod)
		log.Printf("loaded module: %s", name)
	}
}

// Modules returns the active modules, in configured order.
func (a *App) Modules() []statusbar.Module {
	return a.modules
}

func (a *App) onDisplayChange() (loop.Action, error) {
	a.trigger.Repaint()
	return loop.Continue, nil
}

// Dispatch routes one control-channel message. Messages are opaque repaint
// triggers beyond the verbs the app itself knows.
func (a *App) Dispatch(message string) loop.Action {
	message = strings.TrimSpace(message)
	if message == "" {
		return loop.Continue
	}

	verb, rest, _ := strings.Cut(message, " ")
	matches := fuzzy.Find(verb, controlVerbs)
	if len(matches) == 0 {
		log.Printf("control: unknown command %q", message)
		a.trigger.Repaint()
		return loop.Continue
	}

	canonical := matches[0].Str
	switch canonical {
	case "quit":
		return loop.Terminate
	case "repaint":
		a.trigger.Repaint()
		return loop.Continue
	default:
		msg := canonical
		if rest != "" {
			msg += " " + rest
		}
		handled := false
		for _, mod := range a.modules {
			if c, ok := mod.(statusbar.Controllable); ok && c.Control(msg) {
				handled = true
				break
			}
		}
		if !handled {
			log.Printf("control: no module handled %q", msg)
		}
		a.trigger.Repaint()
		return loop.Continue
	}
}

// Run drives the event loop alongside the display main loop and blocks
// until either finishes. Terminate from any callback unwinds the loop,
// which then quits the display.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopErr := make(chan error, 1)
	go func() {
		err := a.loop.Run(ctx)
		loopErr <- err
		a.display.Quit()
	}()

	err := a.display.Run()
	cancel()

	if lerr := <-loopErr; lerr != nil && !errors.Is(lerr, context.Canceled) && err == nil {
		err = lerr
	}

	a.shutdown()
	return err
}

// shutdown releases everything in reverse construction order.
func (a *App) shutdown() {
	signal.Stop(a.sigs)

	if a.control != nil {
		a.control.Close()
	}
	for _, mod := range a.modules {
		mod.Close()
	}

	log.Println("shutdown complete")
}
