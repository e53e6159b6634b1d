package gtkbar

import (
	"fmt"
	"html"
	"log"
	"sync"
	"unsafe"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/halfmetre/strut/internal/layer"
	"github.com/halfmetre/strut/internal/render"
)

const markupCacheSize = 256

// Bar is the GTK display collaborator: one layer shell window per monitor,
// each holding the modules label on the left and the clock label on the
// right. All GTK calls are marshaled onto the GTK main loop with IdleAdd;
// the dispatch goroutine never touches widgets directly.
type Bar struct {
	height  int
	changes chan struct{}
	markup  *lru.Cache[string, string]

	mu      sync.Mutex
	windows []*barWindow
}

type barWindow struct {
	mon     *render.Monitor
	window  *gtk.Window
	clock   *gtk.Label
	modules *gtk.Label
}

// New initializes GTK and builds a bar window for every current monitor.
// Call before the event loop starts, on the goroutine that will call Run.
func New(height int) (*Bar, error) {
	gtk.Init(nil)

	cache, err := lru.New[string, string](markupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create markup cache: %w", err)
	}

	b := &Bar{
		height:  height,
		changes: make(chan struct{}, 1),
		markup:  cache,
	}

	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return nil, fmt.Errorf("no display connection: %w", err)
	}

	b.rebuild(display)

	display.Connect("monitor-added", func() {
		b.rebuild(display)
	})
	display.Connect("monitor-removed", func() {
		b.rebuild(display)
	})

	return b, nil
}

// rebuild tears down all bar windows and recreates one per monitor. A
// monitor whose window cannot be built is logged and skipped; the bars that
// did build stay up. Runs on the GTK thread (startup or a display signal).
func (b *Bar) rebuild(display *gdk.Display) {
	b.mu.Lock()
	old := b.windows
	b.windows = nil
	b.mu.Unlock()

	for _, w := range old {
		w.mon.Clock.SetConfigured(false)
		w.mon.Modules.SetConfigured(false)
		w.mon.Background.SetConfigured(false)
		w.window.Destroy()
	}

	count := display.GetNMonitors()
	windows := make([]*barWindow, 0, count)
	for i := 0; i < count; i++ {
		gdkMon, err := display.GetMonitor(i)
		if err != nil {
			log.Printf("gtkbar: monitor %d: %v", i, err)
			continue
		}

		w, err := b.newWindow(render.NewMonitor(fmt.Sprintf("monitor-%d", i)), gdkMon)
		if err != nil {
			log.Printf("gtkbar: failed to build bar for monitor %d: %v", i, err)
			continue
		}
		windows = append(windows, w)
	}

	b.mu.Lock()
	b.windows = windows
	b.mu.Unlock()

	b.notify()
}

func (b *Bar) newWindow(mon *render.Monitor, gdkMon *gdk.Monitor) (*barWindow, error) {
	window, err := gtk.WindowNew(gtk.WINDOW_TOPLEVEL)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	box, err := gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 0)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	modules, err := gtk.LabelNew("")
	if err != nil {
		window.Destroy()
		return nil, err
	}
	clock, err := gtk.LabelNew("")
	if err != nil {
		window.Destroy()
		return nil, err
	}

	modules.SetName("modules")
	clock.SetName("clock")
	box.PackStart(modules, false, false, 8)
	box.PackEnd(clock, false, false, 8)
	window.Add(box)

	window.SetTitle("strut")
	window.SetDecorated(false)
	window.SetResizable(false)
	window.SetName("strut")
	window.SetDefaultSize(-1, b.height)

	native := unsafe.Pointer(window.Native())
	layer.InitForWindow(native)
	layer.SetLayer(native, layer.LayerTop)
	layer.SetAnchor(native, layer.EdgeLeft, true)
	layer.SetAnchor(native, layer.EdgeRight, true)
	layer.SetAnchor(native, layer.EdgeTop, true)
	layer.SetExclusiveZone(native, b.height)
	layer.SetKeyboardMode(native, layer.KeyboardModeNone)
	layer.SetMonitor(native, unsafe.Pointer(gdkMon.Native()))

	// Draws are valid only once the compositor has mapped the surface.
	window.Connect("map-event", func() bool {
		mon.Clock.SetConfigured(true)
		mon.Modules.SetConfigured(true)
		mon.Background.SetConfigured(true)
		b.notify()
		return false
	})
	window.Connect("unmap-event", func() bool {
		mon.Clock.SetConfigured(false)
		mon.Modules.SetConfigured(false)
		mon.Background.SetConfigured(false)
		return false
	})

	window.ShowAll()

	return &barWindow{
		mon:     mon,
		window:  window,
		clock:   clock,
		modules: modules,
	}, nil
}

// notify pushes one hotplug notification, dropping it if one is pending.
func (b *Bar) notify() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// Monitors returns the current monitor set.
func (b *Bar) Monitors() []*render.Monitor {
	b.mu.Lock()
	defer b.mu.Unlock()

	monitors := make([]*render.Monitor, 0, len(b.windows))
	for _, w := range b.windows {
		monitors = append(monitors, w.mon)
	}
	return monitors
}

// Changes is the monitor hotplug readiness channel.
func (b *Bar) Changes() <-chan struct{} {
	return b.changes
}

// RenderClock sets the clock label text for the monitor.
func (b *Bar) RenderClock(mon *render.Monitor, text string) error {
	w := b.windowFor(mon)
	if w == nil {
		return fmt.Errorf("no window for %s", mon.Name)
	}

	markup := b.markupFor(text)
	glib.IdleAdd(func() {
		w.clock.SetMarkup(markup)
	})
	return nil
}

// RenderModules sets the modules label text for the monitor.
func (b *Bar) RenderModules(mon *render.Monitor, text string) error {
	w := b.windowFor(mon)
	if w == nil {
		return fmt.Errorf("no window for %s", mon.Name)
	}

	markup := b.markupFor(text)
	glib.IdleAdd(func() {
		w.modules.SetMarkup(markup)
	})
	return nil
}

// Commit queues a redraw of the window owning the surface.
func (b *Bar) Commit(s *render.Surface) error {
	w := b.windowForSurface(s)
	if w == nil {
		return fmt.Errorf("unknown surface")
	}

	glib.IdleAdd(func() {
		w.window.QueueDraw()
	})
	return nil
}

// Flush wakes the GTK main loop so queued label updates and draws run now
// rather than on its next natural wakeup.
func (b *Bar) Flush() {
	glib.IdleAdd(func() {})
}

// Run enters the GTK main loop and blocks until Quit.
func (b *Bar) Run() error {
	gtk.Main()
	return nil
}

// Quit stops the GTK main loop.
func (b *Bar) Quit() {
	glib.IdleAdd(func() {
		gtk.MainQuit()
	})
}

func (b *Bar) windowFor(mon *render.Monitor) *barWindow {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range b.windows {
		if w.mon == mon {
			return w
		}
	}
	return nil
}

func (b *Bar) windowForSurface(s *render.Surface) *barWindow {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range b.windows {
		if w.mon.Clock == s || w.mon.Modules == s || w.mon.Background == s {
			return w
		}
	}
	return nil
}

// markupFor escapes text for Pango, caching the result. Module text repeats
// heavily between passes (battery and tags change rarely), so the cache
// absorbs most of the escaping work.
func (b *Bar) markupFor(text string) string {
	if markup, ok := b.markup.Get(text); ok {
		return markup
	}

	markup := html.EscapeString(text)
	b.markup.Add(text, markup)
	return markup
}
