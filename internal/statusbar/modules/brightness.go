package modules

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/halfmetre/strut/internal/loop"
)

// DefaultBacklightRoot is where the kernel exposes backlight class devices.
const DefaultBacklightRoot = "/sys/class/backlight"

// Brightness displays the screen backlight level.
type Brightness struct {
	dir     string
	ticker  *time.Ticker
	ready   chan struct{}
	stop    chan struct{}
	ev      *loop.Event
	repaint func()
	percent int
	known   bool
}

// NewBrightness creates a brightness module reading from the named device
// under root (first device found if device is empty). A missing backlight
// is fatal at construction; the bar runs without the module.
func NewBrightness(root, device string, interval time.Duration, repaint func()) (*Brightness, error) {
	if root == "" {
		root = DefaultBacklightRoot
	}

	dir, err := resolveBacklight(root, device)
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = 5 * time.Second
	}

	b := &Brightness{
		dir:     dir,
		ticker:  time.NewTicker(interval),
		ready:   make(chan struct{}, 1),
		stop:    make(chan struct{}),
		repaint: repaint,
	}
	b.ev = &loop.Event{
		Name:    "brightness",
		Ready:   b.ready,
		OnInput: b.onTick,
	}
	b.refresh()

	go b.forward()

	return b, nil
}

// resolveBacklight picks the backlight device directory.
func resolveBacklight(root, device string) (string, error) {
	if device != "" {
		dir := filepath.Join(root, device)
		if _, err := os.Stat(dir); err != nil {
			return "", fmt.Errorf("backlight device %s: %w", device, err)
		}
		return dir, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("failed to enumerate backlights: %w", err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no backlight devices under %s", root)
	}
	return filepath.Join(root, entries[0].Name()), nil
}

func (b *Brightness) forward() {
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

func (b *Brightness) onTick() (loop.Action, error) {
	b.refresh()
	if b.repaint != nil {
		b.repaint()
	}
	return loop.Continue, nil
}

// refresh reads current and max brightness, keeping the previous value on
// any read error.
func (b *Brightness) refresh() {
	current, err := readSysfsInt(filepath.Join(b.dir, "brightness"))
	if err != nil {
		log.Printf("brightness: %v", err)
		return
	}
	max, err := readSysfsInt(filepath.Join(b.dir, "max_brightness"))
	if err != nil || max <= 0 {
		log.Printf("brightness: bad max_brightness: %v", err)
		return
	}

	b.percent = int(math.Round(float64(current) * 100 / float64(max)))
	b.known = true
}

func readSysfsInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// Name returns the module name
func (b *Brightness) Name() string {
	return "brightness"
}

// Event returns the brightness loop event
func (b *Brightness) Event() *loop.Event {
	return b.ev
}

// Print writes the backlight icon and percentage.
func (b *Brightness) Print(w io.Writer) error {
	if !b.known {
		return nil
	}

	icon := ""
	if b.percent >= 50 {
		icon = ""
	}
	_, err := fmt.Fprintf(w, "%s %d%%", icon, b.percent)
	return err
}

// Close stops the timer.
func (b *Brightness) Close() {
	b.ticker.Stop()
	close(b.stop)
}
