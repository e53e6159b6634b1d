// Package layer is a minimal cgo binding over gtk-layer-shell, covering
// what the bar windows need: layer placement, edge anchoring, an exclusive
// zone and per-monitor pinning.
package layer

/*
#cgo pkg-config: gtk-layer-shell-0
#include <gtk-layer-shell.h>
*/
import "C"
import "unsafe"

// InitForWindow turns a toplevel window into a layer shell surface. Must be
// called before the window is realized.
func InitForWindow(window unsafe.Pointer) {
	C.gtk_layer_init_for_window((*C.GtkWindow)(window))
}

// SetLayer places the surface on the given shell layer.
func SetLayer(window unsafe.Pointer, layer Layer) {
	C.gtk_layer_set_layer((*C.GtkWindow)(window), C.GtkLayerShellLayer(layer))
}

// SetAnchor anchors or releases the surface on one screen edge.
func SetAnchor(window unsafe.Pointer, edge Edge, anchorTo bool) {
	var anchor C.gboolean
	if anchorTo {
		anchor = 1
	}
	C.gtk_layer_set_anchor((*C.GtkWindow)(window), C.GtkLayerShellEdge(edge), anchor)
}

// SetExclusiveZone reserves space so tiled windows do not cover the bar.
func SetExclusiveZone(window unsafe.Pointer, zone int) {
	C.gtk_layer_set_exclusive_zone((*C.GtkWindow)(window), C.int(zone))
}

// SetMonitor pins the surface to one output. monitor is a *GdkMonitor.
func SetMonitor(window unsafe.Pointer, monitor unsafe.Pointer) {
	C.gtk_layer_set_monitor((*C.GtkWindow)(window), (*C.GdkMonitor)(monitor))
}

// SetKeyboardMode sets keyboard interactivity; the bar never takes focus.
func SetKeyboardMode(window unsafe.Pointer, mode KeyboardMode) {
	C.gtk_layer_set_keyboard_mode((*C.GtkWindow)(window), C.GtkLayerShellKeyboardMode(mode))
}

// Layer is a layer shell stacking layer.
type Layer int

const (
	LayerBackground Layer = 0
	LayerBottom     Layer = 1
	LayerTop        Layer = 2
	LayerOverlay    Layer = 3
)

// Edge is a screen edge.
type Edge int

const (
	EdgeLeft   Edge = 0
	EdgeRight  Edge = 1
	EdgeTop    Edge = 2
	EdgeBottom Edge = 3
)

// KeyboardMode is the keyboard interactivity mode.
type KeyboardMode int

const (
	KeyboardModeNone      KeyboardMode = 0
	KeyboardModeExclusive KeyboardMode = 1
	KeyboardModeOnDemand  KeyboardMode = 2
)
