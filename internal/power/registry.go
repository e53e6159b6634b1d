package power

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSysfsRoot is where the kernel exposes power supply class devices.
const DefaultSysfsRoot = "/sys/class/power_supply"

var ErrNoDevices = errors.New("power: no battery devices found")

// Device is the reconciled record of one physical battery. Name is stable
// once discovered; Status and Capacity are refreshed in place.
type Device struct {
	Name     string
	Status   string
	Capacity int
}

// Registry maintains a deduplicated view of all battery-like power supply
// devices. Records are keyed by identity name and never removed once seen;
// hardware is assumed stable for the process lifetime.
type Registry struct {
	root    string
	devices []*Device
	index   map[string]*Device
}

// NewRegistry enumerates batteries under root (DefaultSysfsRoot if empty)
// and fails with ErrNoDevices when none are present. No battery hardware is
// fatal for the battery module; the caller decides whether to disable it.
func NewRegistry(root string) (*Registry, error) {
	if root == "" {
		root = DefaultSysfsRoot
	}

	r := &Registry{
		root:  root,
		index: make(map[string]*Device),
	}

	if err := r.Refresh(); err != nil {
		return nil, err
	}
	if len(r.devices) == 0 {
		return nil, ErrNoDevices
	}

	return r, nil
}

// Refresh re-enumerates the power supply class and reconciles every battery
// into the registry. A device that fails to read this cycle keeps its
// previous values; only a failure to list the class directory itself is
// reported.
func (r *Registry) Refresh() error {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return fmt.Errorf("failed to enumerate power supplies: %w", err)
	}

	for _, entry := range entries {
		dir := filepath.Join(r.root, entry.Name())

		kind, err := readAttr(dir, "type")
		if err != nil || kind != "Battery" {
			continue
		}

		dev, ok := r.index[entry.Name()]
		if !ok {
			dev = &Device{Name: entry.Name()}
			r.devices = append(r.devices, dev)
			r.index[dev.Name] = dev
			log.Printf("power: discovered battery %s", dev.Name)
		}

		r.update(dir, dev)
	}

	return nil
}

// update refreshes one record in place, failing open: any attribute that
// cannot be read this cycle leaves the previous cached value.
func (r *Registry) update(dir string, dev *Device) {
	if status, err := readAttr(dir, "status"); err == nil {
		dev.Status = status
	}

	if capacity, err := readCapacity(dir); err == nil {
		dev.Capacity = capacity
	} else {
		log.Printf("power: %s: %v", dev.Name, err)
	}
}

// Devices returns a snapshot of all records, in discovery order.
func (r *Registry) Devices() []Device {
	out := make([]Device, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, *dev)
	}
	return out
}

// readCapacity resolves a battery's charge percentage via the three-tier
// fallback: the direct capacity attribute, then the charge_now/charge_full
// ratio, then the energy_now/energy_full ratio.
func readCapacity(dir string) (int, error) {
	if raw, err := readAttr(dir, "capacity"); err == nil {
		capacity, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("bad capacity value %q: %w", raw, err)
		}
		return clampPercent(int(capacity)), nil
	}

	if capacity, err := readRatio(dir, "charge_now", "charge_full"); err == nil {
		return capacity, nil
	}

	capacity, err := readRatio(dir, "energy_now", "energy_full")
	if err != nil {
		return 0, fmt.Errorf("no usable capacity attributes: %w", err)
	}
	return capacity, nil
}

// readRatio computes round(now * 100 / full) from two attributes.
func readRatio(dir, nowAttr, fullAttr string) (int, error) {
	rawNow, err := readAttr(dir, nowAttr)
	if err != nil {
		return 0, err
	}
	rawFull, err := readAttr(dir, fullAttr)
	if err != nil {
		return 0, err
	}

	now, err := strconv.ParseFloat(rawNow, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q: %w", nowAttr, rawNow, err)
	}
	full, err := strconv.ParseFloat(rawFull, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q: %w", fullAttr, rawFull, err)
	}
	if full <= 0 {
		return 0, fmt.Errorf("%s is %q", fullAttr, rawFull)
	}

	ratio := math.Round(now * 100 / full)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > math.MaxUint8 {
		ratio = math.MaxUint8
	}
	return clampPercent(int(ratio)), nil
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// readAttr reads one sysfs attribute as a trimmed string.
func readAttr(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
