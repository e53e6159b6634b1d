package power

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	historyRetention      = 8 * 24 * time.Hour
	minHistorySpacing     = 75 * time.Second
	significantLevelDelta = 3
	maxHistorySamples     = 7200
	saveInterval          = 5 * time.Minute
)

// HistorySample is one recorded charge reading.
type HistorySample struct {
	Timestamp time.Time `json:"timestamp"`
	Device    string    `json:"device"`
	Level     int       `json:"level"`
	Charging  bool      `json:"charging"`
}

// History records battery charge over time and persists it as JSON so the
// record survives restarts. Readings from different devices share one
// stream but are gated independently, so interleaved refreshes of a
// multi-battery host do not defeat the spacing check. All methods run on
// the dispatch goroutine; no locking needed.
type History struct {
	path     string
	samples  []HistorySample
	last     map[string]HistorySample
	lastSave time.Time
	dirty    bool
}

// NewHistory loads any persisted samples from path. A missing or corrupt
// file starts an empty history rather than failing.
func NewHistory(path string) *History {
	h := &History{path: path, last: make(map[string]HistorySample)}

	data, err := os.ReadFile(path)
	if err != nil {
		return h
	}
	var samples []HistorySample
	if err := json.Unmarshal(data, &samples); err != nil {
		return h
	}

	cutoff := time.Now().Add(-historyRetention)
	for _, s := range samples {
		if s.Timestamp.After(cutoff) {
			h.samples = append(h.samples, s)
			h.last[s.Device] = s
		}
	}
	return h
}

// Record appends a reading for device if enough time has passed since its
// last one or its level moved significantly. Saves are throttled; call
// Flush at shutdown to catch the tail.
func (h *History) Record(device string, level int, charging bool) {
	now := time.Now()

	if last, ok := h.last[device]; ok {
		delta := level - last.Level
		if delta < 0 {
			delta = -delta
		}
		recent := now.Sub(last.Timestamp) < minHistorySpacing
		if recent && delta < significantLevelDelta && charging == last.Charging {
			return
		}
	}

	sample := HistorySample{
		Timestamp: now,
		Device:    device,
		Level:     level,
		Charging:  charging,
	}
	h.samples = append(h.samples, sample)
	h.last[device] = sample
	h.prune(now)
	h.dirty = true

	if now.Sub(h.lastSave) >= saveInterval {
		h.Flush()
	}
}

// prune drops samples past the retention window and caps the slice.
func (h *History) prune(now time.Time) {
	cutoff := now.Add(-historyRetention)
	i := 0
	for i < len(h.samples) && !h.samples[i].Timestamp.After(cutoff) {
		i++
	}
	h.samples = h.samples[i:]

	if len(h.samples) > maxHistorySamples {
		h.samples = h.samples[len(h.samples)-maxHistorySamples:]
	}
}

// Samples returns the recorded readings, oldest first.
func (h *History) Samples() []HistorySample {
	out := make([]HistorySample, len(h.samples))
	copy(out, h.samples)
	return out
}

// Flush writes the history to disk if it changed since the last save.
func (h *History) Flush() {
	if !h.dirty || h.path == "" {
		return
	}

	data, err := json.MarshalIndent(h.samples, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return
	}
	if err := os.WriteFile(h.path, data, 0644); err != nil {
		return
	}

	h.lastSave = time.Now()
	h.dirty = false
}
