package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/jorge-barreto/tcpub/internal/atomicfile"
)

// TimingEntry is one execution of a stage against a resource.
type TimingEntry struct {
	Kind     string        `json:"kind"`
	Resource string        `json:"resource"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end,omitempty"`
	Elapsed  time.Duration `json:"elapsed,omitempty"`
}

// Timing accumulates stage timings across runs in timing.json.
type Timing struct {
	mu      sync.Mutex
	Entries []TimingEntry `json:"entries"`
}

func timingPath(stateDir string) string {
	return filepath.Join(stateDir, "timing.json")
}

// LoadTiming reads timing data from the state directory.
func LoadTiming(stateDir string) (*Timing, error) {
	data, err := afero.ReadFile(osFs, timingPath(stateDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Timing{}, nil
		}
		return nil, err
	}
	var t Timing
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing timing: %w", err)
	}
	return &t, nil
}

// Begin opens an entry for a stage kind and resource.
func (t *Timing) Begin(kind, resource string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Entries = append(t.Entries, TimingEntry{Kind: kind, Resource: resource, Start: time.Now()})
}

// Finish closes the open entry for resource and returns its elapsed time.
func (t *Timing) Finish(resource string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.Entries) - 1; i >= 0; i-- {
		e := &t.Entries[i]
		if e.Resource == resource && e.End.IsZero() {
			e.End = time.Now()
			e.Elapsed = e.End.Sub(e.Start)
			return e.Elapsed
		}
	}
	return 0
}

// Last returns the elapsed time of the most recent finished entry for
// resource.
func (t *Timing) Last(resource string) (time.Duration, bool) {
	if t == nil {
		return 0, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.Entries) - 1; i >= 0; i-- {
		if e := t.Entries[i]; e.Resource == resource && !e.End.IsZero() {
			return e.Elapsed, true
		}
	}
	return 0, false
}

// Flush writes the timing data to disk.
func (t *Timing) Flush(stateDir string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return atomicfile.WriteJSON(osFs, timingPath(stateDir), t)
}

// FormatDuration renders d as "Xm YYs".
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
}
