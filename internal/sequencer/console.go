package sequencer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// ConsoleSynth renders triggered chords as text. It backs the CLI's
// terminal playback and doubles as a readiness-free reference backend.
type ConsoleSynth struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleSynth writes note events to out.
func NewConsoleSynth(out io.Writer) *ConsoleSynth {
	return &ConsoleSynth{out: out}
}

// Ready is a no-op; a terminal is always ready.
func (c *ConsoleSynth) Ready(ctx context.Context) error { return nil }

// Trigger prints the chord, lowest-sorting note first.
func (c *ConsoleSynth) Trigger(notes []string, velocity float64) error {
	sorted := make([]string, len(notes))
	copy(sorted, notes)
	sort.Strings(sorted)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "♪ %s\n", strings.Join(sorted, " "))
	return err
}

// Release is silent; the terminal has nothing to fade.
func (c *ConsoleSynth) Release(notes []string) {}
