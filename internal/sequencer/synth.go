package sequencer

import "context"

// Synth is the audio-triggering capability the sequencer drives. Backends
// are expected to release notes with a gentle fade rather than a hard cut.
type Synth interface {
	// Ready brings the backend up if it is not already. Idempotent; called
	// before every week so a late-initializing backend never loses the
	// first notes.
	Ready(ctx context.Context) error
	// Trigger starts sounding all notes at once, velocity in [0, 1].
	Trigger(notes []string, velocity float64) error
	// Release lets the given notes ring out and fade.
	Release(notes []string)
}
