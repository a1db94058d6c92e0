package sequencer

import (
	"fmt"

	"github.com/githubtune/githubtune/internal/music"
)

// HarmonySettings selects an optional chord progression under the melody.
type HarmonySettings struct {
	Enabled bool   `json:"enabled"`
	Name    string `json:"name"`
}

// Settings is the per-call playback configuration. It is passed by value;
// the sequencer never holds onto it between weeks.
type Settings struct {
	// Speed is a positive multiplier; duration is inversely proportional.
	Speed float64 `json:"speed"`
	// Scale is the base melodic scale.
	Scale music.Scale `json:"scale"`
	// Harmony layers a progression when enabled.
	Harmony HarmonySettings `json:"harmony"`
}

// Validate checks settings at the caller boundary so the playback path can
// assume them well-formed.
func (s Settings) Validate(lib *music.Library) error {
	if s.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", s.Speed)
	}
	if len(s.Scale.Stacks) == 0 {
		return fmt.Errorf("scale %q has no notes", s.Scale.Name)
	}
	if s.Harmony.Enabled && !lib.HasHarmony(s.Harmony.Name) {
		return fmt.Errorf("unknown harmony %q", s.Harmony.Name)
	}
	return nil
}
