package sequencer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githubtune/githubtune/internal/contrib"
	"github.com/githubtune/githubtune/internal/music"
)

type fakeSynth struct {
	mu         sync.Mutex
	readyErr   error
	triggerErr error
	triggers   [][]string
	velocities []float64
	released   [][]string
}

func (f *fakeSynth) Ready(ctx context.Context) error { return f.readyErr }

func (f *fakeSynth) Trigger(notes []string, velocity float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggerErr != nil {
		return f.triggerErr
	}
	f.triggers = append(f.triggers, append([]string(nil), notes...))
	f.velocities = append(f.velocities, velocity)
	return nil
}

func (f *fakeSynth) Release(notes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, append([]string(nil), notes...))
}

func (f *fakeSynth) triggerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.triggers)
}

func (f *fakeSynth) lastTrigger() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.triggers) == 0 {
		return nil
	}
	return f.triggers[len(f.triggers)-1]
}

func (f *fakeSynth) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

func newTestSequencer(synth Synth) *Sequencer {
	return New(synth, music.Default(), zerolog.Nop())
}

func fastSettings() Settings {
	return Settings{
		Speed: 50, // ~38ms hold, keeps the tests quick
		Scale: music.Default().AvailableScales(false)[0],
	}
}

func weekWithLevels(levels ...int) contrib.Week {
	var w contrib.Week
	for _, l := range levels {
		w.Days = append(w.Days, contrib.Contribution{Date: "2025-01-01", Level: l})
	}
	return w
}

// playAndWait runs one PlayWeek call and blocks until its completion fires.
func playAndWait(t *testing.T, s *Sequencer, weekIndex int, year contrib.Year, settings Settings) {
	t.Helper()
	done := make(chan struct{})
	s.PlayWeek(context.Background(), weekIndex, year, settings, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("week %d never completed", weekIndex)
	}
}

func TestPlayWeek_PastEndCompletesImmediately(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSequencer(synth)
	year := contrib.Year{Weeks: []contrib.Week{weekWithLevels(1)}}

	start := time.Now()
	playAndWait(t, s, 5, year, fastSettings())

	assert.Less(t, time.Since(start), 200*time.Millisecond, "end-of-data must not wait out a hold duration")
	assert.Zero(t, synth.triggerCount(), "no notes past the end of the data")
}

func TestPlayWeek_SilentWeekStillCompletes(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSequencer(synth)
	year := contrib.Year{Weeks: []contrib.Week{weekWithLevels(0, 0, 0, 0, 0, 0, 0)}}

	playAndWait(t, s, 0, year, fastSettings())
	assert.Zero(t, synth.triggerCount())
}

func TestPlayWeek_MelodyFollowsScaleAndIntensity(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSequencer(synth)
	settings := fastSettings()
	year := contrib.Year{Weeks: []contrib.Week{weekWithLevels(1, 0, 3)}}

	playAndWait(t, s, 0, year, settings)

	require.Equal(t, 1, synth.triggerCount())
	notes := synth.lastTrigger()
	assert.Contains(t, notes, settings.Scale.NoteFor(0, 1))
	assert.Contains(t, notes, settings.Scale.NoteFor(2, 3))
	assert.Len(t, notes, 2, "level-0 days contribute nothing")
	assert.InDelta(t, 0.8, synth.velocities[0], 0.001)
}

func TestPlayWeek_HarmonyChordPlaysOnlyOnProgressionChange(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSequencer(synth)
	lib := music.Default()

	settings := fastSettings()
	settings.Harmony = HarmonySettings{Enabled: true, Name: "Dreamy"}
	chord := lib.HarmonyByName("Dreamy").Chords[0]

	year := contrib.Year{Weeks: []contrib.Week{
		weekWithLevels(1), weekWithLevels(1),
	}}

	playAndWait(t, s, 0, year, settings)
	playAndWait(t, s, 1, year, settings)

	require.Equal(t, 2, synth.triggerCount())
	for _, n := range chord.Notes {
		assert.Contains(t, synth.triggers[0], n, "week 0 carries the chord bed")
		assert.NotContains(t, synth.triggers[1], n, "same progression bucket must not restate the chord")
	}
}

func TestPlayWeek_WeekZeroResetsHarmonyTracker(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSequencer(synth)
	lib := music.Default()

	settings := fastSettings()
	settings.Harmony = HarmonySettings{Enabled: true, Name: "Dreamy"}
	chord := lib.HarmonyByName("Dreamy").Chords[0]

	year := contrib.Year{Weeks: []contrib.Week{weekWithLevels(1)}}

	playAndWait(t, s, 0, year, settings)
	// Restarting from week 0 must play chord index 0 again, regardless of
	// prior session history.
	playAndWait(t, s, 0, year, settings)

	require.Equal(t, 2, synth.triggerCount())
	for _, n := range chord.Notes {
		assert.Contains(t, synth.triggers[1], n)
	}
}

func TestPlayWeek_ChordScaleOverridesMelodyScale(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSequencer(synth)
	lib := music.Default()

	settings := fastSettings()
	settings.Harmony = HarmonySettings{Enabled: true, Name: "Dreamy"}
	chordScale := lib.HarmonyByName("Dreamy").Chords[0].Scale
	require.NotNil(t, chordScale)

	year := contrib.Year{Weeks: []contrib.Week{weekWithLevels(1)}}
	playAndWait(t, s, 0, year, settings)

	notes := synth.lastTrigger()
	assert.Contains(t, notes, chordScale.NoteFor(0, 1))
	assert.NotContains(t, notes, settings.Scale.NoteFor(0, 1))
}

func TestPlayWeek_SynthNotReady(t *testing.T) {
	synth := &fakeSynth{readyErr: errors.New("context blocked")}
	s := newTestSequencer(synth)
	year := contrib.Year{Weeks: []contrib.Week{weekWithLevels(4)}}

	playAndWait(t, s, 0, year, fastSettings())
	assert.Zero(t, synth.triggerCount(), "an unready synth yields a silent week, not an error")
}

func TestPlayWeek_TriggerFailureStillCompletes(t *testing.T) {
	synth := &fakeSynth{triggerErr: errors.New("voices exhausted")}
	s := newTestSequencer(synth)
	year := contrib.Year{Weeks: []contrib.Week{weekWithLevels(2)}}

	playAndWait(t, s, 0, year, fastSettings())
	assert.Zero(t, synth.triggerCount())
}

func TestPlayWeek_NotesReleasedAfterHold(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSequencer(synth)
	year := contrib.Year{Weeks: []contrib.Week{weekWithLevels(1, 2)}}

	playAndWait(t, s, 0, year, fastSettings())

	require.Equal(t, 1, synth.releaseCount())
	assert.ElementsMatch(t, synth.triggers[0], synth.released[0])
}

func TestStopSound_IdempotentWhenNothingActive(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSequencer(synth)

	s.StopSound()
	s.StopSound()
	assert.Zero(t, synth.releaseCount())
}

func TestStopSound_MidWeekReleasesOnce(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSequencer(synth)
	year := contrib.Year{Weeks: []contrib.Week{weekWithLevels(1)}}

	done := make(chan struct{})
	s.PlayWeek(context.Background(), 0, year, fastSettings(), func() { close(done) })

	s.StopSound()
	s.StopSound() // mid-release call is a no-op

	assert.Equal(t, 1, synth.releaseCount())

	// The pause does not cancel the week's completion.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("completion lost after StopSound")
	}
}

func TestSettings_Validate(t *testing.T) {
	lib := music.Default()
	valid := fastSettings()

	assert.NoError(t, valid.Validate(lib))

	bad := valid
	bad.Speed = 0
	assert.Error(t, bad.Validate(lib))

	bad = valid
	bad.Scale = music.Scale{Name: "empty"}
	assert.Error(t, bad.Validate(lib))

	bad = valid
	bad.Harmony = HarmonySettings{Enabled: true, Name: "nope"}
	assert.Error(t, bad.Validate(lib))

	ok := valid
	ok.Harmony = HarmonySettings{Enabled: true, Name: "positive"}
	assert.NoError(t, ok.Validate(lib), "harmony names match case-insensitively")
}
