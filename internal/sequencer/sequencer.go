// Package sequencer turns one week of contribution intensities into a chord
// and schedules its lifetime. The caller drives it one week at a time;
// advancing is signalled through the onComplete callback, which fires exactly
// once per PlayWeek call no matter what goes wrong in between.
package sequencer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/githubtune/githubtune/internal/contrib"
	"github.com/githubtune/githubtune/internal/music"
)

const (
	// baseDuration is the hold time at speed 1.
	baseDuration = 400 * time.Millisecond
	// releaseTail keeps the hold from collapsing to zero at high speeds and
	// leaves room for the synth's fade-out.
	releaseTail = 30 * time.Millisecond
	// velocity is fixed: intensity maps to pitch within a stack, not to
	// loudness.
	velocity = 0.8
)

// Sequencer owns the playback session state. Construct one long-lived
// instance and pass it around; it is not a package-level singleton.
//
// Calls are expected to be serialized: one PlayWeek or StopSound in flight
// at a time. The internal mutex only protects the note bookkeeping against
// the stop timer's goroutine, it does not make concurrent PlayWeek calls a
// supported usage.
type Sequencer struct {
	synth  Synth
	lib    *music.Library
	logger zerolog.Logger
	// interval is the number of weeks each harmony chord holds.
	interval int

	mu               sync.Mutex
	activeNotes      map[string]struct{}
	lastHarmonyIndex int
	pendingTimer     *time.Timer
	pendingDone      func()
	// gen distinguishes the week each stop timer belongs to, so a stale
	// timer never clears a newer week's bookkeeping.
	gen uint64
}

// New creates a sequencer on the given synth and music library.
func New(synth Synth, lib *music.Library, logger zerolog.Logger) *Sequencer {
	return &Sequencer{
		synth:            synth,
		lib:              lib,
		logger:           logger.With().Str("component", "sequencer").Logger(),
		interval:         music.DefaultInterval,
		activeNotes:      make(map[string]struct{}),
		lastHarmonyIndex: -1,
	}
}

// PlayWeek sounds one week of the year and schedules its stop. onComplete is
// invoked exactly once: after the hold duration on the happy path,
// immediately when weekIndex is past the end of the data, and immediately on
// any synth failure. Failures never propagate; a broken week is a silent
// week, not a stalled playback loop.
func (s *Sequencer) PlayWeek(ctx context.Context, weekIndex int, year contrib.Year, settings Settings, onComplete func()) {
	done := sync.OnceFunc(onComplete)

	s.mu.Lock()
	// A fresh run restarts the progression from its first chord.
	if weekIndex == 0 {
		s.lastHarmonyIndex = -1
	}
	// If a previous week's stop is still pending, the caller has moved on;
	// settle its completion before starting the new week.
	settle := s.takePendingLocked()
	s.mu.Unlock()
	if settle != nil {
		settle()
	}

	if err := s.synth.Ready(ctx); err != nil {
		s.logger.Warn().Err(err).Int("week", weekIndex).Msg("synth not ready, skipping week")
		s.StopSound()
		done()
		return
	}

	// Release whatever is still sounding before the next chord.
	s.StopSound()

	if weekIndex >= len(year.Weeks) {
		done()
		return
	}

	notes := s.collectNotes(weekIndex, year.Weeks[weekIndex], settings)

	if len(notes) > 0 {
		if err := s.synth.Trigger(notes, velocity); err != nil {
			s.logger.Warn().Err(err).Int("week", weekIndex).Msg("trigger failed, skipping week")
			s.StopSound()
			done()
			return
		}
		s.mu.Lock()
		for _, n := range notes {
			s.activeNotes[n] = struct{}{}
		}
		s.mu.Unlock()
	}

	speed := settings.Speed
	if speed <= 0 {
		speed = 1
	}
	hold := time.Duration(float64(baseDuration)/speed) + releaseTail

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.pendingDone = done
	s.pendingTimer = time.AfterFunc(hold, func() {
		s.StopSound()
		s.mu.Lock()
		if s.gen == gen {
			s.pendingTimer = nil
			s.pendingDone = nil
		}
		s.mu.Unlock()
		done()
	})
	s.mu.Unlock()
}

// collectNotes computes the set of notes for one week: the harmony chord's
// bass notes when the progression just advanced, plus one melody note per
// active day.
func (s *Sequencer) collectNotes(weekIndex int, week contrib.Week, settings Settings) []string {
	scale := settings.Scale
	seen := make(map[string]struct{})
	var notes []string

	add := func(n string) {
		if n == "" {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		notes = append(notes, n)
	}

	if settings.Harmony.Enabled {
		harmony := s.lib.HarmonyByName(settings.Harmony.Name)
		idx := music.ChordIndex(harmony, weekIndex, s.interval)
		chord := harmony.Chords[idx]
		// The chord's harmonized scale replaces the melody scale for this
		// week only.
		if chord.Scale != nil {
			scale = *chord.Scale
		}

		s.mu.Lock()
		changed := idx != s.lastHarmonyIndex
		s.lastHarmonyIndex = idx
		s.mu.Unlock()

		if changed {
			for _, n := range chord.Notes {
				add(n)
			}
		}
	}

	for dayIndex, day := range week.Days {
		if day.Level > 0 {
			add(scale.NoteFor(dayIndex, day.Level))
		}
	}

	return notes
}

// StopSound releases everything currently sounding. Safe to call at any
// time, including when nothing is active or a release is already in flight.
// It does not cancel a pending completion; a paused week still completes.
func (s *Sequencer) StopSound() {
	s.mu.Lock()
	if len(s.activeNotes) == 0 {
		s.mu.Unlock()
		return
	}
	notes := make([]string, 0, len(s.activeNotes))
	for n := range s.activeNotes {
		notes = append(notes, n)
	}
	s.activeNotes = make(map[string]struct{})
	s.mu.Unlock()

	s.synth.Release(notes)
}

// takePendingLocked cancels a still-pending stop timer and returns its
// completion callback so no PlayWeek call ever loses its callback. Caller
// holds s.mu and must invoke the returned func after unlocking; it may be
// nil. Completions are idempotent, so losing the race with the firing timer
// is harmless.
func (s *Sequencer) takePendingLocked() func() {
	if s.pendingTimer == nil {
		return nil
	}
	timer, done := s.pendingTimer, s.pendingDone
	s.pendingTimer = nil
	s.pendingDone = nil
	if timer.Stop() && done != nil {
		return done
	}
	return nil
}
