// Package music holds the scale and harmony tables and the pure functions
// that map week indexes onto a chord progression. All tables are loaded once
// from an embedded YAML file and are read-only afterwards.
package music

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed harmonies.yaml
var tablesYAML []byte

// DefaultInterval is the number of consecutive weeks a progression chord
// holds before advancing.
const DefaultInterval = 8

// Scale is a named sequence of note stacks, one per weekday slot. The
// weekday index selects the slot (modulo the slot count); the day's
// intensity level selects within the stack.
type Scale struct {
	Name   string
	Stacks [][]string
}

// Chord is a harmonic bed: the bass notes to sound, plus the harmonized
// scale that overrides the base melody scale while the chord is active.
type Chord struct {
	Notes []string
	Scale *Scale
}

// Harmony is a named, cyclic chord progression.
type Harmony struct {
	Name   string
	Chords []Chord
}

// Library is the loaded, read-only set of scales and harmonies.
type Library struct {
	simpleScales     []Scale
	harmonizedScales []Scale
	harmonies        []Harmony
}

var (
	defaultLib  *Library
	defaultOnce sync.Once
)

// Default returns the library parsed from the embedded tables. Panics if the
// embedded data is malformed; that is a build defect, not a runtime
// condition.
func Default() *Library {
	defaultOnce.Do(func() {
		lib, err := Load(tablesYAML)
		if err != nil {
			panic(fmt.Sprintf("music: embedded tables invalid: %v", err))
		}
		defaultLib = lib
	})
	return defaultLib
}

// yaml intermediate forms; degree keys are resolved to *Scale at load time.

type scaleDoc struct {
	Name   string     `yaml:"name"`
	Stacks [][]string `yaml:"stacks"`
}

type chordDoc struct {
	Notes []string `yaml:"notes"`
	Scale string   `yaml:"scale"`
}

type harmonyDoc struct {
	Name   string     `yaml:"name"`
	Chords []chordDoc `yaml:"chords"`
}

type tablesDoc struct {
	SimpleScales     []scaleDoc            `yaml:"simple_scales"`
	HarmonizedScales map[string]scaleDoc   `yaml:"harmonized_scales"`
	Harmonies        []harmonyDoc          `yaml:"harmonies"`
}

// degreeOrder fixes the presentation order of harmonized scales; YAML maps
// carry no ordering of their own.
var degreeOrder = []string{"i", "ii", "iii", "iv", "v", "vi", "vii"}

// Load parses scale and harmony tables from YAML.
func Load(data []byte) (*Library, error) {
	var doc tablesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing tables: %w", err)
	}
	if len(doc.SimpleScales) == 0 {
		return nil, fmt.Errorf("no simple scales defined")
	}
	if len(doc.Harmonies) == 0 {
		return nil, fmt.Errorf("no harmonies defined")
	}

	lib := &Library{}

	for _, s := range doc.SimpleScales {
		if len(s.Stacks) < 7 {
			return nil, fmt.Errorf("scale %q has %d slots, want >= 7", s.Name, len(s.Stacks))
		}
		lib.simpleScales = append(lib.simpleScales, Scale{Name: s.Name, Stacks: s.Stacks})
	}

	var degrees []string
	for _, deg := range degreeOrder {
		s, ok := doc.HarmonizedScales[deg]
		if !ok {
			continue
		}
		if len(s.Stacks) < 7 {
			return nil, fmt.Errorf("harmonized scale %q has %d slots, want >= 7", deg, len(s.Stacks))
		}
		lib.harmonizedScales = append(lib.harmonizedScales, Scale{Name: s.Name, Stacks: s.Stacks})
		degrees = append(degrees, deg)
	}
	// Pointers are taken only after the slice stops growing.
	byDegree := make(map[string]*Scale, len(degrees))
	for i, deg := range degrees {
		byDegree[deg] = &lib.harmonizedScales[i]
	}

	for _, h := range doc.Harmonies {
		harmony := Harmony{Name: h.Name}
		for i, c := range h.Chords {
			if len(c.Notes) == 0 {
				return nil, fmt.Errorf("harmony %q chord %d has no notes", h.Name, i)
			}
			scale, ok := byDegree[c.Scale]
			if !ok {
				return nil, fmt.Errorf("harmony %q chord %d references unknown degree %q", h.Name, i, c.Scale)
			}
			harmony.Chords = append(harmony.Chords, Chord{Notes: c.Notes, Scale: scale})
		}
		lib.harmonies = append(lib.harmonies, harmony)
	}

	return lib, nil
}

// HarmonyByName returns the named progression, falling back to the first
// defined progression if the name is unrecognized. Lookup is
// case-insensitive; it never fails.
func (l *Library) HarmonyByName(name string) Harmony {
	for _, h := range l.harmonies {
		if strings.EqualFold(h.Name, name) {
			return h
		}
	}
	return l.harmonies[0]
}

// HasHarmony reports whether a progression with this name exists. Useful at
// the settings boundary, where an unknown name should be rejected rather than
// silently mapped to the fallback.
func (l *Library) HasHarmony(name string) bool {
	for _, h := range l.harmonies {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

// AvailableHarmonies returns all progressions in definition order.
func (l *Library) AvailableHarmonies() []Harmony {
	out := make([]Harmony, len(l.harmonies))
	copy(out, l.harmonies)
	return out
}

// AvailableScales returns the melodic scales to offer: the simple set when
// harmony mode is off, the per-degree harmonized set when it is on.
func (l *Library) AvailableScales(harmonyEnabled bool) []Scale {
	src := l.simpleScales
	if harmonyEnabled {
		src = l.harmonizedScales
	}
	out := make([]Scale, len(src))
	copy(out, src)
	return out
}

// ScaleByName looks up a scale by name across both tables.
func (l *Library) ScaleByName(name string) (Scale, bool) {
	for _, s := range l.simpleScales {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	for _, s := range l.harmonizedScales {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Scale{}, false
}

// HarmonyChord returns the progression chord for a week. The chord holds for
// interval consecutive weeks, then advances cyclically; an interval <= 0
// behaves as 1. ChordIndex exposes the same arithmetic for callers that
// track progression changes.
func HarmonyChord(h Harmony, weekIndex, interval int) Chord {
	return h.Chords[ChordIndex(h, weekIndex, interval)]
}

// ChordIndex returns the progression index for a week.
func ChordIndex(h Harmony, weekIndex, interval int) int {
	if interval <= 0 {
		interval = 1
	}
	return (weekIndex / interval) % len(h.Chords)
}

// NoteFor selects the note for a weekday slot at a given intensity level.
// Level 1 picks the bottom of the stack; higher levels climb it, clamped at
// the top. Returns "" for an empty scale or level 0.
func (s Scale) NoteFor(dayIndex, level int) string {
	if len(s.Stacks) == 0 || level <= 0 {
		return ""
	}
	stack := s.Stacks[dayIndex%len(s.Stacks)]
	if len(stack) == 0 {
		return ""
	}
	pos := level - 1
	if pos >= len(stack) {
		pos = len(stack) - 1
	}
	return stack[pos]
}
