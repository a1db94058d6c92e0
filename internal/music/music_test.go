package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_TablesLoad(t *testing.T) {
	lib := Default()
	require.NotNil(t, lib)

	assert.NotEmpty(t, lib.AvailableHarmonies())
	assert.NotEmpty(t, lib.AvailableScales(false))
	assert.NotEmpty(t, lib.AvailableScales(true))
}

func TestAvailableScales_DifferBySetting(t *testing.T) {
	lib := Default()

	simple := lib.AvailableScales(false)
	harmonized := lib.AvailableScales(true)

	assert.Equal(t, "Joyful", simple[0].Name)
	assert.Equal(t, "C Major", harmonized[0].Name)
	for _, s := range append(simple, harmonized...) {
		assert.GreaterOrEqual(t, len(s.Stacks), 7, "scale %s", s.Name)
	}
}

func TestHarmonyByName(t *testing.T) {
	lib := Default()

	h := lib.HarmonyByName("Dreamy")
	assert.Equal(t, "Dreamy", h.Name)
	assert.Len(t, h.Chords, 4)

	// Case-insensitive.
	assert.Equal(t, "Inception", lib.HarmonyByName("inception").Name)

	// Unknown names fall back to the first progression, never fail.
	assert.Equal(t, lib.AvailableHarmonies()[0].Name, lib.HarmonyByName("no-such-harmony").Name)
}

func TestHarmonyChord_HoldsForInterval(t *testing.T) {
	h := Harmony{Name: "test", Chords: []Chord{
		{Notes: []string{"C2"}},
		{Notes: []string{"F2"}},
		{Notes: []string{"G2"}},
	}}

	// Weeks 0-7 hold chord 0, weeks 8-15 chord 1, weeks 24-31 wrap to chord 0.
	for w := 0; w < 8; w++ {
		assert.Equal(t, 0, ChordIndex(h, w, 8), "week %d", w)
	}
	for w := 8; w < 16; w++ {
		assert.Equal(t, 1, ChordIndex(h, w, 8), "week %d", w)
	}
	for w := 24; w < 32; w++ {
		assert.Equal(t, 0, ChordIndex(h, w, 8), "week %d", w)
	}
	assert.Equal(t, []string{"F2"}, HarmonyChord(h, 15, 8).Notes)
}

func TestHarmonyChord_Periodicity(t *testing.T) {
	h := Harmony{Name: "test", Chords: []Chord{
		{Notes: []string{"a"}}, {Notes: []string{"b"}}, {Notes: []string{"c"}},
	}}
	period := 8 * len(h.Chords)
	for w := 0; w < 2*period; w++ {
		assert.Equal(t, ChordIndex(h, w, 8), ChordIndex(h, w+period, 8), "week %d", w)
	}
}

func TestHarmonyChord_NonPositiveIntervalActsAsOne(t *testing.T) {
	h := Harmony{Name: "test", Chords: []Chord{
		{Notes: []string{"a"}}, {Notes: []string{"b"}},
	}}
	for w := 0; w < 10; w++ {
		assert.Equal(t, ChordIndex(h, w, 1), ChordIndex(h, w, 0), "week %d", w)
		assert.Equal(t, ChordIndex(h, w, 1), ChordIndex(h, w, -3), "week %d", w)
	}
}

func TestScaleNoteFor_IntensityClimbsStack(t *testing.T) {
	s := Scale{Name: "test", Stacks: [][]string{
		{"C4", "E4", "G4"},
		{"D4", "F4", "A4"},
	}}

	assert.Equal(t, "C4", s.NoteFor(0, 1))
	assert.Equal(t, "E4", s.NoteFor(0, 2))
	assert.Equal(t, "G4", s.NoteFor(0, 3))
	// Level beyond the stack clamps at the top.
	assert.Equal(t, "G4", s.NoteFor(0, 4))
	// Day index wraps around the slot count.
	assert.Equal(t, "C4", s.NoteFor(2, 1))
	assert.Equal(t, "F4", s.NoteFor(3, 2))
	// Level 0 is silence.
	assert.Equal(t, "", s.NoteFor(0, 0))
}

func TestLoad_RejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"no harmonies":  "simple_scales:\n  - name: X\n    stacks: [[a],[b],[c],[d],[e],[f],[g]]\n",
		"short scale":   "simple_scales:\n  - name: X\n    stacks: [[a]]\nharmonies:\n  - name: H\n    chords: [{notes: [C2], scale: i}]\n",
		"unknown degree": "simple_scales:\n  - name: X\n    stacks: [[a],[b],[c],[d],[e],[f],[g]]\nharmonies:\n  - name: H\n    chords: [{notes: [C2], scale: ix}]\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestChordScales_ResolveToHarmonizedTables(t *testing.T) {
	lib := Default()
	for _, h := range lib.AvailableHarmonies() {
		for i, c := range h.Chords {
			require.NotNil(t, c.Scale, "harmony %s chord %d", h.Name, i)
			assert.GreaterOrEqual(t, len(c.Scale.Stacks), 7)
		}
	}
}
