package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRepeatMode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected RepeatMode
	}{
		{name: "off", input: "off", expected: RepeatOff},
		{name: "all", input: "all", expected: RepeatAll},
		{name: "one", input: "one", expected: RepeatOne},
		{name: "unknown falls back to off", input: "shuffle", expected: RepeatOff},
		{name: "empty falls back to off", input: "", expected: RepeatOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseRepeatMode(tt.input))
		})
	}
}

func TestRepeatMode_String(t *testing.T) {
	assert.Equal(t, "off", RepeatOff.String())
	assert.Equal(t, "all", RepeatAll.String())
	assert.Equal(t, "one", RepeatOne.String())
	assert.Equal(t, "unknown", RepeatMode(99).String())
}

func TestDefault(t *testing.T) {
	p := Default()

	assert.Equal(t, 0.7, p.Volume)
	assert.Equal(t, RepeatOff, p.Repeat)
	assert.False(t, p.PlaylistMode)
}

func TestPreferences_Clamp(t *testing.T) {
	tests := []struct {
		name     string
		volume   float64
		expected float64
	}{
		{name: "above range", volume: 1.5, expected: 1.0},
		{name: "below range", volume: -0.2, expected: 0.0},
		{name: "in range untouched", volume: 0.45, expected: 0.45},
		{name: "lower bound", volume: 0, expected: 0},
		{name: "upper bound", volume: 1, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Preferences{Volume: tt.volume}
			p.Clamp()
			assert.Equal(t, tt.expected, p.Volume)
		})
	}
}
