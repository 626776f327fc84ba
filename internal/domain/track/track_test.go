package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Playable(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected bool
	}{
		{
			name: "track with audio source",
			track: Track{
				ID:       "track-1",
				Title:    "Test Song",
				Artist:   "Test Artist",
				AudioURL: "https://cdn.example.com/audio/track-1.mp3",
			},
			expected: true,
		},
		{
			name: "track without audio source",
			track: Track{
				ID:     "track-2",
				Title:  "Metadata Only",
				Artist: "Test Artist",
			},
			expected: false,
		},
		{
			name: "track with metadata but empty audio reference",
			track: Track{
				ID:          "track-3",
				Title:       "Unavailable Song",
				Artist:      "Test Artist",
				ArtworkURL:  "https://cdn.example.com/art/track-3.jpg",
				DurationSec: 215,
				Genre:       "rock",
				AudioURL:    "",
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.Playable())
		})
	}
}
