// Package track provides the Track domain entity.
package track

// Track represents a playable audio item with catalog metadata.
// Instances are non-owning references into the song catalog.
type Track struct {
	ID          string  // Catalog track ID
	Title       string  // Track title
	Artist      string  // Artist name
	ArtworkURL  string  // Artwork image URL
	DurationSec float64 // Duration in seconds (0 if unknown)
	Genre       string  // Genre (optional)
	AudioURL    string  // Audio source reference (empty means unplayable)
}

// Playable reports whether the track has an audio source to play.
func (t *Track) Playable() bool {
	return t.AudioURL != ""
}
