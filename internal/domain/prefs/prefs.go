// Package prefs provides the persisted playback preferences entity.
package prefs

// RepeatMode represents the policy applied on natural end-of-track.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Stop at the end of the queue
	RepeatAll                   // Rebuild the cycle from history when the queue runs out
	RepeatOne                   // Replay the current track
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// ParseRepeatMode parses a repeat mode string. Unknown values map to RepeatOff.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "all":
		return RepeatAll
	case "one":
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Preferences is the small record mirrored to durable storage. Everything else
// in the session state is in-memory only and vanishes at session end.
type Preferences struct {
	Volume       float64    // Playback volume, [0, 1]
	Repeat       RepeatMode // End-of-track policy
	PlaylistMode bool       // Behavioral flag, affects telemetry context tagging only
}

// Default returns the preferences used when no stored record exists.
func Default() Preferences {
	return Preferences{
		Volume:       0.7,
		Repeat:       RepeatOff,
		PlaylistMode: false,
	}
}

// Clamp forces the volume into [0, 1].
func (p *Preferences) Clamp() {
	if p.Volume < 0 {
		p.Volume = 0
	}
	if p.Volume > 1 {
		p.Volume = 1
	}
}
