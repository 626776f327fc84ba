// Package prefstore provides the durable key/value port for playback
// preferences. The backing store is swappable without touching session logic.
package prefstore

import (
	"context"

	"github.com/mitchellh/mapstructure"

	"github.com/CoderFake/playerd/internal/domain/prefs"
)

// Store is the persistence port. Load returns (nil, nil) when no usable
// record exists; callers fall back to defaults without treating that as an
// error. Save is best-effort and must eventually reflect the latest value.
type Store interface {
	Load(ctx context.Context) (*prefs.Preferences, error)
	Save(ctx context.Context, p prefs.Preferences) error
}

// record is the stored wire layout of the preference triple.
type record struct {
	Volume       float64 `json:"volume" mapstructure:"volume"`
	RepeatMode   string  `json:"repeatMode" mapstructure:"repeatMode"`
	PlaylistMode bool    `json:"playlistModeEnabled" mapstructure:"playlistModeEnabled"`
}

func encodeRecord(p prefs.Preferences) record {
	return record{
		Volume:       p.Volume,
		RepeatMode:   p.Repeat.String(),
		PlaylistMode: p.PlaylistMode,
	}
}

// decodeRecord turns a raw stored document into preferences. Returns nil when
// the document cannot be interpreted; unknown fields are ignored.
func decodeRecord(raw map[string]any) *prefs.Preferences {
	var rec record
	if err := mapstructure.WeakDecode(raw, &rec); err != nil {
		return nil
	}

	p := prefs.Preferences{
		Volume:       rec.Volume,
		Repeat:       prefs.ParseRepeatMode(rec.RepeatMode),
		PlaylistMode: rec.PlaylistMode,
	}
	p.Clamp()
	return &p
}
