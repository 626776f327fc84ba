// Package catalog resolves track metadata for playback requests.
package catalog

import (
	"github.com/cockroachdb/errors"

	"github.com/CoderFake/playerd/internal/domain/track"
)

// ErrTrackNotFound is returned when a track ID is not in the catalog.
var ErrTrackNotFound = errors.New("track not found in catalog")

// Provider resolves tracks the player can be asked to play.
type Provider interface {
	// Get returns the track with the given ID.
	Get(id string) (track.Track, error)
	// List returns all known tracks in catalog order.
	List() []track.Track
}

// StaticProvider serves a fixed track list loaded from configuration.
type StaticProvider struct {
	order []track.Track
	byID  map[string]track.Track
}

// NewStaticProvider creates a provider over the given tracks. A later track
// with a duplicate ID wins the lookup but the list keeps the original order.
func NewStaticProvider(tracks []track.Track) *StaticProvider {
	p := &StaticProvider{
		order: append([]track.Track(nil), tracks...),
		byID:  make(map[string]track.Track, len(tracks)),
	}
	for _, t := range tracks {
		p.byID[t.ID] = t
	}
	return p
}

// Get returns the track with the given ID.
func (p *StaticProvider) Get(id string) (track.Track, error) {
	t, ok := p.byID[id]
	if !ok {
		return track.Track{}, errors.Wrapf(ErrTrackNotFound, "id=%s", id)
	}
	return t, nil
}

// List returns all tracks in catalog order.
func (p *StaticProvider) List() []track.Track {
	return append([]track.Track(nil), p.order...)
}
