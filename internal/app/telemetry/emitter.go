package telemetry

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// Config holds emitter configuration.
type Config struct {
	Device string // Device class attached to every event
	Buffer int    // Event queue capacity
}

// Emitter dispatches interaction events to a background worker. Emit never
// blocks its caller and delivery failures never propagate: they are logged
// and the session keeps playing.
type Emitter struct {
	reporter Reporter
	device   string

	eventCh chan Event

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an emitter and starts its delivery worker.
func New(reporter Reporter, cfg Config) *Emitter {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	device := cfg.Device
	if device == "" {
		device = "other"
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Emitter{
		reporter: reporter,
		device:   device,
		eventCh:  make(chan Event, buffer),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go e.deliverLoop()
	return e
}

// EmitPlay queues a play event for the given track. The event is dropped
// with a warning when the queue is full.
func (e *Emitter) EmitPlay(trackID string, playlistMode bool) {
	event := newPlayEvent(trackID, e.device, playlistMode, time.Now())

	select {
	case e.eventCh <- event:
	default:
		zlog.Warn().Msgf("telemetry: queue full, dropping event: track_id=%s", trackID)
	}
}

// Close stops the delivery worker. Queued events are dropped.
func (e *Emitter) Close() {
	e.cancel()
	<-e.done
}

func (e *Emitter) deliverLoop() {
	defer close(e.done)

	for {
		select {
		case <-e.ctx.Done():
			return
		case event := <-e.eventCh:
			e.deliver(event)
		}
	}
}

func (e *Emitter) deliver(event Event) {
	ctx, cancel := context.WithTimeout(e.ctx, 10*time.Second)
	defer cancel()

	if err := e.reporter.Report(ctx, event); err != nil {
		zlog.Warn().Msgf("telemetry: delivery failed: track_id=%s err=%v", event.TrackID, err)
		return
	}
	zlog.Debug().Msgf("telemetry: event delivered: type=%s track_id=%s bucket=%s",
		event.Type, event.TrackID, event.Context.TimeOfDayBucket)
}
