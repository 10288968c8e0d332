// Package transport defines the polymorphic contract the Controller drives
// regardless of which backend (RAM extraction or streaming) is bound.
package transport

import "time"

// State is the playback state machine shared by every backend.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

// EndOfTrackEvent is delivered to AudioTransport.OnTrackEnd subscribers
// from a dedicated callback thread, never while any transport mutex is
// held, so a subscriber is free to call back into the transport.
type EndOfTrackEvent struct {
	// Aborted is true when the track ended because of a fatal playback
	// error rather than a natural end-of-track.
	Aborted bool
}

// AudioTransport is the capability set exposed to the Controller. Both
// backends implement it identically from the Controller's point of view;
// there are no branches on backend identity at call sites.
type AudioTransport interface {
	// Play resumes from the saved offset if Paused, starts the current
	// track from position 0 if Stopped, and is a no-op if already Playing.
	Play() error
	// Pause transitions Playing -> Paused, preserving position. Idempotent
	// in Paused, a no-op when Stopped.
	Pause() error
	// Stop transitions to Stopped, discarding any in-flight position.
	Stop() error
	// Seek moves the playhead within the current track. Out-of-range
	// requests (seconds < 0 or seconds > duration) are rejected as a no-op.
	Seek(seconds float64) error
	// NavigateTo binds the transport's current track to index (0-based).
	// If autoPlay, playback begins; otherwise the track is only armed.
	// Returns an error when index is out of range.
	NavigateTo(index int, autoPlay bool) error
	// PrepareNext hints that index is likely to play next. The RAM backend
	// preloads it into its idle buffer; the streaming backend no-ops.
	PrepareNext(index int)

	GetPosition() time.Duration
	GetDuration() time.Duration
	GetState() State
	GetCurrentTrackIndex() int
	GetTrackCount() int

	// OnTrackEnd registers a subscriber invoked after natural end of
	// track. Multiple subscribers may register; none may block.
	OnTrackEnd(func(EndOfTrackEvent))

	// Cleanup releases every OS-level resource the backend owns. Safe to
	// call more than once.
	Cleanup() error
}
