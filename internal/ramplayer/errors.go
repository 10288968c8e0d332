package ramplayer

import "github.com/cockroachdb/errors"

// Sentinel errors for the ramplayer package's error kinds (spec.md §7).
var (
	// ErrNoDisc is a precondition failure: no track is bound yet.
	ErrNoDisc = errors.New("ramplayer: no track loaded")
	// ErrIndexOutOfRange is a precondition failure on NavigateTo.
	ErrIndexOutOfRange = errors.New("ramplayer: track index out of range")
	// ErrTrackNotReady means the provider returned no data for the
	// requested track yet (extraction still in flight). Not fatal.
	ErrTrackNotReady = errors.New("ramplayer: track data not ready")
	// ErrSinkClosed names the closed-sink condition. No RamPlayer method
	// returns it: after Cleanup, Stream ends the stream and the other
	// operations behave as they did before.
	ErrSinkClosed = errors.New("ramplayer: audio sink closed")
)
