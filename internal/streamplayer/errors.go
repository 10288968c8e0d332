package streamplayer

import "github.com/cockroachdb/errors"

// Sentinel errors for the streamplayer package's error kinds (spec.md §7).
var (
	// ErrNoDisc is a precondition failure: Play or Seek called before
	// NavigateTo has bound a track.
	ErrNoDisc = errors.New("streamplayer: no disc loaded")
	// ErrIndexOutOfRange is a precondition failure on NavigateTo.
	ErrIndexOutOfRange = errors.New("streamplayer: track index out of range")
	// ErrEngineUnavailable is a setup failure: the media engine binary is
	// missing or failed to launch.
	ErrEngineUnavailable = errors.New("streamplayer: media engine unavailable")
	// ErrIPCTimeout is a transient I/O failure on a single IPC round trip.
	ErrIPCTimeout = errors.New("streamplayer: ipc round trip timed out")
)
