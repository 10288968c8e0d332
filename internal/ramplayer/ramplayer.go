// Package ramplayer implements the bit-perfect, gapless PCM player that
// drains a pair of in-memory track buffers into a single long-lived audio
// sink. It satisfies transport.AudioTransport.
//
// RamPlayer has no notion of CD ripping: it asks a Provider for raw
// interleaved 16-bit-LE stereo PCM bytes per track and never mutates or
// retains ownership of where those bytes came from.
package ramplayer

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"github.com/thestreamdigger/redram/internal/logging"
	"github.com/thestreamdigger/redram/internal/transport"
)

// bytesPerSecond is the CD-DA PCM rate: 44100 Hz * 2 channels * 2 bytes.
const bytesPerSecond = 176400

// bytesPerSample is one interleaved stereo sample (L+R, 16-bit each).
const bytesPerSample = 4

// pauseSleepInterval is how long the playback goroutine naps between
// cooperative checks while paused or stopped, instead of busy-spinning.
const pauseSleepInterval = 20 * time.Millisecond

// Provider returns the raw interleaved PCM bytes for trackIndex (0-based).
// An empty, error-free result means "not ready yet" (spec.md §4.3); a
// non-nil error is a transient or setup failure, the caller's choice.
type Provider func(trackIndex int) ([]byte, error)

type pcmSlot struct {
	index  int
	data   []byte
	cursor int64 // bytes already delivered
}

// RamPlayer owns the audio sink, the current/next PCM slots, and the
// playback thread (in this implementation, beep's internal mixer
// goroutine, which calls RamPlayer.Stream repeatedly and blocks on the
// platform audio write between calls — the same suspension point spec.md
// §5 describes).
type RamPlayer struct {
	mu sync.Mutex

	provider   Provider
	trackCount int

	current *pcmSlot
	next    *pcmSlot

	state         transport.State
	transitioning bool // true from NavigateTo until first sample is drained
	aborted       bool
	fatalErr      error

	subsMu sync.Mutex
	subs   []func(transport.EndOfTrackEvent)

	closed bool
}

var _ transport.AudioTransport = (*RamPlayer)(nil)
var _ beep.Streamer = (*RamPlayer)(nil)

// New opens the audio sink once for the session (speaker.Init + a single
// speaker.Play of this RamPlayer) and returns a player with no track
// bound yet. bufferSize is the audio buffer tunable from config.md §4.6.
func New(trackCount int, bufferSize int, provider Provider) (*RamPlayer, error) {
	rp := &RamPlayer{provider: provider, trackCount: trackCount}

	if err := speaker.Init(beep.SampleRate(44100), bufferSize); err != nil {
		return nil, errors.Wrap(err, "ramplayer: opening audio sink")
	}
	speaker.Play(rp)
	return rp, nil
}

// Stream implements beep.Streamer. It is invoked repeatedly by beep's
// mixer goroutine — the playback thread of spec.md §5 — and never blocks
// for longer than pauseSleepInterval, so pause/seek/stop requests issued
// from the command thread take effect promptly.
func (rp *RamPlayer) Stream(samples [][2]float64) (n int, ok bool) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.closed {
		return 0, false
	}

	if rp.state != transport.Playing || rp.current == nil {
		silence(samples)
		time.Sleep(pauseSleepInterval)
		return len(samples), true
	}

	filled := 0
	for filled < len(samples) {
		remaining := int64(len(rp.current.data)) - rp.current.cursor
		if remaining < bytesPerSample {
			if rp.advanceTrackLocked() {
				continue
			}
			silence(samples[filled:])
			return len(samples), true
		}

		want := int64(len(samples) - filled)
		avail := remaining / bytesPerSample
		take := want
		if avail < take {
			take = avail
		}

		decode(samples[filled:filled+int(take)], rp.current.data, rp.current.cursor)
		rp.current.cursor += take * bytesPerSample
		filled += int(take)
		rp.transitioning = false

		if rp.state != transport.Playing {
			silence(samples[filled:])
			return len(samples), true
		}
	}
	return filled, true
}

// Err implements beep.Streamer.
func (rp *RamPlayer) Err() error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.fatalErr
}

// advanceTrackLocked is called with rp.mu held, exactly at the moment the
// current slot is exhausted. It performs the gapless swap when a preload
// is available, or parks in Stopped otherwise; in both cases it notifies
// on_track_end from a helper goroutine. It reports whether a swap
// happened. Caller must hold rp.mu.
func (rp *RamPlayer) advanceTrackLocked() bool {
	finished := rp.current
	if rp.next != nil {
		rp.current = rp.next
		rp.current.cursor = 0
		rp.next = nil
		event := transport.EndOfTrackEvent{Aborted: rp.aborted}
		rp.aborted = false
		go rp.emit(event)
		return true
	}

	rp.state = transport.Stopped
	event := transport.EndOfTrackEvent{Aborted: rp.aborted}
	rp.aborted = false
	go rp.emit(event)
	_ = finished
	return false
}

func (rp *RamPlayer) emit(e transport.EndOfTrackEvent) {
	rp.subsMu.Lock()
	subs := append([]func(transport.EndOfTrackEvent){}, rp.subs...)
	rp.subsMu.Unlock()
	for _, fn := range subs {
		fn(e)
	}
}

// OnTrackEnd registers a subscriber invoked from a helper goroutine,
// never while rp.mu is held.
func (rp *RamPlayer) OnTrackEnd(fn func(transport.EndOfTrackEvent)) {
	rp.subsMu.Lock()
	defer rp.subsMu.Unlock()
	rp.subs = append(rp.subs, fn)
}

// Play resumes from Paused, starts the bound track from 0 if Stopped, and
// no-ops if already Playing.
func (rp *RamPlayer) Play() error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	switch rp.state {
	case transport.Playing:
		return nil
	case transport.Paused:
		rp.state = transport.Playing
		return nil
	default:
		if rp.current == nil {
			return ErrNoDisc
		}
		rp.current.cursor = 0
		rp.state = transport.Playing
		return nil
	}
}

// Pause transitions Playing->Paused, preserving position; no-op outside
// Playing/Paused.
func (rp *RamPlayer) Pause() error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.state == transport.Playing {
		rp.state = transport.Paused
	}
	return nil
}

// Stop transitions to Stopped and discards the in-flight position.
func (rp *RamPlayer) Stop() error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.state = transport.Stopped
	if rp.current != nil {
		rp.current.cursor = 0
	}
	return nil
}

// Seek moves the playhead within the current track. Out-of-range requests
// are logged and rejected as a no-op.
func (rp *RamPlayer) Seek(seconds float64) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.current == nil {
		return ErrNoDisc
	}
	duration := float64(len(rp.current.data)) / bytesPerSecond
	if seconds < 0 || seconds > duration {
		logging.L().Warn().Float64("seconds", seconds).Float64("duration", duration).
			Msg("ramplayer: seek out of range, ignoring")
		return nil
	}

	offset := int64(seconds*bytesPerSecond) / bytesPerSample * bytesPerSample
	if offset > int64(len(rp.current.data)) {
		offset = int64(len(rp.current.data))
	}
	rp.current.cursor = offset
	return nil
}

// NavigateTo binds the transport's current track to index, fetching its
// PCM bytes from the provider synchronously (the provider is expected to
// be a fast in-memory lookup once extraction has completed).
func (rp *RamPlayer) NavigateTo(index int, autoPlay bool) error {
	if index < 0 || index >= rp.trackCountSnapshot() {
		return ErrIndexOutOfRange
	}

	data, err := rp.provider(index)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrTrackNotReady
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.current = &pcmSlot{index: index, data: data}
	rp.next = nil
	rp.transitioning = true
	if autoPlay {
		rp.state = transport.Playing
	} else {
		rp.state = transport.Stopped
	}
	return nil
}

func (rp *RamPlayer) trackCountSnapshot() int {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.trackCount
}

// SetTrackCount replaces the track count given to New, used to validate
// NavigateTo and answer GetTrackCount.
func (rp *RamPlayer) SetTrackCount(n int) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.trackCount = n
}

// PrepareNext preloads index into the idle buffer. A not-ready provider
// response is silently dropped; the next Stream-time swap attempt will
// simply find no preload and park in Stopped, exactly as spec.md §4.3
// describes for a stale/absent next buffer.
func (rp *RamPlayer) PrepareNext(index int) {
	go func() {
		data, err := rp.provider(index)
		if err != nil {
			logging.L().Warn().Err(err).Int("index", index).Msg("ramplayer: prepare_next failed")
			return
		}
		if len(data) == 0 {
			return
		}
		rp.mu.Lock()
		rp.next = &pcmSlot{index: index, data: data}
		rp.mu.Unlock()
	}()
}

// GetPosition returns 0 while a track change is in flight, otherwise the
// current track's elapsed time.
func (rp *RamPlayer) GetPosition() time.Duration {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.transitioning || rp.current == nil {
		return 0
	}
	seconds := float64(rp.current.cursor) / bytesPerSecond
	return time.Duration(seconds * float64(time.Second))
}

// GetDuration returns the bound track's length.
func (rp *RamPlayer) GetDuration() time.Duration {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.current == nil {
		return 0
	}
	seconds := float64(len(rp.current.data)) / bytesPerSecond
	return time.Duration(seconds * float64(time.Second))
}

// GetState reports the player state.
func (rp *RamPlayer) GetState() transport.State {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.state
}

// GetCurrentTrackIndex reports the bound track's 0-based index, or -1 if
// none is bound.
func (rp *RamPlayer) GetCurrentTrackIndex() int {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.current == nil {
		return -1
	}
	return rp.current.index
}

// GetTrackCount reports the disc's track count.
func (rp *RamPlayer) GetTrackCount() int {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.trackCount
}

// Cleanup releases the audio sink. Safe to call more than once.
func (rp *RamPlayer) Cleanup() error {
	rp.mu.Lock()
	if rp.closed {
		rp.mu.Unlock()
		return nil
	}
	rp.closed = true
	rp.mu.Unlock()

	speaker.Close()
	return nil
}

func silence(samples [][2]float64) {
	for i := range samples {
		samples[i] = [2]float64{0, 0}
	}
}

// decode converts count interleaved 16-bit-LE stereo samples starting at
// byte offset off in data into beep's [-1,1] float64 stereo frames.
func decode(dst [][2]float64, data []byte, off int64) {
	const scale = 1.0 / 32768.0
	for i := range dst {
		b := off + int64(i)*bytesPerSample
		l := int16(uint16(data[b]) | uint16(data[b+1])<<8)
		r := int16(uint16(data[b+2]) | uint16(data[b+3])<<8)
		dst[i] = [2]float64{float64(l) * scale, float64(r) * scale}
	}
}
