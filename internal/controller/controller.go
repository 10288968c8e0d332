// Package controller is the composition root: it holds the sole
// TrackSequencer and the sole AudioTransport, routes user commands
// identically regardless of which backend is bound, and owns the
// unified end-of-track handler that reconciles gapless swaps already
// performed by a backend with ones the sequencer still has to drive.
package controller

import (
	"sync"
	"time"

	"github.com/thestreamdigger/redram/internal/disc"
	"github.com/thestreamdigger/redram/internal/listener"
	"github.com/thestreamdigger/redram/internal/logging"
	"github.com/thestreamdigger/redram/internal/sequencer"
	"github.com/thestreamdigger/redram/internal/transport"
)

// Controller is the glue between the sequencer and whichever
// AudioTransport is currently bound. No method here branches on backend
// identity: the backend's own contract absorbs the difference (e.g.
// PrepareNext is a no-op on the streaming backend).
type Controller struct {
	mu        sync.Mutex
	transport transport.AudioTransport
	disc      disc.Disc

	sequencer *sequencer.TrackSequencer
	bus       *listener.Bus
}

// New returns a Controller with its own sequencer, publishing events to
// bus. No transport is bound yet; call Bind before issuing commands.
func New(bus *listener.Bus) *Controller {
	return &Controller{
		sequencer: sequencer.New(),
		bus:       bus,
	}
}

// Bus returns the event bus events are dispatched through.
func (c *Controller) Bus() *listener.Bus { return c.bus }

// Sequencer exposes the track sequencer for read-only diagnostics (e.g.
// the MCUB status emitter's repeat/shuffle flags).
func (c *Controller) Sequencer() *sequencer.TrackSequencer { return c.sequencer }

// Disc returns the currently loaded disc's data.
func (c *Controller) Disc() disc.Disc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disc
}

// Bind attaches t as the sole AudioTransport. Any previously bound
// transport is cleaned up first (at most one transport is ever bound, per
// spec.md §3's invariant). The unified end-of-track handler is
// subscribed; once t.Cleanup is called, t itself guarantees no further
// on_track_end notifications arrive, which is what stands in for
// detaching the callback before the transport is dropped.
func (c *Controller) Bind(t transport.AudioTransport) {
	c.mu.Lock()
	old := c.transport
	c.transport = t
	c.mu.Unlock()

	if old != nil {
		_ = old.Cleanup()
	}
	t.OnTrackEnd(c.handleEndOfTrack)
}

// LoadDisc binds d's track layout to the sequencer, announces cd_loaded,
// and arms track 0 (playing immediately if autoplay is set for the
// active extraction level). A disc whose TOC reports zero tracks is an
// open question in spec.md §9; this implementation announces the load
// and stops short of arming any track, leaving the transport idle rather
// than guessing a target.
func (c *Controller) LoadDisc(d disc.Disc, autoplay bool) error {
	if _, err := c.boundTransport(); err != nil {
		return err
	}

	c.mu.Lock()
	c.disc = d
	c.mu.Unlock()

	c.sequencer.SetTotalTracks(d.TrackCount())
	c.bus.EmitCDLoaded(listener.CDLoaded{TrackCount: d.TrackCount()})

	if d.TrackCount() == 0 {
		return nil
	}
	return c.navigate(0, autoplay)
}

func (c *Controller) boundTransport() (transport.AudioTransport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return nil, ErrNoTransport
	}
	return c.transport, nil
}

// navigate is the shared recipe behind LoadDisc, Next, Prev, and Goto:
// bind the backend's current track, announce it, and, when playback is
// starting, hand the following index to the transport's PrepareNext.
func (c *Controller) navigate(index int, autoPlay bool) error {
	t, err := c.boundTransport()
	if err != nil {
		return err
	}

	if err := t.NavigateTo(index, autoPlay); err != nil {
		return err
	}
	c.bus.EmitTrackChange(listener.TrackChange{Index: index, Total: c.sequencer.TotalTracks()})
	if autoPlay {
		if next, ok := c.sequencer.GetNextForPreload(); ok {
			t.PrepareNext(next)
		}
	}
	return nil
}

// Play resumes or starts playback of the armed track.
func (c *Controller) Play() error {
	t, err := c.boundTransport()
	if err != nil {
		return err
	}
	wasStopped := t.GetState() == transport.Stopped
	if err := t.Play(); err != nil {
		return err
	}
	if wasStopped {
		if next, ok := c.sequencer.GetNextForPreload(); ok {
			t.PrepareNext(next)
		}
	}
	return nil
}

// Pause pauses the bound transport.
func (c *Controller) Pause() error {
	t, err := c.boundTransport()
	if err != nil {
		return err
	}
	return t.Pause()
}

// Stop stops the bound transport.
func (c *Controller) Stop() error {
	t, err := c.boundTransport()
	if err != nil {
		return err
	}
	return t.Stop()
}

// Seek moves the playhead within the current track.
func (c *Controller) Seek(seconds float64) error {
	t, err := c.boundTransport()
	if err != nil {
		return err
	}
	return t.Seek(seconds)
}

// Next advances to the sequencer's next track (honoring shuffle/repeat),
// preserving whether playback was in flight.
func (c *Controller) Next() error {
	t, err := c.boundTransport()
	if err != nil {
		return err
	}
	wasPlaying := t.GetState() == transport.Playing
	idx := c.sequencer.NextTrack()
	return c.navigate(idx, wasPlaying)
}

// Prev moves to the sequencer's previous track.
func (c *Controller) Prev() error {
	t, err := c.boundTransport()
	if err != nil {
		return err
	}
	wasPlaying := t.GetState() == transport.Playing
	idx := c.sequencer.PrevTrack()
	return c.navigate(idx, wasPlaying)
}

// Goto jumps directly to track index n (0-based).
func (c *Controller) Goto(n int) error {
	t, err := c.boundTransport()
	if err != nil {
		return err
	}
	wasPlaying := t.GetState() == transport.Playing
	if !c.sequencer.SetCurrentIndex(n) {
		return ErrIndexOutOfRange
	}
	return c.navigate(n, wasPlaying)
}

// Shuffle toggles shuffle mode and reports whether it is now on. It never
// emits a track_change (spec.md §4.1).
func (c *Controller) Shuffle() bool {
	c.sequencer.ToggleShuffle()
	return c.sequencer.ShuffleOn()
}

// Repeat cycles OFF -> TRACK -> ALL -> OFF and reports the new mode.
func (c *Controller) Repeat() sequencer.RepeatMode {
	return c.sequencer.CycleRepeat()
}

// Eject tears down the bound transport and clears the loaded disc.
func (c *Controller) Eject() error {
	if err := c.Cleanup(); err != nil {
		return err
	}
	c.sequencer.SetTotalTracks(0)
	c.mu.Lock()
	c.disc = disc.Disc{}
	c.mu.Unlock()
	c.bus.EmitStatusChange(listener.StatusChange{Reason: "no_disc"})
	return nil
}

// Cleanup releases the bound transport's resources. Safe to call more
// than once; a second call finds no transport bound and no-ops.
func (c *Controller) Cleanup() error {
	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.Cleanup()
}

// State reports the bound transport's playback state, or Stopped if none
// is bound.
func (c *Controller) State() transport.State {
	t, err := c.boundTransport()
	if err != nil {
		return transport.Stopped
	}
	return t.GetState()
}

// Position reports the bound transport's playhead.
func (c *Controller) Position() time.Duration {
	t, err := c.boundTransport()
	if err != nil {
		return 0
	}
	return t.GetPosition()
}

// Duration reports the bound transport's current track length.
func (c *Controller) Duration() time.Duration {
	t, err := c.boundTransport()
	if err != nil {
		return 0
	}
	return t.GetDuration()
}

// handleEndOfTrack is the unified reconciliation point described in
// spec.md §4.5. It is invoked by the bound transport's callback thread,
// never while any transport mutex is held.
func (c *Controller) handleEndOfTrack(e transport.EndOfTrackEvent) {
	t, err := c.boundTransport()
	if err != nil {
		return
	}

	if e.Aborted {
		c.bus.EmitStatusChange(listener.StatusChange{Reason: "error"})
		return
	}

	expected, hasExpected := c.sequencer.GetNextForPreload()
	actual := t.GetCurrentTrackIndex()

	if hasExpected && actual == expected {
		// The backend already performed a gapless swap on its own; the
		// sequencer just needs to catch up to what is now playing.
		next, ok := c.sequencer.Advance()
		if !ok {
			c.bus.EmitStatusChange(listener.StatusChange{Reason: "disc_end"})
			_ = t.Stop()
			return
		}
		c.bus.EmitTrackChange(listener.TrackChange{Index: next, Total: c.sequencer.TotalTracks()})
		if preload, ok := c.sequencer.GetNextForPreload(); ok {
			t.PrepareNext(preload)
		}
		return
	}

	// Shuffle drew something other than the linear next, or repeat-TRACK
	// needs a restart: the sequencer is authoritative, drive the backend
	// to it explicitly.
	next, ok := c.sequencer.Advance()
	if !ok {
		c.bus.EmitStatusChange(listener.StatusChange{Reason: "disc_end"})
		_ = t.Stop()
		return
	}
	if err := t.NavigateTo(next, true); err != nil {
		logging.L().Warn().Err(err).Int("index", next).Msg("controller: navigate after end-of-track failed")
		c.bus.EmitStatusChange(listener.StatusChange{Reason: "error"})
		return
	}
	c.bus.EmitTrackChange(listener.TrackChange{Index: next, Total: c.sequencer.TotalTracks()})
	if preload, ok := c.sequencer.GetNextForPreload(); ok {
		t.PrepareNext(preload)
	}
}
