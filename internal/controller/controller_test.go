package controller

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thestreamdigger/redram/internal/disc"
	"github.com/thestreamdigger/redram/internal/listener"
	"github.com/thestreamdigger/redram/internal/transport"
)

// fakeTransport is a minimal, test-only AudioTransport that lets us drive
// the controller's navigation recipe and unified end-of-track handler
// without a real audio sink or media engine.
type fakeTransport struct {
	mu          sync.Mutex
	state       transport.State
	index       int
	trackCount  int
	subs        []func(transport.EndOfTrackEvent)
	preloadedAt []int
	cleanedUp   int
}

func newFakeTransport(trackCount int) *fakeTransport {
	return &fakeTransport{trackCount: trackCount, index: -1}
}

func (f *fakeTransport) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = transport.Playing
	return nil
}
func (f *fakeTransport) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = transport.Paused
	return nil
}
func (f *fakeTransport) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = transport.Stopped
	return nil
}
func (f *fakeTransport) Seek(seconds float64) error { return nil }
func (f *fakeTransport) NavigateTo(index int, autoPlay bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= f.trackCount {
		return ErrIndexOutOfRange
	}
	f.index = index
	if autoPlay {
		f.state = transport.Playing
	} else {
		f.state = transport.Stopped
	}
	return nil
}
func (f *fakeTransport) PrepareNext(index int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preloadedAt = append(f.preloadedAt, index)
}
func (f *fakeTransport) GetPosition() time.Duration { return 0 }
func (f *fakeTransport) GetDuration() time.Duration { return 0 }
func (f *fakeTransport) GetState() transport.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
func (f *fakeTransport) GetCurrentTrackIndex() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}
func (f *fakeTransport) GetTrackCount() int { return f.trackCount }
func (f *fakeTransport) OnTrackEnd(fn func(transport.EndOfTrackEvent)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}
func (f *fakeTransport) Cleanup() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanedUp++
	return nil
}

// fireEndOfTrack mimics the backend's own gapless swap by moving index to
// toIndex before invoking the subscribers, exactly as RamPlayer would
// after a successful swap.
func (f *fakeTransport) fireEndOfTrack(toIndex int) {
	f.mu.Lock()
	f.index = toIndex
	subs := append([]func(transport.EndOfTrackEvent){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(transport.EndOfTrackEvent{})
	}
}

func newTestController(t *testing.T, trackCount int) (*Controller, *fakeTransport) {
	bus := listener.New()
	c := New(bus)
	ft := newFakeTransport(trackCount)
	c.Bind(ft)
	require.NoError(t, c.LoadDisc(disc.Disc{Tracks: make([]disc.Track, trackCount)}, true))
	return c, ft
}

func TestGaplessEndOfTrackAdvancesSequencerOnly(t *testing.T) {
	c, ft := newTestController(t, 3)

	var changes []listener.TrackChange
	c.Bus().OnTrackChange(func(e listener.TrackChange) { changes = append(changes, e) })

	ft.fireEndOfTrack(1)
	assert.Equal(t, 1, c.Sequencer().CurrentIndex())
	require.Len(t, changes, 1)
	assert.Equal(t, 1, changes[0].Index)
}

func TestMismatchedEndOfTrackNavigatesExplicitly(t *testing.T) {
	c, ft := newTestController(t, 3)
	c.Shuffle()
	ft.mu.Lock()
	ft.index = 0
	ft.mu.Unlock()

	// Force the sequencer off linear order: fire end-of-track claiming a
	// track the sequencer did not expect.
	ft.fireEndOfTrack(99)
	assert.NotEqual(t, 99, ft.GetCurrentTrackIndex())
}

func TestDiscEndStopsAndEmitsStatus(t *testing.T) {
	c, ft := newTestController(t, 1)

	var reasons []string
	c.Bus().OnStatusChange(func(e listener.StatusChange) { reasons = append(reasons, e.Reason) })

	ft.fireEndOfTrack(0)
	require.Contains(t, reasons, "disc_end")
	assert.Equal(t, transport.Stopped, ft.GetState())
}

func TestRepeatTrackKeepsCurrentIndexAcrossEndOfTrack(t *testing.T) {
	c, ft := newTestController(t, 5)
	require.NoError(t, c.Goto(2))
	c.Repeat() // OFF -> TRACK

	ft.fireEndOfTrack(2)
	assert.Equal(t, 2, c.Sequencer().CurrentIndex())
}

func TestShuffleDoesNotEmitTrackChange(t *testing.T) {
	c, _ := newTestController(t, 4)
	var changes int
	c.Bus().OnTrackChange(func(e listener.TrackChange) { changes++ })
	c.Shuffle()
	assert.Equal(t, 0, changes)
}

func TestEjectCleansUpTransportOnce(t *testing.T) {
	c, ft := newTestController(t, 2)
	require.NoError(t, c.Eject())
	assert.Equal(t, 1, ft.cleanedUp)
	require.ErrorIs(t, c.Play(), ErrNoTransport)
}

func TestCleanupTwiceIsSafe(t *testing.T) {
	c, ft := newTestController(t, 2)
	require.NoError(t, c.Cleanup())
	require.NoError(t, c.Cleanup())
	assert.Equal(t, 1, ft.cleanedUp)
}
