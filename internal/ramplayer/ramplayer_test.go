package ramplayer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thestreamdigger/redram/internal/transport"
)

// newTestPlayer builds a RamPlayer without touching the real audio sink,
// so Stream can be exercised directly from unit tests.
func newTestPlayer(trackCount int, provider Provider) *RamPlayer {
	return &RamPlayer{provider: provider, trackCount: trackCount}
}

func pcmOfDuration(d time.Duration) []byte {
	n := int(d.Seconds() * bytesPerSecond)
	n -= n % bytesPerSample
	return make([]byte, n)
}

func TestNavigateToThenPlayStreamsSilenceWithoutError(t *testing.T) {
	provider := func(i int) ([]byte, error) { return pcmOfDuration(100 * time.Millisecond), nil }
	rp := newTestPlayer(2, provider)

	require.NoError(t, rp.NavigateTo(0, true))
	buf := make([][2]float64, 64)
	n, ok := rp.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, len(buf), n)
}

func TestGaplessSwapAdvancesIndexExactlyOnce(t *testing.T) {
	track0 := pcmOfDuration(5 * time.Millisecond)
	track1 := pcmOfDuration(50 * time.Millisecond)
	provider := func(i int) ([]byte, error) {
		if i == 0 {
			return track0, nil
		}
		return track1, nil
	}
	rp := newTestPlayer(2, provider)
	require.NoError(t, rp.NavigateTo(0, true))
	rp.PrepareNext(1)

	// Let the preload goroutine land.
	for i := 0; i < 100 && rp.next == nil; i++ {
		time.Sleep(time.Millisecond)
	}

	var endCount int
	var mu sync.Mutex
	rp.OnTrackEnd(func(e transport.EndOfTrackEvent) {
		mu.Lock()
		endCount++
		mu.Unlock()
	})

	buf := make([][2]float64, len(track0)/bytesPerSample+8)
	_, ok := rp.Stream(buf)
	assert.True(t, ok, "sink must stay open across the gapless swap")
	assert.Equal(t, 1, rp.GetCurrentTrackIndex())

	for i := 0; i < 100; i++ {
		mu.Lock()
		c := endCount
		mu.Unlock()
		if c > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	mu.Lock()
	assert.Equal(t, 1, endCount)
	mu.Unlock()
}

func TestAbsentNextParksInStoppedWithoutClosingSink(t *testing.T) {
	track0 := pcmOfDuration(5 * time.Millisecond)
	provider := func(i int) ([]byte, error) { return track0, nil }
	rp := newTestPlayer(1, provider)
	require.NoError(t, rp.NavigateTo(0, true))

	buf := make([][2]float64, len(track0)/bytesPerSample+8)
	_, ok := rp.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, transport.Stopped, rp.GetState())
}

func TestSeekOutOfRangeIsRejected(t *testing.T) {
	track0 := pcmOfDuration(time.Second)
	rp := newTestPlayer(1, func(i int) ([]byte, error) { return track0, nil })
	require.NoError(t, rp.NavigateTo(0, false))

	before := rp.GetPosition()
	require.NoError(t, rp.Seek(-1))
	require.NoError(t, rp.Seek(100))
	assert.Equal(t, before, rp.GetPosition())
}

func TestPauseThenPlayPreservesPosition(t *testing.T) {
	track0 := pcmOfDuration(time.Second)
	rp := newTestPlayer(1, func(i int) ([]byte, error) { return track0, nil })
	require.NoError(t, rp.NavigateTo(0, true))
	require.NoError(t, rp.Seek(0.25))

	require.NoError(t, rp.Pause())
	before := rp.GetPosition()
	require.NoError(t, rp.Play())
	assert.Equal(t, before, rp.GetPosition())
}

func TestRepeatedPauseIsIdempotent(t *testing.T) {
	track0 := pcmOfDuration(time.Second)
	rp := newTestPlayer(1, func(i int) ([]byte, error) { return track0, nil })
	require.NoError(t, rp.NavigateTo(0, true))
	require.NoError(t, rp.Pause())

	for i := 0; i < 100; i++ {
		require.NoError(t, rp.Pause())
	}
	assert.Equal(t, transport.Paused, rp.GetState())
}

func TestCleanupTwiceIsSafe(t *testing.T) {
	rp := newTestPlayer(0, func(i int) ([]byte, error) { return nil, nil })
	rp.closed = true // avoid touching the real speaker backend in tests
	require.NoError(t, rp.Cleanup())
	require.NoError(t, rp.Cleanup())
}
