package streamplayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCumulativeStartsSumsDurations(t *testing.T) {
	starts, total := cumulativeStarts([]time.Duration{10 * time.Second, 5 * time.Second, 7 * time.Second})
	assert.Equal(t, []float64{0, 10, 15}, starts)
	assert.Equal(t, 22.0, total)
}

// newTestPlayer builds a StreamPlayer without launching a real media
// engine process, so the IPC-free logic (duration math, bounds checks)
// can be exercised directly.
func newTestPlayer(durations []time.Duration) *StreamPlayer {
	sp := &StreamPlayer{currentIndex: -1, socketPath: "/nonexistent"}
	sp.chapterStart, sp.totalDuration = cumulativeStarts(durations)
	sp.trackCount = len(durations)
	return sp
}

func TestGetDurationUsesChapterBoundaries(t *testing.T) {
	sp := newTestPlayer([]time.Duration{10 * time.Second, 5 * time.Second, 7 * time.Second})
	sp.currentIndex = 1
	assert.Equal(t, 5*time.Second, sp.GetDuration())

	sp.currentIndex = 2
	assert.Equal(t, 7*time.Second, sp.GetDuration())
}

func TestGetPositionIsZeroDuringStartup(t *testing.T) {
	sp := newTestPlayer([]time.Duration{10 * time.Second})
	sp.currentIndex = 0
	sp.startupPhase = true
	sp.lastAbsoluteTime = 3.5
	assert.Equal(t, time.Duration(0), sp.GetPosition())

	sp.startupPhase = false
	assert.Equal(t, 3500*time.Millisecond, sp.GetPosition())
}

func TestNavigateToRejectsOutOfRangeIndex(t *testing.T) {
	sp := newTestPlayer([]time.Duration{10 * time.Second})
	require.ErrorIs(t, sp.NavigateTo(5, true), ErrIndexOutOfRange)
	require.ErrorIs(t, sp.NavigateTo(-1, true), ErrIndexOutOfRange)
}

func TestSeekRejectsOutOfRangeWithoutTouchingIPC(t *testing.T) {
	sp := newTestPlayer([]time.Duration{10 * time.Second})
	sp.currentIndex = 0
	require.NoError(t, sp.Seek(-1))
	require.NoError(t, sp.Seek(100))
}

func TestCleanupTwiceIsSafe(t *testing.T) {
	sp := newTestPlayer([]time.Duration{10 * time.Second})
	sp.closed = true // avoid touching the real engine process in tests
	require.NoError(t, sp.Cleanup())
	require.NoError(t, sp.Cleanup())
}
