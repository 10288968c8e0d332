package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentIndexAlwaysInRange(t *testing.T) {
	s := New()
	s.SetTotalTracks(5)

	for i := 0; i < 50; i++ {
		switch i % 4 {
		case 0:
			s.NextTrack()
		case 1:
			s.PrevTrack()
		case 2:
			s.ToggleShuffle()
		case 3:
			s.CycleRepeat()
		}
		idx := s.CurrentIndex()
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, s.TotalTracks())
	}
}

func TestShuffleOrderIsAPermutation(t *testing.T) {
	s := New()
	s.SetTotalTracks(7)
	s.ToggleShuffle()

	order := s.ShuffleOrder()
	seen := make(map[int]bool)
	for _, idx := range order {
		assert.False(t, seen[idx], "duplicate index in shuffle order")
		seen[idx] = true
	}
	assert.Len(t, order, 7)
}

func TestRepeatTrackHoldsPositionAndShuffleCursor(t *testing.T) {
	s := New()
	s.SetTotalTracks(5)
	s.ToggleShuffle()
	beforePos := s.ShufflePosition()

	s.CycleRepeat() // -> TRACK

	want := s.CurrentIndex()
	for i := 0; i < 3; i++ {
		next, ok := s.Advance()
		assert.True(t, ok)
		assert.Equal(t, want, next)
		assert.Equal(t, beforePos, s.ShufflePosition())
	}
}

func TestToggleShufflePlacesCurrentTrackFirst(t *testing.T) {
	s := New()
	s.SetTotalTracks(10)
	s.SetCurrentIndex(4)
	s.ToggleShuffle()

	assert.Equal(t, 0, s.ShufflePosition())
	assert.Equal(t, 4, s.ShuffleOrder()[0])
	assert.Equal(t, 4, s.CurrentIndex())
}

func TestToggleShuffleTwiceIsIdempotent(t *testing.T) {
	s := New()
	s.SetTotalTracks(5)
	s.SetCurrentIndex(2)

	s.ToggleShuffle()
	s.ToggleShuffle()

	assert.Equal(t, 2, s.CurrentIndex())
	assert.False(t, s.ShuffleOn())
}

func TestAdvanceWrapsUnderRepeatAll(t *testing.T) {
	s := New()
	s.SetTotalTracks(3)
	s.SetCurrentIndex(2)
	s.CycleRepeat()
	s.CycleRepeat() // -> ALL

	next, ok := s.Advance()
	assert.True(t, ok)
	assert.Equal(t, 0, next)
}

func TestAdvanceEndsDiscUnderRepeatOff(t *testing.T) {
	s := New()
	s.SetTotalTracks(3)
	s.SetCurrentIndex(2)

	_, ok := s.Advance()
	assert.False(t, ok)
}

func TestNextTrackWrapsEvenUnderRepeatOff(t *testing.T) {
	s := New()
	s.SetTotalTracks(3)
	s.SetCurrentIndex(2)

	next := s.NextTrack()
	assert.Equal(t, 0, next)
}

func TestGetNextForPreloadDoesNotMutate(t *testing.T) {
	s := New()
	s.SetTotalTracks(3)
	s.SetCurrentIndex(0)

	peek, ok := s.GetNextForPreload()
	assert.True(t, ok)
	assert.Equal(t, 1, peek)
	assert.Equal(t, 0, s.CurrentIndex(), "peeking must not mutate current_index")
}

func TestSetTotalTracksZeroClearsState(t *testing.T) {
	s := New()
	s.SetTotalTracks(5)
	s.SetCurrentIndex(3)

	s.SetTotalTracks(0)
	assert.Equal(t, 0, s.TotalTracks())
	assert.Equal(t, 0, s.CurrentIndex())
}
