// Package sequencer implements the pure track-ordering state machine:
// shuffle and repeat semantics, decoupled from audio entirely.
package sequencer

import (
	"math/rand"
	"sync"
)

// RepeatMode controls what advance does at a track or disc boundary.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatTrack
	RepeatAll
)

// next advances OFF -> TRACK -> ALL -> OFF.
func (m RepeatMode) next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatTrack
	case RepeatTrack:
		return RepeatAll
	default:
		return RepeatOff
	}
}

// TrackSequencer answers "which track follows the current one?" under
// user-chosen shuffle/repeat modes. It knows nothing about audio.
//
// Mutated from the command thread and from the controller's unified
// end-of-track handler (which runs on a callback thread), so every
// operation is guarded by an internal mutex.
type TrackSequencer struct {
	mu sync.Mutex

	repeatMode   RepeatMode
	shuffleOn    bool
	currentIndex int
	totalTracks  int

	shuffleOrder    []int
	shufflePosition int

	rng *rand.Rand
}

// New returns a sequencer with no tracks loaded.
func New() *TrackSequencer {
	return &TrackSequencer{rng: rand.New(rand.NewSource(1))}
}

// SetTotalTracks resets the shuffle order to the identity permutation
// [0..n) and clamps current_index to 0. On n <= 0 it clears all state.
func (s *TrackSequencer) SetTotalTracks(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		s.totalTracks = 0
		s.currentIndex = 0
		s.shuffleOrder = nil
		s.shufflePosition = 0
		return
	}

	s.totalTracks = n
	s.currentIndex = 0
	s.shuffleOrder = identityPermutation(n)
	s.shufflePosition = 0
}

// SetCurrentIndex sets current_index to i (which must be in range). If
// shuffle is on, shuffle_position is updated to the position where
// shuffle_order holds i.
func (s *TrackSequencer) SetCurrentIndex(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCurrentIndexLocked(i)
}

func (s *TrackSequencer) setCurrentIndexLocked(i int) bool {
	if s.totalTracks == 0 || i < 0 || i >= s.totalTracks {
		return false
	}
	s.currentIndex = i
	if s.shuffleOn {
		for pos, idx := range s.shuffleOrder {
			if idx == i {
				s.shufflePosition = pos
				break
			}
		}
	}
	return true
}

// ToggleShuffle flips shuffle. Turning it on generates a fresh Fisher-Yates
// permutation with the current track placed first, so the current track is
// never skipped; turning it off leaves current_index unchanged. Never
// itself emits a track change - callers must not treat this as navigation.
func (s *TrackSequencer) ToggleShuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shuffleOn = !s.shuffleOn
	if !s.shuffleOn || s.totalTracks == 0 {
		return
	}

	order := identityPermutation(s.totalTracks)
	s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	// move current track to the front
	for pos, idx := range order {
		if idx == s.currentIndex {
			order[0], order[pos] = order[pos], order[0]
			break
		}
	}
	s.shuffleOrder = order
	s.shufflePosition = 0
}

// ShuffleOn reports whether shuffle mode is active.
func (s *TrackSequencer) ShuffleOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuffleOn
}

// CycleRepeat advances OFF -> TRACK -> ALL -> OFF and returns the new mode.
func (s *TrackSequencer) CycleRepeat() RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeatMode = s.repeatMode.next()
	return s.repeatMode
}

// RepeatMode reports the current repeat mode.
func (s *TrackSequencer) RepeatMode() RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeatMode
}

// CurrentIndex reports the current track index.
func (s *TrackSequencer) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// TotalTracks reports the disc's track count.
func (s *TrackSequencer) TotalTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalTracks
}

// ShufflePosition reports the cursor into shuffle_order, for tests and
// diagnostics.
func (s *TrackSequencer) ShufflePosition() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shufflePosition
}

// ShuffleOrder returns a copy of the current shuffle permutation.
func (s *TrackSequencer) ShuffleOrder() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.shuffleOrder))
	copy(out, s.shuffleOrder)
	return out
}

// Advance is called after a natural track end. It returns the next index,
// or ok=false at end of disc. repeat_mode == TRACK never moves
// shuffle_position, so repeating a shuffled track does not walk the
// shuffle cursor.
func (s *TrackSequencer) Advance() (next int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(false)
}

// advanceLocked implements both Advance (wrapAtEnd=false: end of disc under
// OFF returns !ok) and the user-driven NextTrack (wrapAtEnd=true: end of
// disc under OFF wraps to 0).
func (s *TrackSequencer) advanceLocked(wrapAtEnd bool) (int, bool) {
	if s.totalTracks == 0 {
		return 0, false
	}

	if s.repeatMode == RepeatTrack {
		return s.currentIndex, true
	}

	if s.shuffleOn {
		pos := s.shufflePosition + 1
		if pos >= len(s.shuffleOrder) {
			if s.repeatMode == RepeatAll || wrapAtEnd {
				s.reshuffleLocked()
				pos = 0
			} else {
				return 0, false
			}
		}
		s.shufflePosition = pos
		s.currentIndex = s.shuffleOrder[pos]
		return s.currentIndex, true
	}

	idx := s.currentIndex + 1
	if idx >= s.totalTracks {
		if s.repeatMode == RepeatAll || wrapAtEnd {
			idx = 0
		} else {
			return 0, false
		}
	}
	s.currentIndex = idx
	return s.currentIndex, true
}

func (s *TrackSequencer) reshuffleLocked() {
	order := identityPermutation(s.totalTracks)
	s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	s.shuffleOrder = order
}

// NextTrack is the user-driven equivalent of Advance, except end of disc
// under repeat OFF wraps to 0 instead of signalling end of disc.
func (s *TrackSequencer) NextTrack() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, _ := s.advanceLocked(true)
	return next
}

// PrevTrack moves to the previous track (or shuffle predecessor). Unlike
// NextTrack it wraps to the last track only under repeat ALL; otherwise it
// clamps to 0.
func (s *TrackSequencer) PrevTrack() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.totalTracks == 0 {
		return 0
	}

	if s.repeatMode == RepeatTrack {
		return s.currentIndex
	}

	if s.shuffleOn {
		pos := s.shufflePosition - 1
		if pos < 0 {
			if s.repeatMode == RepeatAll {
				pos = len(s.shuffleOrder) - 1
			} else {
				pos = 0
			}
		}
		s.shufflePosition = pos
		s.currentIndex = s.shuffleOrder[pos]
		return s.currentIndex
	}

	idx := s.currentIndex - 1
	if idx < 0 {
		if s.repeatMode == RepeatAll {
			idx = s.totalTracks - 1
		} else {
			idx = 0
		}
	}
	s.currentIndex = idx
	return s.currentIndex
}

// GetNextForPreload peeks at the index Advance would yield, without
// mutating any state. The one exception is shuffle with repeat ALL at the
// end of the shuffle order: it returns the first entry of the current
// order, while Advance draws a fresh order there, so Advance's result can
// differ.
func (s *TrackSequencer) GetNextForPreload() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.totalTracks == 0 {
		return 0, false
	}
	if s.repeatMode == RepeatTrack {
		return s.currentIndex, true
	}
	if s.shuffleOn {
		pos := s.shufflePosition + 1
		if pos >= len(s.shuffleOrder) {
			if s.repeatMode == RepeatAll {
				return s.shuffleOrder[0], true // re-shuffle is deferred to Advance itself
			}
			return 0, false
		}
		return s.shuffleOrder[pos], true
	}
	idx := s.currentIndex + 1
	if idx >= s.totalTracks {
		if s.repeatMode == RepeatAll {
			return 0, true
		}
		return 0, false
	}
	return idx, true
}

func identityPermutation(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
