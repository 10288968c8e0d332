// Package disc holds the data model shared by every acquisition path:
// the track layout of a CD-DA disc and its derived timing.
package disc

import (
	"time"

	"github.com/thestreamdigger/redram/internal/ripper"
)

// FramesPerSecond is the CD-DA frame (sector) rate: 1 frame = 1/75s.
const FramesPerSecond = ripper.FramesPerSecond

// Track describes one track on a loaded disc.
type Track struct {
	Number        int   // 1-based track number
	DurationFrame int32 // duration in CD frames (1/75s)
	RAMOffset     int64 // byte offset within the RAM PCM image; RAM mode only

	Title  string
	Artist string
	Album  string
}

// Duration returns the track length as a time.Duration.
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationFrame) * time.Second / FramesPerSecond
}

// Disc is the ordered sequence of tracks on the loaded CD.
type Disc struct {
	Tracks    []Track
	CDTextSet bool // whether CD-Text metadata was present
}

// TotalDuration sums every track's duration.
func (d Disc) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range d.Tracks {
		total += t.Duration()
	}
	return total
}

// TrackCount returns the number of tracks on the disc.
func (d Disc) TrackCount() int {
	return len(d.Tracks)
}

// FromTOC builds a Disc from a ripper table of contents, skipping data
// tracks. RAM offsets are left at zero; nothing in this module sets them,
// since RamPlayer's provider hands back each track as its own byte slice.
func FromTOC(toc []ripper.TrackPosition) Disc {
	d := Disc{Tracks: make([]Track, 0, len(toc))}
	for _, tp := range toc {
		if !tp.IsAudio() {
			continue
		}
		d.Tracks = append(d.Tracks, Track{
			Number:        int(tp.TrackNum),
			DurationFrame: tp.LengthSectors,
		})
	}
	return d
}
