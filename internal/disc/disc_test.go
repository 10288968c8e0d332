package disc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/thestreamdigger/redram/internal/ripper"
)

func TestFromTOCSkipsNonAudioTracks(t *testing.T) {
	toc := []ripper.TrackPosition{
		{TrackNum: 1, Flags: 0, StartSector: 0, LengthSectors: 75 * 10},
		{TrackNum: 2, Flags: 0x04, StartSector: 750, LengthSectors: 75 * 5}, // data track
		{TrackNum: 3, Flags: 0, StartSector: 1125, LengthSectors: 75 * 7},
	}
	d := FromTOC(toc)
	assert.Equal(t, 2, d.TrackCount())
	assert.Equal(t, 1, d.Tracks[0].Number)
	assert.Equal(t, 3, d.Tracks[1].Number)
}

func TestTrackDuration(t *testing.T) {
	tr := Track{DurationFrame: 75 * 10}
	assert.Equal(t, 10*time.Second, tr.Duration())
}

func TestTotalDuration(t *testing.T) {
	d := Disc{Tracks: []Track{
		{DurationFrame: 75 * 10},
		{DurationFrame: 75 * 5},
		{DurationFrame: 75 * 7},
	}}
	assert.Equal(t, 22*time.Second, d.TotalDuration())
}
