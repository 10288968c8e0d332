//go:build !linux

package ripper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMockDrive(t *testing.T) {
	d := &Drive{}
	require.NoError(t, d.Open())
	assert.True(t, d.IsOpen())
	assert.Equal(t, mockTrackCount, d.TrackCount())
}

func TestMockTOCLengthsCoverTheDisc(t *testing.T) {
	d := &Drive{}
	require.NoError(t, d.Open())

	toc := d.TOC()
	require.Len(t, toc, mockTrackCount)
	for i, tp := range toc {
		assert.Equal(t, uint8(i+1), tp.TrackNum)
		assert.True(t, tp.IsAudio())
	}
	assert.Equal(t, d.LengthSectors(), toc[len(toc)-1].StartSector+toc[len(toc)-1].LengthSectors)
}

func TestReadReturnsFullSectors(t *testing.T) {
	d := &Drive{}
	require.NoError(t, d.Open())

	buf := make([]byte, BytesPerSector*2)
	n, err := d.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
}

func TestCloseIsSafeToCallTwice(t *testing.T) {
	d := &Drive{}
	require.NoError(t, d.Open())
	require.NoError(t, d.Close())
	assert.False(t, d.IsOpen())
	require.NoError(t, d.Close())
}

func TestExtractionLevelParanoiaMapping(t *testing.T) {
	assert.Equal(t, ParanoiaModeDisable, ExtractionFast.Paranoia())
	assert.Equal(t, ParanoiaModeFull, ExtractionVerify.Paranoia())
	assert.Equal(t, ParanoiaModeFull|ParanoiaNeverSkip|ParanoiaOverlap, ExtractionMaxEffort.Paranoia())
}
