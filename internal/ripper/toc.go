package ripper

// Flag is a set of bit flags attached to a track in the CD's
// table of contents.
type Flag uint8

// IsAudio reports whether the track is an audio track. Mixed-mode discs
// can have data tracks alongside audio tracks.
func (t TrackPosition) IsAudio() bool {
	return (uint8(t.Flags) & 0x04) == 0
}

// TrackPosition reports the offset information for one track from the
// table of contents.
type TrackPosition struct {
	Flags         Flag
	TrackNum      uint8 // 1-based track index
	StartSector   int32
	LengthSectors int32
}

// DriveType identifies the kernel device major number backing the drive.
type DriveType int

// InterfaceType identifies the transport cdparanoia used to talk to the drive.
type InterfaceType int
