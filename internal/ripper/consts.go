// Package ripper wraps libcdparanoia to extract bit-perfect PCM audio from
// a CD-DA disc in the drive. It is the data-provider collaborator consumed
// by the RAM player: the playback core never links against cdparanoia
// directly, only against the [Drive] type's Open/Read/Seek/TOC surface.
//
// It's a cgo wrapper for [CDParanoia], which means the real extraction path
// only builds on Linux and requires libcdparanoia and headers, e.g.:
//
//	sudo apt install cdparanoia libcdparanoia-dev
//
// On other platforms a mock backend returns white noise so the rest of the
// module still builds and tests.
//
// [CDParanoia]: https://xiph.org/paranoia/index.html
package ripper

// SampleRate is the number of samples per second. All Redbook audio
// CDs run at 44.1kHz.
const SampleRate = 44100

// BytesPerSample is 2 bytes, representing signed 16-bit samples.
const BytesPerSample = 2

// Channels is the number of audio channels in the data. All Redbook
// audio CDs are stereo.
const Channels = 2

// FramesPerSecond is the number of CD frames (sectors) in one second of
// audio. A CD frame is 1/75th of a second; Redbook track offsets are
// specified in MM:SS:FF.
const FramesPerSecond = 75

// SamplesPerFrame is the number of 16-bit audio samples per channel that
// appear within one frame of data.
const SamplesPerFrame = SampleRate / FramesPerSecond

// BytesPerSector is the number of bytes of audio contained in one sector
// of CD data (2352 bytes), the unit Read operates on.
const BytesPerSector = SampleRate * Channels * BytesPerSample / FramesPerSecond
