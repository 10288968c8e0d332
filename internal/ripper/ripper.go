package ripper

import (
	"bytes"
	"io"
	"log"
	"os"
	"unsafe"
)

// LogMode configures the destination for cdparanoia debug logs.
type LogMode int

const (
	LogModeSilent LogMode = 0 // disable logs
	LogModeStdErr LogMode = 1 // log to stderr
	LogModeLogger LogMode = 2 // log to the supplied log.Logger instance
)

// ParanoiaFlags enable specific error checking features.
type ParanoiaFlags int

// driveHandle and paranoiaHandle are opaque handles to the platform
// backend's drive/paranoia state (a *C.cdrom_drive / *C.cdrom_paranoia
// on linux, a self-pointer on the mock backend).
type driveHandle = unsafe.Pointer
type paranoiaHandle = unsafe.Pointer

// ExtractionLevel is the user-selected fidelity mode for ripping: 0 means
// "don't rip, stream from the drive instead" (the caller should route to
// a streaming transport rather than a Drive at that level); 1-3 extract
// with increasing error-correction effort.
type ExtractionLevel int

const (
	ExtractionStream     ExtractionLevel = 0
	ExtractionFast       ExtractionLevel = 1
	ExtractionVerify     ExtractionLevel = 2
	ExtractionMaxEffort  ExtractionLevel = 3
)

// Paranoia maps a user-selected extraction level onto the cdparanoia mode
// flags that back it: fast extraction disables correction for raw speed,
// verify mode enables the standard checks, and max-effort adds overlap
// search and never skipping damaged sectors.
func (l ExtractionLevel) Paranoia() ParanoiaFlags {
	switch l {
	case ExtractionFast:
		return ParanoiaModeDisable
	case ExtractionMaxEffort:
		return ParanoiaModeFull | ParanoiaNeverSkip | ParanoiaOverlap
	default:
		return ParanoiaModeFull
	}
}

// Drive reads bit-perfect PCM audio from a CD-DA disc in the drive.
// If Device is specified, Drive reads from that block device; otherwise
// it probes for the first detected drive. A Drive must be [Drive.Open]ed
// before use. The zero value is ready to be opened.
//
// Drive implements [io.ReadSeekCloser].
type Drive struct {
	Device     string      // path to the cdrom device, e.g. /dev/cdrom
	MaxRetries int         // repeated reads on failed sectors; -1 disables retries, 0 means default of 20
	LogMode    LogMode     // destination for cdparanoia logs
	Logger     *log.Logger // used when LogMode == LogModeLogger

	buf            bytes.Buffer
	bufferedOffset int64
	trueOffset     int64

	drive    driveHandle
	paranoia paranoiaHandle
}

var _ io.ReadSeekCloser = (*Drive)(nil)

// FullSpeed can be passed to SetSpeed to run the drive at its fastest speed.
const FullSpeed = -1

// Open determines the properties of the drive and detects the audio cd.
// Must be called before TOC, Read, or Seek can be used.
func (d *Drive) Open() error {
	if d.IsOpen() {
		return nil
	}
	if err := openDrive(d); err != nil {
		return err
	}
	if err := d.SetSpeed(FullSpeed); err != nil {
		return err
	}
	if err := d.seekSector(0); err != nil {
		return err
	}
	d.bufferedOffset = 0
	d.trueOffset = 0
	d.SetParanoiaMode(ParanoiaModeFull)
	d.buf.Truncate(0)
	d.buf.Grow(BytesPerSector)
	return nil
}

// Model returns the cd drive's manufacturer and model number.
func (d *Drive) Model() string {
	if !d.IsOpen() {
		return ""
	}
	return model(d.drive)
}

func (d *Drive) DriveType() DriveType {
	if !d.IsOpen() {
		return -1
	}
	return driveType(d.drive)
}

func (d *Drive) InterfaceType() InterfaceType {
	if !d.IsOpen() {
		return -1
	}
	return interfaceType(d.drive)
}

// TrackCount returns the number of audio tracks on the disc.
func (d *Drive) TrackCount() int {
	if !d.IsOpen() {
		return -1
	}
	return trackCount(d.drive)
}

// FirstAudioSector returns the sector index of the first track.
func (d *Drive) FirstAudioSector() int32 {
	if !d.IsOpen() {
		return -1
	}
	return firstAudioSector(d.drive)
}

// TOC returns the table of contents: one entry per track, in order.
func (d *Drive) TOC() []TrackPosition {
	if !d.IsOpen() {
		return nil
	}
	return toc(d.drive, d.TrackCount())
}

// LengthSectors returns the total number of sectors with audio data.
func (d *Drive) LengthSectors() int32 {
	if !d.IsOpen() {
		return -1
	}
	return lengthSectors(d.drive)
}

// IsOpen reports whether the drive has been opened and has a disc to read.
func (d *Drive) IsOpen() bool {
	if d.drive == nil {
		return false
	}
	return opened(d.drive)
}

// SetParanoiaMode sets how paranoid the drive will be about error checking
// and correction. Individual checks can be combined with bitwise OR.
func (d *Drive) SetParanoiaMode(flags ParanoiaFlags) {
	setParanoia(d, flags)
}

// SetExtractionLevel applies the paranoia flags matching a user-selected
// ExtractionLevel.
func (d *Drive) SetExtractionLevel(level ExtractionLevel) {
	d.SetParanoiaMode(level.Paranoia())
}

// ForceSearchOverlap sets the minimum number of sectors to search when
// detecting overlap issues during data verification.
func (d *Drive) ForceSearchOverlap(sectors int32) error {
	if !d.IsOpen() {
		return os.ErrClosed
	}
	if sectors < 0 || sectors > 75 {
		return ErrInvalidTrackNumber
	}
	overlapSet(d, sectors)
	return nil
}

// SetSpeed sets the data read speed multiplier. 1x reads at real-time
// audio speed, 75 sectors/second. Use FullSpeed (the default) to read as
// fast as possible.
func (d *Drive) SetSpeed(x int) error {
	if !d.IsOpen() {
		return os.ErrClosed
	}
	return setSpeed(d, x)
}

// Seek provides access to the cursor position for reading audio data.
// It allows seeking to arbitrary sub-sector byte offsets.
func (d *Drive) Seek(offset int64, whence int) (int64, error) {
	var newoffset int64
	switch whence {
	case io.SeekCurrent:
		newoffset = d.trueOffset + offset
	case io.SeekEnd:
		end := int64(d.LengthSectors()) * BytesPerSector
		newoffset = end + offset
	default:
		newoffset = offset
	}

	if newoffset == d.trueOffset {
		return d.trueOffset, nil
	}

	if newoffset > d.trueOffset && newoffset < d.bufferedOffset {
		_ = d.buf.Next(int(newoffset - d.trueOffset))
		d.trueOffset = newoffset
		return d.trueOffset, nil
	}

	d.buf.Truncate(0)
	d.trueOffset = d.bufferedOffset
	secoffset := newoffset - (newoffset % BytesPerSector)
	if err := d.seekSector(int32(secoffset / BytesPerSector)); err != nil {
		d.trueOffset = d.bufferedOffset
		return d.trueOffset, err
	}
	if err := d.bufferSectors(1); err != nil {
		d.trueOffset = d.bufferedOffset
		return d.trueOffset, err
	}
	d.trueOffset = d.bufferedOffset
	_ = d.buf.Next(int(newoffset - secoffset))
	d.trueOffset = newoffset
	return d.trueOffset, nil
}

// SeekToSector seeks the drive to the given sector index, e.g. the start
// of a track.
func (d *Drive) SeekToSector(sector int32) (int64, error) {
	return d.Seek(int64(sector)*BytesPerSector, io.SeekStart)
}

func (d *Drive) seekSector(sector int32) error {
	if !d.IsOpen() {
		return os.ErrClosed
	}
	return seekSector(d, sector)
}

// Read reads PCM audio data from the disc: signed 16-bit samples in host
// byte order, regardless of drive endianness.
func (d *Drive) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if d.buf.Len() > 0 {
		n = len(p)
		if n > d.buf.Len() {
			n = d.buf.Len()
		}
		copy(p[:n], d.buf.Next(n))
		d.trueOffset += int64(n)

		nn, err := d.Read(p[n:])
		return n + nn, err
	}

	nsectors := (len(p) / BytesPerSector) + 1
	if err := d.bufferSectors(nsectors); err != nil {
		return 0, err
	}
	return d.Read(p)
}

func (d *Drive) readSectors(p []byte) (int64, error) {
	if !d.IsOpen() {
		return 0, os.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if int32(len(p))%BytesPerSector != 0 {
		return 0, ErrNoData
	}

	if int32(len(p)) > BytesPerSector {
		n, err := d.readSectors(p[:BytesPerSector])
		if err != nil {
			return n, err
		}
		nn, err := d.readSectors(p[BytesPerSector:])
		return n + nn, err
	}

	retries := d.MaxRetries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = 20
	}
	if err := readLimited(d, p, retries); err != nil {
		return 0, err
	}
	return BytesPerSector, nil
}

func (d *Drive) bufferSectors(nsectors int) error {
	p := make([]byte, nsectors*BytesPerSector)
	n, err := d.readSectors(p)
	d.bufferedOffset += n
	d.buf.Write(p[:n])
	return err
}

// Close releases access to the drive. Data can no longer be accessed
// unless Open is called again. Safe to call on a drive that was never
// opened.
func (d *Drive) Close() error {
	if d.IsOpen() {
		closeDrive(d.drive)
	}
	if d.paranoia != nil {
		paranoiaFree(d.paranoia)
	}
	d.paranoia = nil
	d.drive = nil
	d.buf.Truncate(0)
	return nil
}

// Version returns the libcdparanoia version string.
func Version() string {
	return version()
}
