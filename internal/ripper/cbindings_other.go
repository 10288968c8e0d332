//go:build !linux

package ripper

import (
	"crypto/rand"
	"fmt"
	"os"
	"unsafe"
)

const (
	ParanoiaModeFull    ParanoiaFlags = 0
	ParanoiaModeDisable ParanoiaFlags = 1
	ParanoiaVerify      ParanoiaFlags = 1 << 1
	ParanoiaFragment    ParanoiaFlags = 1 << 2
	ParanoiaOverlap     ParanoiaFlags = 1 << 3
	ParanoiaScratch     ParanoiaFlags = 1 << 4
	ParanoiaRepair      ParanoiaFlags = 1 << 5
	ParanoiaNeverSkip   ParanoiaFlags = 1 << 6
)

func init() {
	fmt.Fprintln(os.Stderr, "NOTE: ripper's real backend is linux-only. Running against a mock drive that returns white noise.")
}

const mockTrackCount = 10
const mockTrackLengthSectors = int32(FramesPerSecond * 3 * 60)

func openDrive(d *Drive) error {
	// pretend to be open by pointing back at ourselves
	d.drive = unsafe.Pointer(d)
	return nil
}

func model(drive driveHandle) string           { return "mock drive" }
func driveType(drive driveHandle) DriveType     { return 0 }
func interfaceType(drive driveHandle) InterfaceType { return 0 }
func trackCount(d driveHandle) int              { return mockTrackCount }
func firstAudioSector(d driveHandle) int32      { return 0 }

func toc(d driveHandle, ntracks int) []TrackPosition {
	tp := make([]TrackPosition, ntracks)
	pos := int32(0)
	for i := range tp {
		tp[i].TrackNum = uint8(i + 1)
		tp[i].Flags = 0
		tp[i].StartSector = pos
		tp[i].LengthSectors = mockTrackLengthSectors
		pos += mockTrackLengthSectors
	}
	return tp
}

func lengthSectors(d driveHandle) int32 {
	return mockTrackLengthSectors * mockTrackCount
}

func opened(d driveHandle) bool { return true }

func setParanoia(d *Drive, flags ParanoiaFlags) {}
func overlapSet(d *Drive, sectors int32)        {}

func setSpeed(d *Drive, x int) error { return nil }

func seekSector(d *Drive, sector int32) error { return nil }

func readLimited(d *Drive, p []byte, retries int) error {
	_, err := rand.Read(p)
	return err
}

func closeDrive(d driveHandle)      {}
func paranoiaFree(p paranoiaHandle) {}

func version() string { return "mock" }
