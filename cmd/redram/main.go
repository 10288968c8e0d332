// Command redram is the line-oriented CLI harness for the playback core
// (spec.md §6). It is deliberately not a TUI: a terminal UI is an
// explicit non-goal, and GPIO/LED/MCUB surfaces are external
// collaborators wired elsewhere.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thestreamdigger/redram/internal/config"
	"github.com/thestreamdigger/redram/internal/controller"
	"github.com/thestreamdigger/redram/internal/disc"
	"github.com/thestreamdigger/redram/internal/listener"
	"github.com/thestreamdigger/redram/internal/logging"
	"github.com/thestreamdigger/redram/internal/ramplayer"
	"github.com/thestreamdigger/redram/internal/ripper"
	"github.com/thestreamdigger/redram/internal/streamplayer"
)

// mediaEngineBinary is the external media engine launched by the
// streaming backend. spec.md §4.6's recognised config keys do not cover
// it, so it is a build-time constant rather than a config override.
const mediaEngineBinary = "mpv"

const defaultConfigPath = "/etc/redram/config.json"

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := defaultConfigPath
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "redram: loading config:", err)
		return 1
	}
	logging.Init(cfg.Logging)

	a := newApp(cfg)
	defer a.ctrl.Cleanup()

	a.ctrl.Bus().OnTrackChange(func(e listener.TrackChange) {
		fmt.Printf("track_change: %d/%d\n", e.Index+1, e.Total)
	})
	a.ctrl.Bus().OnStatusChange(func(e listener.StatusChange) {
		fmt.Printf("status_change: %s\n", e.Reason)
	})
	a.ctrl.Bus().OnCDLoaded(func(e listener.CDLoaded) {
		fmt.Printf("cd_loaded: %d tracks\n", e.TrackCount)
	})

	a.repl()
	return 0
}

// app wires the CLI's in-memory acquisition state on top of the
// playback core. It is not part of the core itself.
type app struct {
	cfg  *config.Config
	ctrl *controller.Controller

	drive *ripper.Drive
	disc  disc.Disc
	pcm   map[int][]byte // RAM mode only: 0-based track index -> extracted PCM
}

func newApp(cfg *config.Config) *app {
	return &app{
		cfg:  cfg,
		ctrl: controller.New(listener.New()),
		pcm:  make(map[int][]byte),
	}
}

func (a *app) repl() {
	fmt.Println("redram - bit-perfect CD player core")
	fmt.Println(`type "help" for commands, "quit" to exit`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("redram> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if a.dispatch(line) {
			return
		}
	}
}

// dispatch runs one command line and reports whether the REPL should
// exit.
func (a *app) dispatch(line string) (quit bool) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	var err error
	switch cmd {
	case "scan":
		err = a.cmdScan()
	case "load":
		err = a.cmdLoad(args)
	case "play":
		err = a.ctrl.Play()
	case "pause":
		err = a.ctrl.Pause()
	case "stop":
		err = a.ctrl.Stop()
	case "next":
		err = a.ctrl.Next()
	case "prev":
		err = a.ctrl.Prev()
	case "goto":
		err = a.cmdGoto(args)
	case "seek":
		err = a.cmdSeek(args)
	case "repeat":
		mode := a.ctrl.Repeat()
		fmt.Println("repeat:", mode)
	case "shuffle":
		on := a.ctrl.Shuffle()
		fmt.Println("shuffle:", on)
	case "tracks":
		a.cmdTracks()
	case "verify":
		err = a.cmdVerify()
	case "eject":
		err = a.cmdEject()
	case "help":
		printHelp()
	case "quit":
		return true
	default:
		fmt.Println("unknown command:", cmd)
	}

	if err != nil {
		fmt.Println("error:", err)
	}
	return false
}

func printHelp() {
	fmt.Println(`commands: scan, load [N], play, pause, stop, next, prev, goto N, seek S, repeat, shuffle, tracks, verify, eject, help, quit`)
}

// cmdScan opens the CD device and reads its table of contents without
// extracting any audio.
func (a *app) cmdScan() error {
	if a.drive == nil {
		a.drive = &ripper.Drive{Device: a.cfg.CDDevice}
	}
	if err := a.drive.Open(); err != nil {
		return err
	}
	a.disc = disc.FromTOC(a.drive.TOC())
	fmt.Printf("scanned: %d tracks, %s total\n", a.disc.TrackCount(), a.disc.TotalDuration())
	return nil
}

// cmdLoad extracts (levels 1-3) or arms streaming (level 0) for the
// scanned disc, then binds the resulting transport to the controller.
func (a *app) cmdLoad(args []string) error {
	level := ripper.ExtractionFast
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 || n > 3 {
			return fmt.Errorf("load: level must be 0-3")
		}
		level = ripper.ExtractionLevel(n)
	}

	if a.disc.TrackCount() == 0 {
		if err := a.cmdScan(); err != nil {
			return err
		}
	}

	autoplay := a.cfg.AutoplayOnLoad.For(int(level))

	if level == ripper.ExtractionStream {
		return a.loadStreaming(autoplay)
	}
	return a.loadRAM(level, autoplay)
}

func (a *app) loadRAM(level ripper.ExtractionLevel, autoplay bool) error {
	if a.drive == nil || !a.drive.IsOpen() {
		a.drive = &ripper.Drive{Device: a.cfg.CDDevice}
		if err := a.drive.Open(); err != nil {
			return err
		}
	}
	a.drive.SetExtractionLevel(level)

	toc := a.drive.TOC()
	a.pcm = make(map[int][]byte, len(toc))
	for i, tp := range toc {
		if !tp.IsAudio() {
			continue
		}
		data, err := extractTrack(a.drive, tp)
		if err != nil {
			return fmt.Errorf("load: extracting track %d: %w", tp.TrackNum, err)
		}
		a.pcm[i] = data
	}

	provider := ramplayer.Provider(func(index int) ([]byte, error) {
		data, ok := a.pcm[index]
		if !ok {
			return nil, nil
		}
		return data, nil
	})

	rp, err := ramplayer.New(a.disc.TrackCount(), a.cfg.AudioBufferFrames, provider)
	if err != nil {
		return err
	}
	a.ctrl.Bind(rp)
	return a.ctrl.LoadDisc(a.disc, autoplay)
}

// extractTrack re-seeks and re-reads the whole track up to twice after a
// failed attempt before giving up on it (spec.md §7's transient-I/O
// policy).
func extractTrack(d *ripper.Drive, tp ripper.TrackPosition) ([]byte, error) {
	const maxRetries = 2
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if _, err := d.SeekToSector(tp.StartSector); err != nil {
			lastErr = err
			continue
		}
		buf := make([]byte, int64(tp.LengthSectors)*ripper.BytesPerSector)
		n, err := d.Read(buf)
		if err == nil {
			return buf[:n], nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (a *app) loadStreaming(autoplay bool) error {
	trackDurations := make([]time.Duration, a.disc.TrackCount())
	for i, tr := range a.disc.Tracks {
		trackDurations[i] = tr.Duration()
	}

	timeout := time.Duration(a.cfg.StreamStartupTimeoutSec) * time.Second
	sp, err := streamplayer.New(mediaEngineBinary, discURI(a.cfg.CDDevice), trackDurations, timeout)
	if err != nil {
		return err
	}
	a.ctrl.Bind(sp)
	return a.ctrl.LoadDisc(a.disc, autoplay)
}

func (a *app) cmdGoto(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("goto: usage: goto N")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("goto: %w", err)
	}
	return a.ctrl.Goto(n - 1)
}

func (a *app) cmdSeek(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("seek: usage: seek S")
	}
	s, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	return a.ctrl.Seek(s)
}

func (a *app) cmdTracks() {
	for _, tr := range a.disc.Tracks {
		fmt.Printf("%2d  %s\n", tr.Number, tr.Duration())
	}
}

// cmdVerify re-reads each track at maximum error-correction effort and
// compares the length against what was extracted by load, surfacing a
// lightweight confidence check without a full bit-for-bit re-rip.
func (a *app) cmdVerify() error {
	if a.drive == nil || !a.drive.IsOpen() {
		return fmt.Errorf("verify: no disc loaded")
	}
	a.drive.SetExtractionLevel(ripper.ExtractionMaxEffort)
	for i, tp := range a.drive.TOC() {
		if !tp.IsAudio() {
			continue
		}
		data, err := extractTrack(a.drive, tp)
		if err != nil {
			fmt.Printf("track %d: FAILED: %v\n", tp.TrackNum, err)
			continue
		}
		want := len(a.pcm[i])
		status := "OK"
		if want != 0 && want != len(data) {
			status = "MISMATCH"
		}
		fmt.Printf("track %d: %s (%d bytes)\n", tp.TrackNum, status, len(data))
	}
	return nil
}

func (a *app) cmdEject() error {
	if err := a.ctrl.Eject(); err != nil {
		return err
	}
	if a.drive != nil {
		_ = a.drive.Close()
		a.drive = nil
	}
	a.disc = disc.Disc{}
	a.pcm = make(map[int][]byte)
	return nil
}

// discURI builds the disc-image URI the media engine's loadfile command
// consumes for raw CD-DA playback.
func discURI(cdDevice string) string {
	if cdDevice == "" {
		cdDevice = "/dev/cdrom"
	}
	return "cdda://" + cdDevice
}
