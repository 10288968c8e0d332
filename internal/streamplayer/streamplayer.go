// Package streamplayer drives an external media engine process over a
// line-delimited JSON control socket, treating CD tracks as chapters of a
// single disc media source. It satisfies transport.AudioTransport.
package streamplayer

import (
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thestreamdigger/redram/internal/logging"
	"github.com/thestreamdigger/redram/internal/transport"
)

// monitorPhase is the explicit state machine driving the monitor thread,
// per spec.md §9 ("best expressed as an explicit state machine with a
// bounded wait primitive; avoid building it as two nested busy loops").
type monitorPhase int

const (
	phaseStartup monitorPhase = iota // waiting for audio to actually start flowing
	phaseTracking                    // polling chapter/eof for natural advance
)

const pollInterval = 100 * time.Millisecond

// startupThreshold is how far into a chapter the engine's absolute time
// must move before get_position stops reporting 0 (spec.md §4.4).
const startupThreshold = 0.1 // seconds

// StreamPlayer drives one long-lived media-engine process per session.
type StreamPlayer struct {
	enginePath string
	discURI    string
	socketDir  string
	socketPath string
	cmd        *exec.Cmd

	connMu sync.Mutex
	conn   net.Conn

	mu             sync.Mutex
	trackCount     int
	chapterStart   []float64 // seconds, cumulative sum of track durations
	totalDuration  float64
	currentIndex   int
	state          transport.State
	discLoaded     bool
	startupPhase   bool
	startupTimeout time.Duration
	startedAt      time.Time

	lastAbsoluteTime float64
	lastChapter      int
	lastEOF          bool

	subsMu sync.Mutex
	subs   []func(transport.EndOfTrackEvent)

	stopMonitor chan struct{}
	closed      bool
}

var _ transport.AudioTransport = (*StreamPlayer)(nil)

// New launches the media engine in idle mode against discURI, configured
// for bit-perfect output (no resampling/normalization/DSP, volume fixed
// at 100%, gapless audio on, a small fixed audio buffer), and starts the
// monitor goroutine.
func New(enginePath, discURI string, trackDurations []time.Duration, startupTimeout time.Duration) (*StreamPlayer, error) {
	dir, err := os.MkdirTemp("", "redram-stream-*")
	if err != nil {
		return nil, errors.Wrap(err, "streamplayer: creating scratch dir")
	}

	sp := &StreamPlayer{
		enginePath:     enginePath,
		discURI:        discURI,
		socketDir:      dir,
		socketPath:     filepath.Join(dir, "engine.sock"),
		startupTimeout: startupTimeout,
		currentIndex:   -1,
		stopMonitor:    make(chan struct{}),
	}
	sp.chapterStart, sp.totalDuration = cumulativeStarts(trackDurations)
	sp.trackCount = len(trackDurations)

	if err := sp.launchEngine(); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	go sp.monitorLoop()
	return sp, nil
}

func cumulativeStarts(durations []time.Duration) ([]float64, float64) {
	starts := make([]float64, len(durations))
	var total float64
	for i, d := range durations {
		starts[i] = total
		total += d.Seconds()
	}
	return starts, total
}

// launchEngine starts the engine process and waits for its IPC socket to
// appear, up to a short bound.
func (sp *StreamPlayer) launchEngine() error {
	args := []string{
		"--idle=yes",
		"--no-video",
		"--no-resume-playback",
		"--gapless-audio=yes",
		"--audio-normalize-downmix=no",
		"--volume=100",
		"--volume-max=100",
		"--audio-buffer=0.2",
		"--input-ipc-server=" + sp.socketPath,
	}
	cmd := exec.Command(sp.enginePath, args...)
	if err := cmd.Start(); err != nil {
		return errors.Wrap(ErrEngineUnavailable, err.Error())
	}
	sp.cmd = cmd

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(sp.socketPath); err == nil {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	return errors.Wrap(ErrEngineUnavailable, "ipc socket never appeared")
}

// monitorLoop implements the two-phase poll: startup wait, then end
// detection. It never writes audio; it only reads engine properties.
func (sp *StreamPlayer) monitorLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sp.stopMonitor:
			return
		case <-ticker.C:
		}

		sp.mu.Lock()
		loaded := sp.discLoaded
		phase := phaseTracking
		if sp.startupPhase {
			phase = phaseStartup
		}
		idx := sp.currentIndex
		timeoutAt := sp.startedAt.Add(sp.startupTimeout)
		sp.mu.Unlock()
		if !loaded || idx < 0 {
			continue
		}

		pos, err := sp.getFloatProperty("time-pos")
		if err != nil {
			logging.L().Warn().Err(err).Msg("streamplayer: monitor poll failed")
			continue
		}
		chapter, err := sp.getFloatProperty("chapter")
		if err != nil {
			continue
		}
		eof, err := sp.getBoolProperty("eof-reached")
		if err != nil {
			continue
		}

		sp.mu.Lock()
		sp.lastAbsoluteTime = pos
		sp.lastChapter = int(chapter)
		sp.lastEOF = eof

		switch phase {
		case phaseStartup:
			if pos-sp.chapterStart[idx] > startupThreshold || time.Now().After(timeoutAt) {
				sp.startupPhase = false
			}
		case phaseTracking:
			if sp.lastChapter != idx {
				newIdx := sp.lastChapter
				sp.currentIndex = newIdx
				sp.mu.Unlock()
				go sp.emit(transport.EndOfTrackEvent{})
				continue
			}
			if eof && idx == sp.trackCount-1 {
				sp.state = transport.Stopped
				sp.mu.Unlock()
				go sp.emit(transport.EndOfTrackEvent{})
				continue
			}
		}
		sp.mu.Unlock()
	}
}

func (sp *StreamPlayer) emit(e transport.EndOfTrackEvent) {
	sp.subsMu.Lock()
	subs := append([]func(transport.EndOfTrackEvent){}, sp.subs...)
	sp.subsMu.Unlock()
	for _, fn := range subs {
		fn(e)
	}
}

// OnTrackEnd registers a subscriber invoked from the callback goroutine
// spawned by monitorLoop, never from the monitor loop itself.
func (sp *StreamPlayer) OnTrackEnd(fn func(transport.EndOfTrackEvent)) {
	sp.subsMu.Lock()
	defer sp.subsMu.Unlock()
	sp.subs = append(sp.subs, fn)
}

// NavigateTo loads the disc URI into the engine once, then sets the
// chapter property to index. Subsequent calls only change chapters.
func (sp *StreamPlayer) NavigateTo(index int, autoPlay bool) error {
	sp.mu.Lock()
	if index < 0 || index >= sp.trackCount {
		sp.mu.Unlock()
		return ErrIndexOutOfRange
	}
	needsLoad := !sp.discLoaded
	sp.mu.Unlock()

	if needsLoad {
		if err := sp.loadfile(sp.discURI); err != nil {
			return err
		}
	}
	if err := sp.setProperty("chapter", index); err != nil {
		return err
	}
	if err := sp.setProperty("pause", !autoPlay); err != nil {
		return err
	}

	sp.mu.Lock()
	sp.discLoaded = true
	sp.currentIndex = index
	sp.startupPhase = true
	sp.startedAt = time.Now()
	if autoPlay {
		sp.state = transport.Playing
	} else {
		sp.state = transport.Stopped
	}
	sp.mu.Unlock()
	return nil
}

// Play resumes from Paused, restarts the bound track from 0 if Stopped,
// and no-ops if already Playing.
func (sp *StreamPlayer) Play() error {
	sp.mu.Lock()
	state := sp.state
	idx := sp.currentIndex
	sp.mu.Unlock()

	switch state {
	case transport.Playing:
		return nil
	case transport.Paused:
		if err := sp.setProperty("pause", false); err != nil {
			return err
		}
		sp.mu.Lock()
		sp.state = transport.Playing
		sp.mu.Unlock()
		return nil
	default:
		if idx < 0 {
			return ErrNoDisc
		}
		sp.mu.Lock()
		start := sp.chapterStart[idx]
		sp.startupPhase = true
		sp.startedAt = time.Now()
		sp.mu.Unlock()
		if err := sp.setProperty("time-pos", start); err != nil {
			return err
		}
		if err := sp.setProperty("pause", false); err != nil {
			return err
		}
		sp.mu.Lock()
		sp.state = transport.Playing
		sp.mu.Unlock()
		return nil
	}
}

// Pause transitions Playing->Paused, preserving position.
func (sp *StreamPlayer) Pause() error {
	sp.mu.Lock()
	playing := sp.state == transport.Playing
	sp.mu.Unlock()
	if !playing {
		return nil
	}
	if err := sp.setProperty("pause", true); err != nil {
		return err
	}
	sp.mu.Lock()
	sp.state = transport.Paused
	sp.mu.Unlock()
	return nil
}

// Stop transitions to Stopped and resets the playhead to the chapter start.
func (sp *StreamPlayer) Stop() error {
	sp.mu.Lock()
	idx := sp.currentIndex
	sp.mu.Unlock()

	if err := sp.setProperty("pause", true); err != nil {
		return err
	}
	if idx >= 0 {
		sp.mu.Lock()
		start := sp.chapterStart[idx]
		sp.mu.Unlock()
		if err := sp.setProperty("time-pos", start); err != nil {
			return err
		}
	}
	sp.mu.Lock()
	sp.state = transport.Stopped
	sp.mu.Unlock()
	return nil
}

// Seek sets the engine's absolute time to chapter_start[idx] + seconds.
func (sp *StreamPlayer) Seek(seconds float64) error {
	sp.mu.Lock()
	idx := sp.currentIndex
	sp.mu.Unlock()
	if idx < 0 {
		return ErrNoDisc
	}

	duration := sp.GetDuration().Seconds()
	if seconds < 0 || seconds > duration {
		logging.L().Warn().Float64("seconds", seconds).Float64("duration", duration).
			Msg("streamplayer: seek out of range, ignoring")
		return nil
	}

	sp.mu.Lock()
	abs := sp.chapterStart[idx] + seconds
	sp.mu.Unlock()
	return sp.setProperty("time-pos", abs)
}

// PrepareNext is a no-op for the streaming backend: the engine already
// has every chapter of the loaded disc URI available.
func (sp *StreamPlayer) PrepareNext(index int) {}

// GetPosition returns the cached intra-track position, clamped to >= 0
// and reported as exactly 0 during the startup phase.
func (sp *StreamPlayer) GetPosition() time.Duration {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.startupPhase || sp.currentIndex < 0 {
		return 0
	}
	pos := sp.lastAbsoluteTime - sp.chapterStart[sp.currentIndex]
	if pos < 0 {
		pos = 0
	}
	return time.Duration(pos * float64(time.Second))
}

// GetDuration returns the bound chapter's length.
func (sp *StreamPlayer) GetDuration() time.Duration {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.currentIndex < 0 {
		return 0
	}
	var end float64
	if sp.currentIndex+1 < len(sp.chapterStart) {
		end = sp.chapterStart[sp.currentIndex+1]
	} else {
		end = sp.totalDuration
	}
	return time.Duration((end - sp.chapterStart[sp.currentIndex]) * float64(time.Second))
}

// GetState reports the player state.
func (sp *StreamPlayer) GetState() transport.State {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.state
}

// GetCurrentTrackIndex reports the bound chapter's 0-based index.
func (sp *StreamPlayer) GetCurrentTrackIndex() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.currentIndex
}

// GetTrackCount reports the disc's track count.
func (sp *StreamPlayer) GetTrackCount() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.trackCount
}

// Cleanup signals the monitor goroutine to stop, sends a quit command
// over the open connection (if any), waits up to 300ms for the engine
// process to exit before killing it, and removes the socket's scratch
// directory. It does not wait for the monitor goroutine to return. Safe
// to call more than once.
func (sp *StreamPlayer) Cleanup() error {
	sp.mu.Lock()
	if sp.closed {
		sp.mu.Unlock()
		return nil
	}
	sp.closed = true
	sp.mu.Unlock()

	close(sp.stopMonitor)

	sp.connMu.Lock()
	if sp.conn != nil {
		_, _ = sendOn(sp.conn, []interface{}{"quit"})
		sp.conn.Close()
		sp.conn = nil
	}
	sp.connMu.Unlock()

	if sp.cmd != nil && sp.cmd.Process != nil {
		done := make(chan error, 1)
		go func() { done <- sp.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(300 * time.Millisecond):
			_ = sp.cmd.Process.Kill()
		}
	}

	return os.RemoveAll(sp.socketDir)
}
