// Package mcub implements the MCUB v2.0.0 display protocol: line-delimited
// JSON over an injected io.ReadWriter (the serial port itself is an
// external concern per spec.md §1). It covers the envelope, the inbound
// "id"/"cmd" messages, and the outbound "m" status emitted at ~500ms
// cadence.
package mcub

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thestreamdigger/redram/internal/sequencer"
	"github.com/thestreamdigger/redram/internal/transport"
)

// Envelope is the MCUB wire struct: {"t": <type>, "d": <data>} for
// outbound messages, or {"t": <type>, "c": <command>} for inbound ones.
type Envelope struct {
	Type    string          `json:"t"`
	Data    json.RawMessage `json:"d,omitempty"`
	Command json.RawMessage `json:"c,omitempty"`
}

// Command is the {"action": ..., "parameters": {...}} shape of an
// inbound "cmd" message. The legacy shape omits parameters entirely;
// both unmarshal into this struct since Parameters defaults to nil.
type Command struct {
	Action     string          `json:"action"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// PlayState is the MCUB "state" flag: Playing, paused (U)navailable for
// pressed-pause, or Stopped.
type PlayState string

const (
	StatePlaying PlayState = "P"
	StatePaused  PlayState = "U"
	StateStopped PlayState = "S"
)

func stateFlag(s transport.State) PlayState {
	switch s {
	case transport.Playing:
		return StatePlaying
	case transport.Paused:
		return StatePaused
	default:
		return StateStopped
	}
}

// Status is the payload of an outbound "m" message.
type Status struct {
	State           PlayState `json:"state"`
	Elapsed         string    `json:"elapsed"`
	Total           string    `json:"total"`
	TrackNumber     int       `json:"track_number"`
	SongID          int       `json:"song_id"`
	PlaylistPos     int       `json:"playlist_position"`
	PlaylistLength  int       `json:"playlist_length"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	Album           string    `json:"album"`
	Repeat          string    `json:"repeat"`
	Single          string    `json:"single"`
	Random          string    `json:"random"`
}

// RepeatFlags maps the core's repeat mode onto MCUB's two flags
// (spec.md §6): OFF -> (0,0), TRACK -> (1,1), ALL -> (1,0).
func RepeatFlags(mode sequencer.RepeatMode) (repeat, single string) {
	switch mode {
	case sequencer.RepeatTrack:
		return "1", "1"
	case sequencer.RepeatAll:
		return "1", "0"
	default:
		return "0", "0"
	}
}

func randomFlag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

// formatDuration renders d as MM:SS, or HH:MM:SS once it reaches an hour,
// matching spec.md §6's "MM:SS or HH:MM:SS" wire format.
func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// TrackInfo carries the fields of a Status that the caller, not this
// package, owns: title/artist/album and whatever numbering scheme the
// rest of the system uses for song_id/playlist position.
type TrackInfo struct {
	TrackNumber    int
	SongID         int
	PlaylistPos    int
	PlaylistLength int
	Title          string
	Artist         string
	Album          string
}

// BuildStatus assembles an outbound "m" payload from a point-in-time
// read of the playback state.
func BuildStatus(state transport.State, elapsed, total time.Duration, repeatMode sequencer.RepeatMode, shuffleOn bool, info TrackInfo) Status {
	repeat, single := RepeatFlags(repeatMode)
	return Status{
		State:          stateFlag(state),
		Elapsed:        formatDuration(elapsed),
		Total:          formatDuration(total),
		TrackNumber:    info.TrackNumber,
		SongID:         info.SongID,
		PlaylistPos:    info.PlaylistPos,
		PlaylistLength: info.PlaylistLength,
		Title:          info.Title,
		Artist:         info.Artist,
		Album:          info.Album,
		Repeat:         repeat,
		Single:         single,
		Random:         randomFlag(shuffleOn),
	}
}

// Emitter writes "m" status envelopes to an injected io.Writer at a fixed
// cadence. Opening/baud-rate configuration of the underlying serial port
// is the caller's concern; Emitter only knows how to frame JSON lines.
type Emitter struct {
	w        io.Writer
	interval time.Duration
}

// NewEmitter wraps w (typically a serial port) for ~500ms-cadence status
// writes, per spec.md §6.
func NewEmitter(w io.Writer, interval time.Duration) *Emitter {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Emitter{w: w, interval: interval}
}

// Send writes one "m" envelope as a single JSON line.
func (e *Emitter) Send(status Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return errors.Wrap(err, "mcub: encoding status")
	}
	env := Envelope{Type: "m", Data: data}
	line, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "mcub: encoding envelope")
	}
	_, err = e.w.Write(append(line, '\n'))
	return err
}

// Run calls statusFn every tick and sends its result until stop is
// closed. statusFn must not block.
func (e *Emitter) Run(stop <-chan struct{}, statusFn func() Status) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := e.Send(statusFn()); err != nil {
				return
			}
		}
	}
}

// Reader parses inbound MCUB lines ("id" handshakes and "cmd" commands)
// from an injected io.Reader.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps r for line-delimited envelope parsing.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// InboundKind distinguishes the two inbound envelope types this package
// consumes.
type InboundKind int

const (
	InboundUnknown InboundKind = iota
	InboundIdentify
	InboundCommand
)

// Next reads and parses the next line. io.EOF is returned once the
// underlying reader is exhausted.
func (r *Reader) Next() (InboundKind, Command, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return InboundUnknown, Command{}, errors.Wrap(err, "mcub: reading line")
		}
		return InboundUnknown, Command{}, io.EOF
	}

	var env Envelope
	if err := json.Unmarshal(r.scanner.Bytes(), &env); err != nil {
		return InboundUnknown, Command{}, errors.Wrap(err, "mcub: decoding envelope")
	}

	switch env.Type {
	case "id":
		return InboundIdentify, Command{}, nil
	case "cmd":
		cmd, err := parseCommand(env.Command)
		return InboundCommand, cmd, err
	default:
		return InboundUnknown, Command{}, nil
	}
}

// parseCommand accepts both the current {"action":...,"parameters":{...}}
// shape and the legacy shape that omits parameters entirely.
func parseCommand(raw json.RawMessage) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return Command{}, errors.Wrap(err, "mcub: decoding cmd command")
	}
	return cmd, nil
}
