package mcub

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thestreamdigger/redram/internal/sequencer"
)

func TestRepeatFlagsMapping(t *testing.T) {
	repeat, single := RepeatFlags(sequencer.RepeatAll)
	assert.Equal(t, "1", repeat)
	assert.Equal(t, "0", single)

	repeat, single = RepeatFlags(sequencer.RepeatTrack)
	assert.Equal(t, "1", repeat)
	assert.Equal(t, "1", single)

	repeat, single = RepeatFlags(sequencer.RepeatOff)
	assert.Equal(t, "0", repeat)
	assert.Equal(t, "0", single)
}

func TestFormatDurationSwitchesToHours(t *testing.T) {
	assert.Equal(t, "03:05", formatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "01:00:00", formatDuration(time.Hour))
}

func TestEmitterSendWritesLineDelimitedEnvelope(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf, 0)
	status := BuildStatus(0, 10*time.Second, 60*time.Second, sequencer.RepeatAll, true, TrackInfo{TrackNumber: 2})

	require.NoError(t, e.Send(status))
	line := strings.TrimRight(buf.String(), "\n")

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(line), &env))
	assert.Equal(t, "m", env.Type)

	var got Status
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "00:10", got.Elapsed)
	assert.Equal(t, "1", got.Repeat)
	assert.Equal(t, "0", got.Single)
	assert.Equal(t, "1", got.Random)
}

func TestReaderParsesCommandWithParameters(t *testing.T) {
	line := `{"t":"cmd","c":{"action":"play","parameters":{"track":3}}}` + "\n"
	r := NewReader(strings.NewReader(line))

	kind, cmd, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, InboundCommand, kind)
	assert.Equal(t, "play", cmd.Action)
	assert.JSONEq(t, `{"track":3}`, string(cmd.Parameters))
}

func TestReaderParsesLegacyCommandWithoutParameters(t *testing.T) {
	line := `{"t":"cmd","c":{"action":"stop"}}` + "\n"
	r := NewReader(strings.NewReader(line))

	kind, cmd, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, InboundCommand, kind)
	assert.Equal(t, "stop", cmd.Action)
	assert.Nil(t, cmd.Parameters)
}

func TestReaderParsesIdentify(t *testing.T) {
	line := `{"t":"id"}` + "\n"
	r := NewReader(strings.NewReader(line))

	kind, _, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, InboundIdentify, kind)
}
