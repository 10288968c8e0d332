package streamplayer

import (
	"bufio"
	"encoding/json"
	"net"
	"time"

	"github.com/cockroachdb/errors"
)

// ipcTimeout bounds a single request/response round trip over the media
// engine's control socket.
const ipcTimeout = 2 * time.Second

// ipcResponse is the line-delimited JSON envelope the media engine emits.
// Event lines (unsolicited chapter/eof notifications) carry a non-empty
// Event and are skipped by sendOn, which only ever waits for the reply to
// the request it just wrote.
type ipcResponse struct {
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
	Event string          `json:"event,omitempty"`
}

// sendOn writes one command line to conn and waits for its matching
// reply, skipping any interleaved event lines.
func sendOn(conn net.Conn, cmd []interface{}) (json.RawMessage, error) {
	req := map[string]interface{}{"command": cmd}
	line, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "streamplayer: encoding ipc command")
	}

	_ = conn.SetDeadline(time.Now().Add(ipcTimeout))
	if _, err := conn.Write(append(line, '\n')); err != nil {
		return nil, errors.Wrap(err, "streamplayer: ipc write")
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}
		if resp.Event != "" {
			continue
		}
		if resp.Error != "" && resp.Error != "success" {
			return nil, errors.Newf("streamplayer: ipc error: %s", resp.Error)
		}
		return resp.Data, nil
	}
	if err := scanner.Err(); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errors.Wrap(ErrIPCTimeout, err.Error())
		}
		return nil, errors.Wrap(err, "streamplayer: ipc read")
	}
	return nil, ErrIPCTimeout
}

// send writes cmd over the persistent connection. If there is none, or
// the round trip on it fails, it dials a fresh connection and tries once
// more; a fresh connection that succeeds becomes the persistent one.
func (sp *StreamPlayer) send(cmd []interface{}) (json.RawMessage, error) {
	sp.connMu.Lock()
	defer sp.connMu.Unlock()

	if sp.conn != nil {
		if resp, err := sendOn(sp.conn, cmd); err == nil {
			return resp, nil
		}
		sp.conn.Close()
		sp.conn = nil
	}

	conn, err := net.Dial("unix", sp.socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "streamplayer: dialing media engine socket")
	}
	resp, err := sendOn(conn, cmd)
	if err != nil {
		conn.Close()
		return nil, err
	}
	sp.conn = conn
	return resp, nil
}

func (sp *StreamPlayer) setProperty(name string, value interface{}) error {
	_, err := sp.send([]interface{}{"set_property", name, value})
	return err
}

func (sp *StreamPlayer) getFloatProperty(name string) (float64, error) {
	data, err := sp.send([]interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, errors.Wrapf(err, "streamplayer: decoding property %q", name)
	}
	return v, nil
}

func (sp *StreamPlayer) getBoolProperty(name string) (bool, error) {
	data, err := sp.send([]interface{}{"get_property", name})
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return false, errors.Wrapf(err, "streamplayer: decoding property %q", name)
	}
	return v, nil
}

func (sp *StreamPlayer) loadfile(uri string) error {
	_, err := sp.send([]interface{}{"loadfile", uri})
	return err
}
