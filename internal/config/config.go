// Package config resolves the typed configuration record the playback
// core consumes. The core itself never reads the config file: an external
// loader merges JSON overrides on top of defaults and hands the core the
// resolved record by value, per the "no module-level device detection
// with side effects" redesign the original carried.
package config

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/thestreamdigger/redram/internal/logging"
)

// AutoplayRule is either a single bool applying to every extraction level,
// or a map from level-as-string ("0".."3") to bool. The config file's
// JSON shape for autoplay_on_load may be either; it is normalized here so
// the rest of the core only ever calls For.
type AutoplayRule struct {
	uniform   bool
	perLevel  map[string]bool
	isPerLevel bool
}

// For reports the autoplay decision for a given extraction level.
func (r AutoplayRule) For(level int) bool {
	if !r.isPerLevel {
		return r.uniform
	}
	v, ok := r.perLevel[levelKey(level)]
	if !ok {
		return false
	}
	return v
}

func levelKey(level int) string {
	return [...]string{"0", "1", "2", "3"}[level]
}

// UnmarshalJSON accepts either a bare bool or an object mapping
// level-as-string to bool.
func (r *AutoplayRule) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		r.uniform = b
		r.isPerLevel = false
		return nil
	}

	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Wrap(err, "config: autoplay_on_load must be a bool or an object of level to bool")
	}
	r.perLevel = m
	r.isPerLevel = true
	return nil
}

// MarshalJSON round-trips whichever shape was parsed.
func (r AutoplayRule) MarshalJSON() ([]byte, error) {
	if r.isPerLevel {
		return json.Marshal(r.perLevel)
	}
	return json.Marshal(r.uniform)
}

// Config is the typed record the playback core reads but never parses
// itself.
type Config struct {
	AudioDevice string `json:"alsa_device"`
	CDDevice    string `json:"cd_device"`
	RAMPath     string `json:"ram_path" default:"/tmp/redram"`

	AutoplayOnLoad AutoplayRule `json:"autoplay_on_load"`

	AudioBufferFrames      int `json:"audio_buffer_frames" default:"4096" validate:"gt=0"`
	StreamStartupTimeoutSec int `json:"stream_startup_timeout_sec" default:"20" validate:"gt=0"`
	PreloadAhead           int `json:"preload_ahead" default:"1" validate:"gte=0"`

	Logging logging.Config `json:"logging"`
}

var validate = validator.New()

// Default returns a Config populated purely from struct defaults, with no
// file override applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "config: applying defaults")
	}
	return cfg, nil
}

// Load reads path (a JSON map with lowercase keys) and merges it on top of
// the struct defaults. Unknown keys are ignored. A missing file is not an
// error: Load returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "config: validation failed")
	}
	return cfg, nil
}
