package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitParsesKnownLevel(t *testing.T) {
	logger := Init(Config{Level: "debug", Pretty: false})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestInitFallsBackToInfoOnUnknownLevel(t *testing.T) {
	logger := Init(Config{Level: "not-a-level"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestLReturnsTheLastInitializedLogger(t *testing.T) {
	Init(Config{Level: "warn"})
	assert.Equal(t, zerolog.WarnLevel, L().GetLevel())
}
