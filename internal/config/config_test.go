package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, "stopsync", cfg.QueuePrefix)
	assert.Equal(t, "ttc", cfg.NextBusAgency)
	assert.Equal(t, 656, cfg.MaxPayload)
	assert.Equal(t, LogFormatConsole, cfg.LogFormat)
	assert.False(t, cfg.Debug)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(map[string]string{
		"STOPSYNC_REDIS_ADDRESS":  "redis:6380",
		"STOPSYNC_REDIS_PASSWORD": "hunter2",
		"STOPSYNC_REDIS_DATABASE": "3",
		"STOPSYNC_STOMP_ADDRESS":  "activemq:61613",
		"STOPSYNC_STOMP_USERNAME": "watch",
		"STOPSYNC_STOMP_PASSWORD": "secret",
		"STOPSYNC_QUEUE_PREFIX":   "pebble",
		"STOPSYNC_NEXTBUS_AGENCY": "sf-muni",
		"STOPSYNC_MAX_PAYLOAD":    "2048",
		"STOPSYNC_LOG_FORMAT":     "JSON",
		"STOPSYNC_DEBUG":          "YES",
	})
	require.NoError(t, err)

	assert.Equal(t, "redis:6380", cfg.Redis().Address)
	assert.Equal(t, "hunter2", cfg.Redis().Password)
	assert.Equal(t, 3, cfg.Redis().Database)
	assert.Equal(t, "activemq:61613", cfg.Stomp().Address)
	assert.Equal(t, "watch", cfg.Stomp().Username)
	assert.Equal(t, "secret", cfg.Stomp().Password)
	assert.Equal(t, "pebble", cfg.QueuePrefix)
	assert.Equal(t, "sf-muni", cfg.NextBusAgency)
	assert.Equal(t, 2048, cfg.MaxPayload)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.True(t, cfg.Debug)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"redis database", map[string]string{"STOPSYNC_REDIS_DATABASE": "zero"}},
		{"max payload", map[string]string{"STOPSYNC_MAX_PAYLOAD": "big"}},
		{"non-positive max payload", map[string]string{"STOPSYNC_MAX_PAYLOAD": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(tt.env)
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("STOPSYNC_QUEUE_PREFIX", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.QueuePrefix)
}

func TestSetupLogging(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	var buf bytes.Buffer
	logger := SetupLogging(&buf, LogFormatJSON, false)
	logger.Debug().Msg("hidden")
	logger.Info().Str("stop", "5278").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "5278", entry["stop"])
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())

	buf.Reset()
	logger = SetupLogging(&buf, LogFormatConsole, true)
	logger.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}
