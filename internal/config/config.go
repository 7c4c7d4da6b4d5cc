// Package config reads stopsync settings from STOPSYNC_* environment
// variables. Command-line flags override what is loaded here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mobil-koeln/stopsync/internal/channel"
	"github.com/mobil-koeln/stopsync/internal/message"
	"github.com/mobil-koeln/stopsync/internal/nextbus"
)

const (
	defaultRedisAddress = "localhost:6379"
	defaultStompAddress = "localhost:61613"
)

// Log formats
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds the settings shared by all commands
type Config struct {
	RedisAddress  string
	RedisPassword string
	RedisDatabase int

	StompAddress  string
	StompUsername string
	StompPassword string

	QueuePrefix   string
	NextBusAgency string
	MaxPayload    int

	LogFormat string
	Debug     bool
}

// Default returns the configuration used when no variables are set
func Default() Config {
	return Config{
		RedisAddress:  defaultRedisAddress,
		StompAddress:  defaultStompAddress,
		QueuePrefix:   channel.DefaultQueuePrefix,
		NextBusAgency: nextbus.DefaultAgency,
		MaxPayload:    message.DefaultMaxPayload,
		LogFormat:     LogFormatConsole,
	}
}

// GetEnvironmentVariables returns the process environment as a map
func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)
		if len(pair) == 2 {
			environmentVariables[pair[0]] = pair[1]
		}
	}

	return environmentVariables
}

// Load reads the configuration from the process environment
func Load() (Config, error) {
	return FromEnv(GetEnvironmentVariables())
}

// FromEnv reads the configuration from env, falling back to Default for
// anything unset
func FromEnv(env map[string]string) (Config, error) {
	cfg := Default()

	if env["STOPSYNC_REDIS_ADDRESS"] != "" {
		cfg.RedisAddress = env["STOPSYNC_REDIS_ADDRESS"]
	}
	if env["STOPSYNC_REDIS_PASSWORD"] != "" {
		cfg.RedisPassword = env["STOPSYNC_REDIS_PASSWORD"]
	}
	if env["STOPSYNC_REDIS_DATABASE"] != "" {
		n, err := strconv.Atoi(env["STOPSYNC_REDIS_DATABASE"])
		if err != nil {
			return Config{}, fmt.Errorf("STOPSYNC_REDIS_DATABASE: %w", err)
		}
		cfg.RedisDatabase = n
	}

	if env["STOPSYNC_STOMP_ADDRESS"] != "" {
		cfg.StompAddress = env["STOPSYNC_STOMP_ADDRESS"]
	}
	if env["STOPSYNC_STOMP_USERNAME"] != "" {
		cfg.StompUsername = env["STOPSYNC_STOMP_USERNAME"]
	}
	if env["STOPSYNC_STOMP_PASSWORD"] != "" {
		cfg.StompPassword = env["STOPSYNC_STOMP_PASSWORD"]
	}

	if env["STOPSYNC_QUEUE_PREFIX"] != "" {
		cfg.QueuePrefix = env["STOPSYNC_QUEUE_PREFIX"]
	}
	if env["STOPSYNC_NEXTBUS_AGENCY"] != "" {
		cfg.NextBusAgency = env["STOPSYNC_NEXTBUS_AGENCY"]
	}
	if env["STOPSYNC_MAX_PAYLOAD"] != "" {
		n, err := strconv.Atoi(env["STOPSYNC_MAX_PAYLOAD"])
		if err != nil {
			return Config{}, fmt.Errorf("STOPSYNC_MAX_PAYLOAD: %w", err)
		}
		if n <= 0 {
			return Config{}, fmt.Errorf("STOPSYNC_MAX_PAYLOAD: must be positive, got %d", n)
		}
		cfg.MaxPayload = n
	}

	if env["STOPSYNC_LOG_FORMAT"] == "JSON" {
		cfg.LogFormat = LogFormatJSON
	}
	if env["STOPSYNC_DEBUG"] == "YES" {
		cfg.Debug = true
	}

	return cfg, nil
}

// Redis returns the Redis connection settings
func (c Config) Redis() channel.RedisConfig {
	return channel.RedisConfig{
		Address:  c.RedisAddress,
		Password: c.RedisPassword,
		Database: c.RedisDatabase,
	}
}

// Stomp returns the STOMP connection settings
func (c Config) Stomp() channel.StompConfig {
	return channel.StompConfig{
		Address:  c.StompAddress,
		Username: c.StompUsername,
		Password: c.StompPassword,
	}
}
