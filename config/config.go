// Package config assembles the client configuration from defaults, an
// optional TOML file and the environment (a .env file is loaded first when
// present). Command line flags are applied on top by streamclient.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/rebeljah/gamestream/handshake"
	"github.com/rebeljah/gamestream/rtsp"
	"github.com/rebeljah/gamestream/sdp"
)

const (
	EnvHost            = "GAMESTREAM_HOST"
	EnvPort            = "GAMESTREAM_PORT"
	EnvClientVersion   = "GAMESTREAM_CLIENT_VERSION"
	EnvTimeout         = "GAMESTREAM_TIMEOUT"
	EnvMaxResponseSize = "GAMESTREAM_MAX_RESPONSE_SIZE"
	EnvLogLevel        = "GAMESTREAM_LOG_LEVEL"
	EnvLogFile         = "GAMESTREAM_LOG_FILE"
	EnvWidth           = "GAMESTREAM_WIDTH"
	EnvHeight          = "GAMESTREAM_HEIGHT"
	EnvFPS             = "GAMESTREAM_FPS"
	EnvBitrate         = "GAMESTREAM_BITRATE"
	EnvPacketSize      = "GAMESTREAM_PACKET_SIZE"

	minResponseSize = 64
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Host            string
	Port            int
	ClientVersion   string
	Timeout         time.Duration
	MaxResponseSize int
	LogLevel        string
	LogFile         string
	Stream          sdp.StreamConfig
}

func Default() Config {
	return Config{
		Port:            rtsp.DefaultPort,
		ClientVersion:   handshake.DefaultClientVersion,
		MaxResponseSize: rtsp.DefaultMaxResponseSize,
		LogLevel:        "info",
		Stream:          sdp.DefaultStreamConfig(),
	}
}

type streamFile struct {
	Width      int `toml:"width"`
	Height     int `toml:"height"`
	FPS        int `toml:"fps"`
	Bitrate    int `toml:"bitrate"`
	PacketSize int `toml:"packet_size"`
}

type fileConfig struct {
	Host            string     `toml:"host"`
	Port            int        `toml:"port"`
	ClientVersion   string     `toml:"client_version"`
	Timeout         string     `toml:"timeout"`
	MaxResponseSize int        `toml:"max_response_size"`
	LogLevel        string     `toml:"log_level"`
	LogFile         string     `toml:"log_file"`
	Stream          streamFile `toml:"stream"`
}

// Load returns the defaults overlaid with the TOML file at path (skipped
// when path is empty) and then with GAMESTREAM_* variables. A missing .env
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}

	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}

	if meta.IsDefined("client_version") {
		cfg.ClientVersion = strings.TrimSpace(raw.ClientVersion)
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	if meta.IsDefined("max_response_size") {
		cfg.MaxResponseSize = raw.MaxResponseSize
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}

	if meta.IsDefined("stream", "width") {
		cfg.Stream.Width = raw.Stream.Width
	}

	if meta.IsDefined("stream", "height") {
		cfg.Stream.Height = raw.Stream.Height
	}

	if meta.IsDefined("stream", "fps") {
		cfg.Stream.FPS = raw.Stream.FPS
	}

	if meta.IsDefined("stream", "bitrate") {
		cfg.Stream.Bitrate = raw.Stream.Bitrate
	}

	if meta.IsDefined("stream", "packet_size") {
		cfg.Stream.PacketSize = raw.Stream.PacketSize
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v, ok := lookup(EnvHost); ok {
		cfg.Host = v
	}

	if v, ok := lookup(EnvClientVersion); ok {
		cfg.ClientVersion = v
	}

	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = v
	}

	if v, ok := lookup(EnvLogFile); ok {
		cfg.LogFile = v
	}

	if v, ok := lookup(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvPort, &cfg.Port},
		{EnvMaxResponseSize, &cfg.MaxResponseSize},
		{EnvWidth, &cfg.Stream.Width},
		{EnvHeight, &cfg.Stream.Height},
		{EnvFPS, &cfg.Stream.FPS},
		{EnvBitrate, &cfg.Stream.Bitrate},
		{EnvPacketSize, &cfg.Stream.PacketSize},
	}

	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", e.name, err)
		}
		*e.dst = n
	}

	return nil
}

func lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	}

	if c.MaxResponseSize < minResponseSize {
		return fmt.Errorf("%w: max response size %d is below %d", ErrInvalidConfig, c.MaxResponseSize, minResponseSize)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}

	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Handshake converts c into the handshake settings.
func (c Config) Handshake() handshake.Config {
	hc := handshake.DefaultConfig()
	hc.Port = c.Port
	hc.ClientVersion = c.ClientVersion
	hc.Timeout = c.Timeout
	hc.MaxResponseSize = c.MaxResponseSize
	return hc
}
