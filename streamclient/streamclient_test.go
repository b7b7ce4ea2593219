package streamclient

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/rebeljah/gamestream/config"
	"github.com/rebeljah/gamestream/handshake"
	"github.com/rebeljah/gamestream/rtsp"
	"github.com/rebeljah/gamestream/rtsp/rtsptest"
)

func startHost(t *testing.T, describe rtsptest.Handler) (*rtsptest.Server, string, string) {
	t.Helper()

	ok := rtsptest.HandlerFunc(func(*rtsptest.Context) {})

	mux := rtsptest.NewServeMux()
	mux.Handle(rtsp.OPTIONS, ok)
	mux.Handle(rtsp.DESCRIBE, describe)
	mux.HandleTarget(rtsp.SETUP, handshake.TargetAudio, rtsptest.SetSession("ABC123"))
	mux.Handle(rtsp.SETUP, ok)
	mux.Handle(rtsp.ANNOUNCE, ok)
	mux.Handle(rtsp.PLAY, ok)

	srv, err := rtsptest.NewServer(mux)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	host, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)

	return srv, host, port
}

func TestCommand(t *testing.T) {
	srv, host, port := startHost(t, rtsptest.HandlerFunc(func(*rtsptest.Context) {}))

	err := NewCommand().Run(context.Background(), []string{
		appName,
		"--host", host,
		"--port", port,
		"--timeout", "5s",
		"--log-level", "disabled",
	})
	require.NoError(t, err)

	assert.Len(t, srv.Requests(), 7)
	assert.Equal(t, 1, srv.Calls(rtsp.ANNOUNCE, handshake.TargetVideo))
}

func TestCommand_hostRejects(t *testing.T) {
	srv, host, port := startHost(t, rtsptest.Status(rtsp.NotFound))

	err := NewCommand().Run(context.Background(), []string{
		appName,
		"--host", host,
		"--port", port,
		"--log-level", "disabled",
	})
	assert.ErrorIs(t, err, handshake.ErrHandshakeFailed)
	assert.Zero(t, srv.Calls(rtsp.SETUP, ""))
}

func TestCommand_invalidConfig(t *testing.T) {
	err := NewCommand().Run(context.Background(), []string{appName, "--log-level", "disabled"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestApplyFlags(t *testing.T) {
	assert := assert.New(t)

	var got config.Config
	cmd := NewCommand()
	cmd.Action = func(_ context.Context, cmd *cli.Command) error {
		got = config.Default()
		got.Host = "from-file"
		got.LogLevel = "warn"
		applyFlags(cmd, &got)
		return nil
	}

	err := cmd.Run(context.Background(), []string{
		appName,
		"-H", "10.0.0.5",
		"--port", "49010",
		"--client-version", "11",
		"--timeout", "1500ms",
		"--width", "1920",
		"--height", "1080",
		"--fps", "30",
	})
	require.NoError(t, err)

	assert.Equal("10.0.0.5", got.Host)
	assert.Equal(49010, got.Port)
	assert.Equal("11", got.ClientVersion)
	assert.Equal(1500*time.Millisecond, got.Timeout)
	assert.Equal(1920, got.Stream.Width)
	assert.Equal(1080, got.Stream.Height)
	assert.Equal(30, got.Stream.FPS)

	// flags that were not given leave the loaded values alone
	assert.Equal("warn", got.LogLevel)
	assert.Equal(10000, got.Stream.Bitrate)
	assert.Equal(1024, got.MaxResponseSize)
}

func TestRun_cancelled(t *testing.T) {
	_, host, port := startHost(t, rtsptest.HandlerFunc(func(*rtsptest.Context) {}))

	cfg := config.Default()
	cfg.Host = host
	cfg.Port, _ = strconv.Atoi(port)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, cfg, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLogger(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gamestream.log")

		log, closer, err := NewLogger("debug", path)
		require.NoError(t, err)

		log.Info().Str("step", "OPTIONS").Msg("sending RTSP request")
		require.NoError(t, closer.Close())

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(b), `"app":"gamestream"`)
		assert.Contains(t, string(b), `"step":"OPTIONS"`)
	})

	t.Run("level", func(t *testing.T) {
		log, closer, err := NewLogger("WARN", "")
		require.NoError(t, err)
		defer closer.Close()

		assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
	})

	t.Run("bad level", func(t *testing.T) {
		_, _, err := NewLogger("loud", "")
		assert.Error(t, err)
	})
}
