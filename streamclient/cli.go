package streamclient

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/rebeljah/gamestream/config"
)

// NewCommand returns the root command. Flags override values from the config
// file and the environment.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  appName,
		Usage: "negotiate an audio/video stream with a GameStream host",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "config",
				Aliases:   []string{"c"},
				Usage:     "path of a TOML config file",
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:    "host",
				Aliases: []string{"H"},
				Usage:   "address of the GameStream host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "RTSP port of the host",
			},
			&cli.StringFlag{
				Name:  "client-version",
				Usage: "value sent as X-GS-ClientVersion",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "bound for each RTSP transaction (0 waits for the host)",
			},
			&cli.IntFlag{
				Name:  "max-response-size",
				Usage: "largest RTSP response accepted, in bytes",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "video width in pixels",
			},
			&cli.IntFlag{
				Name:  "height",
				Usage: "video height in pixels",
			},
			&cli.IntFlag{
				Name:  "fps",
				Usage: "maximum frames per second",
			},
			&cli.IntFlag{
				Name:  "bitrate",
				Usage: "maximum video bitrate in kbps",
			},
			&cli.IntFlag{
				Name:  "packet-size",
				Usage: "maximum video packet size in bytes",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, error or disabled",
			},
			&cli.StringFlag{
				Name:      "log-file",
				Usage:     "rotating log file, in addition to stderr",
				TakesFile: true,
			},
		},
		Action: runCommand,
	}
}

func runCommand(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	applyFlags(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closer, err := NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	defer closer.Close()

	return Run(ctx, cfg, log)
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	strs := []struct {
		name string
		dst  *string
	}{
		{"host", &cfg.Host},
		{"client-version", &cfg.ClientVersion},
		{"log-level", &cfg.LogLevel},
		{"log-file", &cfg.LogFile},
	}
	for _, f := range strs {
		if cmd.IsSet(f.name) {
			*f.dst = cmd.String(f.name)
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"port", &cfg.Port},
		{"max-response-size", &cfg.MaxResponseSize},
		{"width", &cfg.Stream.Width},
		{"height", &cfg.Stream.Height},
		{"fps", &cfg.Stream.FPS},
		{"bitrate", &cfg.Stream.Bitrate},
		{"packet-size", &cfg.Stream.PacketSize},
	}
	for _, f := range ints {
		if cmd.IsSet(f.name) {
			*f.dst = int(cmd.Int(f.name))
		}
	}

	if cmd.IsSet("timeout") {
		cfg.Timeout = cmd.Duration("timeout")
	}
}
