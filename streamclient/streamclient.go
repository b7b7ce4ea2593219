package streamclient

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/oklog/run"
	"github.com/rs/zerolog"

	"github.com/rebeljah/gamestream/config"
	"github.com/rebeljah/gamestream/handshake"
)

// Run performs one handshake with the host in cfg. SIGINT or SIGTERM abort
// the transaction in flight. The first actor to return decides the result.
func Run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	var rg run.Group

	// os signal handler to gracefully trigger rungroup interrupt on SIGINT or SIGTERM
	signalTrap := make(chan os.Signal, 1)
	signal.Notify(signalTrap, syscall.SIGINT, syscall.SIGTERM)
	rg.Add(
		func() error {
			if sig, ok := <-signalTrap; ok {
				log.Warn().Str("signal", sig.String()).Msg("handshake interrupted")
				return errors.New(sig.String() + " signal")
			}

			return nil
		},
		func(error) {
			signal.Stop(signalTrap)
			close(signalTrap)
		},
	)

	// handshake
	hsCtx, cancel := context.WithCancel(ctx)
	hcfg := cfg.Handshake()
	hcfg.Log = log
	rg.Add(
		func() error {
			return handshake.Perform(hsCtx, cfg.Host, cfg.Stream, hcfg)
		},
		func(error) {
			cancel()
		},
	)

	err := rg.Run()
	if err != nil {
		log.Error().Err(err).Msg("stream session not started")
		return err
	}

	log.Info().Str("addr", cfg.Addr()).Msg("host is streaming")
	return nil
}
