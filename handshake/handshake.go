// Package handshake moves a GameStream host from idle to streaming with the
// fixed RTSP exchange OPTIONS, DESCRIBE, SETUP audio, SETUP video, ANNOUNCE
// video, PLAY video, PLAY audio. Every step needs the previous one to
// succeed; the first failure ends the attempt.
package handshake

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rebeljah/gamestream/rtsp"
	"github.com/rebeljah/gamestream/sdp"
)

const (
	// DefaultClientVersion is the X-GS-ClientVersion of GFE 2.1.1.
	DefaultClientVersion = "10"

	TargetAudio = "streamid=audio"
	TargetVideo = "streamid=video"

	epoch = "Thu, 01 Jan 1970 00:00:00 GMT"

	// transportValue is sent as-is; the host picks its own transport
	// parameters.
	transportValue = " "
)

var (
	ErrHandshakeFailed = errors.New("RTSP handshake failed")
	ErrStatus          = errors.New("unexpected RTSP status")
	ErrMissingSession  = errors.New("response is missing the session attribute")
	ErrDescription     = errors.New("could not generate session description")
)

// StatusError reports a response whose status was not OK.
type StatusError struct {
	Step string
	Code rtsp.RTSPStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("RTSP %s request failed: %d", e.Step, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Transactor performs one request/response exchange. *rtsp.Transactor is
// the network implementation.
type Transactor interface {
	Transact(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error)
}

// DescribeFunc produces the ANNOUNCE body for a stream configuration and the
// remote host:port.
type DescribeFunc func(cfg sdp.StreamConfig, addr string) ([]byte, error)

type Config struct {
	Port          int
	ClientVersion string

	// Timeout and MaxResponseSize configure the default transactor.
	Timeout         time.Duration
	MaxResponseSize int

	// NewTransactor returns the transactor used for every step of an
	// attempt against addr. Defaults to an *rtsp.Transactor.
	NewTransactor func(addr string) Transactor
	// Describe defaults to sdp.Generate.
	Describe DescribeFunc

	Log zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		Port:            rtsp.DefaultPort,
		ClientVersion:   DefaultClientVersion,
		MaxResponseSize: rtsp.DefaultMaxResponseSize,
		Log:             zerolog.Nop(),
	}
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = rtsp.DefaultPort
	}

	if c.ClientVersion == "" {
		c.ClientVersion = DefaultClientVersion
	}

	if c.Describe == nil {
		c.Describe = sdp.Generate
	}

	if c.NewTransactor == nil {
		c.NewTransactor = func(addr string) Transactor {
			t := rtsp.NewTransactor(addr, c.Log)
			t.Timeout = c.Timeout
			if c.MaxResponseSize > 0 {
				t.MaxResponseSize = c.MaxResponseSize
			}
			return t
		}
	}

	return c
}

// attempt is everything one run of the sequence reads and writes.
type attempt struct {
	session    *Session
	stream     sdp.StreamConfig
	describe   DescribeFunc
	transactor Transactor
	log        zerolog.Logger
}

// Perform runs the whole handshake against host. It returns nil only when
// all seven steps answered OK; any other outcome is an error matching
// ErrHandshakeFailed, with the cause wrapped for logging. Cancelling ctx
// aborts the transaction in flight.
func Perform(ctx context.Context, host string, stream sdp.StreamConfig, cfg Config) error {
	cfg = cfg.withDefaults()

	session := NewSession(host, cfg.Port, cfg.ClientVersion)
	a := &attempt{
		session:    session,
		stream:     stream,
		describe:   cfg.Describe,
		transactor: cfg.NewTransactor(session.Addr),
		log:        cfg.Log.With().Str("addr", session.Addr).Logger(),
	}

	a.log.Info().Msg("starting RTSP handshake")

	for _, st := range steps {
		if err := a.run(ctx, st); err != nil {
			return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
		}
	}

	a.log.Info().Str("session", session.ID).Msg("RTSP handshake complete")
	return nil
}

func (a *attempt) run(ctx context.Context, st step) error {
	req, err := a.session.NewRequest(st.method, st.target(a.session))
	if err == nil && st.build != nil {
		err = st.build(a, req)
	}

	if err != nil {
		a.log.Error().Err(err).Str("step", st.name).Msg("could not build RTSP request")
		return fmt.Errorf("%s: %w", st.name, err)
	}

	log := a.log.With().Str("step", st.name).Int("seq", req.CSeq).Logger()
	log.Debug().Msg("sending RTSP request")

	resp, err := a.transactor.Transact(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("RTSP request failed")
		return fmt.Errorf("%s: %w", st.name, err)
	}

	if resp.StatusCode != rtsp.OK {
		log.Error().Int("status", int(resp.StatusCode)).Msg("RTSP request failed")
		return &StatusError{Step: st.name, Code: resp.StatusCode}
	}

	if st.check != nil {
		if err := st.check(a, resp); err != nil {
			log.Error().Err(err).Msg("RTSP response rejected")
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}

	return nil
}

type step struct {
	name   string
	method rtsp.RTSPMethod
	target func(*Session) string
	build  func(*attempt, *rtsp.Request) error
	check  func(*attempt, *rtsp.Response) error
}

func streamTarget(s *Session) string { return s.TargetURL }

func fixed(target string) func(*Session) string {
	return func(*Session) string { return target }
}

var steps = []step{
	{
		name:   "OPTIONS",
		method: rtsp.OPTIONS,
		target: streamTarget,
	},
	{
		name:   "DESCRIBE",
		method: rtsp.DESCRIBE,
		target: streamTarget,
		build:  buildDescribe,
	},
	{
		name:   "SETUP " + TargetAudio,
		method: rtsp.SETUP,
		target: fixed(TargetAudio),
		build:  buildSetup,
		check:  captureSession,
	},
	{
		name:   "SETUP " + TargetVideo,
		method: rtsp.SETUP,
		target: fixed(TargetVideo),
		build:  buildSetup,
	},
	{
		name:   "ANNOUNCE",
		method: rtsp.ANNOUNCE,
		target: fixed(TargetVideo),
		build:  buildAnnounce,
	},
	{
		name:   "PLAY " + TargetVideo,
		method: rtsp.PLAY,
		target: fixed(TargetVideo),
		build:  buildPlay,
	},
	{
		name:   "PLAY " + TargetAudio,
		method: rtsp.PLAY,
		target: fixed(TargetAudio),
		build:  buildPlay,
	},
}

func buildDescribe(_ *attempt, req *rtsp.Request) error {
	if err := req.AddOption(rtsp.HeaderNameAccept, sdp.MimeType); err != nil {
		return err
	}
	return req.AddOption(rtsp.HeaderNameIfModifiedSince, epoch)
}

// buildSetup only sends Session once one has been captured.
func buildSetup(a *attempt, req *rtsp.Request) error {
	if a.session.HasID() {
		if err := req.AddOption(rtsp.HeaderNameSession, a.session.ID); err != nil {
			return err
		}
	}

	if err := req.AddOption(rtsp.HeaderNameTransport, transportValue); err != nil {
		return err
	}
	return req.AddOption(rtsp.HeaderNameIfModifiedSince, epoch)
}

func captureSession(a *attempt, resp *rtsp.Response) error {
	id, ok := resp.Option(rtsp.HeaderNameSession)
	if !ok || id == "" {
		return ErrMissingSession
	}

	a.session.ID = id
	return nil
}

func buildAnnounce(a *attempt, req *rtsp.Request) error {
	if err := req.AddOption(rtsp.HeaderNameSession, a.session.ID); err != nil {
		return err
	}

	if err := req.AddOption(rtsp.HeaderNameContentType, sdp.MimeType); err != nil {
		return err
	}

	body, err := a.describe(a.stream, a.session.Addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDescription, err)
	}
	req.SetBody(body)

	return req.AddOption(rtsp.HeaderNameContentLength, strconv.Itoa(len(req.Body)))
}

func buildPlay(a *attempt, req *rtsp.Request) error {
	return req.AddOption(rtsp.HeaderNameSession, a.session.ID)
}
