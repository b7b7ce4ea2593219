package rtsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultPort is the well-known RTSP port of a GameStream host.
	DefaultPort = 48010

	// DefaultMaxResponseSize bounds a single response, headers and body.
	DefaultMaxResponseSize = 1024

	initialReadSize = 256
)

var (
	ErrConnect        = errors.New("connect failed")
	ErrSend           = errors.New("send failed")
	ErrReceive        = errors.New("receive failed")
	ErrMessageTooLong = errors.New("RTSP message too long")
	ErrTimeout        = errors.New("RTSP transaction timed out")
)

// Dialer opens the connection used by one transaction. *net.Dialer
// satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ParseFunc turns the bytes received before the peer closed the connection
// into a response.
type ParseFunc func([]byte) (*Response, error)

// Transactor runs one request/response exchange per connection: dial, send
// the whole request, read until the peer closes, parse. It keeps no state
// between calls and never retries.
type Transactor struct {
	Addr            string
	Dialer          Dialer
	MaxResponseSize int
	// Timeout bounds a whole transaction, dial included. Zero means the
	// transaction only ends when the peer closes or the context is done.
	Timeout time.Duration
	Parse   ParseFunc
	Log     zerolog.Logger
}

func NewTransactor(addr string, log zerolog.Logger) *Transactor {
	return &Transactor{
		Addr:            addr,
		Dialer:          &net.Dialer{},
		MaxResponseSize: DefaultMaxResponseSize,
		Parse:           ParseResponse,
		Log:             log,
	}
}

func (t *Transactor) maxResponseSize() int {
	if t.MaxResponseSize <= 0 {
		return DefaultMaxResponseSize
	}
	return t.MaxResponseSize
}

// Transact sends req on a fresh connection and returns the parsed response.
// The connection is closed exactly once before Transact returns, whatever
// the outcome.
func (t *Transactor) Transact(ctx context.Context, req *Request) (*Response, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	dialer := t.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	conn, err := dialer.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		return nil, t.classify(ctx, ErrConnect, err)
	}
	defer conn.Close()

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			t.Log.Debug().Err(err).Str("addr", t.Addr).Msg("could not disable Nagle")
		}
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	// unblocks pending IO when the caller gives up on the handshake
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	wire, err := req.Marshal()
	if err != nil {
		return nil, err
	}

	if _, err := conn.Write(wire); err != nil {
		return nil, t.classify(ctx, ErrSend, err)
	}

	buf, err := readUntilClose(conn, t.maxResponseSize())
	if errors.Is(err, ErrMessageTooLong) {
		t.Log.Error().Str("addr", t.Addr).Int("limit", t.maxResponseSize()).Msg("RTSP message too long")
		return nil, err
	}
	if err != nil {
		return nil, t.classify(ctx, ErrReceive, err)
	}

	parse := t.Parse
	if parse == nil {
		parse = ParseResponse
	}

	resp, err := parse(buf)
	if err != nil {
		t.Log.Error().Err(err).Str("addr", t.Addr).Msg("failed to parse RTSP response")
		return nil, err
	}

	return resp, nil
}

// classify wraps err with kind, or with ErrTimeout when a deadline or the
// caller's context ended the operation.
func (t *Transactor) classify(ctx context.Context, kind, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", kind, ctxErr)
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", kind, err)
}

// readUntilClose accumulates everything r yields until EOF. Reaching limit
// bytes before EOF is ErrMessageTooLong; a response is never truncated.
func readUntilClose(r io.Reader, limit int) ([]byte, error) {
	buf := make([]byte, 0, min(initialReadSize, limit))

	for {
		if len(buf) == cap(buf) {
			buf = slices.Grow(buf, min(cap(buf), limit-len(buf)))
		}

		n, err := r.Read(buf[len(buf):min(cap(buf), limit)])
		buf = buf[:len(buf)+n]

		if len(buf) >= limit {
			return nil, ErrMessageTooLong
		}

		if errors.Is(err, io.EOF) {
			return buf, nil
		}

		if err != nil {
			return nil, err
		}
	}
}
