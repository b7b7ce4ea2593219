package rtsp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"slices"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPeer accepts a single connection and hands it to fn. The connection is
// closed when fn returns.
func testPeer(t *testing.T, fn func(conn net.Conn)) string {
	t.Helper()

	ls, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ls.Close() })

	go func() {
		conn, err := ls.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		fn(conn)
	}()

	return ls.Addr().String()
}

// readHead consumes one request head so closing the connection afterwards
// does not reset it.
func readHead(conn net.Conn) string {
	r := bufio.NewReader(conn)

	var head strings.Builder
	for {
		line, err := r.ReadString('\n')
		head.WriteString(line)
		if err != nil || line == "\r\n" {
			return head.String()
		}
	}
}

func optionsRequest(t *testing.T) *Request {
	req := NewRequest(OPTIONS, "rtsp://127.0.0.1:48010", 1)
	require.NoError(t, req.AddOption(HeaderNameClientVersion, "10"))
	return req
}

type recordingParser struct {
	calls int
	got   []byte
}

func (p *recordingParser) parse(b []byte) (*Response, error) {
	p.calls++
	p.got = append([]byte(nil), b...)
	return NewResponse(OK), nil
}

func TestTransactor_Transact(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		assert := assert.New(t)

		received := make(chan string, 1)
		addr := testPeer(t, func(conn net.Conn) {
			received <- readHead(conn)
			conn.Write([]byte("RTSP/1.0 200 OK\r\nCSeq: 1\r\nSession: ABC123\r\n\r\n"))
		})

		req := optionsRequest(t)
		resp, err := NewTransactor(addr, zerolog.Nop()).Transact(context.Background(), req)
		if !assert.NoError(err) {
			return
		}

		wire, _ := req.Marshal()
		assert.Equal(string(wire), <-received)

		assert.Equal(OK, resp.StatusCode)
		assert.Equal(1, resp.CSeq)

		session, ok := resp.Option(HeaderNameSession)
		assert.True(ok)
		assert.Equal("ABC123", session)
	})

	t.Run("non-OK status is still a response", func(t *testing.T) {
		assert := assert.New(t)

		addr := testPeer(t, func(conn net.Conn) {
			readHead(conn)
			conn.Write([]byte("RTSP/1.0 404 Not Found\r\n\r\n"))
		})

		resp, err := NewTransactor(addr, zerolog.Nop()).Transact(context.Background(), optionsRequest(t))
		if !assert.NoError(err) {
			return
		}
		assert.Equal(NotFound, resp.StatusCode)
	})

	t.Run("parse failure", func(t *testing.T) {
		addr := testPeer(t, func(conn net.Conn) {
			readHead(conn)
			conn.Write([]byte("garbage"))
		})

		_, err := NewTransactor(addr, zerolog.Nop()).Transact(context.Background(), optionsRequest(t))
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("connect failure", func(t *testing.T) {
		ls, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ls.Addr().String()
		ls.Close()

		_, err = NewTransactor(addr, zerolog.Nop()).Transact(context.Background(), optionsRequest(t))
		assert.ErrorIs(t, err, ErrConnect)
	})

	t.Run("serialization failure sends nothing", func(t *testing.T) {
		assert := assert.New(t)

		sent := make(chan int, 1)
		addr := testPeer(t, func(conn net.Conn) {
			n, _ := io.Copy(io.Discard, conn)
			sent <- int(n)
		})

		_, err := NewTransactor(addr, zerolog.Nop()).Transact(context.Background(), NewRequest(OPTIONS, "", 1))
		assert.ErrorIs(err, ErrInvalidRequest)

		select {
		case n := <-sent:
			assert.Zero(n)
		case <-time.After(time.Second):
			assert.Fail("connection was not closed")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		done := make(chan struct{})
		defer close(done)

		addr := testPeer(t, func(conn net.Conn) {
			readHead(conn)
			<-done
		})

		tr := NewTransactor(addr, zerolog.Nop())
		tr.Timeout = 50 * time.Millisecond

		_, err := tr.Transact(context.Background(), optionsRequest(t))
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("cancel", func(t *testing.T) {
		done := make(chan struct{})
		defer close(done)

		addr := testPeer(t, func(conn net.Conn) {
			readHead(conn)
			<-done
		})

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(50*time.Millisecond, cancel)

		_, err := NewTransactor(addr, zerolog.Nop()).Transact(ctx, optionsRequest(t))
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, ErrReceive)
	})
}

func TestTransactor_Transact_peerClosesBelowCapacity(t *testing.T) {
	for _, n := range []int{1, 100, 1000, DefaultMaxResponseSize - 1} {
		assert := assert.New(t)

		payload := bytes.Repeat([]byte{'a'}, n)
		addr := testPeer(t, func(conn net.Conn) {
			readHead(conn)
			// several writes so the client has to accumulate
			for chunk := range slices.Chunk(payload, 300) {
				conn.Write(chunk)
			}
		})

		parser := &recordingParser{}
		tr := NewTransactor(addr, zerolog.Nop())
		tr.Parse = parser.parse

		_, err := tr.Transact(context.Background(), optionsRequest(t))
		if !assert.NoError(err, "n=%d", n) {
			continue
		}

		assert.Equal(1, parser.calls)
		assert.Equal(payload, parser.got, "n=%d", n)
	}
}

func TestTransactor_Transact_peerFillsCapacity(t *testing.T) {
	assert := assert.New(t)

	done := make(chan struct{})
	defer close(done)

	addr := testPeer(t, func(conn net.Conn) {
		readHead(conn)
		conn.Write(bytes.Repeat([]byte{'a'}, DefaultMaxResponseSize))
		<-done // keep the connection open
	})

	var buf bytes.Buffer
	parser := &recordingParser{}
	tr := NewTransactor(addr, zerolog.New(&buf))
	tr.Parse = parser.parse

	_, err := tr.Transact(context.Background(), optionsRequest(t))
	assert.ErrorIs(err, ErrMessageTooLong)
	assert.Zero(parser.calls)
	assert.Contains(buf.String(), "RTSP message too long")
}

func TestReadUntilClose(t *testing.T) {
	t.Run("one byte at a time", func(t *testing.T) {
		b, err := readUntilClose(iotest.OneByteReader(strings.NewReader("RTSP/1.0 200 OK\r\n\r\n")), 64)
		assert.NoError(t, err)
		assert.Equal(t, "RTSP/1.0 200 OK\r\n\r\n", string(b))
	})

	t.Run("limit reached", func(t *testing.T) {
		_, err := readUntilClose(strings.NewReader(strings.Repeat("x", 64)), 64)
		assert.ErrorIs(t, err, ErrMessageTooLong)
	})

	t.Run("limit reached with data and EOF together", func(t *testing.T) {
		_, err := readUntilClose(iotest.DataErrReader(strings.NewReader(strings.Repeat("x", 64))), 64)
		assert.ErrorIs(t, err, ErrMessageTooLong)
	})

	t.Run("read error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := readUntilClose(iotest.ErrReader(boom), 64)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("grows past the first read", func(t *testing.T) {
		want := strings.Repeat("y", 900)
		b, err := readUntilClose(strings.NewReader(want), DefaultMaxResponseSize)
		assert.NoError(t, err)
		assert.Equal(t, want, string(b))
	})
}
