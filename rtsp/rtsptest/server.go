// Package rtsptest provides a scripted RTSP server that answers one request
// per connection and then closes it, the way GameStream hosts do.
package rtsptest

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/rebeljah/gamestream/rtsp"
)

type Handler interface {
	ServeRTSP(*Context)
}

// Context carries one exchange through the handler chain.
type Context struct {
	RemoteAddr net.Addr
	Request    *rtsp.Request
	Response   *rtsp.Response
}

// HandlerFunc type is an adapter to allow the use of
// ordinary functions as RTSP handlers.
type HandlerFunc func(*Context)

func (f HandlerFunc) ServeRTSP(ctx *Context) {
	f(ctx)
}

// ServeMux dispatches on the request method. The key "METHOD target" takes
// precedence over the bare method.
type ServeMux map[string]Handler

func NewServeMux() ServeMux {
	return make(ServeMux)
}

func (m ServeMux) Handle(method rtsp.RTSPMethod, handler Handler) {
	m[string(method)] = handler
}

func (m ServeMux) HandleTarget(method rtsp.RTSPMethod, target string, handler Handler) {
	m[string(method)+" "+target] = handler
}

func (m ServeMux) ServeRTSP(ctx *Context) {
	handler, ok := m[string(ctx.Request.Method)+" "+ctx.Request.Target]
	if !ok {
		handler, ok = m[string(ctx.Request.Method)]
	}

	if !ok {
		ctx.Response.WriteHeader(rtsp.MethodNotAllowed)
		return
	}

	handler.ServeRTSP(ctx)
}

// Middleware runs handler first and only calls next while the response is
// still OK.
type Middleware struct {
	handler     Handler
	nextHandler Handler
}

func WithMiddleware(next Handler, mdl Handler) Middleware {
	return Middleware{handler: mdl, nextHandler: next}
}

func (m Middleware) ServeRTSP(ctx *Context) {
	m.handler.ServeRTSP(ctx)

	if ctx.Response.StatusCode == rtsp.OK {
		m.nextHandler.ServeRTSP(ctx)
	}
}

func handleMirrorCSeq(ctx *Context) {
	if ctx.Request.CSeq <= 0 {
		ctx.Response.WriteHeader(rtsp.BadRequest)
		return
	}

	ctx.Response.CSeq = ctx.Request.CSeq
}

func setFinalHeaders(resp *rtsp.Response) {
	if n := len(resp.Body); n > 0 {
		resp.Options.Add(rtsp.HeaderNameContentLength, strconv.Itoa(n))
	}

	resp.Options.Add(rtsp.HeaderNameConnection, "close")
}

// Server records every request it parses. It is safe for use by the test
// goroutine while connections are being served.
type Server struct {
	handler  Handler
	listener net.Listener
	wg       sync.WaitGroup

	mu       sync.Mutex
	requests []*rtsp.Request
}

// NewServer starts listening on a loopback port and serves until Close.
func NewServer(handler Handler) (*Server, error) {
	ls, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{
		handler:  WithMiddleware(handler, HandlerFunc(handleMirrorCSeq)),
		listener: ls,
	}

	s.wg.Add(1)
	go s.serve()

	return s, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Close() {
	s.listener.Close()
	s.wg.Wait()
}

// Requests returns the parsed requests in arrival order.
func (s *Server) Requests() []*rtsp.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*rtsp.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls counts requests with the given method, and target when not empty.
func (s *Server) Calls(method rtsp.RTSPMethod, target string) int {
	n := 0
	for _, req := range s.Requests() {
		if req.Method == method && (target == "" || req.Target == target) {
			n++
		}
	}
	return n
}

func (s *Server) serve() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		s.wg.Add(1)
		go s.serveConnection(conn)
	}
}

func readRequest(r *bufio.Reader) (*rtsp.Request, error) {
	var raw strings.Builder

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}

		raw.WriteString(line)

		if line == "\r\n" {
			break
		}
	}

	request, err := rtsp.ParseRequest([]byte(raw.String()))
	if err != nil {
		return nil, err
	}

	if v, ok := request.Option(rtsp.HeaderNameContentLength); ok {
		contentLength, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return request, err
		}

		request.Body = make([]byte, contentLength)
		if _, err = io.ReadFull(r, request.Body); err != nil {
			return request, err
		}
	}

	return request, nil
}

func (s *Server) serveConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	req, err := readRequest(bufio.NewReader(conn))
	if err != nil {
		conn.Write(rtsp.NewResponse(rtsp.BadRequest).Marshal())
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	ctx := &Context{
		RemoteAddr: conn.RemoteAddr(),
		Request:    req,
		Response:   rtsp.NewResponse(rtsp.OK),
	}

	s.handler.ServeRTSP(ctx)
	setFinalHeaders(ctx.Response)

	conn.Write(ctx.Response.Marshal())
}

// Status answers every request with code and no options.
func Status(code rtsp.RTSPStatus) HandlerFunc {
	return func(ctx *Context) {
		ctx.Response.WriteHeader(code)
	}
}

// SetSession answers OK and hands out the given session token.
func SetSession(id string) HandlerFunc {
	return func(ctx *Context) {
		ctx.Response.Options.Add(rtsp.HeaderNameSession, id)
	}
}
