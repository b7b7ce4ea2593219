// RFC2326

package rtsp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const RTSP_VERSION_STRING string = "RTSP/1.0"

var ErrInvalidRequest = errors.New("invalid request")
var ErrInvalidFormat = errors.New("cannot parse message")

// Message owns its option list and optional body outright. Nothing in it
// refers back to caller memory.
type Message struct {
	Options Options
	Body    []byte
}

// AddOption appends a header option. On error the option list is left as it
// was and the message should be discarded.
func (m *Message) AddOption(key, value string) error {
	return m.Options.Add(key, value)
}

func (m *Message) Option(key string) (string, bool) {
	return m.Options.Get(key)
}

// SetBody stores a private copy of b.
func (m *Message) SetBody(b []byte) {
	m.Body = make([]byte, len(b))
	copy(m.Body, b)
}

func newMessageFromString(s string) (Message, error) {
	var head, body string

	if strings.HasPrefix(s, "\r\n") { // no options at all
		body = s[2:]
	} else if pos := strings.Index(s, "\r\n\r\n"); pos != -1 {
		head, body = s[:pos], s[pos+4:]
	} else {
		head = s
	}

	options, err := ParseOptions(head)
	if err != nil {
		return Message{}, err
	}

	msg := Message{Options: options}
	if len(body) > 0 {
		msg.Body = []byte(body)
	}

	return msg, nil
}

func (m Message) Marshal() []byte {
	return fmt.Appendf(nil, "%s\r\n%s", m.Options.Marshal(), m.Body)
}

func cseqLine(cseq int) []byte {
	return fmt.Appendf(nil, "%s: %d\r\n", HeaderNameCSeq, cseq)
}

// extractCSeq removes the CSeq line from options and returns its value.
func extractCSeq(options Options) (Options, int, error) {
	out := options[:0]
	cseq := 0

	for _, opt := range options {
		if !strings.EqualFold(opt.Key, HeaderNameCSeq) {
			out = append(out, opt)
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(opt.Value))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: bad CSeq %q", ErrInvalidFormat, opt.Value)
		}
		cseq = n
	}

	return out, cseq, nil
}

type RequestLine struct {
	Method  RTSPMethod
	Target  string
	Version string
}

type Request struct {
	RequestLine
	CSeq int
	Message
}

func NewRequest(method RTSPMethod, target string, cseq int) *Request {
	return &Request{
		RequestLine: RequestLine{
			Method:  method,
			Target:  target,
			Version: RTSP_VERSION_STRING,
		},
		CSeq: cseq,
	}
}

// Marshal renders the request line, CSeq, options in insertion order, the
// blank line and the body.
func (r *Request) Marshal() ([]byte, error) {
	if r.Method == "" || r.Target == "" {
		return nil, fmt.Errorf("%w: empty method or target", ErrInvalidRequest)
	}

	if strings.ContainsAny(r.Target, " \r\n") {
		return nil, fmt.Errorf("%w: target %q", ErrInvalidRequest, r.Target)
	}

	version := r.Version
	if version == "" {
		version = RTSP_VERSION_STRING
	}

	buf := fmt.Appendf(nil, "%s %s %s\r\n", r.Method, r.Target, version)
	buf = append(buf, cseqLine(r.CSeq)...)

	return append(buf, r.Message.Marshal()...), nil
}

func ParseRequest(b []byte) (*Request, error) {
	s := string(b)

	line, rest, ok := strings.Cut(s, "\r\n")
	if !ok {
		return nil, fmt.Errorf("%w: no request line", ErrInvalidFormat)
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: request line %q", ErrInvalidFormat, line)
	}

	if !IsValidRTSPMethod(parts[0]) {
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidFormat, parts[0])
	}

	if parts[2] != RTSP_VERSION_STRING {
		return nil, fmt.Errorf("%w: version %q", ErrInvalidFormat, parts[2])
	}

	msg, err := newMessageFromString(rest)
	if err != nil {
		return nil, err
	}

	req := NewRequest(RTSPMethod(parts[0]), parts[1], 0)
	req.Options, req.CSeq, err = extractCSeq(msg.Options)
	if err != nil {
		return nil, err
	}
	req.Body = msg.Body

	return req, nil
}

type ResponseLine struct {
	Version    string
	StatusCode RTSPStatus
	StatusText string
}

type Response struct {
	ResponseLine
	CSeq int
	Message
}

func NewResponse(statusCode RTSPStatus) *Response {
	return &Response{
		ResponseLine: ResponseLine{
			Version:    RTSP_VERSION_STRING,
			StatusCode: statusCode,
			StatusText: statusCode.Text(),
		},
	}
}

func (r *Response) Marshal() []byte {
	buf := fmt.Appendf(nil, "%s %d %s\r\n", r.Version, r.StatusCode, r.StatusText)
	if r.CSeq > 0 {
		buf = append(buf, cseqLine(r.CSeq)...)
	}

	return append(buf, r.Message.Marshal()...)
}

func (r *Response) WriteHeader(c RTSPStatus) {
	r.StatusCode = c
	r.StatusText = c.Text()
}

// ParseResponse parses everything the peer sent before closing the
// connection: status line, header options and whatever follows the blank
// line as the body.
func ParseResponse(b []byte) (*Response, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidFormat)
	}

	s := string(b)

	line, rest, _ := strings.Cut(s, "\r\n")

	version, status, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(version, "RTSP/") {
		return nil, fmt.Errorf("%w: status line %q", ErrInvalidFormat, line)
	}

	codeStr, text, _ := strings.Cut(strings.TrimSpace(status), " ")
	code, err := strconv.Atoi(codeStr)
	if err != nil || code < 100 || code > 999 {
		return nil, fmt.Errorf("%w: status code %q", ErrInvalidFormat, codeStr)
	}

	msg, err := newMessageFromString(rest)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		ResponseLine: ResponseLine{
			Version:    version,
			StatusCode: RTSPStatus(code),
			StatusText: text,
		},
	}

	resp.Options, resp.CSeq, err = extractCSeq(msg.Options)
	if err != nil {
		return nil, err
	}
	resp.Body = msg.Body

	return resp, nil
}
