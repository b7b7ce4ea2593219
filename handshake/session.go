package handshake

import (
	"net"
	"strconv"

	"github.com/rebeljah/gamestream/rtsp"
)

// Session is the state of one handshake attempt. It is created by Perform
// and dropped when Perform returns, so concurrent attempts never share one.
type Session struct {
	// Addr is the remote host:port every transaction dials.
	Addr string
	// TargetURL is the stream resource probed by OPTIONS and DESCRIBE.
	TargetURL string
	// ID is the server-assigned session token, empty until the audio SETUP
	// response supplies it. It is echoed verbatim.
	ID string

	clientVersion string
	seq           int
}

func NewSession(host string, port int, clientVersion string) *Session {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	return &Session{
		Addr:          addr,
		TargetURL:     "rtsp://" + addr,
		clientVersion: clientVersion,
		seq:           1,
	}
}

// NextSeq returns the sequence number for the next request and advances the
// counter.
func (s *Session) NextSeq() int {
	n := s.seq
	s.seq++
	return n
}

// HasID reports whether a session token has been captured.
func (s *Session) HasID() bool {
	return s.ID != ""
}

// NewRequest constructs a request carrying the next sequence number with the
// client version as its first option. The counter advances even if the
// request is never sent.
func (s *Session) NewRequest(method rtsp.RTSPMethod, target string) (*rtsp.Request, error) {
	req := rtsp.NewRequest(method, target, s.NextSeq())

	if err := req.AddOption(rtsp.HeaderNameClientVersion, s.clientVersion); err != nil {
		return nil, err
	}

	return req, nil
}
