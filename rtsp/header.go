package rtsp

import (
	"errors"
	"fmt"
	"strings"
)

const (
	HeaderNameTransport         string = "Transport"
	HeaderNameAccept            string = "Accept"
	HeaderNameAllow             string = "Allow"
	HeaderNameAuthorization     string = "Authorization"
	HeaderNameCacheControl      string = "Cache-Control"
	HeaderNameConnection        string = "Connection"
	HeaderNameContentBase       string = "Content-Base"
	HeaderNameContentEncoding   string = "Content-Encoding"
	HeaderNameContentLocation   string = "Content-Location"
	HeaderNameCSeq              string = "CSeq"
	HeaderNameDate              string = "Date"
	HeaderNameExpires           string = "Expires"
	HeaderNameIfModifiedSince   string = "If-Modified-Since"
	HeaderNameLastModified      string = "Last-Modified"
	HeaderNamePublic            string = "Public"
	HeaderNameRange             string = "Range"
	HeaderNameRequire           string = "Require"
	HeaderNameRTPInfo           string = "RTP-Info"
	HeaderNameSession           string = "Session"
	HeaderNameServer            string = "Server"
	HeaderNameUnsupported       string = "Unsupported"
	HeaderNameUserAgent         string = "User-Agent"
	HeaderNameWWWAuthenticate   string = "WWW-Authenticate"
	HeaderNameProxyAuthenticate string = "Proxy-Authenticate"

	// GameStream hosts match these two on their exact spelling.
	HeaderNameContentType   string = "Content-type"
	HeaderNameContentLength string = "Content-length"

	HeaderNameClientVersion string = "X-GS-ClientVersion"
)

var ErrInvalidOption = errors.New("invalid option")

// Option is a single "Key: Value" header line. Keys are not unique within a
// message.
type Option struct {
	Key   string
	Value string
}

func (o Option) Marshal() []byte {
	return fmt.Appendf(nil, "%s: %s\r\n", o.Key, o.Value)
}

// Options keeps header lines in the order they were added, duplicates
// included. Some servers depend on that order.
type Options []Option

func validateOption(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidOption)
	}

	if strings.ContainsAny(key, ":\r\n") {
		return fmt.Errorf("%w: key %q", ErrInvalidOption, key)
	}

	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: value for %q contains a line break", ErrInvalidOption, key)
	}

	return nil
}

// Add appends key and value after validating that both fit on one header
// line. Nothing is appended on error.
func (o *Options) Add(key, value string) error {
	if err := validateOption(key, value); err != nil {
		return err
	}

	*o = append(*o, Option{Key: key, Value: value})
	return nil
}

// Get returns the value of the first option whose key matches, ignoring case.
func (o Options) Get(key string) (string, bool) {
	for _, opt := range o {
		if strings.EqualFold(opt.Key, key) {
			return opt.Value, true
		}
	}

	return "", false
}

// Values returns every value stored under key, in insertion order.
func (o Options) Values(key string) []string {
	var values []string
	for _, opt := range o {
		if strings.EqualFold(opt.Key, key) {
			values = append(values, opt.Value)
		}
	}

	return values
}

func (o Options) Marshal() []byte {
	head := make([]byte, 0)

	for _, opt := range o {
		head = append(head, opt.Marshal()...)
	}

	return head
}

func ParseOptionLine(line string) (Option, error) {
	line = strings.TrimRight(line, "\r\n")

	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return Option{}, fmt.Errorf("%w: header line %q not in 'k: v' format", ErrInvalidFormat, line)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return Option{}, fmt.Errorf("%w: empty name in header line %q", ErrInvalidFormat, line)
	}

	// only the single separator space is dropped so values such as " "
	// survive a round trip
	value = strings.TrimPrefix(value, " ")

	return Option{Key: key, Value: value}, nil
}

func ParseOptions(s string) (Options, error) {
	options := make(Options, 0)

	s = strings.Trim(s, "\r\n")
	if s == "" {
		return options, nil
	}

	for line := range strings.SplitSeq(s, "\r\n") {
		opt, err := ParseOptionLine(line)
		if err != nil {
			return nil, err
		}

		options = append(options, opt)
	}

	return options, nil
}
