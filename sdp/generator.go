package sdp

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/pion/sdp/v3"
)

const (
	MimeType = "application/sdp"

	sessionName   = "NVIDIA Streaming Client"
	originUser    = "android"
	videoPort     = 47998
	videoFormat   = "96"
	rateControl   = "4"
	timeoutLength = "7000"
)

var ErrInvalidStreamConfig = errors.New("invalid stream configuration")

// StreamConfig describes the video stream the client asks the host for. Each
// tagged field becomes one `a=` line of the ANNOUNCE body.
type StreamConfig struct {
	Width  int `sdp:"x-nv-video[0].clientViewportWd"`
	Height int `sdp:"x-nv-video[0].clientViewportHt"`
	FPS    int `sdp:"x-nv-video[0].maxFPS"`
	// PacketSize is the maximum video payload per packet, in bytes.
	PacketSize int `sdp:"x-nv-video[0].packetSize"`
	// Bitrate is the ceiling in kbps.
	Bitrate int `sdp:"x-nv-vqos[0].bw.maximumBitrate"`
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Width:      1280,
		Height:     720,
		FPS:        60,
		PacketSize: 1024,
		Bitrate:    10000,
	}
}

func (c StreamConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: resolution %dx%d", ErrInvalidStreamConfig, c.Width, c.Height)
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps %d", ErrInvalidStreamConfig, c.FPS)
	case c.PacketSize <= 0:
		return fmt.Errorf("%w: packet size %d", ErrInvalidStreamConfig, c.PacketSize)
	case c.Bitrate <= 0:
		return fmt.Errorf("%w: bitrate %d", ErrInvalidStreamConfig, c.Bitrate)
	}

	return nil
}

// Generate builds the session description announced to the host at addr
// (host:port) for cfg.
func Generate(cfg StreamConfig, addr string) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("remote address %q: %w", addr, err)
	}

	addressType := "IP4"
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		addressType = "IP6"
	}

	streamAttrs, err := NewAttributesFromStruct(&cfg)
	if err != nil {
		return nil, err
	}

	attrs := []sdp.Attribute{
		sdp.NewAttribute("x-nv-general.serverAddress", "rtsp://"+addr),
	}
	attrs = append(attrs, streamAttrs...)
	attrs = append(attrs,
		sdp.NewAttribute("x-nv-video[0].rateControlMode", rateControl),
		sdp.NewAttribute("x-nv-video[0].timeoutLengthMs", timeoutLength),
		sdp.NewAttribute("x-nv-video[0].framesWithInvalidRefThreshold", "0"),
		sdp.NewAttribute("x-nv-vqos[0].bw.minimumBitrate", strconv.Itoa(cfg.Bitrate)),
	)

	desc := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       originUser,
			SessionID:      0,
			SessionVersion: 9,
			NetworkType:    "IN",
			AddressType:    addressType,
			UnicastAddress: host,
		},
		SessionName: sessionName,
		TimeDescriptions: []sdp.TimeDescription{
			{Timing: sdp.Timing{StartTime: 0, StopTime: 0}},
		},
		Attributes: attrs,
		MediaDescriptions: []*sdp.MediaDescription{
			{
				MediaName: sdp.MediaName{
					Media:   "video",
					Port:    sdp.RangedPort{Value: videoPort},
					Protos:  []string{"RTP", "AVP"},
					Formats: []string{videoFormat},
				},
			},
		},
	}

	return desc.Marshal()
}

// ParseStreamConfig reads a StreamConfig back out of a body produced by
// Generate.
func ParseStreamConfig(body []byte) (StreamConfig, error) {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal(body); err != nil {
		return StreamConfig{}, err
	}

	var cfg StreamConfig
	if err := PopulateStructFromAttributes(&cfg, desc.Attributes); err != nil {
		return StreamConfig{}, err
	}

	return cfg, nil
}
