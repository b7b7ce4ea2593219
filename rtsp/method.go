package rtsp

import "slices"

// RFC2326-10
type RTSPMethod string

const (
	OPTIONS       RTSPMethod = "OPTIONS"
	DESCRIBE      RTSPMethod = "DESCRIBE"
	ANNOUNCE      RTSPMethod = "ANNOUNCE"
	SETUP         RTSPMethod = "SETUP"
	PLAY          RTSPMethod = "PLAY"
	PAUSE         RTSPMethod = "PAUSE"
	TEARDOWN      RTSPMethod = "TEARDOWN"
	GET_PARAMETER RTSPMethod = "GET_PARAMETER"
	SET_PARAMETER RTSPMethod = "SET_PARAMETER"
	REDIRECT      RTSPMethod = "REDIRECT"
	RECORD        RTSPMethod = "RECORD"
)

var validRTSPMethods = []RTSPMethod{
	OPTIONS, DESCRIBE, ANNOUNCE, SETUP, PLAY, PAUSE,
	TEARDOWN, GET_PARAMETER, SET_PARAMETER, REDIRECT, RECORD,
}

func IsValidRTSPMethod(method string) bool {
	return slices.Contains(validRTSPMethods, RTSPMethod(method))
}

func (m RTSPMethod) String() string {
	return string(m)
}
