package gateway

import "fmt"

// GatewayError indicates the gateway responded with a non-2xx status. The
// upstream status and body are kept for diagnostics; the request data is
// usually at fault, so callers should not blindly retry.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Body)
}

// NetworkError indicates no response was received from the gateway at all,
// either a transport failure or a timeout. Transient from the caller's
// perspective.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gateway %s: no response: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
