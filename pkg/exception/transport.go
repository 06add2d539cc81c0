package exception

import "errors"

// Transport errors
var (
	ErrTransport            = errors.New("transport: receive failed")
	ErrTransportClosed      = errors.New("transport: closed")
	ErrUnsupportedEndpoint  = errors.New("transport: unsupported endpoint")
	ErrEmptyEndpoint        = errors.New("transport: empty endpoint")
	ErrPublisherUnsupported = errors.New("transport: publishing unsupported for endpoint")
)
