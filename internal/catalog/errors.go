package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// maxBodyExcerpt bounds how much of an error response is kept for logging.
const maxBodyExcerpt = 500

// StatusError is returned when the catalog API answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string // truncated to maxBodyExcerpt bytes
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog status %d: %s", e.StatusCode, e.Body)
}

// TransportKind classifies a failed round trip for logging.
type TransportKind string

const (
	TransportTimeout TransportKind = "timeout"
	TransportDNS     TransportKind = "dns"
	TransportRefused TransportKind = "connection_refused"
	TransportCancel  TransportKind = "canceled"
	TransportNetwork TransportKind = "network"
)

// TransportError wraps a request that never produced a response.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog %s error: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError means the response was 200 but not a JSON object.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("catalog decode error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func classifyTransport(err error) TransportKind {
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.Is(err, context.Canceled):
		return TransportCancel
	case errors.Is(err, context.DeadlineExceeded):
		return TransportTimeout
	case errors.As(err, &dnsErr):
		return TransportDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		return TransportRefused
	case errors.As(err, &netErr) && netErr.Timeout():
		return TransportTimeout
	default:
		return TransportNetwork
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
