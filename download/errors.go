package download

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/dustin/go-humanize"
)

// Kind classifies why fetching a url failed.
type Kind int

const (
	KindUnexpected Kind = iota
	KindInvalidURL
	KindDirectory
	KindTimeout
	KindHTTPStatus
	KindConnection
	KindNetwork
	KindNotAnImage
	KindTooLarge
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindDirectory:
		return "directory"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindConnection:
		return "connection"
	case KindNetwork:
		return "network"
	case KindNotAnImage:
		return "not_an_image"
	case KindTooLarge:
		return "too_large"
	case KindIO:
		return "io"
	default:
		return "unexpected"
	}
}

// Error is the failure reported for a single url. Only the fields relevant to
// the Kind are set.
type Error struct {
	Kind        Kind
	URL         string
	Host        string
	Dir         string
	Status      int    // KindHTTPStatus
	ContentType string // KindNotAnImage
	Size        int64  // KindTooLarge
	Limit       int64  // KindTooLarge
	Err         error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidURL:
		return fmt.Sprintf("invalid URL: '%s' (use full URLs, e.g., https://example.com/image.jpg)", e.URL)
	case KindDirectory:
		return fmt.Sprintf("cannot prepare directory %s: %v", e.Dir, e.Err)
	case KindTimeout:
		return fmt.Sprintf("connection timeout: %s took too long to respond", e.Host)
	case KindHTTPStatus:
		return fmt.Sprintf("HTTP error: server responded with %d %s", e.Status, http.StatusText(e.Status))
	case KindConnection:
		return fmt.Sprintf("connection error: could not reach %s: %v", e.Host, e.Err)
	case KindNetwork:
		return fmt.Sprintf("network error: %v", e.Err)
	case KindNotAnImage:
		return fmt.Sprintf("not an image (Content-Type: %s)", e.ContentType)
	case KindTooLarge:
		return fmt.Sprintf("file size %s (%s bytes) exceeds %s limit (%s bytes)",
			humanize.IBytes(uint64(e.Size)), humanize.Comma(e.Size),
			humanize.IBytes(uint64(e.Limit)), humanize.Comma(e.Limit))
	case KindIO:
		return fmt.Sprintf("I/O error: %v", e.Err)
	default:
		return fmt.Sprintf("unexpected error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the given error. Errors that did not originate
// from this package are KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// classifyRequestError maps an error returned by the http client, or by a
// read of the response body, to one of the request-layer kinds.
func classifyRequestError(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnection
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {

		return KindConnection
	}

	return KindNetwork
}
