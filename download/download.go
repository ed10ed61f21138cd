package download

import (
	"context"
	"io"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// Response is the part of an http response that the store inspects.
type Response struct {
	URL        string
	Host       string
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// ContentType returns the response's Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// ContentLength returns the advertised length of the response body, or -1 if
// the server did not advertise one.
func (r *Response) ContentLength() int64 {
	v := r.Header.Get("Content-Length")
	if v == "" {
		return -1
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		log.Debugf("ignoring malformed content-length: %q", v)
		return -1
	}
	return n
}

// GetBody performs an http GET with url=u using the supplied client and
// header. On success, the caller must close the returned response's body. A
// non-2xx status is reported as a KindHTTPStatus error.
func GetBody(ctx context.Context, hc *http.Client, u string, header http.Header) (*Response, error) {
	log.Debugf("get: %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, URL: u, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rsp, err := hc.Do(req)
	if err != nil {
		return nil, &Error{Kind: classifyRequestError(err), URL: u, Host: req.URL.Host, Err: err}
	}

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		rsp.Body.Close()
		return nil, &Error{Kind: KindHTTPStatus, URL: u, Host: req.URL.Host, Status: rsp.StatusCode}
	}

	// Go's transport may move Content-Length out of the header map.
	h := rsp.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if h.Get("Content-Length") == "" && rsp.ContentLength >= 0 {
		h.Set("Content-Length", strconv.FormatInt(rsp.ContentLength, 10))
	}

	return &Response{
		URL:        u,
		Host:       req.URL.Host,
		StatusCode: rsp.StatusCode,
		Header:     h,
		Body:       rsp.Body,
	}, nil
}

// ReadAll reads the full response body and closes it.
func (r *Response) ReadAll() ([]byte, error) {
	defer r.Body.Close()

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &Error{Kind: classifyRequestError(err), URL: r.URL, Host: r.Host, Err: err}
	}
	return b, nil
}
