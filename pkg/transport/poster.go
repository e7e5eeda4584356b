package transport

import (
	"context"
	"net/http"
	"net/url"
)

// Poster sends one request to a device and returns its reply.
// Implemented by Client.
type Poster interface {
	Post(ctx context.Context, req *Request) (*Response, error)
}

// Request is one HTTP exchange with a device.
type Request struct {
	// Address is the device host, optionally with a port.
	Address string

	// Path is the endpoint path, for example "/app/handshake1".
	Path string

	// Query holds URL parameters such as seq or token.
	Query url.Values

	// Body is the raw request body.
	Body []byte

	// ContentType defaults to application/octet-stream when empty.
	ContentType string

	// Cookies are sent with the request.
	Cookies []*http.Cookie
}

// URL returns the request URL.
func (r *Request) URL() string {
	u := url.URL{Scheme: "http", Host: r.Address, Path: r.Path}
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}
	return u.String()
}

// Response is the device reply.
type Response struct {
	StatusCode int
	Body       []byte
	Cookies    []*http.Cookie
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Cookie returns the named cookie, or nil.
func (r *Response) Cookie(name string) *http.Cookie {
	for _, c := range r.Cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
