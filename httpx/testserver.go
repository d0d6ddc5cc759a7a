package httpx

import (
	"net/http"
	"net/http/httptest"
)

// TestServer runs a handler on a loopback listener for end-to-end tests.
type TestServer struct{ *httptest.Server }

func NewTestServer(handler http.Handler) *TestServer {
	return &TestServer{httptest.NewServer(handler)}
}

// NewServerTestServer serves everything registered on s.
func NewServerTestServer(s *Server) *TestServer {
	if s == nil {
		return nil
	}
	return NewTestServer(s.Handler())
}

func (ts *TestServer) BaseURL() string {
	if ts == nil || ts.Server == nil {
		return ""
	}
	return ts.URL
}

// SessionClient returns a client bound to the server with its own cookie jar, so
// each call models a separate browser.
func (ts *TestServer) SessionClient(opts ...ClientOption) *Client {
	return NewClient(append([]ClientOption{WithBaseURL(ts.BaseURL())}, opts...)...)
}
