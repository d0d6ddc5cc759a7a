package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/oops"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
)

// lockedBuffer is written by server goroutines and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func quietLogger(buf *lockedBuffer) *slog.Logger {
	var w io.Writer = io.Discard
	if buf != nil {
		w = buf
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

func TestServerAndClientRoundTrip(t *testing.T) {
	server := NewServer(WithLogger(quietLogger(nil)))
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/ping", func(c Context) error {
			return c.JSON(StatusOK, map[string]string{"message": "pong"})
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))

	var body struct {
		Message string `json:"message"`
	}
	resp, err := client.Get(context.Background(), "/ping", &body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
	if body.Message != "pong" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestErrorHandlerRendersHTTPError(t *testing.T) {
	server := NewServer(WithLogger(quietLogger(nil)))
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/fail", func(c Context) error {
			return HTTPError(StatusBadRequest, "Something is missing")
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))

	resp, err := client.Get(context.Background(), "/fail", nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != StatusBadRequest {
		t.Fatalf("unexpected status: %d", statusErr.Code)
	}
	if got := resp.String(); got != `{"success":false,"message":"Something is missing"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	var logs lockedBuffer
	server := NewServer(WithLogger(quietLogger(&logs)))
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/boom", func(c Context) error {
			return oops.Code("DB_QUERY_FAILED").With("operation", "list_stocks").Wrap(errors.New("connection reset by peer"))
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))
	resp, err := client.Get(context.Background(), "/boom", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if resp.StatusCode() != StatusInternalError {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
	if strings.Contains(resp.String(), "connection reset") {
		t.Fatalf("internal error leaked to client: %s", resp.String())
	}
	if !strings.Contains(resp.String(), InternalErrorMessage) {
		t.Fatalf("unexpected body: %s", resp.String())
	}
	if !strings.Contains(logs.String(), "DB_QUERY_FAILED") {
		t.Fatalf("expected oops code in logs, got %s", logs.String())
	}
}

func newTestGate(t *testing.T) (*auth.Gate, *auth.TokenIssuer, *auth.SessionCarrier) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer([]byte("httpx-test-secret"))
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	carrier := auth.NewSessionCarrier(auth.DevelopmentCookiePolicy())
	gate, err := auth.NewGate(issuer, auth.WithSessionCarrier(carrier))
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	return gate, issuer, carrier
}

func TestAuthMiddlewareBridge(t *testing.T) {
	gate, issuer, carrier := newTestGate(t)

	server := NewServer(WithLogger(quietLogger(nil)))
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/secure", func(c Context) error {
			p, ok := auth.PrincipalFromContext(c.Request().Context())
			if !ok {
				return HTTPError(StatusInternalError, "principal missing")
			}
			return c.JSON(StatusOK, map[string]string{"userId": p.UserID})
		}, AuthMiddleware(gate))
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))

	resp, err := client.Get(context.Background(), "/secure", nil)
	if err == nil || resp.StatusCode() != StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %v", err)
	}
	if !strings.Contains(resp.String(), "User not authenticated") {
		t.Fatalf("unexpected body: %s", resp.String())
	}

	bad := carrier.Cookie(auth.IssuedToken{Raw: "not-a-token", ExpiresAt: time.Now().Add(time.Hour)})
	resp, _ = client.Get(context.Background(), "/secure", nil, WithCookie(bad))
	if resp.StatusCode() != StatusUnauthorized || !strings.Contains(resp.String(), "Invalid or expired session") {
		t.Fatalf("unexpected response for bad token: %d %s", resp.StatusCode(), resp.String())
	}

	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	var out map[string]string
	resp, err = client.Get(context.Background(), "/secure", &out, WithCookie(carrier.Cookie(token)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK || out["userId"] != "user-1" {
		t.Fatalf("unexpected response: %d %v", resp.StatusCode(), out)
	}
}

func TestClientKeepsCookies(t *testing.T) {
	_, issuer, carrier := newTestGate(t)

	server := NewServer(WithLogger(quietLogger(nil)))
	server.RegisterRoutes(func(e *Echo) {
		e.POST("/login", func(c Context) error {
			token, err := issuer.Issue("user-2")
			if err != nil {
				return err
			}
			carrier.Set(c.Response(), token)
			return c.NoContent(StatusOK)
		})
	})

	ts := NewServerTestServer(server)
	defer ts.Close()

	client := ts.SessionClient()
	if _, err := client.Post(context.Background(), "/login", nil, nil); err != nil {
		t.Fatalf("login: %v", err)
	}
	cookies, err := client.Cookies(ts.BaseURL())
	if err != nil {
		t.Fatalf("cookies: %v", err)
	}
	if len(cookies) != 1 || cookies[0].Name != auth.DefaultCookieName {
		t.Fatalf("unexpected cookies: %v", cookies)
	}
}

func TestValidatorMiddleware(t *testing.T) {
	validator := func(c Context) error {
		if c.Request().Header.Get("X-Allow") != "yes" {
			return HTTPError(StatusBadRequest, "blocked")
		}
		return nil
	}
	server := NewServer(WithLogger(quietLogger(nil)), WithValidators(validator))
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/secure", func(c Context) error { return c.NoContent(StatusOK) })
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))

	if _, err := client.Get(context.Background(), "/secure", nil); err == nil {
		t.Fatalf("expected validation error")
	}

	resp, err := client.Get(context.Background(), "/secure", nil, WithRequestHeaders(map[string]string{"X-Allow": "yes"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
}

func TestCredentialedCORS(t *testing.T) {
	server := NewServer(WithLogger(quietLogger(nil)), WithCORS(CredentialedCORS("http://example.com")))
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/ping", func(c Context) error { return c.NoContent(StatusOK) })
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))
	resp, err := client.Get(context.Background(), "/ping", nil, WithRequestHeaders(map[string]string{
		"Origin": "http://example.com",
	}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "http://example.com" {
		t.Fatalf("expected CORS allow origin header, got %q", resp.Header().Get("Access-Control-Allow-Origin"))
	}
	if resp.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials to be allowed")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	metrics := NewMetrics("test")
	server := NewServer(
		WithLogger(quietLogger(nil)),
		WithMetrics(metrics),
		WithHealthCheck("/healthz", func(*http.Request) error {
			if !healthy.Load() {
				return errors.New("database down")
			}
			return nil
		}),
	)
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/items/:id", func(c Context) error { return c.NoContent(StatusOK) })
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))
	var health map[string]string
	if _, err := client.Get(context.Background(), "/healthz", &health); err != nil {
		t.Fatalf("health: %v", err)
	}
	if health["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", health)
	}

	healthy.Store(false)
	resp, _ := client.Get(context.Background(), "/healthz", nil)
	if resp.StatusCode() != StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode())
	}

	if _, err := client.Get(context.Background(), "/items/42", nil); err != nil {
		t.Fatalf("items: %v", err)
	}
	resp, err := client.Get(context.Background(), "/metrics", nil)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body := resp.String()
	if !strings.Contains(body, `test_http_requests_total{method="GET",route="/items/:id",status="200"} 1`) {
		t.Fatalf("expected templated route in metrics, got:\n%s", body)
	}
}

func TestRouterHelpers(t *testing.T) {
	server := NewServer(WithLogger(quietLogger(nil)))
	server.RegisterRoutes(func(e *Echo) {
		r := NewRouter(e, "/api")
		r.GET("/ping", func(c Context) error { return c.JSON(StatusOK, map[string]string{"message": "pong"}) })
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))
	var body map[string]string
	resp, err := client.Get(context.Background(), "/api/ping", &body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
	if body["message"] != "pong" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestRegisterRoutesBulkAndPostBody(t *testing.T) {
	server := NewServer(WithLogger(quietLogger(nil)))
	server.RegisterRoutes(func(e *Echo) {
		RegisterRoutes(e, "/v1",
			Route{Method: "get", Path: "/r1", Handler: func(c Context) error {
				return c.JSON(StatusOK, map[string]string{"route": "r1"})
			}},
			Route{Method: "POST", Path: "/echo", Handler: func(c Context) error {
				var payload map[string]any
				if err := c.Bind(&payload); err != nil {
					return HTTPError(StatusBadRequest, "invalid body")
				}
				return c.JSON(StatusCreated, payload)
			}},
			Route{Method: "GET", Path: "/skipped"},
		)
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))

	var r1 map[string]string
	resp, err := client.Get(context.Background(), "/v1/r1", &r1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK || r1["route"] != "r1" {
		t.Fatalf("unexpected response: status=%d body=%v", resp.StatusCode(), r1)
	}

	payload := map[string]string{"hello": "world"}
	var echoed map[string]string
	resp, err = client.Post(context.Background(), "/v1/echo", payload, &echoed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusCreated || echoed["hello"] != "world" {
		t.Fatalf("unexpected POST response: status=%d body=%v", resp.StatusCode(), echoed)
	}

	resp, _ = client.Get(context.Background(), "/v1/skipped", nil)
	if resp.StatusCode() != StatusNotFound {
		t.Fatalf("expected skipped route to be unregistered, got %d", resp.StatusCode())
	}
}

func TestClientRequestOptions(t *testing.T) {
	server := NewServer(WithLogger(quietLogger(nil)))
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/opts", func(c Context) error {
			custom := c.Request().Header.Get("X-Custom")
			qp := c.QueryParam("q")
			return c.JSON(StatusOK, map[string]string{"custom": custom, "q": qp})
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()), WithRestyConfig(func(rc RestClient) {
		rc.SetTimeout(2 * time.Second)
	}))

	var out map[string]string
	resp, err := client.Get(context.Background(), "/opts", &out,
		WithRequestHeaders(map[string]string{"X-Custom": "yes"}),
		WithQuery(map[string]string{"q": "search"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
	if out["custom"] != "yes" || out["q"] != "search" {
		t.Fatalf("unexpected headers/query: %v", out)
	}
}

func TestServerStartStopsOnCancel(t *testing.T) {
	server := NewServer(WithLogger(quietLogger(nil)), WithAddress("127.0.0.1:0"), WithServerShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("server did not stop")
	}
}
