package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newConnectedClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()

	defaults := []Option{WithAuthToken("test-token"), WithRetryCount(0)}
	client := New(baseURL, append(defaults, opts...)...)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNew(t *testing.T) {
	t.Parallel()

	client := New("http://example.com/", WithRetryCount(5))

	if client == nil {
		t.Fatal("expected client to be created")
	}

	if client.baseURL != "http://example.com" {
		t.Errorf("expected baseURL=http://example.com, got %s", client.baseURL)
	}

	if client.options.retryCount != 5 {
		t.Errorf("expected retryCount=5, got %d", client.options.retryCount)
	}

	if client.HasToken() {
		t.Error("expected no token before authentication")
	}
}

func TestConnect_EmptyURL(t *testing.T) {
	t.Parallel()

	client := New("")

	err := client.Connect(context.Background())

	if err == nil {
		t.Fatal("expected error for empty URL")
	}

	if err.Error() != "base URL must be set" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConnect_InvalidOptions(t *testing.T) {
	t.Parallel()

	client := New("http://example.com")
	// Force invalid options by setting nil logger
	client.options.requestLogger = nil

	err := client.Connect(context.Background())

	if err == nil {
		t.Fatal("expected error for invalid options")
	}

	if !strings.Contains(err.Error(), "invalid options") {
		t.Errorf("expected error to contain 'invalid options', got: %v", err)
	}
}

func TestConnect_InstallsAuthToken(t *testing.T) {
	t.Parallel()

	client := newConnectedClient(t, "http://example.com")

	if client.Token() != "test-token" {
		t.Errorf("expected token=test-token, got %q", client.Token())
	}
}

func TestConnect_OnlyOnce(t *testing.T) {
	t.Parallel()

	client := newConnectedClient(t, "http://example.com")
	first := client.http

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("second connect failed: %v", err)
	}

	if client.http != first {
		t.Error("expected second connect to be a no-op")
	}
}

func TestRequest_NilClient(t *testing.T) {
	t.Parallel()

	var client *Client

	_, err := client.Get(context.Background(), "/meta", nil)

	if !IsInitializationError(err) {
		t.Fatalf("expected initialization error, got %v", err)
	}
}

func TestRequest_NotConnected(t *testing.T) {
	t.Parallel()

	client := New("http://example.com", WithAuthToken("token"))

	_, err := client.Get(context.Background(), "/meta", nil)

	if !IsInitializationError(err) {
		t.Fatalf("expected initialization error, got %v", err)
	}

	if !strings.Contains(err.Error(), "client not connected - call Connect() first") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRequest_NoTokenMakesNoCalls(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer server.Close()

	client := New(server.URL, WithRetryCount(0))
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	operations := map[string]func() error{
		"meta":       func() error { _, err := client.Meta(context.Background()); return err },
		"recs":       func() error { _, err := client.Recs(context.Background(), 10); return err },
		"matches":    func() error { _, err := client.Matches(context.Background(), 60, false); return err },
		"messages":   func() error { _, err := client.Messages(context.Background(), "m1", 100); return err },
		"user info":  func() error { _, err := client.UserInfo(context.Background(), "u1"); return err },
		"superlike":  func() error { _, err := client.Superlike(context.Background(), "u1"); return err },
		"unlike msg": func() error { _, err := client.UnlikeMessage(context.Background(), "msg"); return err },
	}

	for name, op := range operations {
		err := op()

		var initErr *InitializationError
		if !errors.As(err, &initErr) {
			t.Errorf("%s: expected initialization error, got %v", name, err)
		}
	}

	if calls.Load() != 0 {
		t.Errorf("expected no network calls, got %d", calls.Load())
	}
}

func TestRequest_SetsHeaders(t *testing.T) {
	t.Parallel()

	var header http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer server.Close()

	client := newConnectedClient(t, server.URL, WithRequestHeader("X-Custom", "custom-value"), WithUserAgent("agent/1.0"))

	if _, err := client.Profile(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "agent/1.0",
		"X-Auth-Token": "test-token",
		"X-Custom":     "custom-value",
		"Platform":     "ios",
	}

	for k, v := range expected {
		if got := header.Get(k); got != v {
			t.Errorf("expected %s=%s, got %s", k, v, got)
		}
	}
}

func TestRequest_RetriesWhileRateLimited(t *testing.T) {
	t.Parallel()

	for _, leading := range []int{0, 1, 3, 7} {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if int(calls.Add(1)) <= leading {
				writeJSON(w, http.StatusTooManyRequests, `{"error": "slow down"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"ok": true}`)
		}))

		client := newConnectedClient(t, server.URL, WithRateLimitDelay(time.Millisecond))

		res, err := client.Get(context.Background(), "/meta", nil)
		server.Close()

		if err != nil {
			t.Fatalf("%d leading 429s: unexpected error: %v", leading, err)
		}

		if diff := cmp.Diff(map[string]any{"ok": true}, res); diff != "" {
			t.Errorf("%d leading 429s: unexpected body (-want +got):\n%s", leading, diff)
		}

		if got := int(calls.Load()); got != leading+1 {
			t.Errorf("%d leading 429s: expected %d calls, got %d", leading, leading+1, got)
		}
	}
}

func TestRequest_MaxRateLimitRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newConnectedClient(t, server.URL, WithRateLimitDelay(time.Millisecond), WithMaxRateLimitRetries(2))

	_, err := client.Get(context.Background(), "/meta", nil)

	if StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("expected 429 request error, got %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestRequest_RateLimitLoopStopsOnCancel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newConnectedClient(t, server.URL, WithRateLimitDelay(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/meta", nil)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	if IsRequestError(err) {
		t.Error("a cancelled rate-limit loop must not surface as a request error")
	}
}

func TestRequest_EmptyResultStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"created with body", http.StatusCreated, `not even json`},
		{"created with json", http.StatusCreated, `{"id": "x"}`},
		{"no content", http.StatusNoContent, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer server.Close()

			client := newConnectedClient(t, server.URL)

			res, err := client.Post(context.Background(), "/message/1/like", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if res == nil || len(res) != 0 {
				t.Errorf("expected empty map, got %v", res)
			}
		})
	}
}

func TestRequest_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		contains string
	}{
		{"json error field", http.StatusBadRequest, `{"error": "validation failed"}`, "validation failed"},
		{"plain text", http.StatusNotFound, "Not Found", "Not Found"},
		{"json without error field", http.StatusForbidden, `{"message": "nope"}`, `{"message": "nope"}`},
		{"empty body", http.StatusInternalServerError, "", "(empty error body)"},
		{"multiple choices", http.StatusMultipleChoices, "", "status 300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer server.Close()

			client := newConnectedClient(t, server.URL)

			_, err := client.Get(context.Background(), "/profile", nil)

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected request error, got %v", err)
			}

			if reqErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, reqErr.StatusCode)
			}

			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("expected error to contain %q, got: %v", tt.contains, err)
			}
		})
	}
}

func TestRequest_InvalidJSONBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[1, 2`)
	}))
	defer server.Close()

	client := newConnectedClient(t, server.URL)

	_, err := client.Get(context.Background(), "/profile", nil)

	if StatusCode(err) != http.StatusOK {
		t.Fatalf("expected request error tagged 200, got %v", err)
	}
}

func TestRequest_PayloadPlacement(t *testing.T) {
	t.Parallel()

	var method, query string
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		query = r.URL.RawQuery
		body, _ = io.ReadAll(r.Body)
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer server.Close()

	client := newConnectedClient(t, server.URL)

	if _, err := client.Get(context.Background(), "/v2/matches", map[string]any{"count": 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method != http.MethodGet || query != "count=2" || len(body) != 0 {
		t.Errorf("expected GET with query count=2 and no body, got %s %q %q", method, query, body)
	}

	if _, err := client.Post(context.Background(), "/user/recs", map[string]any{"limit": 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("failed to parse JSON body %q: %v", body, err)
	}

	if method != http.MethodPost || query != "" {
		t.Errorf("expected POST without query, got %s %q", method, query)
	}

	if diff := cmp.Diff(map[string]any{"limit": float64(2)}, decoded); diff != "" {
		t.Errorf("unexpected body (-want +got):\n%s", diff)
	}
}

func TestRequest_ConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	client := newConnectedClient(t, server.URL)

	// Close server to cause connection error
	server.Close()

	_, err := client.Get(context.Background(), "/meta", nil)

	if err == nil {
		t.Fatal("expected error for request failure")
	}

	if !strings.Contains(err.Error(), "GET /meta") {
		t.Errorf("expected error to mention GET /meta, got: %v", err)
	}

	if IsRequestError(err) {
		t.Error("transport failures are not request errors")
	}
}

func TestRequest_UsesProxy(t *testing.T) {
	t.Parallel()

	var proxiedHost string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxiedHost = r.Host
		writeJSON(w, http.StatusOK, `{"via": "proxy"}`)
	}))
	defer proxy.Close()

	client := newConnectedClient(t, "http://api.tinder.invalid", WithProxy(proxy.URL))

	res, err := client.Meta(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res["via"] != "proxy" {
		t.Errorf("expected response from proxy, got %v", res)
	}

	if proxiedHost != "api.tinder.invalid" {
		t.Errorf("expected proxied host api.tinder.invalid, got %s", proxiedHost)
	}
}

func TestAuthenticate_Success(t *testing.T) {
	t.Parallel()

	var authBody map[string]any
	var tokenOnMeta string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth":
			_ = json.NewDecoder(r.Body).Decode(&authBody)
			writeJSON(w, http.StatusOK, `{"token": "fresh-token", "user": {"_id": "me"}}`)
		case "/meta":
			tokenOnMeta = r.Header.Get("X-Auth-Token")
			writeJSON(w, http.StatusOK, `{}`)
		}
	}))
	defer server.Close()

	client := New(server.URL, WithRetryCount(0))
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	res, err := client.Authenticate(context.Background(), "42", "fb-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{"facebook_id": "42", "facebook_token": "fb-token"}
	if diff := cmp.Diff(want, authBody); diff != "" {
		t.Errorf("unexpected auth body (-want +got):\n%s", diff)
	}

	if _, ok := res["user"]; !ok {
		t.Errorf("expected full response to be returned, got %v", res)
	}

	if client.Token() != "fresh-token" {
		t.Errorf("expected token=fresh-token, got %q", client.Token())
	}

	if _, err := client.Meta(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokenOnMeta != "fresh-token" {
		t.Errorf("expected X-Auth-Token=fresh-token, got %q", tokenOnMeta)
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"error": "bad facebook token"}`)
	}))
	defer server.Close()

	client := New(server.URL, WithRetryCount(0))
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	_, err := client.Authenticate(context.Background(), "42", "fb-token")

	if !IsRequestError(err) {
		t.Fatalf("expected request error, got %v", err)
	}

	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}

	if client.HasToken() {
		t.Error("expected no token after failed exchange")
	}

	if _, err := client.Meta(context.Background()); !IsInitializationError(err) {
		t.Errorf("expected initialization error after failed exchange, got %v", err)
	}
}

func TestAuthenticate_NotConnected(t *testing.T) {
	t.Parallel()

	_, err := New("http://example.com").Authenticate(context.Background(), "42", "fb")

	if !IsInitializationError(err) {
		t.Fatalf("expected initialization error, got %v", err)
	}
}
