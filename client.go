package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.gotinder.com"

const authTokenHeader = "X-Auth-Token"

// Client is the transport for the dating API. It owns the HTTP session,
// the default headers and the session token.
//
// A Client serializes its calls: one request is in flight at a time, and
// the token header is never changed while a request is running.
type Client struct {
	mu        sync.Mutex
	baseURL   string
	options   *Options
	http      *resty.Client
	token     string
	connected bool
}

// New creates a Client for baseURL. Call [Client.Connect] before use.
func New(baseURL string, opts ...Option) *Client {
	options := newClientOptions()

	for _, o := range opts {
		o(options)
	}

	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		options: options,
	}
}

// Connect validates the options and prepares the HTTP session. It is safe
// to call more than once; only the first call has any effect.
//
// If a session token was supplied with [WithAuthToken] it is installed and
// the client is immediately ready for authenticated requests. Otherwise
// [Client.Authenticate] must succeed first.
func (c *Client) Connect(ctx context.Context) error {
	if c == nil {
		return newInitializationError("client is nil")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	if c.baseURL == "" {
		return errors.New("base URL must be set")
	}

	if err := c.options.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	h := resty.New().
		SetBaseURL(c.baseURL).
		SetHeaders(c.options.requestHeaders).
		SetTimeout(c.options.timeout).
		SetRetryCount(c.options.retryCount).
		SetRetryWaitTime(c.options.retryWaitTime).
		SetRetryMaxWaitTime(c.options.retryMaxWaitTime).
		AddRetryCondition(c.options.retryPolicy).
		SetLogger(c.options.requestLogger)

	if c.options.proxyURL != "" {
		h.SetProxy(c.options.proxyURL)
	}

	c.http = h
	c.connected = true

	if c.options.authToken != "" {
		c.setToken(c.options.authToken)
	}

	return nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.http != nil {
		c.http.GetClient().CloseIdleConnections()
	}

	return nil
}

// Token returns the current session token, or an empty string.
func (c *Client) Token() string {
	if c == nil {
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.token
}

// HasToken reports whether authenticated requests can be issued.
func (c *Client) HasToken() bool {
	return c.Token() != ""
}

// Authenticate exchanges a Facebook identity for a session token. This is
// the only call that does not require a token. On success the token is
// used for every later request and the full decoded response is returned.
func (c *Client) Authenticate(ctx context.Context, facebookID, facebookToken string) (map[string]any, error) {
	if c == nil {
		return nil, newInitializationError("client is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, newInitializationError("client not connected - call Connect() first")
	}

	payload := map[string]any{
		"facebook_id":    facebookID,
		"facebook_token": facebookToken,
	}

	resp, err := c.execute(ctx, http.MethodPost, "/auth", payload)
	if err != nil {
		return nil, err
	}

	result, err := decodeResponse(resp)
	if err != nil {
		return nil, err
	}

	token, _ := result["token"].(string)
	if token == "" {
		return nil, &RequestError{StatusCode: resp.StatusCode(), Err: ErrAuthenticationFailed}
	}

	c.setToken(token)
	c.options.requestLogger.Debugf("authenticated facebook identity %s", facebookID)

	return result, nil
}

// Request issues an authenticated call and returns the decoded JSON object.
//
// GET, DELETE and OPTIONS send payload as query parameters; POST sends it
// as a JSON body. While the API answers 429 the call is re-issued after a
// short fixed delay, until it gets another status, the context is done, or
// the [WithMaxRateLimitRetries] bound is reached. 201 and 204 responses
// yield an empty map without reading the body. Any other status outside
// 2xx is returned as a [RequestError].
func (c *Client) Request(ctx context.Context, method, path string, payload map[string]any) (map[string]any, error) {
	if c == nil {
		return nil, newInitializationError("client is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, newInitializationError("client not connected - call Connect() first")
	}

	if c.token == "" {
		return nil, newInitializationError("session token is not set - authenticate first")
	}

	resp, err := c.execute(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	return decodeResponse(resp)
}

func (c *Client) Get(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	return c.Request(ctx, http.MethodGet, path, payload)
}

func (c *Client) Post(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	return c.Request(ctx, http.MethodPost, path, payload)
}

func (c *Client) Options(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	return c.Request(ctx, http.MethodOptions, path, payload)
}

func (c *Client) Delete(ctx context.Context, path string) (map[string]any, error) {
	return c.Request(ctx, http.MethodDelete, path, nil)
}

// execute runs the rate-limit loop. The caller must hold c.mu.
func (c *Client) execute(ctx context.Context, method, path string, payload map[string]any) (*resty.Response, error) {
	logger := c.options.requestLogger

	for attempt := 0; ; attempt++ {
		logger.Debugf("%s %s (attempt %d)", method, path, attempt+1)

		resp, err := c.newRequest(ctx, method, payload).Execute(method, path)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}

		if resp.StatusCode() != http.StatusTooManyRequests {
			return resp, nil
		}

		if limit := c.options.maxRateLimitRetries; limit > 0 && attempt >= limit {
			logger.Warnf("%s %s still rate limited after %d retries", method, path, attempt)
			return nil, newStatusError(resp)
		}

		timer := time.NewTimer(c.options.rateLimitDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%s %s: %w", method, path, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) newRequest(ctx context.Context, method string, payload map[string]any) *resty.Request {
	req := c.http.R().SetContext(ctx)

	if method == http.MethodPost {
		if payload == nil {
			payload = map[string]any{}
		}
		return req.SetBody(payload)
	}

	if len(payload) > 0 {
		params := make(map[string]string, len(payload))
		for k, v := range payload {
			params[k] = fmt.Sprint(v)
		}
		req.SetQueryParams(params)
	}

	return req
}

// setToken must be called with c.mu held or before the client is shared.
func (c *Client) setToken(token string) {
	c.token = token
	c.http.SetHeader(authTokenHeader, token)
}

func decodeResponse(resp *resty.Response) (map[string]any, error) {
	status := resp.StatusCode()

	if status < 200 || status >= 300 {
		return nil, newStatusError(resp)
	}

	if status == http.StatusCreated || status == http.StatusNoContent {
		return map[string]any{}, nil
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return map[string]any{}, nil
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &RequestError{StatusCode: status, Message: "failed to decode response body", Err: err}
	}

	if result == nil {
		result = map[string]any{}
	}

	return result, nil
}

func newStatusError(resp *resty.Response) error {
	return &RequestError{
		StatusCode: resp.StatusCode(),
		Message:    errorMessage(resp.Body()),
	}
}

// errorMessage prefers the "error" field of a JSON body and falls back to
// the raw body.
func errorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "(empty error body)"
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.Error != "" {
		return payload.Error
	}

	return trimmed
}
