package client

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultUserAgent mimics the official iOS app; the API rejects unknown agents.
	DefaultUserAgent = "Tinder/7.5.3 (iPhone; iOS 10.3.2; Scale/2.00)"

	defaultRateLimitDelay = 10 * time.Millisecond
	defaultTimeout        = 30 * time.Second
)

type Option func(*Options)

type Options struct {
	retryCount          int
	retryWaitTime       time.Duration
	retryMaxWaitTime    time.Duration
	rateLimitDelay      time.Duration
	maxRateLimitRetries int
	timeout             time.Duration
	requestLogger       RequestLogger
	retryPolicy         func(*resty.Response, error) bool
	requestHeaders      map[string]string
	proxyURL            string
	authToken           string
	pageTokenGenerator  func() (string, error)
	now                 func() time.Time
}

func newClientOptions() *Options {
	return &Options{
		retryCount:       3,
		retryWaitTime:    500 * time.Millisecond,
		retryMaxWaitTime: 3 * time.Second,
		rateLimitDelay:   defaultRateLimitDelay,
		timeout:          defaultTimeout,
		requestLogger:    &NoopLogger{},
		retryPolicy:      DefaultRetryPolicy,
		requestHeaders: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   DefaultUserAgent,
			"app_version":  "6.9.4",
			"platform":     "ios",
			"os_version":   "90000200001",
		},
		pageTokenGenerator: GeneratePageToken,
		now:                time.Now,
	}
}

// Validate checks the combined option values. It is called by [Client.Connect].
func (o *Options) Validate() error {
	if o.retryCount < 0 {
		return errors.New("retryCount must be non-negative")
	}

	if o.retryCount > 100 {
		return errors.New("retryCount must not exceed 100")
	}

	if o.retryWaitTime < 100*time.Millisecond {
		return errors.New("retryWaitTime must be at least 100ms")
	}

	if o.retryWaitTime > time.Minute {
		return fmt.Errorf("retryWaitTime must not exceed %v", time.Minute)
	}

	if o.retryMaxWaitTime < 100*time.Millisecond {
		return errors.New("retryMaxWaitTime must be at least 100ms")
	}

	if o.retryMaxWaitTime > 5*time.Minute {
		return fmt.Errorf("retryMaxWaitTime must not exceed %v", 5*time.Minute)
	}

	if o.retryMaxWaitTime < o.retryWaitTime {
		return fmt.Errorf("retryMaxWaitTime (%v) must be greater than or equal to retryWaitTime (%v)", o.retryMaxWaitTime, o.retryWaitTime)
	}

	if o.rateLimitDelay <= 0 || o.rateLimitDelay > time.Minute {
		return fmt.Errorf("rateLimitDelay must be between 0 and %v", time.Minute)
	}

	if o.maxRateLimitRetries < 0 {
		return errors.New("maxRateLimitRetries must be non-negative")
	}

	if o.timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if o.requestLogger == nil {
		return errors.New("requestLogger must not be nil")
	}

	if o.retryPolicy == nil {
		return errors.New("retryPolicy must not be nil")
	}

	if o.pageTokenGenerator == nil {
		return errors.New("pageTokenGenerator must not be nil")
	}

	if o.now == nil {
		return errors.New("clock must not be nil")
	}

	if o.proxyURL != "" {
		u, err := url.Parse(o.proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid proxy URL %q", o.proxyURL)
		}
	}

	return nil
}

func WithRetryCount(count int) Option {
	return func(o *Options) {
		if count >= 0 {
			o.retryCount = count
		}
	}
}

func WithRetryWaitTime(waitTime time.Duration) Option {
	return func(o *Options) {
		if waitTime >= 100*time.Millisecond {
			o.retryWaitTime = waitTime
		}
	}
}

func WithRetryMaxWaitTime(maxWaitTime time.Duration) Option {
	return func(o *Options) {
		if maxWaitTime >= 100*time.Millisecond {
			o.retryMaxWaitTime = maxWaitTime
		}
	}
}

// WithRateLimitDelay sets the fixed pause between attempts while the API
// answers 429. The default is 10ms.
func WithRateLimitDelay(delay time.Duration) Option {
	return func(o *Options) {
		if delay > 0 {
			o.rateLimitDelay = delay
		}
	}
}

// WithMaxRateLimitRetries bounds how many times a rate-limited request is
// re-issued. Zero, the default, retries until the context is done.
func WithMaxRateLimitRetries(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.maxRateLimitRetries = n
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

func WithRequestLogger(logger RequestLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.requestLogger = logger
		}
	}
}

func WithRetryPolicy(policy func(*resty.Response, error) bool) Option {
	return func(o *Options) {
		if policy != nil {
			o.retryPolicy = policy
		}
	}
}

func WithRequestHeader(header, value string) Option {
	return func(o *Options) {
		header = strings.TrimSpace(header)

		if header == "" || strings.EqualFold(header, "Content-Type") || strings.EqualFold(header, "Accept") ||
			strings.EqualFold(header, authTokenHeader) {
			return
		}

		o.requestHeaders[header] = value
	}
}

func WithUserAgent(userAgent string) Option {
	return func(o *Options) {
		userAgent = strings.TrimSpace(userAgent)
		if userAgent != "" {
			o.requestHeaders["User-Agent"] = userAgent
		}
	}
}

// WithProxy routes every call, including the identity exchange, through
// the given HTTP proxy.
func WithProxy(proxyURL string) Option {
	return func(o *Options) {
		o.proxyURL = strings.TrimSpace(proxyURL)
	}
}

// WithAuthToken installs a previously issued session token, so no identity
// exchange is needed.
func WithAuthToken(token string) Option {
	return func(o *Options) {
		o.authToken = strings.TrimSpace(token)
	}
}

func WithPageTokenGenerator(generator func() (string, error)) Option {
	return func(o *Options) {
		if generator != nil {
			o.pageTokenGenerator = generator
		}
	}
}

// WithClock replaces the time source used for rate-limit arithmetic.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.now = now
		}
	}
}
