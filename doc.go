// Package client provides an HTTP client for the Tinder API.
//
// The client wraps [github.com/go-resty/resty/v2] with session token
// handling, rate-limit retries, and pluggable logging. [Session] builds
// lazy, range-over-func sequences on top of it.
//
// # Basic Usage
//
//	s, err := client.NewSession(ctx, "", client.Credentials{
//	    FacebookID:    "1234",
//	    FacebookToken: "EAAG...",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	for user, err := range s.Recommendations(ctx, 10) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(user)
//	}
//
// The transport can also be used directly:
//
//	c := client.New(client.DefaultBaseURL, client.WithAuthToken("my-token"))
//	if err := c.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	meta, err := c.Meta(ctx)
//
// # Configuration
//
// All configuration is supplied as [Option] functions passed to [New] or
// [NewSession]. Invalid values are silently ignored and the default is
// retained; all configuration is validated when [Client.Connect] is called.
//
// # Authentication
//
// A session token supplied with [WithAuthToken] (or [Credentials.XAuthToken])
// is used as is. Otherwise [Client.Authenticate] exchanges a Facebook
// identity for one. Every call except the exchange fails with an
// [InitializationError], before touching the network, while no token is set.
//
// # Retry Behaviour
//
// HTTP 429 responses are never returned to the caller: the request is
// re-issued after a fixed delay ([WithRateLimitDelay], 10ms by default)
// until another status arrives. The loop stops when the request context
// is done, or after [WithMaxRateLimitRetries] retries when a bound is set.
//
// Transient connection errors are retried by resty according to
// [DefaultRetryPolicy]. Supply a custom function via [WithRetryPolicy] to
// override this behaviour.
//
// # Errors
//
// Failures reported by the API are [RequestError] values carrying the HTTP
// status. [Client.Messages] and [Client.UserInfo] report a rejected call as
// a nil result instead, since it means the match or user was removed.
//
// # Logging
//
// Implement [RequestLogger] and supply it via [WithRequestLogger] to
// integrate with your logging library. The default [NoopLogger] discards
// all log output.
package client
