package httpclient

import (
	"context"
	"net/http"
	"sync"
)

// Client sends requests built with its verb methods.
//
// Each request is sent through the client's transport chain: the network
// transport (or a MockTransport), then optional rate limiting and circuit
// breaking, then OpenTelemetry instrumentation. The client follows
// redirects and decodes compressed responses itself.
//
// A Client is safe for concurrent use.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("payment-service"),
//	    httpclient.WithTimeout(10*time.Second),
//	)
//
//	resp, err := client.Post(ctx, "https://api.example.com/payments").JSON(payment)
//	if err != nil {
//	    return err
//	}
//	var receipt Receipt
//	err = resp.JSON(&receipt)
type Client struct {
	// transport is the instrumented transport chain.
	transport http.RoundTripper

	// config holds all client configuration.
	config *internalConfig
}

// New creates a Client with OpenTelemetry instrumentation.
//
// Example - rate limited and circuit broken:
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("inventory"),
//	    httpclient.WithRateLimit(httpclient.RateLimitConfig{RequestsPerSecond: 50, Burst: 5, WaitOnLimit: true}),
//	    httpclient.WithBreaker(httpclient.DefaultBreakerConfig()),
//	)
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)

	var base http.RoundTripper = cfg.buildTransport()
	if cfg.MockTransport != nil {
		base = cfg.MockTransport
	}

	return newClient(base, cfg)
}

// NewWithTransport creates a Client using a custom base transport. Rate
// limiting, circuit breaking and instrumentation are layered on top of it.
//
// The base transport should not decompress bodies itself; with
// http.Transport, set DisableCompression.
//
// Example:
//
//	transport := &http.Transport{
//	    MaxIdleConnsPerHost: 50,
//	    DisableCompression:  true,
//	}
//	client := httpclient.NewWithTransport(transport,
//	    httpclient.WithServiceName("my-service"),
//	)
func NewWithTransport(base http.RoundTripper, opts ...Option) *Client {
	cfg := newConfig(opts...)
	if base == nil {
		base = cfg.buildTransport()
	}
	return newClient(base, cfg)
}

func newClient(base http.RoundTripper, cfg *internalConfig) *Client {
	limited := newRateLimitTransport(base, cfg.RateLimit)
	guarded := newCircuitBreakerTransport(limited, cfg)

	return &Client{
		transport: newOtelTransport(guarded, cfg),
		config:    cfg,
	}
}

// NewTransport creates an instrumented http.RoundTripper that can be used
// with a custom http.Client.
//
// Example:
//
//	transport := httpclient.NewTransport(http.DefaultTransport,
//	    httpclient.WithServiceName("my-service"),
//	)
//	client := &http.Client{
//	    Transport: transport,
//	    Timeout:   30 * time.Second,
//	}
func NewTransport(base http.RoundTripper, opts ...Option) http.RoundTripper {
	cfg := newConfig(opts...)
	return newOtelTransport(base, cfg)
}

// HTTP returns an *http.Client sharing this client's transport chain, for
// third-party libraries that expect one. It does not follow redirects and
// does not decode compressed bodies.
//
// Example:
//
//	rawClient := client.HTTP()
//	resp, err := rawClient.Do(req)
func (c *Client) HTTP() *http.Client {
	return &http.Client{
		Transport: c.transport,
		Timeout:   c.config.httpConfig.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// NewRequest creates a request with an arbitrary method. The request is sent
// when a body is attached or End is called.
func (c *Client) NewRequest(ctx context.Context, method, url string, opts ...RequestOption) *Request {
	return newRequest(ctx, c, method, url, opts...)
}

// Get creates a GET request.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) *Request {
	return c.NewRequest(ctx, http.MethodGet, url, opts...)
}

// Head creates a HEAD request.
func (c *Client) Head(ctx context.Context, url string, opts ...RequestOption) *Request {
	return c.NewRequest(ctx, http.MethodHead, url, opts...)
}

// Post creates a POST request.
func (c *Client) Post(ctx context.Context, url string, opts ...RequestOption) *Request {
	return c.NewRequest(ctx, http.MethodPost, url, opts...)
}

// Put creates a PUT request.
func (c *Client) Put(ctx context.Context, url string, opts ...RequestOption) *Request {
	return c.NewRequest(ctx, http.MethodPut, url, opts...)
}

// Patch creates a PATCH request.
func (c *Client) Patch(ctx context.Context, url string, opts ...RequestOption) *Request {
	return c.NewRequest(ctx, http.MethodPatch, url, opts...)
}

// Delete creates a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) *Request {
	return c.NewRequest(ctx, http.MethodDelete, url, opts...)
}

var defaultClient = sync.OnceValue(func() *Client {
	return New()
})

// DefaultClient returns the shared client used by the package-level
// functions. It is created with default options on first use.
func DefaultClient() *Client {
	return defaultClient()
}

// Get sends a GET request with the default client and waits for the
// response.
//
// Example:
//
//	resp, err := httpclient.Get(ctx, "https://example.com/status")
//	if err != nil {
//	    return err
//	}
//	body, err := resp.Text()
func Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return DefaultClient().Get(ctx, url, opts...).End()
}
