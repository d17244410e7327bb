package httpclient

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/getpro/httpclient"

	// DefaultMaxRedirects is the redirect budget of a request.
	DefaultMaxRedirects = 10

	// DefaultChunkSize is the largest chunk returned by Response.Consume.
	DefaultChunkSize = 32 * 1024

	defaultUserAgent = "getpro-go"
)

// =============================================================================
// Config - HTTP Transport Configuration
// =============================================================================

// Config holds the transport and redirect parameters of a Client.
// Use DefaultConfig() to get a properly initialized configuration,
// then modify specific fields as needed.
//
// Example:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Timeout = 5 * time.Second
//	cfg.MaxRedirects = 3
//
//	client := httpclient.New(
//	    httpclient.WithConfig(cfg),
//	    httpclient.WithServiceName("payment-service"),
//	)
type Config struct {
	// =======================================================================
	// Request Timeout
	// =======================================================================

	// Timeout bounds the whole request: every redirect hop plus reading the
	// final response body. The deadline is released once the Response is
	// fully consumed or closed.
	//
	// Zero means no timeout, which suits streamed downloads consumed with
	// Response.Consume. Set a value for plain API calls.
	//
	// Example: 15*time.Second for most API calls
	//
	// Default: 0 (no overall timeout)
	Timeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers
	// after the request is fully written. It applies to each redirect hop
	// separately and does not limit body download time.
	//
	// Example:
	//   - Fast APIs: 5s
	//   - Slow report endpoints: 60s
	//
	// Default: 30s
	ResponseHeaderTimeout time.Duration

	// TLSHandshakeTimeout is the maximum time to wait for a TLS handshake.
	//
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// ExpectContinueTimeout is how long to wait for a server's
	// "100 Continue" response when the request carries
	// "Expect: 100-continue".
	//
	// Default: 1s
	ExpectContinueTimeout time.Duration

	// =======================================================================
	// TCP Dial Settings
	// =======================================================================

	// DialTimeout is the maximum time to wait for a TCP connection
	// to be established (before TLS handshake).
	//
	// Example:
	//   - Internal services: 2-5s
	//   - External APIs: 5-10s
	//
	// Default: 5s
	DialTimeout time.Duration

	// KeepAlive specifies the TCP keep-alive probe interval.
	//
	// Default: 30s
	KeepAlive time.Duration

	// FallbackDelay is the RFC 6555 "Happy Eyeballs" delay for dual-stack
	// (IPv4/IPv6) connections. Set to negative to disable Happy Eyeballs.
	//
	// Default: 300ms
	FallbackDelay time.Duration

	// =======================================================================
	// Buffer Settings
	// =======================================================================

	// WriteBufferSize is the size of the write buffer for the connection.
	//
	// Default: 64KB
	WriteBufferSize int

	// ReadBufferSize is the size of the read buffer for the connection.
	//
	// Default: 64KB
	ReadBufferSize int

	// MaxResponseHeaderBytes limits the size of response headers.
	// Protects against malicious servers sending huge headers.
	//
	// Default: 0 (uses http.DefaultMaxHeaderBytes, ~1MB)
	MaxResponseHeaderBytes int64

	// =======================================================================
	// Redirects and Consumption
	// =======================================================================

	// MaxRedirects is the number of redirects a request may follow. The
	// redirect response that would exceed it fails with
	// ErrTooManyRedirects. Zero disables redirect following: any redirect
	// fails. Negative values are treated as zero.
	//
	// Default: 10
	MaxRedirects int

	// ChunkSize is the largest chunk returned by Response.Consume.
	//
	// Default: 32KB
	ChunkSize int
}

// DefaultConfig returns a balanced configuration suitable for most use cases.
//
// Example:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Timeout = 10 * time.Second
//	client := httpclient.New(httpclient.WithConfig(cfg))
func DefaultConfig() Config {
	return Config{
		// No overall deadline so streamed responses are not cut off
		Timeout: 0,

		// Per-hop timeouts
		ResponseHeaderTimeout: 30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		// TCP dial settings
		DialTimeout:   5 * time.Second,
		KeepAlive:     30 * time.Second,
		FallbackDelay: 300 * time.Millisecond,

		// Buffers (64KB for good throughput)
		WriteBufferSize: 64 * 1024,
		ReadBufferSize:  64 * 1024,

		MaxRedirects: DefaultMaxRedirects,
		ChunkSize:    DefaultChunkSize,
	}
}

// LowLatencyConfig returns a configuration for latency-sensitive callers.
//
// Key differences from DefaultConfig:
//   - A 5s overall timeout and 3s header timeout to fail fast
//   - Quick dial for fast failover
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithConfig(httpclient.LowLatencyConfig()),
//	    httpclient.WithServiceName("realtime-api"),
//	)
func LowLatencyConfig() Config {
	return Config{
		Timeout: 5 * time.Second,

		// Fast timeouts
		ResponseHeaderTimeout: 3 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 500 * time.Millisecond,

		// Quick dial
		DialTimeout:   2 * time.Second,
		KeepAlive:     15 * time.Second,
		FallbackDelay: 150 * time.Millisecond,

		// Standard buffers
		WriteBufferSize: 32 * 1024,
		ReadBufferSize:  32 * 1024,

		MaxRedirects: DefaultMaxRedirects,
		ChunkSize:    16 * 1024,
	}
}

// ConservativeConfig returns a resource-conscious configuration for
// constrained environments such as serverless functions or sidecars.
//
// Key differences from DefaultConfig:
//   - Smaller buffers and chunks to reduce memory per request
//   - A 30s overall timeout
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithConfig(httpclient.ConservativeConfig()),
//	    httpclient.WithServiceName("lambda-handler"),
//	)
func ConservativeConfig() Config {
	return Config{
		Timeout: 30 * time.Second,

		ResponseHeaderTimeout: 30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DialTimeout:   5 * time.Second,
		KeepAlive:     30 * time.Second,
		FallbackDelay: 300 * time.Millisecond,

		// Smaller buffers to save memory
		WriteBufferSize: 4 * 1024,
		ReadBufferSize:  4 * 1024,

		MaxRedirects: DefaultMaxRedirects,
		ChunkSize:    4 * 1024,
	}
}

// =============================================================================
// Internal Configuration
// =============================================================================

// internalConfig holds all configuration including HTTP transport and OTel settings.
type internalConfig struct {
	// HTTP transport configuration
	httpConfig Config

	// === OpenTelemetry Configuration ===

	// TracerProvider is the tracer provider to use.
	// If not set, uses the global provider via otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// MeterProvider is the meter provider to use.
	// If not set, uses the global provider via otel.GetMeterProvider().
	MeterProvider metric.MeterProvider

	// Tracer is the tracer instance created from TracerProvider.
	Tracer trace.Tracer

	// Meter is the meter instance created from MeterProvider.
	Meter metric.Meter

	// Metrics holds the metric instruments.
	Metrics *metrics

	// === Service Identification ===

	// ServiceName identifies the HTTP client in traces, metrics and as the
	// circuit breaker name.
	ServiceName string

	// === Logging ===

	// Logger receives request lifecycle events. Default: zerolog.Nop().
	Logger zerolog.Logger

	// Debug routes lifecycle events to the stdout debug logger at debug
	// level, including a cURL rendition of in-memory request bodies.
	Debug bool

	// === Request Defaults ===

	// DefaultHeaders are applied to every request before its own headers.
	DefaultHeaders http.Header

	// UserAgent is sent when the request sets none.
	UserAgent string

	// === Network Tracing ===

	// EnableNetworkTrace enables httptrace integration for detailed
	// network timing (DNS, TLS, Connect). Default: true
	EnableNetworkTrace bool

	// === Resilience ===

	// RateLimit enables client-side rate limiting when set.
	RateLimit *RateLimitConfig

	// BreakerConfig enables the circuit breaker when set.
	BreakerConfig *BreakerConfig

	// MockTransport replaces the network transport. Used in tests.
	MockTransport *MockTransport

	// === Advanced Settings ===

	// TLSConfig specifies the TLS configuration.
	// If nil, the default configuration is used.
	TLSConfig *tls.Config

	// ProxyURL specifies a proxy URL for requests.
	// If nil and ProxyFromEnvironment is true, uses environment variables.
	ProxyURL *url.URL

	// ProxyFromEnvironment uses HTTP_PROXY, HTTPS_PROXY and NO_PROXY
	// environment variables. Default: true
	ProxyFromEnvironment bool

	// === Request Filtering ===

	// Filters determine which requests should be traced.
	// If any filter returns false, the request is not traced.
	Filters []Filter

	// === Span Customization ===

	// SpanNameFormatter formats span names from request.
	// Default: "HTTP {method}"
	SpanNameFormatter SpanNameFormatter

	// SpanStartOptions are additional options applied when starting spans.
	SpanStartOptions []trace.SpanStartOption

	// MetricAttributesFn adds dynamic attributes to metrics based on request.
	MetricAttributesFn func(*http.Request) []attribute.KeyValue

	// === Context Propagation ===

	// Propagators configures the context propagators.
	// Default: TraceContext + Baggage (W3C standard)
	Propagators propagation.TextMapPropagator

	// ClientTrace provides a custom httptrace.ClientTrace factory that
	// replaces the built-in network tracing.
	ClientTrace func(context.Context) *httptrace.ClientTrace
}

// newConfig creates a new internal config with defaults and applies options.
func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:     DefaultConfig(),
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
		Logger:         zerolog.Nop(),
		DefaultHeaders: make(http.Header),
		UserAgent:      defaultUserAgent,

		// Defaults
		EnableNetworkTrace:   true,
		ProxyFromEnvironment: true,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Debug {
		cfg.Logger = debugLogger.Level(zerolog.DebugLevel)
	}
	if cfg.httpConfig.ChunkSize <= 0 {
		cfg.httpConfig.ChunkSize = DefaultChunkSize
	}
	if cfg.httpConfig.MaxRedirects < 0 {
		cfg.httpConfig.MaxRedirects = 0
	}

	// Initialize tracer and meter after options are applied
	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// Initialize metrics (ignore errors, will just be nil if fails)
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	return cfg
}

// buildTransport creates an http.Transport from the configuration.
//
// Compression is always disabled on the transport: Accept-Encoding is
// negotiated per request and the Response decodes the body itself.
// Redirects are never seen by net/http's client logic since the
// dispatcher calls the transport chain directly.
func (cfg *internalConfig) buildTransport() *http.Transport {
	hc := cfg.httpConfig

	dialer := &net.Dialer{
		Timeout:       hc.DialTimeout,
		KeepAlive:     hc.KeepAlive,
		FallbackDelay: hc.FallbackDelay,
	}

	transport := &http.Transport{
		DialContext:            dialer.DialContext,
		TLSHandshakeTimeout:    hc.TLSHandshakeTimeout,
		ResponseHeaderTimeout:  hc.ResponseHeaderTimeout,
		ExpectContinueTimeout:  hc.ExpectContinueTimeout,
		DisableCompression:     true,
		WriteBufferSize:        hc.WriteBufferSize,
		ReadBufferSize:         hc.ReadBufferSize,
		MaxResponseHeaderBytes: hc.MaxResponseHeaderBytes,
		TLSClientConfig:        cfg.TLSConfig,
	}

	// Configure proxy
	if cfg.ProxyURL != nil {
		transport.Proxy = http.ProxyURL(cfg.ProxyURL)
	} else if cfg.ProxyFromEnvironment {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return transport
}

// baseAttributes returns common attributes for all spans and metrics.
func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 1)
	if cfg.ServiceName != "" {
		attrs = append(attrs, attribute.String("http.client.name", cfg.ServiceName))
	}
	return attrs
}

// =============================================================================
// Options - Functional Options for Client Configuration
// =============================================================================

// Filter determines whether a request should be traced.
// Return true to trace the request, false to skip tracing.
// All filters must return true for a request to be traced.
//
// Common use cases:
//   - Skip health check endpoints: return !strings.HasPrefix(r.URL.Path, "/health")
//   - Skip internal endpoints: return r.URL.Host != "localhost"
type Filter func(r *http.Request) bool

// SpanNameFormatter formats span names based on the HTTP request.
//
// Default behavior produces: "HTTP {method}" (e.g., "HTTP GET")
//
// Example custom formatter:
//
//	func(method string, r *http.Request) string {
//	    return method + " " + r.URL.Path
//	}
type SpanNameFormatter func(method string, r *http.Request) string

// Option configures the HTTP client.
type Option func(*internalConfig)

// WithConfig sets the transport and redirect configuration.
// Use DefaultConfig(), LowLatencyConfig() or ConservativeConfig() as a
// starting point, then customize as needed.
//
// Example:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Timeout = 10 * time.Second
//
//	client := httpclient.New(
//	    httpclient.WithConfig(cfg),
//	)
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithMaxRedirects overrides Config.MaxRedirects.
//
// Example - never follow redirects, fail on them instead:
//
//	client := httpclient.New(httpclient.WithMaxRedirects(0))
func WithMaxRedirects(n int) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig.MaxRedirects = n
	}
}

// WithTimeout overrides Config.Timeout.
func WithTimeout(d time.Duration) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig.Timeout = d
	}
}

// WithServiceName sets an identifier for this HTTP client in traces.
// This value is added as the "http.client.name" attribute on all spans
// and metrics, and names the circuit breaker.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("order-service"),
//	)
//
//	// In your traces, you'll see:
//	//   Span: HTTP GET
//	//   └── http.client.name: order-service
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithLogger sets the logger receiving request lifecycle events
// (dispatch, redirects, rejections, responses).
//
// Example:
//
//	logger := zerolog.New(os.Stderr).With().Str("component", "billing").Logger()
//	client := httpclient.New(httpclient.WithLogger(logger))
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.Logger = logger
	}
}

// WithDebug logs every request and response to stdout at debug level.
// In-memory request bodies are also rendered as a cURL command.
// It takes precedence over WithLogger.
func WithDebug(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.Debug = enabled
	}
}

// WithDefaultHeader adds a header sent with every request. Request headers
// with the same name replace it.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithDefaultHeader("Authorization", "Bearer "+token),
//	)
func WithDefaultHeader(key, value string) Option {
	return func(cfg *internalConfig) {
		cfg.DefaultHeaders.Add(key, value)
	}
}

// WithDefaultHeaders adds several default headers at once.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(cfg *internalConfig) {
		for k, v := range headers {
			cfg.DefaultHeaders.Set(k, v)
		}
	}
}

// WithUserAgent sets the User-Agent sent when a request sets none.
func WithUserAgent(ua string) Option {
	return func(cfg *internalConfig) {
		cfg.UserAgent = ua
	}
}

// WithTracerProvider sets a custom OpenTelemetry TracerProvider.
// If not called, the global provider from otel.GetTracerProvider() is used.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	)
//
//	client := httpclient.New(
//	    httpclient.WithTracerProvider(tp),
//	    httpclient.WithServiceName("my-service"),
//	)
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom OpenTelemetry MeterProvider.
// If not called, the global provider from otel.GetMeterProvider() is used.
//
// Example:
//
//	mp := sdkmetric.NewMeterProvider(
//	    sdkmetric.WithReader(periodicReader),
//	)
//
//	client := httpclient.New(
//	    httpclient.WithMeterProvider(mp),
//	)
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		cfg.MeterProvider = mp
	}
}

// WithTLSConfig sets a custom TLS configuration.
// Use this for custom certificate verification, client certificates (mTLS),
// or specific TLS version requirements.
//
// Example - Mutual TLS with client certificate:
//
//	cert, _ := tls.LoadX509KeyPair("client.crt", "client.key")
//	client := httpclient.New(
//	    httpclient.WithTLSConfig(&tls.Config{
//	        Certificates: []tls.Certificate{cert},
//	    }),
//	)
func WithTLSConfig(tlsCfg *tls.Config) Option {
	return func(cfg *internalConfig) {
		cfg.TLSConfig = tlsCfg
	}
}

// WithProxyURL sets a specific proxy URL for all requests.
// When set, this takes precedence over environment variables.
func WithProxyURL(proxyURL *url.URL) Option {
	return func(cfg *internalConfig) {
		cfg.ProxyURL = proxyURL
		cfg.ProxyFromEnvironment = false
	}
}

// WithProxyFromEnvironment enables or disables reading proxy settings
// from environment variables (HTTP_PROXY, HTTPS_PROXY, NO_PROXY).
//
// Default: true (environment variables are used)
func WithProxyFromEnvironment(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.ProxyFromEnvironment = enabled
	}
}

// WithDisableNetworkTrace disables the httptrace integration that provides
// detailed network-level timing (DNS lookup, TLS handshake, connection time).
//
// Default: Network tracing is enabled
func WithDisableNetworkTrace() Option {
	return func(cfg *internalConfig) {
		cfg.EnableNetworkTrace = false
	}
}

// WithFilter adds a filter to determine which requests should be traced.
// Untraced requests still record metrics.
// Multiple filters can be added by calling WithFilter multiple times.
//
// Example - Skip health checks:
//
//	client := httpclient.New(
//	    httpclient.WithFilter(func(r *http.Request) bool {
//	        return !strings.HasPrefix(r.URL.Path, "/health")
//	    }),
//	)
func WithFilter(f Filter) Option {
	return func(cfg *internalConfig) {
		cfg.Filters = append(cfg.Filters, f)
	}
}

// WithSpanNameFormatter sets a custom function to generate span names.
// The default formatter produces "HTTP {method}" (e.g., "HTTP GET").
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithSpanNameFormatter(func(method string, r *http.Request) string {
//	        return method + " " + r.URL.Path
//	    }),
//	)
func WithSpanNameFormatter(f SpanNameFormatter) Option {
	return func(cfg *internalConfig) {
		cfg.SpanNameFormatter = f
	}
}

// WithSpanOptions adds trace.SpanStartOption to each new span.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithSpanOptions(
//	        trace.WithAttributes(attribute.String("team", "platform")),
//	    ),
//	)
func WithSpanOptions(opts ...trace.SpanStartOption) Option {
	return func(cfg *internalConfig) {
		cfg.SpanStartOptions = append(cfg.SpanStartOptions, opts...)
	}
}

// WithMetricAttributesFn sets a function to add dynamic attributes to metrics.
// The function is called for each attempt, redirects included.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
//	        return []attribute.KeyValue{
//	            attribute.String("tenant", r.Header.Get("X-Tenant-ID")),
//	        }
//	    }),
//	)
func WithMetricAttributesFn(f func(*http.Request) []attribute.KeyValue) Option {
	return func(cfg *internalConfig) {
		cfg.MetricAttributesFn = f
	}
}

// WithPropagators sets custom context propagators for trace context injection.
// By default, W3C TraceContext and Baggage propagators are used.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *internalConfig) {
		cfg.Propagators = p
	}
}

// WithClientTrace sets a custom httptrace.ClientTrace factory.
// This completely replaces the built-in network tracing when provided.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
//	        return &httptrace.ClientTrace{
//	            DNSStart: func(info httptrace.DNSStartInfo) {
//	                log.Printf("DNS lookup: %s", info.Host)
//	            },
//	        }
//	    }),
//	)
func WithClientTrace(f func(context.Context) *httptrace.ClientTrace) Option {
	return func(cfg *internalConfig) {
		cfg.ClientTrace = f
	}
}

// WithRateLimit limits the rate at which the client sends requests. Every
// redirect hop takes a token.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithRateLimit(httpclient.DefaultRateLimitConfig()),
//	)
func WithRateLimit(rl RateLimitConfig) Option {
	return func(cfg *internalConfig) {
		cfg.RateLimit = &rl
	}
}

// WithBreaker enables the circuit breaker.
//
// Example - share breaker state across instances through Redis:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	client := httpclient.New(
//	    httpclient.WithServiceName("inventory"),
//	    httpclient.WithBreaker(httpclient.DistributedBreakerConfig(httpclient.NewRedisStore(rdb))),
//	)
func WithBreaker(bc BreakerConfig) Option {
	return func(cfg *internalConfig) {
		cfg.BreakerConfig = &bc
	}
}

// =============================================================================
// Request Options
// =============================================================================

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	header      http.Header
	failOnError bool
	acceptGzip  bool
}

func newRequestOptions(opts ...RequestOption) requestOptions {
	o := requestOptions{
		header:      make(http.Header),
		failOnError: true,
		acceptGzip:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Set(key, value)
	}
}

// WithHeaders sets several request headers.
//
// Example:
//
//	resp, err := httpclient.Get(ctx, url, httpclient.WithHeaders(map[string]string{
//	    "Accept":        "application/json",
//	    "Authorization": "Bearer " + token,
//	}))
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		for k, v := range headers {
			o.header.Set(k, v)
		}
	}
}

// WithFailOnError controls status handling. When enabled (the default) a
// final status outside 2xx fails the request with ErrStatus and redirects
// are followed. When disabled, the first response is returned whatever its
// status, redirects included.
func WithFailOnError(enabled bool) RequestOption {
	return func(o *requestOptions) {
		o.failOnError = enabled
	}
}

// WithAcceptGzip controls compression negotiation. When enabled (the
// default) and the request has no Accept-Encoding header,
// "Accept-Encoding: gzip, deflate" is sent.
func WithAcceptGzip(enabled bool) RequestOption {
	return func(o *requestOptions) {
		o.acceptGzip = enabled
	}
}
