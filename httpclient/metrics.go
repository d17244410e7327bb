package httpclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for HTTP client operations.
// A nil *metrics is valid and records nothing.
type metrics struct {
	// === Request Duration & Size Metrics ===

	// requestDuration measures time to response headers per attempt.
	requestDuration metric.Float64Histogram

	// requestBodySize measures the size of request bodies with a known length.
	requestBodySize metric.Int64Histogram

	// responseBodySize measures the bytes read off the wire per response.
	responseBodySize metric.Int64Histogram

	// contentTransferDuration measures time from headers to the end of the body.
	contentTransferDuration metric.Float64Histogram

	// === Connection Metrics ===

	// openConnections counts newly dialed connections.
	openConnections metric.Int64UpDownCounter

	// connectionDuration measures time to establish a connection.
	connectionDuration metric.Float64Histogram

	// === Network Timing Metrics ===

	dnsDuration metric.Float64Histogram
	tlsDuration metric.Float64Histogram
	ttfb        metric.Float64Histogram

	// === Request Tracking ===

	// activeRequests tracks the number of in-flight attempts.
	activeRequests metric.Int64UpDownCounter

	// requestErrors counts transport errors by error type.
	requestErrors metric.Int64Counter

	// redirects counts redirects followed.
	redirects metric.Int64Counter

	// === Circuit Breaker Metrics ===

	// breakerRequests counts breaker outcomes (success, failure, rejected).
	breakerRequests metric.Int64Counter

	// breakerState reports the current breaker state
	// (0 closed, 1 half-open, 2 open).
	breakerState metric.Int64Gauge
}

var (
	latencyBuckets  = []float64{0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10}
	networkBuckets  = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	transferBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	sizeBuckets     = []float64{0, 100, 1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024}
)

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	seconds := func(name, desc string, buckets []float64) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...),
		)
		return h
	}
	bytes := func(name, desc string) metric.Int64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Int64Histogram
		h, err = meter.Int64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("By"),
			metric.WithExplicitBucketBoundaries(sizeBuckets...),
		)
		return h
	}

	m.requestDuration = seconds("http.client.request.duration",
		"Duration of HTTP client requests in seconds", latencyBuckets)
	m.contentTransferDuration = seconds("http.client.content_transfer.duration",
		"Response body download duration in seconds", transferBuckets)
	m.connectionDuration = seconds("http.client.connection.duration",
		"Time to establish HTTP connection in seconds", networkBuckets)
	m.dnsDuration = seconds("http.client.dns.duration",
		"DNS lookup duration in seconds", networkBuckets)
	m.tlsDuration = seconds("http.client.tls.duration",
		"TLS handshake duration in seconds", networkBuckets)
	m.ttfb = seconds("http.client.ttfb",
		"Time to first response byte in seconds", latencyBuckets)
	m.requestBodySize = bytes("http.client.request.body.size",
		"Size of HTTP client request bodies in bytes")
	m.responseBodySize = bytes("http.client.response.body.size",
		"Size of HTTP client response bodies in bytes")
	if err != nil {
		return nil, err
	}

	if m.openConnections, err = meter.Int64UpDownCounter(
		"http.client.open_connections",
		metric.WithDescription("Number of HTTP client connections opened"),
		metric.WithUnit("{connection}"),
	); err != nil {
		return nil, err
	}

	if m.activeRequests, err = meter.Int64UpDownCounter(
		"http.client.active_requests",
		metric.WithDescription("Number of active HTTP client requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.requestErrors, err = meter.Int64Counter(
		"http.client.request.error",
		metric.WithDescription("Number of HTTP client request errors"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.redirects, err = meter.Int64Counter(
		"http.client.redirects",
		metric.WithDescription("Number of redirects followed"),
		metric.WithUnit("{redirect}"),
	); err != nil {
		return nil, err
	}

	if m.breakerRequests, err = meter.Int64Counter(
		"http.client.breaker.requests",
		metric.WithDescription("Requests seen by the circuit breaker by outcome"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.breakerState, err = meter.Int64Gauge(
		"http.client.breaker.state",
		metric.WithDescription("Circuit breaker state: 0 closed, 1 half-open, 2 open"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func recordSeconds(ctx context.Context, h metric.Float64Histogram, d time.Duration, attrs []attribute.KeyValue) {
	if h == nil {
		return
	}
	h.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

func recordBytes(ctx context.Context, h metric.Int64Histogram, n int64, attrs []attribute.KeyValue) {
	if h == nil {
		return
	}
	h.Record(ctx, n, metric.WithAttributes(attrs...))
}

// recordRequestDuration records the duration of an HTTP request.
func (m *metrics) recordRequestDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	recordSeconds(ctx, m.requestDuration, d, attrs)
}

// recordRequestBodySize records the size of a request body.
func (m *metrics) recordRequestBodySize(ctx context.Context, size int64, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	recordBytes(ctx, m.requestBodySize, size, attrs)
}

// recordResponseBodySize records the size of a response body.
func (m *metrics) recordResponseBodySize(ctx context.Context, size int64, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	recordBytes(ctx, m.responseBodySize, size, attrs)
}

// recordContentTransferDuration records response body download duration.
func (m *metrics) recordContentTransferDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	recordSeconds(ctx, m.contentTransferDuration, d, attrs)
}

// recordConnectionOpened records a connection being opened.
func (m *metrics) recordConnectionOpened(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.openConnections == nil {
		return
	}
	m.openConnections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// recordConnectionDuration records the time to establish a connection.
func (m *metrics) recordConnectionDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	recordSeconds(ctx, m.connectionDuration, d, attrs)
}

// recordDNSDuration records the DNS lookup duration.
func (m *metrics) recordDNSDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	recordSeconds(ctx, m.dnsDuration, d, attrs)
}

// recordTLSDuration records the TLS handshake duration.
func (m *metrics) recordTLSDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	recordSeconds(ctx, m.tlsDuration, d, attrs)
}

// recordTTFB records Time To First Byte.
func (m *metrics) recordTTFB(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	recordSeconds(ctx, m.ttfb, d, attrs)
}

// recordActiveRequestStart records a request starting.
func (m *metrics) recordActiveRequestStart(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.activeRequests == nil {
		return
	}
	m.activeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// recordActiveRequestEnd records a request completing.
func (m *metrics) recordActiveRequestEnd(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.activeRequests == nil {
		return
	}
	m.activeRequests.Add(ctx, -1, metric.WithAttributes(attrs...))
}

// recordError records a request error.
func (m *metrics) recordError(ctx context.Context, errorType string, attrs []attribute.KeyValue) {
	if m == nil || m.requestErrors == nil {
		return
	}
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attrs...)
	allAttrs = append(allAttrs, attribute.String("error.type", errorType))
	m.requestErrors.Add(ctx, 1, metric.WithAttributes(allAttrs...))
}

// recordRedirect records a followed redirect with its status code.
func (m *metrics) recordRedirect(ctx context.Context, statusCode int, attrs []attribute.KeyValue) {
	if m == nil || m.redirects == nil {
		return
	}
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attrs...)
	allAttrs = append(allAttrs, attribute.Int("http.response.status_code", statusCode))
	m.redirects.Add(ctx, 1, metric.WithAttributes(allAttrs...))
}

// recordBreakerRequest records a circuit breaker outcome.
func (m *metrics) recordBreakerRequest(ctx context.Context, name, outcome string) {
	if m == nil || m.breakerRequests == nil {
		return
	}
	m.breakerRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", name),
		attribute.String("breaker.outcome", outcome),
	))
}

// recordBreakerState records a circuit breaker state transition.
func (m *metrics) recordBreakerState(ctx context.Context, name string, state int64) {
	if m == nil || m.breakerState == nil {
		return
	}
	m.breakerState.Record(ctx, state, metric.WithAttributes(attribute.String("breaker.name", name)))
}
