package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface check.
var _ http.RoundTripper = (*otelTransport)(nil)

type resendCountKey struct{}

// withResendCount records how many redirects were followed before the
// attempt carried by ctx.
func withResendCount(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, resendCountKey{}, n)
}

func resendCount(ctx context.Context) int {
	n, _ := ctx.Value(resendCountKey{}).(int)
	return n
}

// otelTransport wraps an http.RoundTripper with OpenTelemetry instrumentation.
// Each attempt, redirect hops included, gets its own client span which
// stays open until the response body is closed or exhausted.
type otelTransport struct {
	base       http.RoundTripper
	cfg        *internalConfig
	propagator propagation.TextMapPropagator
}

// newOtelTransport creates a new instrumented transport.
func newOtelTransport(base http.RoundTripper, cfg *internalConfig) *otelTransport {
	p := cfg.Propagators
	if p == nil {
		p = propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)
	}
	return &otelTransport{
		base:       base,
		cfg:        cfg,
		propagator: p,
	}
}

// RoundTrip implements http.RoundTripper with full tracing and metrics.
func (t *otelTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()

	var span trace.Span
	if t.traced(req) {
		opts := make([]trace.SpanStartOption, 0, len(t.cfg.SpanStartOptions)+2)
		opts = append(opts,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(t.requestAttributes(req)...),
		)
		opts = append(opts, t.cfg.SpanStartOptions...)
		ctx, span = t.cfg.Tracer.Start(ctx, t.spanName(req), opts...)
	} else {
		// non-recording; ending it is a no-op
		span = trace.SpanFromContext(context.Background())
	}

	// Track active requests
	baseAttrs := t.cfg.baseAttributes()
	t.cfg.Metrics.recordActiveRequestStart(ctx, baseAttrs)
	defer t.cfg.Metrics.recordActiveRequestEnd(ctx, baseAttrs)

	if req.ContentLength > 0 {
		t.cfg.Metrics.recordRequestBodySize(ctx, req.ContentLength, baseAttrs)
	}

	var nt *networkTrace
	switch {
	case t.cfg.ClientTrace != nil:
		ctx = httptrace.WithClientTrace(ctx, t.cfg.ClientTrace(ctx))
	case t.cfg.EnableNetworkTrace:
		nt = &networkTrace{}
		ctx = httptrace.WithClientTrace(ctx, nt.clientTrace())
	}

	// The caller may re-send its headers on the next hop; inject into a copy.
	req = req.WithContext(ctx)
	req.Header = req.Header.Clone()
	t.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if nt != nil {
		nt.addTraceEvents(span)
		nt.recordTimingMetrics(ctx, t.cfg.Metrics, baseAttrs)
	}

	if err != nil {
		errorType := classifyError(err)
		setSpanError(span, err, errorType)
		span.End()
		t.cfg.Metrics.recordError(ctx, errorType, baseAttrs)
		t.cfg.Metrics.recordRequestDuration(ctx, duration, t.metricsAttributes(req, nil, errorType))
		return nil, err
	}

	span.SetAttributes(t.responseAttributes(resp)...)
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		span.SetAttributes(attribute.String("error.type", errorTypeFromStatusCode(resp.StatusCode)))
	}

	t.cfg.Metrics.recordRequestDuration(ctx, duration, t.metricsAttributes(req, resp, ""))

	if resp.Body == nil {
		span.End()
		return resp, nil
	}

	metricCtx := context.WithoutCancel(ctx)
	resp.Body = newWrappedBody(span, resp.Body, func(n int64, transfer time.Duration) {
		t.cfg.Metrics.recordResponseBodySize(metricCtx, n, baseAttrs)
		t.cfg.Metrics.recordContentTransferDuration(metricCtx, transfer, baseAttrs)
	})

	return resp, nil
}

func (t *otelTransport) traced(req *http.Request) bool {
	for _, f := range t.cfg.Filters {
		if !f(req) {
			return false
		}
	}
	return true
}

func (t *otelTransport) spanName(req *http.Request) string {
	if t.cfg.SpanNameFormatter != nil {
		return t.cfg.SpanNameFormatter(req.Method, req)
	}
	return "HTTP " + req.Method
}

// serverAttributes returns server.address and server.port for the target.
func serverAttributes(req *http.Request) []attribute.KeyValue {
	if req.URL == nil {
		return nil
	}

	attrs := make([]attribute.KeyValue, 0, 2)
	if host := req.URL.Hostname(); host != "" {
		attrs = append(attrs, attribute.String("server.address", host))
	}

	if port := req.URL.Port(); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			attrs = append(attrs, attribute.Int("server.port", p))
		}
		return attrs
	}

	switch req.URL.Scheme {
	case "http":
		attrs = append(attrs, attribute.Int("server.port", 80))
	case "https":
		attrs = append(attrs, attribute.Int("server.port", 443))
	}
	return attrs
}

// requestAttributes returns span attributes for the request.
func (t *otelTransport) requestAttributes(req *http.Request) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 10)
	attrs = append(attrs, t.cfg.baseAttributes()...)
	attrs = append(attrs, attribute.String("http.request.method", req.Method))

	if req.URL != nil {
		attrs = append(attrs,
			attribute.String("url.full", req.URL.Redacted()),
			attribute.String("url.scheme", req.URL.Scheme),
		)
	}
	attrs = append(attrs, serverAttributes(req)...)

	if n := resendCount(req.Context()); n > 0 {
		attrs = append(attrs, attribute.Int("http.request.resend_count", n))
	}

	if req.ContentLength > 0 {
		attrs = append(attrs, attribute.Int64("http.request.body.size", req.ContentLength))
	}

	if ua := req.UserAgent(); ua != "" {
		attrs = append(attrs, attribute.String("user_agent.original", ua))
	}

	return attrs
}

// responseAttributes returns span attributes for the response.
func (t *otelTransport) responseAttributes(resp *http.Response) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	attrs = append(attrs, attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.ContentLength > 0 {
		attrs = append(attrs, attribute.Int64("http.response.body.size", resp.ContentLength))
	}

	if resp.ProtoMajor > 0 {
		version := strconv.Itoa(resp.ProtoMajor)
		if resp.ProtoMajor == 1 {
			version += "." + strconv.Itoa(resp.ProtoMinor)
		}
		attrs = append(attrs, attribute.String("network.protocol.version", version))
	}

	return attrs
}

// metricsAttributes returns attributes for the duration metric. resp is nil
// when the attempt failed with errorType.
func (t *otelTransport) metricsAttributes(
	req *http.Request,
	resp *http.Response,
	errorType string,
) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs, t.cfg.baseAttributes()...)
	attrs = append(attrs, attribute.String("http.request.method", req.Method))
	attrs = append(attrs, serverAttributes(req)...)

	if resp != nil {
		attrs = append(attrs, attribute.Int("http.response.status_code", resp.StatusCode))
		errorType = errorTypeFromStatusCode(resp.StatusCode)
	}
	if errorType != "" {
		attrs = append(attrs, attribute.String("error.type", errorType))
	}

	if t.cfg.MetricAttributesFn != nil {
		attrs = append(attrs, t.cfg.MetricAttributesFn(req)...)
	}

	return attrs
}
