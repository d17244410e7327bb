package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http/httptrace"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Error type classifications for the error.type attribute.
const (
	ErrorTypeTimeout           = "timeout"
	ErrorTypeConnectionRefused = "connection_refused"
	ErrorTypeDNSError          = "dns_error"
	ErrorTypeTLSError          = "tls_error"
	ErrorTypeCancelled         = "cancelled"
	ErrorTypeConnectionReset   = "connection_reset"
	ErrorTypeEOF               = "eof"
	ErrorTypeUnknown           = "unknown"
)

// interval is a start/end pair filled by httptrace hooks.
type interval struct {
	start, end time.Time
}

func (i interval) complete() bool {
	return !i.start.IsZero() && !i.end.IsZero()
}

func (i interval) duration() time.Duration {
	return i.end.Sub(i.start)
}

func (i interval) millis() float64 {
	return float64(i.duration().Milliseconds())
}

// networkTrace holds timing data collected from httptrace.ClientTrace.
// Hooks may fire from transport goroutines, hence the mutex.
type networkTrace struct {
	mu sync.Mutex

	dns     interval
	connect interval
	tls     interval

	gotConn      time.Time
	wroteRequest time.Time
	firstByte    time.Time

	connReused bool
	connIdle   bool
	connRemote string
	tlsProto   string
	dnsAddrs   []string
}

// clientTrace creates an httptrace.ClientTrace that populates the trace.
func (nt *networkTrace) clientTrace() *httptrace.ClientTrace {
	now := func(dst *time.Time) {
		nt.mu.Lock()
		*dst = time.Now()
		nt.mu.Unlock()
	}

	return &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.gotConn = time.Now()
			nt.connReused = info.Reused
			nt.connIdle = info.WasIdle
			if info.Conn != nil && info.Conn.RemoteAddr() != nil {
				nt.connRemote = info.Conn.RemoteAddr().String()
			}
		},
		DNSStart: func(httptrace.DNSStartInfo) { now(&nt.dns.start) },
		DNSDone: func(info httptrace.DNSDoneInfo) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.dns.end = time.Now()
			for _, addr := range info.Addrs {
				nt.dnsAddrs = append(nt.dnsAddrs, addr.String())
			}
		},
		ConnectStart:      func(_, _ string) { now(&nt.connect.start) },
		ConnectDone:       func(_, _ string, _ error) { now(&nt.connect.end) },
		TLSHandshakeStart: func() { now(&nt.tls.start) },
		TLSHandshakeDone: func(state tls.ConnectionState, _ error) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.tls.end = time.Now()
			nt.tlsProto = state.NegotiatedProtocol
		},
		WroteRequest:         func(httptrace.WroteRequestInfo) { now(&nt.wroteRequest) },
		GotFirstResponseByte: func() { now(&nt.firstByte) },
	}
}

// addTraceEvents adds span events for network timing.
func (nt *networkTrace) addTraceEvents(span trace.Span) {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	if nt.dns.complete() {
		span.AddEvent("dns.start", trace.WithTimestamp(nt.dns.start))
		span.AddEvent("dns.done", trace.WithTimestamp(nt.dns.end),
			trace.WithAttributes(
				attribute.Float64("dns.duration_ms", nt.dns.millis()),
				attribute.StringSlice("dns.addresses", nt.dnsAddrs),
			))
	}

	if nt.connect.complete() {
		span.AddEvent("connect.start", trace.WithTimestamp(nt.connect.start))
		span.AddEvent("connect.done", trace.WithTimestamp(nt.connect.end),
			trace.WithAttributes(attribute.Float64("connect.duration_ms", nt.connect.millis())))
	}

	if nt.tls.complete() {
		span.AddEvent("tls.start", trace.WithTimestamp(nt.tls.start))
		span.AddEvent("tls.done", trace.WithTimestamp(nt.tls.end),
			trace.WithAttributes(
				attribute.Float64("tls.duration_ms", nt.tls.millis()),
				attribute.String("tls.protocol", nt.tlsProto),
			))
	}

	if !nt.gotConn.IsZero() {
		span.AddEvent("got_conn", trace.WithTimestamp(nt.gotConn),
			trace.WithAttributes(
				attribute.Bool("connection.reused", nt.connReused),
				attribute.Bool("connection.was_idle", nt.connIdle),
				attribute.String("network.peer.address", nt.connRemote),
			))
	}

	if !nt.wroteRequest.IsZero() {
		span.AddEvent("wrote_request", trace.WithTimestamp(nt.wroteRequest))
	}

	if !nt.firstByte.IsZero() {
		ttfb := interval{start: nt.wroteRequest, end: nt.firstByte}
		var ms float64
		if ttfb.complete() {
			ms = ttfb.millis()
		}
		span.AddEvent("got_first_response_byte", trace.WithTimestamp(nt.firstByte),
			trace.WithAttributes(attribute.Float64("ttfb_ms", ms)))
	}
}

// recordTimingMetrics records network timing metrics.
func (nt *networkTrace) recordTimingMetrics(
	ctx context.Context,
	m *metrics,
	attrs []attribute.KeyValue,
) {
	if m == nil {
		return
	}

	nt.mu.Lock()
	defer nt.mu.Unlock()

	if !nt.connReused && !nt.connect.start.IsZero() {
		m.recordConnectionOpened(ctx, attrs)
	}
	if nt.dns.complete() {
		m.recordDNSDuration(ctx, nt.dns.duration(), attrs)
	}
	if nt.connect.complete() {
		m.recordConnectionDuration(ctx, nt.connect.duration(), attrs)
	}
	if nt.tls.complete() {
		m.recordTLSDuration(ctx, nt.tls.duration(), attrs)
	}
	if ttfb := (interval{start: nt.wroteRequest, end: nt.firstByte}); ttfb.complete() {
		m.recordTTFB(ctx, ttfb.duration(), attrs)
	}
}

// classifyError returns an error.type classification for the given error.
func classifyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ErrorTypeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorTypeDNSError
	}

	var tlsRecordErr *tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &tlsRecordErr) || errors.As(err, &certErr) {
		return ErrorTypeTLSError
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return ErrorTypeConnectionRefused
	case errors.Is(err, syscall.ECONNRESET):
		return ErrorTypeConnectionReset
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ErrorTypeEOF
	}

	// Fallback for errors that lost their type on the way up.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return ErrorTypeTimeout
	case strings.Contains(msg, "connection refused"):
		return ErrorTypeConnectionRefused
	case strings.Contains(msg, "connection reset"):
		return ErrorTypeConnectionReset
	case strings.Contains(msg, "no such host"):
		return ErrorTypeDNSError
	case strings.Contains(msg, "tls"), strings.Contains(msg, "x509"), strings.Contains(msg, "certificate"):
		return ErrorTypeTLSError
	case strings.Contains(msg, "eof"):
		return ErrorTypeEOF
	}

	return ErrorTypeUnknown
}

// errorTypeFromStatusCode returns error.type for HTTP status codes.
// Per OTel semconv, the status code itself is used as the error type for 4xx/5xx.
func errorTypeFromStatusCode(statusCode int) string {
	if statusCode >= 400 {
		return strconv.Itoa(statusCode)
	}
	return ""
}

// setSpanError records an error on the span with proper status and attributes.
func setSpanError(span trace.Span, err error, errorType string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errorType != "" {
		span.SetAttributes(attribute.String("error.type", errorType))
	}
}
