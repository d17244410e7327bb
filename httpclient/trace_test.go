package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http/httptrace"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "given nil, then empty", err: nil, want: ""},
		{name: "given context canceled, then cancelled", err: context.Canceled, want: ErrorTypeCancelled},
		{name: "given a wrapped deadline, then timeout", err: fmt.Errorf("get: %w", context.DeadlineExceeded), want: ErrorTypeTimeout},
		{name: "given a DNS error, then dns_error", err: &net.DNSError{Err: "no such host", Name: "x.test"}, want: ErrorTypeDNSError},
		{name: "given ECONNREFUSED, then connection_refused", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: ErrorTypeConnectionRefused},
		{name: "given ECONNRESET, then connection_reset", err: fmt.Errorf("read: %w", syscall.ECONNRESET), want: ErrorTypeConnectionReset},
		{name: "given unexpected EOF, then eof", err: io.ErrUnexpectedEOF, want: ErrorTypeEOF},
		{name: "given an x509 message, then tls_error", err: errors.New("x509: certificate signed by unknown authority"), want: ErrorTypeTLSError},
		{name: "given anything else, then unknown", err: errors.New("boom"), want: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}

func TestErrorTypeFromStatusCode(t *testing.T) {
	assert.Empty(t, errorTypeFromStatusCode(200))
	assert.Empty(t, errorTypeFromStatusCode(302))
	assert.Equal(t, "404", errorTypeFromStatusCode(404))
	assert.Equal(t, "503", errorTypeFromStatusCode(503))
}

func TestNetworkTrace(t *testing.T) {
	t.Run("given a full connection lifecycle, then adds events and timing metrics", func(t *testing.T) {
		nt := &networkTrace{}
		ct := nt.clientTrace()

		ct.DNSStart(httptrace.DNSStartInfo{Host: "a.test"})
		ct.DNSDone(httptrace.DNSDoneInfo{Addrs: []net.IPAddr{{IP: net.IPv4(127, 0, 0, 1)}}})
		ct.ConnectStart("tcp", "127.0.0.1:80")
		time.Sleep(time.Millisecond)
		ct.ConnectDone("tcp", "127.0.0.1:80", nil)
		ct.GotConn(httptrace.GotConnInfo{})
		ct.WroteRequest(httptrace.WroteRequestInfo{})
		time.Sleep(time.Millisecond)
		ct.GotFirstResponseByte()

		exporter := tracetest.NewInMemoryExporter()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		defer func() { _ = tp.Shutdown(context.Background()) }()

		_, span := tp.Tracer("test").Start(context.Background(), "attempt")
		nt.addTraceEvents(span)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		names := make([]string, 0, len(spans[0].Events))
		for _, e := range spans[0].Events {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{
			"dns.start", "dns.done",
			"connect.start", "connect.done",
			"got_conn", "wrote_request", "got_first_response_byte",
		}, names)

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()
		m, err := newMetrics(mp.Meter(scope))
		require.NoError(t, err)

		nt.recordTimingMetrics(context.Background(), m, nil)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		for _, name := range []string{
			"http.client.dns.duration",
			"http.client.connection.duration",
			"http.client.ttfb",
			"http.client.open_connections",
		} {
			_, ok := findMetric(rm, name)
			assert.True(t, ok, name)
		}
		_, ok := findMetric(rm, "http.client.tls.duration")
		assert.False(t, ok, "no TLS handshake happened")
	})

	t.Run("given nil metrics, then recording is a no-op", func(t *testing.T) {
		nt := &networkTrace{}
		assert.NotPanics(t, func() {
			nt.recordTimingMetrics(context.Background(), nil, nil)
		})
	})
}
