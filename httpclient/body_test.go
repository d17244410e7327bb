package httpclient

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type failingReader struct {
	err error
}

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestWrappedBody(t *testing.T) {
	tests := []struct {
		name       string
		body       io.Reader
		consume    func(t *testing.T, b io.ReadCloser)
		wantBytes  int64
		wantStatus codes.Code
	}{
		{
			name: "given a body read to EOF, then ends the span once with the byte count",
			body: strings.NewReader("hello world"),
			consume: func(t *testing.T, b io.ReadCloser) {
				_, err := io.ReadAll(b)
				require.NoError(t, err)
				require.NoError(t, b.Close())
			},
			wantBytes:  11,
			wantStatus: codes.Unset,
		},
		{
			name: "given a body closed early, then ends the span with the partial count",
			body: strings.NewReader("hello world"),
			consume: func(t *testing.T, b io.ReadCloser) {
				buf := make([]byte, 5)
				_, err := io.ReadFull(b, buf)
				require.NoError(t, err)
				require.NoError(t, b.Close())
				require.NoError(t, b.Close())
			},
			wantBytes:  5,
			wantStatus: codes.Unset,
		},
		{
			name: "given a read error, then records it on the span",
			body: failingReader{err: errors.New("connection reset")},
			consume: func(t *testing.T, b io.ReadCloser) {
				_, err := b.Read(make([]byte, 8))
				require.Error(t, err)
				require.NoError(t, b.Close())
			},
			wantBytes:  0,
			wantStatus: codes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			defer func() { _ = tp.Shutdown(context.Background()) }()

			_, span := tp.Tracer("test").Start(context.Background(), "attempt")

			calls := 0
			var gotBytes int64
			body := newWrappedBody(span, io.NopCloser(tt.body), func(n int64, transfer time.Duration) {
				calls++
				gotBytes = n
				assert.GreaterOrEqual(t, transfer, time.Duration(0))
			})

			tt.consume(t, body)

			assert.Equal(t, 1, calls)
			assert.Equal(t, tt.wantBytes, gotBytes)
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)
		})
	}

	t.Run("given a nil body, then returns nil", func(t *testing.T) {
		assert.Nil(t, newWrappedBody(nil, nil, nil))
	})
}
