package httpclient

import (
	"io"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// wrappedBody wraps an http.Response.Body so that the attempt span covers
// the body transfer:
//  1. Track the number of bytes read off the wire
//  2. Record read errors on the span
//  3. End the span when the body is closed or EOF is reached
//
// Redirect bodies are drained and closed by the dispatcher, so their spans
// end before the next hop starts.
type wrappedBody struct {
	span    trace.Span
	body    io.ReadCloser
	started time.Time
	read    atomic.Int64
	closed  atomic.Bool

	// onClose is called with total bytes read and the transfer duration
	// when the body is closed or exhausted.
	onClose func(bytesRead int64, transfer time.Duration)
}

// newWrappedBody creates a wrapped body that ends the span on close/EOF.
func newWrappedBody(
	span trace.Span,
	body io.ReadCloser,
	onClose func(bytesRead int64, transfer time.Duration),
) io.ReadCloser {
	if body == nil {
		return nil
	}

	return &wrappedBody{
		span:    span,
		body:    body,
		started: time.Now(),
		onClose: onClose,
	}
}

// Read reads from the underlying body, tracking bytes and errors.
func (w *wrappedBody) Read(p []byte) (int, error) {
	n, err := w.body.Read(p)
	w.read.Add(int64(n))

	switch err {
	case nil:
	case io.EOF:
		w.endSpan()
	default:
		w.span.RecordError(err)
		w.span.SetStatus(codes.Error, err.Error())
	}

	return n, err
}

// Close closes the underlying body and ends the span.
func (w *wrappedBody) Close() error {
	w.endSpan()
	return w.body.Close()
}

// endSpan ends the span exactly once and calls the onClose callback.
func (w *wrappedBody) endSpan() {
	if w.closed.CompareAndSwap(false, true) {
		if w.onClose != nil {
			w.onClose(w.read.Load(), time.Since(w.started))
		}
		w.span.End()
	}
}
