package httpclient

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/kroma-labs/getpro/httpclient/content"
)

// bodySource produces the request body for one attempt. Every source can
// be opened again, so a redirected request re-sends the same bytes.
type bodySource interface {
	// open returns a fresh reader and the body length, or -1 if unknown.
	open() (io.ReadCloser, int64)
}

// bytesBody is an in-memory body (JSON, text, raw data).
type bytesBody []byte

func (b bytesBody) open() (io.ReadCloser, int64) {
	return io.NopCloser(bytes.NewReader(b)), int64(len(b))
}

// contentBody is a lazily encoded form or multipart body.
type contentBody struct {
	content *content.Content
}

func (b contentBody) open() (io.ReadCloser, int64) {
	return io.NopCloser(b.content.Open()), -1
}

// streamBody collects the bytes written through Request.Write. Writes are
// retained until the request resolves so that each attempt can read the
// body from the start. Readers block until more bytes are written or the
// write side is closed.
type streamBody struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

func newStreamBody() *streamBody {
	s := &streamBody{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Write appends p to the body.
func (s *streamBody) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}
	s.buf = append(s.buf, p...)
	s.cond.Broadcast()
	return len(p), nil
}

// Close ends the body. Readers get io.EOF once they caught up.
func (s *streamBody) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.cond.Broadcast()
	return nil
}

func (s *streamBody) open() (io.ReadCloser, int64) {
	return &streamCursor{body: s}, -1
}

// streamCursor reads a streamBody from offset zero. Closing it only
// detaches this reader; the body stays available for the next attempt.
type streamCursor struct {
	body     *streamBody
	off      int
	detached bool
}

func (c *streamCursor) Read(p []byte) (int, error) {
	s := c.body
	s.mu.Lock()
	defer s.mu.Unlock()

	for c.off >= len(s.buf) && !s.closed && !c.detached {
		s.cond.Wait()
	}

	if c.detached {
		return 0, io.ErrClosedPipe
	}
	if c.off >= len(s.buf) {
		return 0, io.EOF
	}

	n := copy(p, s.buf[c.off:])
	c.off += n
	return n, nil
}

func (c *streamCursor) Close() error {
	s := c.body
	s.mu.Lock()
	defer s.mu.Unlock()

	c.detached = true
	s.cond.Broadcast()
	return nil
}

// trackedBody remembers the first error produced by the body itself, so
// that an encoding failure is reported instead of the transport error it
// caused.
type trackedBody struct {
	rc io.ReadCloser

	mu  sync.Mutex
	err error
}

func (t *trackedBody) Read(p []byte) (int, error) {
	n, err := t.rc.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
		t.mu.Lock()
		if t.err == nil {
			t.err = err
		}
		t.mu.Unlock()
	}
	return n, err
}

func (t *trackedBody) Close() error {
	return t.rc.Close()
}

func (t *trackedBody) failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
