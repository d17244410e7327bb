package httpclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Response is the final response of a request.
//
// The body can be consumed in four ways that share one read position:
//   - Data, Text and JSON buffer the rest of the body and memoise it
//   - Consume returns it chunk by chunk
//   - Read, WriteTo and Pipe stream it
//   - Flush discards it
//
// Mixing them is allowed; a chunk delivered by one mode is never delivered
// again by another. Calls are serialised, so at most one read is in flight.
// Content-Encoding (gzip, deflate) is removed transparently in every mode.
//
// Once the body is exhausted, or after a read error or Close, the connection
// is released. Read errors are sticky: every later call returns the same
// error. Callers that do not read the body must call Flush or Close.
//
// Example - bulk:
//
//	resp, err := client.Get(ctx, url).End()
//	if err != nil {
//	    return err
//	}
//	var user User
//	err = resp.JSON(&user)
//
// Example - pull:
//
//	for {
//	    chunk, err := resp.Consume()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    process(chunk)
//	}
type Response struct {
	// StatusCode is the HTTP status code (e.g., 200, 404).
	StatusCode int

	// Status is the status line text (e.g., "200 OK").
	Status string

	// Header contains the response headers.
	Header http.Header

	// ContentEncoding is the coding removed from the body: identity, gzip
	// or deflate.
	ContentEncoding string

	// ContentLength is the length of the encoded body, or -1 if unknown.
	ContentLength int64

	request   *http.Request
	redirects int
	chunkSize int

	mu       sync.Mutex
	body     io.ReadCloser
	stream   io.Reader
	scratch  []byte
	done     bool
	err      error
	buffer   []byte
	memoised bool

	onDone func()
}

// newResponse wraps resp. It fails with ErrUnsupportedEncoding, before any
// body byte is read, when the body uses a coding the client cannot decode.
func newResponse(resp *http.Response, r *Request, redirects int, onDone func()) (*Response, error) {
	encoding, ok := normalizeEncoding(resp.Header.Get("Content-Encoding"))
	if !ok {
		return nil, newError(KindUnsupportedEncoding,
			"unsupported encoding "+encoding, resp.Request.URL, resp, nil)
	}

	body := resp.Body
	if body == nil {
		body = http.NoBody
	}

	cfg := r.client.config
	stream := decoder(body, encoding)
	stream = transcoder(stream, resp.Header.Get("Content-Type"), cfg.Logger)

	return &Response{
		StatusCode:      resp.StatusCode,
		Status:          resp.Status,
		Header:          resp.Header,
		ContentEncoding: encoding,
		ContentLength:   resp.ContentLength,
		request:         resp.Request,
		redirects:       redirects,
		chunkSize:       cfg.httpConfig.ChunkSize,
		body:            body,
		stream:          stream,
		onDone:          onDone,
	}, nil
}

// Data returns the rest of the body. The first call drains the body; later
// calls return the same bytes without reading.
func (r *Response) Data() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memoised {
		return r.buffer, nil
	}
	if r.err != nil {
		return nil, r.err
	}

	buf := make([]byte, 0, r.chunkSize)
	for !r.done {
		chunk, err := r.nextChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		buf = append(buf, chunk...)
	}

	r.buffer = buf
	r.memoised = true
	return r.buffer, nil
}

// Text returns the rest of the body as a string.
func (r *Response) Text() (string, error) {
	data, err := r.Data()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// JSON decodes the rest of the body into v.
func (r *Response) JSON(v any) error {
	data, err := r.Data()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("httpclient: decode json: %w", err)
	}
	return nil
}

// JSONPath queries the body with a GJSON path expression.
//
// Example:
//
//	id, err := resp.JSONPath("data.items.0.id")
//	fmt.Println(id.Int())
func (r *Response) JSONPath(path string) (gjson.Result, error) {
	data, err := r.Data()
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, errors.New("httpclient: response body is not valid JSON")
	}
	return gjson.GetBytes(data, path), nil
}

// Consume returns the next chunk of the body. It returns nil, io.EOF once
// the body is exhausted, and keeps doing so. Exactly one chunk is read per
// call; nothing is read ahead.
func (r *Response) Consume() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}
	return r.nextChunk()
}

// Flush discards the rest of the body, continuing from the current
// position. The connection is released when it returns.
func (r *Response) Flush() error {
	for {
		_, err := r.Consume()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Read implements io.Reader over the decoded body.
func (r *Response) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return 0, r.err
	}
	if r.done {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := r.stream.Read(p)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		r.finish()
		err = io.EOF
	default:
		r.fail(err)
	}
	return n, err
}

// WriteTo implements io.WriterTo, writing the rest of the body to w.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		chunk, err := r.Consume()
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}

		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
}

// Pipe writes the rest of the body to w.
//
// Example:
//
//	f, _ := os.Create("report.csv")
//	defer f.Close()
//	err := resp.Pipe(f)
func (r *Response) Pipe(w io.Writer) error {
	_, err := r.WriteTo(w)
	return err
}

// Close releases the body without reading it. Reads after Close return
// ErrResponseClosed unless the body was already exhausted. Close is
// idempotent.
func (r *Response) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.done {
		r.fail(ErrResponseClosed)
	}
	return nil
}

// Request returns the request that produced this response, after
// redirects. Its body has already been sent.
func (r *Response) Request() *http.Request {
	return r.request
}

// Redirects returns the number of redirects followed to reach this response.
func (r *Response) Redirects() int {
	return r.redirects
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect reports whether the status code is 3xx.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsError reports whether the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// nextChunk reads one chunk. Must be called with mu held and the response
// not done.
func (r *Response) nextChunk() ([]byte, error) {
	if r.scratch == nil {
		r.scratch = make([]byte, r.chunkSize)
	}
	for {
		n, err := r.stream.Read(r.scratch)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, r.scratch[:n])
			if errors.Is(err, io.EOF) {
				r.finish()
			} else if err != nil {
				// deliver the bytes; the error surfaces on the next call
				r.fail(err)
			}
			return chunk, nil
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			r.finish()
			return nil, io.EOF
		default:
			r.fail(err)
			return nil, err
		}
	}
}

func (r *Response) fail(err error) {
	r.err = err
	r.finish()
}

// finish moves to the terminal state and releases the connection.
func (r *Response) finish() {
	if r.done {
		return
	}
	r.done = true
	r.scratch = nil
	_ = r.body.Close()
	if r.onDone != nil {
		r.onDone()
	}
}
