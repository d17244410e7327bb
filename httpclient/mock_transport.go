package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// MockTransport is an http.RoundTripper for tests. It answers requests from
// stubs, first match wins, and records every request it sees together with
// its body.
//
// Example:
//
//	mock := httpclient.NewMockTransport().
//	    StubRedirect("/old", http.StatusMovedPermanently, "/new").
//	    StubPath("/new", http.StatusOK, `{"id":1}`)
//	client := httpclient.New(httpclient.WithMockTransport(mock))
//
//	resp, err := client.Get(ctx, "http://api.test/old").End()
type MockTransport struct {
	mu          sync.RWMutex
	stubs       []stub
	fallback    responder
	requests    []*http.Request
	bodies      [][]byte
	requestHook func(*http.Request)
}

// responder builds the answer for one request.
type responder func(req *http.Request) (*http.Response, error)

type stub struct {
	matcher func(*http.Request) bool
	respond responder
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// StubResponse answers every request no stub matches.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = fixed(statusCode, nil, []byte(body))
	return m
}

// StubError fails every request no stub matches.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = failing(err)
	return m
}

// StubPath answers requests for path.
func (m *MockTransport) StubPath(path string, statusCode int, body string) *MockTransport {
	return m.StubFunc(matchPath(path), statusCode, body)
}

// StubPathRegex answers requests whose path matches pattern.
func (m *MockTransport) StubPathRegex(pattern string, statusCode int, body string) *MockTransport {
	re := regexp.MustCompile(pattern)
	return m.StubFunc(func(req *http.Request) bool {
		return re.MatchString(req.URL.Path)
	}, statusCode, body)
}

// StubMethod answers requests with method.
func (m *MockTransport) StubMethod(method string, statusCode int, body string) *MockTransport {
	return m.StubFunc(func(req *http.Request) bool {
		return req.Method == method
	}, statusCode, body)
}

// StubFunc answers requests matching the predicate.
func (m *MockTransport) StubFunc(
	matcher func(*http.Request) bool,
	statusCode int,
	body string,
) *MockTransport {
	return m.add(matcher, fixed(statusCode, nil, []byte(body)))
}

// StubFuncError fails requests matching the predicate with err.
func (m *MockTransport) StubFuncError(matcher func(*http.Request) bool, err error) *MockTransport {
	return m.add(matcher, failing(err))
}

// StubHeader answers requests for path with the given headers.
func (m *MockTransport) StubHeader(path string, statusCode int, header http.Header, body string) *MockTransport {
	return m.add(matchPath(path), fixed(statusCode, header, []byte(body)))
}

// StubRedirect answers requests for path with a redirect to location. An
// empty location sends a redirect without a Location header.
func (m *MockTransport) StubRedirect(path string, statusCode int, location string) *MockTransport {
	header := make(http.Header)
	if location != "" {
		header.Set("Location", location)
	}
	return m.add(matchPath(path), fixed(statusCode, header, nil))
}

// StubCompressed answers requests for path with body compressed with
// encoding, "gzip" or "deflate", and the matching Content-Encoding header.
func (m *MockTransport) StubCompressed(path string, statusCode int, encoding, body string) *MockTransport {
	compressed, err := compress(encoding, []byte(body))
	if err != nil {
		return m.add(matchPath(path), failing(err))
	}

	header := make(http.Header)
	header.Set("Content-Encoding", encoding)
	return m.add(matchPath(path), fixed(statusCode, header, compressed))
}

// StubHandler answers requests matching the predicate with fn.
func (m *MockTransport) StubHandler(
	matcher func(*http.Request) bool,
	fn func(*http.Request) (*http.Response, error),
) *MockTransport {
	return m.add(matcher, fn)
}

// OnRequest sets a hook called for each request after its body has been
// recorded.
func (m *MockTransport) OnRequest(fn func(*http.Request)) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestHook = fn
	return m
}

func (m *MockTransport) add(matcher func(*http.Request) bool, respond responder) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{matcher: matcher, respond: respond})
	return m
}

// RoundTrip implements http.RoundTripper. The request body is read to the
// end and closed, as a real transport would.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	recorded := req.Clone(req.Context())
	recorded.Body = io.NopCloser(bytes.NewReader(body))

	m.mu.Lock()
	m.requests = append(m.requests, recorded)
	m.bodies = append(m.bodies, body)
	hook := m.requestHook
	m.mu.Unlock()

	if hook != nil {
		hook(recorded)
	}

	m.mu.RLock()
	respond := m.fallback
	for _, s := range m.stubs {
		if s.matcher(req) {
			respond = s.respond
			break
		}
	}
	m.mu.RUnlock()

	if respond == nil {
		return nil, errors.New("no stub found for request: " + req.Method + " " + req.URL.String())
	}

	resp, err := respond(req)
	if err != nil {
		return nil, err
	}
	if resp.Request == nil {
		resp.Request = req
	}
	return resp, nil
}

// Requests returns the recorded requests. Their bodies can be read again.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*http.Request{}, m.requests...)
}

// Bodies returns the recorded request bodies, in request order.
func (m *MockTransport) Bodies() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([][]byte{}, m.bodies...)
}

// RequestCount returns the number of requests made.
func (m *MockTransport) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil if none.
func (m *MockTransport) LastRequest() *http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears all recorded requests and stubs.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.bodies = nil
	m.stubs = nil
	m.fallback = nil
	m.requestHook = nil
}

func matchPath(path string) func(*http.Request) bool {
	return func(req *http.Request) bool {
		return req.URL.Path == path
	}
}

// fixed answers with a fresh response on every call.
func fixed(statusCode int, header http.Header, body []byte) responder {
	return func(req *http.Request) (*http.Response, error) {
		h := header.Clone()
		if h == nil {
			h = make(http.Header)
		}
		h.Set("Content-Length", strconv.Itoa(len(body)))

		return &http.Response{
			Status:        fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
			StatusCode:    statusCode,
			Proto:         "HTTP/1.1",
			ProtoMajor:    1,
			ProtoMinor:    1,
			Header:        h,
			Body:          io.NopCloser(bytes.NewReader(body)),
			ContentLength: int64(len(body)),
			Request:       req,
		}, nil
	}
}

func failing(err error) responder {
	return func(*http.Request) (*http.Response, error) {
		return nil, err
	}
}

func compress(encoding string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser

	switch encoding {
	case EncodingGzip:
		w = gzip.NewWriter(&buf)
	case EncodingDeflate:
		w = zlib.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("httpclient: mock cannot compress with %q", encoding)
	}

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WithMockTransport replaces the network transport with mock. Rate
// limiting, circuit breaking and instrumentation still apply.
func WithMockTransport(mock *MockTransport) Option {
	return func(cfg *internalConfig) {
		cfg.MockTransport = mock
	}
}
