package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/goccy/go-json"

	"github.com/kroma-labs/getpro/httpclient/content"
)

// ErrRequestStarted is returned when a body is attached to a request that
// has already been sent.
var ErrRequestStarted = errors.New("httpclient: request already started")

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// Request is a pending HTTP request.
//
// A Request is sent once, by the first of End, JSON, Text, Form, Data or
// Write. It then resolves exactly once: every call waiting on it returns the
// same Response and error. Redirects are followed with the same method,
// headers and body.
//
// Example - no body:
//
//	resp, err := client.Get(ctx, "https://api.example.com/users").End()
//
// Example - JSON body:
//
//	resp, err := client.Post(ctx, "https://api.example.com/users").JSON(newUser)
//
// Example - streamed body:
//
//	req := client.Put(ctx, "https://uploads.example.com/blob").
//	    Header("Content-Type", "application/octet-stream")
//	if _, err := io.Copy(req, file); err != nil {
//	    return err
//	}
//	resp, err := req.End()
type Request struct {
	client *Client
	ctx    context.Context
	method string
	target *url.URL
	urlErr error
	opts   requestOptions

	mu      sync.Mutex
	header  http.Header
	body    bodySource
	stream  *streamBody
	started bool

	done chan struct{}
	resp *Response
	err  error
}

func newRequest(ctx context.Context, c *Client, method, rawURL string, opts ...RequestOption) *Request {
	if ctx == nil {
		ctx = context.Background()
	}

	o := newRequestOptions(opts...)

	header := c.config.DefaultHeaders.Clone()
	for k, vs := range o.header {
		header[k] = vs
	}

	r := &Request{
		client: c,
		ctx:    ctx,
		method: method,
		opts:   o,
		header: header,
		done:   make(chan struct{}),
	}

	r.target, r.urlErr = url.Parse(rawURL)
	if r.urlErr != nil {
		r.urlErr = fmt.Errorf("httpclient: %w", r.urlErr)
	}

	return r
}

// Header sets a request header, replacing any previous value. Headers set
// after the request has been sent are ignored.
func (r *Request) Header(key, value string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		r.header.Set(key, value)
	}
	return r
}

// Write streams p as part of the request body. The first Write sends the
// request; Close or End finishes the body. Written bytes are kept until
// the request resolves so they can be sent again on redirect.
func (r *Request) Write(p []byte) (int, error) {
	r.mu.Lock()
	if r.started && r.stream == nil {
		r.mu.Unlock()
		return 0, ErrRequestStarted
	}
	if r.stream == nil {
		r.stream = newStreamBody()
		r.body = r.stream
		r.start()
	}
	s := r.stream
	r.mu.Unlock()

	return s.Write(p)
}

// Close finishes the request body. A request with no body is sent. Close
// does not wait for the response; use End for that.
func (r *Request) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return r.stream.Close()
	}
	if !r.started {
		r.start()
	}
	return nil
}

// End finishes the request body and waits for the response.
func (r *Request) End() (*Response, error) {
	if err := r.Close(); err != nil {
		return nil, err
	}
	return r.wait()
}

// JSON sends v encoded as JSON. Content-Type is set to application/json
// unless already set.
func (r *Request) JSON(v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("httpclient: encode json: %w", err)
	}
	return r.send(bytesBody(data), contentTypeJSON)
}

// Text sends s as the body. Content-Type is set to text/plain unless
// already set.
func (r *Request) Text(s string) (*Response, error) {
	return r.send(bytesBody(s), contentTypeText)
}

// Form sends v encoded as multipart/form-data. v may be a struct, a map,
// url.Values or content.Fields; see package content for the encoding rules
// and filters.
//
// Example:
//
//	resp, err := client.Post(ctx, url).Form(content.Fields{
//	    {Key: "title", Value: "Q4 report"},
//	    {Key: "tag", Value: []string{"finance", "draft"}},
//	})
func (r *Request) Form(v any, opts ...content.Option) (*Response, error) {
	c, err := content.Multipart(v, opts...)
	if err != nil {
		return nil, err
	}
	return r.send(contentBody{content: c}, c.MIMEType())
}

// Data sends v as the body. A string or []byte is sent as is, with no
// Content-Type. Any other value is encoded as
// application/x-www-form-urlencoded.
//
// Example:
//
//	resp, err := client.Post(ctx, tokenURL).Data(url.Values{
//	    "grant_type": {"client_credentials"},
//	    "scope":      {"read write"},
//	})
func (r *Request) Data(v any, opts ...content.Option) (*Response, error) {
	switch data := v.(type) {
	case string:
		return r.send(bytesBody(data), "")
	case []byte:
		return r.send(bytesBody(data), "")
	}

	c, err := content.Form(v, opts...)
	if err != nil {
		return nil, err
	}
	return r.send(contentBody{content: c}, c.MIMEType())
}

// send attaches body and waits for the response.
func (r *Request) send(body bodySource, contentType string) (*Response, error) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil, ErrRequestStarted
	}
	if contentType != "" && r.header.Get("Content-Type") == "" {
		r.header.Set("Content-Type", contentType)
	}
	r.body = body
	r.start()
	r.mu.Unlock()

	return r.wait()
}

// start runs the dispatcher. Must be called with mu held, once.
func (r *Request) start() {
	r.started = true
	go func() {
		r.resp, r.err = r.dispatch()
		close(r.done)
	}()
}

func (r *Request) wait() (*Response, error) {
	<-r.done
	return r.resp, r.err
}
