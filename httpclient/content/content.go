package content

import (
	"io"
)

// Option configures an encoder.
type Option func(*options)

type options struct {
	filters  Filters
	boundary string
}

// WithFilter registers a filter for values of the given kind, replacing the
// default filter for that kind.
//
// Example - send booleans as "on"/"off":
//
//	content.Form(v, content.WithFilter(content.KindBoolean,
//	    func(f content.Field, _ *content.Queue) (content.Field, bool, error) {
//	        if f.Value.(bool) {
//	            return content.Field{Key: f.Key, Value: "on"}, true, nil
//	        }
//	        return content.Field{Key: f.Key, Value: "off"}, true, nil
//	    }),
//	)
func WithFilter(kind Kind, f Filter) Option {
	return func(o *options) {
		if o.filters == nil {
			o.filters = make(Filters)
		}
		o.filters[kind] = f
	}
}

// WithFilters registers several filters at once.
func WithFilters(filters Filters) Option {
	return func(o *options) {
		for kind, f := range filters {
			WithFilter(kind, f)(o)
		}
	}
}

// WithBoundary fixes the multipart boundary instead of generating a random
// one. The caller is responsible for choosing a boundary that does not
// occur in the encoded values. It has no effect on urlencoded content.
func WithBoundary(boundary string) Option {
	return func(o *options) {
		o.boundary = boundary
	}
}

func (o *options) filterFor(k Kind) Filter {
	if f, ok := o.filters[k]; ok && f != nil {
		return f
	}
	return defaultFilterFor(k)
}

// encoder renders filtered fields. Implementations carry the state that
// must survive between fields (the separator, the boundary).
type encoder interface {
	field(key, value string) []byte
	trailer() []byte
}

// Content describes an encoded request body: its media type and a
// replayable producer of its bytes.
type Content struct {
	mimeType   string
	fields     Fields
	opts       *options
	newEncoder func() encoder
}

// MIMEType returns the value for the Content-Type header, including the
// boundary parameter for multipart content.
func (c *Content) MIMEType() string {
	return c.mimeType
}

// Open starts a new pass over the content. Every Stream produces the same
// bytes, so the body can be sent again after a redirect.
func (c *Content) Open() *Stream {
	return &Stream{
		queue: newQueue(c.fields),
		opts:  c.opts,
		enc:   c.newEncoder(),
	}
}

// Stream is a pull iterator over encoded fragments. It also implements
// io.Reader and io.WriterTo. A Stream is not safe for concurrent use.
type Stream struct {
	queue    *Queue
	opts     *options
	enc      encoder
	pending  []byte
	finished bool
	err      error
}

// Next returns the next encoded fragment. done is true once the content is
// exhausted or an error occurred; no fragment is returned with done. Errors
// are sticky.
func (s *Stream) Next() (fragment []byte, done bool, err error) {
	for !s.finished {
		f, ok := s.queue.shift()
		if !ok {
			s.finished = true
			if t := s.enc.trailer(); len(t) > 0 {
				return t, false, nil
			}
			break
		}

		out, emit, err := s.opts.filterFor(KindOf(f.Value))(f, s.queue)
		if err != nil {
			s.fail(err)
			break
		}
		if !emit {
			continue
		}

		value, err := Stringify(out.Value)
		if err != nil {
			s.fail(err)
			break
		}
		return s.enc.field(out.Key, value), false, nil
	}

	return nil, true, s.err
}

func (s *Stream) fail(err error) {
	s.err = err
	s.finished = true
	s.queue = newQueue(nil)
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		fragment, done, err := s.Next()
		if err != nil {
			return 0, err
		}
		if done {
			return 0, io.EOF
		}
		s.pending = fragment
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// WriteTo implements io.WriterTo.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var total int64

	if len(s.pending) > 0 {
		n, err := w.Write(s.pending)
		total += int64(n)
		s.pending = nil
		if err != nil {
			return total, err
		}
	}

	for {
		fragment, done, err := s.Next()
		if err != nil {
			return total, err
		}
		if done {
			return total, nil
		}
		n, err := w.Write(fragment)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
}

func newContent(mimeType string, object any, opts []Option, newEncoder func() encoder) (*Content, error) {
	fields, err := fieldsOf(object)
	if err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return &Content{
		mimeType:   mimeType,
		fields:     fields,
		opts:       o,
		newEncoder: newEncoder,
	}, nil
}
