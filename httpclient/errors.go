package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Kind classifies errors produced by the client itself. Errors raised by the
// transport (dial, TLS, timeouts) are returned unchanged and carry no Kind.
type Kind int

const (
	// KindInvalidProtocol indicates a URL whose scheme is neither http nor https.
	KindInvalidProtocol Kind = iota + 1
	// KindProtocol indicates a server response that breaks the HTTP contract,
	// such as a redirect without a Location header.
	KindProtocol
	// KindStatus indicates a non-2xx final status while failOnError is on.
	KindStatus
	// KindTooManyRedirects indicates the redirect budget was exhausted.
	// It is a KindProtocol error.
	KindTooManyRedirects
	// KindUnsupportedEncoding indicates a Content-Encoding the client cannot
	// decode. It is a KindProtocol error.
	KindUnsupportedEncoding
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidProtocol:
		return "invalid_protocol"
	case KindProtocol:
		return "protocol"
	case KindStatus:
		return "status"
	case KindTooManyRedirects:
		return "too_many_redirects"
	case KindUnsupportedEncoding:
		return "unsupported_encoding"
	default:
		return "unknown"
	}
}

func (k Kind) parent() Kind {
	switch k {
	case KindTooManyRedirects, KindUnsupportedEncoding:
		return KindProtocol
	default:
		return 0
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind, and
// ErrProtocol also matches its sub-kinds.
//
//	if errors.Is(err, httpclient.ErrStatus) {
//	    var e *httpclient.Error
//	    errors.As(err, &e)
//	    log.Printf("server answered %d", e.Response.StatusCode)
//	}
var (
	ErrInvalidProtocol     = &Error{Kind: KindInvalidProtocol, Message: "unsupported protocol"}
	ErrProtocol            = &Error{Kind: KindProtocol, Message: "protocol error"}
	ErrStatus              = &Error{Kind: KindStatus, Message: "bad status"}
	ErrTooManyRedirects    = &Error{Kind: KindTooManyRedirects, Message: "maximum redirects exceeded"}
	ErrUnsupportedEncoding = &Error{Kind: KindUnsupportedEncoding, Message: "unsupported encoding"}
)

// ErrResponseClosed is returned by reads on a Response closed before its
// body was fully consumed.
var ErrResponseClosed = errors.New("httpclient: response closed")

// Snapshot is the part of a response that is safe to keep in an error:
// no body and no connection state.
type Snapshot struct {
	StatusCode int
	Status     string
	Header     http.Header
	Method     string
	Path       string
}

func snapshot(resp *http.Response) *Snapshot {
	s := &Snapshot{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
	}
	if req := resp.Request; req != nil {
		s.Method = req.Method
		if req.URL != nil {
			s.Path = req.URL.RequestURI()
		}
	}
	return s
}

// Error is a structured client error.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// Message describes the error.
	Message string
	// URL is the request target when the error was raised, if known.
	URL string
	// Response describes the offending response, when there was one.
	Response *Snapshot
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("httpclient: %s: %s", e.Kind, e.Message)
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind or of the parent
// kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind || (t.Kind != 0 && t.Kind == e.Kind.parent())
}

func newError(kind Kind, message string, target *url.URL, resp *http.Response, err error) *Error {
	e := &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
	if target != nil {
		e.URL = target.Redacted()
	}
	if resp != nil {
		e.Response = snapshot(resp)
	}
	return e
}

// IsStatus reports whether err is a KindStatus error.
func IsStatus(err error) bool {
	return errors.Is(err, ErrStatus)
}

// IsProtocol reports whether err is a protocol error, including redirect
// and encoding failures.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// StatusCode returns the status code carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Response != nil {
		return e.Response.StatusCode
	}
	return 0
}
