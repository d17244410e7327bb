package httpclient

import (
	"bufio"
	"errors"
	"io"
	"mime"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// Content codings understood by the Response.
const (
	EncodingIdentity = "identity"
	EncodingGzip     = "gzip"
	EncodingDeflate  = "deflate"
)

// acceptEncoding is sent when the caller accepts compressed responses.
const acceptEncoding = "gzip, deflate"

// normalizeEncoding maps a Content-Encoding header value to one of the
// Encoding constants. ok is false for codings the client cannot decode.
func normalizeEncoding(header string) (encoding string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case "", EncodingIdentity:
		return EncodingIdentity, true
	case EncodingGzip, "x-gzip":
		return EncodingGzip, true
	case EncodingDeflate:
		return EncodingDeflate, true
	default:
		return header, false
	}
}

// decoder returns a reader producing the decoded body. Decompressors are
// created on first read so that an empty body (HEAD, 204) is not an error.
func decoder(body io.Reader, encoding string) io.Reader {
	switch encoding {
	case EncodingGzip:
		return &lazyReader{open: func() (io.Reader, error) {
			return gzip.NewReader(body)
		}}
	case EncodingDeflate:
		return &lazyReader{open: func() (io.Reader, error) {
			return newDeflateReader(body)
		}}
	default:
		return body
	}
}

// newDeflateReader accepts both zlib-wrapped deflate (RFC 1950, what the
// coding name means) and the raw deflate streams some servers send.
func newDeflateReader(body io.Reader) (io.Reader, error) {
	br := bufio.NewReader(body)

	header, err := br.Peek(2)
	if err != nil {
		if errors.Is(err, io.EOF) && len(header) == 0 {
			return nil, io.EOF
		}
		return flate.NewReader(br), nil
	}

	if isZlibHeader(header[0], header[1]) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// lazyReader defers opening a decompressor until the first Read.
type lazyReader struct {
	open func() (io.Reader, error)
	r    io.Reader
	err  error
}

func (l *lazyReader) Read(p []byte) (int, error) {
	if l.r == nil && l.err == nil {
		l.r, l.err = l.open()
		if errors.Is(l.err, io.EOF) {
			// empty body
			l.err = io.EOF
		}
	}
	if l.err != nil {
		return 0, l.err
	}
	return l.r.Read(p)
}

// transcoder converts the body to UTF-8 when Content-Type declares another
// charset. Unknown charsets are logged and the body is returned as is.
func transcoder(body io.Reader, contentType string, logger zerolog.Logger) io.Reader {
	if contentType == "" {
		return body
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}

	label := params["charset"]
	if label == "" {
		return body
	}

	enc, name := charset.Lookup(label)
	if enc == nil {
		logger.Debug().Str("charset", label).Msg("unknown response charset ignored")
		return body
	}
	if name == "utf-8" {
		return body
	}

	return transform.NewReader(body, enc.NewDecoder())
}
