package content

import (
	"crypto/rand"
	"encoding/hex"
)

// MIMETypeMultipart is the media type of multipart content, without the
// boundary parameter.
const MIMETypeMultipart = "multipart/form-data"

const boundaryPrefix = "--------"

// Multipart encodes object as multipart/form-data.
//
// Each pair becomes one part with a Content-Disposition header naming the
// field; the body ends with a single closing boundary line. The boundary is
// random and fresh per call. Values are not scanned for the boundary.
//
// Example:
//
//	c, _ := content.Multipart(struct {
//	    Title string `form:"title"`
//	    Tags  []string `form:"tag"`
//	}{"Report", []string{"q4", "draft"}})
//	req.Header.Set("Content-Type", c.MIMEType())
func Multipart(object any, opts ...Option) (*Content, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	boundary := o.boundary
	if boundary == "" {
		boundary = newBoundary()
	}

	return newContent(MIMETypeMultipart+"; boundary="+boundary, object, opts, func() encoder {
		return &multipartEncoder{boundary: boundary}
	})
}

type multipartEncoder struct {
	boundary string
}

func (e *multipartEncoder) field(key, value string) []byte {
	buf := make([]byte, 0, len(e.boundary)+len(key)+len(value)+50)
	buf = append(buf, "--"...)
	buf = append(buf, e.boundary...)
	buf = append(buf, "\r\nContent-Disposition: form-data; name=\""...)
	buf = append(buf, key...)
	buf = append(buf, "\"\r\n\r\n"...)
	buf = append(buf, value...)
	return append(buf, "\r\n"...)
}

func (e *multipartEncoder) trailer() []byte {
	return []byte("--" + e.boundary + "--\r\n")
}

func newBoundary() string {
	var b [10]byte
	// crypto/rand.Read never returns an error.
	_, _ = rand.Read(b[:])
	return boundaryPrefix + hex.EncodeToString(b[:])
}
