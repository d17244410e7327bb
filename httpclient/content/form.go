package content

// MIMETypeForm is the media type of urlencoded content.
const MIMETypeForm = "application/x-www-form-urlencoded"

// Form encodes object as application/x-www-form-urlencoded.
//
// Pairs are joined with "&". Keys are percent-encoded like a URI component;
// values too, except that spaces become "+":
//
//	c, _ := content.Form(content.Fields{
//	    {Key: "hello", Value: "& world"},
//	    {Key: "a", Value: 1},
//	    {Key: "b", Value: 2},
//	})
//	// hello=%26+world&a=1&b=2
func Form(object any, opts ...Option) (*Content, error) {
	return newContent(MIMETypeForm, object, opts, func() encoder {
		return &formEncoder{}
	})
}

type formEncoder struct {
	started bool
}

func (e *formEncoder) field(key, value string) []byte {
	buf := make([]byte, 0, len(key)+len(value)+2)
	if e.started {
		buf = append(buf, '&')
	}
	e.started = true

	buf = appendEscaped(buf, key, false)
	buf = append(buf, '=')
	return appendEscaped(buf, value, true)
}

func (e *formEncoder) trailer() []byte {
	return nil
}

const upperhex = "0123456789ABCDEF"

// appendEscaped percent-encodes s leaving only the URI component
// unreserved set (ALPHA DIGIT - _ . ! ~ * ' ( )) as is.
func appendEscaped(dst []byte, s string, spaceAsPlus bool) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUnreserved(c):
			dst = append(dst, c)
		case c == ' ' && spaceAsPlus:
			dst = append(dst, '+')
		default:
			dst = append(dst, '%', upperhex[c>>4], upperhex[c&0x0f])
		}
	}
	return dst
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
