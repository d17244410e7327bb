package content

import (
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultipart(t *testing.T) {
	c, err := Multipart(Fields{
		{Key: "title", Value: "Report & notes"},
		{Key: "tag", Value: []string{"q4", "draft"}},
		{Key: "empty", Value: nil},
		{Key: "n", Value: 3},
	})
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(c.MIMEType())
	require.NoError(t, err)
	assert.Equal(t, MIMETypeMultipart, mediaType)
	assert.True(t, strings.HasPrefix(params["boundary"], boundaryPrefix))
	assert.Len(t, params["boundary"], len(boundaryPrefix)+20)

	body := readAll(t, c)
	assert.Equal(t, 1, strings.Count(body, "--"+params["boundary"]+"--"))
	assert.True(t, strings.HasSuffix(body, "--"+params["boundary"]+"--\r\n"))

	type part struct{ name, value string }
	var got []part

	r := multipart.NewReader(strings.NewReader(body), params["boundary"])
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		b, err := io.ReadAll(p)
		require.NoError(t, err)
		got = append(got, part{name: p.FormName(), value: string(b)})
	}

	assert.Equal(t, []part{
		{"title", "Report & notes"},
		{"tag", "q4"},
		{"tag", "draft"},
		{"n", "3"},
	}, got)
}

func TestMultipart_Wire(t *testing.T) {
	tests := []struct {
		name   string
		object any
		want   string
	}{
		{
			name:   "given one field, then emits one part and the trailer",
			object: Fields{{Key: "a", Value: "1"}},
			want: "--XYZ\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n1\r\n" +
				"--XYZ--\r\n",
		},
		{
			name:   "given no fields, then emits only the trailer",
			object: Fields{},
			want:   "--XYZ--\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Multipart(tt.object, WithBoundary("XYZ"))
			require.NoError(t, err)

			assert.Equal(t, "multipart/form-data; boundary=XYZ", c.MIMEType())
			assert.Equal(t, tt.want, readAll(t, c))
		})
	}
}

func TestMultipart_Boundary(t *testing.T) {
	a, err := Multipart(Fields{})
	require.NoError(t, err)
	b, err := Multipart(Fields{})
	require.NoError(t, err)

	assert.NotEqual(t, a.MIMEType(), b.MIMEType())

	// replays keep the boundary
	assert.Equal(t, readAll(t, a), readAll(t, a))
}

func TestMultipart_NestedObject(t *testing.T) {
	c, err := Multipart(Fields{
		{Key: "a", Value: "1"},
		{Key: "obj", Value: struct{ X int }{1}},
	})
	require.NoError(t, err)

	s := c.Open()
	_, done, err := s.Next()
	require.NoError(t, err)
	require.False(t, done)

	_, done, err = s.Next()
	assert.True(t, done)
	require.ErrorIs(t, err, ErrNestedStructure)
}
