package content

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, c *Content) string {
	t.Helper()
	b, err := io.ReadAll(c.Open())
	require.NoError(t, err)
	return string(b)
}

func TestForm(t *testing.T) {
	type profile struct {
		Name    string   `form:"name"`
		Email   string   `json:"email"`
		Age     int      `form:"age,omitempty"`
		Secret  string   `form:"-"`
		Tags    []string `form:"tag"`
		private string
	}

	tests := []struct {
		name   string
		object any
		want   string
	}{
		{
			name: "given ordered fields, then pairs keep their order",
			object: Fields{
				{Key: "hello", Value: "& world"},
				{Key: "a", Value: 1},
				{Key: "b", Value: 2},
			},
			want: "hello=%26+world&a=1&b=2",
		},
		{
			name: "given an array value, then expands in element order",
			object: Fields{
				{Key: "a", Value: 1},
				{Key: "items", Value: []int{3, 2, 1}},
			},
			want: "a=1&items=3&items=2&items=1",
		},
		{
			name:   "given a map, then keys are sorted",
			object: map[string]any{"b": true, "a": 1.5},
			want:   "a=1.5&b=true",
		},
		{
			name:   "given url.Values, then repeats keys",
			object: url.Values{"q": {"go lang", "x"}, "p": {"1"}},
			want:   "p=1&q=go+lang&q=x",
		},
		{
			name: "given a tagged struct, then honours tags",
			object: profile{
				Name:    "Ann",
				Email:   "a@b.c",
				Secret:  "s",
				Tags:    []string{"x", "y"},
				private: "p",
			},
			want: "name=Ann&email=a%40b.c&tag=x&tag=y",
		},
		{
			name:   "given a nil value, then the pair is suppressed",
			object: Fields{{Key: "a", Value: nil}, {Key: "b", Value: "1"}},
			want:   "b=1",
		},
		{
			name:   "given reserved characters in the key, then key spaces are escaped",
			object: Fields{{Key: "a b", Value: "c d"}},
			want:   "a%20b=c+d",
		},
		{
			name:   "given unreserved marks, then they are not escaped",
			object: Fields{{Key: "k", Value: "-_.!~*'()"}},
			want:   "k=-_.!~*'()",
		},
		{
			name:   "given non-ascii text, then utf-8 bytes are escaped",
			object: Fields{{Key: "k", Value: "é"}},
			want:   "k=%C3%A9",
		},
		{
			name:   "given an empty object, then produces no bytes",
			object: Fields{},
			want:   "",
		},
		{
			name:   "given nested arrays, then flattens recursively",
			object: Fields{{Key: "m", Value: [][]int{{1, 2}, {3}}}},
			want:   "m=1&m=2&m=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Form(tt.object)
			require.NoError(t, err)

			assert.Equal(t, MIMETypeForm, c.MIMEType())
			assert.Equal(t, tt.want, readAll(t, c))
		})
	}
}

func TestForm_NestedObject(t *testing.T) {
	c, err := Form(Fields{
		{Key: "a", Value: 1},
		{Key: "user", Value: map[string]string{"name": "x"}},
	})
	require.NoError(t, err)

	s := c.Open()

	fragment, done, err := s.Next()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "a=1", string(fragment))

	fragment, done, err = s.Next()
	assert.True(t, done)
	assert.Nil(t, fragment)
	require.ErrorIs(t, err, ErrNestedStructure)

	// sticky
	_, done, err = s.Next()
	assert.True(t, done)
	require.ErrorIs(t, err, ErrNestedStructure)
}

func TestForm_NestedFields(t *testing.T) {
	t.Run("given nested Fields without an object filter, then fails with the nested structure error", func(t *testing.T) {
		c, err := Form(Fields{{Key: "a", Value: Fields{{Key: "b", Value: 1}}}})
		require.NoError(t, err)

		_, err = io.ReadAll(c.Open())
		require.ErrorIs(t, err, ErrNestedStructure)
	})

	t.Run("given an object filter, then it receives the whole nested Fields once", func(t *testing.T) {
		calls := 0
		flatten := func(f Field, q *Queue) (Field, bool, error) {
			calls++
			nested, ok := f.Value.(Fields)
			require.True(t, ok)
			flat := make([]Field, 0, len(nested))
			for _, child := range nested {
				flat = append(flat, Field{Key: f.Key + "[" + child.Key + "]", Value: child.Value})
			}
			q.PushFront(flat...)
			return Field{}, false, nil
		}

		c, err := Form(
			Fields{{Key: "a", Value: Fields{{Key: "b", Value: 1}, {Key: "c", Value: 2}}}, {Key: "d", Value: 3}},
			WithFilter(KindObject, flatten),
		)
		require.NoError(t, err)

		assert.Equal(t, "a%5Bb%5D=1&a%5Bc%5D=2&d=3", readAll(t, c))
		assert.Equal(t, 1, calls)
	})

	t.Run("given a []Field value, then it is an object", func(t *testing.T) {
		assert.Equal(t, KindObject, KindOf([]Field{{Key: "x", Value: 1}}))
		assert.Equal(t, KindObject, KindOf(Fields{}))
		assert.Equal(t, KindArray, KindOf([]int{1}))
	})
}

func TestForm_UnsupportedObject(t *testing.T) {
	_, err := Form(42)
	require.ErrorIs(t, err, ErrUnsupportedObject)
}

func TestForm_CustomFilter(t *testing.T) {
	t.Run("given an object filter, then nested values are encoded by it", func(t *testing.T) {
		c, err := Form(
			Fields{{Key: "user", Value: map[string]string{"name": "x"}}},
			WithFilter(KindObject, func(f Field, _ *Queue) (Field, bool, error) {
				return Field{Key: f.Key, Value: "obj"}, true, nil
			}),
		)
		require.NoError(t, err)
		assert.Equal(t, "user=obj", readAll(t, c))
	})

	t.Run("given a boolean filter, then replaces only booleans", func(t *testing.T) {
		c, err := Form(
			Fields{{Key: "on", Value: true}, {Key: "n", Value: 1}},
			WithFilters(Filters{
				KindBoolean: func(f Field, _ *Queue) (Field, bool, error) {
					if f.Value.(bool) {
						return Field{Key: f.Key, Value: "yes"}, true, nil
					}
					return Field{}, false, nil
				},
			}),
		)
		require.NoError(t, err)
		assert.Equal(t, "on=yes&n=1", readAll(t, c))
	})

	t.Run("given a filter error, then the stream fails", func(t *testing.T) {
		boom := errors.New("boom")
		c, err := Form(
			Fields{{Key: "a", Value: "x"}},
			WithFilter(KindString, func(Field, *Queue) (Field, bool, error) {
				return Field{}, false, boom
			}),
		)
		require.NoError(t, err)

		_, err = io.ReadAll(c.Open())
		require.ErrorIs(t, err, boom)
	})

	t.Run("given a filter pushing to the back, then the field is encoded last", func(t *testing.T) {
		c, err := Form(
			Fields{{Key: "late", Value: int64(1)}, {Key: "b", Value: "2"}},
			WithFilter(KindNumber, func(f Field, q *Queue) (Field, bool, error) {
				if _, ok := f.Value.(int64); ok {
					q.PushBack(Field{Key: f.Key, Value: "moved"})
					return Field{}, false, nil
				}
				return DefaultFilter(f, q)
			}),
		)
		require.NoError(t, err)
		assert.Equal(t, "b=2&late=moved", readAll(t, c))
	})
}

func TestContent_Open(t *testing.T) {
	c, err := Form(Fields{{Key: "a", Value: 1}, {Key: "b", Value: []string{"x", "y"}}})
	require.NoError(t, err)

	first := readAll(t, c)
	second := readAll(t, c)

	assert.Equal(t, "a=1&b=x&b=y", first)
	assert.Equal(t, first, second)
}

func TestStream_WriteTo(t *testing.T) {
	c, err := Form(Fields{{Key: "a", Value: 1}, {Key: "b", Value: 2}})
	require.NoError(t, err)

	s := c.Open()

	// leave part of the first fragment pending
	p := make([]byte, 2)
	n, err := s.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "a=", string(p[:n]))

	var buf bytes.Buffer
	written, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "1&b=2", buf.String())
	assert.Equal(t, int64(5), written)
}
