package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTransport_Stubs(t *testing.T) {
	tests := []struct {
		name       string
		mock       func() *MockTransport
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name: "given only a fallback, then answers every path",
			mock: func() *MockTransport {
				return NewMockTransport().StubResponse(http.StatusOK, "fallback")
			},
			method:     http.MethodGet,
			path:       "/anything",
			wantStatus: http.StatusOK,
			wantBody:   "fallback",
		},
		{
			name: "given a path stub, then it wins over the fallback",
			mock: func() *MockTransport {
				return NewMockTransport().
					StubResponse(http.StatusOK, "fallback").
					StubPath("/users", http.StatusCreated, "users")
			},
			method:     http.MethodPost,
			path:       "/users",
			wantStatus: http.StatusCreated,
			wantBody:   "users",
		},
		{
			name: "given two matching stubs, then the first added wins",
			mock: func() *MockTransport {
				return NewMockTransport().
					StubPathRegex(`^/items/\d+$`, http.StatusOK, "regex").
					StubPath("/items/7", http.StatusAccepted, "exact")
			},
			method:     http.MethodGet,
			path:       "/items/7",
			wantStatus: http.StatusOK,
			wantBody:   "regex",
		},
		{
			name: "given a method stub, then matches by method",
			mock: func() *MockTransport {
				return NewMockTransport().StubMethod(http.MethodDelete, http.StatusNoContent, "")
			},
			method:     http.MethodDelete,
			path:       "/items/7",
			wantStatus: http.StatusNoContent,
			wantBody:   "",
		},
		{
			name: "given a header stub, then returns its headers",
			mock: func() *MockTransport {
				return NewMockTransport().StubHeader("/h", http.StatusOK,
					http.Header{"X-Trace": {"abc"}}, "with header")
			},
			method:     http.MethodGet,
			path:       "/h",
			wantStatus: http.StatusOK,
			wantBody:   "with header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := tt.mock()
			req, err := http.NewRequest(tt.method, "http://api.test"+tt.path, nil)
			require.NoError(t, err)

			resp, err := mock.RoundTrip(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(body))
			assert.Equal(t, int64(len(tt.wantBody)), resp.ContentLength)
			assert.Same(t, req, resp.Request)
		})
	}
}

func TestMockTransport_Errors(t *testing.T) {
	t.Run("given no stub, then fails naming the request", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "http://api.test/missing", nil)

		_, err := NewMockTransport().RoundTrip(req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "GET http://api.test/missing")
	})

	t.Run("given an error stub, then returns the error", func(t *testing.T) {
		boom := errors.New("boom")
		mock := NewMockTransport().StubFuncError(func(r *http.Request) bool {
			return r.URL.Path == "/fail"
		}, boom)
		req, _ := http.NewRequest(http.MethodGet, "http://api.test/fail", nil)

		_, err := mock.RoundTrip(req)

		assert.ErrorIs(t, err, boom)
	})

	t.Run("given an unknown encoding, then the compressed stub fails", func(t *testing.T) {
		mock := NewMockTransport().StubCompressed("/z", http.StatusOK, "br", "data")
		req, _ := http.NewRequest(http.MethodGet, "http://api.test/z", nil)

		_, err := mock.RoundTrip(req)

		assert.ErrorContains(t, err, `"br"`)
	})
}

func TestMockTransport_Recording(t *testing.T) {
	t.Run("given requests with bodies, then records them in order", func(t *testing.T) {
		mock := NewMockTransport().StubResponse(http.StatusOK, "")

		var hooked []string
		mock.OnRequest(func(r *http.Request) {
			hooked = append(hooked, r.URL.Path)
		})

		for _, p := range []string{"/a", "/b"} {
			req, _ := http.NewRequest(http.MethodPost, "http://api.test"+p, strings.NewReader("body"+p))
			resp, err := mock.RoundTrip(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
		}

		assert.Equal(t, 2, mock.RequestCount())
		assert.Equal(t, [][]byte{[]byte("body/a"), []byte("body/b")}, mock.Bodies())
		assert.Equal(t, []string{"/a", "/b"}, hooked)
		assert.Equal(t, "/b", mock.LastRequest().URL.Path)

		again, err := io.ReadAll(mock.Requests()[0].Body)
		require.NoError(t, err)
		assert.Equal(t, "body/a", string(again))
	})

	t.Run("given a reset, then forgets requests and stubs", func(t *testing.T) {
		mock := NewMockTransport().StubResponse(http.StatusOK, "")
		req, _ := http.NewRequest(http.MethodGet, "http://api.test/", nil)
		resp, err := mock.RoundTrip(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		mock.Reset()

		assert.Zero(t, mock.RequestCount())
		assert.Nil(t, mock.LastRequest())
		_, err = mock.RoundTrip(req)
		assert.Error(t, err)
	})
}

func TestMockTransport_Redirect(t *testing.T) {
	t.Run("given a location, then sets the header", func(t *testing.T) {
		mock := NewMockTransport().StubRedirect("/old", http.StatusMovedPermanently, "/new")
		req, _ := http.NewRequest(http.MethodGet, "http://api.test/old", nil)

		resp, err := mock.RoundTrip(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "301 Moved Permanently", resp.Status)
		assert.Equal(t, "/new", resp.Header.Get("Location"))
	})

	t.Run("given no location, then omits the header", func(t *testing.T) {
		mock := NewMockTransport().StubRedirect("/old", http.StatusFound, "")
		req, _ := http.NewRequest(http.MethodGet, "http://api.test/old", nil)

		resp, err := mock.RoundTrip(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		_, ok := resp.Header["Location"]
		assert.False(t, ok)
	})
}

func TestMockTransport_Compressed(t *testing.T) {
	for _, encoding := range []string{EncodingGzip, EncodingDeflate} {
		t.Run("given "+encoding+", then the client decodes the body", func(t *testing.T) {
			mock := NewMockTransport().StubCompressed("/z", http.StatusOK, encoding, "squeezed payload")
			client := New(WithMockTransport(mock))

			resp, err := client.Get(t.Context(), "http://api.test/z").End()
			require.NoError(t, err)

			text, err := resp.Text()
			require.NoError(t, err)
			assert.Equal(t, "squeezed payload", text)
		})
	}
}
