package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("given no options, then builds the network transport chain", func(t *testing.T) {
		client := New()

		require.NotNil(t, client.transport)
		ot, ok := client.transport.(*otelTransport)
		require.True(t, ok)
		_, ok = ot.base.(*http.Transport)
		assert.True(t, ok, "no limiter or breaker without options")
	})

	t.Run("given a mock, then the mock is the base transport", func(t *testing.T) {
		mock := NewMockTransport().StubResponse(http.StatusOK, "ok")
		client := New(WithMockTransport(mock))

		resp, err := client.Get(context.Background(), "http://api.test/").End()
		require.NoError(t, err)
		require.NoError(t, resp.Flush())
		assert.Equal(t, 1, mock.RequestCount())
	})

	t.Run("given resilience options, then layers limiter under breaker", func(t *testing.T) {
		client := New(
			WithMockTransport(NewMockTransport()),
			WithRateLimit(DefaultRateLimitConfig()),
			WithBreaker(DefaultBreakerConfig()),
		)

		ot := client.transport.(*otelTransport)
		cbt, ok := ot.base.(*circuitBreakerTransport)
		require.True(t, ok)
		_, ok = cbt.next.(*rateLimitTransport)
		assert.True(t, ok)
	})
}

func TestNewWithTransport(t *testing.T) {
	t.Run("given a custom transport, then sends through it", func(t *testing.T) {
		mock := NewMockTransport().StubResponse(http.StatusOK, "custom")
		client := NewWithTransport(mock, WithServiceName("custom"))

		resp, err := client.Get(context.Background(), "http://api.test/").End()
		require.NoError(t, err)
		text, err := resp.Text()
		require.NoError(t, err)
		assert.Equal(t, "custom", text)
	})

	t.Run("given nil, then falls back to the network transport", func(t *testing.T) {
		client := NewWithTransport(nil)
		ot := client.transport.(*otelTransport)
		_, ok := ot.base.(*http.Transport)
		assert.True(t, ok)
	})
}

func TestClient_HTTP(t *testing.T) {
	t.Run("given a redirect, then returns it without following", func(t *testing.T) {
		mock := NewMockTransport().
			StubRedirect("/old", http.StatusFound, "/new").
			StubPath("/new", http.StatusOK, "")
		client := New(WithMockTransport(mock))

		resp, err := client.HTTP().Get("http://api.test/old")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, 1, mock.RequestCount())
	})
}

func TestClient_Verbs(t *testing.T) {
	client := New(WithMockTransport(NewMockTransport()))
	ctx := context.Background()

	tests := []struct {
		name string
		req  *Request
		want string
	}{
		{name: "given Get, then GET", req: client.Get(ctx, "http://api.test/"), want: http.MethodGet},
		{name: "given Head, then HEAD", req: client.Head(ctx, "http://api.test/"), want: http.MethodHead},
		{name: "given Post, then POST", req: client.Post(ctx, "http://api.test/"), want: http.MethodPost},
		{name: "given Put, then PUT", req: client.Put(ctx, "http://api.test/"), want: http.MethodPut},
		{name: "given Patch, then PATCH", req: client.Patch(ctx, "http://api.test/"), want: http.MethodPatch},
		{name: "given Delete, then DELETE", req: client.Delete(ctx, "http://api.test/"), want: http.MethodDelete},
		{name: "given NewRequest, then the custom method", req: client.NewRequest(ctx, "PURGE", "http://api.test/"), want: "PURGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.method)
			assert.Same(t, client, tt.req.client)
		})
	}
}

func TestDefaultClient(t *testing.T) {
	t.Run("given repeated calls, then returns the same client", func(t *testing.T) {
		assert.Same(t, DefaultClient(), DefaultClient())
	})

	t.Run("given a server, then package-level Get waits for the response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Echo", r.Header.Get("X-Request-ID"))
			_, _ = w.Write([]byte("pong"))
		}))
		defer server.Close()

		resp, err := Get(context.Background(), server.URL+"/ping", WithHeader("X-Request-ID", "r-1"))
		require.NoError(t, err)

		text, err := resp.Text()
		require.NoError(t, err)
		assert.Equal(t, "pong", text)
		assert.Equal(t, "r-1", resp.Header.Get("X-Echo"))
	})
}
