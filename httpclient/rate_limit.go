package httpclient

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures client-side rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the maximum sustained rate of attempts. Each
	// redirect hop is an attempt. Zero or less disables the limiter.
	RequestsPerSecond float64

	// Burst is the number of attempts allowed at once above the rate.
	// Values below 1 are raised to 1.
	Burst int

	// WaitOnLimit makes an attempt wait for a token, bounded by the request
	// context. When false, the attempt fails at once with ErrRateLimited.
	WaitOnLimit bool
}

// DefaultRateLimitConfig returns 100 requests per second with a burst of 10,
// waiting for tokens.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             10,
		WaitOnLimit:       true,
	}
}

// ErrRateLimited is returned when an attempt is rejected by the rate limiter.
var ErrRateLimited = errors.New("httpclient: rate limit exceeded")

type rateLimitTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
	wait    bool
}

// newRateLimitTransport returns next unchanged when cfg is nil or disabled.
func newRateLimitTransport(next http.RoundTripper, cfg *RateLimitConfig) http.RoundTripper {
	if cfg == nil || cfg.RequestsPerSecond <= 0 {
		return next
	}

	burst := max(cfg.Burst, 1)

	return &rateLimitTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		wait:    cfg.WaitOnLimit,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.wait {
		if !t.limiter.Allow() {
			closeRequestBody(req)
			return nil, ErrRateLimited
		}
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	if err := t.limiter.Wait(ctx); err != nil {
		closeRequestBody(req)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		// Wait fails without blocking when the deadline is closer than the
		// next token.
		return nil, ErrRateLimited
	}

	return t.next.RoundTrip(req)
}

// closeRequestBody honours the RoundTripper contract on early return.
func closeRequestBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
