package httpclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// defaultBreakerName names the breaker of a client without a service name.
const defaultBreakerName = "getpro"

// errCountedFailure tells the breaker that an attempt failed although the
// transport returned a response (5xx). It never reaches the caller.
var errCountedFailure = errors.New("httpclient: attempt counted as breaker failure")

type circuitBreakerTransport struct {
	breaker    CircuitBreaker
	next       http.RoundTripper
	classifier BreakerClassifier
	metrics    *metrics
	name       string
}

// RoundTrip implements http.RoundTripper. Responses classified as failures
// are still returned to the caller; only the breaker sees them as errors.
func (t *circuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	res, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose
		if t.classifier(resp, err) && err == nil {
			return resp, errCountedFailure
		}
		return resp, err
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		t.metrics.recordBreakerRequest(ctx, t.name, "rejected")
		closeRequestBody(req)
		return nil, err
	case errors.Is(err, errCountedFailure):
		t.metrics.recordBreakerRequest(ctx, t.name, "failure")
	case err != nil:
		t.metrics.recordBreakerRequest(ctx, t.name, "failure")
		return nil, err
	default:
		t.metrics.recordBreakerRequest(ctx, t.name, "success")
	}

	resp, ok := res.(*http.Response)
	if !ok || resp == nil {
		return nil, errors.New("httpclient: circuit breaker returned no response")
	}
	return resp, nil
}

// newCircuitBreakerTransport returns next unchanged when no breaker is
// configured. The breaker is named after the client's service name.
func newCircuitBreakerTransport(next http.RoundTripper, cfg *internalConfig) http.RoundTripper {
	if cfg.BreakerConfig == nil {
		return next
	}
	bc := *cfg.BreakerConfig

	name := cfg.ServiceName
	if name == "" {
		name = defaultBreakerName
	}

	classifier := bc.Classifier
	if classifier == nil {
		classifier = DefaultBreakerClassifier
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: bc.readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Metrics.recordBreakerState(context.Background(), name, int64(to))
			cfg.Logger.Debug().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			if bc.OnStateChange != nil {
				bc.OnStateChange(name, from, to)
			}
		},
	}

	var cb CircuitBreaker = gobreaker.NewCircuitBreaker[interface{}](st)
	if bc.Store != nil {
		dcb, err := gobreaker.NewDistributedCircuitBreaker[interface{}](bc.Store, st)
		if err != nil {
			// Keep the local breaker: this process stays protected even
			// when the shared state is unavailable.
			cfg.Logger.Warn().Err(err).Str("breaker", name).
				Msg("distributed circuit breaker unavailable, using local state")
		} else {
			cb = dcb
		}
	}

	return &circuitBreakerTransport{
		breaker:    cb,
		next:       next,
		classifier: classifier,
		metrics:    cfg.Metrics,
		name:       name,
	}
}
