package httpclient

import (
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	gobreakerredis "github.com/sony/gobreaker/v2/redis"
)

// NewRedisStore creates a SharedDataStore backed by Redis, so that every
// client with the same service name shares one breaker state.
//
// Usage:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	store := httpclient.NewRedisStore(rdb)
func NewRedisStore(client redis.UniversalClient) gobreaker.SharedDataStore {
	return gobreakerredis.NewStoreFromClient(client)
}

// CircuitBreaker is satisfied by both the local and the distributed
// gobreaker implementations.
type CircuitBreaker interface {
	Execute(req func() (interface{}, error)) (interface{}, error)
}

// BreakerClassifier reports whether an attempt counts as a failure for the
// breaker. resp is nil when err is not.
type BreakerClassifier func(resp *http.Response, err error) bool

// BreakerConfig holds the configuration for the circuit breaker.
//
// Each attempt (every redirect hop) passes through the breaker. While the
// breaker is open, attempts fail with gobreaker.ErrOpenState without
// reaching the network.
//
// Concepts:
//   - Closed: Normal state, attempts allowed.
//   - Open: Failing state, attempts rejected immediately.
//   - Half-Open: Probing state, limited attempts allowed to test recovery.
type BreakerConfig struct {
	// MaxRequests is the number of attempts allowed through while
	// half-open. If 0, one attempt is allowed.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which the
	// counts are cleared. If 0, counts are never cleared while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	// If 0, gobreaker uses 60s.
	Timeout time.Duration

	// FailureThreshold is the minimum number of attempts before the
	// breaker may trip.
	FailureThreshold uint32

	// FailureRatio trips the breaker when failures/attempts reaches it.
	// If 0, this rule is disabled.
	FailureRatio float64

	// ConsecutiveFailures trips the breaker after this many failures in a
	// row. If 0, this rule is disabled.
	ConsecutiveFailures uint32

	// Store shares breaker state between processes. If nil, the breaker is
	// local to the client.
	Store gobreaker.SharedDataStore

	// Classifier decides which attempts are failures.
	// Default: DefaultBreakerClassifier
	Classifier BreakerClassifier

	// OnStateChange is called on every state transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns a local breaker that trips after 5
// consecutive failures, or at a 50% failure rate over at least 20 attempts
// in a 10s window, and probes again after 10s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		FailureThreshold:    20,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DistributedBreakerConfig returns DefaultBreakerConfig with its state kept
// in store.
func DistributedBreakerConfig(store gobreaker.SharedDataStore) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Store = store
	return cfg
}

// DefaultBreakerClassifier counts network errors and 5xx responses as
// failures. Client errors, redirects and rate limiting (429) are not the
// upstream's fault and never trip the breaker.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		return isNetworkError(err)
	}
	return resp != nil && resp.StatusCode >= 500
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

// readyToTrip builds the gobreaker trip rule from cfg.
func (cfg BreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
		return true
	}
	if counts.Requests < cfg.FailureThreshold {
		return false
	}
	if cfg.FailureRatio > 0 && counts.Requests > 0 {
		return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
	}
	return false
}
