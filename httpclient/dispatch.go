package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxDrainBytes bounds how much of a redirect body is read before closing it.
const maxDrainBytes = 64 << 10

// dispatch sends the request and follows redirects until a final response
// or an error.
//
// A 2xx status, or any status when failOnError is off, resolves. A 3xx with
// a Location header is followed while the redirect budget lasts; the
// Location is resolved against the current target. Any other status fails
// with a KindStatus error.
func (r *Request) dispatch() (*Response, error) {
	if r.urlErr != nil {
		return nil, r.urlErr
	}

	cfg := r.client.config
	start := time.Now()

	ctx, cancel := r.ctx, context.CancelFunc(func() {})
	if cfg.httpConfig.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.httpConfig.Timeout)
	}

	reject := func(target *url.URL, err error) (*Response, error) {
		cancel()
		logRejected(cfg.Logger, r.method, target.Redacted(), err)
		return nil, err
	}

	target := r.target
	budget := cfg.httpConfig.MaxRedirects

	for redirects := 0; ; redirects++ {
		if target.Scheme != "http" && target.Scheme != "https" {
			return reject(target, newError(KindInvalidProtocol,
				"unsupported protocol "+target.Scheme+":", target, nil, nil))
		}

		resp, err := r.roundTrip(ctx, target, redirects)
		if err != nil {
			return reject(target, err)
		}

		status := resp.StatusCode
		switch {
		case !r.opts.failOnError || (status >= 200 && status < 300):
			out, err := newResponse(resp, r, redirects, cancel)
			if err != nil {
				_ = resp.Body.Close()
				return reject(target, err)
			}
			logResponse(cfg.Logger, resp, redirects, time.Since(start))
			return out, nil

		case status >= 300 && status < 400:
			location := resp.Header.Get("Location")
			discard(resp)

			if location == "" {
				return reject(target, newError(KindProtocol,
					"http redirect without a location", target, resp, nil))
			}
			if budget <= 0 {
				return reject(target, newError(KindTooManyRedirects,
					"maximum redirects exceeded", target, resp, nil))
			}

			next, err := target.Parse(location)
			if err != nil {
				return reject(target, newError(KindProtocol,
					"invalid redirect location", target, resp, err))
			}

			budget--
			logRedirect(cfg.Logger, resp, next.Redacted(), budget)
			cfg.Metrics.recordRedirect(ctx, status, cfg.baseAttributes())
			target = next

		default:
			discard(resp)
			return reject(target, newError(KindStatus,
				"bad status: "+resp.Status, target, resp, nil))
		}
	}
}

// roundTrip sends one attempt through the transport chain.
func (r *Request) roundTrip(ctx context.Context, target *url.URL, redirects int) (*http.Response, error) {
	cfg := r.client.config

	req, err := http.NewRequestWithContext(withResendCount(ctx, redirects), r.method, target.String(), nil)
	if err != nil {
		return nil, err
	}

	// The header is frozen once the request has started.
	req.Header = r.header.Clone()
	if r.opts.acceptGzip && req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	if req.Header.Get("User-Agent") == "" && cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	var tracked *trackedBody
	var inMemory []byte
	if r.body != nil {
		rc, length := r.body.open()
		if length == 0 {
			_ = rc.Close()
			req.Body = http.NoBody
		} else {
			tracked = &trackedBody{rc: rc}
			req.Body = tracked
			req.ContentLength = length
		}
		if b, ok := r.body.(bytesBody); ok {
			inMemory = b
		}
	}

	logRequest(cfg, req, redirects, inMemory)

	resp, err := r.client.transport.RoundTrip(req)

	if tracked != nil {
		if bodyErr := tracked.failure(); bodyErr != nil {
			if resp != nil {
				_ = resp.Body.Close()
			}
			return nil, bodyErr
		}
	}
	if err != nil {
		return nil, err
	}

	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	if resp.Request == nil {
		resp.Request = req
	}
	return resp, nil
}

// discard drains a little of the body so the connection can be reused,
// then closes it.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}
