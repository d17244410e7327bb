// Package httpclient provides an HTTP client that follows redirects, decodes
// compressed responses and encodes form bodies lazily, with OpenTelemetry
// instrumentation built in.
//
// # Features
//
//   - Verb constructors (Get, Head, Post, Put, Patch, Delete) returning a Request
//   - JSON, text, urlencoded and multipart bodies, or streamed through io.Writer
//   - Redirects followed with the same method, headers and body (default budget: 10)
//   - gzip and deflate decoding, charset transcoding to UTF-8
//   - A Response that can be buffered, pulled chunk by chunk, or streamed
//   - Structured errors: ErrInvalidProtocol, ErrProtocol, ErrStatus, ...
//   - OpenTelemetry spans per attempt and request metrics
//   - Optional rate limiting and circuit breaking (local or Redis-backed)
//
// # Quick Start
//
//	resp, err := httpclient.Get(ctx, "https://api.example.com/users/1")
//	if err != nil {
//	    return err
//	}
//	var user User
//	if err := resp.JSON(&user); err != nil {
//	    return err
//	}
//
// With a configured client:
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("user-service"),
//	    httpclient.WithTimeout(10*time.Second),
//	    httpclient.WithDefaultHeader("Authorization", "Bearer "+token),
//	)
//
//	resp, err := client.Post(ctx, "https://api.example.com/users").JSON(newUser)
//
// # Request Bodies
//
// A request is sent when its body is attached. JSON, Text, Form and Data
// attach a body and wait for the response; End sends a request without
// one. Content-Type is only set when the caller has not set it.
//
//	// application/x-www-form-urlencoded
//	resp, err := client.Post(ctx, tokenURL).Data(url.Values{"grant_type": {"client_credentials"}})
//
//	// multipart/form-data
//	resp, err := client.Post(ctx, uploadURL).Form(map[string]any{"name": "report", "tags": []string{"q4", "draft"}})
//
//	// streamed
//	req := client.Put(ctx, blobURL)
//	io.Copy(req, file)
//	resp, err := req.End()
//
// Form encoding is done by package content, whose filters control how each
// kind of value is written.
//
// # Redirects and Errors
//
// By default a 3xx response with a Location header is followed, a 2xx
// response resolves, and anything else fails:
//
//	resp, err := client.Get(ctx, url).End()
//	switch {
//	case httpclient.IsStatus(err):
//	    log.Printf("server answered %d", httpclient.StatusCode(err))
//	case errors.Is(err, httpclient.ErrTooManyRedirects):
//	    log.Print("redirect loop")
//	case err != nil:
//	    // transport error (DNS, TLS, timeout, ...), returned unchanged
//	}
//
// WithFailOnError(false) returns the first response whatever its status,
// without following redirects.
//
// # Reading Responses
//
//	body, err := resp.Text()            // whole body, memoised
//	chunk, err := resp.Consume()        // one chunk at a time, io.EOF at the end
//	_, err = io.Copy(dst, resp)         // Response is an io.Reader and io.WriterTo
//	err = resp.Flush()                  // discard the rest
//
// A body that is not read must be flushed or closed to release the
// connection.
//
// # Configuration Presets
//
//	client := httpclient.New(httpclient.WithConfig(httpclient.LowLatencyConfig()))
//	client := httpclient.New(httpclient.WithConfig(httpclient.ConservativeConfig()))
//
// # Resilience
//
// Every attempt, including each redirect hop, passes through the rate
// limiter and the circuit breaker when they are enabled:
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("inventory"),
//	    httpclient.WithRateLimit(httpclient.DefaultRateLimitConfig()),
//	    httpclient.WithBreaker(httpclient.DistributedBreakerConfig(httpclient.NewRedisStore(rdb))),
//	)
//
// There are no automatic retries.
//
// # OpenTelemetry Integration
//
// Each attempt is a client span carrying the OpenTelemetry HTTP semantic
// convention attributes, with http.request.resend_count set on redirect
// hops. The span ends when the response body is released.
//
// Metrics recorded:
//   - http.client.request.duration
//   - http.client.request.body.size / http.client.response.body.size
//   - http.client.active_requests
//   - http.client.request.error
//   - http.client.redirects
//   - DNS, TLS, connection and time-to-first-byte durations
//   - http.client.breaker.requests / http.client.breaker.state
//
// # Testing
//
// MockTransport replaces the network:
//
//	mock := httpclient.NewMockTransport().
//	    StubRedirect("/old", http.StatusFound, "/new").
//	    StubCompressed("/new", http.StatusOK, "gzip", "hello")
//	client := httpclient.New(httpclient.WithMockTransport(mock))
package httpclient
