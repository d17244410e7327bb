package httpclient

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// debugLogger is the package-level zerolog logger used by WithDebug.
var debugLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// generateCurlCommand creates a cURL command equivalent for the given request.
//
// The generated command can be used to reproduce the request from the command line.
// Sensitive headers like Authorization are included for debugging purposes.
//
// Example output:
//
//	curl -X POST 'https://api.example.com/users' \
//	  -H 'Content-Type: application/json' \
//	  -d '{"name":"John"}'
func generateCurlCommand(req *http.Request, body []byte) string {
	parts := []string{"curl"}

	if req.Method != http.MethodGet {
		parts = append(parts, "-X", req.Method)
	}

	parts = append(parts, quote(req.URL.String()))

	// Headers (sorted for consistent output)
	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range req.Header[k] {
			parts = append(parts, "-H", quote(k+": "+v))
		}
	}

	if len(body) > 0 {
		parts = append(parts, "--data-binary", quote(string(body)))
	}

	return strings.Join(parts, " ")
}

// quote wraps s in single quotes for a POSIX shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// logRequest logs an attempt about to be sent. body is the in-memory
// request body when there is one.
func logRequest(cfg *internalConfig, req *http.Request, redirects int, body []byte) {
	event := cfg.Logger.Debug()
	if !event.Enabled() {
		return
	}

	event = event.
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Int("redirects", redirects)
	if cfg.Debug {
		event = event.Str("curl", generateCurlCommand(req, body))
	}
	event.Msg("HTTP request")
}

// logRedirect logs a redirect about to be followed.
func logRedirect(logger zerolog.Logger, resp *http.Response, to string, remaining int) {
	logger.Debug().
		Int("status", resp.StatusCode).
		Str("from", resp.Request.URL.Redacted()).
		Str("location", to).
		Int("remaining", remaining).
		Msg("HTTP redirect")
}

// logResponse logs the response handed to the caller.
func logResponse(logger zerolog.Logger, resp *http.Response, redirects int, duration time.Duration) {
	logger.Debug().
		Int("status", resp.StatusCode).
		Str("status_text", resp.Status).
		Int("redirects", redirects).
		Dur("duration_ms", duration).
		Int64("content_length", resp.ContentLength).
		Str("content_encoding", resp.Header.Get("Content-Encoding")).
		Msg("HTTP response")
}

// logRejected logs a request that failed.
func logRejected(logger zerolog.Logger, method, url string, err error) {
	logger.Debug().
		Err(err).
		Str("method", method).
		Str("url", url).
		Str("error_type", fmt.Sprintf("%T", err)).
		Msg("HTTP request failed")
}
