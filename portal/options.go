package portal

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	httpClient    *http.Client
	origin        string
	timeout       time.Duration
	retryAttempts int
	maxConcurrent int64
	onAuthFailed  func(error)
	onAPIError    func(*APIError)
	logger        *zerolog.Logger
}

// WithHTTPClient injects the HTTP client to use. The injected client must
// carry a cookie jar, since the portal transports tokens in cookies. A client
// injected this way is never closed by Close.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithOrigin overrides the Origin header sent with every request.
func WithOrigin(origin string) Option {
	return func(o *clientOptions) {
		o.origin = origin
	}
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithRetryAttempts sets the default retry budget for 5xx and 429 responses.
func WithRetryAttempts(attempts int) Option {
	return func(o *clientOptions) {
		if attempts >= 0 {
			o.retryAttempts = attempts
		}
	}
}

// WithMaxConcurrent bounds the number of simultaneous in-flight requests.
// Zero leaves concurrency unlimited.
func WithMaxConcurrent(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxConcurrent = int64(n)
		}
	}
}

// WithAuthFailedHandler registers a callback invoked once whenever the
// refresh-and-retry flow ends in an authentication failure.
func WithAuthFailedHandler(fn func(error)) Option {
	return func(o *clientOptions) {
		o.onAuthFailed = fn
	}
}

// WithAPIErrorHandler registers a callback invoked before an API error is
// returned to the caller. Errors captured in the envelope with
// WithCapturedErrors do not trigger it.
func WithAPIErrorHandler(fn func(*APIError)) Option {
	return func(o *clientOptions) {
		o.onAPIError = fn
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = &logger
	}
}

// RequestOption configures a single endpoint call.
type RequestOption func(*requestOptions)

// requestOptions holds per-call overrides for the request orchestrator.
type requestOptions struct {
	capturedErrors bool
	retryAttempts  int // -1 means the client default
	timeout        time.Duration
	etag           string
}

func defaultRequestOptions() requestOptions {
	return requestOptions{retryAttempts: -1}
}

// WithCapturedErrors makes API failures come back inside the result envelope
// instead of as a returned error. Authentication and validation failures are
// still returned as errors so silent auth loss cannot pass unnoticed.
func WithCapturedErrors() RequestOption {
	return func(o *requestOptions) {
		o.capturedErrors = true
	}
}

// WithCallRetryAttempts overrides the 5xx/429 retry budget for one call.
func WithCallRetryAttempts(attempts int) RequestOption {
	return func(o *requestOptions) {
		if attempts >= 0 {
			o.retryAttempts = attempts
		}
	}
}

// WithCallTimeout overrides the total timeout for one call.
func WithCallTimeout(timeout time.Duration) RequestOption {
	return func(o *requestOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithConditionalETag sends an If-None-Match header. When the portal answers
// 304 the call succeeds with an empty envelope and the caller keeps its
// cached payload.
func WithConditionalETag(etag string) RequestOption {
	return func(o *requestOptions) {
		o.etag = etag
	}
}
