package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// backoffBase is the per-attempt unit of the linear backoff.
	backoffBase = 500 * time.Millisecond
	// backoffJitter bounds the random jitter added to every backoff delay.
	backoffJitter = 250 * time.Millisecond

	maxErrorBody = 512
)

// httpResponse is what the transport adapter hands back to the orchestrator.
type httpResponse struct {
	status int
	header http.Header
	body   []byte
}

// do is the single request primitive every endpoint method funnels through.
// It acquires a concurrency slot when a limiter is configured, applies the
// effective timeout, refreshes the token and retries exactly once on 401,
// retries 5xx/429 responses with linear backoff bounded by the attempt
// budget, and funnels every outcome into the uniform result envelope.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, parse func(json.RawMessage) error, opts requestOptions) (Result, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return Result{}, fmt.Errorf("waiting for request slot: %w", err)
		}
		defer c.sem.Release(1)
	}

	timeout := c.timeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	budget := c.retryAttempts
	if opts.retryAttempts >= 0 {
		budget = opts.retryAttempts
	}

	fullURL := c.requestURL(path, query)

	var resp *httpResponse
	refreshed := false
	for attempt := 0; ; attempt++ {
		r, err := c.send(ctx, method, fullURL, body, opts.etag)
		if err != nil {
			return c.fail(Result{}, &APIError{URL: fullURL, Body: err.Error()}, opts)
		}
		resp = r

		if resp.status == http.StatusUnauthorized {
			if refreshed {
				return c.authFailed(resp, fullURL, "still unauthorized after token refresh", nil)
			}
			refreshed = true
			if err := c.refreshSession(ctx); err != nil {
				return c.authFailed(resp, fullURL, "token refresh failed", err)
			}
			c.logger.Debug().Str("url", fullURL).Msg("Token refreshed, retrying request")
			continue
		}

		if retryableStatus(resp.status) && attempt < budget {
			delay := c.backoffDelay(attempt+1, resp.header.Get("Retry-After"))
			c.logger.Warn().
				Int("status", resp.status).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Str("url", fullURL).
				Msg("Transient portal error, backing off")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Result{StatusCode: resp.status}, fmt.Errorf("canceled during backoff: %w", ctx.Err())
			}
			continue
		}
		break
	}

	res := Result{StatusCode: resp.status, Text: string(resp.body)}
	if len(resp.body) > 0 && json.Valid(resp.body) {
		res.JSON = resp.body
	}

	// The caller supplied the conditional header and owns the cache; an
	// empty 304 body is never run through a parser.
	if resp.status == http.StatusNotModified {
		return res, nil
	}

	if resp.status >= 200 && resp.status < 300 {
		if parse == nil {
			return res, nil
		}
		if perr := parse(res.JSON); perr != nil {
			apiErr := &APIError{StatusCode: resp.status, URL: fullURL, Body: truncate(res.Text)}
			var se *SchemaError
			if errors.As(perr, &se) {
				apiErr.Schema = se
			} else {
				apiErr.Schema = &SchemaError{Field: "(body)", Reason: perr.Error()}
			}
			return c.fail(res, apiErr, opts)
		}
		return res, nil
	}

	return c.fail(res, &APIError{StatusCode: resp.status, URL: fullURL, Body: truncate(res.Text)}, opts)
}

// fail surfaces an API error either as a returned error or, when the caller
// opted in, inside the envelope.
func (c *Client) fail(res Result, apiErr *APIError, opts requestOptions) (Result, error) {
	if opts.capturedErrors {
		res.Err = &ErrorInfo{StatusCode: apiErr.StatusCode, Message: apiErr.Error(), Schema: apiErr.Schema}
		return res, nil
	}
	if c.onAPIError != nil {
		c.onAPIError(apiErr)
	}
	return res, apiErr
}

// authFailed clears owner-scoped state, notifies the registered handler once
// and returns an AuthError. Authentication failures are never captured in
// the envelope.
func (c *Client) authFailed(resp *httpResponse, fullURL, reason string, cause error) (Result, error) {
	c.clearOwnerState()
	authErr := &AuthError{StatusCode: resp.status, Reason: reason, Err: cause}
	c.logger.Error().Err(authErr).Str("url", fullURL).Msg("Portal authentication failed")
	if c.onAuthFailed != nil {
		c.onAuthFailed(authErr)
	}
	res := Result{StatusCode: resp.status, Text: string(resp.body)}
	if len(resp.body) > 0 && json.Valid(resp.body) {
		res.JSON = resp.body
	}
	return res, authErr
}

// refreshSession mints a new access cookie through the refresh endpoint. It
// deliberately bypasses do so a 401 here can never trigger another refresh.
func (c *Client) refreshSession(ctx context.Context) error {
	fullURL := c.requestURL("/auth/refresh-token", nil)
	resp, err := c.send(ctx, http.MethodGet, fullURL, nil, "")
	if err != nil {
		return fmt.Errorf("refresh request failed: %w", err)
	}
	if resp.status < 200 || resp.status >= 300 {
		return fmt.Errorf("refresh endpoint returned status %d", resp.status)
	}

	// The refresh response may carry the user record; pick up the asset
	// owner id when it does.
	var payload struct {
		User *struct {
			AssetOwnerID int `json:"assetOwnerId"`
		} `json:"user"`
	}
	if err := json.Unmarshal(resp.body, &payload); err == nil && payload.User != nil && payload.User.AssetOwnerID > 0 {
		c.setOwnerID(payload.User.AssetOwnerID)
	}
	return nil
}

// send issues one HTTP call through the injected transport and returns the
// status, headers and raw body.
func (c *Client) send(ctx context.Context, method, fullURL string, body any, etag string) (*httpResponse, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Origin", c.origin)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &httpResponse{status: resp.StatusCode, header: resp.Header, body: raw}, nil
}

// requestURL builds the absolute request URL. Absolute paths pass through
// untouched.
func (c *Client) requestURL(path string, query url.Values) string {
	full := path
	if !strings.HasPrefix(path, "http") {
		full = strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

// backoffDelay computes the wait before retry number attempt: linear in the
// attempt count plus random jitter, never less than a server-supplied
// Retry-After.
func (c *Client) backoffDelay(attempt int, retryAfter string) time.Duration {
	delay := backoffBase*time.Duration(attempt) + time.Duration(rand.Int63n(int64(backoffJitter)))
	if retryAfter != "" {
		if ra := parseRetryAfter(retryAfter); ra > delay {
			delay = ra
		}
	}
	return delay
}

// parseRetryAfter understands both the delta-seconds and the HTTP-date forms
// of the Retry-After header. Unparseable values yield zero.
func parseRetryAfter(value string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if until := time.Until(at); until > 0 {
			return until
		}
	}
	return 0
}

// retryableStatus reports whether a status is worth retrying: server errors
// and rate limiting only. Other 4xx responses are the caller's problem.
func retryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
