package portal

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultBaseURL is the production portal API endpoint.
	DefaultBaseURL = "https://api.portal.flowerhub.se"
	// DefaultOrigin is the Origin header the portal expects.
	DefaultOrigin = "https://portal.flowerhub.se"

	// DefaultTimeout is the per-request timeout when none is configured.
	DefaultTimeout = 10 * time.Second
	// DefaultRetryAttempts is the default retry budget for 5xx/429 responses.
	DefaultRetryAttempts = 3
)

// Client is a Flowerhub portal API client. It owns the session state (cached
// asset owner id, asset id and hub status) for exactly one login; separate
// Client instances never share tokens unless given the same HTTP client
// deliberately.
type Client struct {
	baseURL       string
	origin        string
	httpClient    *http.Client
	ownsHTTP      bool
	timeout       time.Duration
	retryAttempts int
	sem           *semaphore.Weighted
	onAuthFailed  func(error)
	onAPIError    func(*APIError)
	logger        zerolog.Logger

	mu           sync.Mutex
	assetOwnerID int
	assetID      int
	status       *FlowerHubStatus

	pollMu     sync.Mutex
	pollStop   chan struct{}
	pollDone   chan struct{}
	pollActive bool
}

// NewClient creates a new portal client. An empty baseURL selects the
// production portal.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrInvalidConfig, baseURL)
	}

	o := clientOptions{
		origin:        DefaultOrigin,
		timeout:       DefaultTimeout,
		retryAttempts: DefaultRetryAttempts,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		baseURL:       u.String(),
		origin:        o.origin,
		timeout:       o.timeout,
		retryAttempts: o.retryAttempts,
		onAuthFailed:  o.onAuthFailed,
		onAPIError:    o.onAPIError,
		logger:        zerolog.Nop(),
	}
	if o.logger != nil {
		c.logger = *o.logger
	}
	if o.maxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(o.maxConcurrent)
	}

	if o.httpClient != nil {
		c.httpClient = o.httpClient
	} else {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.httpClient = &http.Client{Jar: jar}
		c.ownsHTTP = true
	}
	if c.httpClient.Jar == nil {
		return nil, fmt.Errorf("%w: HTTP client has no cookie jar", ErrInvalidConfig)
	}

	return c, nil
}

// AssetOwnerID returns the cached asset owner id, or zero when unknown.
func (c *Client) AssetOwnerID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assetOwnerID
}

// AssetID returns the cached asset id, or zero when unknown.
func (c *Client) AssetID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assetID
}

// Status returns a copy of the most recently fetched hub status, or nil when
// no asset fetch has succeeded yet.
func (c *Client) Status() *FlowerHubStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == nil {
		return nil
	}
	s := *c.status
	return &s
}

// Logout forgets all cached session state. The portal keeps no server-side
// session beyond the cookies, which expire on their own.
func (c *Client) Logout() {
	c.mu.Lock()
	c.assetOwnerID = 0
	c.assetID = 0
	c.status = nil
	c.mu.Unlock()
	c.logger.Debug().Msg("Cleared portal session state")
}

// Close stops the background poller and releases transport resources the
// client created itself. An injected HTTP client is left untouched.
func (c *Client) Close() {
	c.StopPolling()
	if c.ownsHTTP {
		c.httpClient.CloseIdleConnections()
	}
}

// setOwnerID records the asset owner id learned from a login or refresh
// response.
func (c *Client) setOwnerID(id int) {
	c.mu.Lock()
	c.assetOwnerID = id
	c.mu.Unlock()
}

// setAssetID records the asset id learned from the withAssetId endpoint.
func (c *Client) setAssetID(id int) {
	c.mu.Lock()
	c.assetID = id
	c.mu.Unlock()
}

// setStatus records the hub status learned from an asset fetch.
func (c *Client) setStatus(s FlowerHubStatus) {
	c.mu.Lock()
	c.status = &s
	c.mu.Unlock()
}

// clearOwnerState drops owner-scoped identifiers after an authentication
// failure. The asset id is asset-scoped and survives for the next session.
func (c *Client) clearOwnerState() {
	c.mu.Lock()
	c.assetOwnerID = 0
	c.mu.Unlock()
}

// resolveOwnerID picks the explicit id when given, falling back to the
// cached one from login.
func (c *Client) resolveOwnerID(explicit int) (int, error) {
	if explicit > 0 {
		return explicit, nil
	}
	c.mu.Lock()
	cached := c.assetOwnerID
	c.mu.Unlock()
	if cached > 0 {
		return cached, nil
	}
	return 0, &ValidationError{Field: "assetOwnerID", Reason: "not provided and not cached; log in first or pass it explicitly"}
}

// resolveAssetID picks the explicit id when given, falling back to the
// cached one from FetchAssetID.
func (c *Client) resolveAssetID(explicit int) (int, error) {
	if explicit > 0 {
		return explicit, nil
	}
	c.mu.Lock()
	cached := c.assetID
	c.mu.Unlock()
	if cached > 0 {
		return cached, nil
	}
	return 0, &ValidationError{Field: "assetID", Reason: "not provided and not cached; call FetchAssetID first or pass it explicitly"}
}
