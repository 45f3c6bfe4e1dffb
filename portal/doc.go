// Package portal provides a client for the Flowerhub portal API.
//
// The portal carries its tokens in cookies: Login sets an access and a
// refresh cookie in the HTTP client's jar, and every later call rides on
// them. The tokens are opaque to this package; it only reacts to 401
// responses by refreshing once and retrying once, then reporting an
// AuthError if the portal still refuses.
//
// Every endpoint method funnels through one request orchestrator that also
// retries 5xx and 429 responses with linear backoff and jitter, honors
// Retry-After, enforces per-call and default timeouts, and optionally bounds
// the number of concurrent in-flight requests. Results come back in a
// uniform envelope; callers that prefer inspecting failures over handling
// returned errors can opt in per call with WithCapturedErrors.
//
// Basic use:
//
//	client, err := portal.NewClient("", portal.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if _, err := client.Login(ctx, username, password); err != nil {
//		return err
//	}
//	readout, err := client.Readout(ctx, 0)
//
// A background poller can watch the hub status continuously; see
// StartPolling.
package portal
