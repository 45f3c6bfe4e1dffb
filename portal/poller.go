package portal

import (
	"context"
	"fmt"
	"time"
)

// MinPollInterval is the floor for the background poll interval, bounding
// the request rate against the portal.
const MinPollInterval = 5 * time.Second

// PollOption configures the background poller.
type PollOption func(*pollOptions)

type pollOptions struct {
	onUpdate       func(FlowerHubStatus)
	updates        chan FlowerHubStatus
	runImmediately bool
}

// WithOnUpdate registers a callback invoked with the hub status after every
// successful poll tick.
func WithOnUpdate(fn func(FlowerHubStatus)) PollOption {
	return func(o *pollOptions) {
		o.onUpdate = fn
	}
}

// WithUpdates delivers each successful tick's status to the channel without
// ever blocking: when the channel is full the oldest queued status is
// dropped so a slow consumer always sees the most recent state. The poller
// needs both directions of the channel for that, so it must not be narrowed
// to send-only by the caller.
func WithUpdates(ch chan FlowerHubStatus) PollOption {
	return func(o *pollOptions) {
		o.updates = ch
	}
}

// WithImmediateFetch makes the poller run its first tick right away instead
// of after the first interval.
func WithImmediateFetch() PollOption {
	return func(o *pollOptions) {
		o.runImmediately = true
	}
}

// StartPolling launches the repeating asset-status fetch. Ticks are strictly
// sequential: the next one is scheduled after the previous completes, never
// at a fixed wall-clock cadence. Tick errors are logged and never stop the
// loop. At most one poller runs per client.
func (c *Client) StartPolling(interval time.Duration, opts ...PollOption) error {
	if interval < MinPollInterval {
		return &ValidationError{Field: "interval", Reason: fmt.Sprintf("%s is below the %s floor", interval, MinPollInterval)}
	}

	o := pollOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	c.pollMu.Lock()
	defer c.pollMu.Unlock()
	if c.pollActive {
		return ErrPollerRunning
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.pollStop = stop
	c.pollDone = done
	c.pollActive = true

	go c.pollLoop(interval, o, stop, done)
	c.logger.Info().Dur("interval", interval).Msg("Started background asset polling")
	return nil
}

// StopPolling stops the background poller and waits for the current tick to
// finish, so no tick runs after it returns. Safe to call when no poller is
// running.
func (c *Client) StopPolling() {
	c.pollMu.Lock()
	if !c.pollActive {
		c.pollMu.Unlock()
		return
	}
	stop, done := c.pollStop, c.pollDone
	c.pollActive = false
	c.pollStop, c.pollDone = nil, nil
	c.pollMu.Unlock()

	close(stop)
	<-done
	c.logger.Info().Msg("Stopped background asset polling")
}

// Polling reports whether the background poller is running.
func (c *Client) Polling() bool {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()
	return c.pollActive
}

func (c *Client) pollLoop(interval time.Duration, o pollOptions, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	// The loop context dies with the stop channel so a pending retry or
	// backoff inside a tick is cancelled promptly instead of outliving
	// the poller.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	if o.runImmediately {
		c.pollTick(ctx, o)
	}

	for {
		select {
		case <-stop:
			return
		case <-time.After(interval):
			select {
			case <-stop:
				return
			default:
			}
			c.pollTick(ctx, o)
		}
	}
}

// pollTick fetches the asset status once, resolving the asset id first when
// it is not cached yet, and delivers the result.
func (c *Client) pollTick(ctx context.Context, o pollOptions) {
	if c.AssetID() == 0 {
		if _, err := c.FetchAssetID(ctx, 0); err != nil {
			c.logger.Warn().Err(err).Msg("Poll tick could not resolve asset id")
			return
		}
	}

	res, err := c.FetchAsset(ctx, 0)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Poll tick asset fetch failed")
		return
	}
	if res.Status == nil {
		return
	}
	status := *res.Status

	if o.onUpdate != nil {
		o.onUpdate(status)
	}
	if o.updates != nil {
		select {
		case o.updates <- status:
		default:
			// Full queue: make room by dropping the oldest entry, then
			// try once more. Never block the poll loop on a consumer.
			select {
			case <-o.updates:
			default:
			}
			select {
			case o.updates <- status:
			default:
			}
		}
	}
}
