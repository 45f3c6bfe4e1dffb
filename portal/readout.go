package portal

import (
	"context"
	"errors"
	"time"
)

// ReadoutStep identifies one stage of the readout pipeline.
type ReadoutStep string

// Pipeline steps, in execution order.
const (
	StepOwnerDetails ReadoutStep = "owner-details"
	StepAssetID      ReadoutStep = "asset-id"
	StepAsset        ReadoutStep = "asset"
	StepUptime       ReadoutStep = "uptime"
)

// ReadoutResult carries whatever the readout pipeline managed to collect.
// When a step fails the later fields stay nil and FailedStep/Err name the
// step that broke, so callers can inspect the partial result.
type ReadoutResult struct {
	AssetOwnerID int
	AssetID      int
	Owner        *OwnerDetailsResult
	Asset        *AssetResult
	Uptime       *UptimePieResult
	FailedStep   ReadoutStep
	Err          error
}

// OK reports whether every step of the pipeline succeeded.
func (r *ReadoutResult) OK() bool {
	return r.Err == nil
}

// Readout runs the fixed discovery-then-fetch pipeline: owner details, asset
// id, asset detail, then the current month's uptime distribution, each step
// feeding the next. A failing step skips the rest and is reported in the
// result instead of aborting, so the partial data stays inspectable. Only
// caller-side validation surfaces as a returned error.
func (c *Client) Readout(ctx context.Context, assetOwnerID int, opts ...RequestOption) (*ReadoutResult, error) {
	ownerID, err := c.resolveOwnerID(assetOwnerID)
	if err != nil {
		return nil, err
	}
	out := &ReadoutResult{AssetOwnerID: ownerID}

	owner, err := c.FetchAssetOwnerDetails(ctx, ownerID, opts...)
	out.Owner = owner
	if failed := stepFailure(err, owner); failed != nil {
		out.FailedStep, out.Err = StepOwnerDetails, failed
		return out, nil
	}

	idRes, err := c.FetchAssetID(ctx, ownerID, opts...)
	if failed := stepFailure(err, idRes); failed != nil {
		out.FailedStep, out.Err = StepAssetID, failed
		return out, nil
	}
	out.AssetID = idRes.AssetID

	asset, err := c.FetchAsset(ctx, out.AssetID, opts...)
	out.Asset = asset
	if failed := stepFailure(err, asset); failed != nil {
		out.FailedStep, out.Err = StepAsset, failed
		return out, nil
	}

	period := time.Now().UTC().Format("2006-01")
	uptime, err := c.FetchUptimePie(ctx, out.AssetID, period, opts...)
	out.Uptime = uptime
	if failed := stepFailure(err, uptime); failed != nil {
		out.FailedStep, out.Err = StepUptime, failed
		return out, nil
	}

	c.logger.Debug().
		Int("asset_owner_id", out.AssetOwnerID).
		Int("asset_id", out.AssetID).
		Msg("Readout sequence completed")
	return out, nil
}

// envelopeCarrier lets stepFailure inspect any endpoint result uniformly.
type envelopeCarrier interface {
	envelope() Result
}

func (r Result) envelope() Result { return r }

// stepFailure normalizes the two failure shapes a step can produce: a
// returned error, or an envelope with a captured error.
func stepFailure(err error, res envelopeCarrier) error {
	if err != nil {
		return err
	}
	if res == nil {
		return errors.New("step produced no result")
	}
	env := res.envelope()
	if env.Err != nil {
		return errors.New(env.Err.Message)
	}
	return nil
}
