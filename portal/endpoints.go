package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

// periodPattern is the YYYY-MM reporting period accepted by the pie-chart
// endpoint.
var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func buildRequestOptions(opts []RequestOption) requestOptions {
	ro := defaultRequestOptions()
	for _, opt := range opts {
		opt(&ro)
	}
	return ro
}

// Login authenticates with the portal. The portal answers with access and
// refresh cookies, which land in the HTTP client's jar, and a user record
// from which the asset owner id is cached.
func (c *Client) Login(ctx context.Context, username, password string, opts ...RequestOption) (*LoginResult, error) {
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	body := map[string]string{"username": username, "password": password}
	out := &LoginResult{}
	res, err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, func(raw json.RawMessage) error {
		user, expiration, perr := parseLoginPayload(raw)
		if perr != nil {
			return perr
		}
		out.User = user
		out.RefreshTokenExpirationDate = expiration
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	if err != nil {
		return out, err
	}
	if out.User != nil {
		c.setOwnerID(out.User.AssetOwnerID)
		c.logger.Debug().Int("asset_owner_id", out.User.AssetOwnerID).Msg("Logged in to portal")
	}
	return out, nil
}

// RefreshToken explicitly mints a new access cookie using the refresh
// cookie. The orchestrator calls this automatically on 401; callers rarely
// need it directly.
func (c *Client) RefreshToken(ctx context.Context) error {
	return c.refreshSession(ctx)
}

// FetchAssetID resolves the asset belonging to an asset owner. Pass zero to
// use the cached owner id from login. The result is cached for later calls.
func (c *Client) FetchAssetID(ctx context.Context, assetOwnerID int, opts ...RequestOption) (*AssetIDResult, error) {
	ownerID, err := c.resolveOwnerID(assetOwnerID)
	if err != nil {
		return nil, err
	}

	out := &AssetIDResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset-owner/%d/withAssetId", ownerID), nil, nil, func(raw json.RawMessage) error {
		id, perr := parseAssetID(raw)
		if perr != nil {
			return perr
		}
		out.AssetID = id
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	if err != nil {
		return out, err
	}
	if out.AssetID > 0 {
		c.setAssetID(out.AssetID)
	}
	return out, nil
}

// FetchAsset retrieves the hardware record of an asset and refreshes the
// cached hub status. Pass zero to use the cached asset id.
func (c *Client) FetchAsset(ctx context.Context, assetID int, opts ...RequestOption) (*AssetResult, error) {
	id, err := c.resolveAssetID(assetID)
	if err != nil {
		return nil, err
	}

	out := &AssetResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset/%d", id), nil, nil, func(raw json.RawMessage) error {
		asset, perr := parseAsset(raw, time.Now().UTC())
		if perr != nil {
			return perr
		}
		out.Asset = asset
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	if err != nil {
		return out, err
	}
	if out.Asset != nil {
		status := out.Asset.Status
		out.Status = &status
		c.setStatus(status)
	}
	return out, nil
}

// FetchAssetOwnerDetails retrieves the full owner record, including the
// installer, distributor and compensation state.
func (c *Client) FetchAssetOwnerDetails(ctx context.Context, assetOwnerID int, opts ...RequestOption) (*OwnerDetailsResult, error) {
	ownerID, err := c.resolveOwnerID(assetOwnerID)
	if err != nil {
		return nil, err
	}

	out := &OwnerDetailsResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset-owner/%d", ownerID), nil, nil, func(raw json.RawMessage) error {
		details, perr := parseOwnerDetails(raw)
		if perr != nil {
			return perr
		}
		out.Details = details
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	return out, err
}

// FetchProfile retrieves the owner's contact profile.
func (c *Client) FetchProfile(ctx context.Context, assetOwnerID int, opts ...RequestOption) (*ProfileResult, error) {
	ownerID, err := c.resolveOwnerID(assetOwnerID)
	if err != nil {
		return nil, err
	}

	out := &ProfileResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset-owner/%d/profile", ownerID), nil, nil, func(raw json.RawMessage) error {
		profile, perr := parseProfile(raw)
		if perr != nil {
			return perr
		}
		out.Profile = profile
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	return out, err
}

// FetchElectricityAgreement retrieves the owner's electricity agreement
// covering the consumption and production sites.
func (c *Client) FetchElectricityAgreement(ctx context.Context, assetOwnerID int, opts ...RequestOption) (*AgreementResult, error) {
	ownerID, err := c.resolveOwnerID(assetOwnerID)
	if err != nil {
		return nil, err
	}

	out := &AgreementResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset-owner/%d/electricity-agreement", ownerID), nil, nil, func(raw json.RawMessage) error {
		agreement, perr := parseAgreement(raw)
		if perr != nil {
			return perr
		}
		out.Agreement = agreement
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	return out, err
}

// FetchInvoices retrieves the owner's invoices, including nested sub group
// invoices.
func (c *Client) FetchInvoices(ctx context.Context, assetOwnerID int, opts ...RequestOption) (*InvoicesResult, error) {
	ownerID, err := c.resolveOwnerID(assetOwnerID)
	if err != nil {
		return nil, err
	}

	out := &InvoicesResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset-owner/%d/invoice", ownerID), nil, nil, func(raw json.RawMessage) error {
		invoices, perr := parseInvoices(raw)
		if perr != nil {
			return perr
		}
		out.Invoices = invoices
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	return out, err
}

// FetchConsumption retrieves the owner's consumption history.
func (c *Client) FetchConsumption(ctx context.Context, assetOwnerID int, opts ...RequestOption) (*ConsumptionResult, error) {
	ownerID, err := c.resolveOwnerID(assetOwnerID)
	if err != nil {
		return nil, err
	}

	out := &ConsumptionResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset-owner/%d/consumption", ownerID), nil, nil, func(raw json.RawMessage) error {
		records, perr := parseConsumption(raw)
		if perr != nil {
			return perr
		}
		out.Records = records
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	return out, err
}

// FetchUptimeMonths retrieves the months for which uptime reporting is
// available for an asset.
func (c *Client) FetchUptimeMonths(ctx context.Context, assetID int, opts ...RequestOption) (*UptimeMonthsResult, error) {
	id, err := c.resolveAssetID(assetID)
	if err != nil {
		return nil, err
	}

	out := &UptimeMonthsResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset-uptime/available-months/%d", id), nil, nil, func(raw json.RawMessage) error {
		months, perr := parseUptimeMonths(raw)
		if perr != nil {
			return perr
		}
		out.Months = months
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	return out, err
}

// FetchUptimeHistory retrieves the monthly uptime ratio history of an asset.
func (c *Client) FetchUptimeHistory(ctx context.Context, assetID int, opts ...RequestOption) (*UptimeHistoryResult, error) {
	id, err := c.resolveAssetID(assetID)
	if err != nil {
		return nil, err
	}

	out := &UptimeHistoryResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset-uptime/bar-chart/history/%d", id), nil, nil, func(raw json.RawMessage) error {
		history, perr := parseUptimeHistory(raw)
		if perr != nil {
			return perr
		}
		out.History = history
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	return out, err
}

// FetchUptimePie retrieves the uptime distribution of an asset for one
// reporting period (YYYY-MM) and derives the uptime ratios.
func (c *Client) FetchUptimePie(ctx context.Context, assetID int, period string, opts ...RequestOption) (*UptimePieResult, error) {
	if !periodPattern.MatchString(period) {
		return nil, &ValidationError{Field: "period", Reason: fmt.Sprintf("%q is not a YYYY-MM month", period)}
	}
	id, err := c.resolveAssetID(assetID)
	if err != nil {
		return nil, err
	}

	query := url.Values{"period": {period}}
	out := &UptimePieResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset-uptime/pie-chart/%d", id), query, nil, func(raw json.RawMessage) error {
		slices, perr := parseUptimePie(raw)
		if perr != nil {
			return perr
		}
		out.Slices = slices
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	if err != nil {
		return out, err
	}
	out.RatioTotal = UptimeRatioTotal(out.Slices)
	out.RatioActual = UptimeRatioActual(out.Slices)
	return out, nil
}

// FetchRevenue retrieves the compensation summary of the last invoice of an
// asset.
func (c *Client) FetchRevenue(ctx context.Context, assetID int, opts ...RequestOption) (*RevenueResult, error) {
	id, err := c.resolveAssetID(assetID)
	if err != nil {
		return nil, err
	}

	out := &RevenueResult{}
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/asset/%d/revenue", id), nil, nil, func(raw json.RawMessage) error {
		revenue, perr := parseRevenue(raw)
		if perr != nil {
			return perr
		}
		out.Revenue = revenue
		return nil
	}, buildRequestOptions(opts))
	out.Result = res
	return out, err
}

// FetchSystemNotification retrieves a system notification by slug, for
// example "active-flower" or "active-zavann". The payload shape varies per
// notification, so only the raw envelope is returned.
func (c *Client) FetchSystemNotification(ctx context.Context, slug string, opts ...RequestOption) (*NotificationResult, error) {
	if slug == "" {
		slug = "active-flower"
	}

	out := &NotificationResult{}
	res, err := c.do(ctx, http.MethodGet, "/system-notification/"+url.PathEscape(slug), nil, nil, nil, buildRequestOptions(opts))
	out.Result = res
	return out, err
}
