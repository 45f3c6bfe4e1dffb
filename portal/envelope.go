package portal

import "encoding/json"

// ErrorInfo is the inspectable failure detail carried by a Result when the
// caller opted into captured errors instead of returned errors.
type ErrorInfo struct {
	StatusCode int
	Message    string
	Schema     *SchemaError
}

// Result is the uniform envelope every endpoint call produces. StatusCode is
// the transport's reported status; JSON holds the raw body when it decoded as
// JSON; Text always holds the raw body. Err is set only when the call failed
// and the caller requested captured errors.
type Result struct {
	StatusCode int
	JSON       json.RawMessage
	Text       string
	Err        *ErrorInfo
}

// OK reports whether the call succeeded. A 304 Not Modified counts as
// success; the caller that supplied the conditional header keeps its cache.
func (r Result) OK() bool {
	return r.Err == nil && (r.StatusCode == 304 || (r.StatusCode >= 200 && r.StatusCode < 300))
}

// NotModified reports whether the portal answered 304 to a conditional
// request. The envelope then carries no decoded payload.
func (r Result) NotModified() bool {
	return r.StatusCode == 304
}

// LoginResult is the outcome of Login.
type LoginResult struct {
	Result
	User                       *User
	RefreshTokenExpirationDate string
}

// AssetIDResult is the outcome of FetchAssetID.
type AssetIDResult struct {
	Result
	AssetID int
}

// AssetResult is the outcome of FetchAsset.
type AssetResult struct {
	Result
	Asset  *Asset
	Status *FlowerHubStatus
}

// OwnerDetailsResult is the outcome of FetchAssetOwnerDetails.
type OwnerDetailsResult struct {
	Result
	Details *AssetOwnerDetails
}

// ProfileResult is the outcome of FetchProfile.
type ProfileResult struct {
	Result
	Profile *AssetOwnerProfile
}

// AgreementResult is the outcome of FetchElectricityAgreement.
type AgreementResult struct {
	Result
	Agreement *ElectricityAgreement
}

// InvoicesResult is the outcome of FetchInvoices.
type InvoicesResult struct {
	Result
	Invoices []Invoice
}

// ConsumptionResult is the outcome of FetchConsumption.
type ConsumptionResult struct {
	Result
	Records []ConsumptionRecord
}

// UptimeMonthsResult is the outcome of FetchUptimeMonths.
type UptimeMonthsResult struct {
	Result
	Months []UptimeMonth
}

// UptimeHistoryResult is the outcome of FetchUptimeHistory.
type UptimeHistoryResult struct {
	Result
	History []UptimeHistoryEntry
}

// UptimePieResult is the outcome of FetchUptimePie. RatioTotal counts noData
// seconds in the denominator, RatioActual excludes them; both are nil when
// their denominator is zero.
type UptimePieResult struct {
	Result
	Slices      []UptimePieSlice
	RatioTotal  *float64
	RatioActual *float64
}

// RevenueResult is the outcome of FetchRevenue.
type RevenueResult struct {
	Result
	Revenue *Revenue
}

// NotificationResult is the outcome of FetchSystemNotification. The payload
// shape varies per notification, so only the raw envelope is exposed.
type NotificationResult struct {
	Result
}
