package portal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Parsers are pure functions from raw response bodies to validated domain
// records. They never touch client state; facade methods apply the results.
// Every mismatch comes back as a *SchemaError naming the offending field.

// decodeJSON unmarshals raw into dst, translating decode failures into
// field-level schema errors.
func decodeJSON(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return &SchemaError{Field: "(body)", Reason: "response body is empty or not JSON"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "(body)"
			}
			return &SchemaError{Field: field, Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}
		}
		return &SchemaError{Field: "(body)", Reason: err.Error()}
	}
	return nil
}

func missingField(field string) error {
	return &SchemaError{Field: field, Reason: "required field missing"}
}

// parseLoginPayload extracts the user record from a login response.
func parseLoginPayload(raw json.RawMessage) (*User, string, error) {
	var payload struct {
		User                       *User   `json:"user"`
		RefreshTokenExpirationDate *string `json:"refreshTokenExpirationDate"`
	}
	if err := decodeJSON(raw, &payload); err != nil {
		return nil, "", err
	}
	if payload.User == nil {
		return nil, "", missingField("user")
	}
	if payload.User.ID == 0 {
		return nil, "", missingField("user.id")
	}
	if payload.User.AssetOwnerID == 0 {
		return nil, "", missingField("user.assetOwnerId")
	}
	expiration := ""
	if payload.RefreshTokenExpirationDate != nil {
		expiration = *payload.RefreshTokenExpirationDate
	}
	return payload.User, expiration, nil
}

// parseAssetID extracts the asset id from the withAssetId response.
func parseAssetID(raw json.RawMessage) (int, error) {
	var payload struct {
		AssetID *int `json:"assetId"`
	}
	if err := decodeJSON(raw, &payload); err != nil {
		return 0, err
	}
	if payload.AssetID == nil {
		return 0, missingField("assetId")
	}
	return *payload.AssetID, nil
}

// parseAsset builds the asset record. The hub status carries no timestamp on
// the wire; UpdatedAt is stamped with now so age can be derived later.
func parseAsset(raw json.RawMessage, now time.Time) (*Asset, error) {
	var payload struct {
		ID              *int      `json:"id"`
		Inverter        *Inverter `json:"inverter"`
		Battery         *Battery  `json:"battery"`
		FuseSize        *int      `json:"fuseSize"`
		FlowerHubStatus *struct {
			Status  *string `json:"status"`
			Message *string `json:"message"`
		} `json:"flowerHubStatus"`
		IsInstalled *bool `json:"isInstalled"`
	}
	if err := decodeJSON(raw, &payload); err != nil {
		return nil, err
	}
	if payload.ID == nil {
		return nil, missingField("id")
	}

	asset := &Asset{ID: *payload.ID}
	if payload.Inverter != nil {
		asset.Inverter = *payload.Inverter
	}
	if payload.Battery != nil {
		asset.Battery = *payload.Battery
	}
	if payload.FuseSize != nil {
		asset.FuseSize = *payload.FuseSize
	}
	if payload.IsInstalled != nil {
		asset.IsInstalled = *payload.IsInstalled
	}
	if fhs := payload.FlowerHubStatus; fhs != nil {
		status := FlowerHubStatus{UpdatedAt: now}
		if fhs.Status != nil {
			status.Status = *fhs.Status
		}
		if fhs.Message != nil {
			status.Message = *fhs.Message
		}
		asset.Status = status
	}
	return asset, nil
}

// parseOwnerDetails builds the asset owner details record.
func parseOwnerDetails(raw json.RawMessage) (*AssetOwnerDetails, error) {
	var probe struct {
		ID *int `json:"id"`
	}
	if err := decodeJSON(raw, &probe); err != nil {
		return nil, err
	}
	if probe.ID == nil {
		return nil, missingField("id")
	}
	var details AssetOwnerDetails
	if err := decodeJSON(raw, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// parseProfile builds the asset owner profile record.
func parseProfile(raw json.RawMessage) (*AssetOwnerProfile, error) {
	var probe struct {
		ID *int `json:"id"`
	}
	if err := decodeJSON(raw, &probe); err != nil {
		return nil, err
	}
	if probe.ID == nil {
		return nil, missingField("id")
	}
	var profile AssetOwnerProfile
	if err := decodeJSON(raw, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// parseAgreement builds the electricity agreement record. Both sides are
// optional; an owner may have neither site active.
func parseAgreement(raw json.RawMessage) (*ElectricityAgreement, error) {
	var agreement ElectricityAgreement
	if err := decodeJSON(raw, &agreement); err != nil {
		return nil, err
	}
	return &agreement, nil
}

// parseInvoices builds the invoice list, validating nested sub group
// invoices recursively with the same contract.
func parseInvoices(raw json.RawMessage) ([]Invoice, error) {
	var invoices []Invoice
	if err := decodeJSON(raw, &invoices); err != nil {
		return nil, err
	}
	for i := range invoices {
		if err := validateInvoice(&invoices[i]); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

func validateInvoice(inv *Invoice) error {
	if inv.ID == "" {
		return missingField("id")
	}
	for i := range inv.SubGroupInvoices {
		if err := validateInvoice(&inv.SubGroupInvoices[i]); err != nil {
			return err
		}
	}
	return nil
}

// parseConsumption builds the consumption history.
func parseConsumption(raw json.RawMessage) ([]ConsumptionRecord, error) {
	var records []ConsumptionRecord
	if err := decodeJSON(raw, &records); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.SiteID == "" {
			return nil, missingField("site_id")
		}
		if rec.ValidFrom == "" {
			return nil, missingField("valid_from")
		}
	}
	return records, nil
}

// parseUptimeMonths builds the available-months list.
func parseUptimeMonths(raw json.RawMessage) ([]UptimeMonth, error) {
	var months []UptimeMonth
	if err := decodeJSON(raw, &months); err != nil {
		return nil, err
	}
	for _, m := range months {
		if m.Value == "" {
			return nil, missingField("value")
		}
	}
	return months, nil
}

// parseUptimeHistory builds the per-month uptime ratio history.
func parseUptimeHistory(raw json.RawMessage) ([]UptimeHistoryEntry, error) {
	var history []UptimeHistoryEntry
	if err := decodeJSON(raw, &history); err != nil {
		return nil, err
	}
	for _, entry := range history {
		if entry.Date == "" {
			return nil, missingField("date")
		}
	}
	return history, nil
}

// parseUptimePie builds the uptime distribution slices for a period.
func parseUptimePie(raw json.RawMessage) ([]UptimePieSlice, error) {
	var slices []UptimePieSlice
	if err := decodeJSON(raw, &slices); err != nil {
		return nil, err
	}
	for _, s := range slices {
		if s.Name == "" {
			return nil, missingField("name")
		}
	}
	return slices, nil
}

// parseRevenue builds the revenue summary. Every field is optional; assets
// without a settled invoice report an empty object.
func parseRevenue(raw json.RawMessage) (*Revenue, error) {
	var revenue Revenue
	if err := decodeJSON(raw, &revenue); err != nil {
		return nil, err
	}
	return &revenue, nil
}
