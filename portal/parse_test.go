package portal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoginPayload(t *testing.T) {
	t.Run("complete payload", func(t *testing.T) {
		raw := json.RawMessage(`{
			"user": {"id": 1, "email": "owner@example.se", "role": 2, "assetOwnerId": 42},
			"refreshTokenExpirationDate": "2026-09-28T10:00:00Z"
		}`)
		user, expiration, err := parseLoginPayload(raw)
		require.NoError(t, err)
		assert.Equal(t, 42, user.AssetOwnerID)
		assert.Equal(t, "owner@example.se", user.Email)
		assert.Equal(t, "2026-09-28T10:00:00Z", expiration)
	})

	t.Run("missing user", func(t *testing.T) {
		_, _, err := parseLoginPayload(json.RawMessage(`{}`))
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "user", schemaErr.Field)
	})

	t.Run("missing owner id", func(t *testing.T) {
		_, _, err := parseLoginPayload(json.RawMessage(`{"user": {"id": 1}}`))
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "user.assetOwnerId", schemaErr.Field)
	})
}

func TestParseAssetID(t *testing.T) {
	id, err := parseAssetID(json.RawMessage(`{"assetId": 7}`))
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	_, err = parseAssetID(json.RawMessage(`{"name": "hub"}`))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "assetId", schemaErr.Field)

	_, err = parseAssetID(json.RawMessage(`{"assetId": "seven"}`))
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "assetId", schemaErr.Field)
}

func TestParseAsset(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	t.Run("full record", func(t *testing.T) {
		raw := json.RawMessage(`{
			"id": 7,
			"inverter": {"manufacturerName": "Sungrow", "powerCapacity": 10},
			"battery": {"manufacturerName": "Pylontech", "energyCapacity": 14},
			"fuseSize": 20,
			"flowerHubStatus": {"status": "Connected", "message": "All good"},
			"isInstalled": true
		}`)
		asset, err := parseAsset(raw, now)
		require.NoError(t, err)
		assert.Equal(t, 7, asset.ID)
		assert.Equal(t, "Sungrow", asset.Inverter.ManufacturerName)
		assert.Equal(t, 14, asset.Battery.EnergyCapacity)
		assert.Equal(t, 20, asset.FuseSize)
		assert.True(t, asset.IsInstalled)
		assert.Equal(t, "Connected", asset.Status.Status)
		assert.Equal(t, now, asset.Status.UpdatedAt, "status timestamped client-side")
	})

	t.Run("minimal record", func(t *testing.T) {
		asset, err := parseAsset(json.RawMessage(`{"id": 7}`), now)
		require.NoError(t, err)
		assert.Equal(t, 7, asset.ID)
		assert.True(t, asset.Status.UpdatedAt.IsZero(), "no status block, no timestamp")
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := parseAsset(json.RawMessage(`{"fuseSize": 20}`), now)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "id", schemaErr.Field)
	})
}

func TestParseInvoices(t *testing.T) {
	t.Run("nested sub group invoices keep order", func(t *testing.T) {
		raw := json.RawMessage(`[{
			"id": "inv-1",
			"total_amount": "120.50",
			"invoice_lines": [{"item_id": "li-1", "amount": "120.50"}],
			"sub_group_invoices": [
				{"id": "sub-a"},
				{"id": "sub-b", "sub_group_invoices": [{"id": "sub-b-1"}]}
			]
		}]`)
		invoices, err := parseInvoices(raw)
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		require.Len(t, invoices[0].SubGroupInvoices, 2)
		assert.Equal(t, "sub-a", invoices[0].SubGroupInvoices[0].ID)
		assert.Equal(t, "sub-b", invoices[0].SubGroupInvoices[1].ID)
		assert.Equal(t, "sub-b-1", invoices[0].SubGroupInvoices[1].SubGroupInvoices[0].ID)
		require.NotNil(t, invoices[0].TotalAmount)
		assert.Equal(t, "120.50", *invoices[0].TotalAmount)
	})

	t.Run("missing id in nested invoice", func(t *testing.T) {
		raw := json.RawMessage(`[{"id": "inv-1", "sub_group_invoices": [{"due_date": "2026-09-30"}]}]`)
		_, err := parseInvoices(raw)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "id", schemaErr.Field)
	})

	t.Run("empty list", func(t *testing.T) {
		invoices, err := parseInvoices(json.RawMessage(`[]`))
		require.NoError(t, err)
		assert.Empty(t, invoices)
	})
}

func TestParseConsumption(t *testing.T) {
	raw := json.RawMessage(`[
		{"site_id": "s1", "valid_from": "2026-07-01", "valid_to": "2026-08-01", "invoiced_month": "2026-07", "volume": 312.4, "type": "reading"},
		{"site_id": "s1", "valid_from": "2026-08-01", "invoiced_month": "2026-08", "volume": null, "type": "calculated"}
	]`)
	records, err := parseConsumption(raw)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].Volume)
	assert.Equal(t, 312.4, *records[0].Volume)
	assert.Nil(t, records[1].Volume, "absent value stays nil")
	assert.Nil(t, records[1].ValidTo)

	_, err = parseConsumption(json.RawMessage(`[{"valid_from": "2026-08-01"}]`))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "site_id", schemaErr.Field)
}

func TestParseAgreement(t *testing.T) {
	raw := json.RawMessage(`{"consumption": {"stateCategory": "active", "siteId": 9}, "production": null}`)
	agreement, err := parseAgreement(raw)
	require.NoError(t, err)
	require.NotNil(t, agreement.Consumption)
	assert.Equal(t, "active", *agreement.Consumption.StateCategory)
	assert.Nil(t, agreement.Production)
}

func TestParseOwnerDetails(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 42,
		"firstName": "Alva",
		"installer": {"id": 3, "name": "Solkraft AB"},
		"compensation": {"status": "pending"}
	}`)
	details, err := parseOwnerDetails(raw)
	require.NoError(t, err)
	assert.Equal(t, 42, details.ID)
	require.NotNil(t, details.Installer.Name)
	assert.Equal(t, "Solkraft AB", *details.Installer.Name)
	assert.Nil(t, details.LastName)

	_, err = parseOwnerDetails(json.RawMessage(`{"firstName": "Alva"}`))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "id", schemaErr.Field)
}

func TestParseUptimePie(t *testing.T) {
	raw := json.RawMessage(`[
		{"name": "uptime", "value": 3600},
		{"name": "downtime", "value": 0},
		{"name": "noData", "value": null}
	]`)
	slices, err := parseUptimePie(raw)
	require.NoError(t, err)
	require.Len(t, slices, 3)
	assert.Nil(t, slices[2].Value)

	_, err = parseUptimePie(json.RawMessage(`[{"value": 10}]`))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "name", schemaErr.Field)
}

func TestParseRevenue(t *testing.T) {
	revenue, err := parseRevenue(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Nil(t, revenue.Compensation, "empty object is a valid no-invoice summary")

	revenue, err = parseRevenue(json.RawMessage(`{"id": 1, "compensation": 410.5, "compensationPerKW": 41.05}`))
	require.NoError(t, err)
	require.NotNil(t, revenue.Compensation)
	assert.Equal(t, 410.5, *revenue.Compensation)
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	var dst map[string]any
	err := decodeJSON(nil, &dst)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "(body)", schemaErr.Field)
}
