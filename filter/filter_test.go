package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almhov/flowerhub/portal"
)

func str(s string) *string { return &s }

func vol(v float64) *float64 { return &v }

func testInvoices() []portal.Invoice {
	return []portal.Invoice{
		{
			ID:              "inv-paid",
			InvoiceStatus:   str("Paid"),
			TotalAmount:     str("1 234,56"),
			RemainingAmount: str("0"),
			DueDate:         str("2026-07-31"),
			InvoicedMonth:   str("2026-07"),
		},
		{
			ID:              "inv-open",
			InvoiceStatus:   str("Unpaid"),
			TotalAmount:     str("650.00"),
			RemainingAmount: str("650.00"),
			DueDate:         str("2099-01-31"),
			InvoicedMonth:   str("2026-08"),
		},
		{
			ID:              "inv-overdue",
			InvoiceStatus:   str("Unpaid"),
			TotalAmount:     str("200.00"),
			RemainingAmount: str("200.00"),
			DueDate:         str("2020-01-31"),
			ClaimStatus:     str("reminder"),
			InvoiceLines: []portal.InvoiceLine{
				{Name: "Elhandel", Amount: "200.00"},
			},
			SubGroupInvoices: []portal.Invoice{
				{ID: "sub-1", TotalAmount: str("50.00")},
			},
		},
	}
}

func TestCompileInvoiceFilter(t *testing.T) {
	compiler := NewCompiler()

	tests := []struct {
		name       string
		expression string
		wantIDs    []string
	}{
		{
			name:       "by status",
			expression: `Status == "Unpaid"`,
			wantIDs:    []string{"inv-open", "inv-overdue"},
		},
		{
			name:       "amount threshold on localized string",
			expression: `TotalAmount > 1000`,
			wantIDs:    []string{"inv-paid"},
		},
		{
			name:       "paid helper",
			expression: `isPaid()`,
			wantIDs:    []string{"inv-paid"},
		},
		{
			name:       "overdue helper",
			expression: `isOverdue()`,
			wantIDs:    []string{"inv-overdue"},
		},
		{
			name:       "claim and line lookup",
			expression: `hasClaim() && hasLine("elhandel")`,
			wantIDs:    []string{"inv-overdue"},
		},
		{
			name:       "month comparison",
			expression: `InvoicedMonth == "2026-08"`,
			wantIDs:    []string{"inv-open"},
		},
		{
			name:       "amount helper",
			expression: `TotalAmount == amount("1 234,56")`,
			wantIDs:    []string{"inv-paid"},
		},
		{
			name:       "sub invoice count",
			expression: `SubInvoiceCount > 0`,
			wantIDs:    []string{"inv-overdue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compiler.CompileInvoice(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.expression, f.Expression())

			var ids []string
			for _, inv := range Invoices(f, testInvoices()) {
				ids = append(ids, inv.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	compiler := NewCompiler()

	var compErr *CompilationError

	_, err := compiler.CompileInvoice("")
	require.ErrorAs(t, err, &compErr)

	_, err = compiler.CompileInvoice("Status ==")
	require.ErrorAs(t, err, &compErr)

	_, err = compiler.CompileConsumption("1 + 2")
	require.ErrorAs(t, err, &compErr, "non-boolean expressions are rejected")
}

func TestConsumptionFilter(t *testing.T) {
	compiler := NewCompiler()

	records := []portal.ConsumptionRecord{
		{SiteID: "s1", ValidFrom: "2026-06-01", InvoicedMonth: "2026-06", Volume: vol(312.4), Type: "reading"},
		{SiteID: "s1", ValidFrom: "2026-07-01", InvoicedMonth: "2026-07", Type: "calculated"},
		{SiteID: "s2", ValidFrom: "2026-07-01", InvoicedMonth: "2026-07", Volume: vol(12.0), Type: "reading"},
	}

	f, err := compiler.CompileConsumption(`isReading() && Volume > 100`)
	require.NoError(t, err)
	matches := Consumption(f, records)
	require.Len(t, matches, 1)
	assert.Equal(t, "s1", matches[0].SiteID)

	f, err = compiler.CompileConsumption(`!HasVolume`)
	require.NoError(t, err)
	matches = Consumption(f, records)
	require.Len(t, matches, 1)
	assert.Equal(t, "calculated", matches[0].Type)

	f, err = compiler.CompileConsumption(`ValidFrom >= parseDate("2026-07-01")`)
	require.NoError(t, err)
	assert.Len(t, Consumption(f, records), 2)
}

func TestCompilerCache(t *testing.T) {
	compiler := NewCompiler(WithCache(8))
	assert.Equal(t, 0, compiler.Size())

	_, err := compiler.CompileInvoice(`isPaid()`)
	require.NoError(t, err)
	assert.Equal(t, 1, compiler.Size())

	// Same text, other record kind: must compile separately
	_, err = compiler.CompileConsumption(`isReading()`)
	require.NoError(t, err)
	_, err = compiler.CompileInvoice(`isPaid()`)
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.Size())

	compiler.Clear()
	assert.Equal(t, 0, compiler.Size())
}

func TestResolve(t *testing.T) {
	presets := map[string]string{
		"unpaid":  `Status == "Unpaid"`,
		"overdue": `isOverdue()`,
	}

	assert.Equal(t, `Status == "Unpaid"`, Resolve(presets, "unpaid"))
	assert.Equal(t, `TotalAmount > 10`, Resolve(presets, `TotalAmount > 10`))
	assert.Equal(t, "", Resolve(nil, ""))
}

func TestFlatten(t *testing.T) {
	invoices := testInvoices()
	flat := Flatten(invoices)
	require.Len(t, flat, 4)
	assert.Equal(t, "sub-1", flat[3].ID, "nested invoices follow their parent")
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1 234,56", 1234.56},
		{"1234.56", 1234.56},
		{"0", 0},
		{"", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, moneyString(tt.in), tt.in)
	}
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), parseDate("2026-08-01"))
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), parseDate("2026-08"))
	assert.False(t, parseDate("2026-08-01T10:30:00Z").IsZero())
	assert.True(t, parseDate("last tuesday").IsZero())
}
