// Package filter compiles expression-language filters for portal invoices
// and consumption records. Expressions use the expr language with the
// record's fields exposed as variables, plus date and money helpers, for
// example:
//
//	TotalAmount > 500 && contains(Status, "unpaid")
//	Volume > 0 && ValidFrom > monthsAgo(3)
//
// Named presets from the configuration file resolve to their expression
// before compilation.
package filter

import (
	"github.com/almhov/flowerhub/portal"
)

// InvoiceFilter is a compiled predicate over invoices.
type InvoiceFilter interface {
	// Match checks if an invoice matches the filter criteria
	Match(invoice portal.Invoice) bool

	// Expression returns the original filter expression
	Expression() string
}

// ConsumptionFilter is a compiled predicate over consumption records.
type ConsumptionFilter interface {
	// Match checks if a consumption record matches the filter criteria
	Match(record portal.ConsumptionRecord) bool

	// Expression returns the original filter expression
	Expression() string
}

// Resolve maps a preset name from the configuration to its expression. Input
// that names no preset is treated as a literal expression and returned as is.
func Resolve(presets map[string]string, nameOrExpr string) string {
	if expr, ok := presets[nameOrExpr]; ok {
		return expr
	}
	return nameOrExpr
}

// Invoices returns the invoices matching the filter, preserving order.
func Invoices(f InvoiceFilter, invoices []portal.Invoice) []portal.Invoice {
	matches := make([]portal.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if f.Match(inv) {
			matches = append(matches, inv)
		}
	}
	return matches
}

// Consumption returns the consumption records matching the filter,
// preserving order.
func Consumption(f ConsumptionFilter, records []portal.ConsumptionRecord) []portal.ConsumptionRecord {
	matches := make([]portal.ConsumptionRecord, 0, len(records))
	for _, rec := range records {
		if f.Match(rec) {
			matches = append(matches, rec)
		}
	}
	return matches
}

// Flatten expands invoices depth-first so nested sub group invoices can be
// filtered alongside their parents.
func Flatten(invoices []portal.Invoice) []portal.Invoice {
	var flat []portal.Invoice
	for _, inv := range invoices {
		flat = append(flat, inv)
		if len(inv.SubGroupInvoices) > 0 {
			flat = append(flat, Flatten(inv.SubGroupInvoices)...)
		}
	}
	return flat
}
