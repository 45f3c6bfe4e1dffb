package filter

import (
	"time"

	"github.com/expr-lang/expr/vm"

	"github.com/almhov/flowerhub/portal"
)

// invoiceFilter implements InvoiceFilter using a compiled expr program
type invoiceFilter struct {
	expression string
	program    *vm.Program
}

// Match evaluates the filter against an invoice
func (f *invoiceFilter) Match(invoice portal.Invoice) bool {
	return runProgram(f.program, invoiceEnvironment(invoice))
}

// Expression returns the original expression
func (f *invoiceFilter) Expression() string {
	return f.expression
}

// invoiceEnvironment builds the runtime environment for one invoice. Amount
// strings are pre-parsed so expressions can compare them numerically.
func invoiceEnvironment(invoice portal.Invoice) map[string]any {
	env := make(map[string]any, 32)
	addHelperFunctions(env)

	env["Invoice"] = invoice

	total := moneyValue(invoice.TotalAmount)
	remaining := moneyValue(invoice.RemainingAmount)
	dueDate := parseDate(stringValue(invoice.DueDate))

	env["ID"] = invoice.ID
	env["Status"] = stringValue(invoice.InvoiceStatus)
	env["Type"] = stringValue(invoice.InvoiceType)
	env["ClaimStatus"] = stringValue(invoice.ClaimStatus)
	env["SiteID"] = stringValue(invoice.SiteID)
	env["OCR"] = stringValue(invoice.OCR)
	env["DueDate"] = dueDate
	env["InvoiceDate"] = parseDate(stringValue(invoice.InvoiceDate))
	env["InvoicedMonth"] = stringValue(invoice.InvoicedMonth)
	env["InvoicePeriod"] = stringValue(invoice.InvoicePeriod)
	env["TotalAmount"] = total
	env["RemainingAmount"] = remaining
	env["LineCount"] = len(invoice.InvoiceLines)
	env["SubInvoiceCount"] = len(invoice.SubGroupInvoices)

	env["isPaid"] = func() bool {
		return total > 0 && remaining == 0
	}
	env["isOverdue"] = func() bool {
		return remaining > 0 && !dueDate.IsZero() && dueDate.Before(time.Now())
	}
	env["hasClaim"] = func() bool {
		return stringValue(invoice.ClaimStatus) != ""
	}
	env["hasLine"] = func(name string) bool {
		for _, line := range invoice.InvoiceLines {
			if containsFold(line.Name, name) || containsFold(line.Description, name) {
				return true
			}
		}
		return false
	}

	return env
}
