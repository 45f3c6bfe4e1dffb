package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/almhov/flowerhub/filter"
)

var flatInvoices bool

// invoicesCmd lists invoices, optionally filtered
var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "List invoices matching the filter criteria",
	Long: `List the asset owner's invoices. A filter expression or a named
preset from the config narrows the listing, for example:

  flowerhub invoices --filter 'isOverdue()'
  flowerhub invoices --filter 'TotalAmount > 500 && Status == "Unpaid"'
  flowerhub invoices --preset unpaid`,
	RunE: runInvoices,
}

func init() {
	rootCmd.AddCommand(invoicesCmd)

	invoicesCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	invoicesCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	invoicesCmd.Flags().BoolVar(&flatInvoices, "flat", false, "include nested sub group invoices as rows")
}

func runInvoices(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := portalLogin(ctx); err != nil {
		return err
	}

	res, err := portalClient.FetchInvoices(ctx, ownerID())
	if err != nil {
		return err
	}

	invoices := res.Invoices
	if flatInvoices {
		invoices = filter.Flatten(invoices)
	}

	expr, err := getFilterExpression()
	if err != nil {
		return err
	}
	if expr != "" {
		f, err := compiler.CompileInvoice(filter.Resolve(cfg.Filter, expr))
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		invoices = filter.Invoices(f, invoices)
	}

	if len(invoices) == 0 {
		fmt.Println("No invoices found matching the filter criteria.")
		return nil
	}

	fmt.Printf("Found %d invoices:\n", len(invoices))
	fmt.Println(strings.Repeat("-", 88))
	fmt.Printf("%-14s %-10s %-12s %-12s %12s %12s\n", "ID", "MONTH", "STATUS", "DUE", "TOTAL", "REMAINING")
	fmt.Println(strings.Repeat("-", 88))

	for _, inv := range invoices {
		fmt.Printf("%-14s %-10s %-12s %-12s %12s %12s\n",
			inv.ID,
			orDash(inv.InvoicedMonth),
			orDash(inv.InvoiceStatus),
			orDash(inv.DueDate),
			orDash(inv.TotalAmount),
			orDash(inv.RemainingAmount),
		)
		if !flatInvoices {
			for _, sub := range inv.SubGroupInvoices {
				fmt.Printf("  └ %-11s %-10s %-12s %-12s %12s %12s\n",
					sub.ID,
					orDash(sub.InvoicedMonth),
					orDash(sub.InvoiceStatus),
					orDash(sub.DueDate),
					orDash(sub.TotalAmount),
					orDash(sub.RemainingAmount),
				)
			}
		}
	}

	return nil
}

// consumptionCmd lists consumption records, optionally filtered
var consumptionCmd = &cobra.Command{
	Use:   "consumption",
	Short: "List consumption history matching the filter criteria",
	Long: `List the asset owner's consumption history. Records are meter
readings or calculated values; filter expressions can tell them apart:

  flowerhub consumption --filter 'isReading() && Volume > 100'
  flowerhub consumption --filter 'ValidFrom > monthsAgo(3)'`,
	RunE: runConsumption,
}

func init() {
	rootCmd.AddCommand(consumptionCmd)

	consumptionCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	consumptionCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
}

func runConsumption(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := portalLogin(ctx); err != nil {
		return err
	}

	res, err := portalClient.FetchConsumption(ctx, ownerID())
	if err != nil {
		return err
	}
	records := res.Records

	expr, err := getFilterExpression()
	if err != nil {
		return err
	}
	if expr != "" {
		f, err := compiler.CompileConsumption(filter.Resolve(cfg.Filter, expr))
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		records = filter.Consumption(f, records)
	}

	if len(records) == 0 {
		fmt.Println("No consumption records found matching the filter criteria.")
		return nil
	}

	fmt.Printf("Found %d consumption records:\n", len(records))
	fmt.Println(strings.Repeat("-", 76))
	fmt.Printf("%-10s %-12s %-12s %-10s %10s  %s\n", "SITE", "FROM", "TO", "MONTH", "VOLUME", "TYPE")
	fmt.Println(strings.Repeat("-", 76))

	var totalVolume float64
	for _, rec := range records {
		fmt.Printf("%-10s %-12s %-12s %-10s %10s  %s\n",
			rec.SiteID,
			rec.ValidFrom,
			orDash(rec.ValidTo),
			rec.InvoicedMonth,
			formatVolume(rec.Volume),
			rec.Type,
		)
		if rec.Volume != nil {
			totalVolume += *rec.Volume
		}
	}
	fmt.Println(strings.Repeat("-", 76))
	fmt.Printf("Total volume: %.1f kWh\n", totalVolume)

	return nil
}

func formatVolume(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
