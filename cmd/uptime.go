package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	uptimePeriod  string
	uptimeHistory bool
	uptimeMonths  bool
)

// uptimeCmd prints the uptime reporting of the asset
var uptimeCmd = &cobra.Command{
	Use:   "uptime",
	Short: "Show uptime reporting for the asset",
	Long: `Show the uptime distribution of a reporting period (default the
current month), the monthly history, or the months with reporting available.`,
	RunE: runUptime,
}

func init() {
	rootCmd.AddCommand(uptimeCmd)

	uptimeCmd.Flags().StringVar(&uptimePeriod, "period", "", "reporting period (YYYY-MM, default current month)")
	uptimeCmd.Flags().BoolVar(&uptimeHistory, "history", false, "show the monthly uptime history")
	uptimeCmd.Flags().BoolVar(&uptimeMonths, "months", false, "list months with reporting available")
}

func runUptime(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := portalLogin(ctx); err != nil {
		return err
	}

	idRes, err := portalClient.FetchAssetID(ctx, ownerID())
	if err != nil {
		return err
	}
	assetID := idRes.AssetID

	if uptimeMonths {
		res, err := portalClient.FetchUptimeMonths(ctx, assetID)
		if err != nil {
			return err
		}
		fmt.Println("Months with uptime reporting:")
		for _, m := range res.Months {
			fmt.Printf("  %s  %s\n", m.Value, m.Label)
		}
		return nil
	}

	if uptimeHistory {
		res, err := portalClient.FetchUptimeHistory(ctx, assetID)
		if err != nil {
			return err
		}
		fmt.Println("Monthly uptime history:")
		fmt.Println(strings.Repeat("-", 30))
		for _, entry := range res.History {
			if entry.Uptime != nil {
				fmt.Printf("  %-10s %6.1f%%\n", entry.Date, *entry.Uptime)
			} else {
				fmt.Printf("  %-10s %7s\n", entry.Date, "-")
			}
		}
		return nil
	}

	period := uptimePeriod
	if period == "" {
		period = time.Now().UTC().Format("2006-01")
	}

	res, err := portalClient.FetchUptimePie(ctx, assetID, period)
	if err != nil {
		return err
	}

	fmt.Printf("Uptime %s\n", period)
	for _, slice := range res.Slices {
		if slice.Value != nil {
			fmt.Printf("  %-10s %s\n", slice.Name, formatSeconds(*slice.Value))
		}
	}
	printRatios(res.RatioTotal, res.RatioActual)

	return nil
}

func formatSeconds(seconds float64) string {
	return (time.Duration(seconds) * time.Second).String()
}
