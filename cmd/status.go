package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd runs the full readout sequence and prints the hub state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the hub status, owner and current uptime",
	Long: `Log in and run the full readout sequence: owner details, asset
discovery, hub status and the current month's uptime distribution.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := portalLogin(ctx); err != nil {
		return err
	}

	readout, err := portalClient.Readout(ctx, ownerID())
	if err != nil {
		return err
	}

	if readout.Owner != nil && readout.Owner.Details != nil {
		details := readout.Owner.Details
		fmt.Printf("Asset owner #%d: %s %s\n", details.ID, orDash(details.FirstName), orDash(details.LastName))
		if details.Installer.Name != nil {
			fmt.Printf("  Installer:    %s\n", *details.Installer.Name)
		}
		if details.Distributor.Name != nil {
			fmt.Printf("  Distributor:  %s\n", *details.Distributor.Name)
		}
		if details.Compensation.Status != nil {
			fmt.Printf("  Compensation: %s", *details.Compensation.Status)
			if details.Compensation.Message != nil {
				fmt.Printf(" (%s)", *details.Compensation.Message)
			}
			fmt.Println()
		}
	}

	if readout.Asset != nil && readout.Asset.Asset != nil {
		asset := readout.Asset.Asset
		fmt.Printf("\nAsset #%d (installed: %v)\n", asset.ID, asset.IsInstalled)
		fmt.Printf("  Hub status: %s\n", formatStatus(asset.Status.Status))
		if asset.Status.Message != "" {
			fmt.Printf("  Message:    %s\n", asset.Status.Message)
		}
		if age, ok := asset.Status.Age(); ok {
			fmt.Printf("  Checked:    %s ago\n", age.Round(time.Second))
		}
	}

	if readout.Uptime != nil {
		fmt.Printf("\nUptime %s\n", time.Now().UTC().Format("2006-01"))
		printRatios(readout.Uptime.RatioTotal, readout.Uptime.RatioActual)
	}

	if !readout.OK() {
		return fmt.Errorf("readout stopped at step %q: %w", readout.FailedStep, readout.Err)
	}
	return nil
}

// assetCmd prints the hardware record and revenue of the asset
var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Show the asset hardware record and revenue",
	RunE:  runAsset,
}

func init() {
	rootCmd.AddCommand(assetCmd)
}

func runAsset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := portalLogin(ctx); err != nil {
		return err
	}

	idRes, err := portalClient.FetchAssetID(ctx, ownerID())
	if err != nil {
		return err
	}

	res, err := portalClient.FetchAsset(ctx, idRes.AssetID)
	if err != nil {
		return err
	}
	asset := res.Asset

	fmt.Printf("Asset #%d\n", asset.ID)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Inverter:  %s %s (%d kW)\n", asset.Inverter.ManufacturerName, asset.Inverter.Name, asset.Inverter.PowerCapacity)
	fmt.Printf("Battery:   %s %s (%d kWh / %d kW)\n", asset.Battery.ManufacturerName, asset.Battery.Name, asset.Battery.EnergyCapacity, asset.Battery.PowerCapacity)
	fmt.Printf("Fuse size: %d A\n", asset.FuseSize)
	fmt.Printf("Installed: %v\n", asset.IsInstalled)
	fmt.Printf("Status:    %s\n", formatStatus(asset.Status.Status))

	revenue, err := portalClient.FetchRevenue(ctx, asset.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not fetch revenue")
		return nil
	}
	if revenue.Revenue != nil && revenue.Revenue.Compensation != nil {
		fmt.Printf("\nLast invoice compensation: %.2f", *revenue.Revenue.Compensation)
		if revenue.Revenue.CompensationPerKW != nil {
			fmt.Printf(" (%.2f per kW)", *revenue.Revenue.CompensationPerKW)
		}
		fmt.Println()
	} else {
		fmt.Println("\nNo settled invoice yet.")
	}

	return nil
}

func formatStatus(status string) string {
	if status == "" {
		return "unknown"
	}
	return status
}

func printRatios(total, actual *float64) {
	if total == nil {
		fmt.Println("  No uptime recorded for this period.")
		return
	}
	fmt.Printf("  Uptime (whole period):  %.1f%%\n", *total)
	if actual != nil {
		fmt.Printf("  Uptime (observed time): %.1f%%\n", *actual)
	}
}
