package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/almhov/flowerhub/portal"
)

var (
	watchInterval  time.Duration
	watchImmediate bool
)

// watchCmd follows the hub status continuously
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously watch the hub status",
	Long: `Poll the asset status at a fixed interval and print every change.
Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default from config)")
	watchCmd.Flags().BoolVar(&watchImmediate, "now", false, "poll immediately instead of after the first interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := portalLogin(ctx); err != nil {
		return err
	}

	interval := cfg.Watch.Interval
	if watchInterval > 0 {
		interval = watchInterval
	}
	immediate := cfg.Watch.RunImmediately || watchImmediate

	var lastStatus string
	onUpdate := func(status portal.FlowerHubStatus) {
		if status.Status == lastStatus {
			return
		}
		lastStatus = status.Status
		fmt.Printf("%s  %s", status.UpdatedAt.Local().Format(time.RFC3339), status.Status)
		if status.Message != "" {
			fmt.Printf("  (%s)", status.Message)
		}
		fmt.Println()
	}

	opts := []portal.PollOption{portal.WithOnUpdate(onUpdate)}
	if immediate {
		opts = append(opts, portal.WithImmediateFetch())
	}

	if err := portalClient.StartPolling(interval, opts...); err != nil {
		return err
	}

	fmt.Printf("Watching hub status every %s. Press Ctrl-C to stop.\n", interval)
	<-ctx.Done()

	portalClient.StopPolling()
	fmt.Println("\nStopped.")
	return nil
}
