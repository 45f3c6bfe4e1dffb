package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/almhov/flowerhub/config"
	"github.com/almhov/flowerhub/filter"
	"github.com/almhov/flowerhub/portal"
)

var (
	cfgFile      string
	cfg          *config.Config
	logger       zerolog.Logger
	portalClient *portal.Client
	compiler     *filter.Compiler

	appVersion   = "dev"
	appBuildTime = "unknown"

	// Command flags
	filterExpr string
	preset     string
)

// SetVersion records the build metadata injected via ldflags.
func SetVersion(version, buildTime string) {
	appVersion = version
	appBuildTime = buildTime
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flowerhub",
	Short: "A CLI for the Flowerhub portal",
	Long: `flowerhub talks to the Flowerhub portal API: it logs in with your
portal account, reads out the hub and asset state, and lists invoices,
consumption, agreements and uptime reporting.`,
	PersistentPreRunE: initializeApp,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if portalClient != nil {
			portalClient.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration, logger and portal client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Create portal client
	portalClient, err = portal.NewClient(cfg.Portal.URL,
		portal.WithTimeout(cfg.Portal.Timeout),
		portal.WithRetryAttempts(cfg.Portal.RetryAttempts),
		portal.WithMaxConcurrent(cfg.Portal.MaxConcurrent),
		portal.WithLogger(logger),
		portal.WithAuthFailedHandler(func(err error) {
			logger.Warn().Err(err).Msg("Portal session expired, log in again")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create portal client: %w", err)
	}

	compiler = filter.NewCompiler(filter.WithCache(32))

	return nil
}

// portalLogin authenticates with the configured portal account.
func portalLogin(ctx context.Context) error {
	if _, err := portalClient.Login(ctx, cfg.Portal.Username, cfg.Portal.Password); err != nil {
		return fmt.Errorf("portal login failed: %w", err)
	}
	return nil
}

// ownerID returns the asset owner to operate on: the configured override, or
// zero to use the id cached from login.
func ownerID() int {
	return cfg.Portal.AssetOwnerID
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; color only when writing to a terminal
	useColor := cfg.Color && isatty.IsTerminal(os.Stderr.Fd())
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !useColor,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// versionCmd prints the build metadata
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowerhub %s (built %s)\n", appVersion, appBuildTime)
	},
}

// getFilterExpression determines the filter expression to use. An empty
// result means no filtering.
func getFilterExpression() (string, error) {
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expr, ok := cfg.Filter[preset]; ok {
			return expr, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return "", nil
}

// orDash renders optional portal strings for tabular output.
func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
