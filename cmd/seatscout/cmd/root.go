// Package cmd provides the CLI commands for seatscout.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/seatscout/internal/config"
	"github.com/rewired-gh/seatscout/internal/cycle"
	"github.com/rewired-gh/seatscout/internal/logger"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "seatscout",
	Short: "Seat recommendations for upcoming home games",
	Long: `seatscout scores ticket listings for a team's upcoming home games
against your seating preferences and emails the best picks on a schedule.

Examples:
  seatscout run --config configs/config.yaml
  seatscout send --variant matchups
  seatscout preview
  seatscout sections`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads and validates the config file and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", cfgFile)
	return cfg, nil
}

func checkVariant(variant string) error {
	if variant != cycle.VariantSeats && variant != cycle.VariantMatchups {
		return fmt.Errorf("variant must be %q or %q", cycle.VariantSeats, cycle.VariantMatchups)
	}
	return nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "seatscout %s\n", Version)
	},
}
