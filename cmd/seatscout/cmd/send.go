package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/seatscout/internal/cycle"
	"github.com/rewired-gh/seatscout/internal/logger"
)

var sendVariant string

// sendCmd runs a single digest cycle
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Run one digest cycle now and exit",
	Long: `Fetch, rank and deliver one digest immediately.

Examples:
  seatscout send
  seatscout send --variant matchups`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendVariant, "variant", cycle.VariantSeats, "digest variant (seats, matchups)")
}

func runSend(cmd *cobra.Command, args []string) error {
	if err := checkVariant(sendVariant); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := exitOnSignal()
	defer cancel()

	res, err := a.runner.Run(ctx, sendVariant)
	a.runner.Maintain()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sendSummary(res))
	return nil
}

func sendSummary(res *cycle.Result) string {
	switch {
	case res.Delivered:
		return fmt.Sprintf("Sent %q", res.Message.Subject)
	case res.Message.Empty:
		return "No recommendations this cycle; nothing sent"
	default:
		return fmt.Sprintf("Digest %q was not delivered; check the logs", res.Message.Subject)
	}
}
