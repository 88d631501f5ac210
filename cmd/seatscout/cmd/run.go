package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/seatscout/internal/logger"
	"github.com/rewired-gh/seatscout/internal/schedule"
)

var runOnStart bool

// runCmd represents the scheduler loop
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Send digests on the configured schedule",
	Long: `Run the scheduler. Each time schedule.cron fires (in schedule.timezone),
one digest is sent per configured variant. Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runScheduler,
}

func init() {
	runCmd.Flags().BoolVar(&runOnStart, "now", false, "run one cycle immediately before waiting for the schedule")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sched, err := schedule.ParseIn(cfg.Schedule.Cron, cfg.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := exitOnSignal()
	defer cancel()

	if a.telegram != nil {
		a.telegram.SetStatusFunc(func() string { return statusText(a, sched) })
		a.telegram.ListenForCommands(ctx)
	}

	logger.Info("Starting digest scheduler (schedule: %s, variants: %v)", sched, cfg.Schedule.Variants)

	runCycles := func() {
		for _, variant := range cfg.Schedule.Variants {
			_, err := a.runner.Run(ctx, variant)
			a.runner.HandleResult(err)
		}
		a.runner.Maintain()
	}

	if runOnStart {
		logger.Debug("Running initial digest cycle")
		runCycles()
	}

	for {
		next, err := sched.Wait(ctx, time.Now())
		if errors.Is(err, context.Canceled) {
			logger.Info("Shutdown signal received, scheduler stopped")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Debug("Schedule fired for %s", next.Format(time.RFC3339))
		runCycles()
	}
}

// statusText answers the Telegram /status command.
func statusText(a *app, sched *schedule.Schedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Next digest: %s\n", sched.Next(time.Now()).Format("Mon Jan 2 15:04 MST"))
	fmt.Fprintf(&b, "Consecutive failures: %d\n", a.runner.ConsecutiveFailures())

	runs, err := a.store.RecentRuns(5)
	if err != nil {
		fmt.Fprintf(&b, "Run log unavailable: %v", err)
		return b.String()
	}
	for _, r := range runs {
		fmt.Fprintf(&b, "%s %s: %s (%d events, %d results)\n",
			r.StartedAt.In(sched.Location()).Format("Jan 2 15:04"), r.Variant, r.Status, r.Events, r.Results)
	}
	return b.String()
}

func exitOnSignal() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
