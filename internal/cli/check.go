package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tecl-trader/internal/engine"
	"tecl-trader/internal/logging"
	"tecl-trader/internal/marketdata"
	"tecl-trader/internal/models"
	"tecl-trader/internal/notify"
	"tecl-trader/internal/report"
)

func newCheckCmd(app *App) *cobra.Command {
	var (
		primaryPath   string
		secondaryPath string
		dateStr       string
		sendNotify    bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate one live trading session",
		Long: `Load the persisted ledger, evaluate the rules for one session and save
the result. Designed to run once per market day from cron; rerunning the
same date is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("state store unavailable")
			}

			primary, secondary, err := marketdata.LoadPair(primaryPath, secondaryPath)
			if err != nil {
				return err
			}
			if len(primary) == 0 {
				return fmt.Errorf("no aligned sessions in input data")
			}

			date := primary[len(primary)-1].Date
			if dateStr != "" {
				date, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", dateStr, err)
				}
			}

			logger := logging.WithTrader(app.Logger, app.Config.State.TraderID)
			eng := engine.New(app.Config.Strategy, logger)
			runner := engine.NewLiveRunner(eng, app.Store, app.Config.State.TraderID,
				decimal.NewFromFloat(app.Config.Strategy.InitialFund))

			outcome, err := runner.RunDate(cmd.Context(), primary, secondary, date)
			if err != nil {
				return err
			}

			builder := report.NewBuilder(app.Config.Strategy)
			daily := builder.Build(outcome.Result, outcome.Input)

			var notifier notify.Notifier = notify.NewNoOpNotifier()
			if sendNotify {
				notifier = notify.NewMultiNotifier(&app.Config.Notifications)
			}
			if err := notifier.SendReport(cmd.Context(), daily); err != nil {
				logger.Warn().Err(err).Msg("notification delivery failed")
			}

			if output.IsJSON() {
				return output.JSON(daily)
			}
			printDailyReport(output, daily)
			return nil
		},
	}

	cmd.Flags().StringVar(&primaryPath, "primary", "", "CSV file with primary instrument daily bars (required)")
	cmd.Flags().StringVar(&secondaryPath, "secondary", "", "CSV file with volatility index daily bars (required)")
	cmd.Flags().StringVar(&dateStr, "date", "", "session to evaluate, YYYY-MM-DD (default: latest bar)")
	cmd.Flags().BoolVar(&sendNotify, "notify", false, "deliver the report to configured channels")
	cmd.MarkFlagRequired("primary")
	cmd.MarkFlagRequired("secondary")

	return cmd
}

func printDailyReport(output *Output, r models.DailyReport) {
	output.Bold("Session %s", r.Date.Format("2006-01-02"))

	if r.Skipped {
		output.Warning("  Skipped: %s", r.SkipReason)
		return
	}

	output.Printf("  Open:       %s\n", FormatCurrency(r.PrimaryOpen))
	output.Printf("  VIX open:   %.2f\n", r.SecondaryOpen)
	output.Printf("  SMA:        %s\n", FormatCurrency(r.Indicators.SMAPrimary))
	output.Printf("  Lagged WMA: %.2f\n", r.Indicators.WMASecondaryLagged)
	output.Println()

	switch {
	case r.Bought:
		output.Gain("  BOUGHT %s shares @ %s (%s)",
			FormatShares(r.Trade.ShareCount), FormatCurrency(r.Trade.Price), r.Trade.Reason)
	case r.Sold:
		output.Loss("  SOLD %s shares @ %s (%s)",
			FormatShares(r.Trade.ShareCount), FormatCurrency(r.Trade.Price), r.Trade.Reason)
	default:
		output.Dim("  No trade")
	}
	output.Println()

	if r.Position != nil {
		output.Bold("Position")
		output.Printf("  Holding:    %s shares @ %s since %s\n",
			FormatShares(r.Position.ShareCount),
			FormatCurrency(r.Position.PurchasePrice),
			r.Position.EntryDate.Format("2006-01-02"))
		output.Printf("  Exit at:    %s\n", FormatCurrency(r.Position.ExitPrice))
		output.Printf("  Unrealized: %s\n", FormatPercent(r.Position.UnrealizedPct))
	} else if r.Flat != nil {
		output.Bold("Flat")
		if r.Flat.CooldownActive {
			output.Warning("  Cooling down after yesterday's sell")
		} else {
			confirm := "not confirmed"
			if r.Thresholds.VolatilityConfirmed {
				confirm = "confirmed"
			}
			output.Printf("  Immediate buy below: %s\n", FormatCurrency(r.Thresholds.ImmediateBuyBelow))
			output.Printf("  Confirmed buy below: %s (volatility %s)\n",
				FormatCurrency(r.Thresholds.ConfirmedBuyBelow), confirm)
			output.Printf("  Distance to trigger: %s (%s)\n",
				FormatCurrency(r.Thresholds.Distance), FormatPercent(r.Thresholds.DistancePct))
		}
	}
	output.Println()

	fund, _ := r.Ledger.FundValue.Float64()
	bank, _ := r.Ledger.BankBalance.Float64()
	output.Bold("Ledger")
	output.Printf("  Fund: %s\n", FormatCurrency(fund))
	output.Printf("  Bank: %s\n", FormatCurrency(bank))
}
