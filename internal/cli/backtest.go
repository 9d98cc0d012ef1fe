package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tecl-trader/internal/engine"
	"tecl-trader/internal/marketdata"
)

func newBacktestCmd(app *App) *cobra.Command {
	var (
		primaryPath   string
		secondaryPath string
		fund          float64
		showTrades    bool
		sellRatios    []float64
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay the rules over historical price data",
		Long: `Replay the full rule set over two aligned daily CSV series and report
the final ledger, trade log and returns against buy-and-hold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			primary, secondary, err := marketdata.LoadPair(primaryPath, secondaryPath)
			if err != nil {
				return err
			}

			principal := decimal.NewFromFloat(fund)
			if fund <= 0 {
				principal = decimal.NewFromFloat(app.Config.Strategy.InitialFund)
			}

			data := engine.BacktestConfig{
				Primary:   primary,
				Secondary: secondary,
				Principal: principal,
			}

			if len(sellRatios) > 0 {
				return runSweep(cmd, app, output, data, sellRatios)
			}

			eng := engine.New(app.Config.Strategy, app.Logger)
			result, err := eng.Backtest(cmd.Context(), data)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			printBacktestResult(output, result, showTrades)
			return nil
		},
	}

	cmd.Flags().StringVar(&primaryPath, "primary", "", "CSV file with primary instrument daily bars (required)")
	cmd.Flags().StringVar(&secondaryPath, "secondary", "", "CSV file with volatility index daily bars (required)")
	cmd.Flags().Float64Var(&fund, "fund", 0, "starting fund (default from config)")
	cmd.Flags().BoolVar(&showTrades, "trades", false, "list every trade")
	cmd.Flags().Float64SliceVar(&sellRatios, "sweep-sell-ratios", nil,
		"replay once per sell gain ratio and compare (e.g. 1.0575,1.058)")
	cmd.MarkFlagRequired("primary")
	cmd.MarkFlagRequired("secondary")

	return cmd
}

func runSweep(cmd *cobra.Command, app *App, output *Output, data engine.BacktestConfig, ratios []float64) error {
	variants := make([]engine.SweepVariant, len(ratios))
	for i, ratio := range ratios {
		strategy := app.Config.Strategy
		strategy.SellGainRatio = ratio
		variants[i] = engine.SweepVariant{
			Label:    fmt.Sprintf("sell@%.4f", ratio),
			Strategy: strategy,
		}
	}

	outcomes := engine.Sweep(cmd.Context(), app.Logger, variants, data)

	if output.IsJSON() {
		return output.JSON(outcomes)
	}

	output.Bold("Sell ratio sweep")
	for _, o := range outcomes {
		if o.Err != nil {
			output.Error("  %-14s error: %v", o.Label, o.Err)
			continue
		}
		equity, _ := o.Result.FinalEquity.Float64()
		bank, _ := o.Result.FinalState.BankBalance.Float64()
		output.Printf("  %-14s equity %s  bank %s  return %s  (%d trades)\n",
			o.Label, FormatCurrency(equity), FormatCurrency(bank),
			FormatPercent(o.Result.TotalReturnPct), len(o.Result.Trades))
	}
	return nil
}

func printBacktestResult(output *Output, r *engine.BacktestResult, showTrades bool) {
	output.Bold("Backtest %s to %s", r.FirstDecision.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	output.Printf("  Sessions evaluated:  %d (%d warming up)\n", len(r.EquityCurve), r.SkippedDays)
	output.Printf("  Trades:              %d\n", len(r.Trades))
	output.Println()

	principal, _ := r.Principal.Float64()
	finalEquity, _ := r.FinalEquity.Float64()
	fund, _ := r.FinalState.FundValue.Float64()
	bank, _ := r.FinalState.BankBalance.Float64()

	output.Bold("Ledger")
	output.Printf("  Principal:     %s\n", FormatCurrency(principal))
	output.Printf("  Final fund:    %s\n", FormatCurrency(fund))
	output.Printf("  Bank (skims):  %s\n", FormatCurrency(bank))
	if r.FinalState.Position.IsLong() {
		output.Printf("  Open position: %s shares @ %s\n",
			FormatShares(r.FinalState.Position.ShareCount),
			FormatCurrency(r.FinalState.Position.PurchasePrice))
	}
	output.Printf("  Final equity:  %s\n", FormatCurrency(finalEquity))
	output.Println()

	output.Bold("Returns")
	printReturn(output, "Strategy", r.TotalReturnPct, r.AnnualizedReturnPct)
	printReturn(output, "Buy & hold", r.BuyHoldReturnPct, r.BuyHoldAnnualizedPct)

	if showTrades && len(r.Trades) > 0 {
		output.Println()
		output.Bold("Trades")
		for _, t := range r.Trades {
			line := t.Date.Format("2006-01-02") + "  " + string(t.Action) +
				"  " + FormatShares(t.ShareCount) + " @ " + FormatCurrency(t.Price) +
				"  (" + string(t.Reason) + ")"
			if t.Action == "BUY" {
				output.Gain("  %s", line)
			} else {
				output.Loss("  %s", line)
			}
		}
	}
}

func printReturn(output *Output, label string, total, annualized float64) {
	line := "  " + label + ":"
	for len(line) < 15 {
		line += " "
	}
	text := line + FormatPercent(total) + "  (" + FormatPercent(annualized) + "/yr)"
	if total >= 0 {
		output.Gain("%s", text)
	} else {
		output.Loss("%s", text)
	}
}
