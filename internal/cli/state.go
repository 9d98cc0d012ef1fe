package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/models"
	"tecl-trader/internal/statestore"
)

func newStateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the persisted ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current ledger state",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("state store unavailable")
			}

			state, err := app.Store.Load(cmd.Context(), traderID(app))
			if apperrors.Is(err, apperrors.ErrStateNotFound) {
				output.Warning("No state saved yet; the first 'check' run will create it.")
				return nil
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(state)
			}
			printState(output, state)
			return nil
		},
	})

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Replace the ledger with a fresh one",
		Long: `Overwrite the persisted ledger with a flat state funded at --fund (or
the configured initial fund). Requires --yes; the old state is gone for good.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("state store unavailable")
			}

			confirmed, _ := cmd.Flags().GetBool("yes")
			if !confirmed {
				return fmt.Errorf("refusing to reset without --yes")
			}

			fund, _ := cmd.Flags().GetFloat64("fund")
			if fund <= 0 {
				fund = app.Config.Strategy.InitialFund
			}

			id := traderID(app)
			current, err := app.Store.Load(cmd.Context(), id)
			expected := int64(0)
			if err == nil {
				expected = current.Version
			} else if !apperrors.Is(err, apperrors.ErrStateNotFound) {
				return err
			}

			fresh := models.NewLedgerState(decimal.NewFromFloat(fund))
			saved, err := app.Store.Save(cmd.Context(), id, fresh, expected)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("Ledger reset with fund %s", FormatCurrency(fund))
			return nil
		},
	}
	reset.Flags().Bool("yes", false, "confirm the reset")
	reset.Flags().Float64("fund", 0, "starting fund (default from config)")
	cmd.AddCommand(reset)

	return cmd
}

func newTradesCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List recorded trades, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("state store unavailable")
			}

			events, err := app.Store.Events(cmd.Context(), traderID(app), limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(events)
			}

			if len(events) == 0 {
				output.Dim("No trades recorded.")
				return nil
			}
			for _, e := range events {
				line := e.Date.Format("2006-01-02") + "  " + string(e.Action) +
					"  " + FormatShares(e.ShareCount) + " @ " + FormatCurrency(e.Price) +
					"  (" + string(e.Reason) + ")"
				if e.Action == models.ActionBuy {
					output.Gain("%s", line)
				} else {
					output.Loss("%s", line)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum trades to show (0 for all)")
	return cmd
}

func printState(output *Output, state models.LedgerState) {
	fund, _ := state.FundValue.Float64()
	bank, _ := state.BankBalance.Float64()

	output.Bold("Ledger (version %d)", state.Version)
	output.Printf("  Fund: %s\n", FormatCurrency(fund))
	output.Printf("  Bank: %s\n", FormatCurrency(bank))
	if state.Position.IsLong() {
		output.Printf("  Position: %s shares @ %s since %s\n",
			FormatShares(state.Position.ShareCount),
			FormatCurrency(state.Position.PurchasePrice),
			state.Position.EntryDate.Format("2006-01-02"))
	} else {
		output.Printf("  Position: flat\n")
	}
	if !state.LastSellDate.IsZero() {
		output.Printf("  Last sell: %s\n", state.LastSellDate.Format("2006-01-02"))
	}
	if !state.LastProcessed.IsZero() {
		output.Printf("  Last processed: %s\n", state.LastProcessed.Format("2006-01-02"))
	}
}

func traderID(app *App) string {
	if app.Config.State.TraderID != "" {
		return app.Config.State.TraderID
	}
	return statestore.DefaultTraderID
}
