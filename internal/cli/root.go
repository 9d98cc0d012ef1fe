// Package cli provides the command-line interface for the trading application.
package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tecl-trader/internal/config"
	"tecl-trader/internal/logging"
	"tecl-trader/internal/statestore"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-06-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  statestore.Store
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dbPath := cfg.State.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(config.DefaultConfigDir(), "trader.db")
	}
	store, err := statestore.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize state store, live commands unavailable")
	} else {
		app.Store = store
		logger.Debug().Str("db", dbPath).Msg("SQLite state store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "tecl-trader",
		Short: "Daily trading-rule engine for a leveraged equity and volatility pair",
		Long: `tecl-trader evaluates one set of daily trading rules for a leveraged
equity ETF confirmed by a volatility index. It can replay a full price
history as a backtest or advance a persisted ledger by one session per
invocation for live use.

Use 'tecl-trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags. --config is consumed by main before the command tree
	// parses anything; it is declared here so cobra accepts and documents it.
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/tecl-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newCheckCmd(app))
	rootCmd.AddCommand(newStateCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("tecl-trader v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(redactedConfig(app.Config))
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	s := cfg.Strategy
	output.Bold("Strategy")
	output.Printf("  SMA window:           %d sessions\n", s.SMAWindow)
	output.Printf("  WMA window / lag:     %d / %d sessions\n", s.WMAWindow, s.WMALag)
	output.Printf("  Immediate buy below:  %.4f x SMA\n", s.ImmediateBuyRatio)
	output.Printf("  Confirmed buy below:  %.4f x SMA\n", s.ConfirmedBuyRatio)
	output.Printf("  VIX confirmation:     %.4f x WMA\n", s.VIXConfirmationRatio)
	output.Printf("  Sell gain ratio:      %.4f\n", s.SellGainRatio)
	output.Printf("  Profit skim:          %.0f%%\n", s.ProfitSkimFraction*100)
	output.Printf("  Position size:        %.0f%%\n", s.PositionSizeFraction*100)
	output.Printf("  Initial fund:         %s\n", FormatCurrency(s.InitialFund))
	output.Println()

	output.Bold("Instruments")
	output.Printf("  Primary:   %s\n", cfg.Instruments.Primary)
	output.Printf("  Secondary: %s\n", cfg.Instruments.Secondary)
	output.Println()

	output.Bold("State")
	output.Printf("  Trader ID: %s\n", cfg.State.TraderID)
	output.Printf("  Database:  %s\n", cfg.State.DBPath)
}

// redactedConfig copies the config with credentials masked for display.
func redactedConfig(cfg *config.Config) config.Config {
	out := *cfg
	out.Notifications.Telegram.BotToken = logging.MaskCredential(cfg.Notifications.Telegram.BotToken)
	out.Notifications.Email.Password = logging.MaskCredential(cfg.Notifications.Email.Password)
	return out
}
