// Package config provides configuration management for the trading engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Strategy      StrategyConfig     `mapstructure:"strategy"`
	Instruments   InstrumentConfig   `mapstructure:"instruments"`
	State         StateConfig        `mapstructure:"state"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	UI            UIConfig           `mapstructure:"ui"`
}

// StrategyConfig is the explicit parameter record consumed by the signal
// evaluator and the ledger. Every threshold is named here so parameter sweeps
// can instantiate independent configurations without cross-contamination.
type StrategyConfig struct {
	// SMAWindow is the trailing window of the primary simple moving average.
	SMAWindow int `mapstructure:"sma_window"`
	// WMAWindow is the trailing window of the secondary weighted average.
	WMAWindow int `mapstructure:"wma_window"`
	// WMALag is how many trading sessions before the decision date the
	// weighted-average window ends.
	WMALag int `mapstructure:"wma_lag"`
	// ImmediateBuyRatio: buy when open < ratio * SMA.
	ImmediateBuyRatio float64 `mapstructure:"immediate_buy_ratio"`
	// ConfirmedBuyRatio: the looser discount gate for the volatility branch.
	ConfirmedBuyRatio float64 `mapstructure:"confirmed_buy_ratio"`
	// VIXConfirmationRatio: secondary open must exceed ratio * lagged WMA.
	VIXConfirmationRatio float64 `mapstructure:"vix_confirmation_ratio"`
	// SellGainRatio: sell when open >= ratio * purchase price. The companion
	// docs of the rule disagree between 1.0575 and 1.058; this codebase uses
	// SellGainRatioDefault and records the discrepancy rather than resolving it.
	SellGainRatio float64 `mapstructure:"sell_gain_ratio"`
	// ProfitSkimFraction is the share of each realized profit moved to the bank.
	ProfitSkimFraction float64 `mapstructure:"profit_skim_fraction"`
	// PositionSizeFraction is the share of the fund deployed per buy.
	PositionSizeFraction float64 `mapstructure:"position_size_fraction"`
	// InitialFund is the starting tradable principal.
	InitialFund float64 `mapstructure:"initial_fund"`
}

// SellGainRatioDefault is the exit threshold this implementation uses. An
// alternate published figure of 1.058 exists for the same rule; it is kept as
// SellGainRatioAlternate and deliberately not folded into the default.
const (
	SellGainRatioDefault   = 1.0575
	SellGainRatioAlternate = 1.058
)

// DefaultStrategy returns the documented default parameter set.
func DefaultStrategy() StrategyConfig {
	return StrategyConfig{
		SMAWindow:            30,
		WMAWindow:            30,
		WMALag:               4,
		ImmediateBuyRatio:    0.75,
		ConfirmedBuyRatio:    1.25,
		VIXConfirmationRatio: 1.04,
		SellGainRatio:        SellGainRatioDefault,
		ProfitSkimFraction:   0.20,
		PositionSizeFraction: 0.95,
		InitialFund:          10000,
	}
}

// InstrumentConfig names the two legs of the pair.
type InstrumentConfig struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
}

// StateConfig holds state persistence configuration.
type StateConfig struct {
	// TraderID keys the persisted ledger in the state store.
	TraderID string `mapstructure:"trader_id"`
	// DBPath is the SQLite database location.
	DBPath string `mapstructure:"db_path"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Level    string         `mapstructure:"level"` // all, trades_only, errors_only
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// EmailConfig holds email notification configuration.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/tecl-trader"
	}
	return filepath.Join(home, ".config", "tecl-trader")
}

// DirFromArgs extracts the value of a --config flag from a raw argument
// list. The config directory has to be known before the command tree is
// built, so main reads it straight from os.Args rather than through the
// flag parser.
func DirFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return nil, fmt.Errorf("writing config template: %w", err)
			}
		} else {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	def := DefaultStrategy()
	v.SetDefault("strategy.sma_window", def.SMAWindow)
	v.SetDefault("strategy.wma_window", def.WMAWindow)
	v.SetDefault("strategy.wma_lag", def.WMALag)
	v.SetDefault("strategy.immediate_buy_ratio", def.ImmediateBuyRatio)
	v.SetDefault("strategy.confirmed_buy_ratio", def.ConfirmedBuyRatio)
	v.SetDefault("strategy.vix_confirmation_ratio", def.VIXConfirmationRatio)
	v.SetDefault("strategy.sell_gain_ratio", def.SellGainRatio)
	v.SetDefault("strategy.profit_skim_fraction", def.ProfitSkimFraction)
	v.SetDefault("strategy.position_size_fraction", def.PositionSizeFraction)
	v.SetDefault("strategy.initial_fund", def.InitialFund)

	v.SetDefault("instruments.primary", "TECL")
	v.SetDefault("instruments.secondary", "VIX")

	v.SetDefault("state.trader_id", "main")
	v.SetDefault("state.db_path", filepath.Join(configDir, "trader.db"))

	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.level", "all")

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TECL_TRADER_ID"); v != "" {
		cfg.State.TraderID = v
	}
	if v := os.Getenv("TECL_DB_PATH"); v != "" {
		cfg.State.DBPath = v
	}
	if v := os.Getenv("TECL_INITIAL_FUND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategy.InitialFund = f
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	s := c.Strategy
	if s.SMAWindow <= 0 || s.WMAWindow <= 0 {
		return fmt.Errorf("indicator windows must be positive")
	}
	if s.WMALag < 0 {
		return fmt.Errorf("wma_lag must be non-negative")
	}
	if s.ImmediateBuyRatio <= 0 || s.ConfirmedBuyRatio <= 0 {
		return fmt.Errorf("buy ratios must be positive")
	}
	if s.ImmediateBuyRatio >= s.ConfirmedBuyRatio {
		return fmt.Errorf("immediate_buy_ratio must be below confirmed_buy_ratio")
	}
	if s.SellGainRatio <= 1.0 {
		return fmt.Errorf("sell_gain_ratio must exceed 1.0")
	}
	if s.ProfitSkimFraction < 0 || s.ProfitSkimFraction > 1 {
		return fmt.Errorf("profit_skim_fraction must be between 0 and 1")
	}
	if s.PositionSizeFraction <= 0 || s.PositionSizeFraction > 1 {
		return fmt.Errorf("position_size_fraction must be between 0 and 1")
	}
	if s.InitialFund <= 0 {
		return fmt.Errorf("initial_fund must be positive")
	}
	if c.State.TraderID == "" {
		return fmt.Errorf("trader_id is required")
	}
	return nil
}
