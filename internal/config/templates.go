package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# TECL Trader Configuration

[strategy]
# Trailing window for the primary simple moving average (sessions)
sma_window = 30
# Trailing window for the secondary weighted moving average (sessions)
wma_window = 30
# Sessions before the decision date at which the WMA window ends
wma_lag = 4
# Buy immediately when open < ratio * SMA
immediate_buy_ratio = 0.75
# Discount gate for the volatility-confirmed buy branch
confirmed_buy_ratio = 1.25
# Secondary open must exceed ratio * lagged WMA to confirm
vix_confirmation_ratio = 1.04
# Sell when open >= ratio * purchase price
sell_gain_ratio = 1.0575
# Fraction of each realized profit moved to the bank
profit_skim_fraction = 0.20
# Fraction of the fund deployed per buy
position_size_fraction = 0.95
# Starting tradable principal
initial_fund = 10000.0

[instruments]
primary = "TECL"
secondary = "VIX"

[state]
# Key for the persisted ledger
trader_id = "main"
# SQLite database path (defaults under the config directory)
# db_path = ""

[notifications]
enabled = false
# Notification level: all, trades_only, errors_only
level = "all"

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[notifications.email]
enabled = false
smtp_host = ""
smtp_port = 587
username = ""
password = ""
from = ""
to = ""

[ui]
color_enabled = true
date_format = "2006-01-02"
`

// createTemplateConfig writes a starter config.toml to configDir.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(os.Stderr, "Created config template at %s\n", path)
	return nil
}
