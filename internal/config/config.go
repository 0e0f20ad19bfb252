// internal/config/config.go

// Package config holds the cosmetic deployment record: branding,
// terminology, emoji, currency display and the two numeric defaults
// the core consumes (default stock, low-stock threshold). Nothing in
// here may affect the accounting invariants.
package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/shopspring/decimal"
)

// Terminology names the inventory concepts in the deployment's own
// words ("Flavor"/"bottle" for a drinks fridge, "Snack"/"bag" for a
// snack shelf).
type Terminology struct {
	Item  string `json:"item"`
	Items string `json:"items"`
	Unit  string `json:"unit"`
	Units string `json:"units"`
}

// Defaults are the only configuration values the core reads.
type Defaults struct {
	InitialStock      int    `json:"initialStock"`
	LowStockThreshold int    `json:"lowStockThreshold"`
	Currency          string `json:"currency"`
	CurrencyPosition  string `json:"currencyPosition"` // "before" or "after"
}

// Config is served verbatim to the UI at /api/config.
type Config struct {
	AppName     string            `json:"appName"`
	AppSubtitle string            `json:"appSubtitle"`
	AppEmoji    string            `json:"appEmoji"`
	Vocabulary  string            `json:"vocabulary"` // "generic" or "bottles"
	Terminology Terminology       `json:"terminology"`
	Emojis      map[string]string `json:"emojis"`
	Labels      map[string]string `json:"labels"`
	Defaults    Defaults          `json:"defaults"`
}

// Default is the mate-fridge deployment the app shipped with.
func Default() *Config {
	return &Config{
		AppName:     "Mate Service",
		AppSubtitle: "Share, Track, and Enjoy Together",
		AppEmoji:    "🧉",
		Vocabulary:  "generic",
		Terminology: Terminology{
			Item:  "Flavor",
			Items: "Flavors",
			Unit:  "bottle",
			Units: "bottles",
		},
		Emojis: map[string]string{
			"stock":     "📦",
			"consumed":  "✅",
			"remaining": "🧉",
			"price":     "💰",
			"user":      "👥",
			"payment":   "💳",
		},
		Labels: map[string]string{
			"trackConsumption": "Track Consumption",
			"userBalances":     "User Balances",
			"processPayment":   "Process Payment",
			"stockDetails":     "Stock Details",
			"manageItems":      "Manage Flavors",
			"manageUsers":      "Manage Users",
		},
		Defaults: Defaults{
			InitialStock:      24,
			LowStockThreshold: 6,
			Currency:          "€",
			CurrencyPosition:  "before",
		},
	}
}

// Load reads a JSON config file over the defaults, so a deployment
// only specifies what it changes.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.Vocabulary != "generic" && cfg.Vocabulary != "bottles" {
		return nil, fmt.Errorf("config %q: unknown vocabulary %q", path, cfg.Vocabulary)
	}
	if cfg.Defaults.InitialStock < 0 || cfg.Defaults.LowStockThreshold < 0 {
		return nil, fmt.Errorf("config %q: defaults must not be negative", path)
	}
	return cfg, nil
}

// FormatCurrency renders an amount with the configured symbol, always
// two decimals.
func (c *Config) FormatCurrency(amount decimal.Decimal) string {
	formatted := amount.StringFixed(2)
	if c.Defaults.CurrencyPosition == "after" {
		return formatted + c.Defaults.Currency
	}
	return c.Defaults.Currency + formatted
}

// HandleGet serves the record read-only for the UI.
func (c *Config) HandleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}
