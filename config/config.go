// Package config loads server settings from .env and the environment.
package config

import (
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/warp/pos-ledger/ledger"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	CORS   CORSConfig
	Polish PolishConfig
	Ledger LedgerConfig
}

type AppConfig struct {
	Port string
}

type DBConfig struct {
	Path string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type PolishConfig struct {
	APIKey        string
	Model         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// Enabled reports whether a polish backend can be built.
func (p PolishConfig) Enabled() bool {
	return p.APIKey != ""
}

type LedgerConfig struct {
	DefaultTaxRate     ledger.Money
	ReceiptStartNumber string
	Shop               ledger.CompanyInfo
}

// Load reads envFile (if present) and then the process environment, which
// wins over the file.
func Load(envFile string) *Config {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: %s not loaded, using environment variables: %v", envFile, err)
	}

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_PATH", "pos.db")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("POLISH_MODEL", "gpt-4o-mini")
	v.SetDefault("POLISH_TIMEOUT_SECONDS", 10)
	v.SetDefault("POLISH_RATE_PER_SECOND", 1.0)
	v.SetDefault("POLISH_BURST", 3)
	v.SetDefault("DEFAULT_TAX_RATE", "15")
	v.SetDefault("RECEIPT_START_NUMBER", "116261")
	v.SetDefault("SHOP_COMPANY_NAME", "")
	v.SetDefault("SHOP_NAME", "")
	v.SetDefault("SHOP_EMAIL", "")
	v.SetDefault("SHOP_ADDRESS", "")
	v.SetDefault("SHOP_PHONE", "")
	v.SetDefault("SHOP_TAX_ID", "")
	v.SetDefault("SHOP_BRN", "")

	taxRate, err := decimal.NewFromString(v.GetString("DEFAULT_TAX_RATE"))
	if err != nil || taxRate.IsNegative() {
		log.Printf("Warning: DEFAULT_TAX_RATE %q is not a valid rate, using 15", v.GetString("DEFAULT_TAX_RATE"))
		taxRate = decimal.NewFromInt(15)
	}

	return &Config{
		App: AppConfig{Port: v.GetString("APP_PORT")},
		DB:  DBConfig{Path: v.GetString("DB_PATH")},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Polish: PolishConfig{
			APIKey:        v.GetString("OPENAI_API_KEY"),
			Model:         v.GetString("POLISH_MODEL"),
			Timeout:       time.Duration(v.GetInt("POLISH_TIMEOUT_SECONDS")) * time.Second,
			RatePerSecond: v.GetFloat64("POLISH_RATE_PER_SECOND"),
			Burst:         v.GetInt("POLISH_BURST"),
		},
		Ledger: LedgerConfig{
			DefaultTaxRate:     taxRate,
			ReceiptStartNumber: v.GetString("RECEIPT_START_NUMBER"),
			Shop: ledger.CompanyInfo{
				Name:     v.GetString("SHOP_COMPANY_NAME"),
				ShopName: v.GetString("SHOP_NAME"),
				Email:    v.GetString("SHOP_EMAIL"),
				Address:  v.GetString("SHOP_ADDRESS"),
				Phone:    v.GetString("SHOP_PHONE"),
				TaxID:    v.GetString("SHOP_TAX_ID"),
				BRN:      v.GetString("SHOP_BRN"),
			},
		},
	}
}

// Defaults builds the store defaults from the ledger settings.
func (c *Config) Defaults() ledger.Defaults {
	return ledger.Defaults{
		Shop:  c.Ledger.Shop,
		Draft: ledger.DefaultDraft(c.Ledger.ReceiptStartNumber, c.Ledger.DefaultTaxRate, c.Ledger.Shop),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
