package payment

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/louisbranch/donations/internal/services/donations/ledger"
)

// paymentEnv holds raw env values before post-parse validation.
type paymentEnv struct {
	UPIID      string `env:"DONATIONS_UPI_ID"`
	PayeeName  string `env:"DONATIONS_PAYEE_NAME"  envDefault:"Root Coder Foundation"`
	Currency   string `env:"DONATIONS_CURRENCY"    envDefault:"INR"`
	QRSize     int    `env:"DONATIONS_QR_SIZE"     envDefault:"300"`
	AmountUnit string `env:"DONATIONS_AMOUNT_UNIT" envDefault:"whole"`
}

// Config fixes the payee embedded in every payment intent.
type Config struct {
	UPIID     string
	PayeeName string
	Currency  string
	QRSize    int
	Unit      ledger.Unit
}

// LoadConfigFromEnv reads payment configuration.
func LoadConfigFromEnv() (Config, error) {
	var raw paymentEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse payment env: %w", err)
	}
	unit, err := ledger.ParseUnit(raw.AmountUnit)
	if err != nil {
		return Config{}, fmt.Errorf("DONATIONS_AMOUNT_UNIT: %w", err)
	}
	cfg := Config{
		UPIID:     strings.TrimSpace(raw.UPIID),
		PayeeName: strings.TrimSpace(raw.PayeeName),
		Currency:  strings.ToUpper(strings.TrimSpace(raw.Currency)),
		QRSize:    raw.QRSize,
		Unit:      unit,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.UPIID == "" {
		return fmt.Errorf("DONATIONS_UPI_ID is required")
	}
	if strings.ContainsAny(c.UPIID, "&?= ") {
		return fmt.Errorf("DONATIONS_UPI_ID must not contain URI delimiters")
	}
	if c.PayeeName == "" {
		return fmt.Errorf("payee name is required")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("currency must be a three letter code")
	}
	if c.QRSize < 64 || c.QRSize > 2048 {
		return fmt.Errorf("qr size must be between 64 and 2048 pixels")
	}
	return nil
}
