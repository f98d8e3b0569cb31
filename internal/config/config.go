package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/nikolayk812/store-checkout/internal/domain"
	"github.com/nikolayk812/store-checkout/internal/pricing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const marginPrefix = "STORE_MARGIN_"

// Config holds store configuration loaded from the environment.
type Config struct {
	Currency           currency.Unit
	Margins            pricing.MarginTable
	NearExpiryDays     int `validate:"gte=0"`
	NearExpiryDiscount decimal.Decimal

	LogFormat        string `validate:"oneof=json console text"`
	LogLevel         string
	MetricsNamespace string `validate:"required"`
	MetricsAddr      string
	JournalURL       string `validate:"omitempty,url"`
}

// Load reads configuration from environment variables and an optional .env file.
// Every category needs a STORE_MARGIN_<CATEGORY> entry.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cur, err := currency.ParseISO(valueOrDefault(k.String("STORE_CURRENCY"), "BGN"))
	if err != nil {
		return nil, fmt.Errorf("STORE_CURRENCY is not valid: %w", err)
	}

	margins, err := loadMargins(k)
	if err != nil {
		return nil, err
	}

	nearDays, err := parseInt(k.String("STORE_NEAR_EXPIRY_DAYS"), 0)
	if err != nil {
		return nil, fmt.Errorf("STORE_NEAR_EXPIRY_DAYS: %w", err)
	}
	nearDiscount, err := parseDecimal(k.String("STORE_NEAR_EXPIRY_DISCOUNT"), decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("STORE_NEAR_EXPIRY_DISCOUNT: %w", err)
	}

	cfg := &Config{
		Currency:           cur,
		Margins:            margins,
		NearExpiryDays:     nearDays,
		NearExpiryDiscount: nearDiscount,
		LogFormat:          strings.ToLower(valueOrDefault(k.String("LOG_FORMAT"), "json")),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsNamespace:   valueOrDefault(k.String("METRICS_NAMESPACE"), "store"),
		MetricsAddr:        strings.TrimSpace(k.String("METRICS_ADDR")),
		JournalURL:         strings.TrimSpace(k.String("JOURNAL_DATABASE_URL")),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.NearExpiryPolicy().Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// NearExpiryPolicy converts the discount settings for the pricing engine.
func (c *Config) NearExpiryPolicy() pricing.NearExpiryPolicy {
	return pricing.NearExpiryPolicy{
		ThresholdDays:   c.NearExpiryDays,
		DiscountPercent: c.NearExpiryDiscount,
	}
}

func loadMargins(k *koanf.Koanf) (pricing.MarginTable, error) {
	margins := make(map[domain.Category]decimal.Decimal)
	for _, c := range domain.Categories() {
		key := marginPrefix + string(c)
		raw := strings.TrimSpace(k.String(key))
		if raw == "" {
			continue
		}
		m, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%s is not a number: %w", key, err)
		}
		margins[c] = m
	}

	table, err := pricing.NewMarginTable(margins)
	if err != nil {
		return nil, fmt.Errorf("margin table: %w", err)
	}
	return table, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseInt(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func parseDecimal(value string, fallback decimal.Decimal) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return decimal.NewFromString(value)
}

// LoadForTests runs Load with env layered over the process environment and
// puts every touched key back afterwards. An empty value unsets the key.
func LoadForTests(env map[string]string) (*Config, error) {
	previous := make(map[string]*string, len(env))
	for key, value := range env {
		if old, ok := os.LookupEnv(key); ok {
			previous[key] = &old
		} else {
			previous[key] = nil
		}
		if err := applyEnv(key, value); err != nil {
			return nil, errors.Join(err, restoreEnv(previous))
		}
	}

	cfg, err := Load()
	if restoreErr := restoreEnv(previous); restoreErr != nil {
		return nil, errors.Join(err, restoreErr)
	}
	return cfg, err
}

func applyEnv(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

// restoreEnv sets saved values back and unsets keys that did not exist before.
func restoreEnv(previous map[string]*string) error {
	var errs []error
	for key, old := range previous {
		var err error
		if old == nil {
			err = os.Unsetenv(key)
		} else {
			err = os.Setenv(key, *old)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
