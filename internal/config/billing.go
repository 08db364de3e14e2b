package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// BillingConfig controls draw calculation defaults and invoice presentation.
type BillingConfig struct {
	Company CompanyInfo `mapstructure:"company"`

	// DefaultHoldbackPercent applies when a project is initialized
	// without an explicit rate.
	DefaultHoldbackPercent float64 `mapstructure:"defaultHoldbackPercent"`

	// AllowPercentRegression permits a draw at a percent below what has
	// already been invoiced, producing a negative (credit) gross amount.
	AllowPercentRegression bool `mapstructure:"allowPercentRegression"`

	InvoiceNumberTemplate string `mapstructure:"invoiceNumberTemplate"`
	ReleaseNumberTemplate string `mapstructure:"releaseNumberTemplate"`

	PaymentTerms string `mapstructure:"paymentTerms"`
}

// CompanyInfo is printed on generated invoices.
type CompanyInfo struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		Company: CompanyInfo{
			Name: "TAYLOR CONSTRUCTION",
		},
		DefaultHoldbackPercent: 10,
		AllowPercentRegression: false,
		InvoiceNumberTemplate:  "{REF}-{SEQ3}",
		ReleaseNumberTemplate:  "{REF}-RELEASE-{SEQ3}",
		PaymentTerms:           "Net 30 days from invoice date",
	}
}

func (c BillingConfig) DefaultHoldback() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultHoldbackPercent)
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/drawline/config")
	v.AddConfigPath("/etc/drawline")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DRAWLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.company", defaults.Company)
	v.SetDefault("billing.defaultHoldbackPercent", defaults.DefaultHoldbackPercent)
	v.SetDefault("billing.allowPercentRegression", defaults.AllowPercentRegression)
	v.SetDefault("billing.invoiceNumberTemplate", defaults.InvoiceNumberTemplate)
	v.SetDefault("billing.releaseNumberTemplate", defaults.ReleaseNumberTemplate)
	v.SetDefault("billing.paymentTerms", defaults.PaymentTerms)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBillingConfigHolder wraps a fixed config, for tests.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.DefaultHoldbackPercent < 0 || cfg.DefaultHoldbackPercent > 100 {
		return errors.New("billing.defaultHoldbackPercent must be between 0 and 100")
	}
	if cfg.InvoiceNumberTemplate == "" {
		return errors.New("billing.invoiceNumberTemplate cannot be empty")
	}
	if cfg.ReleaseNumberTemplate == "" {
		return errors.New("billing.releaseNumberTemplate cannot be empty")
	}
	return nil
}
