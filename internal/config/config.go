package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ipgpay-client/internal/payment"
	"ipgpay-client/internal/transport"
	"ipgpay-client/internal/utils"
)

type Config struct {
	BaseURL  string
	ClientID string
	APIKey   string
	Notify   bool
	TestMode bool

	SecretKey            string
	PaymentFormURL       string
	PaymentFormID        string
	UsePopup             bool
	RequestExpiry        time.Duration
	CreateCustomers      bool
	MerchantRebilling    bool
	MerchantName         string
	NonDecimalCurrencies []string
	RateLimit            float64
	RateBurst            int

	AppPort string
	AppEnv  string
}

// LoadConfig reads .env when present, then the process environment.
// Missing credentials are not reported here; payment.ConnectionConfig.Validate
// does that before the first request.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:        getenv("IPGPAY_API_BASE_URL", payment.DefaultBaseURL),
		ClientID:       strings.TrimSpace(os.Getenv("IPGPAY_CLIENT_ID")),
		APIKey:         strings.TrimSpace(os.Getenv("IPGPAY_API_KEY")),
		SecretKey:      os.Getenv("IPGPAY_SECRET_KEY"),
		PaymentFormURL: os.Getenv("IPGPAY_PAYMENT_FORM_URL"),
		PaymentFormID:  os.Getenv("IPGPAY_PAYMENT_FORM_ID"),
		MerchantName:   os.Getenv("IPGPAY_MERCHANT_NAME"),
		AppPort:        getenv("APP_PORT", "8080"),
		AppEnv:         os.Getenv("APP_ENV"),
	}

	flags := []struct {
		key string
		def bool
		dst *bool
	}{
		{"IPGPAY_NOTIFY", true, &cfg.Notify},
		{"IPGPAY_TEST_MODE", false, &cfg.TestMode},
		{"IPGPAY_USE_POPUP", false, &cfg.UsePopup},
		{"IPGPAY_CREATE_CUSTOMERS", false, &cfg.CreateCustomers},
		{"IPGPAY_MERCHANT_REBILLING", false, &cfg.MerchantRebilling},
	}
	for _, f := range flags {
		v, err := utils.ParseFlag(os.Getenv(f.key), f.def)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid boolean %q", f.key, os.Getenv(f.key))
		}
		*f.dst = v
	}

	hours, err := getInt("IPGPAY_REQUEST_EXPIRY", 24)
	if err != nil {
		return nil, err
	}
	if hours < 1 {
		return nil, fmt.Errorf("IPGPAY_REQUEST_EXPIRY: must be at least 1 hour, got %d", hours)
	}
	cfg.RequestExpiry = time.Duration(hours) * time.Hour

	if raw := os.Getenv("IPGPAY_NON_DECIMAL_CURRENCIES"); strings.TrimSpace(raw) != "" {
		for _, code := range strings.Split(raw, ",") {
			if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
				cfg.NonDecimalCurrencies = append(cfg.NonDecimalCurrencies, code)
			}
		}
	}

	if raw := strings.TrimSpace(os.Getenv("IPGPAY_RATE_LIMIT")); raw != "" {
		cfg.RateLimit, err = strconv.ParseFloat(raw, 64)
		if err != nil || cfg.RateLimit < 0 {
			return nil, fmt.Errorf("IPGPAY_RATE_LIMIT: invalid rate %q", raw)
		}
	}
	if cfg.RateBurst, err = getInt("IPGPAY_RATE_BURST", 1); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Connection returns the account settings the payment client validates.
func (c *Config) Connection() payment.ConnectionConfig {
	return payment.ConnectionConfig{
		BaseURL:  c.BaseURL,
		ClientID: c.ClientID,
		Key:      c.APIKey,
		Notify:   c.Notify,
		TestMode: c.TestMode,
	}
}

// ClientOptions maps the remaining settings onto payment client options.
func (c *Config) ClientOptions() []payment.Option {
	opts := []payment.Option{
		payment.WithTransport(transport.New(transport.WithRateLimit(c.RateLimit, c.RateBurst))),
		payment.WithSignatureLifetime(c.RequestExpiry),
	}
	if c.SecretKey != "" {
		opts = append(opts, payment.WithSigningKey(c.SecretKey))
	}
	if c.PaymentFormURL != "" {
		opts = append(opts, payment.WithPaymentFormURL(c.PaymentFormURL))
	}
	if len(c.NonDecimalCurrencies) > 0 {
		opts = append(opts, payment.WithNonDecimalCurrencies(c.NonDecimalCurrencies...))
	}
	return opts
}

// ApplyFormDefaults fills the payment form settings a request left empty.
func (c *Config) ApplyFormDefaults(req *payment.PaymentFormRequest) {
	if req.FormID == "" {
		req.FormID = c.PaymentFormID
	}
	if req.MerchantName == "" {
		req.MerchantName = c.MerchantName
	}
	req.UsePopup = req.UsePopup || c.UsePopup
	req.CreateCustomer = req.CreateCustomer || c.CreateCustomers
	req.MerchantRebilling = req.MerchantRebilling || c.MerchantRebilling
}

// NewClient builds a payment client from the loaded settings.
func (c *Config) NewClient() *payment.Client {
	return payment.NewClient(c.Connection(), c.ClientOptions()...)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return n, nil
}
