package payment

import (
	"net/url"
	"strings"
	"time"

	"ipgpay-client/internal/utils"
)

const (
	DefaultBaseURL = "https://my.ipgpay.com"

	// DefaultSignatureLifetime applies when no request expiry is configured.
	DefaultSignatureLifetime = 24 * time.Hour
)

// ConnectionConfig identifies the merchant account and gateway. It is a plain
// value: copies are independent and nothing in this package mutates one.
type ConnectionConfig struct {
	BaseURL  string
	ClientID string
	Key      string
	TestMode bool
	Notify   bool
}

// DefaultConnectionConfig returns the gateway defaults. Client id and key are
// intentionally empty and must be supplied.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		BaseURL:  DefaultBaseURL,
		Notify:   true,
		TestMode: false,
	}
}

// Validate checks the connection settings without touching the network.
func (c ConnectionConfig) Validate() error {
	if c.BaseURL == "" {
		return &ConfigurationError{Field: FieldBaseURL, Message: "API URL is missing."}
	}
	if !isAbsoluteURL(c.BaseURL) {
		return &ConfigurationError{Field: FieldBaseURL, Message: "API URL is invalid."}
	}

	if c.ClientID == "" {
		return &ConfigurationError{Field: FieldClientID, Message: "API Client Id is missing."}
	}
	if !utils.IsValidSQLInt(c.ClientID) {
		return &ConfigurationError{Field: FieldClientID, Message: "Invalid API Client Id"}
	}

	if c.Key == "" {
		return &ConfigurationError{Field: FieldKey, Message: "API Key is missing."}
	}
	return nil
}

func (c ConnectionConfig) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

func isAbsoluteURL(raw string) bool {
	if strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
