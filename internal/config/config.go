package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// OutputFile is where the catalog export is written, relative to the working directory.
const OutputFile = "catsy_products_full_export.csv"

type CatalogConfig struct {
	BaseURL     string
	QueryID     string
	BearerToken string
	PageSize    int
	Timeout     time.Duration
	OutputFile  string
}

type PricingConfig struct {
	BaseURL       string
	SiteID        string
	ClientID      string
	ClientSecret  string
	TokenEncoding string // "json" or "form"
	Timeout       time.Duration
	PayloadFile   string // empty uses the built-in sample payload
}

type EventsConfig struct {
	RabbitURI      string // empty disables publishing
	RabbitExchange string
}

const (
	CatsyBaseURL     = "CATSY_BASE_URL"
	CatsyQueryID     = "CATSY_QUERY_ID"
	CatsyBearerToken = "CATSY_BEARER_TOKEN"
	PageSize         = "PAGE_SIZE"
	Timeout          = "TIMEOUT"

	SparkLayerURL = "SPARKLAYER_URL"
	SiteID        = "SITE_ID"
	ClientID      = "CLIENT_ID"
	ClientSecret  = "CLIENT_SECRET"
	TokenEncoding = "TOKEN_ENCODING"
	PricingFile   = "PRICING_FILE"

	RabbitURIEnv      = "RABBIT_URI"
	RabbitExchangeEnv = "RABBIT_EXCHANGE"
)

// loadDotEnv picks up a local .env if present; a missing file is not an error.
func loadDotEnv() {
	_ = godotenv.Load()
}

func CatalogFromEnv() (CatalogConfig, error) {
	loadDotEnv()

	cfg := CatalogConfig{
		BaseURL:    getEnv(CatsyBaseURL, "https://api.catsy.com"),
		OutputFile: OutputFile,
	}

	var err error
	if cfg.QueryID, err = requireEnv(CatsyQueryID); err != nil {
		return cfg, err
	}
	if cfg.BearerToken, err = requireEnv(CatsyBearerToken); err != nil {
		return cfg, err
	}
	if cfg.PageSize, err = getEnvInt(PageSize, 400); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", PageSize, err)
	}
	if cfg.PageSize <= 0 {
		return cfg, fmt.Errorf("invalid %v: must be positive, got %d", PageSize, cfg.PageSize)
	}
	if cfg.Timeout, err = getEnvDuration(Timeout, "90s"); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", Timeout, err)
	}

	return cfg, nil
}

func PricingFromEnv() (PricingConfig, error) {
	loadDotEnv()

	cfg := PricingConfig{
		TokenEncoding: getEnv(TokenEncoding, "json"),
		PayloadFile:   os.Getenv(PricingFile),
	}

	var err error
	if cfg.BaseURL, err = requireEnv(SparkLayerURL); err != nil {
		return cfg, err
	}
	if cfg.SiteID, err = requireEnv(SiteID); err != nil {
		return cfg, err
	}
	if cfg.ClientID, err = requireEnv(ClientID); err != nil {
		return cfg, err
	}
	if cfg.ClientSecret, err = requireEnv(ClientSecret); err != nil {
		return cfg, err
	}
	if cfg.TokenEncoding != "json" && cfg.TokenEncoding != "form" {
		return cfg, fmt.Errorf("invalid %v: %q (want json or form)", TokenEncoding, cfg.TokenEncoding)
	}
	if cfg.Timeout, err = getEnvDuration(Timeout, "30s"); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", Timeout, err)
	}

	return cfg, nil
}

func EventsFromEnv() EventsConfig {
	loadDotEnv()

	return EventsConfig{
		RabbitURI:      os.Getenv(RabbitURIEnv),
		RabbitExchange: getEnv(RabbitExchangeEnv, "catalog.sync"),
	}
}

func (c EventsConfig) Enabled() bool {
	return c.RabbitURI != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%v is required", key)
	}
	return v, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return i, nil
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	return time.ParseDuration(getEnv(key, fallback))
}
