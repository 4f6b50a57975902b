// Package config has the configuration for the app and the CLI
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Environment is the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment accepts the short and long spellings of each environment
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
}

// Cache drivers
const (
	CacheMemory   = "memory"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
)

// Upstream holds the remote endpoints the clients read from
type Upstream struct {
	MetastoreURL      string
	MortalityURLs     [2]string
	MortalityRowLimit int // sent as $limit, 0 leaves the server default
	PatentURL         string
	ProductsURL       string
	ExclusivityURL    string
	PurpleBookURL     string // optional
	RxNormURL         string
	OpenFDAURL        string
	UserAgent         string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	CacheDriver string
	CachePath   string // sqlite file
	CacheDSN    string // postgres connection string
	CacheTTL    time.Duration

	// Scheduled cache refresh times, gocron At() syntax
	RefreshAt string

	Upstream Upstream
}

// LoadDotEnv reads a .env file from the working directory, then from the
// executable directory. A missing file is not an error.
func LoadDotEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}
	ex, err := os.Executable()
	if err != nil {
		return
	}
	_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               env,
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		CacheDriver: strings.ToLower(getEnvWithDefault("CACHE_DRIVER", CacheSQLite)),
		CachePath:   getEnvWithDefault("CACHE_PATH", DefaultCachePath()),
		CacheDSN:    os.Getenv("CACHE_DSN"),
		CacheTTL:    getDurationEnvWithDefault("CACHE_TTL", 0), // never expires

		RefreshAt: getEnvWithDefault("REFRESH_AT", "06:00;18:00"),

		Upstream: Upstream{
			MetastoreURL: getEnvWithDefault("METASTORE_URL", "https://data.medicaid.gov/api/1"),
			MortalityURLs: [2]string{
				getEnvWithDefault("MORTALITY_URL_2014_2019", "https://data.cdc.gov/resource/3yf8-kanr.json"),
				getEnvWithDefault("MORTALITY_URL_2020_2023", "https://data.cdc.gov/resource/muzy-jte6.json"),
			},
			MortalityRowLimit: getIntEnvWithDefault("MORTALITY_ROW_LIMIT", 50000),
			PatentURL:         getEnvWithDefault("ORANGE_BOOK_PATENT_URL", "http://127.0.0.1:5500/orange_book/patent.txt"),
			ProductsURL:       getEnvWithDefault("ORANGE_BOOK_PRODUCTS_URL", "http://127.0.0.1:5500/orange_book/products.txt"),
			ExclusivityURL:    getEnvWithDefault("ORANGE_BOOK_EXCLUSIVITY_URL", "http://127.0.0.1:5500/orange_book/exclusivity.txt"),
			PurpleBookURL:     os.Getenv("PURPLE_BOOK_URL"),
			RxNormURL:         getEnvWithDefault("RXNORM_URL", "https://rxnav.nlm.nih.gov/REST"),
			OpenFDAURL:        getEnvWithDefault("OPENFDA_URL", "https://api.fda.gov"),
			UserAgent:         getEnvWithDefault("USER_AGENT", "govdata-api/1.0"),
			RequestsPerSecond: getFloatEnvWithDefault("UPSTREAM_RPS", 10),
			Timeout:           getDurationEnvWithDefault("HTTP_TIMEOUT", 60*time.Second),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultCachePath is the sqlite cache location under the XDG cache home
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "govdata", "cache.db")
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateCache(cfg); err != nil {
		return fmt.Errorf("invalid cache settings: %w", err)
	}

	if err := validateUpstream(cfg.Upstream); err != nil {
		return fmt.Errorf("invalid upstream settings: %w", err)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	switch strings.ToLower(logLevel) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("LOG_LEVEL must be one of: [debug info warn error], got: %s", logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize keeps the log file size between 1MB and 1GB
func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

func validateCache(cfg *Config) error {
	switch cfg.CacheDriver {
	case CacheMemory:
	case CacheSQLite:
		if cfg.CachePath == "" {
			return fmt.Errorf("CACHE_PATH cannot be empty with the sqlite driver")
		}
	case CachePostgres:
		if cfg.CacheDSN == "" {
			return fmt.Errorf("CACHE_DSN is required with the postgres driver")
		}
	default:
		return fmt.Errorf("CACHE_DRIVER must be one of: [memory sqlite postgres], got: %s", cfg.CacheDriver)
	}

	if cfg.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL cannot be negative, got: %s", cfg.CacheTTL)
	}

	return nil
}

func validateUpstream(up Upstream) error {
	required := map[string]string{
		"METASTORE_URL":               up.MetastoreURL,
		"MORTALITY_URL_2014_2019":     up.MortalityURLs[0],
		"MORTALITY_URL_2020_2023":     up.MortalityURLs[1],
		"ORANGE_BOOK_PATENT_URL":      up.PatentURL,
		"ORANGE_BOOK_PRODUCTS_URL":    up.ProductsURL,
		"ORANGE_BOOK_EXCLUSIVITY_URL": up.ExclusivityURL,
		"RXNORM_URL":                  up.RxNormURL,
		"OPENFDA_URL":                 up.OpenFDAURL,
	}
	for name, value := range required {
		if err := validateURL(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if up.PurpleBookURL != "" {
		if err := validateURL(up.PurpleBookURL); err != nil {
			return fmt.Errorf("PURPLE_BOOK_URL: %w", err)
		}
	}

	if up.MortalityRowLimit < 0 {
		return fmt.Errorf("MORTALITY_ROW_LIMIT cannot be negative, got: %d", up.MortalityRowLimit)
	}

	if up.RequestsPerSecond <= 0 {
		return fmt.Errorf("UPSTREAM_RPS must be positive, got: %v", up.RequestsPerSecond)
	}

	if up.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got: %s", up.Timeout)
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault accepts Go durations ("90s", "12h")
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"CACHE_DRIVER",
		"CACHE_PATH",
		"CACHE_DSN",
		"CACHE_TTL",
		"REFRESH_AT",
		"METASTORE_URL",
		"MORTALITY_URL_2014_2019",
		"MORTALITY_URL_2020_2023",
		"MORTALITY_ROW_LIMIT",
		"ORANGE_BOOK_PATENT_URL",
		"ORANGE_BOOK_PRODUCTS_URL",
		"ORANGE_BOOK_EXCLUSIVITY_URL",
		"PURPLE_BOOK_URL",
		"RXNORM_URL",
		"OPENFDA_URL",
		"USER_AGENT",
		"UPSTREAM_RPS",
		"HTTP_TIMEOUT",
	}
}
