package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/maltedev/offer-resolver/internal/affiliate"
	"github.com/maltedev/offer-resolver/internal/fetch"
	"github.com/maltedev/offer-resolver/internal/models"
)

type Config struct {
	Server      ServerConfig
	Resolver    ResolverConfig
	Fetch       FetchConfig
	Browser     BrowserConfig
	Shopee      ShopeeConfig
	Magalu      MagaluConfig
	Amazon      AmazonConfig
	Diagnostics DiagnosticsConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type ResolverConfig struct {
	Deadline        time.Duration
	StrategyTimeout time.Duration
	BatchWorkers    int
}

type FetchConfig struct {
	Timeout        time.Duration
	UserAgents     []string
	AcceptLanguage string
	MaxRedirects   int
	ShortLinkHosts []string
	ExpandTimeout  time.Duration
}

type BrowserConfig struct {
	Enabled        bool
	Headless       bool
	Timeout        time.Duration
	SettleTimeout  time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
}

type ShopeeConfig struct {
	APIURL  string
	AppID   string
	Secret  string
	SubIDs  []string
	Timeout time.Duration
}

// DefaultCredentials returns the configured key pair, or nil when either half is missing.
func (s ShopeeConfig) DefaultCredentials() *models.Credentials {
	creds := &models.Credentials{AppID: s.AppID, Secret: s.Secret}
	if creds.IsZero() {
		return nil
	}
	return creds
}

type MagaluConfig struct {
	StoreID string
}

type AmazonConfig struct {
	AssociateTag string
}

type DiagnosticsConfig struct {
	Sink          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Stream        string
	StreamMaxLen  int64
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. A .env file in the working directory is
// loaded first when present; variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Resolver: ResolverConfig{
			Deadline:        getDurationOrDefault("RESOLVER_DEADLINE", 60*time.Second),
			StrategyTimeout: getDurationOrDefault("RESOLVER_STRATEGY_TIMEOUT", 35*time.Second),
			BatchWorkers:    getIntOrDefault("RESOLVER_BATCH_WORKERS", 4),
		},
		Fetch: FetchConfig{
			Timeout:        getDurationOrDefault("FETCH_TIMEOUT", 12*time.Second),
			UserAgents:     getStringSliceOrDefault("FETCH_USER_AGENTS", fetch.DefaultUserAgents()),
			AcceptLanguage: getEnvOrDefault("FETCH_ACCEPT_LANGUAGE", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"),
			MaxRedirects:   getIntOrDefault("FETCH_MAX_REDIRECTS", 10),
			ShortLinkHosts: getStringSliceOrDefault("FETCH_SHORT_LINK_HOSTS", fetch.DefaultShortLinkHosts()),
			ExpandTimeout:  getDurationOrDefault("FETCH_EXPAND_TIMEOUT", 8*time.Second),
		},
		Browser: BrowserConfig{
			Enabled:        getBoolOrDefault("BROWSER_ENABLED", true),
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			SettleTimeout:  getDurationOrDefault("BROWSER_SETTLE_TIMEOUT", 4*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/Sao_Paulo"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "pt-BR"),
			ProxyServer:    getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Shopee: ShopeeConfig{
			APIURL:  getEnvOrDefault("SHOPEE_API_URL", affiliate.DefaultShopeeEndpoint),
			AppID:   getEnvOrDefault("SHOPEE_APP_ID", ""),
			Secret:  getEnvOrDefault("SHOPEE_SECRET", ""),
			SubIDs:  getStringSliceOrDefault("SHOPEE_SUB_IDS", []string{"s1"}),
			Timeout: getDurationOrDefault("SHOPEE_TIMEOUT", 10*time.Second),
		},
		Magalu: MagaluConfig{
			StoreID: getEnvOrDefault("MAGALU_STORE_ID", ""),
		},
		Amazon: AmazonConfig{
			AssociateTag: getEnvOrDefault("AMAZON_ASSOCIATE_TAG", ""),
		},
		Diagnostics: DiagnosticsConfig{
			Sink:          getEnvOrDefault("DIAGNOSTICS_SINK", "log"),
			RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
			RedisDB:       getIntOrDefault("REDIS_DB", 0),
			Stream:        getEnvOrDefault("DIAGNOSTICS_STREAM", "offer-resolver:attempts"),
			StreamMaxLen:  int64(getIntOrDefault("DIAGNOSTICS_STREAM_MAXLEN", 10000)),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %q", c.Server.Port)
	}

	if c.Resolver.Deadline <= 0 {
		return fmt.Errorf("RESOLVER_DEADLINE must be positive")
	}

	if c.Resolver.StrategyTimeout <= 0 {
		return fmt.Errorf("RESOLVER_STRATEGY_TIMEOUT must be positive")
	}

	if c.Resolver.BatchWorkers <= 0 {
		return fmt.Errorf("RESOLVER_BATCH_WORKERS must be positive")
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}

	if c.Browser.SettleTimeout > c.Browser.Timeout {
		return fmt.Errorf("BROWSER_SETTLE_TIMEOUT cannot be greater than BROWSER_TIMEOUT")
	}

	if (c.Shopee.AppID == "") != (c.Shopee.Secret == "") {
		return fmt.Errorf("SHOPEE_APP_ID and SHOPEE_SECRET must be set together")
	}

	switch c.Diagnostics.Sink {
	case "log", "redis":
	default:
		return fmt.Errorf("DIAGNOSTICS_SINK must be log or redis, got %q", c.Diagnostics.Sink)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
