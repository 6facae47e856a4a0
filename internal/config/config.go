package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/phenrril/storefront/internal/domain"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DbDSN      string `mapstructure:"DB_DSN"`
	DbHost     string `mapstructure:"DB_HOST"`
	DbPort     string `mapstructure:"DB_PORT"`
	DbUser     string `mapstructure:"DB_USER"`
	DbPassword string `mapstructure:"DB_PASSWORD"`
	DbName     string `mapstructure:"DB_NAME"`
	DbSSLMode  string `mapstructure:"DB_SSLMODE"`

	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	JWTTTL     time.Duration `mapstructure:"JWT_TTL"`
	SessionKey string        `mapstructure:"SESSION_KEY"`

	ShippingInsideFee  string `mapstructure:"SHIPPING_INSIDE_FEE"`
	ShippingOutsideFee string `mapstructure:"SHIPPING_OUTSIDE_FEE"`

	SmtpHost      string `mapstructure:"SMTP_HOST"`
	SmtpPort      int    `mapstructure:"SMTP_PORT"`
	SmtpUser      string `mapstructure:"SMTP_USER"`
	SmtpPass      string `mapstructure:"SMTP_PASS"`
	MailFrom      string `mapstructure:"MAIL_FROM"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	TrustedProxies     string `mapstructure:"TRUSTED_PROXIES"`
}

var defaults = map[string]any{
	"APP_ENV":               "development",
	"PORT":                  "8080",
	"LOG_LEVEL":             "info",
	"DB_DSN":                "",
	"DB_HOST":               "localhost",
	"DB_PORT":               "5432",
	"DB_USER":               "postgres",
	"DB_PASSWORD":           "postgres",
	"DB_NAME":               "storefront",
	"DB_SSLMODE":            "disable",
	"JWT_SECRET":            "",
	"JWT_TTL":               "24h",
	"SESSION_KEY":           "",
	"SHIPPING_INSIDE_FEE":   "80",
	"SHIPPING_OUTSIDE_FEE":  "150",
	"SMTP_HOST":             "",
	"SMTP_PORT":             587,
	"SMTP_USER":             "",
	"SMTP_PASS":             "",
	"MAIL_FROM":             "no-reply@storefront.local",
	"PUBLIC_BASE_URL":       "http://localhost:8080",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"RATE_LIMIT_PER_MINUTE": 20,
	"TRUSTED_PROXIES":       "",
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if _, err := cfg.Shipping(); err != nil {
		return nil, err
	}
	if _, err := cfg.Proxies(); err != nil {
		return nil, err
	}
	if cfg.Production() {
		if cfg.JWTSecret == "" || cfg.SessionKey == "" {
			return nil, fmt.Errorf("config: JWT_SECRET and SESSION_KEY are required in production")
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-jwt-secret"
	}
	if cfg.SessionKey == "" {
		cfg.SessionKey = "dev-session-key"
	}
	return cfg, nil
}

func (c *Config) Production() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "production" || env == "prod"
}

// DSN returns DB_DSN when set, otherwise builds one from the DB_* parts.
func (c *Config) DSN() string {
	if strings.TrimSpace(c.DbDSN) != "" {
		return c.DbDSN
	}
	return "host=" + c.DbHost + " user=" + c.DbUser + " password=" + c.DbPassword +
		" dbname=" + c.DbName + " port=" + c.DbPort + " sslmode=" + c.DbSSLMode
}

func (c *Config) Shipping() (domain.ShippingRates, error) {
	inside, err := decimal.NewFromString(c.ShippingInsideFee)
	if err != nil {
		return domain.ShippingRates{}, fmt.Errorf("config: SHIPPING_INSIDE_FEE: %w", err)
	}
	outside, err := decimal.NewFromString(c.ShippingOutsideFee)
	if err != nil {
		return domain.ShippingRates{}, fmt.Errorf("config: SHIPPING_OUTSIDE_FEE: %w", err)
	}
	if inside.IsNegative() || outside.IsNegative() {
		return domain.ShippingRates{}, fmt.Errorf("config: shipping fees cannot be negative")
	}
	return domain.ShippingRates{Inside: inside, Outside: outside}, nil
}

// Proxies parses TRUSTED_PROXIES, a comma separated list of IPs or CIDRs
// whose forwarding headers are believed.
func (c *Config) Proxies() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(c.TrustedProxies, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
		}
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}
