package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	AppEnv   string
	Port     int
	LogLevel string

	DBHost          string
	DBPort          string
	DBUsername      string
	DBPassword      string
	DBDatabase      string
	DBAdminUser     string
	DBAdminPassword string

	RedisAddr     string
	RedisPassword string

	AccessTokenSecret  string
	RefreshTokenSecret string
	CORSOrigins        []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	ZoomAccountID    string
	ZoomClientID     string
	ZoomClientSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceBasic    string
	StripePricePremium  string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	SubscriptionRequired bool
	JobsEnabled          bool
}

var (
	cfg  *Config
	once sync.Once
)

// Load reads .env (when present) and the process environment once.
func Load() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Warn(".env file not found, relying on environment variables")
		}
		cfg = FromEnv()
	})
	return cfg
}

func FromEnv() *Config {
	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUsername:      os.Getenv("DB_USERNAME"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBDatabase:      os.Getenv("DB_DATABASE"),
		DBAdminUser:     os.Getenv("DB_ADMIN_USER"),
		DBAdminPassword: os.Getenv("DB_ADMIN_PASSWORD"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		CORSOrigins:        getList("CORS_ORIGINS", []string{"*"}),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		ZoomAccountID:    os.Getenv("ZOOM_ACCOUNT_ID"),
		ZoomClientID:     os.Getenv("ZOOM_CLIENT_ID"),
		ZoomClientSecret: os.Getenv("ZOOM_CLIENT_SECRET"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceBasic:    os.Getenv("STRIPE_PRICE_BASIC"),
		StripePricePremium:  os.Getenv("STRIPE_PRICE_PREMIUM"),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/subscription/success"),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/subscription/cancel"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "ElderLink <no-reply@elderlink.app>"),

		SubscriptionRequired: getBool("SUBSCRIPTION_REQUIRED", true),
		JobsEnabled:          getBool("JOBS_ENABLED", true),
	}
}

// Validate reports the first missing setting the server cannot start without.
func (c *Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"DB_HOST", c.DBHost},
		{"DB_USERNAME", c.DBUsername},
		{"DB_PASSWORD", c.DBPassword},
		{"DB_DATABASE", c.DBDatabase},
		{"ACCESS_TOKEN_SECRET", c.AccessTokenSecret},
		{"REFRESH_TOKEN_SECRET", c.RefreshTokenSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s environment variable is required", r.key)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) ZoomEnabled() bool {
	return c.ZoomAccountID != "" && c.ZoomClientID != "" && c.ZoomClientSecret != ""
}

// StripeEnabled requires both the API key and the webhook signing secret.
func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.WithField("key", key).Warnf("invalid integer %q, using %d", v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.WithField("key", key).Warnf("invalid boolean %q, using %t", v, fallback)
		return fallback
	}
	return b
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
