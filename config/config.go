package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"paybridge/pkg/payment"

	"github.com/spf13/viper"
)

const (
	ModeSandbox    = "sandbox"
	ModeProduction = "production"
	ModeStub       = "stub"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	PhonePe  PhonePeConfig
	Redirect RedirectConfig
	Email    EmailConfig
	SMS      SMSConfig
	Firebase FirebaseConfig
	Rewards  RewardsConfig
	Admin    AdminConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	PublicBaseURL  string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client.
	TrustedProxies []string
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// PhonePeConfig holds gateway credentials and endpoints. AuthURL and
// CheckoutBaseURL are derived from Mode unless overridden.
type PhonePeConfig struct {
	Mode            string
	ClientID        string
	ClientSecret    string
	ClientVersion   string
	MerchantID      string
	AuthURL         string
	CheckoutBaseURL string
	TokenTTL        time.Duration
	TokenMargin     time.Duration
	Timeout         time.Duration
	ExpireAfter     time.Duration
	CheckoutMessage string
}

// RedirectConfig: where /verify sends the shopper. Empty means the local outcome pages.
type RedirectConfig struct {
	SuccessURL string
	FailureURL string
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
	AdminEmail   string
}

type SMSConfig struct {
	APIKey  string
	BaseURL string
	Route   string
}

type FirebaseConfig struct {
	ServiceAccountPath string
	AdminDeviceToken   string
}

type RewardsConfig struct {
	MinorUnitsPerPoint int64
}

type AdminConfig struct {
	PasswordHash string
	JWTSecret    string
	TokenExpiry  time.Duration
	Issuer       string
}

type NotifyConfig struct {
	Timeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5000")
	v.SetDefault("READ_TIMEOUT", 10*time.Second)
	v.SetDefault("WRITE_TIMEOUT", 30*time.Second)

	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)

	v.SetDefault("MODE", ModeSandbox)
	v.SetDefault("CLIENT_VERSION", "1")
	v.SetDefault("TOKEN_TTL", 25*time.Minute)
	v.SetDefault("TOKEN_SAFETY_MARGIN", 30*time.Second)
	v.SetDefault("GATEWAY_TIMEOUT", 20*time.Second)
	v.SetDefault("PAYMENT_EXPIRE_AFTER", 20*time.Minute)
	v.SetDefault("CHECKOUT_MESSAGE", "Payment for your order")

	v.SetDefault("SMS_BASE_URL", "https://www.fast2sms.com")
	v.SetDefault("SMS_ROUTE", "q")

	v.SetDefault("REWARD_MINOR_UNITS_PER_POINT", 1000)

	v.SetDefault("ADMIN_TOKEN_EXPIRY", 12*time.Hour)
	v.SetDefault("JWT_ISSUER", "paybridge")

	v.SetDefault("NOTIFY_TIMEOUT", 15*time.Second)
}

// Load reads configuration from the environment, with an optional .env file
// in the working directory (or at ENV_FILE) filling gaps.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Env:            v.GetString("APP_ENV"),
			PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
			ReadTimeout:    v.GetDuration("READ_TIMEOUT"),
			WriteTimeout:   v.GetDuration("WRITE_TIMEOUT"),
			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("DATABASE_DSN"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		PhonePe: PhonePeConfig{
			Mode:            strings.ToLower(v.GetString("MODE")),
			ClientID:        v.GetString("CLIENT_ID"),
			ClientSecret:    v.GetString("CLIENT_SECRET"),
			ClientVersion:   v.GetString("CLIENT_VERSION"),
			MerchantID:      v.GetString("MERCHANT_ID"),
			AuthURL:         v.GetString("AUTH_URL"),
			CheckoutBaseURL: v.GetString("CHECKOUT_BASE_URL"),
			TokenTTL:        v.GetDuration("TOKEN_TTL"),
			TokenMargin:     v.GetDuration("TOKEN_SAFETY_MARGIN"),
			Timeout:         v.GetDuration("GATEWAY_TIMEOUT"),
			ExpireAfter:     v.GetDuration("PAYMENT_EXPIRE_AFTER"),
			CheckoutMessage: v.GetString("CHECKOUT_MESSAGE"),
		},
		Redirect: RedirectConfig{
			SuccessURL: v.GetString("SUCCESS_REDIRECT_URL"),
			FailureURL: v.GetString("FAILURE_REDIRECT_URL"),
		},
		Email: EmailConfig{
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			From:         v.GetString("EMAIL_FROM"),
			AdminEmail:   v.GetString("ADMIN_EMAIL"),
		},
		SMS: SMSConfig{
			APIKey:  v.GetString("SMS_API_KEY"),
			BaseURL: v.GetString("SMS_BASE_URL"),
			Route:   v.GetString("SMS_ROUTE"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: v.GetString("FIREBASE_SERVICE_ACCOUNT_PATH"),
			AdminDeviceToken:   v.GetString("ADMIN_FCM_TOKEN"),
		},
		Rewards: RewardsConfig{
			MinorUnitsPerPoint: v.GetInt64("REWARD_MINOR_UNITS_PER_POINT"),
		},
		Admin: AdminConfig{
			PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
			JWTSecret:    v.GetString("JWT_SECRET"),
			TokenExpiry:  v.GetDuration("ADMIN_TOKEN_EXPIRY"),
			Issuer:       v.GetString("JWT_ISSUER"),
		},
		Notify: NotifyConfig{
			Timeout: v.GetDuration("NOTIFY_TIMEOUT"),
		},
	}
	cfg.PhonePe.applyModeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p *PhonePeConfig) applyModeDefaults() {
	switch p.Mode {
	case ModeProduction:
		if p.AuthURL == "" {
			p.AuthURL = payment.ProductionAuthURL
		}
		if p.CheckoutBaseURL == "" {
			p.CheckoutBaseURL = payment.ProductionCheckoutURL
		}
	case ModeSandbox:
		if p.AuthURL == "" {
			p.AuthURL = payment.SandboxAuthURL
		}
		if p.CheckoutBaseURL == "" {
			p.CheckoutBaseURL = payment.SandboxCheckoutBase
		}
	}
}

var ErrMissingCredentials = errors.New("CLIENT_ID and CLIENT_SECRET are required outside stub mode")

func (c *Config) Validate() error {
	switch c.PhonePe.Mode {
	case ModeSandbox, ModeProduction:
		if c.PhonePe.ClientID == "" || c.PhonePe.ClientSecret == "" {
			return ErrMissingCredentials
		}
	case ModeStub:
	default:
		return fmt.Errorf("unsupported MODE=%q (want sandbox, production or stub)", c.PhonePe.Mode)
	}
	if c.Server.Port == "" {
		return errors.New("PORT is required")
	}
	if c.Rewards.MinorUnitsPerPoint <= 0 {
		return errors.New("REWARD_MINOR_UNITS_PER_POINT must be positive")
	}
	if c.Admin.PasswordHash != "" && c.Admin.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	return nil
}

// IsProduction reports whether the process runs with production logging and gin release mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
