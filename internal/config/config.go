package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env          string
	Port         string
	DBPath       string
	JWTSecret    string
	JWTTTL       time.Duration
	CookieSecure bool
	PublicDir    string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	CheckoutBaseURL string
}

// Load reads config.env when present, then materializes configuration from
// the environment. Defaults are suitable for local development only.
func Load() (Config, error) {
	if _, err := os.Stat("config.env"); err == nil {
		if err := godotenv.Load("config.env"); err != nil {
			return Config{}, fmt.Errorf("load config.env: %w", err)
		}
	}

	cfg := Config{
		Env:             getEnv("APP_ENV", EnvDevelopment),
		Port:            getEnv("PORT", "3000"),
		DBPath:          getEnv("DB_PATH", filepath.Join("data", "trailbook.db")),
		JWTSecret:       getEnv("JWT_SECRET", "change_me_in_production"),
		PublicDir:       getEnv("PUBLIC_DIR", "public"),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPass:        getEnv("SMTP_PASS", ""),
		MailFrom:        getEnv("MAIL_FROM", "Trailbook <hello@trailbook.local>"),
		CheckoutBaseURL: getEnv("CHECKOUT_BASE_URL", ""),
	}

	ttlDays, err := strconv.Atoi(getEnv("JWT_EXPIRES_IN_DAYS", "90"))
	if err != nil || ttlDays <= 0 {
		return Config{}, fmt.Errorf("invalid JWT_EXPIRES_IN_DAYS: %q", getEnv("JWT_EXPIRES_IN_DAYS", "90"))
	}
	cfg.JWTTTL = time.Duration(ttlDays) * 24 * time.Hour

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SMTP_PORT: %q", getEnv("SMTP_PORT", "587"))
	}
	cfg.SMTPPort = smtpPort

	cfg.CookieSecure = cfg.Env == EnvProduction

	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return Config{}, fmt.Errorf("unknown APP_ENV %q", cfg.Env)
	}
	if cfg.Env == EnvProduction && cfg.JWTSecret == "change_me_in_production" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

// Verbose reports whether error responses should include full detail.
func (cfg Config) Verbose() bool {
	return cfg.Env == EnvDevelopment
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
