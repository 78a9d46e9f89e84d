package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port          int    `envconfig:"PORT" default:"8080"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	SessionSecret string `envconfig:"SESSION_SECRET" required:"true"`
	AppBaseURL    string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`
	Version       string `envconfig:"VERSION" default:"dev"`
	BcryptCost    int    `envconfig:"BCRYPT_COST" default:"12"`

	// RedisURL switches the rate-limit counter store from process-local
	// memory to Redis so limits hold across instances. Empty means memory.
	RedisURL string `envconfig:"REDIS_URL" default:""`

	OIDCIssuer       string `envconfig:"OIDC_ISSUER" default:""`
	OIDCClientID     string `envconfig:"OIDC_CLIENT_ID" default:""`
	OIDCClientSecret string `envconfig:"OIDC_CLIENT_SECRET" default:""`
	OIDCRedirectURL  string `envconfig:"OIDC_REDIRECT_URL" default:""`

	SMTPAddr string `envconfig:"SMTP_ADDR" default:""`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"no-reply@quotelink.local"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
