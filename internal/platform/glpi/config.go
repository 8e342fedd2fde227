package glpi

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vinnienasta1/ProITech-pub/internal/platform/envutil"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 2
)

type Config struct {
	// BaseURL is the REST root, e.g. https://itdb.example.com/apirest.php.
	BaseURL   string
	AppToken  string
	UserToken string
	// Timeout applies to every request.
	Timeout time.Duration
	// MaxRetries bounds transparent retries of transient failures.
	MaxRetries int
}

type ConfigErrorCode string

const (
	ConfigErrorMissingBaseURL   ConfigErrorCode = "missing_base_url"
	ConfigErrorInvalidBaseURL   ConfigErrorCode = "invalid_base_url"
	ConfigErrorMissingAppToken  ConfigErrorCode = "missing_app_token"
	ConfigErrorMissingUserToken ConfigErrorCode = "missing_user_token"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid glpi config"
	}
	switch e.Code {
	case ConfigErrorMissingBaseURL:
		return "glpi base url is required"
	case ConfigErrorInvalidBaseURL:
		return fmt.Sprintf(
			"invalid glpi base url %q; expected absolute URL like https://host/apirest.php",
			e.Value,
		)
	case ConfigErrorMissingAppToken:
		return "glpi app token is required"
	case ConfigErrorMissingUserToken:
		return "glpi user token is required"
	default:
		return "invalid glpi config"
	}
}

// ResolveConfigFromEnv reads connection settings from the environment.
// The YAML configuration may supply the same values; env wins for
// credentials so they can stay out of the config file.
func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:    envutil.String("GLPI_BASE_URL", ""),
		AppToken:   envutil.String("GLPI_APP_TOKEN", ""),
		UserToken:  envutil.String("GLPI_USER_TOKEN", ""),
		Timeout:    time.Duration(envutil.Int("GLPI_TIMEOUT_SECONDS", int(defaultTimeout/time.Second))) * time.Second,
		MaxRetries: envutil.Int("GLPI_MAX_RETRIES", defaultMaxRetries),
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return &ConfigError{Code: ConfigErrorMissingBaseURL}
	}
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ConfigError{Code: ConfigErrorInvalidBaseURL, Value: cfg.BaseURL}
	}
	if strings.TrimSpace(cfg.AppToken) == "" {
		return &ConfigError{Code: ConfigErrorMissingAppToken}
	}
	if strings.TrimSpace(cfg.UserToken) == "" {
		return &ConfigError{Code: ConfigErrorMissingUserToken}
	}
	return nil
}
