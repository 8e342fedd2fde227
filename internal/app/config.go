package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vinnienasta1/ProITech-pub/internal/index"
	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/envutil"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/glpi"
)

// FieldConfig is one row of the persisted field-display mapping.
type FieldConfig struct {
	Display string `yaml:"display"`
	Key     string `yaml:"key"`
	Visible bool   `yaml:"visible"`
}

// Config is the persisted configuration, consumed read-only by the core.
// Credentials may come from the environment instead of the file.
type Config struct {
	LogMode        string        `yaml:"log_mode"`
	BaseURL        string        `yaml:"base_url"`
	AppToken       string        `yaml:"app_token"`
	UserToken      string        `yaml:"user_token"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	MaxRetries     int           `yaml:"max_retries"`
	UseIndexing    *bool         `yaml:"use_indexing"`
	ItemPageSize   int           `yaml:"item_page_size"`
	EntityWindow   int           `yaml:"entity_window"`
	Fields         []FieldConfig `yaml:"fields"`
}

func DefaultConfig() Config {
	return Config{
		LogMode:        "dev",
		TimeoutSeconds: 10,
		MaxRetries:     2,
		ItemPageSize:   index.DefaultItemPageSize,
		EntityWindow:   index.DefaultEntityWindow,
	}
}

// LoadConfig reads the YAML file and layers environment overrides on top.
// A missing path is not an error: everything has a default except the
// credentials, which are validated at client construction.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.BaseURL = envutil.String("GLPI_BASE_URL", cfg.BaseURL)
	cfg.AppToken = envutil.String("GLPI_APP_TOKEN", cfg.AppToken)
	cfg.UserToken = envutil.String("GLPI_USER_TOKEN", cfg.UserToken)
	indexing := envutil.Bool("GLPI_USE_INDEXING", cfg.IndexingEnabled())
	cfg.UseIndexing = &indexing

	if _, err := cfg.FieldTable(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IndexingEnabled defaults to true when the file does not say otherwise.
func (c Config) IndexingEnabled() bool {
	return c.UseIndexing == nil || *c.UseIndexing
}

// FieldTable builds the validated display mapping; an empty config uses the
// standard table.
func (c Config) FieldTable() (*inventory.FieldTable, error) {
	if len(c.Fields) == 0 {
		return inventory.DefaultFieldTable(), nil
	}
	entries := make([]inventory.FieldMapping, 0, len(c.Fields))
	for _, f := range c.Fields {
		entries = append(entries, inventory.FieldMapping{
			DisplayName: f.Display,
			APIKey:      f.Key,
			Visible:     f.Visible,
		})
	}
	return inventory.NewFieldTable(entries)
}

func (c Config) GLPIConfig() glpi.Config {
	return glpi.Config{
		BaseURL:    c.BaseURL,
		AppToken:   c.AppToken,
		UserToken:  c.UserToken,
		Timeout:    time.Duration(c.TimeoutSeconds) * time.Second,
		MaxRetries: c.MaxRetries,
	}
}
