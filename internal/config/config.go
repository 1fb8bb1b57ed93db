package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

// #region types

// Collaborators holds the base URLs of the five collaborator services.
type Collaborators struct {
	Classifier string `yaml:"classifier"`
	Discovery  string `yaml:"discovery"`
	Extractor  string `yaml:"extractor"`
	Mailer     string `yaml:"mailer"`
	Renderer   string `yaml:"renderer"`
}

// Config is the engine's runtime configuration, loaded from YAML with
// environment variable overrides on top.
type Config struct {
	DBPath              string        `yaml:"db_path"`
	ListenAddr          string        `yaml:"listen_addr"`
	CallBudget          time.Duration `yaml:"-"`
	CallBudgetRaw       string        `yaml:"call_budget"`
	BudgetLimit         float64       `yaml:"budget_limit"`
	DefaultDeliveryDays int           `yaml:"default_delivery_days"`
	Collaborators       Collaborators `yaml:"collaborators"`
}

// #endregion types

// #region defaults

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:              "procurement.db",
		ListenAddr:          ":8090",
		CallBudget:          8 * time.Second,
		BudgetLimit:         50000,
		DefaultDeliveryDays: 14,
		Collaborators: Collaborators{
			Classifier: "http://localhost:9101",
			Discovery:  "http://localhost:9102",
			Extractor:  "http://localhost:9103",
			Mailer:     "http://localhost:9104",
			Renderer:   "http://localhost:9105",
		},
	}
}

// #endregion defaults

// #region load

// Load reads the YAML config at path, fills gaps with defaults and applies
// environment overrides. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DBPath = envOr("PROCUREMENT_DB", c.DBPath)
	c.ListenAddr = envOr("PROCUREMENT_LISTEN_ADDR", c.ListenAddr)
	c.CallBudgetRaw = envOr("PROCUREMENT_CALL_BUDGET", c.CallBudgetRaw)
	if v := os.Getenv("PROCUREMENT_BUDGET_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.BudgetLimit = f
		}
	}
	if v := os.Getenv("PROCUREMENT_DELIVERY_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.DefaultDeliveryDays = n
		}
	}
	c.Collaborators.Classifier = envOr("PROCUREMENT_CLASSIFIER_URL", c.Collaborators.Classifier)
	c.Collaborators.Discovery = envOr("PROCUREMENT_DISCOVERY_URL", c.Collaborators.Discovery)
	c.Collaborators.Extractor = envOr("PROCUREMENT_EXTRACTOR_URL", c.Collaborators.Extractor)
	c.Collaborators.Mailer = envOr("PROCUREMENT_MAILER_URL", c.Collaborators.Mailer)
	c.Collaborators.Renderer = envOr("PROCUREMENT_RENDERER_URL", c.Collaborators.Renderer)
}

func (c *Config) normalize() error {
	c.DBPath = strings.TrimSpace(c.DBPath)
	c.ListenAddr = strings.TrimSpace(c.ListenAddr)
	if raw := strings.TrimSpace(c.CallBudgetRaw); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config: call_budget %q: %w", raw, err)
		}
		c.CallBudget = d
	}
	return nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path is required")
	}
	if c.CallBudget <= 0 {
		return fmt.Errorf("config: call_budget must be positive")
	}
	if c.BudgetLimit <= 0 {
		return fmt.Errorf("config: budget_limit must be positive")
	}
	if c.DefaultDeliveryDays <= 0 {
		return fmt.Errorf("config: default_delivery_days must be positive")
	}
	return nil
}

// Policy returns the workflow policy this configuration implies.
func (c Config) Policy() workflow.Policy {
	return workflow.Policy{
		BudgetLimit:         c.BudgetLimit,
		DefaultDeliveryDays: c.DefaultDeliveryDays,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load
