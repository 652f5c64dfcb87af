package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"wheeltracker/database"
	"wheeltracker/models"
)

// Config holds all application configuration
type Config struct {
	// Ledger configuration
	StartingBudget       decimal.Decimal // Display-only baseline added to the bankroll
	ProfitAlertThreshold decimal.Decimal
	LossAlertThreshold   decimal.Decimal // Positive magnitude
	TopN                 int
	BigWinThreshold      decimal.Decimal
	DefaultSession       string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Discord configuration
	DiscordToken          string
	DiscordAlertChannelID string
	DiscordRoundUpdates   bool // Post every recorded round, not just alerts

	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

// fileConfig mirrors Config for the optional YAML overlay. Nil fields are not set.
type fileConfig struct {
	StartingBudget        *string `yaml:"starting_budget"`
	ProfitAlertThreshold  *string `yaml:"profit_alert_threshold"`
	LossAlertThreshold    *string `yaml:"loss_alert_threshold"`
	TopN                  *int    `yaml:"top_n"`
	BigWinThreshold       *string `yaml:"big_win_threshold"`
	DefaultSession        *string `yaml:"default_session"`
	DatabaseURL           *string `yaml:"database_url"`
	DatabaseName          *string `yaml:"database_name"`
	DiscordAlertChannelID *string `yaml:"discord_alert_channel_id"`
	DiscordRoundUpdates   *bool   `yaml:"discord_round_updates"`
	LogLevel              *string `yaml:"log_level"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Load reads configuration without touching the global instance
func Load() (*Config, error) {
	return load()
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// HasDatabase returns true when a durable session store is configured
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// AlertThresholds returns the configured profit and loss alert limits
func (c *Config) AlertThresholds() models.AlertThresholds {
	return models.AlertThresholds{
		Profit: c.ProfitAlertThreshold,
		Loss:   c.LossAlertThreshold,
	}
}

// load loads configuration from defaults, the optional YAML file, then environment variables
func load() (*Config, error) {
	config := defaults()

	if path := os.Getenv("WHEEL_CONFIG"); path != "" {
		if err := config.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaults() *Config {
	return &Config{
		StartingBudget:       decimal.Zero,
		ProfitAlertThreshold: decimal.NewFromInt(50),
		LossAlertThreshold:   decimal.NewFromInt(50),
		TopN:                 10,
		BigWinThreshold:      decimal.NewFromInt(10),
		DefaultSession:       "default",
		LogLevel:             "info",
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	decimals := []struct {
		name  string
		value *string
		dst   *decimal.Decimal
	}{
		{"starting_budget", file.StartingBudget, &c.StartingBudget},
		{"profit_alert_threshold", file.ProfitAlertThreshold, &c.ProfitAlertThreshold},
		{"loss_alert_threshold", file.LossAlertThreshold, &c.LossAlertThreshold},
		{"big_win_threshold", file.BigWinThreshold, &c.BigWinThreshold},
	}
	for _, d := range decimals {
		if d.value == nil {
			continue
		}
		parsed, err := decimal.NewFromString(strings.TrimSpace(*d.value))
		if err != nil {
			return fmt.Errorf("invalid %s in %s: %w", d.name, path, err)
		}
		*d.dst = parsed
	}

	if file.TopN != nil {
		c.TopN = *file.TopN
	}
	setString(&c.DefaultSession, file.DefaultSession)
	setString(&c.DatabaseURL, file.DatabaseURL)
	setString(&c.DatabaseName, file.DatabaseName)
	setString(&c.DiscordAlertChannelID, file.DiscordAlertChannelID)
	if file.DiscordRoundUpdates != nil {
		c.DiscordRoundUpdates = *file.DiscordRoundUpdates
	}
	setString(&c.LogLevel, file.LogLevel)
	return nil
}

func (c *Config) applyEnv() error {
	decimals := map[string]*decimal.Decimal{
		"STARTING_BUDGET":        &c.StartingBudget,
		"PROFIT_ALERT_THRESHOLD": &c.ProfitAlertThreshold,
		"LOSS_ALERT_THRESHOLD":   &c.LossAlertThreshold,
		"BIG_WIN_THRESHOLD":      &c.BigWinThreshold,
	}
	for key, dst := range decimals {
		if value := os.Getenv(key); value != "" {
			parsed, err := decimal.NewFromString(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = parsed
		}
	}

	if topN := os.Getenv("TOP_N"); topN != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(topN))
		if err != nil {
			return fmt.Errorf("invalid TOP_N: %w", err)
		}
		c.TopN = parsed
	}

	c.DefaultSession = getEnvWithDefault("DEFAULT_SESSION", c.DefaultSession)
	c.DatabaseURL = getEnvWithDefault("DATABASE_URL", c.DatabaseURL)
	c.DatabaseName = getEnvWithDefault("DATABASE_NAME", c.DatabaseName)
	c.DiscordToken = os.Getenv("DISCORD_TOKEN")
	c.DiscordAlertChannelID = getEnvWithDefault("DISCORD_ALERT_CHANNEL_ID", c.DiscordAlertChannelID)
	if roundUpdates := os.Getenv("DISCORD_ROUND_UPDATES"); roundUpdates != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(roundUpdates))
		if err != nil {
			return fmt.Errorf("invalid DISCORD_ROUND_UPDATES: %w", err)
		}
		c.DiscordRoundUpdates = parsed
	}
	c.LogLevel = getEnvWithDefault("LOG_LEVEL", c.LogLevel)
	c.Environment = os.Getenv("ENVIRONMENT")
	return nil
}

func (c *Config) validate() error {
	if c.StartingBudget.IsNegative() {
		return fmt.Errorf("STARTING_BUDGET cannot be negative")
	}
	if c.ProfitAlertThreshold.IsNegative() || c.LossAlertThreshold.IsNegative() {
		return fmt.Errorf("alert thresholds must be positive magnitudes")
	}
	if c.TopN < 0 {
		return fmt.Errorf("TOP_N cannot be negative")
	}
	if strings.TrimSpace(c.DefaultSession) == "" {
		return fmt.Errorf("DEFAULT_SESSION cannot be empty")
	}
	// Alerts go to a channel, so a token without one is a misconfiguration
	if c.DiscordToken != "" && c.DiscordAlertChannelID == "" {
		return fmt.Errorf("DISCORD_ALERT_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}
	// If DatabaseName is provided, ensure it's not empty
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	config := defaults()
	config.Environment = "test"
	return config
}
