package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/freight-audit/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Tax      TaxConfig      `mapstructure:"tax"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	PublicURL       string        `mapstructure:"public_url"`
}

// DatabaseConfig holds database configuration. Driver "memory" keeps all
// collections in process and skips migrations.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"` // empty uses the embedded schema
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// TaxConfig identifies the paying entity
type TaxConfig struct {
	PayerStateCode string `mapstructure:"payer_state_code"`
	PayerName      string `mapstructure:"payer_name"`
}

// WorkflowConfig holds approval reminder settings
type WorkflowConfig struct {
	ReminderSchedule string        `mapstructure:"reminder_schedule"`
	StaleAfter       time.Duration `mapstructure:"stale_after"`
}

// LarkConfig holds optional chat delivery settings. Delivery is off when
// the credentials are empty.
type LarkConfig struct {
	AppID       string            `mapstructure:"app_id"`
	AppSecret   string            `mapstructure:"app_secret"`
	DefaultChat string            `mapstructure:"default_chat"`
	RoleChats   map[string]string `mapstructure:"role_chats"`
}

// ExportConfig holds export settings
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// Driver names
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Load loads configuration from file and environment variables. A .env file
// next to the working directory is applied to the environment first; a
// missing config file falls back to defaults.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// viper lowercases map keys; role ids are upper case
	roleChats := make(map[string]string, len(cfg.Lark.RoleChats))
	for role, chat := range cfg.Lark.RoleChats {
		roleChats[strings.ToUpper(role)] = chat
	}
	cfg.Lark.RoleChats = roleChats

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/freight-audit.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)
	v.SetDefault("database.migrations_dir", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Tax defaults
	v.SetDefault("tax.payer_state_code", "27")

	// Workflow defaults
	v.SetDefault("workflow.reminder_schedule", "0 9 * * 1-5")
	v.SetDefault("workflow.stale_after", 48*time.Hour)

	// Export defaults
	v.SetDefault("export.output_dir", "exports")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	v.BindEnv("lark.app_id", "LARK_APP_ID")
	v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	v.BindEnv("lark.default_chat", "LARK_DEFAULT_CHAT")
	v.BindEnv("tax.payer_state_code", "PAYER_STATE_CODE")
	v.BindEnv("tax.payer_name", "PAYER_NAME")
	v.BindEnv("database.path", "DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverMemory, c.Database.Driver)
	}

	if err := utils.ValidateStateCode(c.Tax.PayerStateCode); err != nil {
		return fmt.Errorf("tax.payer_state_code: %w", err)
	}

	if _, err := cron.ParseStandard(c.Workflow.ReminderSchedule); err != nil {
		return fmt.Errorf("workflow.reminder_schedule: %w", err)
	}
	if c.Workflow.StaleAfter <= 0 {
		return fmt.Errorf("workflow.stale_after must be positive")
	}

	if (c.Lark.AppID == "") != (c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret must be set together")
	}

	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}

	return nil
}

// LarkEnabled reports whether chat delivery is configured
func (c *Config) LarkEnabled() bool {
	return c.Lark.AppID != "" && c.Lark.AppSecret != ""
}
