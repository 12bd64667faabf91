package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "27", cfg.Tax.PayerStateCode)
	assert.Equal(t, 48*time.Hour, cfg.Workflow.StaleAfter)
	assert.Equal(t, "exports", cfg.Export.OutputDir)
	assert.False(t, cfg.LarkEnabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: memory
tax:
  payer_state_code: "29"
  payer_name: Acme Logistics
workflow:
  reminder_schedule: "*/30 * * * *"
  stale_after: 24h
lark:
  default_chat: oc_all
  role_chats:
    FINANCE_MANAGER: oc_finance
`)
	t.Setenv("LARK_APP_ID", "cli_a1")
	t.Setenv("LARK_APP_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "29", cfg.Tax.PayerStateCode)
	assert.Equal(t, "Acme Logistics", cfg.Tax.PayerName)
	assert.Equal(t, 24*time.Hour, cfg.Workflow.StaleAfter)
	assert.True(t, cfg.LarkEnabled())
	assert.Equal(t, "oc_finance", cfg.Lark.RoleChats["FINANCE_MANAGER"])
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")

	_, err := Load(path)
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: DriverSQLite, Path: "data/x.db"},
		Tax:      TaxConfig{PayerStateCode: "27"},
		Workflow: WorkflowConfig{ReminderSchedule: "0 9 * * *", StaleAfter: time.Hour},
		Export:   ExportConfig{OutputDir: "exports"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"bad state code", func(c *Config) { c.Tax.PayerStateCode = "77" }},
		{"bad schedule", func(c *Config) { c.Workflow.ReminderSchedule = "daily-ish" }},
		{"zero stale_after", func(c *Config) { c.Workflow.StaleAfter = 0 }},
		{"half lark credentials", func(c *Config) { c.Lark.AppID = "cli_a1" }},
		{"no export dir", func(c *Config) { c.Export.OutputDir = "" }},
	}

	base := validConfig()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
