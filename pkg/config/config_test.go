package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardpost/guardpost/pkg/observability"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/config/users_database.yml", cfg.Store.UsersFile)
	assert.Equal(t, "/data/invites.json", cfg.Store.InvitesFile)
	assert.Equal(t, 60*time.Minute, cfg.Invites.TTL)
	assert.Equal(t, "admins", cfg.Invites.AdminGroup)
	assert.Equal(t, 30*time.Second, cfg.Hash.Timeout)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Empty(t, cfg.SMTP.Host)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("GUARDPOST_PORT", "9000")
	t.Setenv("GUARDPOST_USERS_FILE", "/tmp/users.yml")
	t.Setenv("GUARDPOST_INVITES_FILE", "/tmp/invites.json")
	t.Setenv("GUARDPOST_INVITE_TTL", "15m")
	t.Setenv("GUARDPOST_ADMIN_GROUP", "operators")
	t.Setenv("GUARDPOST_BASE_URL", "https://auth.example.com/")
	t.Setenv("GUARDPOST_LOG_LEVEL", "debug")
	t.Setenv("GUARDPOST_SMTP_HOST", "smtp.example.com")
	t.Setenv("GUARDPOST_SMTP_PORT", "465")
	t.Setenv("GUARDPOST_SMTP_FROM", "noreply@example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/tmp/users.yml", cfg.Store.UsersFile)
	assert.Equal(t, 15*time.Minute, cfg.Invites.TTL)
	assert.Equal(t, "operators", cfg.Invites.AdminGroup)
	// Trailing slash is trimmed so link construction can append paths
	assert.Equal(t, "https://auth.example.com", cfg.Invites.BaseURL)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, 465, cfg.SMTP.Port)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "same store files",
			mutate:  func(c *Config) { c.Store.InvitesFile = c.Store.UsersFile },
			wantErr: "must be different",
		},
		{
			name:    "missing users file",
			mutate:  func(c *Config) { c.Store.UsersFile = "" },
			wantErr: "users file path is required",
		},
		{
			name:    "non-positive invite TTL",
			mutate:  func(c *Config) { c.Invites.TTL = 0 },
			wantErr: "invite TTL must be positive",
		},
		{
			name:    "empty admin group",
			mutate:  func(c *Config) { c.Invites.AdminGroup = "" },
			wantErr: "admin group is required",
		},
		{
			name: "smtp host without from address",
			mutate: func(c *Config) {
				c.SMTP.Host = "smtp.example.com"
				c.SMTP.From = ""
			},
			wantErr: "from address is required",
		},
		{
			name: "invalid smtp port",
			mutate: func(c *Config) {
				c.SMTP.Host = "smtp.example.com"
				c.SMTP.From = "noreply@example.com"
				c.SMTP.Port = 70000
			},
			wantErr: "invalid SMTP port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, observability.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, observability.WarnLevel, parseLogLevel("WARNING"))
	assert.Equal(t, observability.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, observability.InfoLevel, parseLogLevel("bogus"))
}
