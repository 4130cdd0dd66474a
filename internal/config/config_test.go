package config

import (
	"log/slog"
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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
http_addr: ":9090"
base_public_url: "https://fest.example/"
log_level: debug
export_secret: s3cret
postgres:
  dsn: postgres://fest@localhost/fest
sheets:
  spreadsheet_id: sheet-1
  credentials_file: /etc/fest/sa.json
smtp:
  host: smtp.example
  from: fest@example.com
telegram:
  token: bot-token
  admin_ids: [11, 22]
sync:
  max_attempts: 5
  base_delay: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "https://fest.example", cfg.BasePublicURL)
	assert.Equal(t, "Registrations", cfg.Sheets.SheetName)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.True(t, cfg.Sheets.Enabled())
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, map[int64]bool{11: true, 22: true}, cfg.Telegram.Admins())
	assert.Equal(t, SyncConfig{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond}, cfg.Sync)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
export_secret: from-file
postgres:
  dsn: postgres://file
`)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("ADMIN_TG_IDS", "1, 2,abc,,3")
	t.Setenv("SYNC_BASE_DELAY", "2s")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
	assert.Equal(t, "from-file", cfg.ExportSecret)
	assert.Equal(t, []int64{1, 2, 3}, cfg.Telegram.AdminIDs)
	assert.Equal(t, 2*time.Second, cfg.Sync.BaseDelay)
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("EXPORT_SECRET", "x")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing dsn",
			body:    "export_secret: x\n",
			wantErr: "DATABASE_URL is empty",
		},
		{
			name:    "missing export secret",
			body:    "postgres: {dsn: pg}\n",
			wantErr: "EXPORT_SECRET is empty",
		},
		{
			name:    "sheet without credentials",
			body:    "export_secret: x\npostgres: {dsn: pg}\nsheets: {spreadsheet_id: s}\n",
			wantErr: "GOOGLE_SERVICE_ACCOUNT_JSON is empty",
		},
		{
			name:    "zero attempts",
			body:    "export_secret: x\npostgres: {dsn: pg}\nsync: {max_attempts: 0}\n",
			wantErr: "max_attempts",
		},
		{
			name:    "bad log level",
			body:    "export_secret: x\npostgres: {dsn: pg}\nlog_level: loud\n",
			wantErr: "log level",
		},
		{
			name:    "bad env number",
			body:    "export_secret: x\npostgres: {dsn: pg}\n",
			env:     map[string]string{"SYNC_MAX_ATTEMPTS": "three"},
			wantErr: "SYNC_MAX_ATTEMPTS",
		},
		{
			name:    "malformed yaml",
			body:    "postgres: [",
			wantErr: "unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseAdminIDs(t *testing.T) {
	assert.Equal(t, []int64{}, parseAdminIDs("  "))
	assert.Equal(t, []int64{5, 7}, parseAdminIDs("5,x,7"))
}
