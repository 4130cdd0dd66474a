package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	BasePublicURL string `yaml:"base_public_url"`
	LogLevel      string `yaml:"log_level"`
	// CatalogPath overrides the embedded game catalog.
	CatalogPath string `yaml:"catalog_path"`

	// ExportSecret signs download links; AdminToken guards the admin API.
	ExportSecret string `yaml:"export_secret"`
	AdminToken   string `yaml:"admin_token"`

	Postgres PostgresConfig `yaml:"postgres"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Telegram TelegramConfig `yaml:"telegram"`
	Sync     SyncConfig     `yaml:"sync"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type SheetsConfig struct {
	SpreadsheetID   string  `yaml:"spreadsheet_id"`
	CredentialsFile string  `yaml:"credentials_file"`
	SheetName       string  `yaml:"sheet_name"`
	WritesPerSecond float64 `yaml:"writes_per_second"`
}

func (s SheetsConfig) Enabled() bool { return s.SpreadsheetID != "" }

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type TelegramConfig struct {
	Token    string  `yaml:"token"`
	AdminIDs []int64 `yaml:"admin_ids"`
}

func (t TelegramConfig) Enabled() bool { return t.Token != "" }

// Admins returns the admin IDs as a set.
func (t TelegramConfig) Admins() map[int64]bool {
	m := make(map[int64]bool, len(t.AdminIDs))
	for _, id := range t.AdminIDs {
		m[id] = true
	}
	return m
}

type SyncConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

func defaults() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		Sheets: SheetsConfig{
			SheetName:       "Registrations",
			WritesPerSecond: 1,
		},
		SMTP: SMTPConfig{Port: 587},
		Sync: SyncConfig{MaxAttempts: 3, BaseDelay: time.Second},
	}
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. A missing file is not an error; the configuration
// then comes from the environment alone.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.BasePublicURL = strings.TrimRight(cfg.BasePublicURL, "/")

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"HTTP_ADDR":                    &cfg.HTTPAddr,
		"BASE_PUBLIC_URL":              &cfg.BasePublicURL,
		"LOG_LEVEL":                    &cfg.LogLevel,
		"CATALOG_PATH":                 &cfg.CatalogPath,
		"EXPORT_SECRET":                &cfg.ExportSecret,
		"ADMIN_TOKEN":                  &cfg.AdminToken,
		"DATABASE_URL":                 &cfg.Postgres.DSN,
		"GOOGLE_SHEETS_SPREADSHEET_ID": &cfg.Sheets.SpreadsheetID,
		"GOOGLE_SERVICE_ACCOUNT_JSON":  &cfg.Sheets.CredentialsFile,
		"GOOGLE_SHEETS_SHEET_NAME":     &cfg.Sheets.SheetName,
		"SMTP_HOST":                    &cfg.SMTP.Host,
		"SMTP_USERNAME":                &cfg.SMTP.Username,
		"SMTP_PASSWORD":                &cfg.SMTP.Password,
		"SMTP_FROM":                    &cfg.SMTP.From,
		"TELEGRAM_BOT_TOKEN":           &cfg.Telegram.Token,
	}
	for key, dst := range str {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(os.Getenv("SMTP_PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		cfg.SMTP.Port = p
	}
	if v := strings.TrimSpace(os.Getenv("SHEETS_WRITES_PER_SECOND")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SHEETS_WRITES_PER_SECOND: %w", err)
		}
		cfg.Sheets.WritesPerSecond = f
	}
	if v := strings.TrimSpace(os.Getenv("SYNC_MAX_ATTEMPTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SYNC_MAX_ATTEMPTS: %w", err)
		}
		cfg.Sync.MaxAttempts = n
	}
	if v := strings.TrimSpace(os.Getenv("SYNC_BASE_DELAY")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SYNC_BASE_DELAY: %w", err)
		}
		cfg.Sync.BaseDelay = d
	}
	if v := os.Getenv("ADMIN_TG_IDS"); strings.TrimSpace(v) != "" {
		cfg.Telegram.AdminIDs = parseAdminIDs(v)
	}
	return nil
}

func (c Config) validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	if c.ExportSecret == "" {
		return fmt.Errorf("EXPORT_SECRET is empty")
	}
	if c.Sheets.Enabled() && c.Sheets.CredentialsFile == "" {
		return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is empty")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return fmt.Errorf("SMTP_FROM is empty")
	}
	if c.Sync.MaxAttempts < 1 {
		return fmt.Errorf("sync max_attempts must be at least 1, got %d", c.Sync.MaxAttempts)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

func parseAdminIDs(raw string) []int64 {
	out := []int64{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
