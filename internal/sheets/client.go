package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
	// WritesPerSecond throttles appends and updates; zero disables it.
	WritesPerSecond float64
}

// Client is a lazily connected Google Sheets sink. The service is created on
// the first EnsureInitialized call and kept for the process lifetime.
type Client struct {
	spreadsheetID string
	sheet         string
	limiter       *rate.Limiter
	logger        *slog.Logger
	newService    func(ctx context.Context) (*sheetsv4.Service, error)

	mu  sync.Mutex
	srv *sheetsv4.Service
}

// New prepares a client. Without extra options it authenticates with the
// service account file from cfg.
func New(cfg Config, logger *slog.Logger, opts ...option.ClientOption) *Client {
	limit := rate.Inf
	if cfg.WritesPerSecond > 0 {
		limit = rate.Limit(cfg.WritesPerSecond)
	}
	sheet := cfg.SheetName
	if sheet == "" {
		sheet = "Registrations"
	}

	c := &Client{
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         sheet,
		limiter:       rate.NewLimiter(limit, 1),
		logger:        logger,
	}
	c.newService = func(ctx context.Context) (*sheetsv4.Service, error) {
		if len(opts) == 0 {
			if _, err := os.Stat(cfg.CredentialsFile); err != nil {
				return nil, fmt.Errorf("service account json: %w", err)
			}
			opts = []option.ClientOption{
				option.WithCredentialsFile(cfg.CredentialsFile),
				option.WithScopes(sheetsv4.SpreadsheetsScope),
			}
		}
		return sheetsv4.NewService(ctx, opts...)
	}
	return c
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// EnsureInitialized connects and checks the header row. Concurrent callers
// wait for the one in flight; a failed attempt leaves the client
// uninitialized so the next call tries again.
func (c *Client) EnsureInitialized(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.srv != nil {
		return nil
	}

	srv, err := c.newService(ctx)
	if err != nil {
		return fmt.Errorf("sheets service: %w", err)
	}
	if err := c.ensureHeader(ctx, srv); err != nil {
		return err
	}
	c.srv = srv
	c.logger.InfoContext(ctx, "Sheets sink initialized",
		slog.String("spreadsheet_id", c.spreadsheetID),
		slog.String("sheet", c.sheet))
	return nil
}

func (c *Client) service() (*sheetsv4.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.srv == nil {
		return nil, fmt.Errorf("sheets client not initialized")
	}
	return c.srv, nil
}
