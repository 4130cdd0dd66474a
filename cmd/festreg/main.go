package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"festreg/internal/admission"
	"festreg/internal/catalog"
	"festreg/internal/config"
	"festreg/internal/metrics"
	"festreg/internal/notify"
	"festreg/internal/server"
	"festreg/internal/sheets"
	"festreg/internal/store/postgres"
	"festreg/internal/syncer"
	"festreg/internal/tgbot"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, logger); err != nil {
		logger.Error("festreg stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	games, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}

	db, err := postgres.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	st := postgres.New(db)

	prom := metrics.NewPrometheus()

	var sink syncer.Sink
	if cfg.Sheets.Enabled() {
		sink = sheets.New(sheets.Config{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			SheetName:       cfg.Sheets.SheetName,
			WritesPerSecond: cfg.Sheets.WritesPerSecond,
		}, logger.With(slog.String("component", "sheets")))
	} else {
		logger.Warn("Sheet sync disabled: no spreadsheet configured")
	}

	var notifier syncer.Notifier
	mailer := notify.New(notify.Config{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		From:      cfg.SMTP.From,
		PortalURL: cfg.BasePublicURL,
	}, logger.With(slog.String("component", "notify")))
	if mailer.Enabled() {
		notifier = mailer
	} else {
		logger.Warn("Welcome email disabled: no SMTP host configured")
	}

	dispatcher := syncer.New(sink, notifier, games,
		syncer.RetryPolicy{MaxAttempts: cfg.Sync.MaxAttempts, BaseDelay: cfg.Sync.BaseDelay},
		logger.With(slog.String("component", "syncer")), prom)

	svc := admission.NewService(games, st, dispatcher, logger.With(slog.String("component", "admission")), prom)

	if cfg.Telegram.Enabled() {
		var resync tgbot.Resyncer
		if sink != nil {
			resync = dispatcher
		}
		botApp, err := tgbot.New(tgbot.Config{
			Token:         cfg.Telegram.Token,
			Admins:        cfg.Telegram.Admins(),
			BasePublicURL: cfg.BasePublicURL,
			ExportSecret:  cfg.ExportSecret,
		}, svc, svc.Controller(), resync, logger.With(slog.String("component", "tgbot")))
		if err != nil {
			return err
		}
		dispatcher.SetAlerter(botApp)

		go func() {
			if err := botApp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Bot stopped", slog.Any("error", err))
			}
		}()
	}

	httpSrv := server.New(server.Config{
		Addr:         cfg.HTTPAddr,
		ExportSecret: cfg.ExportSecret,
		AdminToken:   cfg.AdminToken,
	}, svc, svc.Controller(), games, prom.Handler(), logger.With(slog.String("component", "http"))).HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info("Shutting down")
	case err := <-errCh:
		return err
	}

	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", slog.Any("error", err))
	}

	// Let in-flight sheet writes and emails finish.
	dispatcher.Wait()
	logger.Info("Bye")
	return nil
}
