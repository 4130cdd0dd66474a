// Package tgbot is the organisers' Telegram bot: statistics, the review queue
// and alerts about new registrations and failed syncs.
package tgbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"festreg/internal/admission"
	"festreg/internal/models"
)

// Registrations is the admin side of the registration service.
type Registrations interface {
	Get(ctx context.Context, id string) (*models.Registration, error)
	ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.Registration, error)
	ListByDay(ctx context.Context, day models.GameDay) ([]models.Registration, error)
	SetApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error
}

type Statistics interface {
	GetDayWiseStatistics(ctx context.Context) (admission.Statistics, error)
	GetUserRegistrationSummary(ctx context.Context, userID string) (admission.Summary, error)
}

type Resyncer interface {
	Resync(ctx context.Context, regs []models.Registration) (int, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Config struct {
	Token         string
	Admins        map[int64]bool
	BasePublicURL string
	ExportSecret  string
}

type App struct {
	cfg    Config
	bot    *tgbotapi.BotAPI
	api    sender
	regs   Registrations
	stats  Statistics
	resync Resyncer
	logger *slog.Logger
}

func New(cfg Config, regs Registrations, stats Statistics, resync Resyncer, logger *slog.Logger) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	a := newApp(cfg, b, regs, stats, resync, logger)
	a.bot = b
	return a, nil
}

func newApp(cfg Config, api sender, regs Registrations, stats Statistics, resync Resyncer, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		api:    api,
		regs:   regs,
		stats:  stats,
		resync: resync,
		logger: logger,
	}
}

func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)
	defer a.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			a.handleUpdate(ctx, upd)
		}
	}
}

func (a *App) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		if err := a.handleMessage(ctx, upd.Message); err != nil {
			a.logger.ErrorContext(ctx, "Handle message failed", slog.Any("error", err))
		}
	} else if upd.CallbackQuery != nil {
		if err := a.handleCallback(ctx, upd.CallbackQuery); err != nil {
			a.logger.ErrorContext(ctx, "Handle callback failed", slog.Any("error", err))
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := a.api.Send(msg)
	return err
}

func (a *App) isAdmin(tgID int64) bool {
	return a.cfg.Admins[tgID]
}

// Alert sends text to every admin. It returns the joined delivery errors.
func (a *App) Alert(ctx context.Context, text string) error {
	var errs []error
	for id := range a.cfg.Admins {
		if err := a.SendText(id, "🔔 "+text); err != nil {
			errs = append(errs, fmt.Errorf("alert admin %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.From == nil {
		return nil
	}
	chatID := m.Chat.ID
	if !a.isAdmin(m.From.ID) {
		return a.SendText(chatID, "⛔ Access denied.")
	}
	if !m.IsCommand() {
		return a.SendText(chatID, helpText)
	}

	args := strings.TrimSpace(m.CommandArguments())
	switch m.Command() {
	case "start", "help":
		return a.SendText(chatID, helpText)
	case "stats":
		return a.showStats(ctx, chatID)
	case "pending":
		return a.showPending(ctx, chatID)
	case "user":
		return a.showUser(ctx, chatID, args)
	case "export":
		return a.showExportLinks(chatID, args)
	case "resync":
		return a.runResync(ctx, chatID, args)
	default:
		return a.SendText(chatID, "Unknown command.\n\n"+helpText)
	}
}

// ---------- Callback handling ----------

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	// ack
	cb := tgbotapi.NewCallback(q.ID, "")
	_, _ = a.api.Request(cb)

	if q.From == nil || q.Message == nil {
		return nil
	}
	chatID := q.Message.Chat.ID
	if !strings.HasPrefix(q.Data, "a:") {
		return nil
	}
	if !a.isAdmin(q.From.ID) {
		return a.SendText(chatID, "⛔ Access denied.")
	}
	return a.handleAdminCallback(ctx, chatID, q.Data)
}
