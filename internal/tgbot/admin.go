package tgbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"festreg/internal/models"
	"festreg/internal/store"
	"festreg/internal/util"
)

const helpText = `Admin commands:
/stats - day-wise statistics
/pending - registrations awaiting review
/user <id> - a user's day slots
/export <day1|day2> - download links
/resync <day1|day2> - append missing rows to the sheet`

// pendingLimit caps the review queue per /pending call.
const pendingLimit = 20

func (a *App) showStats(ctx context.Context, chatID int64) error {
	st, err := a.stats.GetDayWiseStatistics(ctx)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, FormatStatistics(st))
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err = a.api.Send(msg)
	return err
}

func (a *App) showPending(ctx context.Context, chatID int64) error {
	regs, err := a.regs.ListByApproval(ctx, models.ApprovalPending)
	if err != nil {
		return err
	}
	if len(regs) == 0 {
		return a.SendText(chatID, "✅ No registrations awaiting review.")
	}
	if len(regs) > pendingLimit {
		if err := a.SendText(chatID, fmt.Sprintf("Showing %d of %d pending registrations.", pendingLimit, len(regs))); err != nil {
			return err
		}
		regs = regs[:pendingLimit]
	}
	for _, r := range regs {
		msg := tgbotapi.NewMessage(chatID, FormatRegistration(r))
		msg.ReplyMarkup = reviewKeyboard(r.ID)
		if _, err := a.api.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func reviewKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "a:approve:"+id),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", "a:reject:"+id),
		),
	)
}

func (a *App) showUser(ctx context.Context, chatID int64, userID string) error {
	if userID == "" {
		return a.SendText(chatID, "Usage: /user <id>")
	}
	s, err := a.stats.GetUserRegistrationSummary(ctx, userID)
	if err != nil {
		return err
	}
	return a.SendText(chatID, FormatSummary(s))
}

func (a *App) showExportLinks(chatID int64, arg string) error {
	day := models.GameDay(arg)
	if day.DayNumber() == 0 {
		return a.SendText(chatID, "Usage: /export <day1|day2>")
	}
	return a.SendText(chatID, fmt.Sprintf("📤 Day %d export:\nCSV: %s\nXLSX: %s",
		day.DayNumber(),
		a.exportURL(day, "csv"),
		a.exportURL(day, "xlsx")))
}

func (a *App) exportURL(day models.GameDay, ext string) string {
	token := util.HMACSHA256Hex(a.cfg.ExportSecret, "export:"+string(day))
	return fmt.Sprintf("%s/export/registrations.%s?day=%s&token=%s", a.cfg.BasePublicURL, ext, day, token)
}

func (a *App) runResync(ctx context.Context, chatID int64, arg string) error {
	day := models.GameDay(arg)
	if day.DayNumber() == 0 {
		return a.SendText(chatID, "Usage: /resync <day1|day2>")
	}
	if a.resync == nil {
		return a.SendText(chatID, "Sheet sync is not configured.")
	}
	regs, err := a.regs.ListByDay(ctx, day)
	if err != nil {
		return err
	}
	n, err := a.resync.Resync(ctx, regs)
	if err != nil {
		a.logger.ErrorContext(ctx, "Resync failed", slog.String("game_day", string(day)), slog.Any("error", err))
		return a.SendText(chatID, fmt.Sprintf("⚠️ Resync stopped after %d rows: %v", n, err))
	}
	return a.SendText(chatID, fmt.Sprintf("✅ Resync done: %d missing rows appended.", n))
}

func (a *App) handleAdminCallback(ctx context.Context, chatID int64, data string) error {
	// a:<action>:<registration id>
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		return nil
	}
	var status models.ApprovalStatus
	switch parts[1] {
	case "approve":
		status = models.ApprovalApproved
	case "reject":
		status = models.ApprovalRejected
	default:
		return nil
	}
	id := parts[2]

	if err := a.regs.SetApprovalStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return a.SendText(chatID, "Registration not found: "+id)
		}
		return err
	}
	return a.SendText(chatID, fmt.Sprintf("Registration %s marked %s.", id, status))
}
