package tgbot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"festreg/internal/admission"
	"festreg/internal/export"
	"festreg/internal/models"
)

// FormatStatistics renders st as Markdown. Game names are escaped.
func FormatStatistics(st admission.Statistics) string {
	var b strings.Builder
	b.WriteString("📊 *Registrations*\n")
	writeDay(&b, "Day 1", st.Day1)
	writeDay(&b, "Day 2", st.Day2)
	o := st.Overall
	fmt.Fprintf(&b, "\n*Overall*: %d registrations, fees %d\n", o.TotalRegistrations, o.TotalFees)
	fmt.Fprintf(&b, "approved %d, pending %d, rejected %d\n", o.TotalApproved, o.TotalPending, o.TotalRejected)
	fmt.Fprintf(&b, "paid %d, unpaid %d\n", o.TotalPaid, o.TotalUnpaid)
	return b.String()
}

func writeDay(b *strings.Builder, label string, d admission.DayStatistics) {
	fmt.Fprintf(b, "\n*%s*: %d registrations, fees %d\n", label, d.TotalRegistrations, d.TotalFees)
	fmt.Fprintf(b, "approved %d, pending %d, rejected %d\n", d.ApprovedCount, d.PendingCount, d.RejectedCount)
	fmt.Fprintf(b, "paid %d, unpaid %d\n", d.PaidCount, d.UnpaidCount)
	if len(d.Games) > 0 {
		names := make([]string, len(d.Games))
		for i, g := range d.Games {
			names[i] = tgbotapi.EscapeText(tgbotapi.ModeMarkdown, g)
		}
		fmt.Fprintf(b, "games: %s\n", strings.Join(names, ", "))
	}
}

func FormatRegistration(r models.Registration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎮 %s (Day %d)\n", r.GameName, r.GameDay.DayNumber())
	if r.RegistrationType == models.RegistrationTeam {
		fmt.Fprintf(&b, "Team: %s\n", r.TeamName)
	}
	fmt.Fprintf(&b, "Leader: %s <%s>, %s\n", r.TeamLeader.FullName, r.TeamLeader.Email, r.TeamLeader.CollegeName)
	if len(r.TeamMembers) > 0 {
		fmt.Fprintf(&b, "Members: %s\n", export.Members(r.TeamMembers))
	}
	fmt.Fprintf(&b, "Fee: %d, payment %s\n", r.TotalFee, r.PaymentStatus)
	fmt.Fprintf(&b, "ID: %s", r.ID)
	return b.String()
}

func FormatSummary(s admission.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 User %s: %d of %d registrations\n", s.UserID, s.TotalRegistrations, admission.MaxRegistrationsPerUser)
	fmt.Fprintf(&b, "Day 1: %s\n", slotText(s.Day1))
	fmt.Fprintf(&b, "Day 2: %s\n", slotText(s.Day2))
	if s.CanRegisterMore {
		b.WriteString("Can register for more games.")
	} else {
		b.WriteString("Both days taken.")
	}
	return b.String()
}

func slotText(s admission.DaySlot) string {
	if !s.Occupied {
		return "open"
	}
	return fmt.Sprintf("%s (%s)", s.GameName, s.RegistrationID)
}
