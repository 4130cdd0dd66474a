package admission

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"festreg/internal/models"
	"festreg/internal/store"
)

// MaxRegistrationsPerUser is the cross-check on top of the day slots. It is
// never the only gate.
const MaxRegistrationsPerUser = 2

const (
	ReasonInvalidDay  = "Invalid game day"
	ReasonServerError = "Server error during validation"
)

func reasonAlreadyRegistered(day int) string {
	return fmt.Sprintf("Already registered for Day %d", day)
}

type ExistingRegistration struct {
	GameName         string    `json:"gameName"`
	RegistrationID   string    `json:"registrationId"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// DayDecision is the result of a day-slot check. A rejection always has a
// Reason.
type DayDecision struct {
	CanRegister bool                  `json:"canRegister"`
	Reason      string                `json:"reason,omitempty"`
	Existing    *ExistingRegistration `json:"existingRegistration,omitempty"`
}

// Controller enforces one registration per user per competition day.
type Controller struct {
	store  store.Store
	logger *slog.Logger
}

func NewController(st store.Store, logger *slog.Logger) *Controller {
	return &Controller{store: st, logger: logger}
}

// ValidateDayRegistration reports whether userID may register for day. Store
// failures reject.
func (c *Controller) ValidateDayRegistration(ctx context.Context, userID string, day int) DayDecision {
	gameDay, err := models.GameDayFor(day)
	if err != nil {
		return DayDecision{Reason: ReasonInvalidDay}
	}

	existing, err := c.store.FindByUserAndDay(ctx, userID, gameDay)
	if err != nil {
		c.logger.ErrorContext(ctx, "Day registration check failed",
			slog.String("user_id", userID),
			slog.String("game_day", string(gameDay)),
			slog.Any("error", err))
		return DayDecision{Reason: ReasonServerError}
	}
	if existing != nil {
		return occupied(day, existing)
	}
	return DayDecision{CanRegister: true}
}

func occupied(day int, reg *models.Registration) DayDecision {
	return DayDecision{
		Reason: reasonAlreadyRegistered(day),
		Existing: &ExistingRegistration{
			GameName:         reg.GameName,
			RegistrationID:   reg.ID,
			RegistrationDate: reg.CreatedAt,
		},
	}
}

type DaySlot struct {
	Occupied       bool   `json:"occupied"`
	GameName       string `json:"gameName,omitempty"`
	RegistrationID string `json:"registrationId,omitempty"`
}

type Summary struct {
	UserID             string                `json:"userId"`
	TotalRegistrations int                   `json:"totalRegistrations"`
	Day1               DaySlot               `json:"day1"`
	Day2               DaySlot               `json:"day2"`
	CanRegisterMore    bool                  `json:"canRegisterMore"`
	Registrations      []models.Registration `json:"registrations"`
}

func (c *Controller) GetUserRegistrationSummary(ctx context.Context, userID string) (Summary, error) {
	regs, err := c.store.FindByUser(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("registration summary for %s: %w", userID, err)
	}

	s := Summary{UserID: userID, TotalRegistrations: len(regs), Registrations: regs}
	for _, r := range regs {
		slot := DaySlot{Occupied: true, GameName: r.GameName, RegistrationID: r.ID}
		switch r.GameDay {
		case models.Day1:
			s.Day1 = slot
		case models.Day2:
			s.Day2 = slot
		}
	}
	s.CanRegisterMore = !s.Day1.Occupied || !s.Day2.Occupied
	return s, nil
}

type LimitStatus struct {
	RegistrationCount int  `json:"registrationCount"`
	Limit             int  `json:"limit"`
	HasReachedLimit   bool `json:"hasReachedLimit"`
}

func (c *Controller) CheckRegistrationLimit(ctx context.Context, userID string) (LimitStatus, error) {
	n, err := c.store.CountByUser(ctx, userID)
	if err != nil {
		return LimitStatus{}, fmt.Errorf("registration limit for %s: %w", userID, err)
	}
	return LimitStatus{
		RegistrationCount: n,
		Limit:             MaxRegistrationsPerUser,
		HasReachedLimit:   n >= MaxRegistrationsPerUser,
	}, nil
}

type DayStatistics struct {
	TotalRegistrations int      `json:"totalRegistrations"`
	TotalFees          int64    `json:"totalFees"`
	ApprovedCount      int      `json:"approvedCount"`
	PendingCount       int      `json:"pendingCount"`
	RejectedCount      int      `json:"rejectedCount"`
	PaidCount          int      `json:"paidCount"`
	UnpaidCount        int      `json:"unpaidCount"`
	Games              []string `json:"games"`
}

type OverallStatistics struct {
	TotalRegistrations int      `json:"totalRegistrations"`
	TotalFees          int64    `json:"totalFees"`
	TotalApproved      int      `json:"totalApproved"`
	TotalPending       int      `json:"totalPending"`
	TotalRejected      int      `json:"totalRejected"`
	TotalPaid          int      `json:"totalPaid"`
	TotalUnpaid        int      `json:"totalUnpaid"`
	Games              []string `json:"games"`
}

type Statistics struct {
	Day1    DayStatistics     `json:"day1"`
	Day2    DayStatistics     `json:"day2"`
	Overall OverallStatistics `json:"overall"`
}

// GetDayWiseStatistics buckets the store aggregates by their literal day
// tag. Groups tagged neither day1 nor day2 are dropped, not merged.
func (c *Controller) GetDayWiseStatistics(ctx context.Context) (Statistics, error) {
	aggs, err := c.store.AggregateByDay(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("day-wise statistics: %w", err)
	}

	st := Statistics{Day1: emptyDay(), Day2: emptyDay()}
	for _, a := range aggs {
		switch a.GameDay {
		case models.Day1:
			st.Day1 = dayStats(a)
		case models.Day2:
			st.Day2 = dayStats(a)
		default:
			c.logger.WarnContext(ctx, "Skipping registrations with unknown day tag",
				slog.String("game_day", string(a.GameDay)),
				slog.Int("count", a.Total))
		}
	}

	st.Overall = OverallStatistics{
		TotalRegistrations: st.Day1.TotalRegistrations + st.Day2.TotalRegistrations,
		TotalFees:          st.Day1.TotalFees + st.Day2.TotalFees,
		TotalApproved:      st.Day1.ApprovedCount + st.Day2.ApprovedCount,
		TotalPending:       st.Day1.PendingCount + st.Day2.PendingCount,
		TotalRejected:      st.Day1.RejectedCount + st.Day2.RejectedCount,
		TotalPaid:          st.Day1.PaidCount + st.Day2.PaidCount,
		TotalUnpaid:        st.Day1.UnpaidCount + st.Day2.UnpaidCount,
		Games:              unionSorted(st.Day1.Games, st.Day2.Games),
	}
	return st, nil
}

func emptyDay() DayStatistics {
	return DayStatistics{Games: []string{}}
}

func dayStats(a store.DayAggregate) DayStatistics {
	return DayStatistics{
		TotalRegistrations: a.Total,
		TotalFees:          a.TotalFees,
		ApprovedCount:      a.Approved,
		PendingCount:       a.Pending,
		RejectedCount:      a.Rejected,
		PaidCount:          a.Paid,
		UnpaidCount:        a.Total - a.Paid,
		Games:              unionSorted(a.Games),
	}
}

func unionSorted(lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, l := range lists {
		for _, g := range l {
			if seen[g] {
				continue
			}
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out
}
