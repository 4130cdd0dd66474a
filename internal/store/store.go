// Package store defines the registration persistence contract used by the
// admission core.
package store

import (
	"context"
	"errors"

	"festreg/internal/models"
)

var (
	// ErrNotFound indicates a registration does not exist.
	ErrNotFound = errors.New("registration not found")

	// ErrDaySlotTaken is returned by Insert when the user already holds a
	// registration for the same game day. It is the authoritative signal of
	// the one-registration-per-day rule.
	ErrDaySlotTaken = errors.New("day slot already registered")
)

// DayAggregate holds the counters of one game_day group.
type DayAggregate struct {
	GameDay   models.GameDay
	Total     int
	TotalFees int64
	Approved  int
	Pending   int
	Rejected  int
	Paid      int
	Games     []string
}

type Store interface {
	// FindByUserAndDay returns nil, nil when the slot is free.
	FindByUserAndDay(ctx context.Context, userID string, day models.GameDay) (*models.Registration, error)
	FindByUser(ctx context.Context, userID string) ([]models.Registration, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	// AggregateByDay groups every registration by its literal day tag.
	AggregateByDay(ctx context.Context) ([]DayAggregate, error)
	// Insert must reject a second registration for (UserID, GameDay)
	// atomically with ErrDaySlotTaken.
	Insert(ctx context.Context, reg *models.Registration) error

	Get(ctx context.Context, id string) (*models.Registration, error)
	ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.Registration, error)
	ListByDay(ctx context.Context, day models.GameDay) ([]models.Registration, error)
	UpdateApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
}
