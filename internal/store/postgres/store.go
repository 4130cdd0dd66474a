// Package postgres implements store.Store on PostgreSQL with bun.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"festreg/internal/models"
	"festreg/internal/store"
)

const uniqueViolation = "23505"

// UserDayConstraint is the unique constraint backing the day-slot rule.
const UserDayConstraint = "registrations_user_day_key"

type Store struct {
	db bun.IDB
}

var _ store.Store = (*Store)(nil)

func New(db bun.IDB) *Store {
	return &Store{db: db}
}

// Connect opens a pooled bun.DB for dsn and pings it.
func Connect(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func (s *Store) FindByUserAndDay(ctx context.Context, userID string, day models.GameDay) (*models.Registration, error) {
	row := new(Registration)
	err := s.db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Where("game_day = ?", string(day)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find registration by user and day: %w", err)
	}
	reg := row.toModel()
	return &reg, nil
}

func (s *Store) FindByUser(ctx context.Context, userID string) ([]models.Registration, error) {
	var rows []Registration
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("game_day ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for user: %w", err)
	}
	return toModels(rows), nil
}

func (s *Store) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := s.db.NewSelect().
		Model((*Registration)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations for user: %w", err)
	}
	return n, nil
}

func (s *Store) AggregateByDay(ctx context.Context) ([]store.DayAggregate, error) {
	var rows []dayAggregate
	err := s.db.NewSelect().
		TableExpr("registrations").
		ColumnExpr("game_day").
		ColumnExpr("count(*) AS total").
		ColumnExpr("coalesce(sum(total_fee), 0) AS total_fees").
		ColumnExpr("count(*) FILTER (WHERE approval_status = ?) AS approved", string(models.ApprovalApproved)).
		ColumnExpr("count(*) FILTER (WHERE approval_status = ?) AS pending", string(models.ApprovalPending)).
		ColumnExpr("count(*) FILTER (WHERE approval_status = ?) AS rejected", string(models.ApprovalRejected)).
		ColumnExpr("count(*) FILTER (WHERE payment_status = ?) AS paid", string(models.PaymentPaid)).
		ColumnExpr("array_agg(DISTINCT game_name) AS games").
		GroupExpr("game_day").
		OrderExpr("game_day").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate registrations by day: %w", err)
	}

	out := make([]store.DayAggregate, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.DayAggregate{
			GameDay:   models.GameDay(r.GameDay),
			Total:     r.Total,
			TotalFees: r.TotalFees,
			Approved:  r.Approved,
			Pending:   r.Pending,
			Rejected:  r.Rejected,
			Paid:      r.Paid,
			Games:     r.Games,
		})
	}
	return out, nil
}

// Insert relies on the (user_id, game_day) unique constraint; a concurrent
// duplicate fails here rather than in any earlier read.
func (s *Store) Insert(ctx context.Context, reg *models.Registration) error {
	row := fromModel(reg)
	if _, err := s.db.NewInsert().Model(row).Returning("created_at").Exec(ctx); err != nil {
		if isUserDayViolation(err) {
			return store.ErrDaySlotTaken
		}
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	reg.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Registration, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}
	row := new(Registration)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	reg := row.toModel()
	return &reg, nil
}

func (s *Store) ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.Registration, error) {
	var rows []Registration
	err := s.db.NewSelect().
		Model(&rows).
		Where("approval_status = ?", string(status)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by approval: %w", err)
	}
	return toModels(rows), nil
}

func (s *Store) ListByDay(ctx context.Context, day models.GameDay) ([]models.Registration, error) {
	var rows []Registration
	err := s.db.NewSelect().
		Model(&rows).
		Where("game_day = ?", string(day)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by day: %w", err)
	}
	return toModels(rows), nil
}

func (s *Store) UpdateApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error {
	return s.updateColumn(ctx, id, "approval_status", string(status))
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	return s.updateColumn(ctx, id, "payment_status", string(status))
}

func (s *Store) updateColumn(ctx context.Context, id, column, value string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	res, err := s.db.NewUpdate().
		Model((*Registration)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func toModels(rows []Registration) []models.Registration {
	out := make([]models.Registration, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out
}

func isUserDayViolation(err error) bool {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Field('C') != uniqueViolation {
		return false
	}
	constraint := pgErr.Field('n')
	return constraint == "" || constraint == UserDayConstraint
}
