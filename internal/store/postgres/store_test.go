package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"festreg/internal/models"
	"festreg/internal/store"
	"festreg/internal/store/postgres/migrations"
)

func setupStore(t *testing.T) (*Store, *bun.DB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("festreg"),
		tcpostgres.WithUsername("festreg"),
		tcpostgres.WithPassword("festreg"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return New(db), db
}

func newRegistration(userID string, day models.GameDay, game string, approval models.ApprovalStatus) *models.Registration {
	return &models.Registration{
		ID:               uuid.NewString(),
		UserID:           userID,
		GameID:           game,
		GameName:         game,
		GameDay:          day,
		RegistrationType: models.RegistrationIndividual,
		TeamLeader:       models.Participant{FullName: "Lead", Email: "lead@x.com"},
		TotalFee:         200,
		ApprovalStatus:   approval,
		PaymentStatus:    models.PaymentPending,
		CreatedAt:        time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestStoreDaySlotIsExclusiveUnderConcurrency(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Insert(ctx, newRegistration("user-1", models.Day1, fmt.Sprintf("game-%d", i), models.ApprovalPending))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, store.ErrDaySlotTaken):
				conflicts++
			default:
				t.Errorf("unexpected insert error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	n, err := s.CountByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Insert(ctx, newRegistration("user-1", models.Day2, "hackathon", models.ApprovalPending)))
	n, err = s.CountByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStoreQueries(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()

	a := newRegistration("u1", models.Day1, "Robo Race", models.ApprovalApproved)
	a.RegistrationType = models.RegistrationTeam
	a.TeamName = "Bots"
	a.TeamMembers = []models.Participant{{FullName: "M1", Email: "m1@x.com"}}
	b := newRegistration("u2", models.Day1, "Code Sprint", models.ApprovalPending)
	c := newRegistration("u1", models.Day2, "Hackathon", models.ApprovalApproved)
	for _, r := range []*models.Registration{a, b, c} {
		require.NoError(t, s.Insert(ctx, r))
	}

	got, err := s.FindByUserAndDay(ctx, "u1", models.Day1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "Bots", got.TeamName)
	assert.Equal(t, a.TeamMembers, got.TeamMembers)

	none, err := s.FindByUserAndDay(ctx, "u2", models.Day2)
	require.NoError(t, err)
	assert.Nil(t, none)

	list, err := s.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.Day1, list[0].GameDay)

	require.NoError(t, s.UpdatePaymentStatus(ctx, b.ID, models.PaymentPaid))
	require.NoError(t, s.UpdateApprovalStatus(ctx, b.ID, models.ApprovalRejected))
	assert.ErrorIs(t, s.UpdateApprovalStatus(ctx, uuid.NewString(), models.ApprovalApproved), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePaymentStatus(ctx, "not-a-uuid", models.PaymentPaid), store.ErrNotFound)

	fetched, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, fetched.PaymentStatus)
	assert.Equal(t, models.ApprovalRejected, fetched.ApprovalStatus)

	_, err = s.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	approved, err := s.ListByApproval(ctx, models.ApprovalApproved)
	require.NoError(t, err)
	assert.Len(t, approved, 2)

	day1, err := s.ListByDay(ctx, models.Day1)
	require.NoError(t, err)
	assert.Len(t, day1, 2)

	// A legacy row with an unknown day tag must surface as its own group.
	_, err = db.ExecContext(ctx, `INSERT INTO registrations
		(id, user_id, game_id, game_name, game_day, registration_type, team_leader, total_fee)
		VALUES (?, 'u3', 'old', 'Old Game', 'day3', 'individual', '{}'::jsonb, 50)`, uuid.NewString())
	require.NoError(t, err)

	aggs, err := s.AggregateByDay(ctx)
	require.NoError(t, err)
	byDay := map[models.GameDay]store.DayAggregate{}
	for _, agg := range aggs {
		byDay[agg.GameDay] = agg
	}
	require.Contains(t, byDay, models.Day1)
	assert.Equal(t, 2, byDay[models.Day1].Total)
	assert.Equal(t, int64(400), byDay[models.Day1].TotalFees)
	assert.Equal(t, 1, byDay[models.Day1].Approved)
	assert.Equal(t, 1, byDay[models.Day1].Rejected)
	assert.Equal(t, 1, byDay[models.Day1].Paid)
	assert.ElementsMatch(t, []string{"Robo Race", "Code Sprint"}, byDay[models.Day1].Games)
	assert.Equal(t, 1, byDay[models.GameDay("day3")].Total)
}
