package admission

import (
	"context"
	"sort"
	"sync"

	"festreg/internal/models"
	"festreg/internal/store"
)

// ------------------------
// Fake Store
// ------------------------

// FakeStore keeps registrations in memory and enforces the (user, day)
// uniqueness inside Insert, like the real unique index. Any *Func hook
// overrides the default behaviour.
type FakeStore struct {
	mu    sync.Mutex
	regs  []models.Registration
	trace []string

	FindByUserAndDayFunc func(ctx context.Context, userID string, day models.GameDay) (*models.Registration, error)
	FindByUserFunc       func(ctx context.Context, userID string) ([]models.Registration, error)
	CountByUserFunc      func(ctx context.Context, userID string) (int, error)
	AggregateByDayFunc   func(ctx context.Context) ([]store.DayAggregate, error)
	InsertFunc           func(ctx context.Context, reg *models.Registration) error
}

func NewFakeStore(regs ...models.Registration) *FakeStore {
	return &FakeStore{regs: regs}
}

func (f *FakeStore) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeStore) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeStore) FindByUserAndDay(ctx context.Context, userID string, day models.GameDay) (*models.Registration, error) {
	f.mu.Lock()
	f.record("FindByUserAndDay")
	f.mu.Unlock()
	if f.FindByUserAndDayFunc != nil {
		return f.FindByUserAndDayFunc(ctx, userID, day)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if r.UserID == userID && r.GameDay == day {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (f *FakeStore) FindByUser(ctx context.Context, userID string) ([]models.Registration, error) {
	f.mu.Lock()
	f.record("FindByUser")
	f.mu.Unlock()
	if f.FindByUserFunc != nil {
		return f.FindByUserFunc(ctx, userID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Registration
	for _, r := range f.regs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FakeStore) CountByUser(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	f.record("CountByUser")
	f.mu.Unlock()
	if f.CountByUserFunc != nil {
		return f.CountByUserFunc(ctx, userID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.regs {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *FakeStore) AggregateByDay(ctx context.Context) ([]store.DayAggregate, error) {
	if f.AggregateByDayFunc != nil {
		return f.AggregateByDayFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	byDay := map[models.GameDay]*store.DayAggregate{}
	games := map[models.GameDay]map[string]bool{}
	for _, r := range f.regs {
		a, ok := byDay[r.GameDay]
		if !ok {
			a = &store.DayAggregate{GameDay: r.GameDay}
			byDay[r.GameDay] = a
			games[r.GameDay] = map[string]bool{}
		}
		a.Total++
		a.TotalFees += r.TotalFee
		switch r.ApprovalStatus {
		case models.ApprovalApproved:
			a.Approved++
		case models.ApprovalPending:
			a.Pending++
		case models.ApprovalRejected:
			a.Rejected++
		}
		if r.PaymentStatus == models.PaymentPaid {
			a.Paid++
		}
		if !games[r.GameDay][r.GameName] {
			games[r.GameDay][r.GameName] = true
			a.Games = append(a.Games, r.GameName)
		}
	}
	out := make([]store.DayAggregate, 0, len(byDay))
	for _, a := range byDay {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameDay < out[j].GameDay })
	return out, nil
}

func (f *FakeStore) Insert(ctx context.Context, reg *models.Registration) error {
	f.mu.Lock()
	f.record("Insert")
	f.mu.Unlock()
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, reg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if r.UserID == reg.UserID && r.GameDay == reg.GameDay {
			return store.ErrDaySlotTaken
		}
	}
	f.regs = append(f.regs, *reg)
	return nil
}

func (f *FakeStore) Get(ctx context.Context, id string) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *FakeStore) ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Registration
	for _, r := range f.regs {
		if r.ApprovalStatus == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FakeStore) ListByDay(ctx context.Context, day models.GameDay) ([]models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Registration
	for _, r := range f.regs {
		if r.GameDay == day {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FakeStore) UpdateApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error {
	return f.update(id, func(r *models.Registration) { r.ApprovalStatus = status })
}

func (f *FakeStore) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	return f.update(id, func(r *models.Registration) { r.PaymentStatus = status })
}

func (f *FakeStore) update(id string, fn func(*models.Registration)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.regs {
		if f.regs[i].ID == id {
			fn(&f.regs[i])
			return nil
		}
	}
	return store.ErrNotFound
}

// ------------------------
// Fake Dispatcher
// ------------------------

type FakeDispatcher struct {
	mu         sync.Mutex
	dispatched []models.Registration
	mirrored   map[string]models.PaymentStatus
}

func (d *FakeDispatcher) Dispatch(reg models.Registration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, reg)
}

func (d *FakeDispatcher) MirrorPaymentStatus(id string, status models.PaymentStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mirrored == nil {
		d.mirrored = map[string]models.PaymentStatus{}
	}
	d.mirrored[id] = status
}

func (d *FakeDispatcher) Dispatched() []models.Registration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Registration(nil), d.dispatched...)
}

// ------------------------
// Fake catalog
// ------------------------

type fakeGames map[string]models.Game

func (g fakeGames) Get(id string) (models.Game, bool) {
	game, ok := g[id]
	return game, ok
}
