// Package syncer propagates stored registrations to the spreadsheet and
// mails the welcome message. Everything here is best-effort: failures are
// retried, logged and counted, never returned to the admission path.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"festreg/internal/export"
	"festreg/internal/metrics"
	"festreg/internal/models"
	"festreg/internal/notify"
)

type Sink interface {
	EnsureInitialized(ctx context.Context) error
	AppendRow(ctx context.Context, row []string) (int, error)
	UpdatePaymentStatus(ctx context.Context, registrationID string, status models.PaymentStatus) error
	RegistrationIDs(ctx context.Context) (map[string]bool, error)
}

type Notifier interface {
	SendWelcomeEmail(ctx context.Context, p models.Participant, password string) (string, error)
}

type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// RetryPolicy bounds the attempts at an external write. The delay after the
// n-th failure is BaseDelay * 2^(n-1).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Delay returns the wait after failed attempt n (1-based).
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	return p.BaseDelay << (n - 1)
}

// Result describes one AppendRegistrationRow call. Attempt is the attempt
// that succeeded; Attempts is how many were made.
type Result struct {
	Success   bool
	RowNumber int
	Attempt   int
	Attempts  int
	Err       error
}

type Dispatcher struct {
	sink     Sink
	notifier Notifier
	alerter  Alerter
	games    export.GameLookup
	policy   RetryPolicy
	metrics  metrics.Recorder
	logger   *slog.Logger

	sleep    func(time.Duration)
	password func() (string, error)

	wg sync.WaitGroup
}

type Option func(*Dispatcher)

func WithSleep(sleep func(time.Duration)) Option {
	return func(d *Dispatcher) { d.sleep = sleep }
}

func WithPasswordGenerator(gen func() (string, error)) Option {
	return func(d *Dispatcher) { d.password = gen }
}

func WithAlerter(a Alerter) Option {
	return func(d *Dispatcher) { d.alerter = a }
}

// SetAlerter attaches an alerter after construction. It must be called before
// the first Dispatch.
func (d *Dispatcher) SetAlerter(a Alerter) { d.alerter = a }

// New builds a dispatcher. A nil sink or notifier disables that half of the
// dispatch.
func New(sink Sink, notifier Notifier, games export.GameLookup, policy RetryPolicy, logger *slog.Logger, rec metrics.Recorder, opts ...Option) *Dispatcher {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	d := &Dispatcher{
		sink:     sink,
		notifier: notifier,
		games:    games,
		policy:   policy,
		metrics:  rec,
		logger:   logger,
		sleep:    time.Sleep,
		password: notify.GeneratePassword,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AppendRegistrationRow writes reg to the sink with bounded retries. It
// never returns an error; the outcome is in the Result.
func (d *Dispatcher) AppendRegistrationRow(ctx context.Context, reg models.Registration) Result {
	row := export.Row(reg, d.games)
	res := Result{}

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		res.Attempts = attempt
		d.metrics.SyncAttempt()

		rowNumber, err := d.appendOnce(ctx, row)
		if err == nil {
			res.Success = true
			res.RowNumber = rowNumber
			res.Attempt = attempt
			res.Err = nil
			d.logger.InfoContext(ctx, "Registration synced to sheet",
				slog.String("registration_id", reg.ID),
				slog.Int("row", rowNumber),
				slog.Int("attempt", attempt))
			return res
		}

		res.Err = err
		d.logger.WarnContext(ctx, "Sheet append attempt failed",
			slog.String("registration_id", reg.ID),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", d.policy.MaxAttempts),
			slog.Any("error", err))

		if attempt < d.policy.MaxAttempts {
			d.sleep(d.policy.Delay(attempt))
		}
	}

	d.logger.ErrorContext(ctx, "Sheet sync gave up",
		slog.String("registration_id", reg.ID),
		slog.Int("attempts", res.Attempts),
		slog.Any("error", res.Err))
	return res
}

func (d *Dispatcher) appendOnce(ctx context.Context, row []string) (rowNumber int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	if err := d.sink.EnsureInitialized(ctx); err != nil {
		return 0, fmt.Errorf("initialize sink: %w", err)
	}
	return d.sink.AppendRow(ctx, row)
}

// Dispatch starts the sheet sync and the welcome email for a stored
// registration and returns immediately.
func (d *Dispatcher) Dispatch(reg models.Registration) {
	ctx := context.Background()

	if d.sink != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			res := d.AppendRegistrationRow(ctx, reg)
			d.metrics.SyncResult(res.Success)
			if res.Success {
				d.alert(ctx, newRegistrationAlert(reg))
			} else {
				d.alert(ctx, syncFailedAlert(reg, res))
			}
		}()
	} else if d.alerter != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.alert(ctx, newRegistrationAlert(reg))
		}()
	}

	if d.notifier != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.sendWelcome(ctx, reg)
		}()
	}
}

func (d *Dispatcher) sendWelcome(ctx context.Context, reg models.Registration) {
	password, err := d.password()
	if err != nil {
		d.metrics.EmailResult(false)
		d.logger.ErrorContext(ctx, "Could not generate welcome password",
			slog.String("registration_id", reg.ID),
			slog.Any("error", err))
		return
	}

	id, err := d.notifier.SendWelcomeEmail(ctx, reg.TeamLeader, password)
	d.metrics.EmailResult(err == nil)
	if err != nil {
		d.logger.ErrorContext(ctx, "Welcome email failed",
			slog.String("registration_id", reg.ID),
			slog.Any("error", err))
		return
	}
	d.logger.InfoContext(ctx, "Welcome email sent",
		slog.String("registration_id", reg.ID),
		slog.String("message_id", id))
}

// MirrorPaymentStatus copies a payment change to the sheet in the background.
func (d *Dispatcher) MirrorPaymentStatus(registrationID string, status models.PaymentStatus) {
	if d.sink == nil {
		return
	}
	ctx := context.Background()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
			err := d.updateOnce(ctx, registrationID, status)
			if err == nil {
				d.logger.InfoContext(ctx, "Payment status mirrored to sheet",
					slog.String("registration_id", registrationID),
					slog.String("payment_status", string(status)))
				return
			}
			d.logger.WarnContext(ctx, "Payment status mirror failed",
				slog.String("registration_id", registrationID),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			if attempt < d.policy.MaxAttempts {
				d.sleep(d.policy.Delay(attempt))
			}
		}
	}()
}

func (d *Dispatcher) updateOnce(ctx context.Context, registrationID string, status models.PaymentStatus) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	if err := d.sink.EnsureInitialized(ctx); err != nil {
		return fmt.Errorf("initialize sink: %w", err)
	}
	return d.sink.UpdatePaymentStatus(ctx, registrationID, status)
}

// Resync appends every registration in regs that the sheet is missing, in
// order, and returns how many rows were written.
func (d *Dispatcher) Resync(ctx context.Context, regs []models.Registration) (int, error) {
	if d.sink == nil {
		return 0, fmt.Errorf("no sheet configured")
	}
	if err := d.sink.EnsureInitialized(ctx); err != nil {
		return 0, fmt.Errorf("initialize sink: %w", err)
	}
	present, err := d.sink.RegistrationIDs(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, reg := range regs {
		if present[reg.ID] {
			continue
		}
		res := d.AppendRegistrationRow(ctx, reg)
		d.metrics.SyncResult(res.Success)
		if !res.Success {
			return written, fmt.Errorf("resync %s: %w", reg.ID, res.Err)
		}
		written++
	}
	d.logger.InfoContext(ctx, "Sheet resync finished",
		slog.Int("checked", len(regs)),
		slog.Int("appended", written))
	return written, nil
}

// Wait blocks until every background dispatch has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) alert(ctx context.Context, text string) {
	if d.alerter == nil {
		return
	}
	if err := d.alerter.Alert(ctx, text); err != nil {
		d.logger.WarnContext(ctx, "Admin alert failed", slog.Any("error", err))
	}
}

func newRegistrationAlert(reg models.Registration) string {
	who := reg.TeamLeader.FullName
	if reg.RegistrationType == models.RegistrationTeam {
		who = fmt.Sprintf("team %s (%s)", reg.TeamName, reg.TeamLeader.FullName)
	}
	return fmt.Sprintf("New registration: %s, %s, Day %d, fee %d\nID: %s",
		reg.GameName, who, reg.GameDay.DayNumber(), reg.TotalFee, reg.ID)
}

func syncFailedAlert(reg models.Registration, res Result) string {
	return fmt.Sprintf("Sheet sync failed after %d attempts for registration %s (%s): %v",
		res.Attempts, reg.ID, reg.GameName, res.Err)
}
