// Package admission decides whether a registration attempt is accepted and
// persists the accepted ones.
package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"festreg/internal/metrics"
	"festreg/internal/models"
	"festreg/internal/store"
	"festreg/internal/validation"
)

var ErrInvalidStatus = errors.New("invalid status")

const ReasonRegistrationServerError = "Server error during registration"

type Status string

const (
	StatusAccepted Status = "accepted"
	StatusInvalid  Status = "invalid"
	StatusRejected Status = "rejected"
)

type Request struct {
	UserID           string                  `json:"userId"`
	GameID           string                  `json:"gameId"`
	RegistrationType models.RegistrationType `json:"registrationType"`
	TeamName         string                  `json:"teamName"`
	Leader           models.Participant      `json:"teamLeader"`
	Members          []models.Participant    `json:"teamMembers"`
}

// Outcome is exactly one of: an accepted Registration, field Errors, or a
// rejection Reason.
type Outcome struct {
	Status       Status                 `json:"status"`
	Registration *models.Registration   `json:"registration,omitempty"`
	Errors       validation.FieldErrors `json:"errors,omitempty"`
	Reason       string                 `json:"reason,omitempty"`
	Existing     *ExistingRegistration  `json:"existingRegistration,omitempty"`
}

type GameLookup interface {
	Get(id string) (models.Game, bool)
}

// Dispatcher receives stored registrations for best-effort propagation.
type Dispatcher interface {
	Dispatch(reg models.Registration)
	MirrorPaymentStatus(registrationID string, status models.PaymentStatus)
}

type Service struct {
	games      GameLookup
	store      store.Store
	controller *Controller
	dispatcher Dispatcher
	metrics    metrics.Recorder
	logger     *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(games GameLookup, st store.Store, dispatcher Dispatcher, logger *slog.Logger, rec metrics.Recorder) *Service {
	return &Service{
		games:      games,
		store:      st,
		controller: NewController(st, logger),
		dispatcher: dispatcher,
		metrics:    rec,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

func (s *Service) Controller() *Controller { return s.controller }

// Register runs the form checks, then the day-slot and limit checks, then
// inserts. Form errors are always reported before any slot conflict.
func (s *Service) Register(ctx context.Context, req Request) Outcome {
	out := s.register(ctx, req)
	s.metrics.AdmissionOutcome(string(out.Status))
	return out
}

func (s *Service) register(ctx context.Context, req Request) Outcome {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return invalid(validation.FieldErrors{"userId": "User is required"})
	}
	game, ok := s.games.Get(req.GameID)
	if !ok {
		return invalid(validation.FieldErrors{"gameId": "Unknown game"})
	}

	teamName := strings.TrimSpace(req.TeamName)
	if req.RegistrationType != models.RegistrationTeam {
		teamName = ""
	}
	if errs := validation.ValidateTeam(req.RegistrationType, teamName, req.Leader, req.Members, game); !errs.Empty() {
		return invalid(errs)
	}

	decision := s.controller.ValidateDayRegistration(ctx, userID, game.Day)
	if !decision.CanRegister {
		return Outcome{Status: StatusRejected, Reason: decision.Reason, Existing: decision.Existing}
	}

	limit, err := s.controller.CheckRegistrationLimit(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Registration limit check failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return rejected(ReasonServerError)
	}
	if limit.HasReachedLimit {
		return rejected(fmt.Sprintf("Registration limit of %d games reached", limit.Limit))
	}

	gameDay, _ := models.GameDayFor(game.Day)
	members := req.Members
	if members == nil {
		members = []models.Participant{}
	}
	reg := &models.Registration{
		ID:               s.newID(),
		UserID:           userID,
		GameID:           game.ID,
		GameName:         game.Name,
		GameDay:          gameDay,
		RegistrationType: req.RegistrationType,
		TeamName:         teamName,
		TeamLeader:       req.Leader,
		TeamMembers:      members,
		TotalFee:         game.TotalFee(len(members)),
		ApprovalStatus:   models.ApprovalPending,
		PaymentStatus:    models.PaymentPending,
		CreatedAt:        s.now(),
	}

	if err := s.store.Insert(ctx, reg); err != nil {
		if errors.Is(err, store.ErrDaySlotTaken) {
			s.logger.InfoContext(ctx, "Concurrent registration lost the day slot",
				slog.String("user_id", userID),
				slog.String("game_day", string(gameDay)))
			return s.slotTaken(ctx, userID, game.Day, gameDay)
		}
		s.logger.ErrorContext(ctx, "Failed to store registration",
			slog.String("user_id", userID),
			slog.String("game_id", game.ID),
			slog.Any("error", err))
		return rejected(ReasonRegistrationServerError)
	}

	s.logger.InfoContext(ctx, "Registration accepted",
		slog.String("registration_id", reg.ID),
		slog.String("user_id", userID),
		slog.String("game_id", game.ID),
		slog.String("game_day", string(gameDay)),
		slog.Int64("total_fee", reg.TotalFee))

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(*reg)
	}
	return Outcome{Status: StatusAccepted, Registration: reg}
}

// slotTaken builds the same rejection as the pre-insert check. The lookup of
// the winning record is best-effort.
func (s *Service) slotTaken(ctx context.Context, userID string, day int, gameDay models.GameDay) Outcome {
	out := rejected(reasonAlreadyRegistered(day))
	existing, err := s.store.FindByUserAndDay(ctx, userID, gameDay)
	if err == nil && existing != nil {
		out.Existing = occupied(day, existing).Existing
	}
	return out
}

func invalid(errs validation.FieldErrors) Outcome {
	return Outcome{Status: StatusInvalid, Errors: errs}
}

func rejected(reason string) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason}
}

func (s *Service) Get(ctx context.Context, id string) (*models.Registration, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListUserRegistrations(ctx context.Context, userID string) ([]models.Registration, error) {
	return s.store.FindByUser(ctx, userID)
}

func (s *Service) ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.Registration, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.store.ListByApproval(ctx, status)
}

func (s *Service) ListByDay(ctx context.Context, day models.GameDay) ([]models.Registration, error) {
	if day.DayNumber() == 0 {
		return nil, fmt.Errorf("invalid game day %q", day)
	}
	return s.store.ListByDay(ctx, day)
}

// SetApprovalStatus is the admin review step.
func (s *Service) SetApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.store.UpdateApprovalStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Registration approval updated",
		slog.String("registration_id", id),
		slog.String("approval_status", string(status)))
	return nil
}

// SetPaymentStatus records a payment result and mirrors it to the sheet.
func (s *Service) SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.store.UpdatePaymentStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Registration payment updated",
		slog.String("registration_id", id),
		slog.String("payment_status", string(status)))
	if s.dispatcher != nil {
		s.dispatcher.MirrorPaymentStatus(id, status)
	}
	return nil
}
