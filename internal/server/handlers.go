package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"festreg/internal/admission"
	"festreg/internal/export"
	"festreg/internal/models"
	"festreg/internal/store"
	"festreg/internal/util"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.ErrorContext(r.Context(), msg,
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games := s.games.List()
	if day := r.URL.Query().Get("day"); day != "" {
		n, err := strconv.Atoi(day)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be 1 or 2")
			return
		}
		filtered := []models.Game{}
		for _, g := range games {
			if g.Day == n {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}
	writeJSON(w, http.StatusOK, games)
}

// handleRegister maps outcomes to 201 (accepted), 422 (field errors) and 409
// (day slot, limit or store rejection).
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req admission.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out := s.regs.Register(r.Context(), req)
	switch out.Status {
	case admission.StatusAccepted:
		writeJSON(w, http.StatusCreated, out)
	case admission.StatusInvalid:
		writeJSON(w, http.StatusUnprocessableEntity, out)
	default:
		writeJSON(w, http.StatusConflict, out)
	}
}

func (s *Server) handleUserRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := s.regs.ListUserRegistrations(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.internalError(w, r, "List user registrations failed", err)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

func (s *Server) handleUserSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.admission.GetUserRegistrationSummary(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.internalError(w, r, "Registration summary failed", err)
		return
	}
	if summary.Registrations == nil {
		summary.Registrations = []models.Registration{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleUserLimit(w http.ResponseWriter, r *http.Request) {
	limit, err := s.admission.CheckRegistrationLimit(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.internalError(w, r, "Registration limit check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, limit)
}

// handleDayCheck always answers 200; a non-numeric day is passed through as 0
// and comes back as an invalid-day decision.
func (s *Server) handleDayCheck(w http.ResponseWriter, r *http.Request) {
	day, _ := strconv.Atoi(chi.URLParam(r, "day"))
	writeJSON(w, http.StatusOK, s.admission.ValidateDayRegistration(r.Context(), chi.URLParam(r, "userID"), day))
}

func (s *Server) handleDayStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.admission.GetDayWiseStatistics(r.Context())
	if err != nil {
		s.internalError(w, r, "Day-wise statistics failed", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) decodeStatus(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body statusRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return "", false
	}
	return body.Status, true
}

func (s *Server) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	status, ok := s.decodeStatus(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	s.writeUpdateResult(w, r, id, s.regs.SetApprovalStatus(r.Context(), id, models.ApprovalStatus(status)))
}

func (s *Server) handleSetPayment(w http.ResponseWriter, r *http.Request) {
	status, ok := s.decodeStatus(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	s.writeUpdateResult(w, r, id, s.regs.SetPaymentStatus(r.Context(), id, models.PaymentStatus(status)))
}

func (s *Server) writeUpdateResult(w http.ResponseWriter, r *http.Request, id string, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "registrationId": id, "ts": util.NowISO()})
	case errors.Is(err, admission.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "registration not found")
	default:
		s.internalError(w, r, "Status update failed", err)
	}
}

type exportFormat struct {
	ext         string
	contentType string
	write       func(w io.Writer, regs []models.Registration, games export.GameLookup) error
}

var (
	exportCSV  = exportFormat{"csv", "text/csv; charset=utf-8", export.WriteCSV}
	exportXLSX = exportFormat{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteXLSX}
)

// handleExport serves a day's registrations behind an HMAC link token
// (see util.HMACSHA256Hex over "export:<day>").
func (s *Server) handleExport(f exportFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := models.GameDay(r.URL.Query().Get("day"))
		token := r.URL.Query().Get("token")
		if day == "" || token == "" {
			writeError(w, http.StatusBadRequest, "day and token required")
			return
		}
		if !util.ValidHMAC(s.cfg.ExportSecret, "export:"+string(day), token) {
			writeError(w, http.StatusForbidden, "invalid token")
			return
		}
		if day.DayNumber() == 0 {
			writeError(w, http.StatusBadRequest, "day must be day1 or day2")
			return
		}

		regs, err := s.regs.ListByDay(r.Context(), day)
		if err != nil {
			s.internalError(w, r, "Export query failed", err)
			return
		}
		w.Header().Set("Content-Type", f.contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="registrations_%s.%s"`, day, f.ext))
		if err := f.write(w, regs, s.games); err != nil {
			s.logger.ErrorContext(r.Context(), "Export write failed",
				slog.String("game_day", string(day)),
				slog.Any("error", err))
		}
	}
}
