package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/internal/config"
	"github.com/jakechorley/shift-ledger/pkg/auth"
	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/core/services"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// Handler holds the dependencies shared by all endpoints
type Handler struct {
	store    db.Database
	cfg      *config.Config
	verifier auth.Verifier
	sessions *SessionStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewHandler(store db.Database, cfg *config.Config, verifier auth.Verifier, logger *zap.Logger) *Handler {
	return &Handler{
		store:    store,
		cfg:      cfg,
		verifier: verifier,
		sessions: NewSessionStore(cfg.HTTP.SessionIdle),
		logger:   logger,
		now:      time.Now,
	}
}

type ctxKey int

const (
	tokenKey ctxKey = iota
	identityKey
)

// authenticate resolves the bearer token and rejects anonymous callers
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Missing or malformed bearer token", nil)
			return
		}

		var identity model.Identity
		err = h.sessions.Do(token, func(s *model.Session) error {
			var err error
			identity, err = s.RequireAuthenticated()
			return err
		})
		if err != nil {
			writeModelError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), tokenKey, token)
		ctx = context.WithValue(ctx, identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin must run after authenticate
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identityFrom(r).IsAdmin() {
			writeModelError(w, model.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (uuid.UUID, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return uuid.Nil, errors.New("no bearer token")
	}
	return uuid.Parse(strings.TrimSpace(raw))
}

func identityFrom(r *http.Request) model.Identity {
	identity, _ := r.Context().Value(identityKey).(model.Identity)
	return identity
}

func tokenFrom(r *http.Request) uuid.UUID {
	token, _ := r.Context().Value(tokenKey).(uuid.UUID)
	return token
}

// actingUser returns the user a request acts for. Only admins may name
// someone other than themselves.
func actingUser(r *http.Request, requested string) (string, error) {
	identity := identityFrom(r)
	if requested == "" || requested == identity.User {
		return identity.User, nil
	}
	if !identity.IsAdmin() {
		return "", model.ErrForbidden
	}
	return requested, nil
}

// =============================================================================
// SESSION ENDPOINTS
// =============================================================================

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	identity, err := h.verifier.Verify(r.Context(), req.User, req.Password)
	if err != nil {
		h.logger.Info("Login rejected", zap.String("user", req.User))
		writeModelError(w, err)
		return
	}

	token, err := h.sessions.Create(identity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session", err)
		return
	}

	h.logger.Info("User logged in", zap.String("user", identity.User), zap.String("role", string(identity.Role)))
	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token.String(),
		User:  identity.User,
		Role:  string(identity.Role),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*model.Session).RequestExit)
}

func (h *Handler) ConfirmLogout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*model.Session).ConfirmExit)
}

func (h *Handler) CancelLogout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*model.Session).CancelExit)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, step func(*model.Session) error) {
	var resp SessionResponse
	err := h.sessions.Do(tokenFrom(r), func(s *model.Session) error {
		if err := step(s); err != nil {
			return err
		}
		resp = SessionResponse{State: s.State().String(), User: s.Identity().User}
		return nil
	})
	if err != nil {
		writeError(w, http.StatusConflict, "Invalid session transition", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SHIFT ENDPOINTS
// =============================================================================

func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.Sites)
}

func (h *Handler) StartShift(w http.ResponseWriter, r *http.Request) {
	var req StartShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	user, err := actingUser(r, req.User)
	if err != nil {
		writeModelError(w, err)
		return
	}

	date, clock := services.Now(h.now(), h.cfg.Location())
	shift, err := services.StartShift(r.Context(), h.store, h.cfg, h.logger, services.StartShiftRequest{
		Date:      date,
		User:      user,
		Site:      req.Site,
		StartTime: clock,
	})
	if err != nil {
		writeModelError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(*shift))
}

func (h *Handler) CloseShift(w http.ResponseWriter, r *http.Request) {
	var req CloseShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	user, err := actingUser(r, req.User)
	if err != nil {
		writeModelError(w, err)
		return
	}

	today, clock := services.Now(h.now(), h.cfg.Location())
	date := req.Date
	if date == "" {
		date = today
	}

	shift, err := services.CloseShift(r.Context(), h.store, h.cfg, h.logger, services.CloseShiftRequest{
		Date:      date,
		User:      user,
		Site:      req.Site,
		CloseDate: today,
		EndTime:   clock,
	})
	if err != nil {
		writeModelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(*shift))
}

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, ok := h.filteredShifts(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTOs(shifts))
}

func (h *Handler) ExportShifts(w http.ResponseWriter, r *http.Request) {
	shifts, ok := h.filteredShifts(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="jornadas.csv"`)
	if err := services.ExportShifts(w, shifts); err != nil {
		h.logger.Error("Failed to write export", zap.Error(err))
	}
}

// filteredShifts reads the filter from the query string. Workers only ever
// see their own shifts.
func (h *Handler) filteredShifts(w http.ResponseWriter, r *http.Request) ([]db.Shift, bool) {
	q := r.URL.Query()
	filter := services.ShiftFilter{
		From:  q.Get("from"),
		To:    q.Get("to"),
		User:  q.Get("user"),
		Site:  q.Get("site"),
		State: model.ShiftState(q.Get("state")),
	}

	identity := identityFrom(r)
	if !identity.IsAdmin() {
		if filter.User != "" && filter.User != identity.User {
			writeModelError(w, model.ErrForbidden)
			return nil, false
		}
		filter.User = identity.User
	}

	if period := q.Get("period"); period != "" {
		if h.cfg.PayPeriod == "" {
			writeError(w, http.StatusBadRequest, "No pay period configured", nil)
			return nil, false
		}
		day, err := time.ParseInLocation(model.DateLayout, period, h.cfg.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period date (use YYYY-MM-DD)", err)
			return nil, false
		}
		filter, err = services.PayPeriodFilter(filter, h.cfg.PayPeriod, day)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid pay period", err)
			return nil, false
		}
	}

	if err := filter.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return nil, false
	}

	shifts, err := services.ListShifts(r.Context(), h.store, h.logger, filter)
	if err != nil {
		writeModelError(w, err)
		return nil, false
	}
	return shifts, true
}

// =============================================================================
// OVERTIME ENDPOINTS
// =============================================================================

func (h *Handler) OvertimeSummary(w http.ResponseWriter, r *http.Request) {
	shifts, ok := h.filteredShifts(w, r)
	if !ok {
		return
	}

	totals := services.SummarizeOvertime(shifts)
	out := make([]UserOvertimeDTO, 0, len(totals))
	for _, t := range totals {
		out = append(out, UserOvertimeDTO{
			User:     t.User,
			Shifts:   t.Shifts,
			Worked:   model.FormatMinutes(t.WorkedMinutes),
			Overtime: model.FormatMinutes(t.OvertimeMinutes),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type computeOvertimeResponse struct {
	Result OvertimeResultDTO `json:"result"`
	Error  string            `json:"error,omitempty"`
}

func (h *Handler) ComputeOvertime(w http.ResponseWriter, r *http.Request) {
	result, err := services.ComputeOvertime(r.Context(), h.store, h.logger)
	if err != nil {
		// rows written before the failure stay written
		writeJSON(w, statusFor(err), computeOvertimeResponse{
			Result: toOvertimeResultDTO(result),
			Error:  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, computeOvertimeResponse{Result: toOvertimeResultDTO(result)})
}

// =============================================================================
// HELPERS
// =============================================================================

// statusFor maps error kinds to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrAlreadyOpen):
		return http.StatusConflict
	case errors.Is(err, model.ErrNoOpenShift):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUnknownSite):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidCredentials), errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrStoreUnavailable), errors.Is(err, model.ErrRuleLookup):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrMissingColumn):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeModelError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeError(w, status, http.StatusText(status), err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
