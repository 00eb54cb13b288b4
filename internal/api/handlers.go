// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"leadfollow/internal/common/auth"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/common/logger"
	"leadfollow/internal/common/validation"
	"leadfollow/internal/followup/alerts"
	"leadfollow/internal/followup/settings"
	"leadfollow/internal/followup/tasks"
	"leadfollow/internal/models"
	"leadfollow/internal/prospects"
	duedatescheduler "leadfollow/internal/workers/notification/due-date-scheduler"

	"github.com/go-chi/chi/v5"
)

// Scheduler is satisfied by *duedatescheduler.Manager.
type Scheduler interface {
	Start(ctx context.Context, userID string) error
	Stop(userID string)
	Restart(ctx context.Context, userID string) error
	State(userID string) duedatescheduler.State
}

// PermissionRecorder is satisfied by *duedatescheduler.PermissionStore.
type PermissionRecorder interface {
	Set(ctx context.Context, userID string, granted bool) error
}

type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Deps are the services behind the API.
type Deps struct {
	Prospects   *prospects.Service
	Tasks       *tasks.Service
	Settings    *settings.Service
	Alerts      *alerts.Service
	Users       models.UserRepository
	Sessions    SessionStore
	Identity    auth.IdentityProvider
	Scheduler   Scheduler
	Permissions PermissionRecorder
	Session     SessionConfig
}

type Handler struct {
	Deps
	errs   *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(deps Deps, errs *errors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		Deps:   deps,
		errs:   errs,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.errs.HandleHTTPError(w, r, err)
}

// syncScheduler arms or stops the caller's scheduler. Failures only affect
// notifications, so they are logged and never fail the request.
func (h *Handler) syncScheduler(ctx context.Context, userID string, run bool) {
	if h.Scheduler == nil {
		return
	}
	if !run {
		h.Scheduler.Stop(userID)
		return
	}
	if err := h.Scheduler.Start(context.WithoutCancel(ctx), userID); err != nil {
		h.logger.Warn("scheduler not started", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
	}
}

// ==========================
// Auth
// ==========================

// CreateSession exchanges a bearer access token for a session cookie.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.fail(w, r, errors.NewAuthenticationError("missing bearer token"))
		return
	}
	identity, err := h.Identity.UserInfo(r.Context(), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user := &models.User{
		ID:        identity.Subject,
		Email:     identity.Email,
		FullName:  identity.DisplayName(),
		LastLogin: time.Now().UTC(),
	}
	if err := h.Users.UpsertUser(r.Context(), user); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.Sessions.Create(r.Context(), user.ID, clientIP(r))
	if err != nil {
		h.fail(w, r, errors.NewCacheUnavailableError(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.Session.CookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.syncScheduler(r.Context(), user.ID, true)
	h.logger.Info("session created", map[string]interface{}{"userId": user.ID})
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if c, err := r.Cookie(h.Session.CookieName); err == nil && c.Value != "" {
		if err := h.Sessions.Delete(r.Context(), c.Value); err != nil {
			h.fail(w, r, errors.NewCacheUnavailableError(err))
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Session.Secure,
	})
	h.syncScheduler(r.Context(), userID, false)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetUser(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user == nil {
		h.fail(w, r, errors.NewAuthenticationError("no user record for this identity"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func clientIP(r *http.Request) string {
	// RealIP middleware has already rewritten RemoteAddr
	return r.RemoteAddr
}

// ==========================
// Prospects
// ==========================

func (h *Handler) ListProspects(w http.ResponseWriter, r *http.Request) {
	list, err := h.Prospects.List(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) SearchProspects(w http.ResponseWriter, r *http.Request) {
	list, err := h.Prospects.Search(r.Context(), UserID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ImportZoho(w http.ResponseWriter, r *http.Request) {
	res, err := h.Prospects.ImportFromCRM(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetProspect(w http.ResponseWriter, r *http.Request) {
	p, err := h.Prospects.Get(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProspect(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Prospects.Create(r.Context(), UserID(r.Context()), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProspect(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Prospects.Update(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProspect(w http.ResponseWriter, r *http.Request) {
	if err := h.Prospects.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListEmails(w http.ResponseWriter, r *http.Request) {
	list, err := h.Prospects.ListEmails(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// RecordEmail answers 201 for a new email and 200 when the message id was
// already recorded.
func (h *Handler) RecordEmail(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	email, inserted, err := h.Prospects.RecordEmail(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if !inserted {
		status = http.StatusOK
	}
	writeJSON(w, status, email)
}

// SyncEmails pulls the caller's mailbox into the email history. An optional
// since query parameter (RFC 3339) overrides the default lookback.
func (h *Handler) SyncEmails(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.fail(w, r, errors.NewInvalidRequestError("since must be an RFC 3339 timestamp"))
			return
		}
		since = parsed
	}

	userID := UserID(r.Context())
	user, err := h.Users.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user == nil {
		h.fail(w, r, errors.NewAuthenticationError("no user record for this identity"))
		return
	}

	res, err := h.Prospects.SyncMessages(r.Context(), userID, user.Email, since)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ListProspectFollowUps(w http.ResponseWriter, r *http.Request) {
	list, err := h.Tasks.ListForProspect(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ==========================
// Follow-ups
// ==========================

func (h *Handler) ListPendingFollowUps(w http.ResponseWriter, r *http.Request) {
	list, err := h.Tasks.ListPending(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateFollowUp(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f, err := h.Tasks.Create(r.Context(), UserID(r.Context()), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) UpdateFollowUp(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f, err := h.Tasks.Update(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) DeleteFollowUp(w http.ResponseWriter, r *http.Request) {
	if err := h.Tasks.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==========================
// Settings
// ==========================

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.GetSettings(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	userID := UserID(r.Context())
	s, err := h.Settings.UpdateSettings(r.Context(), userID, body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.syncScheduler(r.Context(), userID, s.NotifyBrowser)
	writeJSON(w, http.StatusOK, s)
}

// ==========================
// Notifications
// ==========================

func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Alerts.GetAlerts(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Alerts.GetNotificationSummary(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) AutoCreateTasks(w http.ResponseWriter, r *http.Request) {
	created, err := h.Alerts.AutoCreateFollowUpTasks(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"tasksCreated": created})
}

type permissionBody struct {
	Granted bool `json:"granted"`
}

// SetPermission records the platform notification permission. Granting
// replaces the scheduler so an earlier denial no longer applies.
func (h *Handler) SetPermission(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res := validation.NotificationPermission.Validate(body); !res.Valid {
		h.fail(w, r, errors.NewInvalidRequestError(res.Summary()))
		return
	}
	var in permissionBody
	if err := json.Unmarshal(body, &in); err != nil {
		h.fail(w, r, errors.NewInvalidRequestError(err.Error()))
		return
	}

	userID := UserID(r.Context())
	if err := h.Permissions.Set(r.Context(), userID, in.Granted); err != nil {
		h.fail(w, r, errors.NewCacheUnavailableError(err))
		return
	}

	if in.Granted {
		if err := h.Scheduler.Restart(context.WithoutCancel(r.Context()), userID); err != nil {
			h.logger.Warn("scheduler restart failed", map[string]interface{}{
				"userId": userID,
				"error":  err,
			})
		}
	} else {
		h.Scheduler.Stop(userID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"granted": in.Granted,
		"state":   h.Scheduler.State(userID).String(),
	})
}

func (h *Handler) SchedulerState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"state": h.Scheduler.State(UserID(r.Context())).String(),
	})
}
