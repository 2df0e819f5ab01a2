package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"authcore/cmd/apperr"
	"authcore/cmd/identity"
	"authcore/cmd/internal/auth/session"
	"authcore/cmd/internal/migrations"

	"github.com/go-chi/chi/v5"
)

// Migrator lists and applies schema migrations.
type Migrator interface {
	Pending(ctx context.Context) ([]migrations.Migration, error)
	Up(ctx context.Context) ([]migrations.Migration, error)
}

// Handler wires HTTP endpoints to the user registry and the session service.
type Handler struct {
	log *slog.Logger
	cfg Config
	now func() time.Time

	users    *identity.Registry
	sessions *session.Service
	cookies  Cookies

	probe    StatusProbe
	migrator Migrator
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithStatusProbe enables the database section of GET /status.
func WithStatusProbe(p StatusProbe) HandlerOption {
	return func(h *Handler) {
		if p != nil {
			h.probe = p
		}
	}
}

// WithMigrator enables the migration endpoints.
func WithMigrator(m Migrator) HandlerOption {
	return func(h *Handler) {
		if m != nil {
			h.migrator = m
		}
	}
}

// WithClock overrides the time source used for status timestamps.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs a Handler. users and sessions are required.
func NewHandler(log *slog.Logger, users *identity.Registry, sessions *session.Service, cookies Cookies, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if users == nil {
		return nil, errors.New("authapi: nil user registry")
	}
	if sessions == nil {
		return nil, errors.New("authapi: nil session service")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:      log,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		users:    users,
		sessions: sessions,
		cookies:  cookies,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Register wires the API routes onto r.
func (h *Handler) Register(r chi.Router) {
	if h == nil || r == nil {
		return
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.NotFound(h.NotFound)
		r.MethodNotAllowed(h.MethodNotAllowed)

		r.Post("/users", h.handleCreateUser)
		r.Get("/users/{username}", h.handleGetUser)
		r.Patch("/users/{username}", h.handlePatchUser)

		r.Post("/sessions", h.handleLogin)
		r.Delete("/sessions", h.handleLogout)

		r.Get("/user", h.handleCurrentUser)

		r.Get("/status", h.handleStatus)

		r.Get("/migrations", h.handleListMigrations)
		r.Post("/migrations", h.handleRunMigrations)
	})
}

// MethodNotAllowed answers a known route hit with an unsupported method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperr.MethodNotAllowed("http."+r.Method))
}

// NotFound answers an unknown route.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperr.NotFound("http.route",
		"O recurso solicitado não foi encontrado.",
		"Verifique se o endereço está correto.",
	))
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.cfg.QueryTimeout)
}

// ---- users ----

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	const op = "authapi.createUser"

	var req identity.CreateUserInput
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.writeError(w, r, invalidBody(op))
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	u, err := h.users.Create(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.InfoContext(ctx, "auth.user.created", "user_id", u.ID.String())
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	u, err := h.users.FindByUsername(ctx, chi.URLParam(r, "username"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	const op = "authapi.patchUser"

	var patch identity.UserPatch
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &patch); err != nil {
		h.writeError(w, r, invalidBody(op))
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	u, err := h.users.Update(ctx, chi.URLParam(r, "username"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ---- sessions ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "authapi.login"

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.writeError(w, r, invalidBody(op))
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	s, err := h.sessions.Issue(ctx, u.ID)
	if err != nil {
		h.log.ErrorContext(ctx, "auth.session.issue.fail", "user_id", u.ID.String(), "err", err)
		h.writeError(w, r, err)
		return
	}

	h.cookies.SetSessionCookie(w, s.Token)
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	tok, _ := ExtractToken(r)

	ctx, cancel := h.requestContext(r)
	defer cancel()

	s, err := h.sessions.Revoke(ctx, tok)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.cookies.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, s)
}

// handleCurrentUser resolves the cookie's session (renewing it when due), re-sends the
// cookie with a full TTL and returns the owner.
func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	tok, _ := ExtractToken(r)

	ctx, cancel := h.requestContext(r)
	defer cancel()

	s, err := h.sessions.FindValidByToken(ctx, tok)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.users.FindByID(ctx, s.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.cookies.SetSessionCookie(w, s.Token)
	w.Header().Set("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	writeJSON(w, http.StatusOK, u)
}

// ---- operations ----

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	resp := statusResponse{UpdatedAt: h.now().UTC()}
	if h.probe != nil {
		st, err := h.probe.DatabaseStatus(ctx)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		resp.Dependencies.Database = &databaseStatus{
			Version:           st.Version,
			MaxConnections:    st.MaxConnections,
			OpenedConnections: st.OpenedConnections,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListMigrations(w http.ResponseWriter, r *http.Request) {
	if !h.requireMigrator(w) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	pending, err := h.migrator.Pending(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *Handler) handleRunMigrations(w http.ResponseWriter, r *http.Request) {
	if !h.requireMigrator(w) {
		return
	}

	// Schema changes may outlive a normal query budget.
	ctx, cancel := context.WithTimeout(r.Context(), 6*h.cfg.QueryTimeout)
	defer cancel()

	applied, err := h.migrator.Up(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if len(applied) > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, applied)
}

func (h *Handler) requireMigrator(w http.ResponseWriter) bool {
	if h.migrator != nil {
		return true
	}
	writeJSON(w, http.StatusServiceUnavailable, errorBody{
		Name:       "ServiceUnavailableError",
		Message:    "Banco de dados não configurado.",
		Action:     "Configure AUTHCORE_DATABASE_URL e tente novamente.",
		StatusCode: http.StatusServiceUnavailable,
	})
	return false
}
