package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fuelroute-admin/internal/auth"
	"github.com/ukydev/fuelroute-admin/internal/middleware"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

// SessionManager creates, restores and destroys admin sessions.
type SessionManager interface {
	Login(ctx context.Context, st auth.Storage, email, password string) (*models.Session, error)
	Logout(ctx context.Context, st auth.Storage) error
}

// maxLoginBody caps login request bodies.
const maxLoginBody = 4 << 10

// AuthHandler handles authentication requests
type AuthHandler struct {
	sessions SessionManager
	storage  auth.StorageProvider
	page     *template.Template
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(sessions SessionManager, storage auth.StorageProvider) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		storage:  storage,
		page:     template.Must(template.New("login").Parse(loginPage)),
	}
}

// Login handles JSON login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLoginBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var loginReq models.LoginRequest
	if err := json.Unmarshal(body, &loginReq); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	session, status, message := h.login(w, r, loginReq)
	if session == nil {
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		User:      session.User,
		ExpiresAt: session.ExpiresAt,
	})
}

// FormLogin handles the login form and redirects to the dashboard.
func (h *AuthHandler) FormLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, http.StatusBadRequest, loginView{Error: "Invalid form submission"})
		return
	}

	loginReq := models.LoginRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	session, status, message := h.login(w, r, loginReq)
	if session == nil {
		h.renderPage(w, status, loginView{Email: loginReq.Email, Error: message})
		return
	}
	http.Redirect(w, r, middleware.DashboardPath, http.StatusSeeOther)
}

// LoginPage renders the login form.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, http.StatusOK, loginView{})
}

// Logout clears the session and sends the browser to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), h.storage.StorageFor(w, r)); err != nil {
		log.WithError(err).Error("Logout failed")
		writeError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// Session returns the session admitted by the gate.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{
		User:      session.User,
		ExpiresAt: session.ExpiresAt,
	})
}

// login runs a login attempt. On failure it returns a nil session with the
// status and message to show.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, req models.LoginRequest) (*models.Session, int, string) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, http.StatusBadRequest, "Email and password are required"
	}

	session, err := h.sessions.Login(r.Context(), h.loginStorage(w, r), req.Email, req.Password)
	if err == nil {
		return session, http.StatusOK, ""
	}

	var authErr *auth.Error
	switch {
	case errors.As(err, &authErr) && errors.Is(err, auth.ErrAccessDenied):
		return nil, http.StatusForbidden, authErr.Message
	case errors.As(err, &authErr) && errors.Is(err, auth.ErrInvalidCredential):
		return nil, http.StatusUnauthorized, authErr.Message
	default:
		log.WithError(err).Error("Login failed")
		return nil, http.StatusInternalServerError, "Login failed. Please try again."
	}
}

// loginStorage moves the browser to a fresh identity on login when the
// provider can, so an id planted before login never carries the session.
func (h *AuthHandler) loginStorage(w http.ResponseWriter, r *http.Request) auth.Storage {
	if rotator, ok := h.storage.(auth.Rotator); ok {
		return rotator.RotatedStorageFor(w, r)
	}
	return h.storage.StorageFor(w, r)
}

type loginView struct {
	Email string
	Error string
}

func (h *AuthHandler) renderPage(w http.ResponseWriter, status int, view loginView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.page.Execute(w, view); err != nil {
		log.WithError(err).Error("Failed to render login page")
	}
}

const loginPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Fuel Route Admin - Sign in</title>
</head>
<body>
<h1>Fuel Route Admin</h1>
{{if .Error}}<p class="error" role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/login">
<label>Email <input type="email" name="email" value="{{.Email}}" required></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`
