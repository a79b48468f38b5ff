package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fuelroute-admin/internal/auth"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	SessionContextKey contextKey = "session"
)

// Default redirect targets of the gate.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// SessionRestorer restores the session persisted in a browser's storage.
type SessionRestorer interface {
	Restore(ctx context.Context, st auth.Storage) (*models.Session, error)
}

// Gate admits requests that carry a valid admin session.
type Gate struct {
	sessions SessionRestorer
	storage  auth.StorageProvider
}

// NewGate creates a gate restoring sessions with sessions from the storage
// resolved by storage.
func NewGate(sessions SessionRestorer, storage auth.StorageProvider) *Gate {
	return &Gate{sessions: sessions, storage: storage}
}

// Protect restores the session once per request. Without a valid session
// pages redirect to the login page and /api/ paths answer 401. Otherwise the
// session is stored in the request context.
func (g *Gate) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := g.sessions.Restore(r.Context(), g.storage.StorageFor(w, r))
		if err != nil {
			state := auth.StateOf(err)
			log.WithFields(log.Fields{"path": r.URL.Path, "state": state}).Debug("Request without valid session")
			if isAPI(r.URL.Path) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "authentication required",
					"state": string(state),
				})
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guest sends browsers that already hold a valid session to the dashboard.
func (g *Gate) Guest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := g.sessions.Restore(r.Context(), g.storage.StorageFor(w, r)); err == nil {
			http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext extracts the session admitted by the gate.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	return session, ok
}

// IdentityFromContext extracts the admin identity admitted by the gate.
func IdentityFromContext(ctx context.Context) (models.AdminIdentity, bool) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return models.AdminIdentity{}, false
	}
	return session.User, true
}

func isAPI(path string) bool {
	return strings.HasPrefix(path, "/api/")
}
