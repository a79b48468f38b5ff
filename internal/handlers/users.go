package handlers

import (
	"net/http"

	"github.com/ukydev/fuelroute-admin/internal/analytics"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

// UserListResponse is the users page payload. Summary covers every user.
type UserListResponse struct {
	Users   []models.User      `json:"users"`
	Count   int                `json:"count"`
	Summary models.UserSummary `json:"summary"`
}

// UsersHandler serves the users page.
type UsersHandler struct {
	source DataSource
}

// NewUsersHandler creates a users handler
func NewUsersHandler(source DataSource) *UsersHandler {
	return &UsersHandler{source: source}
}

// List handles GET /api/users?search=&status=
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users := h.source.FetchUsers(r.Context())
	filtered := analytics.FilterUsers(users, analytics.UserFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
	})
	writeJSON(w, http.StatusOK, UserListResponse{
		Users:   filtered,
		Count:   len(filtered),
		Summary: analytics.SummarizeUsers(users),
	})
}
