package handlers

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fuelroute-admin/internal/analytics"
	"github.com/ukydev/fuelroute-admin/internal/live"
	"github.com/ukydev/fuelroute-admin/internal/middleware"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

// DataSource loads the trip and user collections. Failed reads yield empty
// collections.
type DataSource interface {
	FetchAll(ctx context.Context) ([]models.Trip, []models.User)
	FetchTrips(ctx context.Context) []models.Trip
	FetchUsers(ctx context.Context) []models.User
}

// LiveView exposes the continuously updated dashboard.
type LiveView interface {
	Snapshot() live.View
}

// DashboardHandler serves the dashboard aggregates.
type DashboardHandler struct {
	source  DataSource
	changes analytics.Changes
	live    LiveView
	now     func() time.Time
	page    *template.Template
}

// NewDashboardHandler creates a dashboard handler. live may be nil.
func NewDashboardHandler(source DataSource, changes analytics.Changes, live LiveView) *DashboardHandler {
	return &DashboardHandler{
		source:  source,
		changes: changes,
		live:    live,
		now:     time.Now,
		page:    template.Must(template.New("dashboard").Parse(dashboardPage)),
	}
}

// Page renders the dashboard home for the admin admitted by the gate.
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	trips, users := h.source.FetchAll(r.Context())
	view := struct {
		Admin models.AdminIdentity
		models.DashboardOverview
	}{
		Admin: identity,
		DashboardOverview: models.DashboardOverview{
			Stats:    analytics.ComputeStats(trips, users, h.changes),
			Activity: analytics.RecentActivity(trips, analytics.DefaultActivityLimit, h.now()),
			Chart:    analytics.MonthlyChartSeries(trips),
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, view); err != nil {
		log.WithError(err).Error("Failed to render dashboard")
	}
}

// Overview returns stats, recent activity and the monthly chart in one payload.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	trips, users := h.source.FetchAll(r.Context())
	writeJSON(w, http.StatusOK, models.DashboardOverview{
		Stats:    analytics.ComputeStats(trips, users, h.changes),
		Activity: analytics.RecentActivity(trips, analytics.DefaultActivityLimit, h.now()),
		Chart:    analytics.MonthlyChartSeries(trips),
	})
}

// Stats returns the headline numbers.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	trips, users := h.source.FetchAll(r.Context())
	writeJSON(w, http.StatusOK, analytics.ComputeStats(trips, users, h.changes))
}

// Activity returns the most recent trips as feed entries. The optional limit
// query parameter bounds the length.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := analytics.DefaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	trips := h.source.FetchTrips(r.Context())
	writeJSON(w, http.StatusOK, analytics.RecentActivity(trips, limit, h.now()))
}

// Chart returns trips, revenue and distinct users per calendar month.
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	trips := h.source.FetchTrips(r.Context())
	writeJSON(w, http.StatusOK, analytics.MonthlyChartSeries(trips))
}

// Live returns the view kept current by the store subscriptions.
func (h *DashboardHandler) Live(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		writeError(w, http.StatusServiceUnavailable, "live feed disabled")
		return
	}
	writeJSON(w, http.StatusOK, h.live.Snapshot())
}

const dashboardPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Fuel Route Admin - Dashboard</title>
</head>
<body>
<header>
<p>Signed in as {{.Admin.Name}} ({{.Admin.Email}})</p>
<form method="post" action="/api/auth/logout"><button type="submit">Sign out</button></form>
</header>
<section id="stats">
<dl>
<dt>Total users</dt><dd>{{.Stats.TotalUsers}} (+{{printf "%.1f" .Stats.UsersChange}}%)</dd>
<dt>Total trips</dt><dd>{{.Stats.TotalTrips}} (+{{printf "%.1f" .Stats.TripsChange}}%)</dd>
<dt>Active trips</dt><dd>{{.Stats.ActiveTrips}}</dd>
<dt>Completed trips</dt><dd>{{.Stats.CompletedTrips}}</dd>
<dt>Total revenue</dt><dd>${{printf "%.2f" .Stats.TotalRevenue}} (+{{printf "%.1f" .Stats.RevenueChange}}%)</dd>
<dt>Average trip distance</dt><dd>{{printf "%.1f" .Stats.AvgTripDistance}} mi</dd>
</dl>
</section>
<section id="activity">
<h2>Recent activity</h2>
<ul>
{{range .Activity}}<li>{{.User}}: {{.Description}} <small>{{.Time}}</small></li>
{{else}}<li>No recent activity</li>
{{end}}</ul>
</section>
<section id="chart">
<h2>Monthly trips</h2>
<table>
<tr><th>Month</th><th>Trips</th><th>Revenue</th><th>Users</th></tr>
{{range .Chart}}<tr><td>{{.Month}}</td><td>{{.Trips}}</td><td>{{printf "%.2f" .Revenue}}</td><td>{{.Users}}</td></tr>
{{end}}</table>
</section>
</body>
</html>
`
