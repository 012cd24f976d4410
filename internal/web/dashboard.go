package web

import (
	"net/http"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/repo"
)

type managerDashboardData struct {
	User  *db.User
	Stats *repo.ManagerStats
}

// managerDashboard shows marketplace-wide aggregates to staff.
func (h *Handlers) managerDashboard(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil || !user.IsStaff {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	stats, err := h.Dash.ManagerStats(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, "dashboard.html", managerDashboardData{User: user, Stats: stats})
}
