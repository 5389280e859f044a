package http

import (
	"net/http"

	"github.com/bdsuman/mcq-exam-evaluation-system/internal/quiz"
)

// GET /admin/dashboard/stats
func DashboardStatsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetDashboardStats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
