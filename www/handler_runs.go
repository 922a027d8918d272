package www

import (
	"log/slog"
	"net/http"

	"github.com/jkoski/spotcost-go/database"
)

// NewRunsHandler renders the refresh run history as an HTML fragment for the
// dashboard.
func NewRunsHandler(logger *slog.Logger, db *database.Database, tm *TemplateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := intOrDefault(r.URL, "limit", 20)
		runs, err := db.GetRefreshRuns(r.Context(), limit)
		if err != nil {
			logger.Error("handling runs request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		if err := tm.ExecuteToWriter("refresh_runs.html", runs, &w); err != nil {
			logger.Error("handling runs request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
