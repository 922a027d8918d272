package www

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jkoski/spotcost-go/task"
)

// RefreshTrigger is the part of the refresher the update endpoint needs.
type RefreshTrigger interface {
	Run(ctx context.Context) (task.RefreshResult, error)
}

// NewUpdateHandler triggers a refresh cycle and reports its outcome.
// Concurrent POSTs share a single in-flight run.
func NewUpdateHandler(logger *slog.Logger, refresher RefreshTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result, err := refresher.Run(r.Context())
		if err != nil {
			logger.Error("handling update request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(struct {
			Records     int   `json:"records"`
			SkippedRows int   `json:"skippedRows"`
			DurationMs  int64 `json:"durationMs"`
		}{
			Records:     result.Records,
			SkippedRows: result.SkippedRows,
			DurationMs:  result.Duration.Milliseconds(),
		})
		if err != nil {
			logger.Error("handling update request", slog.Any("error", err))
		}
	}
}
