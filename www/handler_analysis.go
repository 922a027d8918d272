package www

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
)

type analysisRow struct {
	Timestamp   string  `json:"timestamp"`
	Consumption float64 `json:"consumption_kWh"`
	Price       float64 `json:"price_cents_per_kWh"`
	Cost        float64 `json:"cost_euros"`
}

// NewAnalysisHandler serves the combined CSV artifact as JSON. The artifact
// on disk is the source of truth, so the handler reads it on every request
// instead of going through the database mirror.
func NewAnalysisHandler(logger *slog.Logger, outputPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		f, err := os.Open(outputPath)
		if err != nil {
			if os.IsNotExist(err) {
				http.Error(w, "no combined data yet, trigger an update first", http.StatusNotFound)
				return
			}
			logger.Error("handling analysis request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		reader := csv.NewReader(f)
		records, err := reader.ReadAll()
		if err != nil {
			logger.Error("handling analysis request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		rows := make([]analysisRow, 0, len(records))
		for i, rec := range records {
			if i == 0 {
				continue // header
			}
			consumption, err1 := strconv.ParseFloat(rec[1], 64)
			price, err2 := strconv.ParseFloat(rec[2], 64)
			cost, err3 := strconv.ParseFloat(rec[3], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				logger.Warn("skipping malformed artifact line", slog.Int("line", i+1))
				continue
			}
			rows = append(rows, analysisRow{
				Timestamp:   rec[0],
				Consumption: consumption,
				Price:       price,
				Cost:        cost,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rows); err != nil {
			logger.Error("handling analysis request", slog.Any("error", err))
			http.Error(w, "unable to encode rows", http.StatusInternalServerError)
		}
	}
}
