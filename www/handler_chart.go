package www

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jkoski/spotcost-go/database"
	"github.com/jkoski/spotcost-go/www/chartjs"
)

// NewChartHandler renders the selected day as Chart.js configurations, one
// chart for consumption against price and one for the hourly cost. The day
// query parameter picks the date, defaulting to the most recent one.
func NewChartHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		day := stringOrDefault(r.URL, "day", "")
		if day == "" {
			days, err := db.GetCombinedDays(r.Context())
			if err != nil {
				logger.Error("handling chart request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if len(days) == 0 {
				http.Error(w, "no combined data yet", http.StatusNotFound)
				return
			}
			day = days[len(days)-1]
		}

		rows, err := db.GetCombinedForDay(r.Context(), day)
		if err != nil {
			logger.Error("handling chart request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		findRow := func(hour int) (database.CombinedRow, bool) {
			for _, row := range rows {
				if row.Timestamp.Hour() == hour {
					return row, true
				}
			}
			return database.CombinedRow{}, false
		}

		chart1 := chartjs.NewHourly(day)
		for i := 0; i < chartjs.NoOfHours; i++ {
			if row, ok := findRow(i); ok {
				chart1.Data.Datasets[0].Data[i] = chartjs.FixedFloat64(row.Consumption, 3)
				chart1.Data.Datasets[1].Data[i] = chartjs.FixedFloat64(row.Price, 2)
			}
		}
		chart1.Options.Scales["YAxis1"] = chart1.Options.Scales["YAxis1"].
			WithTitle("Consumption (kWh)")
		chart1.Options.Scales["YAxis2"] = chart1.Options.Scales["YAxis2"].
			WithTitle("Spot Price (c/kWh)")

		chart2 := chartjs.NewHourlyBars(day)
		for i := 0; i < chartjs.NoOfHours; i++ {
			if row, ok := findRow(i); ok {
				chart2.Data.Datasets[0].Data[i] = chartjs.FixedFloat64(row.Cost, 6)
			}
		}
		chart2.Options.Scales["YAxis1"] = chart2.Options.Scales["YAxis1"].
			WithTitle("Cost (EUR)")

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode([]chartjs.Chart{chart1, chart2}); err != nil {
			logger.Error("handling chart request", slog.Any("error", err))
			http.Error(w, "unable to encode charts", http.StatusInternalServerError)
		}
	}
}

// NewDaysHandler lists the dates present in the combined table, oldest first.
func NewDaysHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		days, err := db.GetCombinedDays(r.Context())
		if err != nil {
			logger.Error("handling days request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(days); err != nil {
			logger.Error("handling days request", slog.Any("error", err))
			http.Error(w, "unable to encode days", http.StatusInternalServerError)
		}
	}
}
