// Package chartjs builds chart configurations consumed verbatim by the
// Chart.js client library on the dashboard.
package chartjs

import (
	"fmt"
	"math"
)

const NoOfHours = 24
const ColorBlue = "#2196f3d4"
const ColorYellow = "#ffc107d4"
const ColorRed = "#f44336d4"

// NewHourly returns a line chart with one slot per hour of the day and two
// datasets, one bound to each vertical axis.
func NewHourly(title string) Chart {
	labels := make([]string, NoOfHours)
	for i := 0; i < NoOfHours; i++ {
		labels[i] = fmt.Sprintf("%02d:00", i)
	}

	chart := Chart{
		Type: "line",
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{
				{
					Data:        make([]*float64, NoOfHours),
					BorderWidth: 1,
					Tension:     0.4,
					Fill:        true,
					BorderColor: ColorBlue,
					YAxisID:     "YAxis1",
				},
				{
					Data:        make([]*float64, NoOfHours),
					BorderWidth: 1,
					Tension:     0.4,
					Fill:        false,
					BorderColor: ColorYellow,
					YAxisID:     "YAxis2",
				},
			},
		},
		Options: ChartOptions{
			Responsive: true,
			Plugins: ChartPlugins{
				Legend: ChartLegend{Display: false},
				Title:  ChartTitle{Display: false},
			},
			Scales: map[string]ChartScale{
				"YAxis1": {
					Type:     "linear",
					Display:  true,
					Position: "left",
					Title:    ChartScaleTitle{Display: true, Text: "", Color: ColorBlue}},
				"YAxis2": {
					Type:     "linear",
					Display:  true,
					Position: "right",
					Title:    ChartScaleTitle{Display: true, Text: "", Color: ColorYellow}},
			},
		},
	}

	if title != "" {
		chart.Options.Plugins.Title = ChartTitle{Display: true, Text: title}
	}

	return chart
}

// NewHourlyBars is like NewHourly but renders a single bar dataset, used for
// the per-hour cost breakdown.
func NewHourlyBars(title string) Chart {
	chart := NewHourly(title)
	chart.Type = "bar"
	chart.Data.Datasets = chart.Data.Datasets[:1]
	chart.Data.Datasets[0].BackgroundColor = ColorRed
	chart.Data.Datasets[0].BorderColor = ColorRed
	delete(chart.Options.Scales, "YAxis2")
	return chart
}

func (cs ChartScale) WithTitle(title string) ChartScale {
	cs.Title.Text = title
	return cs
}

func (cs ChartScale) WithMinAndMax(min, max float64) ChartScale {
	cs.Min = &min
	cs.Max = &max
	return cs
}

func FixedFloat64(num float64, precision int) *float64 {
	p := math.Pow(10, float64(precision))
	rounded := math.Round(num * p)
	result := rounded / p
	return &result
}
