package view

import (
	"time"

	"github.com/templui/sheetlens/internal/dataset"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/stats"
)

const (
	overviewMonths = 12
	overviewWeeks  = 12
)

// OverviewBuilder buckets row values by month and by week over trailing
// windows ending at the clock's current day.
type OverviewBuilder struct {
	clock Clock
}

func NewOverviewBuilder(clock Clock) OverviewBuilder {
	if clock == nil {
		clock = SystemClock{}
	}
	return OverviewBuilder{clock: clock}
}

func (b OverviewBuilder) Build(rows []dataset.Row, st stats.Stats) Result {
	today := civil(b.clock.Now())
	firstMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(overviewMonths - 1), 0)
	firstWeek := today.AddDate(0, 0, -(overviewWeeks*7 - 1))

	monthly := make([]float64, overviewMonths)
	weekly := make([]float64, overviewWeeks)

	var total float64
	dataPoints := 0
	for _, row := range rows {
		value, _ := row.FirstFloat(OverviewValueFields...)
		total += value

		t, ok := row.FirstTime(DateFields...)
		if !ok {
			continue
		}
		day := civil(t)
		if day.After(today) {
			continue
		}

		if m := monthIndex(firstMonth, day); m >= 0 && m < overviewMonths {
			monthly[m] += value
			dataPoints++
		}
		if !day.Before(firstWeek) {
			if w := int(day.Sub(firstWeek).Hours()/24) / 7; w < overviewWeeks {
				weekly[w] += value
			}
		}
	}

	monthLabels := make([]string, overviewMonths)
	for i := range monthLabels {
		monthLabels[i] = firstMonth.AddDate(0, i, 0).Format("Jan 2006")
	}
	weekLabels := make([]string, overviewWeeks)
	for i := range weekLabels {
		weekLabels[i] = firstWeek.AddDate(0, 0, i*7).Format("2006-01-02")
	}
	for i := range monthly {
		monthly[i] = round2(monthly[i])
	}
	for i := range weekly {
		weekly[i] = round2(weekly[i])
	}

	average := 0.0
	if len(rows) > 0 {
		average = total / float64(len(rows))
	}

	return Result{
		HasData: st.HasNumericData(),
		Payload: &Payload{
			Type: model.AnalysisOverview,
			ChartData: []Chart{
				{
					Key:   "monthly",
					Title: "Monthly Sales",
					Kind:  ChartLine,
					Series: ChartSeries{
						Labels:   monthLabels,
						Datasets: []Dataset{{Label: "Sales", Data: monthly, BorderColor: palette[0]}},
					},
				},
				{
					Key:   "weekly",
					Title: "Weekly Sales",
					Kind:  ChartBar,
					Series: ChartSeries{
						Labels:   weekLabels,
						Datasets: []Dataset{{Label: "Sales", Data: weekly, BackgroundColor: colors(overviewWeeks)}},
					},
				},
			},
			Summary: []Metric{
				metric("totalSales", "Total Sales", total),
				metric("totalItems", "Total Items", float64(len(rows))),
				metric("averageValue", "Average Value", average),
				metric("dataPoints", "Data Points", float64(dataPoints)),
			},
			Stats: st,
		},
	}
}

// civil drops the clock time and zone, keeping the calendar date.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthIndex(first, day time.Time) int {
	return (day.Year()*12 + int(day.Month())) - (first.Year()*12 + int(first.Month()))
}
