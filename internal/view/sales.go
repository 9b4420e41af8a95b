package view

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/templui/sheetlens/internal/dataset"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/stats"
)

const recentSalesLimit = 10

// SalesBuilder tallies rows by status, category and day, and lists the
// most recent sales.
type SalesBuilder struct{}

type recentSale struct {
	at  time.Time
	row map[string]any
}

func (SalesBuilder) Build(rows []dataset.Row, st stats.Stats) Result {
	statusKeys := []string{StatusCompleted, StatusPending, StatusCancelled}
	statusCounts := map[string]int{StatusCompleted: 0, StatusPending: 0, StatusCancelled: 0}

	var categoryKeys []string
	categoryTotals := map[string]decimal.Decimal{}

	dailyTotals := map[string]decimal.Decimal{}

	revenue := decimal.Zero
	recent := make([]recentSale, 0, len(rows))

	for _, row := range rows {
		amount, _ := row.FirstFloat(SalesAmountFields...)
		amt := decimal.NewFromFloat(amount)
		revenue = revenue.Add(amt)

		status := row.FirstText(StatusCompleted, StatusFields...)
		if _, ok := statusCounts[status]; !ok {
			statusKeys = append(statusKeys, status)
		}
		statusCounts[status]++

		category := row.FirstText(DefaultCategory, CategoryFields...)
		if _, ok := categoryTotals[category]; !ok {
			categoryKeys = append(categoryKeys, category)
		}
		categoryTotals[category] = categoryTotals[category].Add(amt)

		at, dated := row.FirstTime(DateFields...)
		display := row.FirstText(DefaultDate, DateFields...)
		if dated {
			day := at.Format("2006-01-02")
			dailyTotals[day] = dailyTotals[day].Add(amt)
			display = day
		} else {
			at = time.Unix(0, 0).UTC()
		}

		recent = append(recent, recentSale{
			at: at,
			row: map[string]any{
				"date":     display,
				"product":  row.FirstText(DefaultProduct, ProductNameFields...),
				"amount":   round2(amount),
				"status":   status,
				"customer": row.FirstText(DefaultCustomer, CustomerFields...),
			},
		})
	}

	statusData := make([]float64, len(statusKeys))
	for i, k := range statusKeys {
		statusData[i] = float64(statusCounts[k])
	}

	categoryData := make([]float64, len(categoryKeys))
	for i, k := range categoryKeys {
		categoryData[i] = round2(categoryTotals[k].InexactFloat64())
	}

	days := make([]string, 0, len(dailyTotals))
	for d := range dailyTotals {
		days = append(days, d)
	}
	sort.Strings(days)
	dailyData := make([]float64, len(days))
	for i, d := range days {
		dailyData[i] = round2(dailyTotals[d].InexactFloat64())
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].at.After(recent[j].at)
	})
	if len(recent) > recentSalesLimit {
		recent = recent[:recentSalesLimit]
	}
	tableRows := make([]map[string]any, len(recent))
	for i, r := range recent {
		tableRows[i] = r.row
	}

	if categoryKeys == nil {
		categoryKeys = []string{}
	}

	total := revenue.InexactFloat64()
	average := 0.0
	if len(rows) > 0 {
		average = revenue.Div(decimal.NewFromInt(int64(len(rows)))).InexactFloat64()
	}

	return Result{
		HasData: st.HasNumericData(),
		Payload: &Payload{
			Type: model.AnalysisSales,
			ChartData: []Chart{
				{
					Key:   "status",
					Title: "Sales by Status",
					Kind:  ChartDoughnut,
					Series: ChartSeries{
						Labels:   statusKeys,
						Datasets: []Dataset{{Label: "Orders", Data: statusData, BackgroundColor: colors(len(statusKeys))}},
					},
				},
				{
					Key:   "category",
					Title: "Sales by Category",
					Kind:  ChartBar,
					Series: ChartSeries{
						Labels:   categoryKeys,
						Datasets: []Dataset{{Label: "Revenue", Data: categoryData, BackgroundColor: colors(len(categoryKeys))}},
					},
				},
				{
					Key:   "daily",
					Title: "Daily Sales",
					Kind:  ChartLine,
					Series: ChartSeries{
						Labels:   days,
						Datasets: []Dataset{{Label: "Revenue", Data: dailyData, BorderColor: palette[0]}},
					},
				},
			},
			TableData: &Table{
				Columns: []string{"date", "product", "amount", "status", "customer"},
				Rows:    tableRows,
			},
			Summary: []Metric{
				metric("totalRevenue", "Total Revenue", total),
				metric("totalOrders", "Total Orders", float64(len(rows))),
				metric("averageOrderValue", "Average Order Value", average),
				metric("completedOrders", "Completed Orders", float64(statusCounts[StatusCompleted])),
			},
			Stats: st,
		},
	}
}
