package view

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/templui/sheetlens/internal/dataset"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/stats"
)

const topProductsLimit = 10

// ProductsBuilder groups rows by product and ranks products by revenue.
type ProductsBuilder struct{}

type productTotals struct {
	name     string
	sales    decimal.Decimal
	quantity decimal.Decimal
	orders   int
	prices   []float64
}

func (p *productTotals) averagePrice() float64 {
	if len(p.prices) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, price := range p.prices {
		sum = sum.Add(decimal.NewFromFloat(price))
	}
	return sum.Div(decimal.NewFromInt(int64(len(p.prices)))).InexactFloat64()
}

func (p *productTotals) averageOrderValue() float64 {
	if p.orders == 0 {
		return 0
	}
	return p.sales.Div(decimal.NewFromInt(int64(p.orders))).InexactFloat64()
}

func (ProductsBuilder) Build(rows []dataset.Row, st stats.Stats) Result {
	var ranked []*productTotals
	byName := map[string]*productTotals{}

	revenue := decimal.Zero
	quantity := decimal.Zero
	for _, row := range rows {
		name := row.FirstText(DefaultProduct, ProductNameFields...)
		p, ok := byName[name]
		if !ok {
			p = &productTotals{name: name}
			byName[name] = p
			ranked = append(ranked, p)
		}

		price, hasPrice := row.FirstFloat(PriceFields...)
		qty, hasQty := row.FirstFloat(QuantityFields...)
		if !hasQty {
			qty = 1
		}

		sale := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(qty))
		p.sales = p.sales.Add(sale)
		p.quantity = p.quantity.Add(decimal.NewFromFloat(qty))
		p.orders++
		if hasPrice {
			p.prices = append(p.prices, price)
		}

		revenue = revenue.Add(sale)
		quantity = quantity.Add(decimal.NewFromFloat(qty))
	}

	// Stable sort keeps first-seen order between equal revenues.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sales.GreaterThan(ranked[j].sales)
	})

	top := ranked
	if len(top) > topProductsLimit {
		top = top[:topProductsLimit]
	}

	labels := make([]string, len(top))
	data := make([]float64, len(top))
	tableRows := make([]map[string]any, len(top))
	for i, p := range top {
		sales := round2(p.sales.InexactFloat64())
		percentage := 0.0
		if revenue.IsPositive() {
			percentage = p.sales.Div(revenue).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}

		labels[i] = p.name
		data[i] = sales
		tableRows[i] = map[string]any{
			"rank":              float64(i + 1),
			"product":           p.name,
			"sales":             sales,
			"quantity":          round2(p.quantity.InexactFloat64()),
			"orders":            float64(p.orders),
			"averagePrice":      round2(p.averagePrice()),
			"averageOrderValue": round2(p.averageOrderValue()),
			"percentage":        round2(percentage),
		}
	}

	topSales := 0.0
	if len(top) > 0 {
		topSales = top[0].sales.InexactFloat64()
	}

	return Result{
		HasData: st.HasNumericData(),
		Payload: &Payload{
			Type: model.AnalysisProducts,
			ChartData: []Chart{
				{
					Key:   "topProducts",
					Title: "Top Products by Revenue",
					Kind:  ChartPie,
					Series: ChartSeries{
						Labels:   labels,
						Datasets: []Dataset{{Label: "Revenue", Data: data, BackgroundColor: colors(len(labels))}},
					},
				},
			},
			TableData: &Table{
				Columns: []string{"rank", "product", "sales", "quantity", "orders", "averagePrice", "averageOrderValue", "percentage"},
				Rows:    tableRows,
			},
			Summary: []Metric{
				metric("totalRevenue", "Total Revenue", revenue.InexactFloat64()),
				metric("totalProducts", "Total Products", float64(len(ranked))),
				metric("totalQuantity", "Total Quantity", quantity.InexactFloat64()),
				metric("topProductSales", "Top Product Sales", topSales),
			},
			Stats: st,
		},
	}
}
