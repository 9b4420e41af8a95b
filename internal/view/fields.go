package view

// Candidate source columns, in priority order. The first column holding a
// usable value wins.
var (
	OverviewValueFields = []string{"amount", "price", "total"}
	SalesAmountFields   = []string{"amount", "total", "price"}
	DateFields          = []string{"date", "Date", "createdAt", "created_at", "orderDate", "order_date"}
	ProductNameFields   = []string{"product", "name"}
	PriceFields         = []string{"price"}
	QuantityFields      = []string{"quantity"}
	StatusFields        = []string{"status"}
	CategoryFields      = []string{"category"}
	CustomerFields      = []string{"customer"}
)

const (
	StatusCompleted = "Completed"
	StatusPending   = "Pending"
	StatusCancelled = "Cancelled"

	DefaultProduct  = "Unknown"
	DefaultCategory = "Uncategorized"
	DefaultCustomer = "Anonymous"
	DefaultDate     = "N/A"
)
