package orders

import (
	"math"
	"strconv"
	"time"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/stream"
)

// Field names in CSV header order.
const (
	FieldOrderID      = "order_id"
	FieldCustomerName = "customer_name"
	FieldOrderAmount  = "order_amount"
	FieldOrderDate    = "order_date"
	FieldProduct      = "product"
)

// Category labels.
const (
	CategorySmall  = "Small"
	CategoryMedium = "Medium"
	CategoryLarge  = "Large"
)

// Order is one synthetic sale.
type Order struct {
	OrderID      int64
	CustomerName string
	OrderAmount  float64
	OrderDate    time.Time // date only, midnight UTC.
	Product      string
}

// Column describes one column of the base table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Columns is the load schema of the base table.
var Columns = []Column{
	{Name: FieldOrderID, Type: "INTEGER", Required: true},
	{Name: FieldCustomerName, Type: "STRING"},
	{Name: FieldOrderAmount, Type: "FLOAT"},
	{Name: FieldOrderDate, Type: "DATE"},
	{Name: FieldProduct, Type: "STRING"},
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	retval := make([]string, len(cols))
	for idx, c := range cols {
		retval[idx] = c.Name
	}
	return retval
}

// ToRecord converts o to a stream.Record whose fields follow Columns.
// Amounts are fixed to 2 decimal places and dates are YYYY-MM-DD.
func (o Order) ToRecord() stream.Record {
	rec := stream.NewRecord()
	rec.SetData(FieldOrderID, o.OrderID)
	rec.SetData(FieldCustomerName, o.CustomerName)
	rec.SetData(FieldOrderAmount, strconv.FormatFloat(o.OrderAmount, 'f', 2, 64))
	rec.SetData(FieldOrderDate, o.OrderDate.Format(constants.DateFormat))
	rec.SetData(FieldProduct, o.Product)
	return rec
}

// RoundAmount rounds x to 2 decimal places.
func RoundAmount(x float64) float64 {
	return math.Round(x*100) / 100
}

// Category returns the label the categorize transform assigns to amount.
// Small is below SmallBelow and Medium is the inclusive range [SmallBelow, MediumMax].
func Category(amount float64, c config.Categories) string {
	switch {
	case amount < c.SmallBelow:
		return CategorySmall
	case amount >= c.SmallBelow && amount <= c.MediumMax:
		return CategoryMedium
	default:
		return CategoryLarge
	}
}

// IsLarge reports whether the large orders transform keeps amount.
// With default thresholds an amount of exactly 500 is Medium and large at the same time.
func IsLarge(amount float64, c config.Categories) bool {
	return amount >= c.LargeOrderMin
}
