package jobs

import (
	"fmt"
	"strconv"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/orders"
)

// Job names as they appear in run status and logs.
const (
	LoadOrdersJobName       = "load_to_warehouse"
	CategorizeOrdersJobName = "transform_warehouse_data"
	LargeOrdersJobName      = "large_order_data"
)

func tableRef(w config.Warehouse, table string) TableRef {
	return TableRef{Project: w.Project, Dataset: w.Dataset, Table: table}
}

// NewLoadOrdersJob appends the staged CSV at sourceURI to the base table, skipping the header row.
func NewLoadOrdersJob(cfg config.Pipeline, sourceURI string) LoadJob {
	return LoadJob{
		Name:            LoadOrdersJobName,
		SourceURIs:      []string{sourceURI},
		Destination:     tableRef(cfg.Warehouse, cfg.Warehouse.BaseTable),
		Format:          FormatCSV,
		SkipLeadingRows: 1,
		Schema:          orders.Columns,
		WriteMode:       WriteAppend,
		CreateIfNeeded:  true,
	}
}

// NewCategorizeOrdersJob rebuilds the transformed table from the base table, labelling each order by amount.
func NewCategorizeOrdersJob(cfg config.Pipeline, d Dialect) QueryJob {
	c := cfg.Categories
	sql := fmt.Sprintf(`SELECT
    order_id,
    customer_name,
    order_amount,
    CASE
        WHEN order_amount < %[1]v THEN '%[3]v'
        WHEN order_amount BETWEEN %[1]v AND %[2]v THEN '%[4]v'
        ELSE '%[5]v'
    END AS order_category,
    order_date,
    product,
    %[6]v AS load_timestamp
FROM %[7]v`,
		formatAmount(c.SmallBelow), formatAmount(c.MediumMax),
		orders.CategorySmall, orders.CategoryMedium, orders.CategoryLarge,
		d.CurrentTimestamp(), d.QualifiedName(tableRef(cfg.Warehouse, cfg.Warehouse.BaseTable)))
	return QueryJob{
		Name:           CategorizeOrdersJobName,
		SQL:            sql,
		Destination:    tableRef(cfg.Warehouse, cfg.Warehouse.TransformedTable),
		WriteMode:      WriteTruncate,
		CreateIfNeeded: true,
	}
}

// NewLargeOrdersJob rebuilds the large orders table from the base table.
func NewLargeOrdersJob(cfg config.Pipeline, d Dialect) QueryJob {
	sql := fmt.Sprintf(`SELECT
    order_id,
    customer_name,
    order_amount,
    order_date,
    product,
    %v AS load_timestamp
FROM %v
WHERE order_amount >= %v`,
		d.CurrentTimestamp(), d.QualifiedName(tableRef(cfg.Warehouse, cfg.Warehouse.BaseTable)),
		formatAmount(cfg.Categories.LargeOrderMin))
	return QueryJob{
		Name:           LargeOrdersJobName,
		SQL:            sql,
		Destination:    tableRef(cfg.Warehouse, cfg.Warehouse.LargeOrdersTable),
		WriteMode:      WriteTruncate,
		CreateIfNeeded: true,
	}
}

// formatAmount writes 100 as "100" and 99.5 as "99.5".
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
