//go:generate mockgen -package mocks -destination mocks/warehouse.go -source=warehouse.go
package warehouse

import (
	"context"
	"fmt"

	"github.com/relloyd/salespipe/blob"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/logger"
)

// Warehouse runs load and query jobs.
type Warehouse interface {
	jobs.Dialect
	// Load runs job and blocks until it completes or ctx is cancelled.
	Load(ctx context.Context, job jobs.LoadJob) (Result, error)
	// Query materialises job.SQL into job.Destination.
	Query(ctx context.Context, job jobs.QueryJob) (Result, error)
	Close() error
}

// Result describes a finished job.
type Result struct {
	JobID        string `json:"jobId"`
	RowsAffected int64  `json:"rowsAffected"`
}

// Open connects to the warehouse named by cfg.Warehouse.Type.
// The store is used by warehouses that can't read staged files themselves.
func Open(ctx context.Context, log logger.Logger, cfg config.Pipeline, store blob.Store) (Warehouse, error) {
	switch cfg.Warehouse.Type {
	case constants.WarehouseTypeBigQuery:
		return NewBigQuery(ctx, log, cfg.Warehouse)
	case constants.WarehouseTypeSnowflake:
		return NewSnowflake(ctx, log, cfg.Warehouse)
	case constants.WarehouseTypePostgres:
		return NewPostgres(ctx, log, cfg.Warehouse, store)
	default:
		return nil, fmt.Errorf("unsupported warehouse type %q", cfg.Warehouse.Type)
	}
}

// DialectFor returns the SQL dialect of a warehouse type without connecting to it.
func DialectFor(warehouseType string) (jobs.Dialect, error) {
	switch warehouseType {
	case constants.WarehouseTypeBigQuery:
		return jobs.BigQueryDialect{}, nil
	case constants.WarehouseTypeSnowflake:
		return jobs.SnowflakeDialect{}, nil
	case constants.WarehouseTypePostgres:
		return jobs.PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported warehouse type %q", warehouseType)
	}
}
