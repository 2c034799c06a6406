package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/relloyd/salespipe/blob"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/orders"
	"github.com/relloyd/salespipe/warehouse"
)

type fakeRow struct {
	orderID  int64
	amount   float64
	category string
}

// fakeWarehouse keeps tables in memory and evaluates the sales order jobs the way the SQL would.
type fakeWarehouse struct {
	jobs.PostgresDialect
	mu           sync.Mutex
	store        blob.Store
	objectKey    string
	baseTable    string
	categories   config.Categories
	tables       map[string][]fakeRow
	loadFailures int  // number of loads to fail before succeeding.
	blockLoads   bool // block loads until ctx is cancelled.
	loadStarted  chan struct{}
	loads        int
	queries      int
}

func newFakeWarehouse(store blob.Store, cfg config.Pipeline) *fakeWarehouse {
	return &fakeWarehouse{
		store:       store,
		objectKey:   cfg.Storage.ObjectPath,
		baseTable:   jobs.TableRef{Project: cfg.Warehouse.Project, Dataset: cfg.Warehouse.Dataset, Table: cfg.Warehouse.BaseTable}.String(),
		categories:  cfg.Categories,
		tables:      make(map[string][]fakeRow),
		loadStarted: make(chan struct{}, 10),
	}
}

func (w *fakeWarehouse) Load(ctx context.Context, job jobs.LoadJob) (warehouse.Result, error) {
	w.mu.Lock()
	w.loads++
	fail := w.loadFailures > 0
	if fail {
		w.loadFailures--
	}
	w.mu.Unlock()
	w.loadStarted <- struct{}{}
	if w.blockLoads {
		<-ctx.Done()
		return warehouse.Result{}, ctx.Err()
	}
	if fail {
		return warehouse.Result{}, errors.New("load failed")
	}
	b, err := w.store.Get(ctx, w.objectKey)
	if err != nil {
		return warehouse.Result{}, err
	}
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		return warehouse.Result{}, err
	}
	rows := make([]fakeRow, 0)
	for _, rec := range records[job.SkipLeadingRows:] {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return warehouse.Result{}, fmt.Errorf("bad order_id %q", rec[0])
		}
		amount, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return warehouse.Result{}, fmt.Errorf("bad order_amount %q", rec[2])
		}
		rows = append(rows, fakeRow{orderID: id, amount: amount})
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	key := job.Destination.String()
	if job.WriteMode == jobs.WriteTruncate {
		w.tables[key] = nil
	}
	w.tables[key] = append(w.tables[key], rows...)
	return warehouse.Result{JobID: fmt.Sprintf("load-%v", w.loads), RowsAffected: int64(len(rows))}, nil
}

func (w *fakeWarehouse) Query(ctx context.Context, job jobs.QueryJob) (warehouse.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queries++
	base := w.tables[w.baseTable]
	out := make([]fakeRow, 0)
	for _, r := range base {
		switch job.Name {
		case jobs.CategorizeOrdersJobName:
			r.category = orders.Category(r.amount, w.categories)
			out = append(out, r)
		case jobs.LargeOrdersJobName:
			if orders.IsLarge(r.amount, w.categories) {
				out = append(out, r)
			}
		}
	}
	if job.WriteMode == jobs.WriteTruncate {
		w.tables[job.Destination.String()] = out
	} else {
		w.tables[job.Destination.String()] = append(w.tables[job.Destination.String()], out...)
	}
	return warehouse.Result{JobID: fmt.Sprintf("query-%v", w.queries), RowsAffected: int64(len(out))}, nil
}

func (w *fakeWarehouse) Close() error {
	return nil
}

func (w *fakeWarehouse) table(name string) []fakeRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, v := range w.tables {
		if k == name || bytes.HasSuffix([]byte(k), []byte("."+name)) {
			return append([]fakeRow(nil), v...)
		}
	}
	return nil
}
