package warehouse

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/blob"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/orders"
	"github.com/rs/xid"
)

// Postgres fetches staged files from the blob store and loads them with COPY.
// Dataset maps to schema.
type Postgres struct {
	jobs.PostgresDialect
	log   logger.Logger
	pool  *pgxpool.Pool
	store blob.Store
}

func NewPostgres(ctx context.Context, log logger.Logger, cfg config.Warehouse, store blob.Store) (*Postgres, error) {
	if store == nil {
		return nil, errors.New("postgres needs a blob store to read staged files")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing postgres DSN")
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "error creating postgres pool")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "error connecting to postgres")
	}
	log.Info("Successful database connection to Postgres.")
	return &Postgres{log: log, pool: pool, store: store}, nil
}

func (p *Postgres) Load(ctx context.Context, job jobs.LoadJob) (Result, error) {
	res := Result{JobID: xid.New().String()}
	rows := make([][]interface{}, 0)
	for _, uri := range job.SourceURIs {
		key, err := objectKey(p.store, uri)
		if err != nil {
			return res, err
		}
		b, err := p.store.Get(ctx, key)
		if err != nil {
			return res, errors.Wrapf(err, "error fetching staged file %v", uri)
		}
		r, err := parseCSVRows(bytes.NewReader(b), job.Schema, job.SkipLeadingRows)
		if err != nil {
			return res, errors.Wrapf(err, "error parsing staged file %v", uri)
		}
		rows = append(rows, r...)
	}
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if job.CreateIfNeeded {
			if _, err := tx.Exec(ctx, fmt.Sprintf("create schema if not exists %v", pgx.Identifier{job.Destination.Dataset}.Sanitize())); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, postgresCreateTableSQL(p.QualifiedName(job.Destination), job.Schema)); err != nil {
				return err
			}
		}
		if job.WriteMode == jobs.WriteTruncate {
			if _, err := tx.Exec(ctx, fmt.Sprintf("truncate table %v", p.QualifiedName(job.Destination))); err != nil {
				return err
			}
		}
		cols := make([]string, len(job.Schema))
		for idx, c := range job.Schema {
			cols[idx] = c.Name
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{job.Destination.Dataset, job.Destination.Table}, cols, pgx.CopyFromRows(rows))
		if err != nil {
			return err
		}
		res.RowsAffected = n
		return nil
	})
	if err != nil {
		return res, errors.Wrapf(err, "%v failed loading %v", job.Name, job.Destination)
	}
	p.log.Info(job.Name, " rows affected: ", res.RowsAffected)
	return res, nil
}

func (p *Postgres) Query(ctx context.Context, job jobs.QueryJob) (Result, error) {
	res := Result{JobID: xid.New().String()}
	table := p.QualifiedName(job.Destination)
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		stmts := make([]string, 0, 2)
		if job.WriteMode == jobs.WriteTruncate {
			stmts = append(stmts, fmt.Sprintf("drop table if exists %v", table), fmt.Sprintf("create table %v as\n%v", table, job.SQL))
		} else {
			if job.CreateIfNeeded {
				stmts = append(stmts, fmt.Sprintf("create table if not exists %v as\n%v\nwith no data", table, job.SQL))
			}
			stmts = append(stmts, fmt.Sprintf("insert into %v\n%v", table, job.SQL))
		}
		for _, stmt := range stmts {
			p.log.Debug(job.Name, " executing query: ", stmt)
			ct, err := tx.Exec(ctx, stmt)
			if err != nil {
				return errors.Wrapf(err, "error executing SQL: '%v'", stmt)
			}
			res.RowsAffected = ct.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return res, errors.Wrapf(err, "%v failed", job.Name)
	}
	p.log.Info(job.Name, " rows affected: ", res.RowsAffected)
	return res, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

var postgresColumnTypes = map[string]string{
	"INTEGER": "bigint",
	"STRING":  "text",
	"FLOAT":   "double precision",
	"DATE":    "date",
}

func postgresCreateTableSQL(table string, cols []orders.Column) string {
	defs := make([]string, len(cols))
	for idx, c := range cols {
		defs[idx] = fmt.Sprintf("%v %v", pgx.Identifier{c.Name}.Sanitize(), postgresColumnTypes[c.Type])
		if c.Required {
			defs[idx] += " not null"
		}
	}
	return fmt.Sprintf("create table if not exists %v (%v)", table, strings.Join(defs, ", "))
}

// objectKey maps a URI produced by store.URI back to its key.
func objectKey(store blob.Store, uri string) (string, error) {
	root := store.URI("")
	if !strings.HasPrefix(uri, root) {
		return "", fmt.Errorf("source %v is not in the configured storage %v", uri, root)
	}
	return strings.TrimLeft(strings.TrimPrefix(uri, root), "/"), nil
}

// parseCSVRows converts CSV text into typed rows following cols.
// Empty values become nulls and are rejected for required columns.
func parseCSVRows(r io.Reader, cols []orders.Column, skip int64) ([][]interface{}, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(cols)
	retval := make([][]interface{}, 0)
	line := int64(0)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		line++
		if line <= skip {
			continue
		}
		row := make([]interface{}, len(cols))
		for idx, c := range cols {
			v, err := convertValue(rec[idx], c)
			if err != nil {
				return nil, fmt.Errorf("line %v column %v: %v", line, c.Name, err)
			}
			row[idx] = v
		}
		retval = append(retval, row)
	}
	return retval, nil
}

func convertValue(s string, c orders.Column) (interface{}, error) {
	if s == "" {
		if c.Required {
			return nil, errors.New("missing value for required column")
		}
		return nil, nil
	}
	switch c.Type {
	case "INTEGER":
		return strconv.ParseInt(s, 10, 64)
	case "FLOAT":
		return strconv.ParseFloat(s, 64)
	case "DATE":
		return time.Parse(constants.DateFormat, s)
	default:
		return s, nil
	}
}
