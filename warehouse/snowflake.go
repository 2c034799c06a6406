package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/orders"
	"github.com/rs/xid"
	sf "github.com/snowflakedb/gosnowflake"
)

// SnowflakeConnectionDetails are the parts of a snowflake:// DSN we log and validate.
type SnowflakeConnectionDetails struct {
	Account   string `errorTxt:"Snowflake account" mandatory:"yes"`
	DBName    string `errorTxt:"Snowflake db name" mandatory:"yes"`
	Schema    string `errorTxt:"Snowflake schema"`
	User      string `errorTxt:"Snowflake username" mandatory:"yes"`
	Password  string `errorTxt:"Snowflake password" mandatory:"yes"`
	Warehouse string `errorTxt:"Snowflake warehouse"`
	RoleName  string `errorTxt:"Snowflake role name"`
}

func (d SnowflakeConnectionDetails) String() string {
	return fmt.Sprintf("%v:%v@%v/%v?schema=%v&warehouse=%v&role=%v",
		d.User,
		"xxxxxxx",
		d.Account,
		d.DBName,
		d.Schema,
		d.Warehouse,
		d.RoleName,
	)
}

// SnowflakeParseDSN converts a Snowflake DSN into native connection details.
// The prefix 'snowflake://' is mandatory.
func SnowflakeParseDSN(d string) (*SnowflakeConnectionDetails, error) {
	re := regexp.MustCompile("^snowflake://")
	if !re.MatchString(d) {
		return nil, errors.New("unsupported Snowflake DSN format")
	}
	cfg, err := sf.ParseDSN(strings.TrimPrefix(d, "snowflake://"))
	if err != nil {
		return nil, err
	}
	retval := &SnowflakeConnectionDetails{
		User:      cfg.User,
		Password:  cfg.Password,
		Schema:    cfg.Schema,
		DBName:    cfg.Database,
		Account:   cfg.Account,
		RoleName:  cfg.Role,
		Warehouse: cfg.Warehouse,
	}
	if cfg.Region != "" { // if region exists in the parsed config...
		retval.Account = fmt.Sprintf("%v.%v", retval.Account, cfg.Region)
	}
	return retval, nil
}

// Snowflake loads staged files with COPY INTO and materialises queries with CTAS.
// Project maps to database and Dataset to schema.
type Snowflake struct {
	jobs.SnowflakeDialect
	log   logger.Logger
	db    *sql.DB
	stage string
}

func NewSnowflake(ctx context.Context, log logger.Logger, cfg config.Warehouse) (*Snowflake, error) {
	details, err := SnowflakeParseDSN(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing snowflake DSN")
	}
	db, err := sql.Open("snowflake", strings.TrimPrefix(cfg.DSN, "snowflake://"))
	if err != nil {
		return nil, errors.Wrap(err, "error opening snowflake connection")
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "error connecting to snowflake %v", details)
	}
	log.Info("Successful database connection to Snowflake.")
	return &Snowflake{log: log, db: db, stage: cfg.Stage}, nil
}

func (s *Snowflake) Load(ctx context.Context, job jobs.LoadJob) (Result, error) {
	stmts, err := snowflakeLoadStmts(s.QualifiedName(job.Destination), s.stage, job)
	if err != nil {
		return Result{}, err
	}
	return s.execInTx(ctx, job.Name, job.Destination, stmts, false)
}

func (s *Snowflake) Query(ctx context.Context, job jobs.QueryJob) (Result, error) {
	stmts, countTarget := snowflakeQueryStmts(s.QualifiedName(job.Destination), job)
	return s.execInTx(ctx, job.Name, job.Destination, stmts, countTarget)
}

func (s *Snowflake) Close() error {
	return s.db.Close()
}

// snowflakeStmt is one statement of a job. Counted statements contribute their rows affected to the job result.
type snowflakeStmt struct {
	sql     string
	counted bool
}

// execInTx runs stmts in one transaction with autocommit off.
// The result holds the rows affected by counted statements, or the row count of target when countTarget is set.
func (s *Snowflake) execInTx(ctx context.Context, name string, target jobs.TableRef, stmts []snowflakeStmt, countTarget bool) (Result, error) {
	res := Result{JobID: xid.New().String()}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, errors.Wrapf(err, "%v received error starting Snowflake transaction", name)
	}
	rollbackRequired := true
	defer func() {
		if rollbackRequired {
			if e := tx.Rollback(); e != nil {
				s.log.Warn(name, " received error while executing rollback: ", e)
			} else {
				s.log.Info(name, " rollback complete")
			}
		}
	}()
	stmts = append([]snowflakeStmt{{sql: "alter session set autocommit = false"}}, stmts...)
	results := make([]sql.Result, len(stmts))
	for idx, stmt := range stmts {
		s.log.Debug(name, " executing query: ", stmt.sql)
		r, err := tx.ExecContext(ctx, stmt.sql)
		if err != nil {
			return res, errors.Wrapf(err, "%v error received while executing SQL: '%v'", name, stmt.sql)
		}
		results[idx] = r
	}
	if countTarget {
		if err = tx.QueryRowContext(ctx, fmt.Sprintf("select count(*) from %v", s.QualifiedName(target))).Scan(&res.RowsAffected); err != nil {
			return res, errors.Wrapf(err, "%v error counting rows in %v", name, target)
		}
	} else {
		res.RowsAffected = sumRowsAffected(stmts, results)
	}
	s.log.Info(name, " rows affected: ", res.RowsAffected)
	if err = tx.Commit(); err != nil {
		return res, errors.Wrapf(err, "%v received error while executing commit", name)
	}
	rollbackRequired = false
	s.log.Debug(name, " commit complete")
	return res, nil
}

// sumRowsAffected adds up the rows affected by counted statements. Drivers that can't report a count add nothing.
func sumRowsAffected(stmts []snowflakeStmt, results []sql.Result) (total int64) {
	for idx, stmt := range stmts {
		if !stmt.counted || results[idx] == nil {
			continue
		}
		if i, err := results[idx].RowsAffected(); err == nil {
			total += i
		}
	}
	return total
}

// snowflakeLoadStmts builds the statements of a load job. Only the copy into statements are counted
// so an append reports the rows loaded by this job rather than the size of the table.
func snowflakeLoadStmts(table string, stage string, job jobs.LoadJob) ([]snowflakeStmt, error) {
	var stmts []snowflakeStmt
	if job.CreateIfNeeded {
		stmts = append(stmts, snowflakeStmt{sql: snowflakeCreateTableSQL(table, job.Schema)})
	}
	if job.WriteMode == jobs.WriteTruncate {
		stmts = append(stmts, snowflakeStmt{sql: fmt.Sprintf("delete from %v", table)})
	}
	for _, uri := range job.SourceURIs {
		p, err := stagePath(uri)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, snowflakeStmt{sql: snowflakeCopyIntoSQL(table, stage, p, job.SkipLeadingRows), counted: true})
	}
	return stmts, nil
}

// snowflakeQueryStmts builds the statements of a query job.
// A create or replace doesn't report rows so truncating jobs count the target table instead.
func snowflakeQueryStmts(table string, job jobs.QueryJob) (stmts []snowflakeStmt, countTarget bool) {
	sqls := snowflakeMaterializeSQL(table, job)
	stmts = make([]snowflakeStmt, len(sqls))
	for idx, q := range sqls {
		stmts[idx] = snowflakeStmt{sql: q, counted: strings.HasPrefix(q, "insert into ")}
	}
	return stmts, job.WriteMode == jobs.WriteTruncate
}

var snowflakeColumnTypes = map[string]string{
	"INTEGER": "integer",
	"STRING":  "varchar",
	"FLOAT":   "float",
	"DATE":    "date",
}

func snowflakeCreateTableSQL(table string, cols []orders.Column) string {
	defs := make([]string, len(cols))
	for idx, c := range cols {
		defs[idx] = fmt.Sprintf("%v %v", c.Name, snowflakeColumnTypes[c.Type])
		if c.Required {
			defs[idx] += " not null"
		}
	}
	return fmt.Sprintf("create table if not exists %v (%v)", table, strings.Join(defs, ", "))
}

// snowflakeCopyIntoSQL loads a file from an external stage.
// Force is always on since the staged object is overwritten at the same path every run.
func snowflakeCopyIntoSQL(table string, stage string, fileName string, skipHeader int64) string {
	return fmt.Sprintf("copy into %v from '@%v/%v' file_format = (type = csv skip_header = %v field_optionally_enclosed_by = '\"') force = true",
		table, strings.TrimPrefix(stage, "@"), fileName, skipHeader)
}

func snowflakeMaterializeSQL(table string, job jobs.QueryJob) []string {
	if job.WriteMode == jobs.WriteTruncate {
		return []string{fmt.Sprintf("create or replace table %v as\n%v", table, job.SQL)}
	}
	stmts := make([]string, 0, 2)
	if job.CreateIfNeeded {
		stmts = append(stmts, fmt.Sprintf("create table if not exists %v as\n%v\nlimit 0", table, job.SQL))
	}
	return append(stmts, fmt.Sprintf("insert into %v\n%v", table, job.SQL))
}

// stagePath returns the object path of uri relative to its bucket.
// The external stage is expected to point at the bucket root.
func stagePath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Wrapf(err, "error parsing source URI %v", uri)
	}
	if u.Scheme != "s3" && u.Scheme != "gs" {
		return "", fmt.Errorf("snowflake cannot load from %q, use s3 or gcs storage", uri)
	}
	return strings.TrimPrefix(u.Path, "/"), nil
}
