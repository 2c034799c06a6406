package jobs

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BigQueryDialect quotes tables as `project.dataset.table`.
type BigQueryDialect struct{}

func (BigQueryDialect) Name() string { return "bigquery" }

func (BigQueryDialect) QualifiedName(t TableRef) string {
	return fmt.Sprintf("`%v`", t.String())
}

func (BigQueryDialect) CurrentTimestamp() string { return "CURRENT_TIMESTAMP()" }

// SnowflakeDialect maps project to database and dataset to schema.
type SnowflakeDialect struct{}

func (SnowflakeDialect) Name() string { return "snowflake" }

func (SnowflakeDialect) QualifiedName(t TableRef) string {
	return t.String()
}

func (SnowflakeDialect) CurrentTimestamp() string { return "CURRENT_TIMESTAMP()" }

// PostgresDialect maps dataset to schema. Project is ignored as the connection picks the database.
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return "postgres" }

func (PostgresDialect) QualifiedName(t TableRef) string {
	return pgx.Identifier{t.Dataset, t.Table}.Sanitize()
}

func (PostgresDialect) CurrentTimestamp() string { return "CURRENT_TIMESTAMP" }
