package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/relloyd/salespipe/orders"
)

// WriteMode says whether a job adds to or replaces the destination table.
type WriteMode int

const (
	WriteAppend WriteMode = iota
	WriteTruncate
)

var writeModeNames = map[WriteMode]string{
	WriteAppend:   "WRITE_APPEND",
	WriteTruncate: "WRITE_TRUNCATE",
}

func (w WriteMode) String() string {
	return writeModeNames[w]
}

func (w WriteMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

func (w *WriteMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for k, v := range writeModeNames {
		if v == s {
			*w = k
			return nil
		}
	}
	return fmt.Errorf("unknown write mode %q", s)
}

// SourceFormat is the file format of a load job source.
type SourceFormat string

const FormatCSV SourceFormat = "CSV"

// TableRef identifies a warehouse table.
// Project is optional for warehouses that scope tables by connection.
type TableRef struct {
	Project string `json:"project,omitempty"`
	Dataset string `json:"dataset"`
	Table   string `json:"table"`
}

func (t TableRef) String() string {
	if t.Project == "" {
		return fmt.Sprintf("%v.%v", t.Dataset, t.Table)
	}
	return fmt.Sprintf("%v.%v.%v", t.Project, t.Dataset, t.Table)
}

// LoadJob bulk loads staged files into a table.
type LoadJob struct {
	Name            string          `json:"name"`
	SourceURIs      []string        `json:"sourceUris"`
	Destination     TableRef        `json:"destination"`
	Format          SourceFormat    `json:"sourceFormat"`
	SkipLeadingRows int64           `json:"skipLeadingRows"`
	Schema          []orders.Column `json:"schema"`
	WriteMode       WriteMode       `json:"writeMode"`
	CreateIfNeeded  bool            `json:"createIfNeeded"`
}

// QueryJob materialises the result of SQL into a table.
type QueryJob struct {
	Name           string    `json:"name"`
	SQL            string    `json:"sql"`
	Destination    TableRef  `json:"destination"`
	WriteMode      WriteMode `json:"writeMode"`
	CreateIfNeeded bool      `json:"createIfNeeded"`
}

// Dialect renders SQL fragments for a warehouse.
type Dialect interface {
	Name() string
	QualifiedName(t TableRef) string
	CurrentTimestamp() string
}
