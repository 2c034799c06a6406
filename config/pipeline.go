package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/robfig/cron/v3"
	"github.com/xo/dburl"
)

// CronParser accepts standard five field expressions.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Pipeline is everything a run of the sales orders pipeline needs to know.
type Pipeline struct {
	Name        string     `json:"name" mapstructure:"name" errorTxt:"pipeline name" mandatory:"yes"`
	Description string     `json:"description" mapstructure:"description"`
	Schedule    Schedule   `json:"schedule" mapstructure:"schedule"`
	Generator   Generator  `json:"generator" mapstructure:"generator"`
	Storage     Storage    `json:"storage" mapstructure:"storage"`
	Warehouse   Warehouse  `json:"warehouse" mapstructure:"warehouse"`
	Categories  Categories `json:"categories" mapstructure:"categories"`
}

type Schedule struct {
	Cron          string   `json:"cron" mapstructure:"cron" errorTxt:"schedule cron expression" mandatory:"yes"`
	StartDate     string   `json:"startDate,omitempty" mapstructure:"startDate"`
	Catchup       bool     `json:"catchup" mapstructure:"catchup"`
	DependsOnPast bool     `json:"dependsOnPast" mapstructure:"dependsOnPast"`
	Retries       int      `json:"retries" mapstructure:"retries"`
	RetryDelay    Duration `json:"retryDelay" mapstructure:"retryDelay"`
	MaxRunHistory int      `json:"maxRunHistory" mapstructure:"maxRunHistory"`
}

type Generator struct {
	NumOrders    int     `json:"numOrders" mapstructure:"numOrders"`
	MinAmount    float64 `json:"minAmount" mapstructure:"minAmount"`
	MaxAmount    float64 `json:"maxAmount" mapstructure:"maxAmount"`
	LookbackDays int     `json:"lookbackDays" mapstructure:"lookbackDays"`
	Seed         int64   `json:"seed" mapstructure:"seed"`
}

type Storage struct {
	Type            string `json:"type" mapstructure:"type" errorTxt:"storage type" mandatory:"yes"`
	Bucket          string `json:"bucket" mapstructure:"bucket" errorTxt:"storage bucket" mandatory:"yes"`
	ObjectPath      string `json:"objectPath" mapstructure:"objectPath" errorTxt:"storage object path" mandatory:"yes"`
	ContentType     string `json:"contentType" mapstructure:"contentType"`
	Region          string `json:"region,omitempty" mapstructure:"region"`
	CredentialsFile string `json:"credentialsFile,omitempty" mapstructure:"credentialsFile"`
}

type Warehouse struct {
	Type             string `json:"type" mapstructure:"type" errorTxt:"warehouse type" mandatory:"yes"`
	Project          string `json:"project,omitempty" mapstructure:"project"`
	Dataset          string `json:"dataset" mapstructure:"dataset" errorTxt:"warehouse dataset" mandatory:"yes"`
	BaseTable        string `json:"baseTable" mapstructure:"baseTable" errorTxt:"base table" mandatory:"yes"`
	TransformedTable string `json:"transformedTable" mapstructure:"transformedTable" errorTxt:"transformed table" mandatory:"yes"`
	LargeOrdersTable string `json:"largeOrdersTable" mapstructure:"largeOrdersTable" errorTxt:"large orders table" mandatory:"yes"`
	DSN              string `json:"dsn,omitempty" mapstructure:"dsn"`
	Stage            string `json:"stage,omitempty" mapstructure:"stage"`
	Location         string `json:"location,omitempty" mapstructure:"location"`
	CredentialsFile  string `json:"credentialsFile,omitempty" mapstructure:"credentialsFile"`
}

// Categories holds the order amount thresholds used by the transforms.
// An amount equal to MediumMax is both Medium and large when LargeOrderMin == MediumMax.
type Categories struct {
	SmallBelow    float64 `json:"smallBelow" mapstructure:"smallBelow"`
	MediumMax     float64 `json:"mediumMax" mapstructure:"mediumMax"`
	LargeOrderMin float64 `json:"largeOrderMin" mapstructure:"largeOrderMin"`
}

// Duration is a time.Duration that reads and writes strings like "5m".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		d.Duration = time.Duration(x) * time.Second
	case string:
		p, err := time.ParseDuration(x)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %v", x, err)
		}
		d.Duration = p
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// Default returns 500 orders every five minutes, retried once, staged to GCS and loaded into BigQuery.
func Default() Pipeline {
	return Pipeline{
		Name:        constants.DefaultPipelineName,
		Description: "Generate sales data, load to the warehouse, and transform it",
		Schedule: Schedule{
			Cron:          constants.DefaultCronSchedule,
			Catchup:       false,
			DependsOnPast: true,
			Retries:       1,
			RetryDelay:    Duration{constants.DefaultRetryDelaySecond * time.Second},
			MaxRunHistory: constants.DefaultMaxRunHistory,
		},
		Generator: Generator{
			NumOrders:    constants.DefaultNumOrders,
			MinAmount:    10,
			MaxAmount:    1000,
			LookbackDays: 30,
		},
		Storage: Storage{
			Type:        constants.StorageTypeGCS,
			ObjectPath:  constants.DefaultObjectPath,
			ContentType: constants.ContentTypeCSV,
		},
		Warehouse: Warehouse{
			Type:             constants.WarehouseTypeBigQuery,
			Dataset:          "sales_dataset",
			BaseTable:        "sales_orders",
			TransformedTable: "transformed_sales_orders",
			LargeOrdersTable: "large_orders",
		},
		Categories: Categories{
			SmallBelow:    100,
			MediumMax:     500,
			LargeOrderMin: 500,
		},
	}
}

// Load reads a YAML or JSON pipeline file on top of the defaults.
func Load(fileName string) (Pipeline, error) {
	p := Default()
	b, err := os.ReadFile(fileName)
	if os.IsNotExist(err) {
		return p, FileNotFoundError{name: fileName}
	} else if err != nil {
		return p, errors.Wrapf(err, "error reading pipeline config %v", fileName)
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &p)
	case ".json":
		err = json.Unmarshal(b, &p)
	default:
		return p, fmt.Errorf("unsupported pipeline config file type %q, use .yaml or .json", filepath.Ext(fileName))
	}
	if err != nil {
		return p, errors.Wrapf(err, "error parsing pipeline config %v", fileName)
	}
	return p, nil
}

// StartTime returns the parsed Schedule.StartDate, or the zero time if it's unset.
// Both YYYY-MM-DD and RFC3339 are accepted. Dates are midnight UTC.
func (s Schedule) StartTime() (time.Time, error) {
	if s.StartDate == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(constants.DateFormat, s.StartDate); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule start date %q, use YYYY-MM-DD or RFC3339", s.StartDate)
	}
	return t, nil
}

// Validate checks mandatory fields and the combinations of storage and warehouse that can work together.
func (p Pipeline) Validate() error {
	if err := helper.ValidateStructIsPopulated(p); err != nil {
		return err
	}
	// Schedule.
	if _, err := CronParser.Parse(p.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %v", p.Schedule.Cron, err)
	}
	if p.Schedule.Catchup {
		return errors.New("catchup is not supported, missed intervals are never replayed")
	}
	if p.Schedule.Retries < 0 {
		return fmt.Errorf("retries must be zero or more, got %v", p.Schedule.Retries)
	}
	if p.Schedule.RetryDelay.Duration < 0 {
		return fmt.Errorf("retry delay must not be negative, got %v", p.Schedule.RetryDelay)
	}
	if _, err := p.Schedule.StartTime(); err != nil {
		return err
	}
	// Generator.
	g := p.Generator
	if g.NumOrders <= 0 {
		return fmt.Errorf("number of orders must be positive, got %v", g.NumOrders)
	}
	if g.MinAmount < 0 || g.MinAmount > g.MaxAmount {
		return fmt.Errorf("invalid order amount range [%v, %v]", g.MinAmount, g.MaxAmount)
	}
	if g.LookbackDays < 0 {
		return fmt.Errorf("lookback days must not be negative, got %v", g.LookbackDays)
	}
	// Categories.
	c := p.Categories
	if c.SmallBelow <= 0 || c.MediumMax <= 0 || c.LargeOrderMin <= 0 {
		return errors.New("category thresholds must be positive")
	}
	if c.SmallBelow > c.MediumMax {
		return fmt.Errorf("small threshold %v must not exceed medium maximum %v", c.SmallBelow, c.MediumMax)
	}
	// Storage.
	if strings.HasPrefix(p.Storage.ObjectPath, "/") {
		return fmt.Errorf("object path %q must be relative to the bucket", p.Storage.ObjectPath)
	}
	switch p.Storage.Type {
	case constants.StorageTypeGCS, constants.StorageTypeFile:
	case constants.StorageTypeS3:
		if p.Storage.Region == "" {
			return errors.New("please supply a region for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage type %q", p.Storage.Type)
	}
	// Warehouse.
	switch p.Warehouse.Type {
	case constants.WarehouseTypeBigQuery:
		if p.Storage.Type != constants.StorageTypeGCS {
			return fmt.Errorf("bigquery loads from gcs storage only, got %q", p.Storage.Type)
		}
		if p.Warehouse.Project == "" {
			return errors.New("please supply a project for bigquery")
		}
	case constants.WarehouseTypeSnowflake:
		if !strings.HasPrefix(p.Warehouse.DSN, "snowflake://") {
			return errors.New("please supply a snowflake:// DSN for snowflake")
		}
		if p.Warehouse.Stage == "" {
			return errors.New("please supply an external stage for snowflake")
		}
		if p.Storage.Type == constants.StorageTypeFile {
			return errors.New("snowflake cannot load from local file storage")
		}
	case constants.WarehouseTypePostgres:
		u, err := dburl.Parse(p.Warehouse.DSN)
		if err != nil {
			return fmt.Errorf("invalid postgres DSN: %v", err)
		}
		if u.Driver != "postgres" {
			return fmt.Errorf("expected a postgres DSN, got driver %q", u.Driver)
		}
	default:
		return fmt.Errorf("unsupported warehouse type %q", p.Warehouse.Type)
	}
	return nil
}
