package constants

// Component

const (
	ChanSize                     = 1000
	StatsCaptureFrequencySeconds = 5
	TimeFormatYearSeconds        = "20060102T150405" // used for human readable file names
	TimeFormatYearSecondsRegex   = "[0-9]{4}[0-9]{2}[0-9]{2}T[0-9]{6}"
	TimeFormatYearSecondsTZ      = "20060102T150405-0700"
	DateFormat                   = "2006-01-02" // order_date as written to CSV and loaded as DATE.
	EmojiBang                    = "\U0001F4A5"
	EnvVarPrefix                 = "SP" // prefixed for environment variables in twelveFactorMode
	ServiceName                  = "salespipe"
)

// Storage and warehouse types.

const (
	StorageTypeGCS          = "gcs"
	StorageTypeS3           = "s3"
	StorageTypeFile         = "file"
	WarehouseTypeBigQuery   = "bigquery"
	WarehouseTypeSnowflake  = "snowflake"
	WarehouseTypePostgres   = "postgres"
	ContentTypeCSV          = "text/csv"
	DefaultObjectPath       = "sales_data/orders.csv"
	DefaultPipelineName     = "sales_orders_to_warehouse_with_transformation"
	DefaultCronSchedule     = "*/5 * * * *"
	DefaultNumOrders        = 500
	DefaultMaxRunHistory    = 100
	DefaultRetryDelaySecond = 300
	DefaultPlanUpcomingRuns = 3
)
