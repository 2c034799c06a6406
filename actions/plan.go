package actions

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/relloyd/salespipe/blob"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/pipeline"
	"github.com/relloyd/salespipe/scheduler"
	"github.com/relloyd/salespipe/warehouse"
)

const (
	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
)

type PlanConfig struct {
	ConfigFile   string
	FromEnv      bool
	OutputFormat string `errorTxt:"output" mandatory:"yes"`
	UpcomingRuns int // number of future tick times to list; 0 uses the default.
	Now          func() time.Time
	Writer       io.Writer
}

// RunPlan prints the pipeline definition, including its load and query jobs, without connecting to anything.
func RunPlan(cfg *PlanConfig) error {
	if cfg == nil {
		return fmt.Errorf("nil pointer to plan config supplied")
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	p, err := loadPipelineConfig(cfg.ConfigFile, cfg.FromEnv)
	if err != nil {
		return err
	}
	if err = p.Validate(); err != nil {
		return err
	}
	d, err := warehouse.DialectFor(p.Warehouse.Type)
	if err != nil {
		return err
	}
	uri, err := blob.URIFor(p.Storage, p.Storage.ObjectPath)
	if err != nil {
		return err
	}
	def := pipeline.NewDefinition(p, d, uri)
	if err = def.Validate(); err != nil {
		return err
	}
	if def.UpcomingRuns, err = upcomingRuns(cfg, p.Schedule); err != nil {
		return err
	}
	var b []byte
	switch strings.ToLower(cfg.OutputFormat) {
	case OutputFormatYAML:
		b, err = def.YAML()
	case OutputFormatJSON:
		b, err = def.JSON()
	default:
		return fmt.Errorf("unsupported output format %q, use %q or %q", cfg.OutputFormat, OutputFormatYAML, OutputFormatJSON)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(string(b), "\n"))
	return err
}

// upcomingRuns lists the next ticks from now, or from the start date when that's later.
func upcomingRuns(cfg *PlanConfig, s config.Schedule) ([]time.Time, error) {
	n := cfg.UpcomingRuns
	if n <= 0 {
		n = constants.DefaultPlanUpcomingRuns
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	from := now()
	start, err := s.StartTime()
	if err != nil {
		return nil, err
	}
	if start.After(from) {
		from = start.Add(-time.Second)
	}
	return scheduler.NextRuns(s.Cron, from, n)
}
