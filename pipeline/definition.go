package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ghodss/yaml"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/orders"
)

type TaskType string

const (
	TaskTypeEmpty    TaskType = "empty"
	TaskTypeGenerate TaskType = "generate"
	TaskTypeLoad     TaskType = "load"
	TaskTypeQuery    TaskType = "query"
)

// Task ids in run order.
const (
	TaskStart                  = "start"
	TaskGenerateSalesData      = "generate_sales_data"
	TaskLoadToWarehouse        = jobs.LoadOrdersJobName
	TaskTransformWarehouseData = jobs.CategorizeOrdersJobName
	TaskLargeOrderData         = jobs.LargeOrdersJobName
	TaskEnd                    = "end"
)

// Definition is the static shape of a pipeline: its tasks and the order they run in.
type Definition struct {
	Name        string          `json:"name" errorTxt:"pipeline name" mandatory:"yes"`
	Description string          `json:"description"`
	Schedule    config.Schedule `json:"schedule"`
	Tasks       map[string]Task `json:"tasks" errorTxt:"tasks" mandatory:"yes"`
	Sequence    []string        `json:"sequence" errorTxt:"sequence" mandatory:"yes"`

	// UpcomingRuns are the next scheduled tick times, filled in by callers that print a plan.
	UpcomingRuns []time.Time `json:"upcomingRuns,omitempty"`
}

type Task struct {
	Type     TaskType       `json:"type"`
	Upstream []string       `json:"upstream,omitempty"`
	Generate *GenerateSpec  `json:"generate,omitempty"`
	Load     *jobs.LoadJob  `json:"load,omitempty"`
	Query    *jobs.QueryJob `json:"query,omitempty"`
}

// GenerateSpec describes the synthetic CSV written and staged by a generate task.
type GenerateSpec struct {
	NumOrders   int             `json:"numOrders"`
	Columns     []orders.Column `json:"columns"`
	ObjectPath  string          `json:"objectPath"`
	ObjectURI   string          `json:"objectUri"`
	ContentType string          `json:"contentType"`
}

// NewDefinition builds the sales orders chain for cfg.
// sourceURI is where the generate task stages its CSV and where the load task reads it from.
func NewDefinition(cfg config.Pipeline, d jobs.Dialect, sourceURI string) *Definition {
	load := jobs.NewLoadOrdersJob(cfg, sourceURI)
	categorize := jobs.NewCategorizeOrdersJob(cfg, d)
	large := jobs.NewLargeOrdersJob(cfg, d)
	def := &Definition{
		Name:        cfg.Name,
		Description: cfg.Description,
		Schedule:    cfg.Schedule,
		Sequence: []string{
			TaskStart,
			TaskGenerateSalesData,
			TaskLoadToWarehouse,
			TaskTransformWarehouseData,
			TaskLargeOrderData,
			TaskEnd,
		},
		Tasks: map[string]Task{
			TaskStart: {Type: TaskTypeEmpty},
			TaskGenerateSalesData: {Type: TaskTypeGenerate, Generate: &GenerateSpec{
				NumOrders:   cfg.Generator.NumOrders,
				Columns:     orders.Columns,
				ObjectPath:  cfg.Storage.ObjectPath,
				ObjectURI:   sourceURI,
				ContentType: cfg.Storage.ContentType,
			}},
			TaskLoadToWarehouse:        {Type: TaskTypeLoad, Load: &load},
			TaskTransformWarehouseData: {Type: TaskTypeQuery, Query: &categorize},
			TaskLargeOrderData:         {Type: TaskTypeQuery, Query: &large},
			TaskEnd:                    {Type: TaskTypeEmpty},
		},
	}
	// Each task depends on the one before it.
	for idx := 1; idx < len(def.Sequence); idx++ {
		t := def.Tasks[def.Sequence[idx]]
		t.Upstream = []string{def.Sequence[idx-1]}
		def.Tasks[def.Sequence[idx]] = t
	}
	return def
}

// Validate checks that every task in the sequence is defined with the job its type needs.
func (d *Definition) Validate() error {
	if err := helper.ValidateStructIsPopulated(d); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, name := range d.Sequence {
		if seen[name] {
			return fmt.Errorf("task %q appears more than once in the sequence", name)
		}
		seen[name] = true
		t, ok := d.Tasks[name]
		if !ok {
			return fmt.Errorf("undefined task %q in the sequence", name)
		}
		for _, up := range t.Upstream {
			if !seen[up] || up == name {
				return fmt.Errorf("task %q must run after its upstream task %q", name, up)
			}
		}
		switch t.Type {
		case TaskTypeEmpty:
		case TaskTypeGenerate:
			if t.Generate == nil {
				return fmt.Errorf("generate task %q is missing its generate spec", name)
			}
		case TaskTypeLoad:
			if t.Load == nil {
				return fmt.Errorf("load task %q is missing its load job", name)
			}
		case TaskTypeQuery:
			if t.Query == nil {
				return fmt.Errorf("query task %q is missing its query job", name)
			}
		default:
			return fmt.Errorf("unsupported task type %q for task %q", t.Type, name)
		}
	}
	for name := range d.Tasks {
		if !seen[name] {
			return fmt.Errorf("task %q is not in the sequence", name)
		}
	}
	return nil
}

func (d *Definition) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func (d *Definition) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}
