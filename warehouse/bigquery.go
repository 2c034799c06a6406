package warehouse

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/jobs"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/orders"
	"google.golang.org/api/option"
)

// BigQuery runs jobs through the BigQuery jobs API.
type BigQuery struct {
	jobs.BigQueryDialect
	log    logger.Logger
	client *bigquery.Client
}

func NewBigQuery(ctx context.Context, log logger.Logger, cfg config.Warehouse) (*BigQuery, error) {
	opts := make([]option.ClientOption, 0)
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.Project, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error creating bigquery client")
	}
	client.Location = cfg.Location
	log.Info("Created BigQuery client for project ", cfg.Project)
	return &BigQuery{log: log, client: client}, nil
}

func (b *BigQuery) Load(ctx context.Context, job jobs.LoadJob) (Result, error) {
	t := b.table(job.Destination)
	loader := t.LoaderFrom(gcsReference(job))
	loader.WriteDisposition = writeDisposition(job.WriteMode)
	loader.CreateDisposition = createDisposition(job.CreateIfNeeded)
	j, err := loader.Run(ctx)
	if err != nil {
		return Result{}, errors.Wrapf(err, "error starting load job %v", job.Name)
	}
	b.log.Info(job.Name, " started BigQuery load job ", j.ID(), " into ", job.Destination)
	status, err := j.Wait(ctx)
	if err != nil {
		return Result{JobID: j.ID()}, errors.Wrapf(err, "error waiting for load job %v", j.ID())
	}
	if err = status.Err(); err != nil {
		return Result{JobID: j.ID()}, errors.Wrapf(err, "load job %v failed", j.ID())
	}
	res := Result{JobID: j.ID()}
	if status.Statistics != nil {
		if s, ok := status.Statistics.Details.(*bigquery.LoadStatistics); ok {
			res.RowsAffected = s.OutputRows
		}
	}
	return res, nil
}

func (b *BigQuery) Query(ctx context.Context, job jobs.QueryJob) (Result, error) {
	t := b.table(job.Destination)
	q := b.client.Query(job.SQL)
	q.Dst = t
	q.WriteDisposition = writeDisposition(job.WriteMode)
	q.CreateDisposition = createDisposition(job.CreateIfNeeded)
	j, err := q.Run(ctx)
	if err != nil {
		return Result{}, errors.Wrapf(err, "error starting query job %v", job.Name)
	}
	b.log.Info(job.Name, " started BigQuery query job ", j.ID(), " into ", job.Destination)
	status, err := j.Wait(ctx)
	if err != nil {
		return Result{JobID: j.ID()}, errors.Wrapf(err, "error waiting for query job %v", j.ID())
	}
	if err = status.Err(); err != nil {
		return Result{JobID: j.ID()}, errors.Wrapf(err, "query job %v failed", j.ID())
	}
	md, err := t.Metadata(ctx)
	if err != nil {
		return Result{JobID: j.ID()}, errors.Wrapf(err, "error fetching metadata of %v", job.Destination)
	}
	return Result{JobID: j.ID(), RowsAffected: int64(md.NumRows)}, nil
}

func (b *BigQuery) Close() error {
	return b.client.Close()
}

func (b *BigQuery) table(t jobs.TableRef) *bigquery.Table {
	return b.client.DatasetInProject(t.Project, t.Dataset).Table(t.Table)
}

func gcsReference(job jobs.LoadJob) *bigquery.GCSReference {
	ref := bigquery.NewGCSReference(job.SourceURIs...)
	ref.SourceFormat = bigquery.CSV
	ref.SkipLeadingRows = job.SkipLeadingRows
	ref.Schema = bigQuerySchema(job.Schema)
	return ref
}

func bigQuerySchema(cols []orders.Column) bigquery.Schema {
	s := make(bigquery.Schema, len(cols))
	for idx, c := range cols {
		s[idx] = &bigquery.FieldSchema{
			Name:     c.Name,
			Type:     bigquery.FieldType(c.Type),
			Required: c.Required,
		}
	}
	return s
}

func writeDisposition(w jobs.WriteMode) bigquery.TableWriteDisposition {
	if w == jobs.WriteTruncate {
		return bigquery.WriteTruncate
	}
	return bigquery.WriteAppend
}

func createDisposition(createIfNeeded bool) bigquery.TableCreateDisposition {
	if createIfNeeded {
		return bigquery.CreateIfNeeded
	}
	return bigquery.CreateNever
}
