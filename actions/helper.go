package actions

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/blob"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	"github.com/relloyd/salespipe/warehouse"
)

// Connection factories. Tests swap these for doubles.
var (
	openStore     = blob.Open
	openWarehouse = warehouse.Open
)

// session is a pipeline with the connections it owns.
type session struct {
	pipeline *pipeline.Pipeline
	store    blob.Store
	wh       warehouse.Warehouse
}

func (s *session) Close(log logger.Logger) {
	if s.wh != nil {
		if err := s.wh.Close(); err != nil {
			log.Warn("error closing warehouse: ", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Warn("error closing blob store: ", err)
		}
	}
}

// openSession connects to storage and the warehouse named in cfg and builds a pipeline over them.
func openSession(ctx context.Context, log logger.Logger, cfg config.Pipeline, opts ...pipeline.Option) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &session{}
	var err error
	s.store, err = openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %v storage", cfg.Storage.Type)
	}
	s.wh, err = openWarehouse(ctx, log, cfg, s.store)
	if err != nil {
		s.Close(log)
		return nil, errors.Wrapf(err, "unable to connect to %v", cfg.Warehouse.Type)
	}
	s.pipeline, err = pipeline.New(log, cfg, s.store, s.wh, opts...)
	if err != nil {
		s.Close(log)
		return nil, err
	}
	return s, nil
}

// loadPipelineConfig reads the defaults, then fileName if set, then environment variables when fromEnv is true.
func loadPipelineConfig(fileName string, fromEnv bool) (config.Pipeline, error) {
	p := config.Default()
	var err error
	if fileName != "" {
		if p, err = config.Load(fileName); err != nil {
			return p, err
		}
	}
	if fromEnv {
		if err = config.ApplyEnv(&p, constants.EnvVarPrefix); err != nil {
			return p, err
		}
	}
	return p, nil
}

// contextWithSignals returns a context that is cancelled on CTRL-C or SIGTERM.
func contextWithSignals(log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case x := <-c:
			fmt.Println() // clean CLI look n feel after ^C.
			log.Info("Caught ", x.String())
			log.Info("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
	return ctx, cancel
}
