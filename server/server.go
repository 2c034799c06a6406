package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	"github.com/relloyd/salespipe/stats"
)

type Config struct {
	Scheme string `errorTxt:"scheme" mandatory:"no"`
	Addr   string `errorTxt:"address" mandatory:"no"` // empty listens on all interfaces.
	Port   int    `errorTxt:"port" mandatory:"yes"`
}

// Trigger starts manual runs.
type Trigger interface {
	TriggerNow() error
}

// RunStopper cancels active runs.
type RunStopper interface {
	Stop(runID string) error
	StopAll() int
}

// Deps are what the handlers read and control.
type Deps struct {
	Runs    *pipeline.SafeMapRunInfo
	Stopper RunStopper
	Trigger Trigger
	Metrics *stats.Metrics
}

// NewRouter creates the routes of the monitoring API.
// A request to /stop is signalled on chanStopServer.
func NewRouter(log logger.Logger, d Deps, chanStopServer chan string) *mux.Router {
	r := mux.NewRouter()
	r.Path("/health").Methods(http.MethodGet).HandlerFunc(GetHandlerHealth(log))
	r.Path("/stop").Methods(http.MethodPost).HandlerFunc(GetHandlerStopServer(log, chanStopServer))
	r.Path("/runs").Methods(http.MethodGet).HandlerFunc(GetHandlerRunList(log, d.Runs))
	r.Path("/runs/{runId}/status").Methods(http.MethodGet).HandlerFunc(GetHandlerRunStatus(log, d.Runs))
	r.Path("/runs/{runId}/stats").Methods(http.MethodGet).HandlerFunc(GetHandlerRunStats(log, d.Runs))
	r.Path("/runs/{runId}/stop").Methods(http.MethodPost).HandlerFunc(GetHandlerRunStop(log, d.Runs, d.Stopper))
	r.Path("/trigger").Methods(http.MethodPost).HandlerFunc(GetHandlerTrigger(log, d.Trigger))
	if d.Metrics != nil {
		r.Path("/metrics").Methods(http.MethodGet).Handler(d.Metrics.Handler())
	}
	return r
}

// Run serves the monitoring API until ctx is cancelled or /stop is requested.
// Active runs are stopped before the server shuts down.
func Run(ctx context.Context, log logger.Logger, cfg Config, d Deps) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	chanStopServer := make(chan string, 1)
	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Addr, strconv.Itoa(cfg.Port)),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      NewRouter(log, d, chanStopServer),
	}
	chanErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			chanErr <- errors.Wrap(err, "web server failed")
		}
	}()
	scheme := strings.ToLower(cfg.Scheme)
	if scheme == "" {
		scheme = "http"
	}
	log.Info(fmt.Sprintf("Listening on %v://%v", scheme, srv.Addr))
	select {
	case <-ctx.Done():
	case <-chanStopServer:
	case err := <-chanErr:
		return err
	}
	log.Info("Shutting down web server...")
	if d.Stopper != nil {
		if n := d.Stopper.StopAll(); n > 0 {
			log.Info("Stopped ", n, " active run(s)")
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	return srv.Shutdown(shutdownCtx) // waits for open connections until the timeout.
}
