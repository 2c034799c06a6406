package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	"github.com/relloyd/salespipe/scheduler"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		return nil, fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
	}
	return json.Marshal(retval)
}

type ResponseSimple struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message,omitempty"`
}

type ResponseRunList struct {
	Status WebServerResponse `json:"status"`
	Runs   []RunListItem     `json:"runs"`
}

type RunListItem struct {
	RunID   string             `json:"runId"`
	Trigger string             `json:"trigger"`
	Status  pipeline.RunStatus `json:"runStatus"`
}

type ResponseRunStatus struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	Run     *pipeline.RunInfo `json:"run,omitempty"`
}

type ResponseRunStats struct {
	Status       WebServerResponse `json:"status"`
	Message      string            `json:"message"`
	StatsSummary interface{}       `json:"runStats"`
}

type ResponseRunStop struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	RunID   string            `json:"runId"`
}

func GetHandlerHealth(log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(log, w, http.StatusOK, ResponseSimple{Status: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStop chan string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case chanStop <- "stop":
			log.Info("Stop signal sent")
		default: // already stopping.
		}
		respond(log, w, http.StatusOK, ResponseSimple{Status: Okay, Message: "stopping"})
	}
}

func GetHandlerTrigger(log logger.Logger, t Trigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if t == nil {
			respond(log, w, http.StatusNotImplemented, ResponseSimple{Status: Error, Message: "manual runs are not available"})
			return
		}
		err := t.TriggerNow()
		if errors.Is(err, scheduler.ErrAlreadyRunning) {
			respond(log, w, http.StatusConflict, ResponseSimple{Status: Error, Message: err.Error()})
			return
		} else if err != nil {
			log.Error(err)
			respond(log, w, http.StatusInternalServerError, ResponseSimple{Status: Error, Message: err.Error()})
			return
		}
		log.Info("Manual run triggered via HTTP")
		respond(log, w, http.StatusAccepted, ResponseSimple{Status: Okay, Message: "run triggered"})
	}
}

func GetHandlerRunList(log logger.Logger, runs *pipeline.SafeMapRunInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := runs.List()
		items := make([]RunListItem, 0, len(list))
		for _, ri := range list {
			items = append(items, RunListItem{RunID: ri.RunID, Trigger: ri.Trigger, Status: ri.Status})
		}
		respond(log, w, http.StatusOK, ResponseRunList{Status: Okay, Runs: items})
	}
}

func GetHandlerRunStatus(log logger.Logger, runs *pipeline.SafeMapRunInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		ri, ok := runs.Load(id)
		if !ok {
			log.Info("HTTP request status of run ", id, " that doesn't exist.")
			respond(log, w, http.StatusNotFound, ResponseRunStatus{Status: Error, Message: fmt.Sprintf("run %v does not exist", id)})
			return
		}
		respond(log, w, http.StatusOK, ResponseRunStatus{Status: Okay, Run: &ri})
	}
}

func GetHandlerRunStats(log logger.Logger, runs *pipeline.SafeMapRunInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		ri, ok := runs.Load(id)
		if !ok || ri.Stats == nil {
			log.Info("HTTP request to fetch stats for run ", id, " that doesn't exist.")
			respond(log, w, http.StatusNotFound, ResponseRunStats{Status: Error, Message: fmt.Sprintf("run %v does not exist", id)})
			return
		}
		respond(log, w, http.StatusOK, ResponseRunStats{Status: Okay, StatsSummary: ri.Stats.GetStats()})
	}
}

func GetHandlerRunStop(log logger.Logger, runs *pipeline.SafeMapRunInfo, s RunStopper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		ri, ok := runs.Load(id)
		if !ok {
			log.Info("HTTP request to stop run ", id, " that doesn't exist.")
			respond(log, w, http.StatusNotFound, ResponseRunStop{Status: Error, Message: "run does not exist", RunID: id})
			return
		}
		if ri.Status.IsFinished() || s == nil {
			log.Info("HTTP request to stop run ", id, " that has already finished.")
			respond(log, w, http.StatusConflict, ResponseRunStop{Status: Error, Message: "run already ended", RunID: id})
			return
		}
		if err := s.Stop(id); err != nil {
			respond(log, w, http.StatusConflict, ResponseRunStop{Status: Error, Message: err.Error(), RunID: id})
			return
		}
		log.Info("Stopping run ", id)
		respond(log, w, http.StatusOK, ResponseRunStop{Status: Okay, Message: "shutting down", RunID: id})
	}
}

// respond will marshal i and write it to w with the given status code.
func respond(log logger.Logger, w http.ResponseWriter, code int, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Error("unable to marshal HTTP response: ", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(j); err != nil {
		log.Error("unable to write HTTP response: ", err)
	}
}
