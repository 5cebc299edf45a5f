package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hubward/hubward/internal/progress"
	"github.com/hubward/hubward/internal/provisioning"
)

// provisionBuffer sizes the event channel between the pipeline goroutine
// and the response writer. The writer drains continuously, so the buffer
// only absorbs short bursts of command output.
const provisionBuffer = 64

// handleProvision validates the request, then streams the run's events
// as server-sent data frames. Validation failures are rejected with a
// JSON error before any frame is written; once streaming starts, run
// failures travel inside the stream as error events.
func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	var req provisioning.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		recordRejectedRun()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		recordRejectedRun()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := progress.NewChannelSink(provisionBuffer)
	go s.runProvision(r, req, sink)

	// Drain the sink to the client. The loop runs until the pipeline
	// goroutine closes the sink, even when the client has gone away, so
	// the producer never blocks on an abandoned stream.
	succeeded := false
	for event := range sink.Events() {
		if event.Type == progress.EventSuccess {
			succeeded = true
		}
		writeFrame(w, flusher, event)
	}
	if succeeded {
		writeFrame(w, flusher, progress.Done())
	}
}

// runProvision executes the pipeline and closes the sink when the run
// ends, which releases the draining response writer.
func (s *Server) runProvision(r *http.Request, req provisioning.Request, sink *progress.ChannelSink) {
	defer sink.Close()

	start := time.Now()
	state, err := s.provisioner.Run(r.Context(), req, sink)
	recordRun(string(state), time.Since(start))
	if err != nil {
		recordStageFailure(failedStage(err))
		s.logger.Error(err, "provisioning run failed",
			"host", req.Host, "principal", req.Principal, "state", string(state))
	} else {
		s.logger.Info("provisioning run complete",
			"host", req.Host, "principal", req.Principal, "duration", time.Since(start).String())
	}
	if s.sessions != nil {
		setActiveSessions(s.sessions.Len())
	}
}

// writeFrame emits one event as a server-sent data frame and flushes it
// so the client sees progress as it happens.
func writeFrame(w http.ResponseWriter, flusher http.Flusher, event progress.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// failedStage maps a run error to the metric label of the stage that
// produced it.
func failedStage(err error) string {
	var cmdErr *provisioning.CommandError
	if errors.As(err, &cmdErr) {
		return string(cmdErr.Stage)
	}
	if provisioning.IsPrecondition(err) {
		return string(provisioning.StateDetectTransferTool)
	}
	return "transport"
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	keys := s.sessions.Keys()
	setActiveSessions(len(keys))
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": keys,
		"count":    len(keys),
	})
}

func (s *Server) handleDisconnectSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}

	if err := s.sessions.Disconnect(key); err != nil {
		s.logger.Error(err, "session disconnect failed", "key", key)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("disconnect %s: %v", key, err))
		return
	}

	count := s.sessions.Len()
	setActiveSessions(count)
	writeJSON(w, http.StatusOK, map[string]any{
		"disconnected": key,
		"count":        count,
	})
}
