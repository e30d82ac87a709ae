package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Scheduler string `json:"scheduler"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	schedStatus := "running"
	if !s.tracker.Running() {
		schedStatus = "stopped"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  healthServices{Scheduler: schedStatus},
	})
}
