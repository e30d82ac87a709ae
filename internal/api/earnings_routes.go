package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kjannette/pi-tracker/internal/earnings"
	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/kjannette/pi-tracker/internal/tracker"
	"github.com/pkg/errors"
)

type earningsResponse struct {
	State      models.EarningsState `json:"state"`
	Board      tracker.Board        `json:"board"`
	Projection *models.Projection   `json:"projection,omitempty"`
}

func (s *Server) handleEarnings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, earningsResponse{
		State: s.tracker.Earnings(),
		Board: s.tracker.Board(),
	})
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	p, err := s.tracker.Recompute()
	s.writeProjection(w, p, err)
}

func (s *Server) handleManualUpdate(w http.ResponseWriter, r *http.Request) {
	p, err := s.tracker.ManualUpdate(r.Context())
	s.writeProjection(w, p, err)
}

type hourlyRateRequest struct {
	HourlyRate string `json:"hourlyRate"`
}

func (s *Server) handleSetHourlyRate(w http.ResponseWriter, r *http.Request) {
	var req hourlyRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := s.tracker.SetHourlyRate(req.HourlyRate)
	s.writeProjection(w, p, err)
}

type currencyRequest struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.ContainsAny(req.Code, "/?&# ") {
		writeError(w, http.StatusBadRequest, "invalid currency code")
		return
	}
	s.tracker.SetCustomCurrency(req.Code, req.Symbol)
	writeJSON(w, http.StatusOK, s.tracker.Rates())
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Rates())
}

func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.RefreshRates(r.Context()))
}

func (s *Server) handleLocked(w http.ResponseWriter, r *http.Request) {
	locked := s.tracker.Locked()
	if locked == nil {
		writeError(w, http.StatusNotFound, "locked balance not fetched yet")
		return
	}
	writeJSON(w, http.StatusOK, locked)
}

func (s *Server) writeProjection(w http.ResponseWriter, p models.Projection, err error) {
	if err != nil {
		if errors.Is(err, earnings.ErrInvalidHourlyRate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "calculation failed")
		return
	}
	writeJSON(w, http.StatusOK, earningsResponse{
		State:      s.tracker.Earnings(),
		Board:      s.tracker.Board(),
		Projection: &p,
	})
}
