package api

import (
	"net/http"
	"time"

	"github.com/kjannette/pi-tracker/internal/chart"
	"github.com/kjannette/pi-tracker/internal/models"
	"go.uber.org/zap"
)

type historyResponse struct {
	Samples []models.PriceSample `json:"samples"`
	Summary chart.Summary        `json:"summary"`
}

// handlePriceHistory returns the newest ?limit samples, optionally only those
// on or after ?since=YYYY-MM-DD (local time).
func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	samples := s.tracker.History()

	if since := r.URL.Query().Get("since"); since != "" {
		if !validateDate(since) {
			writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
			return
		}
		from, _ := time.ParseInLocation("2006-01-02", since, time.Local)
		filtered := samples[:0:0]
		for _, p := range samples {
			if !p.Time.Before(from) {
				filtered = append(filtered, p)
			}
		}
		samples = filtered
	}

	limit := parseLimit(r, maxQueryLimit)
	if len(samples) > limit {
		samples = samples[len(samples)-limit:]
	}
	if samples == nil {
		samples = []models.PriceSample{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Samples: samples, Summary: s.tracker.Summary()})
}

func (s *Server) handleLatestPrice(w http.ResponseWriter, r *http.Request) {
	samples := s.tracker.History()
	if len(samples) == 0 {
		writeError(w, http.StatusNotFound, "no price data available")
		return
	}
	writeJSON(w, http.StatusOK, samples[len(samples)-1])
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.tracker.Chart()))
}

type chartRefreshResponse struct {
	Sample       models.PriceSample `json:"sample"`
	CurrentPrice string             `json:"currentPrice"`
}

// handleChartRefresh records a new price sample and redraws the chart.
func (s *Server) handleChartRefresh(w http.ResponseWriter, r *http.Request) {
	sample, err := s.tracker.RecordPrice(r.Context())
	if err != nil {
		s.logger.Error("error recording price", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record price")
		return
	}
	writeJSON(w, http.StatusOK, chartRefreshResponse{
		Sample:       sample,
		CurrentPrice: s.tracker.Board().CurrentPrice,
	})
}
