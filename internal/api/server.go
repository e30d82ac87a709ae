package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/kjannette/pi-tracker/internal/chart"
	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/kjannette/pi-tracker/internal/tracker"
	"go.uber.org/zap"
)

const maxQueryLimit = 1000

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Tracker is what the API drives. *tracker.Service implements it.
type Tracker interface {
	Running() bool
	Board() tracker.Board
	Earnings() models.EarningsState
	Recompute() (models.Projection, error)
	ManualUpdate(ctx context.Context) (models.Projection, error)
	SetHourlyRate(raw string) (models.Projection, error)
	SetCustomCurrency(code, symbol string)
	Rates() models.ExchangeRates
	RefreshRates(ctx context.Context) models.ExchangeRates
	Locked() *models.LockedBalance
	History() []models.PriceSample
	RecordPrice(ctx context.Context) (models.PriceSample, error)
	Chart() string
	Summary() chart.Summary
}

type Server struct {
	tracker    Tracker
	httpServer *http.Server
	apiKey     string
	logger     *zap.Logger
}

func NewServer(t Tracker, port int, apiKey, corsOrigin string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		tracker: t,
		apiKey:  apiKey,
		logger:  logger.Named("api"),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.authMiddleware(corsMiddleware(s.routes(), corsOrigin)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	// Earnings routes
	router.HandleFunc("/v1/earnings", s.handleEarnings).Methods("GET")
	router.HandleFunc("/v1/earnings/recompute", s.handleRecompute).Methods("POST")
	router.HandleFunc("/v1/earnings/manual-update", s.handleManualUpdate).Methods("POST")
	router.HandleFunc("/v1/earnings/hourly-rate", s.handleSetHourlyRate).Methods("PUT")
	router.HandleFunc("/v1/currency", s.handleSetCurrency).Methods("PUT")

	// Rate routes
	router.HandleFunc("/v1/rates", s.handleRates).Methods("GET")
	router.HandleFunc("/v1/rates/refresh", s.handleRefreshRates).Methods("POST")
	router.HandleFunc("/v1/locked", s.handleLocked).Methods("GET")

	// Price routes
	router.HandleFunc("/v1/prices/history", s.handlePriceHistory).Methods("GET")
	router.HandleFunc("/v1/prices/latest", s.handleLatestPrice).Methods("GET")
	router.HandleFunc("/v1/chart", s.handleChart).Methods("GET")
	router.HandleFunc("/v1/chart/refresh", s.handleChartRefresh).Methods("POST")

	// Health check (no auth required)
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	return router
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("REST API server started", zap.String("addr", "http://localhost"+s.httpServer.Addr))
	if s.apiKey != "" {
		s.logger.Info("authentication enabled (Bearer token)")
	} else {
		s.logger.Warn("authentication disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
