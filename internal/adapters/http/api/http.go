// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/deathboard/internal/app"
	"github.com/okian/deathboard/internal/domain/notify"
	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/internal/domain/slots"
	"github.com/okian/deathboard/internal/scheduler"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Initialize(ctx context.Context, inv service.Invoker, n notify.Notifier) (slots.EnsureReport, error)
	Delete(ctx context.Context, n notify.Notifier) error
	Report(ctx context.Context, n notify.Notifier) (ranking.Ranking, error)
	Units() string
}

// Server wires HTTP routes for the hologram commands.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	hologramsHandler *HologramsHandler
	reportHandler    *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		hologramsHandler: NewHologramsHandler(deps),
		reportHandler:    NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/holograms/start", MetricsMiddleware(s.hologramsHandler.HandleStart, "holograms_start"))
	mux.HandleFunc("/holograms/delete", MetricsMiddleware(s.hologramsHandler.HandleDelete, "holograms_delete"))
	mux.HandleFunc("/report", MetricsMiddleware(s.reportHandler.HandleReport, "report"))
}

// commandResponse is the body of every hologram command.
type commandResponse struct {
	Status   string              `json:"status"`
	Messages []notify.Message    `json:"messages"`
	Report   *slots.EnsureReport `json:"report,omitempty"`
	Ranking  *ranking.Ranking    `json:"ranking,omitempty"`
	Text     string              `json:"text,omitempty"`
}

type errorResponse struct {
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Messages []notify.Message `json:"messages,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeCommandError maps a command failure to a status code. The body carries
// the operator messages rather than the internal error.
func writeCommandError(w http.ResponseWriter, op string, err error, c *notify.Collector) {
	kind, status, code := ErrInternal, http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, scheduler.ErrBusy):
		kind, status, code = ErrBusy, http.StatusConflict, "busy"
	case errors.Is(err, scheduler.ErrStopped), errors.Is(err, ranking.ErrStoreUnavailable):
		kind, status, code = ErrUnavailable, http.StatusServiceUnavailable, "unavailable"
	}
	msgs := c.Messages()
	msg := NewKind(op, kind).Error()
	for _, m := range msgs {
		if m.Level == notify.LevelError {
			msg = m.Text
			break
		}
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Messages: msgs})
}
