package api

import (
	"net/http"

	"github.com/okian/deathboard/internal/domain/notify"
)

// ReportHandler handles the report command.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleReport handles GET and POST /report requests. Both run a full
// refresh, hologram updates included.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.report"
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	c := &notify.Collector{}
	rk, err := h.deps.Report(r.Context(), notify.Feedback(c))
	if err != nil {
		writeCommandError(w, op, err, c)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(rk.Text(h.deps.Units())))
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{
		Status:   "ok",
		Messages: c.Messages(),
		Ranking:  &rk,
		Text:     rk.Text(h.deps.Units()),
	})
}
