package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	service "github.com/okian/deathboard/internal/app"
	"github.com/okian/deathboard/internal/domain/notify"
	"github.com/okian/deathboard/internal/domain/slots"
)

// startRequest mirrors the body of POST /holograms/start: where the invoker
// stands and where they look.
type startRequest struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Z     *float64 `json:"z"`
	Yaw   float64  `json:"yaw"`
	Pitch float64  `json:"pitch"`
}

func (s startRequest) validate() error {
	switch {
	case s.X == nil || s.Y == nil || s.Z == nil:
		return errors.New("missing position; x, y and z are required")
	case !finite(*s.X, *s.Y, *s.Z, s.Yaw, s.Pitch):
		return errors.New("coordinates must be finite numbers")
	case s.Pitch < -90 || s.Pitch > 90:
		return errors.New("pitch must be between -90 and 90")
	}
	return nil
}

func (s startRequest) invoker() service.Invoker {
	return service.Invoker{
		Position: slots.Position{X: *s.X, Y: *s.Y, Z: *s.Z},
		Yaw:      s.Yaw,
		Pitch:    s.Pitch,
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// HologramsHandler handles the start and delete commands.
type HologramsHandler struct {
	deps Dependencies
}

// NewHologramsHandler creates a new holograms handler.
func NewHologramsHandler(deps Dependencies) *HologramsHandler {
	return &HologramsHandler{deps: deps}
}

// HandleStart handles POST /holograms/start requests.
func (h *HologramsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.holograms_start"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	c := &notify.Collector{}
	rep, err := h.deps.Initialize(r.Context(), req.invoker(), notify.Feedback(c))
	if err != nil {
		writeCommandError(w, op, err, c)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Status: "ok", Messages: c.Messages(), Report: &rep})
}

// HandleDelete handles POST /holograms/delete requests.
func (h *HologramsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.holograms_delete"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	c := &notify.Collector{}
	if err := h.deps.Delete(r.Context(), notify.Feedback(c)); err != nil {
		writeCommandError(w, op, err, c)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Status: "ok", Messages: c.Messages()})
}
