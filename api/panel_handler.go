package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/optionocean/internal/engine"
	"github.com/seenimoa/optionocean/internal/panel"
)

// SetControlRequest is the body for PUT /api/v1/panel/{name}.
type SetControlRequest struct {
	Value interface{} `json:"value"`
}

// handleGetPanel returns the control schema with current values.
func (s *Server) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.engine.Panel().Controls(),
	})
}

// handleSetControl sets one control. Connected clients see the resulting
// scene and panel over the WebSocket.
func (s *Server) handleSetControl(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req SetControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if err := s.engine.SetParam(r.Context(), name, req.Value); err != nil {
		writeJSON(w, controlErrorStatus(err), APIResponse{Success: false, Error: err.Error()})
		return
	}

	value, _ := s.engine.Panel().Value(name)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]interface{}{"name": name, "value": value},
	})
}

func controlErrorStatus(err error) int {
	switch {
	case errors.Is(err, panel.ErrUnknownControl):
		return http.StatusNotFound
	case errors.Is(err, panel.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
