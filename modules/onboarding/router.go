package onboarding

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Router exposes the workflow over HTTP. Handlers stay thin: decode, call the
// flow, map the error taxonomy to status codes.
func Router(flow *Flow, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	h := &handler{flow: flow, log: log}

	r := chi.NewRouter()
	r.Route("/processes", func(r chi.Router) {
		r.Post("/", h.start)
		r.Post("/conversions", h.startConversion)
		r.Route("/{processID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Get("/history", h.listHistory)
			r.Patch("/variables", h.updateVariables)
			r.Post("/events", h.handleEvent)
			r.Post("/advance", h.advance)
			r.Post("/async-results", h.submitAsyncResult)
		})
	})
	return r
}

type handler struct {
	flow *Flow
	log  *slog.Logger
}

type startRequest struct {
	ClientID  string         `json:"clientId"`
	Type      string         `json:"type"`
	Variables map[string]any `json:"variables,omitempty"`
}

type startConversionRequest struct {
	ClientID       string         `json:"clientId"`
	MinorAccountID string         `json:"minorAccountId"`
	Variables      map[string]any `json:"variables,omitempty"`
}

type eventRequest struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

type advanceRequest struct {
	Payload map[string]any `json:"payload,omitempty"`
}

type asyncResultRequest struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type variablesRequest struct {
	Variables map[string]any `json:"variables"`
}

type processResponse struct {
	ID         string         `json:"id"`
	ClientID   string         `json:"clientId"`
	Type       ProcessType    `json:"type"`
	State      ProcessState   `json:"state"`
	ScreenCode string         `json:"screenCode,omitempty"`
	Variables  map[string]any `json:"variables"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	Version    int64          `json:"version"`
}

func toProcessResponse(pi *ProcessInstance) processResponse {
	return processResponse{
		ID:         pi.ID,
		ClientID:   pi.ClientID,
		Type:       pi.Type,
		State:      pi.State,
		ScreenCode: pi.ScreenCode(),
		Variables:  pi.Variables,
		CreatedAt:  pi.CreatedAt,
		UpdatedAt:  pi.UpdatedAt,
		Version:    pi.Version,
	}
}

func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, NewInvalidInputError("body", "malformed JSON"))
		return
	}

	t, err := ParseProcessType(req.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pi, err := h.flow.Start(r.Context(), req.ClientID, t, req.Variables)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toProcessResponse(pi))
}

func (h *handler) startConversion(w http.ResponseWriter, r *http.Request) {
	var req startConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, NewInvalidInputError("body", "malformed JSON"))
		return
	}

	pi, err := h.flow.StartConversion(r.Context(), req.ClientID, req.MinorAccountID, req.Variables)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toProcessResponse(pi))
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	pi, err := h.flow.Get(r.Context(), chi.URLParam(r, "processID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toProcessResponse(pi))
}

func (h *handler) listHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.flow.History(r.Context(), chi.URLParam(r, "processID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []ProcessHistory{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *handler) updateVariables(w http.ResponseWriter, r *http.Request) {
	var req variablesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, NewInvalidInputError("body", "malformed JSON"))
		return
	}
	if len(req.Variables) == 0 {
		h.writeError(w, r, NewInvalidInputError("variables", "must not be empty"))
		return
	}

	pi, err := h.flow.UpdateVariables(r.Context(), chi.URLParam(r, "processID"), req.Variables)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toProcessResponse(pi))
}

func (h *handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, NewInvalidInputError("body", "malformed JSON"))
		return
	}

	event, err := ParseProcessEvent(req.Event)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pi, err := h.flow.HandleEvent(r.Context(), chi.URLParam(r, "processID"), event, req.Payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toProcessResponse(pi))
}

func (h *handler) advance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, r, NewInvalidInputError("body", "malformed JSON"))
			return
		}
	}

	pi, err := h.flow.Advance(r.Context(), chi.URLParam(r, "processID"), req.Payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toProcessResponse(pi))
}

func (h *handler) submitAsyncResult(w http.ResponseWriter, r *http.Request) {
	var req asyncResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, NewInvalidInputError("body", "malformed JSON"))
		return
	}

	pi, err := h.flow.SubmitAsyncResult(r.Context(), chi.URLParam(r, "processID"), req.Type, req.Payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toProcessResponse(pi))
}

type errorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Details []CheckError `json:"details,omitempty"`
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: "internal_error", Message: "internal server error"}
	status := http.StatusInternalServerError

	var (
		invalid  *InvalidInputError
		precond  *PreconditionsNotMetError
		rejected *EventNotAcceptedError
		noStep   *NoNextStepError
	)
	switch {
	case errors.Is(err, ErrProcessNotFound):
		status = http.StatusNotFound
		resp = errorResponse{Error: "not_found", Message: err.Error()}
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
		resp = errorResponse{Error: "invalid_input", Message: invalid.Error()}
	case errors.As(err, &precond):
		status = http.StatusConflict
		resp = errorResponse{Error: "preconditions_not_met", Message: precond.Error(), Details: precond.Errors}
	case errors.As(err, &rejected):
		status = http.StatusConflict
		resp = errorResponse{Error: "event_not_accepted", Message: rejected.Error()}
	case errors.As(err, &noStep):
		status = http.StatusConflict
		resp = errorResponse{Error: "no_next_step", Message: noStep.Error()}
	case errors.Is(err, ErrVersionConflict):
		status = http.StatusConflict
		resp = errorResponse{Error: "version_conflict", Message: err.Error()}
	case errors.Is(err, ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		resp = errorResponse{Error: "store_unavailable", Message: err.Error()}
	default:
		h.log.ErrorContext(r.Context(), "unhandled error", slog.Any("error", err))
	}

	h.writeJSON(w, status, resp)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to encode response", slog.Any("error", err))
	}
}
