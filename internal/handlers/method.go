// Package handlers is the transport shell over the method dispatcher: it
// frames JSON envelopes in and out and maps dispatch outcomes to the
// response codes of the API.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scoringapi/internal/api"
)

const contentTypeJSON = "application/json"

const requestIDHeader = "X-Request-ID"

// Standard phrases for codes without a specific message. 422 deliberately
// reads "Invalid Request", not the net/http phrase.
var statusPhrases = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not Found",
	http.StatusUnprocessableEntity: "Invalid Request",
	http.StatusInternalServerError: "Internal Server Error",
}

type Dispatcher interface {
	Handle(ctx context.Context, body map[string]any, reqCtx *api.RequestContext) (any, int, error)
}

type MethodHandler struct {
	dispatcher Dispatcher
	log        *zerolog.Logger
}

func NewMethodHandler(dispatcher Dispatcher, log *zerolog.Logger) *MethodHandler {
	return &MethodHandler{
		dispatcher: dispatcher,
		log:        log,
	}
}

type successResponse struct {
	Response any `json:"response"`
	Code     int `json:"code"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// POST /method
func (h *MethodHandler) Method(w http.ResponseWriter, r *http.Request) {
	reqCtx := &api.RequestContext{RequestID: requestID(r)}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "")
		return
	}
	defer r.Body.Close()

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		h.writeError(w, http.StatusBadRequest, "")
		return
	}

	result, code, err := h.dispatcher.Handle(r.Context(), raw, reqCtx)
	if err != nil {
		h.log.Error().Err(err).
			Str("request_id", reqCtx.RequestID).
			Str("method", reqCtx.Method).
			Msg("unexpected error")
		h.writeError(w, http.StatusInternalServerError, "")
		return
	}

	if code != http.StatusOK {
		msg, _ := result.(string)
		h.writeError(w, code, msg)
		return
	}

	h.log.Info().
		Str("request_id", reqCtx.RequestID).
		Str("method", reqCtx.Method).
		Strs("has", reqCtx.Has).
		Int("number_of_clients", reqCtx.NumberOfClients).
		Msg("method handled")

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(successResponse{Response: result, Code: http.StatusOK})
}

// NotFound is installed as the router fallback so unknown paths answer with
// the same envelope as everything else.
func (h *MethodHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, "")
}

func (h *MethodHandler) writeError(w http.ResponseWriter, code int, message string) {
	if message == "" {
		message = statusPhrases[code]
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code})
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
