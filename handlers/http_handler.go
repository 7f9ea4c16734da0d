// Package handlers provides HTTP request handlers for the eskulia API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/goccy/go-json"
)

// Dependencies are the collaborators injected into the handler.
// Registry, Dispatcher and Scheduler may be nil; their endpoints then answer 503.
type Dependencies struct {
	Medicines  interfaces.MedicineStore
	Tokens     interfaces.TokenStore
	Registry   interfaces.RegistryClient
	Dispatcher interfaces.Dispatcher
	Scheduler  interfaces.Scheduler
	Health     interfaces.HealthChecker
	Status     interfaces.ImportStatus
	Validator  interfaces.DataValidator
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	medicines  interfaces.MedicineStore
	tokens     interfaces.TokenStore
	registry   interfaces.RegistryClient
	dispatcher interfaces.Dispatcher
	scheduler  interfaces.Scheduler
	health     interfaces.HealthChecker
	status     interfaces.ImportStatus
	validator  interfaces.DataValidator
}

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps Dependencies) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		medicines:  deps.Medicines,
		tokens:     deps.Tokens,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		scheduler:  deps.Scheduler,
		health:     deps.Health,
		status:     deps.Status,
		validator:  deps.Validator,
	}
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

// respondInternal logs the failure and answers with an opaque 500.
func (h *HTTPHandlerImpl) respondInternal(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.Error("Request failed", "operation", op, "path", r.URL.Path, "error", err)
	h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// respondStoreError maps a store error to 404 or an opaque 500.
func (h *HTTPHandlerImpl) respondStoreError(w http.ResponseWriter, r *http.Request, op, notFoundMsg string, err error) {
	if errors.Is(err, common.ErrNotFound) {
		h.RespondWithError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	h.respondInternal(w, r, op, err)
}
