package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/operator-account-registry/api"
	"github.com/ruteri/operator-account-registry/interfaces"
	"github.com/ruteri/operator-account-registry/metrics"
)

// Observer records the outcome of each registry request.
type Observer interface {
	Observe(op, result string, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) Observe(string, string, time.Duration) {}

// RequestError provides structured error information for HTTP responses.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Handler serves the account endpoints on top of an AccountRegistry.
// Callers are resolved per request and passed to the registry, which decides
// whether they may proceed.
type Handler struct {
	registry interfaces.AccountRegistry
	callers  interfaces.CallerResolver
	metrics  Observer
	log      *slog.Logger
}

// NewHandler creates a handler. observer may be nil.
func NewHandler(registry interfaces.AccountRegistry, callers interfaces.CallerResolver, observer Observer, log *slog.Logger) *Handler {
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		registry: registry,
		callers:  callers,
		metrics:  observer,
		log:      log,
	}
}

// RegisterRoutes mounts the account endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/accounts/{id}", h.HandleGetAccount)
	r.Put("/api/accounts/{id}", h.HandleSetAccount)
}

// HandleGetAccount returns the address bound to an identifier.
//
// URL format: GET /api/accounts/{id}
// Response: 200 AccountResponse, 404 when the identifier has no binding.
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := accountID(r)
	if err != nil {
		h.fail(w, "get", start, err)
		return
	}

	caller, err := h.callers.Caller(r)
	if err != nil {
		h.fail(w, "get", start, err)
		return
	}

	address, found, err := h.registry.GetAccount(r.Context(), caller, id)
	if err != nil {
		h.fail(w, "get", start, err)
		return
	}
	if !found {
		h.metrics.Observe("get", metrics.ResultNotFound, time.Since(start))
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: api.AccountNotFound})
		return
	}

	h.metrics.Observe("get", metrics.ResultOK, time.Since(start))
	writeJSON(w, http.StatusOK, api.AccountResponse{ID: id, Address: address})
}

// HandleSetAccount binds an identifier to an address.
//
// URL format: PUT /api/accounts/{id}
// Request body: SetAccountRequest, at most api.MaxBodySize bytes.
// Response: 200 AccountResponse echoing the stored binding.
func (h *Handler) HandleSetAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, api.MaxBodySize)

	id, err := accountID(r)
	if err != nil {
		h.fail(w, "set", start, err)
		return
	}

	// Resolving the caller reads the whole body, which enforces the size limit.
	caller, err := h.callers.Caller(r)
	if err != nil {
		h.fail(w, "set", start, err)
		return
	}

	var req struct {
		Address *string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, "set", start, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("invalid request body")})
		return
	}
	if req.Address == nil {
		h.fail(w, "set", start, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("missing address")})
		return
	}

	if err := h.registry.SetAccount(r.Context(), caller, id, *req.Address); err != nil {
		h.fail(w, "set", start, err)
		return
	}

	h.log.Info("Account updated", "id", id, "caller", caller.Hex())
	h.metrics.Observe("set", metrics.ResultOK, time.Since(start))
	writeJSON(w, http.StatusOK, api.AccountResponse{ID: id, Address: *req.Address})
}

// accountID returns the decoded {id} segment. chi matches on RawPath when the
// request has one, in which case the parameter is still escaped.
func accountID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id, nil
	}
	id, err := url.PathUnescape(id)
	if err != nil {
		return "", &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("invalid account id")}
	}
	return id, nil
}

// fail maps err to a status code, records it and writes the error body.
// Authorization failures never reveal whether the entry exists.
func (h *Handler) fail(w http.ResponseWriter, op string, start time.Time, err error) {
	status, result, message := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Registry request failed", "op", op, "err", err)
	} else {
		h.log.Debug("Registry request rejected", "op", op, "status", status, "err", err)
	}
	h.metrics.Observe(op, result, time.Since(start))
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

func classify(err error) (status int, result string, message string) {
	var reqErr *RequestError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, interfaces.ErrUnauthorized):
		return http.StatusUnauthorized, metrics.ResultUnauthorized, interfaces.ErrUnauthorized.Error()
	case errors.As(err, &maxBytesErr):
		return http.StatusBadRequest, metrics.ResultBadRequest, "request body too large"
	case errors.As(err, &reqErr):
		return reqErr.StatusCode, metrics.ResultBadRequest, reqErr.Error()
	case errors.Is(err, interfaces.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, metrics.ResultUnavailable, "store unavailable"
	default:
		return http.StatusInternalServerError, metrics.ResultError, "internal server error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
