package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

// Handler is the HTTP surface of the forwarder: POST with a JSON envelope,
// a GET ?endpoint= variant, and an OPTIONS preflight responder. CORS headers
// are attached to every response.
type Handler struct {
	forwarder *Forwarder
	logger    logging.Logger
}

func NewHandler(f *Forwarder, l logging.Logger) *Handler {
	return &Handler{forwarder: f, logger: l.With("module", "proxy")}
}

func setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
	h.Set("Access-Control-Max-Age", "86400")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, &Response{Success: false, Error: "method not allowed"})
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var pr Request
	if err := json.NewDecoder(r.Body).Decode(&pr); err != nil {
		writeJSON(w, http.StatusBadRequest, &Response{Success: false, Error: "invalid request body"})
		return
	}

	if pr.Endpoint == "" {
		writeJSON(w, http.StatusBadRequest, &Response{Success: false, Error: "endpoint is required"})
		return
	}

	h.logger.Info(ctx, "proxying request", "method", pr.Method, "endpoint", pr.Endpoint)

	resp, err := h.forwarder.Forward(ctx, &pr)
	if err != nil {
		h.logger.Error(ctx, "proxy request failed", "endpoint", pr.Endpoint, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, &Response{Success: false, Error: err.Error()})
		return
	}

	// The envelope always travels with HTTP 200; upstream status lives inside.
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		writeJSON(w, http.StatusBadRequest, &Response{Success: false, Error: "Endpoint parameter required"})
		return
	}

	h.logger.Info(ctx, "proxying GET request", "endpoint", endpoint)

	resp, err := h.forwarder.Forward(ctx, &Request{
		Endpoint: endpoint,
		Method:   http.MethodGet,
		Headers:  map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		h.logger.Error(ctx, "proxy GET failed", "endpoint", endpoint, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, &Response{Success: false, Error: "Proxy request failed", Details: err.Error()})
		return
	}

	status := http.StatusOK
	if !resp.Success {
		status = resp.Status
	}
	resp.Headers = nil
	writeJSON(w, status, resp)
}
