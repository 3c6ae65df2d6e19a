package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/resolver"
)

const (
	maxRequestBytes = 64 * 1024
	maxBatchSize    = 20
)

// Resolver is the pipeline the handlers expose.
type Resolver interface {
	Resolve(ctx context.Context, q models.ProductQuery) (*models.ProductRecord, error)
	ResolveBatch(ctx context.Context, queries []models.ProductQuery, workers int) []resolver.BatchResult
}

type Handlers struct {
	resolver Resolver
	workers  int
	logger   *slog.Logger
}

func NewHandlers(resolver Resolver, workers int, logger *slog.Logger) *Handlers {
	return &Handlers{
		resolver: resolver,
		workers:  workers,
		logger:   logger.With("component", "api"),
	}
}

// ResolveRequest represents a resolution request
type ResolveRequest struct {
	URL         string              `json:"url"`
	Credentials *models.Credentials `json:"credentials,omitempty"`
}

// ResolveResponse is the record plus the terminal error, if any
type ResolveResponse struct {
	*models.ProductRecord
	Error    string                     `json:"error,omitempty"`
	Attempts []models.ExtractionAttempt `json:"attempts,omitempty"`
}

// Resolve always answers 200 with a record; only malformed requests get 400.
func (h *Handlers) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	rec, err := h.resolver.Resolve(r.Context(), models.ProductQuery{
		RawURL:      req.URL,
		Credentials: req.Credentials,
	})

	if err != nil {
		h.logger.Warn("resolution ended with terminal error", "url", req.URL, "error", err)
	}

	debug, _ := strconv.ParseBool(r.URL.Query().Get("debug"))
	h.respondJSON(w, http.StatusOK, h.response(rec, err, debug))
}

// BatchRequest resolves several URLs with one set of credentials
type BatchRequest struct {
	URLs        []string            `json:"urls"`
	Credentials *models.Credentials `json:"credentials,omitempty"`
}

type BatchResponse struct {
	Results []ResolveResponse `json:"results"`
}

func (h *Handlers) ResolveBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	queries := make([]models.ProductQuery, 0, len(req.URLs))
	for _, u := range req.URLs {
		if u = strings.TrimSpace(u); u != "" {
			queries = append(queries, models.ProductQuery{RawURL: u, Credentials: req.Credentials})
		}
	}
	if len(queries) == 0 {
		h.respondError(w, http.StatusBadRequest, "urls are required")
		return
	}
	if len(queries) > maxBatchSize {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d urls per batch", maxBatchSize))
		return
	}

	debug, _ := strconv.ParseBool(r.URL.Query().Get("debug"))
	results := h.resolver.ResolveBatch(r.Context(), queries, h.workers)

	resp := BatchResponse{Results: make([]ResolveResponse, len(results))}
	for i, res := range results {
		resp.Results[i] = h.response(res.Record, res.Err, debug)
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) response(rec *models.ProductRecord, err error, debug bool) ResolveResponse {
	resp := ResolveResponse{ProductRecord: rec}
	if err != nil {
		resp.Error = err.Error()
	}
	if debug && rec != nil {
		resp.Attempts = rec.Attempts
	}
	return resp
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
