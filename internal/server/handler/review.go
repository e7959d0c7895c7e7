// Package handler provides the HTTP handlers for the review API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tildaslashalef/reviewd/internal/loggy"
	"github.com/tildaslashalef/reviewd/internal/review"
)

// ReviewService is the part of the review orchestrator the API depends on.
type ReviewService interface {
	CreateReview(ctx context.Context, req review.ReviewRequest) (*review.Review, error)
	GetReview(ctx context.Context, id string) (*review.Review, error)
	ListReviews(ctx context.Context, skip, limit int) ([]*review.ReviewSummary, error)
	RerunReview(ctx context.Context, id string) (*review.Review, error)
}

// ReviewHandler serves the review endpoints.
type ReviewHandler struct {
	svc    ReviewService
	logger *loggy.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(svc ReviewService, logger *loggy.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, logger: logger}
}

// Create submits code for analysis and returns the stored review.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req review.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.FilePath == "" {
		respondError(w, http.StatusBadRequest, "file_path is required")
		return
	}

	created, err := h.svc.CreateReview(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create review", "error", err, "file_path", req.FilePath)
		respondError(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	respondJSON(w, http.StatusCreated, review.ResponseFromReview(created))
}

// Get returns a single review with its suggestions.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reviewID")

	found, err := h.svc.GetReview(r.Context(), id)
	if err != nil {
		if errors.Is(err, review.ErrReviewNotFound) {
			respondError(w, http.StatusNotFound, "Review with ID "+id+" not found")
			return
		}
		h.logger.Error("failed to get review", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to get review")
		return
	}

	respondJSON(w, http.StatusOK, review.ResponseFromReview(found))
}

// Rerun re-analyzes a review's original source and returns the new result.
func (h *ReviewHandler) Rerun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reviewID")

	rerun, err := h.svc.RerunReview(r.Context(), id)
	if err != nil {
		if errors.Is(err, review.ErrReviewNotFound) {
			respondError(w, http.StatusNotFound, "Review with ID "+id+" not found")
			return
		}
		h.logger.Error("failed to rerun review", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to rerun review")
		return
	}

	respondJSON(w, http.StatusOK, review.ResponseFromReview(rerun))
}

// List returns review summaries, newest first, with skip/limit pagination.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", review.DefaultListLimit)

	summaries, err := h.svc.ListReviews(r.Context(), skip, limit)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	if summaries == nil {
		summaries = []*review.ReviewSummary{}
	}
	respondJSON(w, http.StatusOK, summaries)
}

// queryInt reads an integer query parameter, falling back to def on absence
// or garbage.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
