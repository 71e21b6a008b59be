package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/absolutely-right/internal/database"
	"github.com/benvon/absolutely-right/internal/models"
	"github.com/benvon/absolutely-right/internal/queue"
	"github.com/benvon/absolutely-right/internal/record"
	"github.com/benvon/absolutely-right/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// StatsHandler serves the collector API
type StatsHandler struct {
	repo   database.DailyStatsRepositoryInterface
	queue  queue.JobQueue
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsHandler creates a stats handler. When q is non-nil rows posted to
// /api/set are handed to the ingest worker instead of written directly.
func NewStatsHandler(repo database.DailyStatsRepositoryInterface, q queue.JobQueue, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{repo: repo, queue: q, logger: logger, now: time.Now}
}

// RegisterReadRoutes registers the public read endpoints on the /api router
func (h *StatsHandler) RegisterReadRoutes(r *mux.Router) {
	r.HandleFunc("/today", h.Today).Methods("GET")
	r.HandleFunc("/history", h.History).Methods("GET")
}

// RegisterWriteRoutes registers the authenticated write endpoint on the /api router
func (h *StatsHandler) RegisterWriteRoutes(r *mux.Router) {
	r.HandleFunc("/set", h.Set).Methods("POST")
}

// Today returns the counters stored for the current UTC day
func (h *StatsHandler) Today(w http.ResponseWriter, r *http.Request) {
	day := h.now().UTC().Format(record.DateLayout)

	stats, err := h.repo.GetByDay(r.Context(), day)
	if err != nil {
		h.logger.Error("today_lookup_failed", zap.String("day", day), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load today's stats")
		return
	}

	resp := models.TodayResponse{Day: day}
	if stats != nil {
		resp.Count = stats.Count
		resp.RightCount = stats.RightCount
		resp.TotalMessages = stats.TotalMessages
	}
	writeJSON(w, http.StatusOK, resp)
}

// History returns every stored day oldest first. ?days= keeps only the most recent days.
func (h *StatsHandler) History(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "days must be a positive integer")
			return
		}
		days = n
	}

	history, err := h.repo.History(r.Context(), days)
	if err != nil {
		h.logger.Error("history_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// Set stores one uploaded daily row
func (h *StatsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var row models.DailyRow
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&row); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(row); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+validation.Describe(err))
		return
	}

	if h.queue != nil {
		h.enqueue(r.Context(), w, row)
		return
	}

	if err := h.repo.Upsert(r.Context(), row); err != nil {
		h.logger.Error("daily_row_upsert_failed", zap.String("day", row.Day), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store row")
		return
	}

	h.logger.Info("daily_row_stored",
		zap.String("day", row.Day),
		zap.Int("count", row.Count),
		zap.Int("right_count", row.RightCount),
		zap.Int("total_messages", row.TotalMessages))
	respondJSON(w, http.StatusOK, row)
}

func (h *StatsHandler) enqueue(ctx context.Context, w http.ResponseWriter, row models.DailyRow) {
	job := queue.NewDailyRowJob(row, "api")
	if err := h.queue.Enqueue(ctx, job); err != nil {
		h.logger.Error("daily_row_enqueue_failed", zap.String("day", row.Day), zap.Error(err))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to queue row")
		return
	}

	h.logger.Info("daily_row_enqueued", zap.String("day", row.Day), zap.String("job_id", job.ID.String()))
	respondJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID.String(), "row": row})
}
